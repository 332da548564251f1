package navigation

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/naveenspark/backoffice/pkg/domain"
)

//go:embed default.yaml
var defaultTree []byte

type document struct {
	Items []domain.NavItem `yaml:"items"`
}

// Load reads a navigation tree from a YAML file.
func Load(path string) ([]domain.NavItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("navigation.Load: %w", err)
	}
	items, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("navigation.Load %s: %w", path, err)
	}
	return items, nil
}

// Parse decodes a YAML tree and checks every node has a title and every
// leaf a route.
func Parse(data []byte) ([]domain.NavItem, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse navigation: %w", err)
	}
	if err := validate(doc.Items, ""); err != nil {
		return nil, err
	}
	return doc.Items, nil
}

// Default returns the built-in console tree.
func Default() []domain.NavItem {
	items, err := Parse(defaultTree)
	if err != nil {
		panic(fmt.Sprintf("navigation: built-in tree: %v", err))
	}
	return items
}

// LoadOrDefault loads path, or the built-in tree when path is empty.
func LoadOrDefault(path string) ([]domain.NavItem, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

func validate(items []domain.NavItem, parent string) error {
	for i, item := range items {
		if item.Title == "" {
			return fmt.Errorf("navigation item %d under %q has no title", i, parent)
		}
		if !item.HasChildren() && item.To == "" {
			return fmt.Errorf("navigation item %q has no route and no children", item.Title)
		}
		if err := validate(item.Children, item.Title); err != nil {
			return err
		}
	}
	return nil
}
