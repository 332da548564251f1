package router

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/naveenspark/backoffice/pkg/domain"
)

//go:embed routes.yaml
var defaultRoutes []byte

// LoadRoutes reads a route table from a YAML file.
func LoadRoutes(path string) ([]domain.Route, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("router.LoadRoutes: %w", err)
	}
	routes, err := ParseRoutes(data)
	if err != nil {
		return nil, fmt.Errorf("router.LoadRoutes %s: %w", path, err)
	}
	return routes, nil
}

// ParseRoutes decodes a YAML route table. Names must be unique and paths
// absolute.
func ParseRoutes(data []byte) ([]domain.Route, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc struct {
		Routes []domain.Route `yaml:"routes"`
	}
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse routes: %w", err)
	}

	seen := make(map[string]bool, len(doc.Routes))
	for _, rt := range doc.Routes {
		switch {
		case rt.Name == "":
			return nil, fmt.Errorf("route %q has no name", rt.Path)
		case !strings.HasPrefix(rt.Path, "/"):
			return nil, fmt.Errorf("route %q: path %q must start with /", rt.Name, rt.Path)
		case seen[rt.Name]:
			return nil, fmt.Errorf("duplicate route name %q", rt.Name)
		}
		seen[rt.Name] = true
	}
	return doc.Routes, nil
}

// DefaultRoutes returns the built-in console route table.
func DefaultRoutes() []domain.Route {
	routes, err := ParseRoutes(defaultRoutes)
	if err != nil {
		panic(fmt.Sprintf("router: built-in routes: %v", err))
	}
	return routes
}

// LoadRoutesOrDefault loads path, or the built-in table when path is empty.
func LoadRoutesOrDefault(path string) ([]domain.Route, error) {
	if path == "" {
		return DefaultRoutes(), nil
	}
	return LoadRoutes(path)
}
