// Package permission answers "can the current user do X" against the live
// session.
package permission

import (
	"slices"

	"github.com/naveenspark/backoffice/pkg/domain"
)

// Source exposes the session fields the evaluator reads. Implementations
// must return current values on every call.
type Source interface {
	User() *domain.User
	Permissions() []string
}

// Evaluator checks permissions of the form "MODULE.ACTION". Users holding a
// SUPER ADMIN or ADMIN role pass every check.
type Evaluator struct {
	src Source
}

// New returns an Evaluator reading from src at call time.
func New(src Source) *Evaluator {
	return &Evaluator{src: src}
}

// Can reports whether the user holds permission. An empty permission is
// never granted, not even to admins.
func (e *Evaluator) Can(permission string) bool {
	if permission == "" {
		return false
	}
	if e.IsPrivileged() {
		return true
	}
	return slices.Contains(e.src.Permissions(), permission)
}

// CanAny reports whether at least one permission is granted. False for an
// empty list.
func (e *Evaluator) CanAny(permissions []string) bool {
	return slices.ContainsFunc(permissions, e.Can)
}

// CanAll reports whether every permission is granted. True for an empty list.
func (e *Evaluator) CanAll(permissions []string) bool {
	for _, p := range permissions {
		if !e.Can(p) {
			return false
		}
	}
	return true
}

// Cannot is the negation of Can.
func (e *Evaluator) Cannot(permission string) bool {
	return !e.Can(permission)
}

// IsPrivileged reports whether any of the user's roles bypasses permission
// checks.
func (e *Evaluator) IsPrivileged() bool {
	return e.src.User().HasPrivilegedRole()
}
