package persistence

import "context"

// Dependency is one readiness check. A failing required dependency takes the
// service out of rotation; an optional one only marks it degraded.
type Dependency struct {
	Name     string
	Required bool
	Check    func(ctx context.Context) error
}
