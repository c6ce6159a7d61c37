package config

import "context"

type managerCtxKey struct{}

// ContextWithManager returns a child context carrying mgr, so downstream
// code can recover the active Settings without threading a Manager value
// through every call.
func ContextWithManager(ctx context.Context, mgr *Manager) context.Context {
	return context.WithValue(ctx, managerCtxKey{}, mgr)
}

// ManagerFromContext returns the Manager stored in ctx, or nil.
func ManagerFromContext(ctx context.Context) *Manager {
	m, _ := ctx.Value(managerCtxKey{}).(*Manager)
	return m
}

// FromContext returns the current Settings from ctx's Manager, or Default()
// if no Manager (or no loaded Settings) is present.
func FromContext(ctx context.Context) *Settings {
	if mgr := ManagerFromContext(ctx); mgr != nil {
		if cfg := mgr.Get(); cfg != nil {
			return cfg
		}
	}
	return Default()
}
