package proxy

import "context"

// Source yields the current credential list. Implementations must be safe to
// call repeatedly and must not mutate pool state.
type Source interface {
	Name() string
	Load(ctx context.Context) ([]Credential, error)
}

// ListSource serves a fixed in-memory list.
type ListSource []Credential

func (ListSource) Name() string { return "list" }

func (s ListSource) Load(context.Context) ([]Credential, error) {
	out := make([]Credential, len(s))
	copy(out, s)
	return out, nil
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]Credential, error)

func (SourceFunc) Name() string { return "func" }

func (f SourceFunc) Load(ctx context.Context) ([]Credential, error) { return f(ctx) }
