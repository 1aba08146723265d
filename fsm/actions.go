package fsm

import (
	"fmt"
	"sort"
)

// ActionFactory builds an action from its authored argument once at load
// time.
type ActionFactory[C any] func(arg any) (Action[C], error)

// ActionRegistry maps stable action names to factories.
type ActionRegistry[C any] struct {
	factories map[string]ActionFactory[C]
}

func NewActionRegistry[C any]() *ActionRegistry[C] {
	return &ActionRegistry[C]{factories: map[string]ActionFactory[C]{}}
}

func (r *ActionRegistry[C]) Register(name string, f ActionFactory[C]) {
	if r == nil || name == "" || f == nil {
		return
	}
	if r.factories == nil {
		r.factories = map[string]ActionFactory[C]{}
	}
	r.factories[name] = f
}

func (r *ActionRegistry[C]) Resolve(name string, arg any) (Action[C], error) {
	if r == nil {
		return nil, fmt.Errorf("fsm: unknown action %q", name)
	}
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("fsm: unknown action %q", name)
	}
	a, err := f(arg)
	if err != nil {
		return nil, fmt.Errorf("fsm: build action %q: %w", name, err)
	}
	return a, nil
}

func (r *ActionRegistry[C]) Names() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.factories))
	for name := range r.factories {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
