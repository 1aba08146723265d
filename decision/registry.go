package decision

import (
	"fmt"
	"sort"
)

// Factory builds a predicate from its authored argument. Factories run once
// at load time; the returned predicate runs every transition check.
type Factory[C any] func(arg any) (Predicate[C], error)

// Registry maps stable predicate names to factories.
type Registry[C any] struct {
	factories map[string]Factory[C]
}

func NewRegistry[C any]() *Registry[C] {
	return &Registry[C]{factories: map[string]Factory[C]{}}
}

// Register adds or replaces a factory.
func (r *Registry[C]) Register(name string, f Factory[C]) {
	if r == nil || name == "" || f == nil {
		return
	}
	if r.factories == nil {
		r.factories = map[string]Factory[C]{}
	}
	r.factories[name] = f
}

// RegisterStatic registers a predicate that ignores its argument.
func (r *Registry[C]) RegisterStatic(name string, p Predicate[C]) {
	r.Register(name, func(any) (Predicate[C], error) { return p, nil })
}

func (r *Registry[C]) Has(name string) bool {
	if r == nil {
		return false
	}
	_, ok := r.factories[name]
	return ok
}

// Resolve builds the named predicate.
func (r *Registry[C]) Resolve(name string, arg any) (Predicate[C], error) {
	if r == nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownPredicate, name)
	}
	f, ok := r.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownPredicate, name)
	}
	p, err := f(arg)
	if err != nil {
		return nil, fmt.Errorf("decision: build predicate %q: %w", name, err)
	}
	return p, nil
}

// Names returns the registered names in sorted order.
func (r *Registry[C]) Names() []string {
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

// AsFloat converts a YAML scalar argument to float64.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	case float32:
		return float64(t), true
	default:
		return 0, false
	}
}

// AsString converts a scalar argument to a string; nil becomes "".
func AsString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}
