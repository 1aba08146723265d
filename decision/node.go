// Package decision implements the boolean condition trees that guard FSM
// transitions. Trees are author data: leaves reference predicates resolved
// from a Registry once at load time, branches compose them with AND/OR and
// every node can be inverted.
package decision

// Predicate is a named boolean test against an actor context. Predicates
// may read mutable counters (time in state, timers) but must be idempotent
// within one tick.
type Predicate[C any] func(ctx C) bool

// Node is a condition tree node. The set of implementations is closed:
// Single, And and Or.
type Node[C any] interface {
	inverted() bool
	sealed()
}

// Single evaluates exactly one predicate. A nil Predicate evaluates to
// false before inversion.
type Single[C any] struct {
	Name      string
	Predicate Predicate[C]
	Invert    bool
}

// And is true when every child is true. An empty And is true.
type And[C any] struct {
	Children []Node[C]
	Invert   bool
}

// Or is true when any child is true. An empty Or is true.
type Or[C any] struct {
	Children []Node[C]
	Invert   bool
}

func (n *Single[C]) inverted() bool { return n.Invert }
func (n *And[C]) inverted() bool    { return n.Invert }
func (n *Or[C]) inverted() bool     { return n.Invert }

func (*Single[C]) sealed() {}
func (*And[C]) sealed()    {}
func (*Or[C]) sealed()     {}

// Leaf builds a Single node.
func Leaf[C any](name string, p Predicate[C]) *Single[C] {
	return &Single[C]{Name: name, Predicate: p}
}

// Not builds a Single node that inverts p.
func Not[C any](name string, p Predicate[C]) *Single[C] {
	return &Single[C]{Name: name, Predicate: p, Invert: true}
}

// All builds an And node.
func All[C any](children ...Node[C]) *And[C] {
	return &And[C]{Children: children}
}

// Any builds an Or node.
func Any[C any](children ...Node[C]) *Or[C] {
	return &Or[C]{Children: children}
}
