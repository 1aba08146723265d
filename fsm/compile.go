package fsm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/milk9111/brawler/decision"
	"github.com/milk9111/brawler/prefabs"
)

// Compiler resolves authored FSM specs against predicate and action
// registries.
type Compiler[C any] struct {
	Predicates *decision.Registry[C]
	Actions    *ActionRegistry[C]
	// MaxDepth bounds condition tree depth; 0 means decision.MaxDepth.
	MaxDepth int
}

// Compile turns spec into a Definition. Every configuration problem is
// collected into the returned error while the Definition is still built
// with safe defaults: unknown actions are dropped, unknown predicates and
// over-deep subtrees evaluate to false, unknown destinations and duplicate
// states are skipped. A nil error means the spec compiled cleanly.
func (c *Compiler[C]) Compile(spec prefabs.FSMSpec) (*Definition[C], error) {
	var errs []error
	report := func(err error) { errs = append(errs, err) }

	def := &Definition[C]{
		Initial:            spec.Initial,
		TransitionInterval: spec.TransitionInterval,
		ActionInterval:     spec.ActionInterval,
	}
	if def.TransitionInterval < 0 {
		report(fmt.Errorf("fsm: negative transition_interval %v", def.TransitionInterval))
		def.TransitionInterval = 0
	}
	if def.ActionInterval < 0 {
		report(fmt.Errorf("fsm: negative action_interval %v", def.ActionInterval))
		def.ActionInterval = 0
	}

	known := map[string]bool{}
	var specs []prefabs.StateSpec
	for _, s := range spec.States {
		if s.Name == "" {
			report(fmt.Errorf("%w: state with empty name", ErrUnknownState))
			continue
		}
		if known[s.Name] {
			report(fmt.Errorf("%w %q", ErrDuplicateState, s.Name))
			continue
		}
		known[s.Name] = true
		specs = append(specs, s)
	}

	if spec.Initial == "" {
		report(ErrMissingInitial)
	} else if !known[spec.Initial] {
		report(fmt.Errorf("%w: %q is not a state", ErrMissingInitial, spec.Initial))
	}

	for _, s := range specs {
		state := &State[C]{
			Name:     s.Name,
			Role:     s.Role,
			OnEnter:  c.actions(s.Name, "on_enter", s.OnEnter, report),
			OnUpdate: c.actions(s.Name, "on_update", s.OnUpdate, report),
			OnExit:   c.actions(s.Name, "on_exit", s.OnExit, report),
		}
		for i, ts := range s.Transitions {
			where := fmt.Sprintf("%s.transitions[%d]", s.Name, i)
			tr := Transition[C]{
				MaxDepth: c.maxDepth(),
				OnTrue:   destination(where+".to", ts.To, known, report),
				OnFalse:  destination(where+".else", ts.Else, known, report),
			}
			for j, cs := range ts.When {
				at := fmt.Sprintf("%s.when[%d]", where, j)
				node := c.condition(at, cs, 1, report)
				if err := decision.Validate[C](node, tr.MaxDepth); err != nil {
					report(fmt.Errorf("%s: %w", at, err))
				}
				tr.Conditions = append(tr.Conditions, node)
			}
			state.Transitions = append(state.Transitions, tr)
		}
		def.States = append(def.States, state)
	}

	return def, errors.Join(errs...)
}

func (c *Compiler[C]) maxDepth() int {
	if c.MaxDepth > 0 {
		return c.MaxDepth
	}
	return decision.MaxDepth
}

func (c *Compiler[C]) actions(state, phase string, list []map[string]any, report func(error)) []Action[C] {
	if len(list) == 0 {
		return nil
	}
	out := make([]Action[C], 0, len(list))
	for _, entry := range list {
		names := make([]string, 0, len(entry))
		for k := range entry {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, name := range names {
			a, err := c.Actions.Resolve(name, entry[name])
			if err != nil {
				report(fmt.Errorf("%s.%s: %w", state, phase, err))
				continue
			}
			out = append(out, a)
		}
	}
	return out
}

// condition builds the tree for spec. Structural problems are left for
// decision.Validate; only predicate resolution errors are reported here. A
// leaf whose predicate fails to resolve gets one that is always false.
func (c *Compiler[C]) condition(where string, spec prefabs.ConditionSpec, depth int, report func(error)) decision.Node[C] {
	if depth > c.maxDepth() {
		return &decision.Single[C]{Name: spec.If, Invert: spec.Not}
	}

	if spec.All != nil && spec.Any != nil {
		report(fmt.Errorf("fsm: %s has both all and any, using all", where))
	}

	switch {
	case spec.All != nil:
		node := &decision.And[C]{Invert: spec.Not, Children: make([]decision.Node[C], 0, len(spec.All))}
		for i, child := range spec.All {
			node.Children = append(node.Children, c.condition(fmt.Sprintf("%s.all[%d]", where, i), child, depth+1, report))
		}
		return node
	case spec.Any != nil:
		node := &decision.Or[C]{Invert: spec.Not, Children: make([]decision.Node[C], 0, len(spec.Any))}
		for i, child := range spec.Any {
			node.Children = append(node.Children, c.condition(fmt.Sprintf("%s.any[%d]", where, i), child, depth+1, report))
		}
		return node
	}

	leaf := &decision.Single[C]{Name: spec.If, Invert: spec.Not}
	if spec.If == "" {
		return leaf
	}
	p, err := c.Predicates.Resolve(spec.If, spec.Arg)
	if err != nil {
		report(fmt.Errorf("%s: %w", where, err))
		p = func(C) bool { return false }
	}
	leaf.Predicate = p
	return leaf
}

func destination(where string, spec prefabs.DestinationSpec, known map[string]bool, report func(error)) Destination {
	var d Destination
	for _, opt := range spec.Options {
		if !known[opt.State] {
			report(fmt.Errorf("%w %q at %s", ErrUnknownState, opt.State, where))
			continue
		}
		w := opt.Weight
		if w < 0 {
			report(fmt.Errorf("fsm: negative weight %v for %q at %s", w, opt.State, where))
			continue
		}
		if w == 0 {
			w = 1
		}
		d.Options = append(d.Options, Option{State: opt.State, Weight: w})
	}
	return d
}
