package fsm

import (
	"math/rand/v2"

	"github.com/milk9111/brawler/decision"
)

// Option is one candidate destination state.
type Option struct {
	State  string
	Weight float64
}

// Destination is where a transition branch leads. No options means
// "stay"; one option is a fixed target; several are picked at random in
// proportion to their weights.
type Destination struct {
	Options []Option
}

// To builds a fixed destination.
func To(state string) Destination {
	return Destination{Options: []Option{{State: state, Weight: 1}}}
}

// OneOf builds a uniformly random destination.
func OneOf(states ...string) Destination {
	d := Destination{Options: make([]Option, 0, len(states))}
	for _, s := range states {
		d.Options = append(d.Options, Option{State: s, Weight: 1})
	}
	return d
}

func (d Destination) Empty() bool { return len(d.Options) == 0 }

// Pick chooses a state name. Options with a non-positive weight are never
// chosen unless every weight is non-positive, in which case the pick is
// uniform.
func (d Destination) Pick(rng *rand.Rand) (string, bool) {
	switch len(d.Options) {
	case 0:
		return "", false
	case 1:
		return d.Options[0].State, true
	}

	total := 0.0
	for _, o := range d.Options {
		if o.Weight > 0 {
			total += o.Weight
		}
	}
	if total <= 0 {
		return d.Options[intN(rng, len(d.Options))].State, true
	}

	roll := float64n(rng) * total
	for _, o := range d.Options {
		if o.Weight <= 0 {
			continue
		}
		if roll < o.Weight {
			return o.State, true
		}
		roll -= o.Weight
	}
	// float rounding can leave roll == remaining weight; fall back to the
	// last eligible option
	for i := len(d.Options) - 1; i >= 0; i-- {
		if d.Options[i].Weight > 0 {
			return d.Options[i].State, true
		}
	}
	return "", false
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

func float64n(rng *rand.Rand) float64 {
	if rng == nil {
		return rand.Float64()
	}
	return rng.Float64()
}

// Transition guards a pair of destinations with a list of condition trees
// that must all be true. An empty list is unconditionally true.
type Transition[C any] struct {
	Conditions []decision.Node[C]
	// MaxDepth bounds condition evaluation; 0 means decision.MaxDepth.
	MaxDepth   int
	OnTrue     Destination
	OnFalse    Destination
}

// Check evaluates the conditions and returns the destination of the branch
// taken. ok is false when that branch has no destination.
func (t *Transition[C]) Check(ctx C, rng *rand.Rand) (string, bool) {
	if t == nil {
		return "", false
	}
	depth := t.MaxDepth
	if depth <= 0 {
		depth = decision.MaxDepth
	}
	if decision.EvaluateAllDepth(t.Conditions, ctx, depth) {
		return t.OnTrue.Pick(rng)
	}
	return t.OnFalse.Pick(rng)
}
