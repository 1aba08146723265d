package fsm

import (
	"fmt"

	"github.com/milk9111/brawler/decision"
)

// StateClock is implemented by contexts that can report the machine's
// current state, which stateful builtin predicates read.
type StateClock interface {
	TimeInState() float64
	StateName() string
}

// RegisterBuiltins adds always, never, time_in_state and in_state.
func RegisterBuiltins[C StateClock](r *decision.Registry[C]) {
	r.RegisterStatic("always", func(C) bool { return true })
	r.RegisterStatic("never", func(C) bool { return false })

	r.Register("time_in_state", func(arg any) (decision.Predicate[C], error) {
		seconds, ok := decision.AsFloat(arg)
		if !ok {
			return nil, fmt.Errorf("time_in_state wants seconds, got %T", arg)
		}
		return func(ctx C) bool { return ctx.TimeInState() >= seconds }, nil
	})

	r.Register("in_state", func(arg any) (decision.Predicate[C], error) {
		name := decision.AsString(arg)
		if name == "" {
			return nil, fmt.Errorf("in_state wants a state name")
		}
		return func(ctx C) bool { return ctx.StateName() == name }, nil
	})
}
