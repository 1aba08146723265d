package fsm

// Action is a side effect run on state enter, update or exit.
type Action[C any] func(ctx C)

// State is a named node of the machine. Transitions are checked in list
// order and the first one yielding a destination wins.
type State[C any] struct {
	Name        string
	Role        string
	OnEnter     []Action[C]
	OnUpdate    []Action[C]
	OnExit      []Action[C]
	Transitions []Transition[C]
}

// Definition is the immutable, compiled form of a machine. One Definition
// may back any number of Machines.
type Definition[C any] struct {
	Initial            string
	TransitionInterval float64
	ActionInterval     float64
	States             []*State[C]
}

func applyActions[C any](actions []Action[C], ctx C) {
	for _, a := range actions {
		if a != nil {
			a(ctx)
		}
	}
}
