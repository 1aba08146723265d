// Package fsm is the behavior state machine engine. A Machine owns the
// current state of one actor, runs enter/exit lifecycles and re-evaluates
// transitions and update actions on two independent cadences.
package fsm

import (
	"errors"
	"math"
	"math/rand/v2"

	"go.uber.org/zap"
)

var (
	ErrUnknownState   = errors.New("fsm: unknown state")
	ErrUnknownRole    = errors.New("fsm: no state has role")
	ErrDuplicateState = errors.New("fsm: duplicate state")
	ErrMissingInitial = errors.New("fsm: missing initial state")
)

type options struct {
	log                *zap.Logger
	rng                *rand.Rand
	transitionInterval *float64
	actionInterval     *float64
}

type MachineOption func(*options)

func WithLogger(log *zap.Logger) MachineOption {
	return func(o *options) { o.log = log }
}

// WithRand sets the source used to pick random destinations.
func WithRand(rng *rand.Rand) MachineOption {
	return func(o *options) { o.rng = rng }
}

// WithIntervals overrides the cadences from the definition. Zero means
// every tick.
func WithIntervals(transition, action float64) MachineOption {
	return func(o *options) {
		o.transitionInterval = &transition
		o.actionInterval = &action
	}
}

type Machine[C any] struct {
	ctx C
	log *zap.Logger
	rng *rand.Rand

	states  map[string]*State[C]
	order   []*State[C]
	initial *State[C]

	current     *State[C]
	timeInState float64

	transitionInterval   float64
	actionInterval       float64
	sinceTransitionCheck float64
	sinceActionRun       float64

	changing bool
	pending  *State[C]
}

// New builds a machine over def. Configuration problems (duplicate state
// names, a missing initial state) are logged and degrade safely: the
// duplicate is skipped, a machine without an initial state never leaves
// the uninitialized state. Call Start to enter the initial state.
func New[C any](ctx C, def *Definition[C], opts ...MachineOption) *Machine[C] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}

	m := &Machine[C]{
		ctx:    ctx,
		log:    o.log,
		rng:    o.rng,
		states: map[string]*State[C]{},
	}
	if def == nil {
		m.log.Error("fsm: nil definition", zap.Error(ErrMissingInitial))
		return m
	}

	m.transitionInterval = def.TransitionInterval
	m.actionInterval = def.ActionInterval
	if o.transitionInterval != nil {
		m.transitionInterval = *o.transitionInterval
	}
	if o.actionInterval != nil {
		m.actionInterval = *o.actionInterval
	}

	for _, s := range def.States {
		if s == nil {
			continue
		}
		if _, dup := m.states[s.Name]; dup {
			m.log.Error("fsm: duplicate state ignored", zap.String("state", s.Name), zap.Error(ErrDuplicateState))
			continue
		}
		m.states[s.Name] = s
		m.order = append(m.order, s)
	}

	initial, ok := m.states[def.Initial]
	if !ok {
		m.log.Error("fsm: initial state not found", zap.String("initial", def.Initial), zap.Error(ErrMissingInitial))
		return m
	}
	m.initial = initial
	return m
}

// Start enters the initial state. It is a no-op once started or when the
// definition has no valid initial state.
func (m *Machine[C]) Start() bool {
	if m == nil || m.current != nil || m.initial == nil {
		return false
	}
	// both cadences are due on the first tick
	m.sinceTransitionCheck = math.Inf(1)
	m.sinceActionRun = math.Inf(1)
	return m.change(m.initial, true)
}

// Restart forces re-entry into the initial state, running the current
// state's exit actions first.
func (m *Machine[C]) Restart() bool {
	if m == nil || m.initial == nil {
		return false
	}
	if m.current == nil {
		return m.Start()
	}
	return m.change(m.initial, true)
}

func (m *Machine[C]) Started() bool { return m != nil && m.current != nil }

// Current returns the current state name, "" before Start.
func (m *Machine[C]) Current() string {
	if m == nil || m.current == nil {
		return ""
	}
	return m.current.Name
}

// CurrentRole returns the current state's role, "" before Start.
func (m *Machine[C]) CurrentRole() string {
	if m == nil || m.current == nil {
		return ""
	}
	return m.current.Role
}

// TimeInState is the simulated time since the last state change.
func (m *Machine[C]) TimeInState() float64 {
	if m == nil {
		return 0
	}
	return m.timeInState
}

func (m *Machine[C]) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.states[name]
	return ok
}

func (m *Machine[C]) HasRole(role string) bool {
	if m == nil || role == "" {
		return false
	}
	for _, s := range m.order {
		if s.Role == role {
			return true
		}
	}
	return false
}

// States returns state names in definition order.
func (m *Machine[C]) States() []string {
	if m == nil {
		return nil
	}
	out := make([]string, 0, len(m.order))
	for _, s := range m.order {
		out = append(out, s.Name)
	}
	return out
}

// Tick advances the machine by dt seconds.
func (m *Machine[C]) Tick(dt float64) {
	if m == nil || m.current == nil {
		return
	}

	m.timeInState += dt

	if due(&m.sinceTransitionCheck, dt, m.transitionInterval) {
		m.checkTransitions()
	}
	if due(&m.sinceActionRun, dt, m.actionInterval) {
		applyActions(m.current.OnUpdate, m.ctx)
	}
}

// cadenceEpsilon absorbs float drift so that six ticks of 1/60 reach 0.1.
const cadenceEpsilon = 1e-9

// due advances a cadence accumulator by dt and reports whether it fired.
// The interval is subtracted rather than reset so the cadence keeps its
// phase; a backlog of more than one interval fires once.
func due(since *float64, dt, interval float64) bool {
	if math.IsInf(*since, 1) {
		*since = 0
		return true
	}
	*since += dt
	if *since+cadenceEpsilon < interval {
		return false
	}
	if interval <= 0 {
		*since = 0
		return true
	}
	*since -= interval
	if *since >= interval {
		*since = math.Mod(*since, interval)
	}
	return true
}

func (m *Machine[C]) checkTransitions() {
	for i := range m.current.Transitions {
		next, ok := m.current.Transitions[i].Check(m.ctx, m.rng)
		if !ok {
			continue
		}
		m.Change(next, false)
		return
	}
}

// Change switches to the named state. Without force it is a no-op when the
// name is empty or already current; with force the current state is
// exited and re-entered. An unknown name is logged and ignored. A change
// requested from inside an enter or exit action is applied right after the
// running change completes.
func (m *Machine[C]) Change(name string, force bool) bool {
	if m == nil || name == "" {
		return false
	}
	next, ok := m.states[name]
	if !ok {
		m.log.Error("fsm: transition to unknown state ignored",
			zap.String("from", m.Current()),
			zap.String("to", name),
			zap.Error(ErrUnknownState))
		return false
	}
	return m.change(next, force)
}

// ChangeByRole switches to the first state, in definition order, carrying
// role. Without force it is a no-op when the current state already has
// that role.
func (m *Machine[C]) ChangeByRole(role string, force bool) bool {
	if m == nil || role == "" {
		return false
	}
	if !force && m.current != nil && m.current.Role == role {
		return false
	}
	for _, s := range m.order {
		if s.Role == role {
			return m.change(s, force)
		}
	}
	m.log.Error("fsm: role change ignored",
		zap.String("from", m.Current()),
		zap.String("role", role),
		zap.Error(ErrUnknownRole))
	return false
}

func (m *Machine[C]) change(next *State[C], force bool) bool {
	if m.changing {
		m.pending = next
		return true
	}
	if !force && next == m.current {
		return false
	}

	m.changing = true
	m.swap(next)
	for m.pending != nil {
		queued := m.pending
		m.pending = nil
		if queued == m.current {
			continue
		}
		m.swap(queued)
	}
	m.changing = false
	return true
}

func (m *Machine[C]) swap(next *State[C]) {
	if m.current != nil {
		applyActions(m.current.OnExit, m.ctx)
	}
	m.current = next
	m.timeInState = 0
	m.log.Debug("fsm: enter", zap.String("state", next.Name), zap.String("role", next.Role))
	applyActions(next.OnEnter, m.ctx)
}
