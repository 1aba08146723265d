// Package actor binds one behavior FSM and one attack controller to the
// collaborators of a single fighter and exposes the tick and signal entry
// points the host game calls.
package actor

import (
	"math/rand/v2"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/milk9111/brawler/attack"
	"github.com/milk9111/brawler/fsm"
)

// Role names the lifecycle methods switch to.
const (
	RoleDead  = "dead"
	RoleSpawn = "spawn"
)

type Options struct {
	Logger *zap.Logger
	Rand   *rand.Rand

	// Intervals, when set, replace the cadences of the blueprint.
	Intervals *Intervals

	// CorpseDelay is how long after Kill OnCorpse runs.
	CorpseDelay float64
	OnCorpse    func(b *Brain)

	OnAttackStart func(slot int)
	OnAttackEnd   func(reason attack.EndReason)
}

type Intervals struct {
	Transition float64
	Action     float64
}

// Brain owns the FSM and the attack controller of one actor. It is not safe
// for concurrent use; all methods run on the simulation tick.
type Brain struct {
	ID   uuid.UUID
	Name string

	log     *zap.Logger
	ctx     *Context
	machine *fsm.Machine[*Context]
	attack  *attack.Controller
	timers  Timers
	signals []string

	corpseDelay float64
	onCorpse    func(b *Brain)
	corpse      TimerID

	destroyed bool
}

// NewBrain builds a brain from a compiled blueprint and enters the initial
// state.
func NewBrain(bp *Blueprint, parts Parts, opts Options) *Brain {
	id := uuid.New()
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	b := &Brain{
		ID:          id,
		corpseDelay: opts.CorpseDelay,
		onCorpse:    opts.OnCorpse,
	}
	if bp == nil {
		bp = &Blueprint{}
	}
	b.Name = bp.Name
	b.log = log.With(zap.String("actor", id.String()), zap.String("fighter", bp.Name))

	b.ctx = &Context{brain: b, parts: parts, log: b.log}

	b.attack = attack.NewController(attack.Config{
		Mode:        bp.Mode,
		Combo:       bp.Combo,
		SafetySlack: bp.SafetySlack,
		Permissions: b.ctx,
		Equipment:   parts.Equipment,
		Input:       parts.Input,
		Facing:      parts.Facing,
		Damage:      parts.Damage,
		OnStart:     opts.OnAttackStart,
		OnEnd:       opts.OnAttackEnd,
		Logger:      b.log,
	})
	b.attack.SetAcceptInput(!bp.AI)

	mopts := []fsm.MachineOption{fsm.WithLogger(b.log)}
	if opts.Rand != nil {
		mopts = append(mopts, fsm.WithRand(opts.Rand))
	}
	if opts.Intervals != nil {
		mopts = append(mopts, fsm.WithIntervals(opts.Intervals.Transition, opts.Intervals.Action))
	}
	b.machine = fsm.New(b.ctx, bp.Definition, mopts...)
	b.machine.Start()
	return b
}

func (b *Brain) Context() *Context { return b.ctx }

func (b *Brain) Attack() *attack.Controller { return b.attack }

func (b *Brain) State() string { return b.machine.Current() }

func (b *Brain) Role() string { return b.machine.CurrentRole() }

func (b *Brain) TimeInState() float64 { return b.machine.TimeInState() }

func (b *Brain) Destroyed() bool { return b.destroyed }

// CorpsePending reports whether the OnCorpse callback is still scheduled.
func (b *Brain) CorpsePending() bool { return b.corpse != 0 }

// OnTick advances the actor by dt seconds: due callbacks, posted signals,
// the attack controller, then the FSM.
func (b *Brain) OnTick(dt float64) {
	if b.destroyed {
		return
	}
	b.timers.Tick(dt)
	if b.destroyed {
		return
	}

	if len(b.signals) > 0 {
		queued := b.signals
		b.signals = nil
		for _, name := range queued {
			b.OnExternalSignal(name)
		}
	}

	b.attack.Update(dt)
	b.machine.Tick(dt)
}

// OnExternalSignal routes an animation event to the attack controller
// right away.
func (b *Brain) OnExternalSignal(name string) {
	if b.destroyed {
		return
	}
	if !b.attack.Signal(name) {
		b.log.Debug("actor: signal ignored", zap.String("signal", name), zap.Bool("attacking", b.attack.Attacking()))
	}
}

// PostSignal queues an animation event for the start of the next tick.
func (b *Brain) PostSignal(name string) {
	if b.destroyed || name == "" {
		return
	}
	b.signals = append(b.signals, name)
}

func (b *Brain) RequestStateChange(name string, force bool) bool {
	if b.destroyed {
		return false
	}
	return b.machine.Change(name, force)
}

func (b *Brain) RequestStateChangeByRole(role string) bool {
	if b.destroyed {
		return false
	}
	return b.machine.ChangeByRole(role, false)
}

// ResetController returns the attack controller to its spawn defaults.
func (b *Brain) ResetController() {
	b.attack.Reset()
}

// Kill ends any attack, forces the dead role and schedules OnCorpse.
// Killing a dead actor does nothing.
func (b *Brain) Kill() {
	if b.destroyed || b.ctx.killed {
		return
	}
	b.ctx.killed = true
	b.signals = nil
	b.attack.Reset()
	if b.machine.HasRole(RoleDead) {
		b.machine.ChangeByRole(RoleDead, true)
	}
	if b.onCorpse != nil {
		b.corpse = b.timers.Schedule(b.corpseDelay, func() {
			b.corpse = 0
			b.onCorpse(b)
		})
	}
	b.log.Info("actor: killed", zap.String("state", b.machine.Current()))
}

// Revive cancels pending callbacks, resets the controller and re-enters
// the spawn role, or the initial state when no state has that role.
func (b *Brain) Revive() {
	if b.destroyed {
		return
	}
	b.timers.CancelAll()
	b.corpse = 0
	b.signals = nil
	b.ctx.killed = false
	b.attack.Reset()
	if b.machine.HasRole(RoleSpawn) {
		b.machine.ChangeByRole(RoleSpawn, true)
	} else {
		b.machine.Restart()
	}
	b.log.Info("actor: revived", zap.String("state", b.machine.Current()))
}

// Destroy cancels everything still scheduled. Every later call on the
// brain is a no-op.
func (b *Brain) Destroy() {
	if b.destroyed {
		return
	}
	b.timers.CancelAll()
	b.signals = nil
	b.attack.Reset()
	b.destroyed = true
}
