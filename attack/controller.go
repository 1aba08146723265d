// Package attack implements the melee combo controller: input edge
// detection, a one-slot look-ahead queue, combo progression with a decay
// window and a safety timer that ends the attack when the animation never
// reports completion.
package attack

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/brawler/common"
)

// Mode selects how the attack input is read.
type Mode int

const (
	// SinglePress attacks on the rising edge of the input only.
	SinglePress Mode = iota
	// Continuous attacks for as long as the input is held.
	Continuous
)

func (m Mode) String() string {
	switch m {
	case SinglePress:
		return "single"
	case Continuous:
		return "continuous"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ErrUnknownMode is returned by ParseMode, together with SinglePress.
var ErrUnknownMode = errors.New("attack: unknown mode")

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single", "single_press", "press":
		return SinglePress, nil
	case "continuous", "hold", "held":
		return Continuous, nil
	default:
		return SinglePress, fmt.Errorf("%w %q", ErrUnknownMode, s)
	}
}

// DefaultSafetySlack is added to the weapon duration to tolerate jitter in
// the attack-finished signal.
const DefaultSafetySlack = 0.25

// EndReason tells how an attack ended.
type EndReason int

const (
	EndFinished EndReason = iota
	EndRecovered
	EndInterrupted
)

func (r EndReason) String() string {
	switch r {
	case EndFinished:
		return "finished"
	case EndRecovered:
		return "recovered"
	case EndInterrupted:
		return "interrupted"
	default:
		return fmt.Sprintf("EndReason(%d)", int(r))
	}
}

type Config struct {
	Mode        Mode
	Combo       bool
	SafetySlack float64

	Permissions Permissions
	Equipment   Equipment
	Input       Input
	Facing      Facing
	Damage      DamageSurface

	// OnStart and OnEnd are optional hooks, called after the controller
	// state has been updated.
	OnStart func(slot int)
	OnEnd   func(reason EndReason)

	Logger *zap.Logger
}

// Snapshot is a read-only view of the controller fields.
type Snapshot struct {
	Attacking    bool
	Queued       bool
	WasPressed   bool
	ComboIndex   int
	ComboSlot    int
	ComboDecay   float64
	SafetyTimer  float64
	DamageActive bool
}

// Controller is one ability's attack sub-state-machine. It is idle while
// not attacking and active while attacking with the safety timer armed.
// All methods must be called from the simulation tick goroutine.
type Controller struct {
	cfg Config
	log *zap.Logger

	acceptInput bool

	attacking  bool
	wasPressed bool
	queued     bool
	startedNow bool

	comboIndex int
	comboSlot  int
	comboDecay float64

	safetyTimer float64
	expected    float64

	clock       float64
	lastAttack  float64
	hasAttacked bool

	damageActive bool
}

func NewController(cfg Config) *Controller {
	if cfg.SafetySlack < 0 {
		cfg.SafetySlack = 0
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{cfg: cfg, log: log, acceptInput: true}
}

// SetAcceptInput turns the per-tick input phase on or off. AI-driven
// actors use RequestAttack instead.
func (c *Controller) SetAcceptInput(accept bool) {
	c.acceptInput = accept
}

func (c *Controller) Mode() Mode { return c.cfg.Mode }

func (c *Controller) Attacking() bool { return c.attacking }

func (c *Controller) Queued() bool { return c.queued }

// ComboIndex is the slot the next chained attack will use.
func (c *Controller) ComboIndex() int { return c.comboIndex }

// ComboSlot is the slot of the current, or last, attack.
func (c *Controller) ComboSlot() int { return c.comboSlot }

func (c *Controller) SafetyTimer() float64 { return c.safetyTimer }

func (c *Controller) DamageActive() bool { return c.damageActive }

// ExpectedDuration is the weapon duration captured when the current attack
// started.
func (c *Controller) ExpectedDuration() float64 { return c.expected }

func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		Attacking:    c.attacking,
		Queued:       c.queued,
		WasPressed:   c.wasPressed,
		ComboIndex:   c.comboIndex,
		ComboSlot:    c.comboSlot,
		ComboDecay:   c.comboDecay,
		SafetyTimer:  c.safetyTimer,
		DamageActive: c.damageActive,
	}
}

// Update advances the controller by dt seconds: interrupt, input, then the
// safety timer and combo decay.
func (c *Controller) Update(dt float64) {
	c.clock += dt
	c.startedNow = false

	// The queue must be cleared before cleanup, otherwise the cleanup would
	// chain straight into a new attack from stale intent.
	if c.attacking && !c.permitted() {
		c.queued = false
		c.finish(EndInterrupted)
	}

	if c.acceptInput && c.cfg.Input != nil {
		pressed := c.cfg.Input.AttackPressed()
		should := pressed
		if c.cfg.Mode == SinglePress {
			should = pressed && !c.wasPressed
			if should && c.attacking {
				c.queued = true
			}
		}
		c.wasPressed = pressed
		if should && !c.attacking {
			c.tryStart()
		}
	}

	switch {
	case c.attacking:
		if c.startedNow {
			break
		}
		c.safetyTimer -= dt
		if c.safetyTimer <= 0 {
			c.log.Warn("attack: safety timer expired, attack-finished signal lost",
				zap.Int("combo_slot", c.comboSlot),
				zap.Float64("expected_duration", c.expected),
				zap.Float64("slack", c.cfg.SafetySlack))
			c.finish(EndRecovered)
		}
	case c.comboIndex > 0:
		c.comboDecay -= dt
		if c.comboDecay <= 0 {
			c.comboDecay = 0
			c.comboIndex = 0
		}
	}
}

// RequestAttack starts an attack when idle, or queues one when active.
// It returns true when an attack started or was queued.
func (c *Controller) RequestAttack() bool {
	if c.attacking {
		if !c.permitted() {
			return false
		}
		c.queued = true
		return true
	}
	return c.tryStart()
}

// Signal routes an animation event. Signals arriving while idle, and
// unknown names, are ignored; the return value reports whether the signal
// was consumed.
func (c *Controller) Signal(name string) bool {
	if !c.attacking {
		return false
	}
	switch name {
	case SignalEnableDamage:
		if c.cfg.Damage != nil {
			c.cfg.Damage.EnableDamage(c.comboSlot)
		}
		c.damageActive = true
	case SignalDisableDamage:
		c.disableDamage()
	case SignalAttackFinished:
		c.safetyTimer = 0
		c.finish(EndFinished)
	default:
		return false
	}
	return true
}

// Reset forces the controller back to its spawn defaults from any state,
// disabling damage and releasing every lock. Calling it repeatedly is
// harmless.
func (c *Controller) Reset() {
	c.attacking = false
	c.startedNow = false
	c.safetyTimer = 0
	c.expected = 0
	c.wasPressed = false
	c.queued = false
	c.comboIndex = 0
	c.comboSlot = 0
	c.comboDecay = 0
	c.hasAttacked = false
	c.lastAttack = 0

	if c.cfg.Damage != nil {
		c.cfg.Damage.DisableDamage()
	}
	c.damageActive = false
	c.releaseLocks()
}

func (c *Controller) permitted() bool {
	p := c.cfg.Permissions
	return p == nil || (p.AttackAllowed() && !p.Dead())
}

func (c *Controller) tryStart() bool {
	if !c.permitted() {
		return false
	}
	eq := c.cfg.Equipment
	if eq == nil || !eq.HasWeapon() {
		return false
	}
	stats := eq.WeaponStats()
	if c.hasAttacked && c.clock-c.lastAttack < stats.Cooldown {
		return false
	}

	c.attacking = true
	c.startedNow = true
	c.lastAttack = c.clock
	c.hasAttacked = true
	c.queued = false
	c.comboSlot = c.advanceCombo(stats)
	c.expected = stats.Duration
	c.safetyTimer = stats.Duration + c.cfg.SafetySlack

	if f := c.cfg.Facing; f != nil {
		f.LockDirection(c.captureDirection(f))
	}

	c.log.Debug("attack: start",
		zap.Int("combo_slot", c.comboSlot),
		zap.Int("combo_next", c.comboIndex),
		zap.Float64("safety_timer", c.safetyTimer))
	if c.cfg.OnStart != nil {
		c.cfg.OnStart(c.comboSlot)
	}
	return true
}

// advanceCombo returns the slot for the attack being started and moves
// comboIndex on to the slot of the next chained attack.
func (c *Controller) advanceCombo(stats WeaponStats) int {
	if !c.cfg.Combo {
		c.comboIndex = 0
		c.comboDecay = 0
		return 0
	}
	if c.comboDecay <= 0 {
		c.comboIndex = 0
	}
	slot := c.comboIndex
	c.comboIndex++
	if c.comboIndex >= stats.MaxCombo {
		c.comboIndex = 0
	}
	c.comboDecay = stats.ComboResetWindow
	return slot
}

func (c *Controller) captureDirection(f Facing) cp.Vector {
	fallback := f.Direction()
	if c.acceptInput && c.cfg.Input != nil {
		return common.Direction(c.cfg.Input.Movement(), 0, fallback)
	}
	return fallback
}

// finish is the one cleanup path shared by the attack-finished signal, the
// safety timer and interrupts. The attacking flag makes a second call for
// the same attack a no-op.
func (c *Controller) finish(reason EndReason) {
	if !c.attacking {
		return
	}
	c.safetyTimer = 0
	c.disableDamage()
	c.releaseLocks()

	chain := c.queued
	if c.cfg.Mode == Continuous && c.acceptInput && c.cfg.Input != nil && c.cfg.Input.AttackPressed() {
		chain = true
	}
	c.queued = false
	c.attacking = false

	c.log.Debug("attack: end", zap.Stringer("reason", reason), zap.Bool("chain", chain))
	if c.cfg.OnEnd != nil {
		c.cfg.OnEnd(reason)
	}

	if chain {
		c.tryStart()
	}
}

func (c *Controller) disableDamage() {
	if !c.damageActive {
		return
	}
	if c.cfg.Damage != nil {
		c.cfg.Damage.DisableDamage()
	}
	c.damageActive = false
}

func (c *Controller) releaseLocks() {
	if c.cfg.Facing != nil {
		c.cfg.Facing.Unlock()
	}
	if aim, ok := c.cfg.Equipment.(AimLock); ok && aim != nil {
		aim.ReleaseAim()
	}
}
