package actor

import (
	"maps"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/brawler/attack"
	"github.com/milk9111/brawler/common"
	"github.com/milk9111/brawler/fsm"
)

// Animator plays a named animation clip on the actor's model.
type Animator interface {
	Play(name string)
}

// Parts are the collaborators a Brain drives. Any of them may be nil; a
// missing collaborator reads as "not allowed", "no weapon" or "no input".
type Parts struct {
	Permissions attack.Permissions
	Equipment   attack.Equipment
	Input       attack.Input
	Facing      attack.Facing
	Damage      attack.DamageSurface
	Animator    Animator
}

// Context is what predicates and actions see of one actor.
type Context struct {
	brain *Brain
	parts Parts
	log   *zap.Logger

	killed    bool
	animation string
	flags     map[string]bool
}

var (
	_ fsm.StateClock     = (*Context)(nil)
	_ attack.Permissions = (*Context)(nil)
)

func (c *Context) Brain() *Brain { return c.brain }

func (c *Context) Logger() *zap.Logger { return c.log }

func (c *Context) Attack() *attack.Controller { return c.brain.attack }

func (c *Context) TimeInState() float64 { return c.brain.machine.TimeInState() }

func (c *Context) StateName() string { return c.brain.machine.Current() }

// Dead is true after Kill or when the permission collaborator says so.
func (c *Context) Dead() bool {
	if c.killed {
		return true
	}
	return c.parts.Permissions != nil && c.parts.Permissions.Dead()
}

func (c *Context) AttackAllowed() bool {
	return !c.Dead() && c.parts.Permissions != nil && c.parts.Permissions.AttackAllowed()
}

func (c *Context) MovementAllowed() bool {
	return !c.Dead() && c.parts.Permissions != nil && c.parts.Permissions.MovementAllowed()
}

func (c *Context) HasWeapon() bool {
	return c.parts.Equipment != nil && c.parts.Equipment.HasWeapon()
}

func (c *Context) AttackPressed() bool {
	return c.parts.Input != nil && c.parts.Input.AttackPressed()
}

func (c *Context) Movement() cp.Vector {
	if c.parts.Input == nil {
		return cp.Vector{}
	}
	return c.parts.Input.Movement()
}

func (c *Context) Moving(deadzone float64) bool {
	return common.Moving(c.Movement(), deadzone)
}

// Play starts an animation clip. Repeating the current clip is a no-op.
func (c *Context) Play(name string) {
	if name == "" || name == c.animation {
		return
	}
	c.animation = name
	if c.parts.Animator != nil {
		c.parts.Animator.Play(name)
	}
}

func (c *Context) Animation() string { return c.animation }

func (c *Context) Flag(key string) bool { return c.flags[key] }

func (c *Context) SetFlag(key string, on bool) {
	if key == "" {
		return
	}
	if !on {
		delete(c.flags, key)
		return
	}
	if c.flags == nil {
		c.flags = map[string]bool{}
	}
	c.flags[key] = true
}

func (c *Context) Flags() map[string]bool { return maps.Clone(c.flags) }

// ScriptVars is the `actor` map handed to tengo predicates.
func (c *Context) ScriptVars() map[string]any {
	flags := make(map[string]any, len(c.flags))
	for k, v := range c.flags {
		flags[k] = v
	}
	ctrl := c.Attack()
	mv := c.Movement()
	return map[string]any{
		"state":            c.StateName(),
		"time_in_state":    c.TimeInState(),
		"dead":             c.Dead(),
		"attacking":        ctrl.Attacking(),
		"queued":           ctrl.Queued(),
		"combo":            ctrl.ComboIndex(),
		"combo_slot":       ctrl.ComboSlot(),
		"attack_pressed":   c.AttackPressed(),
		"movement_allowed": c.MovementAllowed(),
		"move_x":           mv.X,
		"move_y":           mv.Y,
		"flags":            flags,
	}
}
