package attack

import "github.com/jakecoffman/cp"

// Signal names delivered by the animation event transport.
const (
	SignalEnableDamage   = "enable-damage"
	SignalDisableDamage  = "disable-damage"
	SignalAttackFinished = "attack-finished"
)

// WeaponStats is the tuning of the currently equipped weapon.
type WeaponStats struct {
	Cooldown         float64
	Duration         float64
	MaxCombo         int
	ComboResetWindow float64
}

// Permissions is polled every tick.
type Permissions interface {
	AttackAllowed() bool
	MovementAllowed() bool
	Dead() bool
}

type Equipment interface {
	HasWeapon() bool
	WeaponStats() WeaponStats
}

// Input is sampled once per tick.
type Input interface {
	AttackPressed() bool
	Movement() cp.Vector
}

// Facing owns the actor's facing direction. While locked, movement must
// not turn the actor.
type Facing interface {
	Direction() cp.Vector
	LockDirection(dir cp.Vector)
	Unlock()
}

// DamageSurface is the hit-detection surface of the weapon.
type DamageSurface interface {
	EnableDamage(slot int)
	DisableDamage()
}

// AimLock is implemented by equipment that locks its own aim during a
// swing.
type AimLock interface {
	ReleaseAim()
}
