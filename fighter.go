package main

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"

	"github.com/milk9111/brawler/actor"
	"github.com/milk9111/brawler/attack"
	"github.com/milk9111/brawler/common"
)

const (
	fighterSize  = 48
	fighterSpeed = 220
	weaponReach  = 56
	maxHealth    = 3

	// fractions of the weapon duration at which the fake swing animation
	// emits its events
	damageOnAt  = 0.3
	damageOffAt = 0.7
)

var roleColors = map[string]color.Color{
	"spawn":  colornames.Lightgreen,
	"idle":   colornames.Slategray,
	"move":   colornames.Steelblue,
	"attack": colornames.Orange,
	"dead":   colornames.Darkred,
}

// swing stands in for an attack animation clip and its event track.
type swing struct {
	elapsed  float64
	duration float64
	on, off  bool
	hit      bool
}

// Fighter is the sandbox body around one brain. It implements every
// collaborator interface the brain consumes.
type Fighter struct {
	Prefab string
	Brain  *actor.Brain
	Weapon attack.WeaponStats

	Pos    cp.Vector
	spawn  cp.Vector
	facing cp.Vector
	locked bool

	input        attack.Input
	attackDenied bool
	health       int
	damage       bool
	clip         string
	swing        *swing

	// dropFinish swallows the next attack-finished event so the safety
	// timer has to recover the attack.
	dropFinish bool
	corpse     bool

	log *zap.Logger
}

func NewFighter(prefab string, pos cp.Vector, input attack.Input, log *zap.Logger) *Fighter {
	return &Fighter{
		Prefab: prefab,
		Pos:    pos,
		spawn:  pos,
		facing: cp.Vector{X: 1},
		input:  input,
		health: maxHealth,
		log:    log,
	}
}

// Attach spawns a brain from bp, destroying the previous one.
func (f *Fighter) Attach(bp *actor.Blueprint, opts actor.Options) {
	if f.Brain != nil {
		f.Brain.Destroy()
	}
	f.Weapon = bp.Weapon
	f.swing = nil
	f.damage = false
	f.locked = false

	opts.OnAttackStart = func(slot int) {
		f.swing = &swing{duration: f.Weapon.Duration}
		f.log.Debug("sandbox: swing", zap.String("prefab", f.Prefab), zap.Int("slot", slot))
	}
	opts.OnAttackEnd = func(attack.EndReason) { f.swing = nil }
	opts.OnCorpse = func(*actor.Brain) { f.corpse = true }

	parts := actor.Parts{
		Permissions: f,
		Equipment:   f,
		Input:       f.input,
		Facing:      f,
		Damage:      f,
		Animator:    f,
	}
	f.Brain = actor.NewBrain(bp, parts, opts)
}

func (f *Fighter) AttackAllowed() bool   { return !f.attackDenied && f.health > 0 }
func (f *Fighter) MovementAllowed() bool { return f.health > 0 }
func (f *Fighter) Dead() bool            { return f.health <= 0 }

func (f *Fighter) HasWeapon() bool                 { return f.Weapon.Duration > 0 }
func (f *Fighter) WeaponStats() attack.WeaponStats { return f.Weapon }

func (f *Fighter) Direction() cp.Vector { return f.facing }

func (f *Fighter) LockDirection(dir cp.Vector) {
	f.facing = dir
	f.locked = true
}

func (f *Fighter) Unlock() { f.locked = false }

func (f *Fighter) EnableDamage(int) { f.damage = true }

func (f *Fighter) DisableDamage() { f.damage = false }

func (f *Fighter) Play(name string) { f.clip = name }

// Update moves the body, ticks the brain and plays the fake swing events.
func (f *Fighter) Update(dt float64) {
	if f.Brain == nil {
		return
	}

	if f.input != nil && f.MovementAllowed() && !f.Brain.Attack().Attacking() {
		mv := f.input.Movement()
		f.Pos = f.Pos.Add(mv.Mult(fighterSpeed * dt))
		if !f.locked {
			f.facing = common.Direction(mv, stickDeadzone, f.facing)
		}
	}

	f.Brain.OnTick(dt)

	s := f.swing
	if s == nil {
		return
	}
	s.elapsed += dt
	if !s.on && s.elapsed >= s.duration*damageOnAt {
		s.on = true
		f.Brain.PostSignal(attack.SignalEnableDamage)
	}
	if !s.off && s.elapsed >= s.duration*damageOffAt {
		s.off = true
		f.Brain.PostSignal(attack.SignalDisableDamage)
	}
	if s.elapsed >= s.duration {
		f.swing = nil
		if f.dropFinish {
			f.dropFinish = false
			f.log.Info("sandbox: dropped attack-finished", zap.String("prefab", f.Prefab))
			return
		}
		f.Brain.PostSignal(attack.SignalAttackFinished)
	}
}

// Face turns an unlocked fighter towards target.
func (f *Fighter) Face(target cp.Vector) {
	if f.locked {
		return
	}
	f.facing = common.Direction(target.Sub(f.Pos), 1, f.facing)
}

func (f *Fighter) HurtBox() Rect { return RectAround(f.Pos, fighterSize, fighterSize) }

func (f *Fighter) HitBox() Rect {
	reach := float64(weaponReach)
	if f.swing != nil && f.swing.duration > 0 {
		reach = float64(common.Lerp(fighterSize/2, weaponReach, float32(f.swing.elapsed/f.swing.duration)))
	}
	return RectAround(f.Pos.Add(f.facing.Mult(fighterSize/2+reach/2)), reach, fighterSize/2)
}

// Strike applies this fighter's active hitbox to target, once per swing.
func (f *Fighter) Strike(target *Fighter) {
	if !f.damage || f.swing == nil || f.swing.hit || target.Dead() {
		return
	}
	if !f.HitBox().Intersects(target.HurtBox()) {
		return
	}
	f.swing.hit = true
	target.health--
	if target.health <= 0 {
		target.Brain.Kill()
	}
}

// Kill forces death regardless of health.
func (f *Fighter) Kill() {
	f.health = 0
	f.Brain.Kill()
}

func (f *Fighter) Revive() {
	f.health = maxHealth
	f.corpse = false
	f.Pos = f.spawn
	f.Brain.Revive()
}

func (f *Fighter) Draw(screen *ebiten.Image) {
	if f.Brain == nil {
		return
	}
	c, ok := roleColors[f.Brain.Role()]
	if !ok {
		c = colornames.White
	}
	if f.corpse {
		c = colornames.Dimgray
	}

	box := f.HurtBox()
	vector.FillRect(screen, float32(box.X), float32(box.Y), float32(box.Width), float32(box.Height), c, false)
	if f.locked {
		vector.StrokeRect(screen, float32(box.X), float32(box.Y), float32(box.Width), float32(box.Height), 2, colornames.Gold, false)
	}

	if f.swing != nil {
		hit := f.HitBox()
		col := colornames.Lightgray
		if f.damage {
			col = colornames.Crimson
		}
		vector.StrokeRect(screen, float32(hit.X), float32(hit.Y), float32(hit.Width), float32(hit.Height), 2, col, false)
	}

	ctrl := f.Brain.Attack()
	label := fmt.Sprintf("%s [%s] hp %d\nclip %s slot %d next %d\nsafety %.2f queued %t",
		f.Prefab, f.Brain.State(), f.health, f.clip, ctrl.ComboSlot(), ctrl.ComboIndex(), ctrl.SafetyTimer(), ctrl.Queued())
	ebitenutil.DebugPrintAt(screen, label, int(box.X), int(box.Y+box.Height)+4)
}
