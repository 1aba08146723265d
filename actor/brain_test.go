package actor

import (
	"testing"

	"github.com/jakecoffman/cp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/milk9111/brawler/attack"
)

const dt = 0.25

// body fakes the collaborators of one fighter.
type body struct {
	denied  bool
	dead    bool
	unarmed bool
	stats   attack.WeaponStats

	pressed bool
	move    cp.Vector

	facing cp.Vector
	locked bool

	damage bool
	clips  []string
}

func (b *body) AttackAllowed() bool             { return !b.denied }
func (b *body) MovementAllowed() bool           { return !b.denied }
func (b *body) Dead() bool                      { return b.dead }
func (b *body) HasWeapon() bool                 { return !b.unarmed }
func (b *body) WeaponStats() attack.WeaponStats { return b.stats }
func (b *body) AttackPressed() bool             { return b.pressed }
func (b *body) Movement() cp.Vector             { return b.move }
func (b *body) Direction() cp.Vector            { return b.facing }
func (b *body) LockDirection(dir cp.Vector)     { b.locked, b.facing = true, dir }
func (b *body) Unlock()                         { b.locked = false }
func (b *body) EnableDamage(int)                { b.damage = true }
func (b *body) DisableDamage()                  { b.damage = false }
func (b *body) Play(name string)                { b.clips = append(b.clips, name) }

func (b *body) parts() Parts {
	return Parts{Permissions: b, Equipment: b, Input: b, Facing: b, Damage: b, Animator: b}
}

func spawn(t *testing.T, prefab string, opts Options) (*Brain, *body, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	f := NewFactory(FactoryOptions{Logger: zap.New(core)})
	bp, err := f.Blueprint(prefab)
	require.NoError(t, err)
	require.NoError(t, bp.Problems)

	b := &body{stats: bp.Weapon, facing: cp.Vector{X: 1}}
	brain, err := f.Spawn(prefab, b.parts(), opts)
	require.NoError(t, err)
	return brain, b, logs
}

// swing presses attack for one tick and finishes it on the next.
func swing(brain *Brain, b *body) {
	b.pressed = true
	brain.OnTick(dt)
	b.pressed = false
	brain.PostSignal(attack.SignalAttackFinished)
	brain.OnTick(dt)
}

func TestBrainSpawnToIdle(t *testing.T) {
	brain, b, _ := spawn(t, "swordsman.yaml", Options{})
	assert.Equal(t, "spawn", brain.State())
	assert.Equal(t, []string{"spawn"}, b.clips)
	assert.NotEqual(t, "", brain.ID.String())

	brain.OnTick(dt)
	assert.Equal(t, "spawn", brain.State())
	brain.OnTick(dt)
	assert.Equal(t, "idle", brain.State())
	assert.Equal(t, "idle", brain.Role())
	assert.Equal(t, "idle", brain.Context().Animation())
}

func TestBrainAttackRoundTrip(t *testing.T) {
	brain, b, _ := spawn(t, "swordsman.yaml", Options{})
	brain.OnTick(dt)
	brain.OnTick(dt)
	require.Equal(t, "idle", brain.State())

	b.pressed = true
	brain.OnTick(dt)
	require.True(t, brain.Attack().Attacking())
	assert.Equal(t, "attack", brain.State())
	assert.True(t, brain.Context().Flag("swinging"), "on_update ran in the attack state")
	assert.True(t, b.locked)

	b.pressed = false
	brain.OnExternalSignal(attack.SignalEnableDamage)
	assert.True(t, b.damage)

	brain.PostSignal(attack.SignalAttackFinished)
	assert.True(t, brain.Attack().Attacking(), "posted signals wait for the next tick")

	brain.OnTick(dt)
	assert.False(t, brain.Attack().Attacking())
	assert.False(t, b.damage)
	assert.False(t, b.locked)
	assert.Equal(t, "idle", brain.State())
	assert.False(t, brain.Context().Flag("swinging"), "on_exit cleared the flag")
}

func TestBrainScriptedFinisher(t *testing.T) {
	brain, b, logs := spawn(t, "swordsman.yaml", Options{})
	brain.OnTick(dt)
	brain.OnTick(dt)

	swing(brain, b)
	swing(brain, b)
	require.Equal(t, 2, brain.Attack().ComboIndex())

	b.pressed = true
	brain.OnTick(dt)
	b.pressed = false
	require.Equal(t, 2, brain.Attack().ComboSlot())
	assert.Equal(t, "attack", brain.State())

	brain.OnTick(dt)
	assert.Equal(t, "finisher", brain.State())
	assert.Equal(t, "finisher", brain.Context().Animation())
	assert.Equal(t, 1, logs.FilterMessage("combo finisher").Len())

	brain.OnExternalSignal(attack.SignalAttackFinished)
	brain.OnTick(dt)
	assert.Equal(t, "idle", brain.State())
}

func TestBrainDeathFromPermissions(t *testing.T) {
	brain, b, _ := spawn(t, "swordsman.yaml", Options{})
	brain.OnTick(dt)
	brain.OnTick(dt)

	b.pressed = true
	brain.OnTick(dt)
	require.True(t, brain.Attack().Attacking())

	b.dead = true
	brain.OnTick(dt)
	assert.False(t, brain.Attack().Attacking(), "interrupted")
	assert.Equal(t, "dead", brain.State())
	assert.Equal(t, "death", brain.Context().Animation())
	assert.Equal(t, attack.Snapshot{}, brain.Attack().Snapshot())
}

func TestBrainKillAndRevive(t *testing.T) {
	corpses := 0
	brain, b, logs := spawn(t, "swordsman.yaml", Options{
		CorpseDelay: 1.0,
		OnCorpse:    func(*Brain) { corpses++ },
	})
	brain.OnTick(dt)
	brain.OnTick(dt)
	b.pressed = true
	brain.OnTick(dt)
	require.True(t, brain.Attack().Attacking())

	brain.Kill()
	brain.Kill()
	assert.Equal(t, "dead", brain.State())
	assert.False(t, brain.Attack().Attacking())
	assert.False(t, b.locked)
	assert.True(t, brain.CorpsePending())
	assert.Equal(t, 1, logs.FilterMessage("actor: killed").Len())

	brain.OnTick(dt)
	assert.False(t, brain.Attack().Attacking(), "dead actors cannot attack")

	for i := 0; i < 4; i++ {
		brain.OnTick(dt)
	}
	assert.Equal(t, 1, corpses)
	assert.False(t, brain.CorpsePending())

	b.pressed = false
	brain.Revive()
	assert.Equal(t, "spawn", brain.State())
	brain.OnTick(dt)
	brain.OnTick(dt)
	assert.Equal(t, "idle", brain.State())
	assert.Equal(t, 1, corpses)
}

func TestBrainReviveCancelsCorpse(t *testing.T) {
	corpses := 0
	brain, _, _ := spawn(t, "swordsman.yaml", Options{
		CorpseDelay: 1.0,
		OnCorpse:    func(*Brain) { corpses++ },
	})
	brain.Kill()
	brain.OnTick(dt)
	brain.Revive()
	for i := 0; i < 10; i++ {
		brain.OnTick(dt)
	}
	assert.Zero(t, corpses)
}

func TestBrainDestroy(t *testing.T) {
	corpses := 0
	brain, b, _ := spawn(t, "swordsman.yaml", Options{OnCorpse: func(*Brain) { corpses++ }})
	brain.Kill()
	brain.Destroy()
	brain.Destroy()
	assert.True(t, brain.Destroyed())

	state := brain.State()
	b.pressed = true
	for i := 0; i < 10; i++ {
		brain.OnTick(dt)
	}
	assert.Zero(t, corpses)
	assert.Equal(t, state, brain.State())
	assert.False(t, brain.RequestStateChange("idle", true))
	assert.False(t, brain.Attack().Attacking())
}

func TestBrainRequestStateChange(t *testing.T) {
	brain, _, logs := spawn(t, "swordsman.yaml", Options{})

	assert.True(t, brain.RequestStateChange("idle", false))
	assert.Equal(t, "idle", brain.State())
	assert.False(t, brain.RequestStateChange("idle", false), "already current")
	assert.True(t, brain.RequestStateChange("idle", true), "forced re-entry")

	assert.False(t, brain.RequestStateChange("flying", false))
	assert.Equal(t, "idle", brain.State())
	assert.Equal(t, 1, logs.FilterMessage("fsm: transition to unknown state ignored").Len())

	assert.True(t, brain.RequestStateChangeByRole("move"))
	assert.Equal(t, "run", brain.State())
	assert.False(t, brain.RequestStateChangeByRole("swim"))
	assert.Equal(t, "run", brain.State())
}

func TestBrainWatchdogRecoversLostFinish(t *testing.T) {
	brain, b, logs := spawn(t, "swordsman.yaml", Options{})
	brain.OnTick(dt)
	brain.OnTick(dt)

	b.pressed = true
	brain.OnTick(dt)
	b.pressed = false
	require.Equal(t, "attack", brain.State())

	// short_sword: duration 0.35 + slack 0.25
	brain.OnTick(dt)
	brain.OnTick(dt)
	assert.True(t, brain.Attack().Attacking())
	brain.OnTick(dt)
	assert.False(t, brain.Attack().Attacking())
	assert.Equal(t, "idle", brain.State())
	assert.Equal(t, 1, logs.FilterMessage("attack: safety timer expired, attack-finished signal lost").Len())

	brain.OnExternalSignal(attack.SignalAttackFinished)
	assert.Equal(t, "idle", brain.State())
}

func TestAIBrainIgnoresInput(t *testing.T) {
	ends := 0
	brain, b, _ := spawn(t, "brute.yaml", Options{
		Intervals:   &Intervals{},
		OnAttackEnd: func(attack.EndReason) { ends++ },
	})
	const step = 0.125

	b.pressed = true
	brain.OnTick(step)
	assert.False(t, brain.Attack().Attacking())
	b.pressed = false

	require.True(t, brain.RequestStateChange("windup", false))
	for i := 0; i < 3; i++ {
		brain.OnTick(step)
	}
	require.Equal(t, "swing", brain.State())
	require.True(t, brain.Attack().Attacking(), "on_enter requested the attack")
	assert.Equal(t, 1, brain.Attack().ComboIndex())

	brain.OnTick(step)
	assert.Equal(t, "swing", brain.State(), "same-state else branch is a no-op")

	brain.OnExternalSignal(attack.SignalAttackFinished)
	assert.Equal(t, 1, ends)
	brain.OnTick(step)
	assert.Equal(t, "recover", brain.State())

	brain.OnTick(step)
	assert.Equal(t, "recover", brain.State())
	brain.OnTick(step)
	assert.Equal(t, "windup", brain.State(), "combo in progress chains another windup")
}

func TestContextScriptVars(t *testing.T) {
	brain, b, _ := spawn(t, "swordsman.yaml", Options{})
	b.move = cp.Vector{X: 1.5}
	brain.Context().SetFlag("rage", true)

	vars := brain.Context().ScriptVars()
	assert.Equal(t, "spawn", vars["state"])
	assert.Equal(t, false, vars["attacking"])
	assert.Equal(t, 0, vars["combo_slot"])
	assert.Equal(t, 1.5, vars["move_x"])
	assert.Equal(t, map[string]any{"rage": true}, vars["flags"])

	brain.Context().SetFlag("rage", false)
	assert.Empty(t, brain.Context().Flags())
}
