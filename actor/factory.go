package actor

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/milk9111/brawler/attack"
	"github.com/milk9111/brawler/decision"
	"github.com/milk9111/brawler/fsm"
	"github.com/milk9111/brawler/prefabs"
)

// DefaultWeaponsFile is the weapon table fighters look their weapon up in.
const DefaultWeaponsFile = "weapons.yaml"

// Blueprint is a compiled fighter prefab. Blueprints are immutable and
// shared by every brain spawned from them.
type Blueprint struct {
	Name        string
	AI          bool
	Mode        attack.Mode
	Combo       bool
	SafetySlack float64
	WeaponName  string
	Weapon      attack.WeaponStats
	Definition  *fsm.Definition[*Context]

	// Problems holds the non-fatal configuration errors found while
	// compiling, nil for a clean prefab.
	Problems error
}

type FactoryOptions struct {
	Logger      *zap.Logger
	WeaponsFile string
	// SafetySlack is used when a prefab does not set one; nil or negative
	// means attack.DefaultSafetySlack.
	SafetySlack *float64
	MaxDepth    int
}

type cachedBlueprint struct {
	bp     *Blueprint
	mod    time.Time
	hasMod bool
}

// Factory compiles fighter prefabs once and caches the result until the
// prefab is invalidated or its file on disk changes.
type Factory struct {
	log         *zap.Logger
	compiler    *fsm.Compiler[*Context]
	weaponsFile string
	slack       float64

	mu    sync.Mutex
	cache map[string]*cachedBlueprint
}

func NewFactory(opts FactoryOptions) *Factory {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	weapons := opts.WeaponsFile
	if weapons == "" {
		weapons = DefaultWeaponsFile
	}
	slack := attack.DefaultSafetySlack
	if opts.SafetySlack != nil && *opts.SafetySlack >= 0 {
		slack = *opts.SafetySlack
	}
	return &Factory{
		log: log,
		compiler: &fsm.Compiler[*Context]{
			Predicates: Predicates(log),
			Actions:    Actions(),
			MaxDepth:   opts.MaxDepth,
		},
		weaponsFile: weapons,
		slack:       slack,
		cache:       map[string]*cachedBlueprint{},
	}
}

// Predicates exposes the registry so hosts can add their own predicates
// before the first Blueprint call.
func (f *Factory) Predicates() *decision.Registry[*Context] { return f.compiler.Predicates }

func (f *Factory) Actions() *fsm.ActionRegistry[*Context] { return f.compiler.Actions }

// Blueprint returns the compiled prefab, compiling it on first use. Only
// an unreadable or unparseable prefab is an error; every other problem is
// logged and recorded in Blueprint.Problems while the blueprint falls back
// to safe defaults.
func (f *Factory) Blueprint(name string) (*Blueprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	mod, hasMod := prefabs.ModTime(name)
	if c, ok := f.cache[name]; ok {
		if c.hasMod == hasMod && c.mod.Equal(mod) {
			return c.bp, nil
		}
		f.log.Debug("actor: prefab changed on disk", zap.String("prefab", name))
	}

	bp, err := f.compile(name)
	if err != nil {
		return nil, err
	}
	f.cache[name] = &cachedBlueprint{bp: bp, mod: mod, hasMod: hasMod}
	return bp, nil
}

// Spawn builds a brain from the named prefab. A nil opts.Logger falls back
// to the factory's logger.
func (f *Factory) Spawn(name string, parts Parts, opts Options) (*Brain, error) {
	bp, err := f.Blueprint(name)
	if err != nil {
		return nil, err
	}
	if opts.Logger == nil {
		opts.Logger = f.log
	}
	return NewBrain(bp, parts, opts), nil
}

// Invalidate drops the cached blueprint. Brains already spawned keep the
// definition they were built with.
func (f *Factory) Invalidate(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.cache, prefabs.Name(name))
	delete(f.cache, name)
}

// InvalidateAll drops every cached blueprint, for changes shared by all
// prefabs such as scripts and the weapon table.
func (f *Factory) InvalidateAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.cache)
}

func (f *Factory) compile(name string) (*Blueprint, error) {
	spec, err := prefabs.LoadFighterSpec(name)
	if err != nil {
		return nil, fmt.Errorf("actor: %w", err)
	}
	var problems []error
	mode, err := attack.ParseMode(spec.Attack.Mode)
	if err != nil {
		problems = append(problems, err)
	}

	bp := &Blueprint{
		Name:        spec.Name,
		AI:          spec.AI,
		Mode:        mode,
		Combo:       spec.Attack.Combo,
		SafetySlack: f.slack,
		WeaponName:  spec.Weapon,
	}
	if bp.Name == "" {
		bp.Name = name
	}
	if s := spec.Attack.SafetySlack; s != nil {
		if *s < 0 {
			problems = append(problems, fmt.Errorf("actor: negative safety_slack %v", *s))
		} else {
			bp.SafetySlack = *s
		}
	}

	if spec.Weapon != "" {
		weapons, err := prefabs.LoadWeapons(f.weaponsFile)
		if err != nil {
			f.log.Warn("actor: weapon table unavailable", zap.String("prefab", name), zap.Error(err))
			problems = append(problems, err)
		} else if w, ok := weapons[spec.Weapon]; ok {
			bp.Weapon = attack.WeaponStats{
				Cooldown:         w.Cooldown,
				Duration:         w.Duration,
				MaxCombo:         w.MaxCombo,
				ComboResetWindow: w.ComboResetWindow,
			}
		} else {
			f.log.Warn("actor: unknown weapon", zap.String("prefab", name), zap.String("weapon", spec.Weapon))
			problems = append(problems, fmt.Errorf("actor: unknown weapon %q", spec.Weapon))
		}
	}

	def, fsmProblems := f.compiler.Compile(spec.FSM)
	bp.Definition = def
	bp.Problems = errors.Join(append(problems, fsmProblems)...)
	if bp.Problems != nil {
		f.log.Warn("actor: prefab compiled with problems", zap.String("prefab", name), zap.Error(bp.Problems))
	}
	return bp, nil
}
