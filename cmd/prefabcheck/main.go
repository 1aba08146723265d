// prefabcheck compiles fighter prefabs and optionally runs each one
// headless for a number of ticks, printing every state change.
package main

import (
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/brawler/actor"
	"github.com/milk9111/brawler/attack"
	"github.com/milk9111/brawler/config"
	"github.com/milk9111/brawler/logging"
	"github.com/milk9111/brawler/prefabs"
)

// dummy is a body that is always allowed to act and presses attack on a
// fixed period.
type dummy struct {
	weapon attack.WeaponStats
	every  int
	tick   int
	facing cp.Vector
}

func (d *dummy) AttackAllowed() bool             { return true }
func (d *dummy) MovementAllowed() bool           { return true }
func (d *dummy) Dead() bool                      { return false }
func (d *dummy) HasWeapon() bool                 { return d.weapon.Duration > 0 }
func (d *dummy) WeaponStats() attack.WeaponStats { return d.weapon }
func (d *dummy) AttackPressed() bool             { return d.every > 0 && d.tick%d.every == 0 }
func (d *dummy) Movement() cp.Vector             { return cp.Vector{} }
func (d *dummy) Direction() cp.Vector            { return d.facing }
func (d *dummy) LockDirection(dir cp.Vector)     { d.facing = dir }
func (d *dummy) Unlock()                         {}
func (d *dummy) EnableDamage(int)                {}
func (d *dummy) DisableDamage()                  {}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	dir := flag.String("dir", "", "prefab directory (overrides prefabs.dir)")
	ticks := flag.Int("ticks", 0, "simulate this many ticks per prefab")
	dt := flag.Float64("dt", 1.0/60, "seconds per simulated tick")
	every := flag.Int("press", 20, "press attack every N ticks while simulating, 0 never")
	list := flag.Bool("list", false, "print the predicate and action names prefabs can use, then exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *dir != "" {
		cfg.Prefabs.Dir = *dir
	}
	prefabs.DiskRoot = cfg.Prefabs.Dir

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	factory := actor.NewFactory(actor.FactoryOptions{
		Logger:      logger,
		WeaponsFile: cfg.Prefabs.Weapons,
		SafetySlack: &cfg.Brain.SafetySlack,
		MaxDepth:    cfg.Brain.MaxConditionDepth,
	})
	if *list {
		fmt.Println("predicates:", strings.Join(factory.Predicates().Names(), " "))
		fmt.Println("actions:   ", strings.Join(factory.Actions().Names(), " "))
		return
	}

	names := flag.Args()
	if len(names) == 0 {
		names = fighterPrefabs(cfg.Prefabs.Dir, cfg.Prefabs.Weapons)
	}

	failed := false
	for _, name := range names {
		bp, err := factory.Blueprint(name)
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", name, err)
			failed = true
			continue
		}
		if bp.Problems != nil {
			fmt.Printf("WARN %s:\n%v\n", name, bp.Problems)
			failed = true
		} else {
			fmt.Printf("ok   %s (%d states, weapon %s)\n", name, len(bp.Definition.States), bp.WeaponName)
		}
		if *ticks > 0 {
			simulate(bp, *ticks, *dt, *every, logger)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// fighterPrefabs lists every YAML prefab except the weapon table, from disk
// when the directory exists and from the embedded copy otherwise.
func fighterPrefabs(dir, weapons string) []string {
	var fsys fs.FS = prefabs.PrefabsFS
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		fsys = os.DirFS(dir)
	}
	matches, _ := fs.Glob(fsys, "*.yaml")
	var out []string
	for _, m := range matches {
		if filepath.Base(m) == prefabs.Name(weapons) {
			continue
		}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func simulate(bp *actor.Blueprint, ticks int, dt float64, every int, log *zap.Logger) {
	body := &dummy{weapon: bp.Weapon, every: every, facing: cp.Vector{X: 1}}
	swingLeft := -1.0
	brain := actor.NewBrain(bp, actor.Parts{
		Permissions: body,
		Equipment:   body,
		Input:       body,
		Facing:      body,
		Damage:      body,
	}, actor.Options{
		Logger:        log,
		OnAttackStart: func(int) { swingLeft = bp.Weapon.Duration },
	})
	defer brain.Destroy()

	last := brain.State()
	fmt.Printf("     %8.3fs %s\n", 0.0, last)
	for i := 1; i <= ticks; i++ {
		body.tick = i
		brain.OnTick(dt)
		if swingLeft >= 0 {
			swingLeft -= dt
			if swingLeft <= 0 {
				swingLeft = -1
				brain.PostSignal(attack.SignalAttackFinished)
			}
		}
		if s := brain.State(); s != last {
			fmt.Printf("     %8.3fs %s -> %s (combo slot %d)\n", float64(i)*dt, last, s, brain.Attack().ComboSlot())
			last = s
		}
	}
}
