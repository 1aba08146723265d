package main

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/ebitenui/ebitenui"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/jakecoffman/cp"
	"go.uber.org/zap"
	"golang.org/x/image/colornames"

	"github.com/milk9111/brawler/actor"
	"github.com/milk9111/brawler/config"
	"github.com/milk9111/brawler/prefabs"
)

const (
	baseWidth  = 1280
	baseHeight = 720
)

const helpText = "move WASD  attack J/click  P permission  F drop finish  K kill/revive  F5 reload  Esc pause"

type Game struct {
	frames int
	dt     float64

	cfg     *config.Config
	log     *zap.Logger
	factory *actor.Factory
	watcher *prefabs.Watcher
	rng     *rand.Rand

	input    *Input
	player   *Fighter
	opponent *Fighter

	ui     *ebitenui.UI
	paused bool
	quit   bool
}

func NewGame(cfg *config.Config, log *zap.Logger) (*Game, error) {
	g := &Game{
		cfg: cfg,
		log: log,
		dt:  1 / float64(max(cfg.Sim.TPS, 1)),
		factory: actor.NewFactory(actor.FactoryOptions{
			Logger:      log,
			WeaponsFile: cfg.Prefabs.Weapons,
			SafetySlack: &cfg.Brain.SafetySlack,
			MaxDepth:    cfg.Brain.MaxConditionDepth,
		}),
		input: NewInput(),
	}
	if cfg.Sim.Seed != 0 {
		g.rng = rand.New(rand.NewPCG(cfg.Sim.Seed, cfg.Sim.Seed>>1|1))
	}

	g.player = NewFighter(cfg.Sim.Fighter, cp.Vector{X: baseWidth / 3, Y: baseHeight / 2}, g.input, log)
	if err := g.spawn(g.player); err != nil {
		return nil, err
	}
	if cfg.Sim.Opponent != "" {
		g.opponent = NewFighter(cfg.Sim.Opponent, cp.Vector{X: baseWidth * 2 / 3, Y: baseHeight / 2}, nil, log)
		if err := g.spawn(g.opponent); err != nil {
			return nil, err
		}
	}

	if cfg.Prefabs.HotReload {
		w, err := prefabs.NewWatcher(cfg.Prefabs.Debounce, cfg.Prefabs.Dir, filepath.Join(cfg.Prefabs.Dir, "scripts"))
		if err != nil {
			log.Warn("sandbox: hot reload disabled", zap.Error(err))
		} else {
			g.watcher = w
		}
	}

	g.ui = NewPauseUI(g)
	return g, nil
}

func (g *Game) brainOptions() actor.Options {
	opts := actor.Options{
		Logger:      g.log,
		Rand:        g.rng,
		CorpseDelay: g.cfg.Brain.CorpseDelay,
	}
	if g.cfg.Brain.OverrideIntervals {
		opts.Intervals = &actor.Intervals{
			Transition: g.cfg.Brain.TransitionInterval,
			Action:     g.cfg.Brain.ActionInterval,
		}
	}
	return opts
}

func (g *Game) spawn(f *Fighter) error {
	bp, err := g.factory.Blueprint(f.Prefab)
	if err != nil {
		return err
	}
	f.Attach(bp, g.brainOptions())
	return nil
}

func (g *Game) fighters() []*Fighter {
	if g.opponent == nil {
		return []*Fighter{g.player}
	}
	return []*Fighter{g.player, g.opponent}
}

func (g *Game) Update() error {
	if g.quit {
		if g.watcher != nil {
			_ = g.watcher.Close()
		}
		return ebiten.Termination
	}

	g.pollReload()

	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		g.paused = !g.paused
	}
	if g.paused {
		g.ui.Update()
		return nil
	}
	g.frames++

	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeyP):
		g.toggleAttackPermission()
	case inpututil.IsKeyJustPressed(ebiten.KeyF):
		g.dropNextFinish()
	case inpututil.IsKeyJustPressed(ebiten.KeyK):
		g.toggleDeath()
	case inpututil.IsKeyJustPressed(ebiten.KeyF5):
		g.reloadAll()
	}

	g.input.Update()
	if g.opponent != nil {
		g.opponent.Face(g.player.Pos)
	}
	for _, f := range g.fighters() {
		f.Update(g.dt)
	}
	if g.opponent != nil {
		g.player.Strike(g.opponent)
		g.opponent.Strike(g.player)
		if g.opponent.corpse {
			g.opponent.Revive()
		}
	}
	return nil
}

// pollReload drains the prefab watcher without blocking the frame.
func (g *Game) pollReload() {
	if g.watcher == nil {
		return
	}
	for {
		select {
		case c, ok := <-g.watcher.Changes:
			if !ok {
				g.watcher = nil
				return
			}
			g.applyChange(c)
		case err, ok := <-g.watcher.Errors:
			if !ok {
				g.watcher = nil
				return
			}
			g.log.Warn("sandbox: prefab watcher", zap.Error(err))
		default:
			return
		}
	}
}

func (g *Game) applyChange(c prefabs.Change) {
	if c.Script || c.Name == prefabs.Name(g.cfg.Prefabs.Weapons) {
		g.reloadAll()
		return
	}
	g.factory.Invalidate(c.Name)
	for _, f := range g.fighters() {
		if prefabs.Name(f.Prefab) == c.Name {
			g.respawn(f)
		}
	}
}

func (g *Game) reloadAll() {
	g.factory.InvalidateAll()
	for _, f := range g.fighters() {
		g.respawn(f)
	}
}

// respawn keeps the old brain when the prefab no longer loads.
func (g *Game) respawn(f *Fighter) {
	if err := g.spawn(f); err != nil {
		g.log.Error("sandbox: reload failed", zap.String("prefab", f.Prefab), zap.Error(err))
		return
	}
	g.log.Info("sandbox: prefab reloaded", zap.String("prefab", f.Prefab))
}

func (g *Game) toggleAttackPermission() {
	g.player.attackDenied = !g.player.attackDenied
	g.log.Info("sandbox: attack permission", zap.Bool("allowed", !g.player.attackDenied))
}

func (g *Game) dropNextFinish() {
	g.player.dropFinish = true
}

func (g *Game) toggleDeath() {
	if g.player.Dead() {
		g.player.Revive()
		return
	}
	g.player.Kill()
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Midnightblue)
	for _, f := range g.fighters() {
		f.Draw(screen)
	}

	status := fmt.Sprintf("Frames: %d    FPS: %.2f\n%s", g.frames, ebiten.ActualFPS(), helpText)
	if g.player.attackDenied {
		status += "\nattack permission revoked"
	}
	if g.player.dropFinish {
		status += "\nnext attack-finished will be dropped"
	}
	ebitenutil.DebugPrint(screen, status)

	if g.paused {
		g.ui.Draw(screen)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return baseWidth, baseHeight
}
