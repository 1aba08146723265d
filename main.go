package main

import (
	"flag"
	"log"

	"github.com/hajimehoshi/ebiten/v2"
	"go.uber.org/zap"

	"github.com/milk9111/brawler/config"
	"github.com/milk9111/brawler/logging"
	"github.com/milk9111/brawler/prefabs"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	fighter := flag.String("fighter", "", "player prefab (overrides sim.fighter)")
	opponent := flag.String("opponent", "", "AI prefab (overrides sim.opponent), \"none\" for no opponent")
	debug := flag.Bool("debug", false, "enable debug logging")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *fighter != "" {
		cfg.Sim.Fighter = *fighter
	}
	switch *opponent {
	case "":
	case "none":
		cfg.Sim.Opponent = ""
	default:
		cfg.Sim.Opponent = *opponent
	}
	if *debug {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	prefabs.DiskRoot = cfg.Prefabs.Dir

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("brawler sandbox")
	ebiten.SetTPS(cfg.Sim.TPS)

	game, err := NewGame(cfg, logger)
	if err != nil {
		logger.Fatal("sandbox: start", zap.Error(err))
	}

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("sandbox: run", zap.Error(err))
	}
}
