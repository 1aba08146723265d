package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BRAWLER_LOG_LEVEL=debug.
const EnvPrefix = "BRAWLER"

type Config struct {
	Sim     SimConfig     `mapstructure:"sim"`
	Brain   BrainConfig   `mapstructure:"brain"`
	Log     LogConfig     `mapstructure:"log"`
	Prefabs PrefabsConfig `mapstructure:"prefabs"`
}

type SimConfig struct {
	TPS      int    `mapstructure:"tps"`
	Fighter  string `mapstructure:"fighter"`  // prefab driven by the keyboard
	Opponent string `mapstructure:"opponent"` // AI prefab, empty for none
	Seed     uint64 `mapstructure:"seed"`     // 0 picks a random seed
}

type BrainConfig struct {
	// OverrideIntervals replaces the prefab cadences with the two below.
	OverrideIntervals  bool    `mapstructure:"override_intervals"`
	TransitionInterval float64 `mapstructure:"transition_interval"`
	ActionInterval     float64 `mapstructure:"action_interval"`

	SafetySlack       float64 `mapstructure:"safety_slack"`
	CorpseDelay       float64 `mapstructure:"corpse_delay"`
	MaxConditionDepth int     `mapstructure:"max_condition_depth"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

type PrefabsConfig struct {
	Dir       string        `mapstructure:"dir"`
	Weapons   string        `mapstructure:"weapons"`
	HotReload bool          `mapstructure:"hot_reload"`
	Debounce  time.Duration `mapstructure:"debounce"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("sim.tps", 60)
	v.SetDefault("sim.fighter", "swordsman.yaml")
	v.SetDefault("sim.opponent", "brute.yaml")
	v.SetDefault("sim.seed", 0)

	v.SetDefault("brain.override_intervals", false)
	v.SetDefault("brain.transition_interval", 0.0)
	v.SetDefault("brain.action_interval", 0.0)
	v.SetDefault("brain.safety_slack", 0.25)
	v.SetDefault("brain.corpse_delay", 2.0)
	v.SetDefault("brain.max_condition_depth", 32)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("prefabs.dir", "prefabs")
	v.SetDefault("prefabs.weapons", "weapons.yaml")
	v.SetDefault("prefabs.hot_reload", true)
	v.SetDefault("prefabs.debounce", "100ms")
}

// Load reads config from the given YAML file path. An empty path uses the
// defaults plus environment overrides only.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
