package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}

	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}

	return spec, nil
}

// FighterSpec is one controllable actor archetype: its behavior FSM, its
// attack controller tuning and the weapon it spawns with. AI fighters ignore
// player input and attack through the request_attack action.
type FighterSpec struct {
	Name   string     `yaml:"name"`
	AI     bool       `yaml:"ai"`
	Weapon string     `yaml:"weapon"`
	Attack AttackSpec `yaml:"attack"`
	FSM    FSMSpec    `yaml:"fsm"`
}

func LoadFighterSpec(filename string) (*FighterSpec, error) {
	spec, err := LoadSpec[FighterSpec](filename)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

type AttackSpec struct {
	// Mode is "single" (rising edge) or "continuous" (held).
	Mode        string   `yaml:"mode"`
	Combo       bool     `yaml:"combo"`
	// SafetySlack is nil when the prefab leaves it to the host default.
	SafetySlack *float64 `yaml:"safety_slack"`
}

type WeaponSpec struct {
	Name             string  `yaml:"name"`
	Cooldown         float64 `yaml:"cooldown"`
	Duration         float64 `yaml:"duration"`
	MaxCombo         int     `yaml:"max_combo"`
	ComboResetWindow float64 `yaml:"combo_reset_window"`
}

type WeaponTable struct {
	Weapons []WeaponSpec `yaml:"weapons"`
}

// LoadWeapons returns the weapon table keyed by name. Later duplicates
// overwrite earlier ones.
func LoadWeapons(filename string) (map[string]WeaponSpec, error) {
	table, err := LoadSpec[WeaponTable](filename)
	if err != nil {
		return nil, err
	}
	out := make(map[string]WeaponSpec, len(table.Weapons))
	for _, w := range table.Weapons {
		out[w.Name] = w
	}
	return out, nil
}

type FSMSpec struct {
	Initial            string      `yaml:"initial"`
	TransitionInterval float64     `yaml:"transition_interval"`
	ActionInterval     float64     `yaml:"action_interval"`
	States             []StateSpec `yaml:"states"`
}

// StateSpec lists states in evaluation order; names must be unique within
// one FSM.
type StateSpec struct {
	Name        string           `yaml:"name"`
	Role        string           `yaml:"role"`
	OnEnter     []map[string]any `yaml:"on_enter"`
	OnUpdate    []map[string]any `yaml:"on_update"`
	OnExit      []map[string]any `yaml:"on_exit"`
	Transitions []TransitionSpec `yaml:"transitions"`
}

type TransitionSpec struct {
	When []ConditionSpec `yaml:"when"`
	To   DestinationSpec `yaml:"to"`
	Else DestinationSpec `yaml:"else"`
}

// ConditionSpec is one authored condition node. A node with `all` is an
// AND, with `any` an OR, otherwise a single predicate named by `if`.
type ConditionSpec struct {
	If  string          `yaml:"if"`
	Arg any             `yaml:"arg"`
	All []ConditionSpec `yaml:"all"`
	Any []ConditionSpec `yaml:"any"`
	Not bool            `yaml:"not"`
}

type DestinationOption struct {
	State  string  `yaml:"state"`
	Weight float64 `yaml:"weight"`
}

// DestinationSpec accepts a state name, a list of names, or a list of
// {state, weight} entries.
type DestinationSpec struct {
	Options []DestinationOption
}

func (d DestinationSpec) Empty() bool {
	return len(d.Options) == 0
}

func (d *DestinationSpec) UnmarshalYAML(value *yaml.Node) error {
	d.Options = nil
	switch value.Kind {
	case yaml.ScalarNode:
		if value.Tag == "!!null" || value.Value == "" {
			return nil
		}
		d.Options = append(d.Options, DestinationOption{State: value.Value})
		return nil
	case yaml.MappingNode:
		var opt DestinationOption
		if err := value.Decode(&opt); err != nil {
			return err
		}
		d.Options = append(d.Options, opt)
		return nil
	case yaml.SequenceNode:
		for _, item := range value.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				d.Options = append(d.Options, DestinationOption{State: item.Value})
			case yaml.MappingNode:
				var opt DestinationOption
				if err := item.Decode(&opt); err != nil {
					return err
				}
				d.Options = append(d.Options, opt)
			default:
				return fmt.Errorf("destination entry must be a state name or {state, weight}, line %d", item.Line)
			}
		}
		return nil
	default:
		return fmt.Errorf("destination must be a state name or a list, line %d", value.Line)
	}
}
