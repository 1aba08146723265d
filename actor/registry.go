package actor

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/milk9111/brawler/decision"
	"github.com/milk9111/brawler/fsm"
	"github.com/milk9111/brawler/prefabs"
)

// Predicates returns the predicate registry every fighter prefab compiles
// against, including the fsm builtins. log receives script runtime errors.
func Predicates(log *zap.Logger) *decision.Registry[*Context] {
	if log == nil {
		log = zap.NewNop()
	}
	r := decision.NewRegistry[*Context]()
	fsm.RegisterBuiltins(r)

	r.RegisterStatic("is_dead", (*Context).Dead)
	r.RegisterStatic("attack_allowed", (*Context).AttackAllowed)
	r.RegisterStatic("movement_allowed", (*Context).MovementAllowed)
	r.RegisterStatic("has_weapon", (*Context).HasWeapon)
	r.RegisterStatic("attack_pressed", (*Context).AttackPressed)
	r.RegisterStatic("is_attacking", func(ctx *Context) bool {
		return ctx.Attack().Attacking()
	})

	r.Register("moving", func(arg any) (decision.Predicate[*Context], error) {
		deadzone := 0.0
		if arg != nil {
			v, ok := decision.AsFloat(arg)
			if !ok || v < 0 {
				return nil, fmt.Errorf("moving wants a non-negative deadzone, got %v", arg)
			}
			deadzone = v
		}
		return func(ctx *Context) bool { return ctx.Moving(deadzone) }, nil
	})

	r.Register("combo_at_least", func(arg any) (decision.Predicate[*Context], error) {
		n, ok := decision.AsFloat(arg)
		if !ok {
			return nil, fmt.Errorf("combo_at_least wants a number, got %T", arg)
		}
		return func(ctx *Context) bool { return float64(ctx.Attack().ComboIndex()) >= n }, nil
	})

	r.Register("flag", func(arg any) (decision.Predicate[*Context], error) {
		key := decision.AsString(arg)
		if key == "" {
			return nil, fmt.Errorf("flag wants a key")
		}
		return func(ctx *Context) bool { return ctx.Flag(key) }, nil
	})

	r.Register("script", func(arg any) (decision.Predicate[*Context], error) {
		src, name, err := scriptSource(arg)
		if err != nil {
			return nil, err
		}
		slog := log.With(zap.String("script", name))
		return decision.NewScriptPredicate(src, (*Context).ScriptVars, func(err error) {
			slog.Warn("actor: script predicate failed", zap.Error(err))
		})
	})

	return r
}

// scriptSource returns the tengo source for a script argument: a file under
// prefabs/scripts when it names a .tengo file, the inline source otherwise.
func scriptSource(arg any) ([]byte, string, error) {
	s := strings.TrimSpace(decision.AsString(arg))
	if s == "" {
		return nil, "", fmt.Errorf("script wants a file name or source")
	}
	if strings.HasSuffix(s, ".tengo") && !strings.ContainsAny(s, "\n=") {
		data, err := prefabs.LoadScript(s)
		if err != nil {
			return nil, s, fmt.Errorf("load script %s: %w", s, err)
		}
		return data, s, nil
	}
	return []byte(s), "inline", nil
}

// logArg is the long form of the log action: {message, level}.
type logArg struct {
	Message string `yaml:"message"`
	Level   string `yaml:"level"`
}

// Actions returns the action registry every fighter prefab compiles
// against.
func Actions() *fsm.ActionRegistry[*Context] {
	r := fsm.NewActionRegistry[*Context]()

	r.Register("log", func(arg any) (fsm.Action[*Context], error) {
		la := logArg{Message: decision.AsString(arg), Level: "info"}
		if _, ok := arg.(map[string]any); ok {
			decoded, err := prefabs.DecodeArg[logArg](arg)
			if err != nil {
				return nil, err
			}
			la = decoded
		}
		level, err := zapcore.ParseLevel(la.Level)
		if err != nil {
			return nil, err
		}
		return func(ctx *Context) {
			ctx.Logger().Log(level, la.Message, zap.String("state", ctx.StateName()))
		}, nil
	})

	r.Register("set_animation", func(arg any) (fsm.Action[*Context], error) {
		name := decision.AsString(arg)
		if name == "" {
			return nil, fmt.Errorf("set_animation wants a clip name")
		}
		return func(ctx *Context) { ctx.Play(name) }, nil
	})

	r.Register("request_attack", func(any) (fsm.Action[*Context], error) {
		return func(ctx *Context) { ctx.Attack().RequestAttack() }, nil
	})

	r.Register("reset_attack", func(any) (fsm.Action[*Context], error) {
		return func(ctx *Context) { ctx.Brain().ResetController() }, nil
	})

	r.Register("set_flag", func(arg any) (fsm.Action[*Context], error) {
		key := decision.AsString(arg)
		if key == "" {
			return nil, fmt.Errorf("set_flag wants a key")
		}
		return func(ctx *Context) { ctx.SetFlag(key, true) }, nil
	})

	r.Register("clear_flag", func(arg any) (fsm.Action[*Context], error) {
		key := decision.AsString(arg)
		if key == "" {
			return nil, fmt.Errorf("clear_flag wants a key")
		}
		return func(ctx *Context) { ctx.SetFlag(key, false) }, nil
	})

	return r
}
