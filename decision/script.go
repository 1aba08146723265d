package decision

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

const (
	scriptActorVar  = "actor"
	scriptResultVar = "result"
)

// scriptModules excludes os and any other module with side effects outside
// the script.
var scriptModules = []string{"math", "text", "enum"}

// NewScriptPredicate compiles a tengo script into a predicate. Before each
// run the script sees a global map `actor` built by vars, and it reports
// its answer by assigning the global `result`:
//
//	result = actor.combo >= 2 && actor.time_in_state > 0.25
//
// A runtime error is passed to onErr and the predicate yields false.
func NewScriptPredicate[C any](src []byte, vars func(C) map[string]any, onErr func(error)) (Predicate[C], error) {
	script := tengo.NewScript(src)
	if err := script.Add(scriptActorVar, map[string]any{}); err != nil {
		return nil, fmt.Errorf("decision: script global %s: %w", scriptActorVar, err)
	}
	if err := script.Add(scriptResultVar, false); err != nil {
		return nil, fmt.Errorf("decision: script global %s: %w", scriptResultVar, err)
	}
	script.SetImports(stdlib.GetModuleMap(scriptModules...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("decision: compile script: %w", err)
	}

	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}

	return func(ctx C) bool {
		actor := map[string]any{}
		if vars != nil {
			actor = vars(ctx)
		}
		if err := compiled.Set(scriptActorVar, actor); err != nil {
			report(fmt.Errorf("decision: script set %s: %w", scriptActorVar, err))
			return false
		}
		if err := compiled.Set(scriptResultVar, false); err != nil {
			report(fmt.Errorf("decision: script reset %s: %w", scriptResultVar, err))
			return false
		}
		if err := compiled.Run(); err != nil {
			report(fmt.Errorf("decision: script run: %w", err))
			return false
		}
		return compiled.Get(scriptResultVar).Bool()
	}, nil
}
