package decision

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tally struct {
	calls map[string]int
}

func (p *tally) pred(name string, v bool) Predicate[*tally] {
	return func(ctx *tally) bool {
		ctx.calls[name]++
		return v
	}
}

func newTally() *tally { return &tally{calls: map[string]int{}} }

func TestEvaluate(t *testing.T) {
	p := newTally()
	yes := p.pred("yes", true)
	no := p.pred("no", false)

	cases := []struct {
		name string
		node Node[*tally]
		want bool
	}{
		{"single_true", Leaf("yes", yes), true},
		{"single_false", Leaf("no", no), false},
		{"single_nil_predicate", Leaf[*tally]("missing", nil), false},
		{"single_nil_predicate_inverted", Not[*tally]("missing", nil), true},
		{"not_true", Not("yes", yes), false},
		{"empty_and", All[*tally](), true},
		{"empty_or", Any[*tally](), true},
		{"empty_and_inverted", &And[*tally]{Invert: true}, false},
		{"empty_or_inverted", &Or[*tally]{Invert: true}, false},
		{"and_mixed", All[*tally](Leaf("yes", yes), Leaf("no", no)), false},
		{"or_mixed", Any[*tally](Leaf("no", no), Leaf("yes", yes)), true},
		{"or_all_false", Any[*tally](Leaf("no", no), Leaf("no", no)), false},
		{"nested", All[*tally](Any[*tally](Leaf("no", no), Leaf("yes", yes)), Not("no", no)), true},
		{"nil_node", nil, false},
		{"typed_nil_and", (*And[*tally])(nil), false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Evaluate(c.node, newTally()))
		})
	}
}

func TestEvaluateShortCircuit(t *testing.T) {
	t.Run("and_stops_on_false", func(t *testing.T) {
		p := newTally()
		node := All[*tally](Leaf("a", p.pred("a", false)), Leaf("b", p.pred("b", true)))
		assert.False(t, Evaluate(node, p))
		assert.Equal(t, 1, p.calls["a"])
		assert.Zero(t, p.calls["b"])
	})

	t.Run("or_stops_on_true", func(t *testing.T) {
		p := newTally()
		node := Any[*tally](Leaf("a", p.pred("a", true)), Leaf("b", p.pred("b", true)))
		assert.True(t, Evaluate(node, p))
		assert.Equal(t, 1, p.calls["a"])
		assert.Zero(t, p.calls["b"])
	})
}

func TestEvaluateAll(t *testing.T) {
	p := newTally()
	assert.True(t, EvaluateAll[*tally](nil, p))
	assert.True(t, EvaluateAll([]Node[*tally]{Leaf("a", p.pred("a", true))}, p))
	assert.False(t, EvaluateAll([]Node[*tally]{Leaf("a", p.pred("a", true)), Leaf("b", p.pred("b", false))}, p))
}

func deepTree(depth int) Node[*tally] {
	var node Node[*tally] = Leaf("yes", func(*tally) bool { return true })
	for i := 1; i < depth; i++ {
		node = All[*tally](node)
	}
	return node
}

func TestDepthCeiling(t *testing.T) {
	assert.True(t, EvaluateDepth(deepTree(4), newTally(), 4))
	assert.False(t, EvaluateDepth(deepTree(5), newTally(), 4))

	past := All[*tally](All[*tally](All[*tally](All[*tally](Not("yes", func(*tally) bool { return true })))))
	assert.False(t, EvaluateDepth(past, newTally(), 4), "a leaf past the ceiling is not inverted")
	assert.False(t, EvaluateDepth[*tally](Not("no", func(*tally) bool { return false }), newTally(), 0))

	require.NoError(t, Validate[*tally](deepTree(4), 4))
	err := Validate[*tally](deepTree(5), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooDeep))
}

func TestValidate(t *testing.T) {
	node := All[*tally](
		Leaf[*tally]("ghost", nil),
		Any[*tally](nil),
	)
	err := Validate[*tally](node, MaxDepth)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingPredicate))
	assert.True(t, errors.Is(err, ErrNilNode))
	assert.Contains(t, err.Error(), `"ghost"`)
}
