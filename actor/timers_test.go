package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimersFireOnceInOrder(t *testing.T) {
	var tm Timers
	var fired []string
	tm.Schedule(0.5, func() { fired = append(fired, "b") })
	tm.Schedule(0.25, func() { fired = append(fired, "a") })
	tm.Schedule(0.5, func() { fired = append(fired, "c") })
	require.Equal(t, 3, tm.Len())

	tm.Tick(0.25)
	assert.Equal(t, []string{"a"}, fired)
	tm.Tick(0.25)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	tm.Tick(1)
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Zero(t, tm.Len())
}

func TestTimersCancel(t *testing.T) {
	var tm Timers
	fired := 0
	id := tm.Schedule(0.1, func() { fired++ })
	require.NotZero(t, id)

	assert.True(t, tm.Cancel(id))
	assert.False(t, tm.Cancel(id))
	tm.Tick(1)
	assert.Zero(t, fired)

	assert.Zero(t, tm.Schedule(1, nil), "nil callbacks are not scheduled")
}

func TestTimersCancelFromCallback(t *testing.T) {
	var tm Timers
	fired := map[string]int{}
	var second TimerID
	tm.Schedule(0, func() {
		fired["first"]++
		assert.True(t, tm.Cancel(second))
		tm.Schedule(0, func() { fired["later"]++ })
	})
	second = tm.Schedule(0, func() { fired["second"]++ })

	tm.Tick(0.1)
	assert.Equal(t, map[string]int{"first": 1}, fired)
	tm.Tick(0.1)
	assert.Equal(t, map[string]int{"first": 1, "later": 1}, fired)
}

func TestTimersCancelAll(t *testing.T) {
	var tm Timers
	fired := 0
	tm.Schedule(0, func() {
		fired++
		tm.CancelAll()
	})
	tm.Schedule(0, func() { fired++ })
	tm.Schedule(5, func() { fired++ })

	tm.Tick(0.1)
	assert.Equal(t, 1, fired)
	assert.Zero(t, tm.Len())
	tm.Tick(10)
	assert.Equal(t, 1, fired)
}
