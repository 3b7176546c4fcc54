package hudp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerQueueOrdersByDeadline(t *testing.T) {
	q := newTimerQueue()
	var fired []string
	q.push(300, func() { fired = append(fired, "c") })
	q.push(100, func() { fired = append(fired, "a") })
	q.push(200, func() { fired = append(fired, "b") })

	for _, cb := range q.popDue(300) {
		cb()
	}
	assert.Equal(t, []string{"a", "b", "c"}, fired)
	assert.Equal(t, 0, q.len())
}

func TestTimerQueueRemove(t *testing.T) {
	q := newTimerQueue()
	var fired bool
	item := q.push(100, func() { fired = true })
	q.remove(item)

	assert.Equal(t, 0, q.len())
	for _, cb := range q.popDue(1000) {
		cb()
	}
	assert.False(t, fired)
}

func TestTimerQueuePeekDeadline(t *testing.T) {
	q := newTimerQueue()
	_, ok := q.peekDeadlineMs()
	assert.False(t, ok)

	q.push(50, func() {})
	q.push(10, func() {})
	d, ok := q.peekDeadlineMs()
	require.True(t, ok)
	assert.Equal(t, int64(10), d)
}

func TestTimerQueuePopDueOnlyReturnsExpired(t *testing.T) {
	q := newTimerQueue()
	q.push(100, func() {})
	q.push(200, func() {})

	due := q.popDue(150)
	assert.Len(t, due, 1)
	assert.Equal(t, 1, q.len())
}
