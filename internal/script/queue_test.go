package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue("kicks")
	assert.Equal(t, "kicks", q.Name())

	q.PushBack("a", "b", "c")
	assert.Equal(t, 3, q.Len())

	item, ok := q.PopLeft()
	require.True(t, ok)
	assert.Equal(t, "a", item)

	item, ok = q.PopLeft()
	require.True(t, ok)
	assert.Equal(t, "b", item)
}

func TestQueue_PopFromTail(t *testing.T) {
	q := NewQueue("spams")
	q.PushBack("a", "b")

	item, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "b", item)
	assert.Equal(t, 1, q.Len())
}

func TestQueue_PushFront(t *testing.T) {
	q := NewQueue("kicks")
	q.PushBack("second")
	q.PushFront("first")

	item, _ := q.PopLeft()
	assert.Equal(t, "first", item)
}

func TestQueue_HeadTailNonDestructive(t *testing.T) {
	q := NewQueue("kicks")
	q.PushBack("a", "b")

	head, ok := q.Head()
	require.True(t, ok)
	assert.Equal(t, "a", head)

	tail, ok := q.Tail()
	require.True(t, ok)
	assert.Equal(t, "b", tail)
	assert.Equal(t, 2, q.Len())
}

func TestQueue_Empty(t *testing.T) {
	q := NewQueue("kicks")

	_, ok := q.PopLeft()
	assert.False(t, ok)
	_, ok = q.Pop()
	assert.False(t, ok)
	_, ok = q.Head()
	assert.False(t, ok)
	_, ok = q.Tail()
	assert.False(t, ok)
}

func TestQueue_Clear(t *testing.T) {
	q := NewQueue("kicks")
	q.PushBack("a", "b")
	q.Clear()
	assert.Equal(t, 0, q.Len())
}
