// Package script owns the outbound command queues and the generated
// script file the game executes to publish their contents.
package script

import "sync"

// Queue is a named FIFO of command strings. Kicks and spams each get
// one. Mutation happens on the consumer goroutine, but the operator
// path may inspect lengths, so the queue carries its own lock.
type Queue struct {
	name string

	mu    sync.Mutex
	items []string
}

// NewQueue creates an empty queue with the given name. The name
// appears in the acknowledgement echoes of the generated script.
func NewQueue(name string) *Queue {
	return &Queue{name: name}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// PushBack appends an item to the tail.
func (q *Queue) PushBack(items ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, items...)
}

// PushFront prepends an item at the head.
func (q *Queue) PushFront(item string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append([]string{item}, q.items...)
}

// PopLeft removes and returns the head item.
func (q *Queue) PopLeft() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	item := q.items[0]
	q.items[0] = ""
	q.items = q.items[1:]
	return item, true
}

// Pop removes and returns the tail item.
func (q *Queue) Pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	item := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return item, true
}

// Head returns the head item without removing it.
func (q *Queue) Head() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	return q.items[0], true
}

// Tail returns the tail item without removing it.
func (q *Queue) Tail() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	return q.items[len(q.items)-1], true
}

// Len returns the number of queued items.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Clear drops all queued items.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = nil
}
