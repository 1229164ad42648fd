// Package store holds the client-side state cells: search/filter/pagination
// state, favorites and theme. Each cell is observable; persistence is attached
// from the outside with Bind.
package store

import "sync"

// Cell is an observable value. Every mutation notifies all subscribers
// synchronously, in mutation order. A mutation made by a subscriber while a
// notification is running is queued and delivered once the current round
// finishes, so subscribers may freely write back into the cell.
type Cell[T any] struct {
	mu          sync.Mutex
	value       T
	subs        map[uint64]func(T)
	order       []uint64
	nextID      uint64
	pending     []T
	dispatching bool
}

// NewCell creates a cell holding initial
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[uint64]func(T)),
	}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set replaces the value and notifies subscribers
func (c *Cell[T]) Set(v T) {
	c.Update(func(T) T { return v })
}

// Update applies fn to the current value atomically and notifies subscribers
// with the result.
func (c *Cell[T]) Update(fn func(T) T) {
	c.UpdateIf(func(v T) (T, bool) { return fn(v), true })
}

// UpdateIf applies fn atomically. The result is committed, and subscribers
// notified, only when fn returns true.
func (c *Cell[T]) UpdateIf(fn func(T) (T, bool)) bool {
	c.mu.Lock()
	next, ok := fn(c.value)
	if !ok {
		c.mu.Unlock()
		return false
	}
	c.value = next
	c.pending = append(c.pending, c.value)
	if c.dispatching {
		c.mu.Unlock()
		return true
	}
	c.dispatching = true

	for len(c.pending) > 0 {
		batch := c.pending
		c.pending = nil
		listeners := c.listeners()
		c.mu.Unlock()

		for _, v := range batch {
			for _, fn := range listeners {
				fn(v)
			}
		}

		c.mu.Lock()
	}

	c.dispatching = false
	c.mu.Unlock()
	return true
}

// Subscribe registers fn for future notifications. The returned function
// removes the subscription and is safe to call more than once.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	id := c.nextID
	c.subs[id] = fn
	c.order = append(c.order, id)

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[id]; !ok {
			return
		}
		delete(c.subs, id)
		for i, v := range c.order {
			if v == id {
				c.order = append(c.order[:i:i], c.order[i+1:]...)
				break
			}
		}
	}
}

// listeners snapshots subscribers in registration order. Caller holds mu.
func (c *Cell[T]) listeners() []func(T) {
	out := make([]func(T), 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.subs[id])
	}
	return out
}
