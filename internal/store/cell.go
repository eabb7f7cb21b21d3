// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package store holds the shared application state as independent reactive
// cells.
package store

import "sync"

// Cell is a single independently-addressable piece of shared state: a
// current value plus change notifications for subscribers.
//
// Writes are atomic per cell; a reader never observes a torn value.
// Cross-cell consistency is the writer's responsibility - the pipelines
// order their writes so that observers never see, say, loading cleared
// while the matching assistant message is still missing.
//
// Subscribers receive values on a capacity-1 channel with latest-wins
// semantics: a slow subscriber skips intermediate values rather than
// blocking a writer.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
	subs  map[int]chan T
	next  int
}

// NewCell creates a cell holding an initial value.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = v
	c.notifyLocked()
}

// Update applies fn to the current value, stores the result, notifies
// subscribers, and returns the new value. fn must not retain or mutate its
// argument; it builds a replacement.
func (c *Cell[T]) Update(fn func(T) T) T {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = fn(c.value)
	c.notifyLocked()
	return c.value
}

// Subscribe registers a change listener. The returned channel delivers
// values written after subscription; read the current value with Get if the
// starting state matters. The cancel function releases the subscription and
// closes the channel.
func (c *Cell[T]) Subscribe() (<-chan T, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.next
	c.next++
	ch := make(chan T, 1)
	c.subs[id] = ch

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notifyLocked pushes the current value to every subscriber, replacing any
// undelivered older value.
func (c *Cell[T]) notifyLocked() {
	for _, ch := range c.subs {
		select {
		case ch <- c.value:
		default:
			// Slow subscriber: drop the stale value, keep the newest.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c.value:
			default:
			}
		}
	}
}
