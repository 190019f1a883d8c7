// Package lock provides in-process exclusive locks scoped to a key.
package lock

import (
	"context"
	"sync"
)

// KeyedMutex hands out exclusive locks per key. Waiters on the same key are
// served in arrival order; locks on different keys never block each other.
// Idle keys are dropped from the table, so memory is bounded by the number of
// keys currently held or awaited.
type KeyedMutex struct {
	mu     sync.Mutex
	queues map[string]*queue
}

type queue struct {
	waiters []chan struct{}
}

// NewKeyedMutex creates an empty lock table.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{queues: make(map[string]*queue)}
}

// Lock blocks until the caller holds key or ctx is done. The returned unlock
// function is safe to call more than once.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k.mu.Lock()
	q, held := k.queues[key]
	if !held {
		k.queues[key] = &queue{}
		k.mu.Unlock()
		return k.unlocker(key), nil
	}
	ready := make(chan struct{})
	q.waiters = append(q.waiters, ready)
	k.mu.Unlock()

	select {
	case <-ready:
		return k.unlocker(key), nil
	case <-ctx.Done():
	}

	k.mu.Lock()
	for i, w := range q.waiters {
		if w == ready {
			q.waiters = append(q.waiters[:i], q.waiters[i+1:]...)
			k.mu.Unlock()
			return nil, ctx.Err()
		}
	}
	k.mu.Unlock()

	// The lock was handed to us while we were giving up; pass it on.
	k.release(key)
	return nil, ctx.Err()
}

// Held reports whether key is currently locked.
func (k *KeyedMutex) Held(key string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	_, ok := k.queues[key]
	return ok
}

func (k *KeyedMutex) unlocker(key string) func() {
	var once sync.Once
	return func() {
		once.Do(func() { k.release(key) })
	}
}

func (k *KeyedMutex) release(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	q, ok := k.queues[key]
	if !ok {
		return
	}
	if len(q.waiters) == 0 {
		delete(k.queues, key)
		return
	}
	next := q.waiters[0]
	q.waiters = q.waiters[1:]
	close(next)
}
