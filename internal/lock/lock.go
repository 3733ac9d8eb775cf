// Package lock provides the per-trip critical section used by the ledger.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrLockTimeout = errors.New("lock wait timed out")

// Locker serializes work on a key. The returned unlock func is safe to call
// more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Keyed is an in-process mutex per key. Entries are dropped once nobody
// holds or waits on them.
type Keyed struct {
	mu    sync.Mutex
	locks map[string]*entry
}

func NewKeyed() *Keyed {
	return &Keyed{locks: make(map[string]*entry)}
}

func (k *Keyed) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		k.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			k.release(key, e)
		})
	}, nil
}

func (k *Keyed) release(key string, e *entry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}

// Len reports how many keys are currently tracked.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

// TokenStore is a shared store that can hold a key exclusively for a TTL.
type TokenStore interface {
	AcquireTripLock(ctx context.Context, tripID, token string, ttl time.Duration) (bool, error)
	ReleaseTripLock(ctx context.Context, tripID, token string) error
}

// Distributed polls a TokenStore until the key is free, the wait budget is
// spent, or ctx ends.
type Distributed struct {
	store TokenStore
	ttl   time.Duration
	wait  time.Duration
	retry time.Duration
}

func NewDistributed(store TokenStore, ttl, wait time.Duration) *Distributed {
	return &Distributed{store: store, ttl: ttl, wait: wait, retry: 25 * time.Millisecond}
}

func (d *Distributed) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(d.wait)

	for {
		ok, err := d.store.AcquireTripLock(ctx, key, token, d.ttl)
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("acquire lock %s: %w", key, ErrLockTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d.retry):
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The lock expires on its own if release fails.
			_ = d.store.ReleaseTripLock(context.Background(), key, token)
		})
	}, nil
}

// Chain acquires every locker in order and releases them in reverse.
type Chain []Locker

func (c Chain) Lock(ctx context.Context, key string) (func(), error) {
	unlocks := make([]func(), 0, len(c))
	release := func() {
		for i := len(unlocks) - 1; i >= 0; i-- {
			unlocks[i]()
		}
	}
	for _, l := range c {
		unlock, err := l.Lock(ctx, key)
		if err != nil {
			release()
			return nil, err
		}
		unlocks = append(unlocks, unlock)
	}
	return release, nil
}
