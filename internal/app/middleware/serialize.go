package middleware

import (
	"context"
	"sync"

	"stayrate/internal/app/commands"
)

// LockedCommand is implemented by commands whose check-then-write must not
// interleave with other commands sharing the same lock key.
type LockedCommand interface {
	commands.Command
	LockKey() string
}

// KeyedMutex hands out one lock per key and forgets it once nobody waits on it.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedLock)}
}

// Lock blocks until key is free or ctx is done. The returned func releases it.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{sem: make(chan struct{}, 1)}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			k.forget(key, l)
		}, nil
	case <-ctx.Done():
		k.forget(key, l)
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) forget(key string, l *keyedLock) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

// Serialize holds the command's lock key for the rest of the pipeline,
// including the commit, so a concurrent command with the same key observes
// the committed state.
func Serialize(locks *KeyedMutex) CommandMiddleware {
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			locked, ok := cmd.(LockedCommand)
			if !ok || locked.LockKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			unlock, err := locks.Lock(ctx, locked.LockKey())
			if err != nil {
				return nil, err
			}
			defer unlock()
			return next.Dispatch(ctx, cmd)
		})
	}
}
