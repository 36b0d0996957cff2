package usecase

import (
	"context"
	"sync"
)

// symbolLocks hands out one mutex per instrument. Waiting honours ctx so a
// request stuck behind a slow exchange call can give up.
type symbolLocks struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newSymbolLocks() *symbolLocks {
	return &symbolLocks{locks: make(map[string]chan struct{})}
}

func (l *symbolLocks) get(symbol string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.locks[symbol]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[symbol] = ch
	}
	return ch
}

// Lock blocks until symbol is free or ctx is done. The returned func releases it.
func (l *symbolLocks) Lock(ctx context.Context, symbol string) (func(), error) {
	ch := l.get(symbol)
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
