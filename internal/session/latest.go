package session

import (
	"context"
	"sync"
)

// Token identifies one call to Latest.Begin.
type Token uint64

// Latest lets only the most recent request apply its result. Begin cancels the
// context of the request it supersedes.
type Latest struct {
	mu     sync.Mutex
	gen    Token
	cancel context.CancelFunc
}

// Begin starts a new request derived from parent.
func (l *Latest) Begin(parent context.Context) (context.Context, Token) {
	ctx, cancel := context.WithCancel(parent)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
	}
	l.gen++
	l.cancel = cancel
	return ctx, l.gen
}

// Current reports whether t is still the latest request.
func (l *Latest) Current(t Token) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return t == l.gen
}

// Finish releases the context of t if it is still the latest request.
func (l *Latest) Finish(t Token) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t == l.gen && l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Cancel abandons whatever request is in flight.
func (l *Latest) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.gen++
}
