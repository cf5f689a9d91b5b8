package batch

import (
	"context"
	"sync"
)

type coordinatorKey struct{}
type dispatchKey struct{}

// Scope is the handle for one batching scope. Exit is safe to defer
// and to call more than once.
type Scope struct {
	coord *Coordinator
	once  sync.Once
}

// Enter opens a batching scope: it starts a Coordinator and returns a
// context carrying it. Call sites invoked with the returned context
// submit to this coordinator; call sites on the parent context are
// unaffected. Scopes nest by context derivation: entering again from
// the returned context shadows this coordinator until the inner scope
// exits, and using the parent context restores the previous binding.
// Concurrent call trees holding unrelated contexts never observe each
// other's coordinators.
func Enter(ctx context.Context, t Transport, cfg Config) (context.Context, *Scope) {
	c := newCoordinator(t, cfg)
	return context.WithValue(ctx, coordinatorKey{}, c), &Scope{coord: c}
}

// Coordinator returns the scope's coordinator.
func (s *Scope) Coordinator() *Coordinator {
	return s.coord
}

// Exit closes the scope: the scheduler is cancelled, remaining queued
// calls are flushed, and in-flight batches are awaited. It runs on
// every exit path when deferred, so a failing caller cannot leak a
// running scheduler or abandon queued entries.
func (s *Scope) Exit() {
	s.once.Do(s.coord.exit)
}

// FromContext returns the innermost active coordinator bound to ctx.
// It reports false when no scope is active, when the bound coordinator
// has begun exiting, or when ctx belongs to a batch dispatch itself;
// a call made while executing a batch is never captured again.
func FromContext(ctx context.Context) (*Coordinator, bool) {
	if ctx == nil {
		return nil, false
	}
	if inDispatch(ctx) {
		return nil, false
	}
	c, ok := ctx.Value(coordinatorKey{}).(*Coordinator)
	if !ok || !c.active() {
		return nil, false
	}
	return c, true
}

// withDispatch marks ctx as belonging to batch execution. The mark is
// scoped to the dispatch call tree only; unrelated concurrent calls
// keep their own contexts.
func withDispatch(ctx context.Context) context.Context {
	return context.WithValue(ctx, dispatchKey{}, true)
}

func inDispatch(ctx context.Context) bool {
	v, _ := ctx.Value(dispatchKey{}).(bool)
	return v
}
