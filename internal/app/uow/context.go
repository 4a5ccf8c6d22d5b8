package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

// FromContext retrieves the unit of work placed by the transaction middleware.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// MustFromContext is FromContext expressed as an error.
func MustFromContext(ctx context.Context) (UnitOfWork, error) {
	unit, ok := FromContext(ctx)
	if !ok {
		return nil, ErrUnitOfWorkMissing
	}
	return unit, nil
}

type hooksKey struct{}

// CommitHooks collects callbacks that run once the unit of work commits.
type CommitHooks struct {
	fns []func(context.Context)
}

// ContextWithCommitHooks attaches an empty hook list to ctx.
func ContextWithCommitHooks(ctx context.Context) (context.Context, *CommitHooks) {
	hooks := &CommitHooks{}
	return context.WithValue(ctx, hooksKey{}, hooks), hooks
}

// CommitHooksFromContext returns the hook list an outer stage attached to ctx.
func CommitHooksFromContext(ctx context.Context) (*CommitHooks, bool) {
	hooks, ok := ctx.Value(hooksKey{}).(*CommitHooks)
	return hooks, ok && hooks != nil
}

// Run calls the hooks in registration order.
func (h *CommitHooks) Run(ctx context.Context) {
	for _, fn := range h.fns {
		fn(ctx)
	}
}

// AfterCommit defers fn until the surrounding unit of work commits. Hooks are
// dropped on rollback. Without a hook list in ctx fn runs immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) {
	if hooks, ok := CommitHooksFromContext(ctx); ok {
		hooks.fns = append(hooks.fns, fn)
		return
	}
	fn(ctx)
}
