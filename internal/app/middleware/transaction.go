package middleware

import (
	"context"
	"errors"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/uow"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs the rest of the pipeline inside a unit of work. The unit
// is committed when the handler succeeds and rolled back otherwise. Hooks
// registered with uow.AfterCommit run only after a successful commit: here,
// unless an outer CommitHooks stage owns them.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, err
			}
			execCtx := ctx
			if injector, ok := unit.(interface {
				InjectContext(context.Context) context.Context
			}); ok {
				execCtx = injector.InjectContext(ctx)
			}
			execCtx = uow.ContextWithUnitOfWork(execCtx, unit)
			hooks, outer := uow.CommitHooksFromContext(execCtx)
			if !outer {
				execCtx, hooks = uow.ContextWithCommitHooks(execCtx)
			}

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				if rbErr := unit.Rollback(execCtx); rbErr != nil {
					return nil, errors.Join(err, rbErr)
				}
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				_ = unit.Rollback(execCtx)
				return nil, err
			}
			if !outer {
				runHooks(ctx, hooks, 0)
			}
			return res, nil
		})
	}
}
