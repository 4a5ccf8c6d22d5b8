package middleware

import (
	"context"
	"time"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/uow"
)

// CommitHooks collects uow.AfterCommit callbacks for the rest of the pipeline
// and runs them once it returns without error. Placed outside Serialize, the
// hooks run after the command's lock is released. They get a context that
// survives the caller's cancellation, bounded by timeout when it is positive.
func CommitHooks(timeout time.Duration) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			execCtx, hooks := uow.ContextWithCommitHooks(ctx)
			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			runHooks(ctx, hooks, timeout)
			return res, nil
		})
	}
}

func runHooks(ctx context.Context, hooks *uow.CommitHooks, timeout time.Duration) {
	hookCtx := context.WithoutCancel(ctx)
	if timeout > 0 {
		var cancel context.CancelFunc
		hookCtx, cancel = context.WithTimeout(hookCtx, timeout)
		defer cancel()
	}
	hooks.Run(hookCtx)
}
