package middleware

import (
	"context"
	"log/slog"
	"time"

	"stayrate/internal/app/commands"
	"stayrate/internal/app/queries"
)

// Logging records the key, duration and outcome of every command.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			attrs := []any{
				slog.String("command", cmd.Key()),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil {
				logger.WarnContext(ctx, "command failed", append(attrs, slog.Any("error", err))...)
				return nil, err
			}
			logger.InfoContext(ctx, "command handled", attrs...)
			return res, nil
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			if err != nil {
				logger.DebugContext(ctx, "query failed",
					slog.String("query", q.Key()),
					slog.Duration("duration", time.Since(start)),
					slog.Any("error", err),
				)
				return nil, err
			}
			return res, nil
		})
	}
}
