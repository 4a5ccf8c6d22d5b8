package redis

import (
	"context"

	goredis "github.com/go-redis/redis/v8"
)

// NewClient returns a client for addr. Callers own Close.
func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func Ping(ctx context.Context, c *goredis.Client) error {
	return c.Ping(ctx).Err()
}
