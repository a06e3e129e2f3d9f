package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

var (
	ErrNotFound = errors.New("not found")

	// maxUpdateAttempts bounds the WATCH/MULTI retry loop in Update.
	maxUpdateAttempts = 5
)

type Client interface {
	Save(ctx context.Context, key string, value []byte, dur time.Duration) error
	Find(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Close() error
}

type client struct {
	redis  redis.UniversalClient
	prefix string
}

type Params struct {
	fx.In

	Config config.IConfig
}

func New(p Params) (Client, error) {
	var (
		prefix  = p.Config.GetString("redis.prefix")
		timeout = 5 * time.Second
	)

	connOpt := redis.UniversalOptions{
		ClientName:   p.Config.GetString("redis.clientName"),
		Addrs:        p.Config.GetStringSlice("redis.addrs"),
		Username:     p.Config.GetString("redis.username"),
		Password:     p.Config.GetString("redis.password"),
		DB:           p.Config.GetInt("redis.db"),
		PoolSize:     p.Config.GetInt("redis.poolSize"),
		MaxRedirects: p.Config.GetInt("redis.maxRedirects"),
		DialTimeout:  timeout,
	}

	conn := redis.NewUniversalClient(&connOpt)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := conn.Ping(ctx)
	if cmd.Err() != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", cmd.Err())
	}

	return &client{
		redis:  conn,
		prefix: prefix,
	}, nil
}

func (c client) getPrefixedKey(key string) string {
	if c.prefix == "" {
		return key
	}
	return c.prefix + "." + key
}

func (c client) Save(ctx context.Context, key string, value []byte, dur time.Duration) error {
	err := c.redis.Set(ctx, c.getPrefixedKey(key), value, dur).Err()
	if err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

func (c client) Find(ctx context.Context, key string) ([]byte, error) {
	value, err := c.redis.Get(ctx, c.getPrefixedKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return value, nil
}

func (c client) Delete(ctx context.Context, key string) error {
	err := c.redis.Del(ctx, c.getPrefixedKey(key)).Err()
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// Update is an optimistic read-modify-write: the key is WATCHed and the write
// is retried when another client changed it in between.
func (c client) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	pkey := c.getPrefixedKey(key)

	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, pkey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next == nil {
				pipe.Del(ctx, pkey)
				return nil
			}
			pipe.Set(ctx, pkey, next, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateAttempts; i++ {
		err := c.redis.Watch(ctx, txf, pkey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to update key: %w", err)
		}
		return nil
	}
	return fmt.Errorf("failed to update key %q: too many concurrent writers", key)
}

func (c client) Close() error {
	return c.redis.Close()
}
