package storage

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/structs"
	"storefront/pkg/cache"
	"storefront/pkg/config"
	"storefront/pkg/db"
	"storefront/pkg/logger"
	"storefront/pkg/migration"
	"storefront/pkg/redis"
	kvrepo "storefront/pkg/repository/postgres/kv_repo"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Provide(New)

const (
	KeyAddresses = "addresses"
	KeyOrders    = "orders"
	KeyToken     = "token"
	KeyCart      = "cart"
)

// Store is the persisted key-value primitive the checkout flow writes to.
// Missing keys return structs.ErrNotFound.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
}

type Params struct {
	fx.In
	fx.Lifecycle

	Config config.IConfig
	Logger logger.Logger
	Cache  cache.ICache
}

// UserKey scopes a persisted key to one user.
func UserKey(userID, key string) string {
	return "user." + userID + "." + key
}

func New(p Params) (Store, error) {
	ctx := context.Background()
	driver := p.Config.GetString("storage.driver")

	switch driver {
	case "", "memory":
		p.Logger.Info(ctx, "storage: using in-memory driver")
		return NewMemory(p.Cache), nil

	case "redis":
		client, err := redis.New(redis.Params{Config: p.Config})
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.StopHook(client.Close))
		p.Logger.Info(ctx, "storage: using redis driver", zap.Strings("addrs", p.Config.GetStringSlice("redis.addrs")))
		return &redisStore{client: client}, nil

	case "postgres":
		if err := migration.Up(migration.Params{Logger: p.Logger, Config: p.Config}); err != nil {
			return nil, err
		}
		conn, err := db.NewDBConn(db.Params{Config: p.Config, Logger: p.Logger})
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.StopHook(conn.Close))
		p.Logger.Info(ctx, "storage: using postgres driver")
		return &postgresStore{repo: kvrepo.New(kvrepo.Params{Logger: p.Logger, DB: conn})}, nil

	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}

type memoryStore struct {
	cache cache.ICache
}

func NewMemory(c cache.ICache) Store {
	return &memoryStore{cache: c}
}

func (s *memoryStore) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := s.cache.Get(key)
	if !ok {
		return nil, structs.ErrNotFound
	}
	return v, nil
}

func (s *memoryStore) Set(_ context.Context, key string, value []byte) error {
	s.cache.Set(key, value)
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *memoryStore) Update(_ context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	return s.cache.Update(key, fn)
}

type redisStore struct {
	client redis.Client
}

func (s *redisStore) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.client.Find(ctx, key)
	if errors.Is(err, redis.ErrNotFound) {
		return nil, structs.ErrNotFound
	}
	return v, err
}

func (s *redisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Save(ctx, key, value, 0)
}

func (s *redisStore) Delete(ctx context.Context, key string) error {
	return s.client.Delete(ctx, key)
}

func (s *redisStore) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	return s.client.Update(ctx, key, fn)
}

type postgresStore struct {
	repo kvrepo.Repo
}

func (s *postgresStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.repo.Get(ctx, key)
}

func (s *postgresStore) Set(ctx context.Context, key string, value []byte) error {
	return s.repo.Set(ctx, key, value)
}

func (s *postgresStore) Delete(ctx context.Context, key string) error {
	return s.repo.Delete(ctx, key)
}

func (s *postgresStore) Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error {
	return s.repo.Update(ctx, key, fn)
}
