package order

import (
	"context"

	"storefront/internal/structs"
	"storefront/pkg/logger"
	"storefront/pkg/storage"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type (
	HistoryParams struct {
		fx.In
		Store  storage.Store
		Logger logger.Logger
	}

	// History is the on-device list of placed orders.
	History interface {
		Append(ctx context.Context, userID string, order structs.PlacedOrder) error
		List(ctx context.Context, userID string) ([]structs.PlacedOrder, error)
	}

	history struct {
		store  storage.Store
		logger logger.Logger
	}
)

func NewHistory(p HistoryParams) History {
	return &history{
		store:  p.Store,
		logger: p.Logger,
	}
}

func (h *history) Append(ctx context.Context, userID string, order structs.PlacedOrder) error {
	err := storage.AppendList(ctx, h.store, storage.UserKey(userID, storage.KeyOrders), order)
	if err != nil {
		h.logger.Error(ctx, "->storage.AppendList orders", zap.Error(err), zap.String("local_id", order.LocalID))
		return err
	}
	return nil
}

func (h *history) List(ctx context.Context, userID string) ([]structs.PlacedOrder, error) {
	list, err := storage.ReadList[structs.PlacedOrder](ctx, h.store, storage.UserKey(userID, storage.KeyOrders))
	if err != nil {
		h.logger.Error(ctx, "->storage.ReadList orders", zap.Error(err))
		return nil, err
	}
	return list, nil
}
