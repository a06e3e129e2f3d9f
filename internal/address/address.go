package address

import (
	"context"
	"fmt"

	"storefront/internal/structs"
	"storefront/pkg/logger"
	"storefront/pkg/storage"
	"storefront/pkg/utils"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Params struct {
		fx.In
		Store  storage.Store
		Logger logger.Logger
	}

	Service interface {
		List(ctx context.Context, userID string) ([]structs.DeliveryAddress, error)
		Get(ctx context.Context, userID, addressID string) (structs.DeliveryAddress, error)
		Create(ctx context.Context, userID string, req structs.CreateAddress) (structs.DeliveryAddress, error)
	}

	service struct {
		store  storage.Store
		logger logger.Logger
	}
)

func New(p Params) Service {
	return &service{
		store:  p.Store,
		logger: p.Logger,
	}
}

func (s *service) List(ctx context.Context, userID string) ([]structs.DeliveryAddress, error) {
	list, err := storage.ReadList[structs.DeliveryAddress](ctx, s.store, storage.UserKey(userID, storage.KeyAddresses))
	if err != nil {
		s.logger.Error(ctx, "->storage.ReadList addresses", zap.Error(err))
		return nil, err
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, userID, addressID string) (structs.DeliveryAddress, error) {
	list, err := s.List(ctx, userID)
	if err != nil {
		return structs.DeliveryAddress{}, err
	}
	for _, a := range list {
		if a.ID == addressID {
			return a, nil
		}
	}
	return structs.DeliveryAddress{}, fmt.Errorf("address %s: %w", addressID, structs.ErrNotFound)
}

// Create validates the form and appends the new address to the user's list.
// Existing entries are never rewritten.
func (s *service) Create(ctx context.Context, userID string, req structs.CreateAddress) (structs.DeliveryAddress, error) {
	if err := Validate(req); err != nil {
		return structs.DeliveryAddress{}, err
	}
	req = Normalize(req)

	addr := structs.DeliveryAddress{
		ID:          utils.GenKSUID(),
		Name:        req.Name,
		Phone:       req.Phone,
		Pincode:     req.Pincode,
		Locality:    req.Locality,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		AddressType: req.AddressType,
	}

	err := storage.AppendList(ctx, s.store, storage.UserKey(userID, storage.KeyAddresses), addr)
	if err != nil {
		s.logger.Error(ctx, "->storage.AppendList addresses", zap.Error(err))
		return structs.DeliveryAddress{}, err
	}
	return addr, nil
}
