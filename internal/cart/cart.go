package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"storefront/internal/structs"
	"storefront/pkg/logger"
	"storefront/pkg/storage"

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
		Get(ctx context.Context, userID string) (structs.Cart, error)
		Add(ctx context.Context, userID string, req structs.AddCartLine) (structs.Cart, error)
		Remove(ctx context.Context, userID, productID string) (structs.Cart, error)
		Clear(ctx context.Context, userID string) error
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

func (s *service) Get(ctx context.Context, userID string) (structs.Cart, error) {
	cart := structs.Cart{Lines: []structs.CartLine{}}
	_, err := storage.ReadJSON(ctx, s.store, storage.UserKey(userID, storage.KeyCart), &cart)
	if err != nil {
		s.logger.Error(ctx, "->storage.ReadJSON cart", zap.Error(err))
		return structs.Cart{}, err
	}
	if cart.Lines == nil {
		cart.Lines = []structs.CartLine{}
	}
	return cart, nil
}

// Add merges the line into the cart. A product already in the cart gets
// its quantity increased and its prices refreshed.
func (s *service) Add(ctx context.Context, userID string, req structs.AddCartLine) (structs.Cart, error) {
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" || req.Quantity <= 0 || req.Price.IsNegative() {
		return structs.Cart{}, fmt.Errorf("cart line: %w", structs.ErrBadRequest)
	}

	var out structs.Cart
	err := s.update(ctx, userID, func(cart *structs.Cart) {
		for i := range cart.Lines {
			if cart.Lines[i].ProductID == req.ProductID {
				cart.Lines[i].Quantity += req.Quantity
				cart.Lines[i].Price = req.Price
				cart.Lines[i].DiscountPrice = req.DiscountPrice
				if req.Name != "" {
					cart.Lines[i].Name = req.Name
				}
				out = *cart
				return
			}
		}
		cart.Lines = append(cart.Lines, structs.CartLine(req))
		out = *cart
	})
	if err != nil {
		s.logger.Error(ctx, "->cart.Add", zap.Error(err), zap.String("product_id", req.ProductID))
		return structs.Cart{}, err
	}
	return out, nil
}

func (s *service) Remove(ctx context.Context, userID, productID string) (structs.Cart, error) {
	var out structs.Cart
	err := s.update(ctx, userID, func(cart *structs.Cart) {
		lines := cart.Lines[:0]
		for _, l := range cart.Lines {
			if l.ProductID != productID {
				lines = append(lines, l)
			}
		}
		cart.Lines = lines
		out = *cart
	})
	if err != nil {
		s.logger.Error(ctx, "->cart.Remove", zap.Error(err), zap.String("product_id", productID))
		return structs.Cart{}, err
	}
	return out, nil
}

func (s *service) Clear(ctx context.Context, userID string) error {
	err := s.store.Delete(ctx, storage.UserKey(userID, storage.KeyCart))
	if err != nil {
		s.logger.Error(ctx, "->storage.Delete cart", zap.Error(err))
		return err
	}
	return nil
}

func (s *service) update(ctx context.Context, userID string, fn func(cart *structs.Cart)) error {
	return s.store.Update(ctx, storage.UserKey(userID, storage.KeyCart), func(current []byte) ([]byte, error) {
		cart := structs.Cart{Lines: []structs.CartLine{}}
		if len(current) > 0 {
			if err := json.Unmarshal(current, &cart); err != nil {
				return nil, fmt.Errorf("decode cart: %w", err)
			}
		}
		fn(&cart)
		return json.Marshal(cart)
	})
}
