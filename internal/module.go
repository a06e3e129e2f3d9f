package internal

import (
	"storefront/internal/address"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/delivery"
	"storefront/internal/geocode"
	"storefront/internal/notify"
	"storefront/internal/order"
	"storefront/internal/payment"
	"storefront/internal/ws"

	"go.uber.org/fx"
)

var Module = fx.Options(
	geocode.Module,
	delivery.Module,
	address.Module,
	cart.Module,
	order.Module,
	payment.Module,
	notify.Module,
	checkout.Module,
	ws.Module,
)
