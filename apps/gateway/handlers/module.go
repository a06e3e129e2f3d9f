package handlers

import (
	"storefront/apps/gateway/handlers/address"
	"storefront/apps/gateway/handlers/auth"
	"storefront/apps/gateway/handlers/cart"
	"storefront/apps/gateway/handlers/checkout"
	"storefront/apps/gateway/handlers/location"
	"storefront/apps/gateway/handlers/middleware"
	"storefront/apps/gateway/handlers/order"
	"storefront/apps/gateway/handlers/ws"

	"go.uber.org/fx"
)

var Module = fx.Options(
	middleware.Module,
	location.Module,
	auth.Module,
	address.Module,
	cart.Module,
	order.Module,
	checkout.Module,
	ws.Module,
)
