package main

import (
	"storefront/apps/gateway"
	"storefront/cmd/gateway/router"
	"storefront/internal"
	"storefront/pkg"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		gateway.Module,
		router.Module,
		pkg.Module,
		internal.Module,
	).Run()
}
