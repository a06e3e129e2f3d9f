package pkg

import (
	"go.uber.org/fx"

	"storefront/pkg/cache"
	"storefront/pkg/config"
	"storefront/pkg/email"
	"storefront/pkg/logger"
	"storefront/pkg/reply"
	"storefront/pkg/storage"
)

var Module = fx.Options(
	config.Module,
	logger.Module,
	cache.Module,
	storage.Module,
	email.Module,
	reply.Module,
)
