package router

import (
	"context"
	"errors"
	"net/http"

	"storefront/apps/gateway/handlers/address"
	"storefront/apps/gateway/handlers/auth"
	"storefront/apps/gateway/handlers/cart"
	"storefront/apps/gateway/handlers/checkout"
	"storefront/apps/gateway/handlers/location"
	"storefront/apps/gateway/handlers/middleware"
	"storefront/apps/gateway/handlers/order"
	"storefront/apps/gateway/handlers/ws"
	"storefront/pkg/config"
	"storefront/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Options(
	fx.Invoke(
		NewRouter,
	),
)

type (
	Params struct {
		fx.In

		middleware.Middleware
		Lifecycle fx.Lifecycle
		Config    config.IConfig
		Logger    logger.Logger

		Handlers
	}

	// Handlers is every route target, grouped so tests can build the engine
	// without a lifecycle.
	Handlers struct {
		fx.In

		Location location.Handler
		Auth     auth.Handler
		Address  address.Handler
		Cart     cart.Handler
		Order    order.Handler
		Checkout checkout.Handler
		WS       ws.Handler
	}
)

func NewEngine(mw middleware.Middleware, h Handlers) *gin.Engine {
	r := gin.New()
	baseUrl := "/api/v1"

	out := r.Group(baseUrl)
	out.Use(mw.Ctx(), gin.Logger(), gin.Recovery())
	{
		out.GET("/availability", h.Location.Availability)
		out.GET("/geocode/reverse", h.Location.ReverseGeocode)
		out.GET("/geocode/search", h.Location.Search)
	}

	api := r.Group(baseUrl)
	api.Use(mw.Ctx(), gin.Logger(), gin.Recovery(), mw.CheckAuth())

	api.POST("/auth/token", h.Auth.StoreToken)

	addressGroup := api.Group("/addresses")
	{
		addressGroup.GET("", h.Address.GetListAddress)
		addressGroup.POST("", h.Address.CreateAddress)
	}

	cartGroup := api.Group("/cart")
	{
		cartGroup.GET("", h.Cart.GetCart)
		cartGroup.POST("", h.Cart.AddCart)
		cartGroup.DELETE("", h.Cart.DeleteCart)
	}

	api.GET("/orders", h.Order.GetListOrder)

	checkoutGroup := api.Group("/checkout")
	{
		checkoutGroup.POST("", h.Checkout.OpenCheckout)
		checkoutGroup.GET("/:id", h.Checkout.GetCheckout)
		checkoutGroup.DELETE("/:id", h.Checkout.CloseCheckout)
		checkoutGroup.POST("/:id/location", h.Checkout.ReportLocation)
		checkoutGroup.POST("/:id/availability/refresh", h.Checkout.RefreshAvailability)
		checkoutGroup.POST("/:id/address", h.Checkout.SelectAddress)
		checkoutGroup.POST("/:id/address/new", h.Checkout.CreateAddress)
		checkoutGroup.POST("/:id/continue", h.Checkout.Continue)
		checkoutGroup.POST("/:id/back", h.Checkout.Back)
		checkoutGroup.POST("/:id/payment-method", h.Checkout.SelectPaymentMethod)
		checkoutGroup.POST("/:id/submit", h.Checkout.Submit)
		checkoutGroup.POST("/:id/gateway/navigation", h.Checkout.GatewayNavigation)
		checkoutGroup.GET("/:id/gateway/qr", h.Checkout.GatewayQR)
		checkoutGroup.GET("/:id/events", h.WS.CheckoutEvents)
	}

	return r
}

func NewRouter(params Params) {
	r := NewEngine(params.Middleware, params.Handlers)

	origins := params.Config.GetStringSlice("server.allowed_origins")
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	server := http.Server{
		Addr: params.Config.GetString("server.port"),
		Handler: cors.New(cors.Options{
			AllowedHeaders:   []string{"*"},
			AllowedOrigins:   origins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
			AllowCredentials: true,
		}).Handler(r),
	}

	params.Lifecycle.Append(
		fx.Hook{
			OnStart: func(ctx context.Context) error {
				params.Logger.Info(ctx, "Starting application")
				go func() {
					if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						params.Logger.Error(ctx, "Err on ListenAndServe", zap.Error(err))
					}
				}()

				params.Logger.Info(ctx, "Application starting on port", zap.String("port", params.Config.GetString("server.port")))
				return nil
			},
			OnStop: func(ctx context.Context) error {
				params.Logger.Info(ctx, "Application stopped")
				return server.Shutdown(ctx)
			},
		},
	)
}
