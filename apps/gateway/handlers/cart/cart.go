package cart

import (
	"errors"
	"net/http"

	"storefront/apps/gateway/handlers/middleware"
	"storefront/internal/cart"
	"storefront/internal/responses"
	"storefront/internal/structs"
	"storefront/pkg/logger"
	"storefront/pkg/reply"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Handler interface {
		GetCart(c *gin.Context)
		AddCart(c *gin.Context)
		DeleteCart(c *gin.Context)
	}
	Params struct {
		fx.In
		Logger      logger.Logger
		CartService cart.Service
	}

	handler struct {
		logger      logger.Logger
		cartService cart.Service
	}
)

func New(p Params) Handler {
	return &handler{
		logger:      p.Logger,
		cartService: p.CartService,
	}
}

func (h *handler) GetCart(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	cart, err := h.cartService.Get(ctx, middleware.UserID(c))
	if err != nil {
		h.logger.Error(ctx, " err on h.cartService.Get", zap.Error(err))
		response = responses.InternalErr
		return
	}

	response = responses.Success
	response.Payload = cart
}

func (h *handler) AddCart(c *gin.Context) {
	var (
		response structs.Response
		request  structs.AddCartLine
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	err := c.ShouldBindJSON(&request)
	if err != nil {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	cart, err := h.cartService.Add(ctx, middleware.UserID(c), request)
	if err != nil {
		if errors.Is(err, structs.ErrBadRequest) {
			response = responses.BadRequest
			return
		}
		h.logger.Error(ctx, " err on h.cartService.Add", zap.Error(err))
		response = responses.InternalErr
		return
	}

	response = responses.Success
	response.Payload = cart
}

// DeleteCart removes one product when productId is given, the whole cart
// otherwise.
func (h *handler) DeleteCart(c *gin.Context) {
	var (
		response  structs.Response
		productID = c.Query("productId")
		userID    = middleware.UserID(c)
		ctx       = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	if productID == "" {
		if err := h.cartService.Clear(ctx, userID); err != nil {
			h.logger.Error(ctx, " err on h.cartService.Clear", zap.Error(err))
			response = responses.InternalErr
			return
		}
		response = responses.Success
		return
	}

	cart, err := h.cartService.Remove(ctx, userID, productID)
	if err != nil {
		h.logger.Error(ctx, " err on h.cartService.Remove", zap.Error(err))
		response = responses.InternalErr
		return
	}

	response = responses.Success
	response.Payload = cart
}
