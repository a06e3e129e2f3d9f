package address

import (
	"net/http"

	"storefront/apps/gateway/handlers/middleware"
	"storefront/internal/address"
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
		CreateAddress(c *gin.Context)
		GetListAddress(c *gin.Context)
	}
	Params struct {
		fx.In
		Logger         logger.Logger
		AddressService address.Service
	}

	handler struct {
		logger         logger.Logger
		addressService address.Service
	}
)

func New(p Params) Handler {
	return &handler{
		logger:         p.Logger,
		addressService: p.AddressService,
	}
}

func (h *handler) CreateAddress(c *gin.Context) {
	var (
		response structs.Response
		request  structs.CreateAddress
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	err := c.ShouldBindJSON(&request)
	if err != nil {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	addr, err := h.addressService.Create(ctx, middleware.UserID(c), request)
	if err != nil {
		h.logger.Warn(ctx, " err on h.addressService.Create", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.Created
	response.Payload = addr
}

func (h *handler) GetListAddress(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	list, err := h.addressService.List(ctx, middleware.UserID(c))
	if err != nil {
		h.logger.Error(ctx, " err on h.addressService.List", zap.Error(err))
		response = responses.InternalErr
		return
	}

	response = responses.Success
	response.Payload = list
}
