package order

import (
	"net/http"

	"storefront/apps/gateway/handlers/middleware"
	"storefront/internal/order"
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
		GetListOrder(c *gin.Context)
	}
	Params struct {
		fx.In
		Logger  logger.Logger
		History order.History
	}

	handler struct {
		logger  logger.Logger
		history order.History
	}
)

func New(p Params) Handler {
	return &handler{
		logger:  p.Logger,
		history: p.History,
	}
}

func (h *handler) GetListOrder(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	list, err := h.history.List(ctx, middleware.UserID(c))
	if err != nil {
		h.logger.Error(ctx, " err on h.history.List", zap.Error(err))
		response = responses.InternalErr
		return
	}

	response = responses.Success
	response.Payload = list
}
