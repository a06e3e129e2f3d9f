package auth

import (
	"net/http"
	"strings"

	"storefront/apps/gateway/handlers/middleware"
	"storefront/internal/responses"
	"storefront/internal/structs"
	"storefront/pkg/logger"
	"storefront/pkg/reply"
	"storefront/pkg/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Handler interface {
		StoreToken(c *gin.Context)
	}
	Params struct {
		fx.In
		Logger logger.Logger
		Store  storage.Store
	}

	handler struct {
		logger logger.Logger
		store  storage.Store
	}
)

func New(p Params) Handler {
	return &handler{
		logger: p.Logger,
		store:  p.Store,
	}
}

// StoreToken keeps the storefront API token under the user's token key;
// checkout sessions opened afterwards send it with order requests.
func (h *handler) StoreToken(c *gin.Context) {
	var (
		response structs.Response
		request  structs.StoreToken
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	err := c.ShouldBindJSON(&request)
	if err != nil || strings.TrimSpace(request.Token) == "" {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	userID := middleware.UserID(c)
	err = storage.WriteJSON(ctx, h.store, storage.UserKey(userID, storage.KeyToken), strings.TrimSpace(request.Token))
	if err != nil {
		h.logger.Error(ctx, " err on storage.WriteJSON token", zap.Error(err))
		response = responses.InternalErr
		return
	}

	response = responses.Success
}
