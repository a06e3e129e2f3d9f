package ws

import (
	"net/http"

	"storefront/apps/gateway/handlers/middleware"
	"storefront/internal/checkout"
	"storefront/internal/responses"
	"storefront/internal/structs"
	rtws "storefront/internal/ws"
	"storefront/pkg/logger"
	"storefront/pkg/reply"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Handler interface {
		CheckoutEvents(c *gin.Context)
	}

	Params struct {
		fx.In
		Hub     *rtws.Hub
		Manager checkout.Manager
		Logger  logger.Logger
	}

	handler struct {
		hub     *rtws.Hub
		manager checkout.Manager
		logger  logger.Logger
	}
)

func New(p Params) Handler {
	return &handler{
		hub:     p.Hub,
		manager: p.Manager,
		logger:  p.Logger,
	}
}

// mobile clients send no Origin header
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// GET /api/v1/checkout/:id/events
func (h *handler) CheckoutEvents(c *gin.Context) {
	ctx := c.Request.Context()

	session, err := h.manager.Get(middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.logger.Warn(ctx, " checkout session not found", zap.String("id", c.Param("id")))
		response := responses.FromError(err)
		reply.Json(c.Writer, http.StatusOK, &response)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error(ctx, "connection websocket err", zap.Error(err))
		return
	}

	client := rtws.NewClient(session.ID(), conn, h.hub)
	h.hub.Register(session.ID(), client)
	client.Send(structs.Event{
		Type:      structs.EventCheckoutSnapshot,
		SessionID: session.ID(),
		Payload:   session.Snapshot(),
	})
	client.Run()
}
