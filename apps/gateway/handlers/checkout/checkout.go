package checkout

import (
	"errors"
	"io"
	"net/http"

	"storefront/apps/gateway/handlers/middleware"
	"storefront/internal/checkout"
	"storefront/internal/responses"
	"storefront/internal/structs"
	"storefront/internal/ws"
	"storefront/pkg/logger"
	"storefront/pkg/reply"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const qrSize = 256

var (
	Module = fx.Provide(New)
)

type (
	Handler interface {
		OpenCheckout(c *gin.Context)
		GetCheckout(c *gin.Context)
		CloseCheckout(c *gin.Context)
		ReportLocation(c *gin.Context)
		RefreshAvailability(c *gin.Context)
		SelectAddress(c *gin.Context)
		CreateAddress(c *gin.Context)
		Continue(c *gin.Context)
		Back(c *gin.Context)
		SelectPaymentMethod(c *gin.Context)
		Submit(c *gin.Context)
		GatewayNavigation(c *gin.Context)
		GatewayQR(c *gin.Context)
	}
	Params struct {
		fx.In
		Logger  logger.Logger
		Manager checkout.Manager
		Hub     *ws.Hub
	}

	handler struct {
		logger  logger.Logger
		manager checkout.Manager
		hub     *ws.Hub
	}
)

func New(p Params) Handler {
	return &handler{
		logger:  p.Logger,
		manager: p.Manager,
		hub:     p.Hub,
	}
}

func (h *handler) OpenCheckout(c *gin.Context) {
	var (
		response structs.Response
		request  structs.OpenCheckout
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	// an empty body opens the persisted cart
	if err := c.ShouldBindJSON(&request); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	session, err := h.manager.Open(ctx, checkout.OpenParams{
		UserID:      middleware.UserID(c),
		BearerToken: middleware.BearerToken(c),
		Request:     request,
	})
	if err != nil {
		h.logger.Error(ctx, " err on h.manager.Open", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.Created
	response.Payload = session.Snapshot()
}

func (h *handler) GetCheckout(c *gin.Context) {
	var response structs.Response

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}

	response = responses.Success
	response.Payload = session.Snapshot()
}

func (h *handler) CloseCheckout(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	err := h.manager.Close(middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.logger.Warn(ctx, " err on h.manager.Close", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.Success
}

func (h *handler) ReportLocation(c *gin.Context) {
	var (
		response structs.Response
		request  structs.LocationReport
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}
	ctx = c.Request.Context()
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	view, err := session.ReportLocation(ctx, request)
	h.result(c, &response, view, err, "session.ReportLocation")
}

func (h *handler) RefreshAvailability(c *gin.Context) {
	var response structs.Response

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}

	view, err := session.RefreshAvailability()
	h.result(c, &response, view, err, "session.RefreshAvailability")
}

func (h *handler) SelectAddress(c *gin.Context) {
	var (
		response structs.Response
		request  structs.SelectAddress
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}
	ctx = c.Request.Context()
	if err := c.ShouldBindJSON(&request); err != nil || request.AddressID == "" {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	view, err := session.SelectAddress(ctx, request.AddressID)
	h.result(c, &response, view, err, "session.SelectAddress")
}

func (h *handler) CreateAddress(c *gin.Context) {
	var (
		response structs.Response
		request  structs.CreateAddress
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}
	ctx = c.Request.Context()
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	view, err := session.AddAddress(ctx, request)
	h.result(c, &response, view, err, "session.AddAddress")
}

func (h *handler) Continue(c *gin.Context) {
	var response structs.Response

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}

	view, err := session.Continue()
	h.result(c, &response, view, err, "session.Continue")
}

func (h *handler) Back(c *gin.Context) {
	var response structs.Response

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}

	view, err := session.Back()
	h.result(c, &response, view, err, "session.Back")
}

func (h *handler) SelectPaymentMethod(c *gin.Context) {
	var (
		response structs.Response
		request  structs.SelectPaymentMethod
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}
	ctx = c.Request.Context()
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	view, err := session.SelectPaymentMethod(request.Method)
	h.result(c, &response, view, err, "session.SelectPaymentMethod")
}

func (h *handler) Submit(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}
	ctx = c.Request.Context()

	view, err := session.Submit(ctx)
	h.result(c, &response, view, err, "session.Submit")
}

func (h *handler) GatewayNavigation(c *gin.Context) {
	var (
		response structs.Response
		request  structs.GatewayNavigation
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	session, ok := h.session(c, &response)
	if !ok {
		return
	}
	ctx = c.Request.Context()
	if err := c.ShouldBindJSON(&request); err != nil {
		h.logger.Warn(ctx, " error parse request", zap.Error(err))
		response = responses.BadRequest
		return
	}

	view, outcome, err := session.GatewayNavigated(ctx, request.URL)
	h.logger.Debug(ctx, "gateway navigation", zap.String("outcome", string(outcome)), zap.String("session_id", session.ID()))
	h.result(c, &response, view, err, "session.GatewayNavigated")
}

// GatewayQR renders the pending payment link as a PNG so it can be paid
// from another device.
func (h *handler) GatewayQR(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	session, ok := h.session(c, &response)
	if !ok {
		reply.Json(c.Writer, http.StatusOK, &response)
		return
	}
	ctx = c.Request.Context()

	link := session.Snapshot().PaymentLink
	if link == "" {
		response = responses.NotFound
		response.Message = "No pending payment link"
		reply.Json(c.Writer, http.StatusOK, &response)
		return
	}

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		h.logger.Error(ctx, " err on qrcode.Encode", zap.Error(err))
		response = responses.InternalErr
		reply.Json(c.Writer, http.StatusOK, &response)
		return
	}

	reply.PNG(c.Writer, png)
}

func (h *handler) session(c *gin.Context, response *structs.Response) (*checkout.Session, bool) {
	session, err := h.manager.Get(middleware.UserID(c), c.Param("id"))
	if err != nil {
		h.logger.Warn(c.Request.Context(), " checkout session not found", zap.String("id", c.Param("id")))
		*response = responses.FromError(err)
		return nil, false
	}
	c.Request = c.Request.WithContext(h.logger.WithSession(c.Request.Context(), session.ID()))
	return session, true
}

// result fills the envelope for a session operation and pushes the view to
// the session's websocket watchers. Failures still carry the session view so
// the client can render the current step and message.
func (h *handler) result(c *gin.Context, response *structs.Response, view structs.CheckoutView, err error, op string) {
	ctx := c.Request.Context()
	if view.ID != "" {
		h.hub.Publish(structs.Event{Type: structs.EventCheckoutUpdated, SessionID: view.ID, Payload: view})
	}
	if err != nil {
		var blocked *structs.BlockedError
		if errors.As(err, &blocked) || errors.Is(err, structs.ErrValidation) {
			h.logger.Warn(ctx, " rejected by "+op, zap.Error(err))
		} else {
			h.logger.Error(ctx, " err on "+op, zap.Error(err))
		}
		*response = responses.FromError(err)
		if view.ID != "" {
			if _, isValidation := response.Payload.([]structs.FieldError); !isValidation {
				response.Payload = view
			}
		}
		return
	}

	*response = responses.Success
	response.Payload = view
}
