package location

import (
	"net/http"
	"strings"

	"storefront/internal/delivery"
	"storefront/internal/geocode"
	"storefront/internal/responses"
	"storefront/internal/structs"
	"storefront/pkg/logger"
	"storefront/pkg/reply"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Handler interface {
		Availability(c *gin.Context)
		ReverseGeocode(c *gin.Context)
		Search(c *gin.Context)
	}
	Params struct {
		fx.In
		Logger    logger.Logger
		Evaluator delivery.Evaluator
		Geocoder  geocode.Client
	}

	handler struct {
		logger    logger.Logger
		evaluator delivery.Evaluator
		geocoder  geocode.Client
	}
)

func New(p Params) Handler {
	return &handler{
		logger:    p.Logger,
		evaluator: p.Evaluator,
		geocoder:  p.Geocoder,
	}
}

// Availability answers without a session. Missing coordinates produce the
// no_location verdict rather than an error.
func (h *handler) Availability(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	point, present, err := coordinateQuery(c)
	if err != nil {
		h.logger.Warn(ctx, " error parse coordinates", zap.Error(err))
		response = responses.BadRequest
		return
	}

	var verdict structs.AvailabilityVerdict
	if present {
		verdict = h.evaluator.Evaluate(&point)
	} else {
		verdict = h.evaluator.Evaluate(nil)
	}

	response = responses.Success
	response.Payload = verdict
}

func (h *handler) ReverseGeocode(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	point, present, err := coordinateQuery(c)
	if err != nil || !present {
		h.logger.Warn(ctx, " error parse coordinates", zap.Error(err))
		response = responses.BadRequest
		return
	}

	addr, err := h.geocoder.ReverseGeocode(ctx, point)
	if err != nil {
		h.logger.Error(ctx, " err on h.geocoder.ReverseGeocode", zap.Error(err))
		response = responses.FromError(err)
		return
	}

	response = responses.Success
	response.Payload = addr
}

func (h *handler) Search(c *gin.Context) {
	var (
		response structs.Response
		ctx      = c.Request.Context()
	)

	defer reply.Json(c.Writer, http.StatusOK, &response)

	limit, err := cast.ToIntE(c.DefaultQuery("limit", "0"))
	if err != nil {
		h.logger.Warn(ctx, " error parse limit", zap.Error(err))
		response = responses.BadRequest
		return
	}

	response = responses.Success
	response.Payload = h.geocoder.Search(ctx, c.Query("q"), limit)
}

func coordinateQuery(c *gin.Context) (structs.Coordinate, bool, error) {
	// a location missing either ordinate counts as absent
	lat, lon := strings.TrimSpace(c.Query("lat")), strings.TrimSpace(c.Query("lon"))
	if lat == "" || lon == "" {
		return structs.Coordinate{}, false, nil
	}

	latF, err := cast.ToFloat64E(lat)
	if err != nil {
		return structs.Coordinate{}, false, err
	}
	lonF, err := cast.ToFloat64E(lon)
	if err != nil {
		return structs.Coordinate{}, false, err
	}
	return structs.Coordinate{Latitude: latF, Longitude: lonF}, true, nil
}
