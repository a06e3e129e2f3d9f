package delivery

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"storefront/internal/geo"
	"storefront/internal/structs"
	"storefront/internal/texts"
	"storefront/pkg/config"
	"storefront/pkg/logger"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	Module = fx.Provide(New)
)

type (
	Params struct {
		fx.In
		Config config.IConfig
		Logger logger.Logger
	}

	// Evaluator turns a (possibly missing) customer location into a delivery
	// verdict. It never returns an error: every failure becomes a verdict.
	Evaluator interface {
		Evaluate(location *structs.Coordinate) structs.AvailabilityVerdict
	}

	evaluator struct {
		origin   geo.Origin
		logger   logger.Logger
		distance func(a, b structs.Coordinate) float64
	}
)

func New(p Params) (Evaluator, error) {
	origin, err := geo.NewOrigin(
		p.Config.GetFloat64("delivery.origin_lat"),
		p.Config.GetFloat64("delivery.origin_lng"),
		p.Config.GetFloat64("delivery.radius_km"),
	)
	if err != nil {
		return nil, fmt.Errorf("delivery origin: %w", err)
	}

	p.Logger.Info(context.Background(), "delivery origin configured",
		zap.Float64("lat", origin.Point.Latitude),
		zap.Float64("lng", origin.Point.Longitude),
		zap.Float64("radius_km", origin.RadiusKm),
	)
	return NewEvaluator(origin, p.Logger), nil
}

func NewEvaluator(origin geo.Origin, log logger.Logger) Evaluator {
	return &evaluator{
		origin:   origin,
		logger:   log,
		distance: geo.DistanceKm,
	}
}

func (e *evaluator) Evaluate(location *structs.Coordinate) (verdict structs.AvailabilityVerdict) {
	if location == nil || geo.Validate(*location) != nil {
		return NoLocation()
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error(context.Background(), "availability calculation panicked", zap.Any("panic", r))
			verdict = calculationError()
		}
	}()

	d := e.distance(*location, e.origin.Point)
	if math.IsNaN(d) || math.IsInf(d, 0) || d < 0 {
		e.logger.Error(context.Background(), "availability calculation produced invalid distance",
			zap.Float64("distance", d),
			zap.Any("location", location),
		)
		return calculationError()
	}
	// classification uses the raw distance; only the reported one is rounded
	available := e.origin.Contains(*location)
	d = math.Round(d*100) / 100

	if available {
		return structs.AvailabilityVerdict{
			Available:  true,
			DistanceKm: &d,
			Message:    texts.Format(texts.AvailabilityAvailable, d),
			Reason:     structs.ReasonAvailable,
		}
	}

	return structs.AvailabilityVerdict{
		Available:  false,
		DistanceKm: &d,
		Message:    texts.Format(texts.AvailabilityOutside, strconv.FormatFloat(e.origin.RadiusKm, 'f', -1, 64), d),
		Reason:     structs.ReasonOutsideRadius,
	}
}

// NoLocation is the verdict used before any location is known.
func NoLocation() structs.AvailabilityVerdict {
	return structs.AvailabilityVerdict{
		Available: false,
		Message:   texts.Get(texts.AvailabilityNoLocation),
		Reason:    structs.ReasonNoLocation,
	}
}

func calculationError() structs.AvailabilityVerdict {
	return structs.AvailabilityVerdict{
		Available: false,
		Message:   texts.Get(texts.AvailabilityCalcError),
		Reason:    structs.ReasonCalculationError,
	}
}
