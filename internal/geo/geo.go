// Package geo holds the great-circle math used for delivery eligibility.
package geo

import (
	"errors"
	"fmt"
	"math"

	"storefront/internal/structs"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

var ErrInvalidCoordinate = errors.New("invalid coordinate")

func toRad(deg float64) float64 { return deg * math.Pi / 180 }

// DistanceKm returns the haversine distance between a and b in kilometers.
func DistanceKm(a, b structs.Coordinate) float64 {
	dLat := toRad(b.Latitude - a.Latitude)
	dLng := toRad(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Latitude))*math.Cos(toRad(b.Latitude))*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return EarthRadiusKm * c
}

// WithinRadius is inclusive: a point exactly radiusKm away is inside.
func WithinRadius(point, origin structs.Coordinate, radiusKm float64) bool {
	return DistanceKm(point, origin) <= radiusKm
}

func Validate(c structs.Coordinate) error {
	if math.IsNaN(c.Latitude) || math.IsNaN(c.Longitude) {
		return fmt.Errorf("%w: NaN ordinate", ErrInvalidCoordinate)
	}
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidCoordinate, c.Latitude)
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidCoordinate, c.Longitude)
	}
	return nil
}

// Origin is the fixed service reference point and its delivery radius.
type Origin struct {
	Point    structs.Coordinate
	RadiusKm float64
}

func NewOrigin(lat, lng, radiusKm float64) (Origin, error) {
	o := Origin{Point: structs.Coordinate{Latitude: lat, Longitude: lng}, RadiusKm: radiusKm}
	if err := Validate(o.Point); err != nil {
		return Origin{}, err
	}
	if radiusKm < 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return Origin{}, fmt.Errorf("invalid delivery radius %v", radiusKm)
	}
	return o, nil
}

func (o Origin) Contains(point structs.Coordinate) bool {
	return WithinRadius(point, o.Point, o.RadiusKm)
}
