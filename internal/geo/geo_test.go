package geo

import (
	"errors"
	"math"
	"testing"

	"storefront/internal/structs"
)

var busStand = structs.Coordinate{Latitude: 12.4962, Longitude: 78.5696}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	points := []structs.Coordinate{
		busStand,
		{Latitude: 0, Longitude: 0},
		{Latitude: -89.9, Longitude: 179.9},
		{Latitude: 51.5074, Longitude: -0.1278},
	}
	for _, p := range points {
		if d := DistanceKm(p, p); d != 0 {
			t.Errorf("DistanceKm(%v, %v) = %v, want 0", p, p, d)
		}
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	pairs := [][2]structs.Coordinate{
		{busStand, {Latitude: 12.5562, Longitude: 78.5696}},
		{{Latitude: 40.7128, Longitude: -74.0060}, {Latitude: 34.0522, Longitude: -118.2437}},
		{{Latitude: -33.8688, Longitude: 151.2093}, {Latitude: 35.6762, Longitude: 139.6503}},
	}
	for _, p := range pairs {
		ab, ba := DistanceKm(p[0], p[1]), DistanceKm(p[1], p[0])
		if math.Abs(ab-ba) > 1e-9 {
			t.Errorf("asymmetric distance: %v vs %v", ab, ba)
		}
	}
}

func TestDistanceKm_KnownDistance(t *testing.T) {
	// 0.06 degrees of latitude is ~6.67 km.
	d := DistanceKm(busStand, structs.Coordinate{Latitude: 12.5562, Longitude: 78.5696})
	if d < 6.6 || d > 6.75 {
		t.Fatalf("expected ~6.67 km, got %v", d)
	}
}

func TestWithinRadius_BoundaryInclusive(t *testing.T) {
	point := structs.Coordinate{Latitude: 12.5562, Longitude: 78.5696}
	exact := DistanceKm(point, busStand)

	if !WithinRadius(point, busStand, exact) {
		t.Fatal("point exactly at the radius must be inside")
	}
	if WithinRadius(point, busStand, exact-1e-6) {
		t.Fatal("point beyond the radius must be outside")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		c     structs.Coordinate
		valid bool
	}{
		{"origin", busStand, true},
		{"poles", structs.Coordinate{Latitude: 90, Longitude: -180}, true},
		{"lat too big", structs.Coordinate{Latitude: 90.01, Longitude: 0}, false},
		{"lng too small", structs.Coordinate{Latitude: 0, Longitude: -180.5}, false},
		{"nan", structs.Coordinate{Latitude: math.NaN(), Longitude: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.c)
			if tt.valid && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("expected ErrInvalidCoordinate, got %v", err)
			}
		})
	}
}

func TestNewOrigin_RejectsBadRadius(t *testing.T) {
	if _, err := NewOrigin(12.4962, 78.5696, -1); err == nil {
		t.Fatal("expected error for negative radius")
	}
	o, err := NewOrigin(12.4962, 78.5696, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !o.Contains(busStand) {
		t.Fatal("origin must contain itself")
	}
}
