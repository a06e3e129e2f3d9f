package structs

import "time"

type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ResolvedAddress struct {
	DisplayName string            `json:"displayName"`
	Raw         map[string]string `json:"raw"`
	Coordinate  Coordinate        `json:"coordinate"`
}

type PlaceCandidate struct {
	DisplayName string            `json:"displayName"`
	Coordinate  Coordinate        `json:"coordinate"`
	RawAddress  map[string]string `json:"rawAddress"`
	PlaceID     int64             `json:"placeId"`
}

type AvailabilityReason string

const (
	ReasonNoLocation       AvailabilityReason = "no_location"
	ReasonAvailable        AvailabilityReason = "available"
	ReasonOutsideRadius    AvailabilityReason = "outside_radius"
	ReasonCalculationError AvailabilityReason = "calculation_error"
)

type AvailabilityVerdict struct {
	Available  bool               `json:"available"`
	DistanceKm *float64           `json:"distanceKm"`
	Message    string             `json:"message"`
	Reason     AvailabilityReason `json:"reason"`
}

type Permission string

const (
	PermissionUndetermined Permission = "undetermined"
	PermissionGranted      Permission = "granted"
	PermissionDenied       Permission = "denied"
)

type LocationFailure string

const (
	LocationPermissionDenied LocationFailure = "permission_denied"
	LocationUnavailable      LocationFailure = "unavailable"
	LocationTimeout          LocationFailure = "timeout"
	LocationServiceError     LocationFailure = "service_error"
)

type LocationFix struct {
	Coordinate Coordinate `json:"coordinate"`
	AccuracyM  float64    `json:"accuracy"`
	Timestamp  time.Time  `json:"timestamp"`
}

// LocationReport is what the mobile client sends after asking the device:
// the permission answer and either a fix or a failure code.
type LocationReport struct {
	Permission Permission      `json:"permission"`
	Latitude   *float64        `json:"latitude"`
	Longitude  *float64        `json:"longitude"`
	Accuracy   float64         `json:"accuracy"`
	Timestamp  int64           `json:"timestamp"` // unix millis
	Failure    LocationFailure `json:"failure,omitempty"`
}

type LocationResult struct {
	Fix     LocationFix      `json:"fix"`
	Address *ResolvedAddress `json:"address,omitempty"`
}

type LocationView struct {
	State   string           `json:"state"`
	Result  *LocationResult  `json:"result,omitempty"`
	Failure *LocationFailure `json:"failure,omitempty"`
	Message string           `json:"message,omitempty"`
}
