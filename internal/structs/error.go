package structs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrBadRequest   = errors.New("bad request")
	ErrNotFound     = errors.New("no rows in result set")
	ErrUnauthorized = errors.New("unauthorized")

	ErrNoLocation           = errors.New("location is not available")
	ErrPermissionDenied     = errors.New("location permission denied")
	ErrLocationUnavailable  = errors.New("location unavailable")
	ErrLocationTimeout      = errors.New("location request timed out")
	ErrLocationServiceError = errors.New("location service error")
	ErrAcquisitionInFlight  = errors.New("location acquisition already in progress")

	ErrGeocodeNetwork = errors.New("geocode network error")
	ErrCalculation    = errors.New("availability calculation error")

	ErrValidation       = errors.New("validation failed")
	ErrOrderSubmission  = errors.New("order submission failed")
	ErrUnavailableShops = errors.New("shops unavailable for location")
	ErrPaymentLink      = errors.New("payment link creation failed")

	ErrCheckoutBlocked    = errors.New("checkout blocked")
	ErrSubmissionInFlight = errors.New("order submission already in progress")
	ErrIllegalTransition  = errors.New("illegal checkout transition")
	ErrSessionClosed      = errors.New("checkout session closed")
)

// LocationError is returned by the location service for every terminal
// failure of an acquisition attempt.
type LocationError struct {
	Reason LocationFailure
	Err    error
}

func NewLocationError(reason LocationFailure, err error) *LocationError {
	return &LocationError{Reason: reason, Err: err}
}

func (e *LocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("location %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("location %s", e.Reason)
}

func (e *LocationError) Unwrap() error {
	switch e.Reason {
	case LocationPermissionDenied:
		return ErrPermissionDenied
	case LocationUnavailable:
		return ErrLocationUnavailable
	case LocationTimeout:
		return ErrLocationTimeout
	default:
		return ErrLocationServiceError
	}
}

type GeocodeError struct {
	Status int
	Err    error
}

func (e *GeocodeError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("geocode: upstream status %d", e.Status)
	}
	return fmt.Sprintf("geocode: %v", e.Err)
}

func (e *GeocodeError) Unwrap() error { return ErrGeocodeNetwork }

type FieldProblem string

const (
	FieldMissing FieldProblem = "missing"
	FieldInvalid FieldProblem = "invalid"
)

type FieldError struct {
	Field   string       `json:"field"`
	Problem FieldProblem `json:"problem"`
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	var missing, invalid []string
	for _, f := range e.Fields {
		if f.Problem == FieldMissing {
			missing = append(missing, f.Field)
		} else {
			invalid = append(invalid, f.Field)
		}
	}

	parts := make([]string, 0, 2)
	if len(missing) > 0 {
		parts = append(parts, "missing "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid "+strings.Join(invalid, ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FieldNames lists the offending fields in the order they were checked.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return names
}

type OrderSubmissionError struct {
	Status  int
	Message string
	Err     error
}

func (e *OrderSubmissionError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("order submission failed (status %d): %s", e.Status, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("order submission failed: %v", e.Err)
	}
	return fmt.Sprintf("order submission failed (status %d)", e.Status)
}

func (e *OrderSubmissionError) Unwrap() error { return ErrOrderSubmission }

// UnavailableShopsError is the location specific branch of an order
// submission failure. It matches both ErrUnavailableShops and
// ErrOrderSubmission.
type UnavailableShopsError struct {
	Message string            `json:"message"`
	Shops   []UnavailableShop `json:"unavailableShops"`
}

func (e *UnavailableShopsError) Error() string {
	return fmt.Sprintf("order submission failed: %d shop(s) unavailable: %s", len(e.Shops), e.Message)
}

func (e *UnavailableShopsError) Is(target error) bool {
	return target == ErrUnavailableShops || target == ErrOrderSubmission
}

type BlockReason string

const (
	BlockNone        BlockReason = ""
	BlockNoAddress   BlockReason = "no_address"
	BlockMinOrder    BlockReason = "below_minimum_order"
	BlockUnavailable BlockReason = "delivery_unavailable"
)

type BlockedError struct {
	Reason  BlockReason
	Message string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("checkout blocked (%s): %s", e.Reason, e.Message)
}

func (e *BlockedError) Unwrap() error { return ErrCheckoutBlocked }
