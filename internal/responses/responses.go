package responses

import (
	"errors"
	"net/http"

	"storefront/internal/location"
	"storefront/internal/structs"
	"storefront/internal/texts"
)

const (
	UnauthorizedCode = http.StatusUnauthorized
	ForbiddenCode    = http.StatusForbidden
)

var (
	Success = structs.Response{
		Status:  "Success",
		Code:    http.StatusOK,
		Message: "Success",
	}
	Created = structs.Response{
		Status:  "Created",
		Code:    http.StatusCreated,
		Message: "Created",
	}
	BadRequest = structs.Response{
		Status:  "Bad Request",
		Code:    http.StatusBadRequest,
		Message: "Invalid request",
	}
	Unauthorized = structs.Response{
		Status:  "Unauthorized",
		Code:    UnauthorizedCode,
		Message: "Unauthorized",
	}
	Forbidden = structs.Response{
		Status:  "Forbidden",
		Code:    ForbiddenCode,
		Message: "Forbidden",
	}
	NotFound = structs.Response{
		Status:  "Not Found",
		Code:    http.StatusNotFound,
		Message: "Not found",
	}
	Conflict = structs.Response{
		Status:  "Conflict",
		Code:    http.StatusConflict,
		Message: "Request conflicts with the current state",
	}
	Unprocessable = structs.Response{
		Status:  "Unprocessable Entity",
		Code:    http.StatusUnprocessableEntity,
		Message: "Request cannot be processed",
	}
	BadGateway = structs.Response{
		Status:  "Bad Gateway",
		Code:    http.StatusBadGateway,
		Message: "Upstream service failed",
	}
	InternalErr = structs.Response{
		Status:  "Internal Server Error",
		Code:    http.StatusInternalServerError,
		Message: "Internal server error",
	}
)

// FromError picks the envelope for a domain error. The message is the one
// the customer should see.
func FromError(err error) structs.Response {
	var (
		verr    *structs.ValidationError
		blocked *structs.BlockedError
		lerr    *structs.LocationError
		resp    structs.Response
	)

	switch {
	case errors.As(err, &verr):
		resp = Unprocessable
		resp.Message = verr.Error()
		resp.Payload = verr.Fields
	case errors.As(err, &blocked):
		resp = Unprocessable
		resp.Message = blocked.Message
	case errors.As(err, &lerr):
		resp = Unprocessable
		resp.Message = location.FailureMessage(lerr.Reason)
	case errors.Is(err, structs.ErrUnavailableShops):
		resp = Unprocessable
		resp.Message = texts.Get(texts.OrderUnavailableShop)
	case errors.Is(err, structs.ErrAcquisitionInFlight):
		resp = Conflict
		resp.Message = texts.Get(texts.LocationInProgress)
	case errors.Is(err, structs.ErrSubmissionInFlight), errors.Is(err, structs.ErrIllegalTransition):
		resp = Conflict
		resp.Message = err.Error()
	case errors.Is(err, structs.ErrOrderSubmission):
		resp = BadGateway
		resp.Message = texts.Get(texts.OrderFailed)
	case errors.Is(err, structs.ErrPaymentLink):
		resp = BadGateway
		resp.Message = texts.Get(texts.PaymentLinkFailed)
	case errors.Is(err, structs.ErrGeocodeNetwork):
		resp = BadGateway
	case errors.Is(err, structs.ErrNotFound), errors.Is(err, structs.ErrSessionClosed):
		resp = NotFound
	case errors.Is(err, structs.ErrBadRequest):
		resp = BadRequest
		resp.Message = err.Error()
	case errors.Is(err, structs.ErrUnauthorized):
		resp = Unauthorized
	default:
		resp = InternalErr
	}
	return resp
}
