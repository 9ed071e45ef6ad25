package errorx

import "net/http"

type Code int

var Unknown = Error{Code: 100000, Message: "Request failed"}

const (
	// Common codes
	BadRequest      Code = 100001
	BadResponse     Code = 100002
	NotFound        Code = 100004
	Unauthenticated Code = 100005
	AlreadyExists   Code = 100006
	Internal        Code = 100007
	Unavailable     Code = 100008

	// OAuth codes
	StateMismatch Code = 200001
)

// HTTPStatus maps an error code to the status written to the client.
func (c Code) HTTPStatus() int {
	switch c {
	case BadRequest, StateMismatch:
		return http.StatusBadRequest
	case NotFound:
		return http.StatusNotFound
	case Unauthenticated:
		return http.StatusUnauthorized
	case AlreadyExists:
		return http.StatusConflict
	case BadResponse, Unavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
