package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/graft/internal/input"
	"github.com/samcharles93/graft/internal/schema"
	"github.com/samcharles93/graft/pkg/layout"
	"github.com/samcharles93/graft/pkg/structio"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	// ErrBadPayload marks data that could not be unpacked before decoding.
	ErrBadPayload = errors.New("bad payload")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps a decode failure to an HTTP status and error type.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, structio.ErrFormat):
		return http.StatusUnprocessableEntity, "format_error"
	case errors.Is(err, ErrBadPayload), errors.Is(err, structio.ErrIO):
		// Request data is in memory, so read failures come from decompression.
		return http.StatusUnprocessableEntity, "input_error"
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidSchema),
		errors.Is(err, layout.ErrInvalidConfig),
		errors.Is(err, layout.ErrUnknownProfile),
		errors.Is(err, input.ErrUnknownCompression),
		errors.Is(err, structio.ErrConfig),
		errors.Is(err, structio.ErrContract):
		return http.StatusBadRequest, "invalid_request_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
