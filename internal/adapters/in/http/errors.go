package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"superservice/internal/pkg/errs"
)

// Error is the body of every failed API response.
type Error struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var statusByKind = map[string]int{
	errs.KindUnauthenticated: http.StatusUnauthorized,
	errs.KindForbidden:       http.StatusForbidden,
	errs.KindNotFound:        http.StatusNotFound,
	errs.KindValidation:      http.StatusBadRequest,
	errs.KindStateConflict:   http.StatusConflict,
	errs.KindPersistence:     http.StatusServiceUnavailable,
	errs.KindInternal:        http.StatusInternalServerError,
}

// StatusCode maps an error of the errs taxonomy to an HTTP status.
func StatusCode(err error) int {
	if code, ok := statusByKind[errs.Kind(err)]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func writeError(c echo.Context, err error) error {
	kind := errs.Kind(err)
	code := StatusCode(err)
	msg := err.Error()
	if kind == errs.KindInternal || kind == errs.KindPersistence {
		msg = http.StatusText(code)
	}
	return c.JSON(code, Error{Code: code, Kind: kind, Message: msg})
}

// errorHandler renders echo's own errors (unknown route, bad method) in
// the same shape as domain errors.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		kind := errs.KindInternal
		switch he.Code {
		case http.StatusNotFound:
			kind = errs.KindNotFound
		case http.StatusUnauthorized:
			kind = errs.KindUnauthenticated
		case http.StatusBadRequest, http.StatusMethodNotAllowed:
			kind = errs.KindValidation
		}
		_ = c.JSON(he.Code, Error{Code: he.Code, Kind: kind, Message: http.StatusText(he.Code)})
		return
	}

	_ = writeError(c, err)
}
