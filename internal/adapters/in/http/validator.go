package http

import (
	"errors"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/labstack/echo/v4"

	"superservice/internal/pkg/errs"
)

// RequestValidator checks requests against the OpenAPI document before
// they reach a handler. Routes the document does not describe pass
// through untouched. Authentication is left to RequireParticipant.
func RequestValidator(doc *openapi3.T) (echo.MiddlewareFunc, error) {
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, err
	}

	options := &openapi3filter.Options{
		AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
		MultiError:         false,
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			route, pathParams, err := router.FindRoute(req)
			if errors.Is(err, routers.ErrPathNotFound) {
				return next(c)
			}
			if errors.Is(err, routers.ErrMethodNotAllowed) {
				return c.JSON(http.StatusMethodNotAllowed, Error{
					Code:    http.StatusMethodNotAllowed,
					Kind:    errs.KindValidation,
					Message: http.StatusText(http.StatusMethodNotAllowed),
				})
			}
			if err != nil {
				return next(c)
			}

			input := &openapi3filter.RequestValidationInput{
				Request:    req,
				PathParams: pathParams,
				Route:      route,
				Options:    options,
			}
			if err = openapi3filter.ValidateRequest(req.Context(), input); err != nil {
				return writeError(c, errs.NewValueIsInvalidErrorWithCause("request", err))
			}
			return next(c)
		}
	}, nil
}
