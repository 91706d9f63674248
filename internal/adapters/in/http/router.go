package http

import (
	"context"
	"log/slog"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"github.com/swaggo/swag"

	"superservice/internal/adapters/in/http/openapi"
)

var registerDocs sync.Once

// apiDoc serves the embedded OpenAPI document to the swagger UI.
type apiDoc struct{}

func (apiDoc) ReadDoc() string {
	return string(openapi.JSON())
}

// NewRouter builds the echo instance with the REST API under /api, the
// websocket rooms under /rt and the swagger UI.
func NewRouter(
	ctx context.Context,
	server *Server,
	realtimeHandler *RealtimeHandler,
	verifier *TokenVerifier,
	logger *slog.Logger,
) (*echo.Echo, error) {
	doc, err := openapi.Load(ctx)
	if err != nil {
		return nil, err
	}
	return newRouter(doc, server, realtimeHandler, verifier, logger)
}

func newRouter(
	doc *openapi3.T,
	server *Server,
	realtimeHandler *RealtimeHandler,
	verifier *TokenVerifier,
	logger *slog.Logger,
) (*echo.Echo, error) {
	validator, err := RequestValidator(doc)
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger.With("component", "http")))

	e.GET("/health", server.Health)

	registerDocs.Do(func() {
		swag.Register(swag.Name, apiDoc{})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	e.GET("/rt/:kind/:id", realtimeHandler.Serve)

	api := e.Group("/api/v1", RequireParticipant(verifier), validator)
	api.POST("/orders/:id/:event", server.ApplyOrderTransition)
	api.POST("/trips/:id/:event", server.ApplyTripTransition)
	api.GET("/rooms/:kind/:id/messages", server.GetRoomHistory)
	api.GET("/conversations", server.ListConversations)
	api.POST("/participants/me/availability", server.SetAvailability)
	api.POST("/vehicles/:id/approve", server.ApproveVehicle)

	return e, nil
}

func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= 500 {
				level = slog.LevelError
			}
			logger.LogAttrs(c.Request().Context(), level, "request",
				slog.String("method", v.Method),
				slog.String("path", v.URIPath),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
			)
			return nil
		},
	})
}
