package http

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"

	"superservice/internal/core/application/realtime"
	"superservice/internal/core/application/usecases/commands"
	"superservice/internal/core/application/usecases/queries"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

// ConversationLister is satisfied by both conversation query handlers.
type ConversationLister interface {
	Handle(ctx context.Context, query queries.ListConversationsQuery) ([]queries.Conversation, error)
}

// Server implements the REST part of the API. Every handler runs behind
// RequireParticipant, so the acting participant comes from the token.
type Server struct {
	// Command handlers
	applyTransitionHandler *commands.ApplyTransitionCommandHandler
	setAvailabilityHandler *commands.SetAvailabilityCommandHandler
	approveVehicleHandler  *commands.ApproveVehicleCommandHandler

	// Query handlers
	roomHistoryHandler   *queries.GetRoomHistoryQueryHandler
	conversationsHandler ConversationLister
}

func NewServer(
	applyTransitionHandler *commands.ApplyTransitionCommandHandler,
	setAvailabilityHandler *commands.SetAvailabilityCommandHandler,
	approveVehicleHandler *commands.ApproveVehicleCommandHandler,
	roomHistoryHandler *queries.GetRoomHistoryQueryHandler,
	conversationsHandler ConversationLister,
) *Server {
	return &Server{
		applyTransitionHandler: applyTransitionHandler,
		setAvailabilityHandler: setAvailabilityHandler,
		approveVehicleHandler:  approveVehicleHandler,
		roomHistoryHandler:     roomHistoryHandler,
		conversationsHandler:   conversationsHandler,
	}
}

type transitionResponse struct {
	Room       string    `json:"room"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	Event      string    `json:"event"`
	From       string    `json:"from"`
	To         string    `json:"to"`
	ActorID    string    `json:"actor_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

type historyMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	IsMe      bool      `json:"is_me"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

type historyResponse struct {
	Room     string           `json:"room"`
	Messages []historyMessage `json:"messages"`
}

type conversationMessage struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"sender_id"`
	Message   string    `json:"message"`
	IsMe      bool      `json:"is_me"`
	CreatedAt time.Time `json:"created_at"`
}

type conversationResponse struct {
	Room         string              `json:"room"`
	PeerID       string              `json:"peer_id"`
	PeerUsername string              `json:"peer_username"`
	LastMessage  conversationMessage `json:"last_message"`
}

type availabilityRequest struct {
	Available *bool `json:"available"`
}

type availabilityResponse struct {
	ParticipantID string `json:"participant_id"`
	Available     bool   `json:"available"`
}

// Health handles GET /health.
func (s *Server) Health(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Healthy")
}

// ApplyOrderTransition handles POST /api/v1/orders/{id}/{event}.
func (s *Server) ApplyOrderTransition(ctx echo.Context) error {
	return s.applyTransition(ctx, "order")
}

// ApplyTripTransition handles POST /api/v1/trips/{id}/{event}.
func (s *Server) ApplyTripTransition(ctx echo.Context) error {
	return s.applyTransition(ctx, "trip")
}

func (s *Server) applyTransition(ctx echo.Context, entity string) error {
	actorID, err := actorFrom(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	entityID, err := uuidPathParam(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}

	var event string
	if err = bindPathParam(ctx, "event", &event); err != nil {
		return writeError(ctx, err)
	}

	cmd, err := commands.NewApplyTransitionCommand(entity, entityID, actorID, event)
	if err != nil {
		return writeError(ctx, err)
	}

	result, err := s.applyTransitionHandler.Handle(ctx.Request().Context(), cmd)
	if err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, transitionResponse{
		Room:       result.Room.String(),
		Entity:     result.EntityType,
		EntityID:   result.EntityID.String(),
		Event:      result.Event,
		From:       result.From,
		To:         result.To,
		ActorID:    result.ActorID.String(),
		OccurredAt: result.OccurredAt.UTC(),
	})
}

// GetRoomHistory handles GET /api/v1/rooms/{kind}/{id}/messages.
func (s *Server) GetRoomHistory(ctx echo.Context) error {
	actorID, err := actorFrom(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	var kind, id string
	if err = bindPathParam(ctx, "kind", &kind); err != nil {
		return writeError(ctx, err)
	}
	if err = bindPathParam(ctx, "id", &id); err != nil {
		return writeError(ctx, err)
	}

	var limit *int
	if err = runtime.BindQueryParameter("form", true, false, "limit", ctx.QueryParams(), &limit); err != nil {
		return writeError(ctx, errs.NewValueIsInvalidErrorWithCause("limit", err))
	}

	ref, err := realtime.ParseRoomRef(kind, id)
	if err != nil {
		return writeError(ctx, err)
	}

	n := 0
	if limit != nil {
		n = *limit
	}
	query, err := queries.NewGetRoomHistoryQuery(actorID, ref, n)
	if err != nil {
		return writeError(ctx, err)
	}

	history, err := s.roomHistoryHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := historyResponse{
		Room:     history.Room,
		Messages: make([]historyMessage, len(history.Messages)),
	}
	for i, m := range history.Messages {
		response.Messages[i] = historyMessage{
			ID:        m.ID.String(),
			SenderID:  m.SenderID.String(),
			Username:  m.Username,
			Message:   m.Body,
			IsMe:      m.IsMe,
			Timestamp: m.Timestamp,
			CreatedAt: m.CreatedAt.UTC(),
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// ListConversations handles GET /api/v1/conversations.
func (s *Server) ListConversations(ctx echo.Context) error {
	actorID, err := actorFrom(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	query, err := queries.NewListConversationsQuery(actorID)
	if err != nil {
		return writeError(ctx, err)
	}

	conversations, err := s.conversationsHandler.Handle(ctx.Request().Context(), query)
	if err != nil {
		return writeError(ctx, err)
	}

	response := make([]conversationResponse, len(conversations))
	for i, c := range conversations {
		response[i] = conversationResponse{
			Room:         c.Room,
			PeerID:       c.PeerID.String(),
			PeerUsername: c.PeerUsername,
			LastMessage: conversationMessage{
				ID:        c.LastMessage.ID.String(),
				SenderID:  c.LastMessage.SenderID.String(),
				Message:   c.LastMessage.Body,
				IsMe:      c.LastMessage.IsMe,
				CreatedAt: c.LastMessage.CreatedAt.UTC(),
			},
		}
	}

	return ctx.JSON(http.StatusOK, response)
}

// SetAvailability handles POST /api/v1/participants/me/availability.
func (s *Server) SetAvailability(ctx echo.Context) error {
	actorID, err := actorFrom(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	var body availabilityRequest
	if err = ctx.Bind(&body); err != nil {
		return writeError(ctx, errs.NewValueIsInvalidErrorWithCause("body", err))
	}
	if body.Available == nil {
		return writeError(ctx, errs.NewValueIsRequiredError("available"))
	}

	cmd, err := commands.NewSetAvailabilityCommand(actorID, *body.Available)
	if err != nil {
		return writeError(ctx, err)
	}

	if err = s.setAvailabilityHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, availabilityResponse{
		ParticipantID: actorID.String(),
		Available:     *body.Available,
	})
}

// ApproveVehicle handles POST /api/v1/vehicles/{id}/approve.
func (s *Server) ApproveVehicle(ctx echo.Context) error {
	actorID, err := actorFrom(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	vehicleID, err := uuidPathParam(ctx, "id")
	if err != nil {
		return writeError(ctx, err)
	}

	cmd, err := commands.NewApproveVehicleCommand(actorID, vehicleID)
	if err != nil {
		return writeError(ctx, err)
	}

	if err = s.approveVehicleHandler.Handle(ctx.Request().Context(), cmd); err != nil {
		return writeError(ctx, err)
	}

	return ctx.NoContent(http.StatusNoContent)
}

func bindPathParam(ctx echo.Context, name string, dest any) error {
	err := runtime.BindStyledParameterWithOptions("simple", name, ctx.Param(name), dest,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return nil
}

func uuidPathParam(ctx echo.Context, name string) (kernel.UUID, error) {
	var raw string
	if err := bindPathParam(ctx, name, &raw); err != nil {
		return kernel.UUID{}, err
	}
	id, err := kernel.UUIDFromString(raw)
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return id, nil
}
