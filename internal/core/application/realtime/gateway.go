package realtime

import (
	"context"
	"log/slog"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/services"
	"superservice/internal/core/ports"
)

// Session is handed to the transport once a connection has been admitted.
type Session struct {
	Actor *participant.Participant
	Room  message.RoomKey
}

// Gateway admits connections into rooms. It never writes to storage.
type Gateway struct {
	uowFactory ports.UnitOfWorkFactory
	resolver   *RoomResolver
	authorizer *services.Authorizer
	registry   *Registry
	logger     *slog.Logger
}

func NewGateway(
	uowFactory ports.UnitOfWorkFactory,
	resolver *RoomResolver,
	authorizer *services.Authorizer,
	registry *Registry,
	logger *slog.Logger,
) *Gateway {
	return &Gateway{
		uowFactory: uowFactory,
		resolver:   resolver,
		authorizer: authorizer,
		registry:   registry,
		logger:     logger.With("component", "connection_gateway"),
	}
}

// Connect loads the actor, resolves the room, checks join_room and only
// then registers conn. Any error leaves the registry untouched; the
// transport is expected to close the connection without a reason.
func (g *Gateway) Connect(ctx context.Context, actorID kernel.UUID, ref RoomRef, conn Conn) (Session, error) {
	actor, err := loadActor(ctx, g.uowFactory.Create(), actorID)
	if err != nil {
		g.logger.InfoContext(ctx, "connection refused", "room", ref.String(), "reason", err)
		return Session{}, err
	}

	subject, err := g.resolver.Resolve(ctx, actorID, ref)
	if err != nil {
		g.logger.InfoContext(ctx, "connection refused", "room", ref.String(), "participant_id", actorID.String(), "reason", err)
		return Session{}, err
	}

	if err := g.authorizer.Authorize(actor, subject, services.JoinRoom); err != nil {
		g.logger.InfoContext(ctx, "connection refused", "room", subject.Room().String(), "participant_id", actorID.String(), "reason", err)
		return Session{}, err
	}

	g.registry.Join(subject.Room(), conn)
	g.logger.DebugContext(ctx, "connection joined", "room", subject.Room().String(), "participant_id", actorID.String())
	return Session{Actor: actor, Room: subject.Room()}, nil
}

// Disconnect removes conn from the room. It is safe to call more than once.
func (g *Gateway) Disconnect(room message.RoomKey, conn Conn) {
	g.registry.Leave(room, conn)
	g.logger.Debug("connection left", "room", room.String(), "participant_id", conn.ParticipantID().String())
}
