package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/services"
	"superservice/internal/core/ports"
	"superservice/internal/pkg/errs"
)

const tracerName = "superservice/realtime"

// Pipeline turns inbound chat frames into stored and broadcast messages.
type Pipeline struct {
	uowFactory ports.UnitOfWorkFactory
	resolver   *RoomResolver
	authorizer *services.Authorizer
	publisher  ports.RoomPublisher
	frames     *FrameFactory
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

func NewPipeline(
	uowFactory ports.UnitOfWorkFactory,
	resolver *RoomResolver,
	authorizer *services.Authorizer,
	publisher ports.RoomPublisher,
	frames *FrameFactory,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		uowFactory: uowFactory,
		resolver:   resolver,
		authorizer: authorizer,
		publisher:  publisher,
		frames:     frames,
		logger:     logger.With("component", "message_pipeline"),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
}

// HandleFrame processes one raw frame from sender, who is joined to room.
//
// Malformed or empty frames and denied senders are dropped: the error is
// logged and returned, nobody else sees anything. If the message cannot be
// stored, sender alone receives a delivery failure notice. The message is
// published to the room only after it has been stored.
func (p *Pipeline) HandleFrame(ctx context.Context, actorID kernel.UUID, room message.RoomKey, raw []byte, sender Conn) (err error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.inbound_frame",
		trace.WithAttributes(
			attribute.String("room", room.String()),
			attribute.String("participant_id", actorID.String()),
		))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, errs.Kind(err))
		}
		span.End()
	}()

	var frame InboundFrame
	if jerr := json.Unmarshal(raw, &frame); jerr != nil || frame.Message == nil {
		err = errs.NewValueIsInvalidErrorWithCause("frame", jerr)
		p.logger.DebugContext(ctx, "frame dropped", "room", room.String(), "reason", err)
		return err
	}

	body, ok := message.NormalizeBody(*frame.Message)
	if !ok {
		err = errs.NewValueIsRequiredError("message")
		p.logger.DebugContext(ctx, "frame dropped", "room", room.String(), "reason", err)
		return err
	}

	uow := p.uowFactory.Create()

	// Fresh snapshots: an assignment may have changed since the connection
	// joined the room.
	actor, err := loadActor(ctx, uow, actorID)
	if err != nil {
		p.logger.InfoContext(ctx, "frame dropped", "room", room.String(), "reason", err)
		return err
	}
	subject, err := p.resolver.ResolveKey(ctx, room)
	if err != nil {
		p.logger.InfoContext(ctx, "frame dropped", "room", room.String(), "reason", err)
		return err
	}
	if err = p.authorizer.Authorize(actor, subject, services.SendMessage); err != nil {
		p.logger.InfoContext(ctx, "frame dropped", "room", room.String(), "participant_id", actorID.String(), "reason", err)
		return err
	}

	msg, err := message.NewMessage(kernel.NewUUID(), room, actorID, body, p.now())
	if err != nil {
		p.logger.DebugContext(ctx, "frame dropped", "room", room.String(), "reason", err)
		return err
	}

	if serr := uow.MessageRepository().Add(ctx, msg); serr != nil {
		err = serr
		if !errs.IsValidation(serr) && errs.Kind(serr) != errs.KindPersistence {
			err = errs.NewPersistenceError("store message", serr)
		}
		p.logger.ErrorContext(ctx, "message not stored", "room", room.String(), "participant_id", actorID.String(), "error", serr)
		if sender != nil {
			if nerr := sender.Send(DeliveryFailedNotice(body)); nerr != nil {
				p.logger.WarnContext(ctx, "delivery failure notice dropped", "error", nerr)
			}
		}
		return err
	}

	span.AddEvent("message.stored", trace.WithAttributes(attribute.String("message_id", msg.ID().String())))
	p.publisher.Publish(ctx, room, p.frames.Chat(msg, actor.Username()))
	return nil
}
