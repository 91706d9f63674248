package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	httpadapter "superservice/internal/adapters/in/http"
	"superservice/internal/adapters/out/eventlog"
	"superservice/internal/adapters/out/memory"
	"superservice/internal/adapters/out/postgres"
	"superservice/internal/adapters/out/rabbitmq"
	"superservice/internal/core/application/realtime"
	"superservice/internal/core/application/usecases/commands"
	"superservice/internal/core/application/usecases/queries"
	"superservice/internal/core/domain/services"
	"superservice/internal/core/ports"
	"superservice/internal/jobs"
)

type CompositionRoot struct {
	cfg    Config
	logger *slog.Logger

	// Exactly one of gormDB and store is set.
	gormDB *gorm.DB
	store  *memory.Store

	uowFactory ports.UnitOfWorkFactory
	publisher  ports.EventPublisher
	closers    []func() error

	registry   *realtime.Registry
	resolver   *realtime.RoomResolver
	authorizer *services.Authorizer
	frames     *realtime.FrameFactory
	verifier   *httpadapter.TokenVerifier
}

// NewCompositionRoot wires the persistence port to gormDB, or to an
// in-memory store when gormDB is nil, and the event publisher to RabbitMQ
// when AMQP_URL is set.
func NewCompositionRoot(cfg Config, gormDB *gorm.DB, loc *time.Location, logger *slog.Logger) (*CompositionRoot, error) {
	c := &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		gormDB:     gormDB,
		authorizer: services.NewAuthorizer(),
		frames:     realtime.NewFrameFactory(loc),
		verifier:   httpadapter.NewTokenVerifier(cfg.JWTSecret, cfg.JWTIssuer),
		registry:   realtime.NewRegistry(logger),
	}

	if gormDB != nil {
		c.uowFactory = postgres.NewGormUnitOfWorkFactory(gormDB)
	} else {
		c.store = memory.NewStore()
		c.uowFactory = memory.NewUnitOfWorkFactory(c.store)
	}
	c.resolver = realtime.NewRoomResolver(c.uowFactory)

	if cfg.AMQPURL != "" {
		p, err := rabbitmq.Dial(cfg.AMQPURL, cfg.AMQPExchange, logger)
		if err != nil {
			return nil, err
		}
		c.publisher = p
		c.closers = append(c.closers, p.Close)
	} else {
		c.publisher = eventlog.NewPublisher(logger)
	}

	return c, nil
}

func (c *CompositionRoot) CreateApplyTransitionCommandHandler() *commands.ApplyTransitionCommandHandler {
	return commands.NewApplyTransitionCommandHandler(c.uowFactory, c.authorizer, c.registry, c.frames, c.logger)
}

func (c *CompositionRoot) CreateSetAvailabilityCommandHandler() *commands.SetAvailabilityCommandHandler {
	return commands.NewSetAvailabilityCommandHandler(c.uowFactory, c.logger)
}

func (c *CompositionRoot) CreateApproveVehicleCommandHandler() *commands.ApproveVehicleCommandHandler {
	return commands.NewApproveVehicleCommandHandler(c.uowFactory, c.logger)
}

func (c *CompositionRoot) CreateRelayOutboxCommandHandler() *commands.RelayOutboxCommandHandler {
	return commands.NewRelayOutboxCommandHandler(c.uowFactory, c.publisher, c.logger)
}

func (c *CompositionRoot) CreateGetRoomHistoryQueryHandler() *queries.GetRoomHistoryQueryHandler {
	return queries.NewGetRoomHistoryQueryHandler(c.uowFactory, c.resolver, c.authorizer, c.frames, c.cfg.ChatHistoryLimit)
}

func (c *CompositionRoot) CreateListConversationsQueryHandler() httpadapter.ConversationLister {
	if c.gormDB != nil {
		return queries.NewListConversationsQueryHandler(c.gormDB)
	}
	return queries.NewRoomListConversationsQueryHandler(c.store, c.uowFactory)
}

func (c *CompositionRoot) CreateGateway() *realtime.Gateway {
	return realtime.NewGateway(c.uowFactory, c.resolver, c.authorizer, c.registry, c.logger)
}

func (c *CompositionRoot) CreatePipeline() *realtime.Pipeline {
	return realtime.NewPipeline(c.uowFactory, c.resolver, c.authorizer, c.registry, c.frames, c.logger)
}

func (c *CompositionRoot) CreateRouter(ctx context.Context) (*echo.Echo, error) {
	server := httpadapter.NewServer(
		c.CreateApplyTransitionCommandHandler(),
		c.CreateSetAvailabilityCommandHandler(),
		c.CreateApproveVehicleCommandHandler(),
		c.CreateGetRoomHistoryQueryHandler(),
		c.CreateListConversationsQueryHandler(),
	)
	rt := httpadapter.NewRealtimeHandler(c.CreateGateway(), c.CreatePipeline(), c.verifier, c.cfg.WSSendBuffer, c.logger)
	return httpadapter.NewRouter(ctx, server, rt, c.verifier, c.logger)
}

func (c *CompositionRoot) CreateJobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.CreateRelayOutboxCommandHandler(), c.cfg.OutboxBatchSize, c.registry, c.logger)
}

// Close releases the broker connection.
func (c *CompositionRoot) Close() error {
	var errs []error
	for _, closeFn := range c.closers {
		errs = append(errs, closeFn())
	}
	return errors.Join(errs...)
}
