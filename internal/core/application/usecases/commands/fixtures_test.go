package commands_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"superservice/internal/adapters/out/memory"
	"superservice/internal/core/application/realtime"
	"superservice/internal/core/application/usecases/commands"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/core/domain/services"
	"superservice/internal/core/ports"
)

var fixedNow = time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type announcement struct {
	room  message.RoomKey
	frame map[string]any
}

// recordingPublisher keeps every frame published to a room, rendered for
// an outsider.
type recordingPublisher struct {
	mu    sync.Mutex
	calls []announcement
}

func (p *recordingPublisher) Publish(_ context.Context, room message.RoomKey, payload ports.Payload) {
	raw, err := payload.RenderFor(kernel.NewUUID())
	if err != nil {
		panic(err)
	}
	var frame map[string]any
	if err = json.Unmarshal(raw, &frame); err != nil {
		panic(err)
	}
	p.mu.Lock()
	p.calls = append(p.calls, announcement{room: room, frame: frame})
	p.mu.Unlock()
}

func (p *recordingPublisher) Calls() []announcement {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]announcement(nil), p.calls...)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *outbox.Event) error {
	return m.Called(ctx, event).Error(0)
}

// commitOverride makes every unit of work fail its commit with err after
// discarding the buffered writes.
type commitOverride struct {
	ports.UnitOfWorkFactory
	err error
}

func (f commitOverride) Create() ports.UnitOfWork {
	return failingCommitUoW{UnitOfWork: f.UnitOfWorkFactory.Create(), err: f.err}
}

type failingCommitUoW struct {
	ports.UnitOfWork
	err error
}

func (u failingCommitUoW) Commit(ctx context.Context) error {
	_ = u.UnitOfWork.Rollback(ctx)
	return u.err
}

type MockUoW struct {
	mock.Mock
	ports.UnitOfWork
}

func (m *MockUoW) Begin(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockUoW) Rollback(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockUoWFactory struct {
	mock.Mock
}

func (m *MockUoWFactory) Create() ports.UnitOfWork {
	args := m.Called()
	return args.Get(0).(ports.UnitOfWork)
}

// fixture is a marketplace with one pending order, one requested trip and
// the people around them. The courier and the first driver are available
// and own approved vehicles.
type fixture struct {
	store     *memory.Store
	factory   *memory.UnitOfWorkFactory
	publisher *recordingPublisher
	handler   *commands.ApplyTransitionCommandHandler

	customer    *participant.Participant
	merchant    *participant.Participant
	courier     *participant.Participant
	idleCourier *participant.Participant
	driver      *participant.Participant
	newDriver   *participant.Participant
	admin       *participant.Participant

	courierVehicle *vehicle.Vehicle
	driverVehicle  *vehicle.Vehicle

	order *order.Order
	trip  *trip.Trip
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:     memory.NewStore(),
		publisher: &recordingPublisher{},
	}
	f.factory = memory.NewUnitOfWorkFactory(f.store)
	f.handler = commands.NewApplyTransitionCommandHandler(
		f.factory, services.NewAuthorizer(), f.publisher, realtime.NewFrameFactory(time.UTC), discardLogger())

	f.customer = f.addParticipant(t, "carla", participant.Customer, false)
	f.merchant = f.addParticipant(t, "arepera", participant.Merchant, false)
	f.courier = f.addParticipant(t, "diego", participant.Courier, true)
	f.idleCourier = f.addParticipant(t, "pedro", participant.Courier, false)
	f.driver = f.addParticipant(t, "luis", participant.Driver, true)
	f.newDriver = f.addParticipant(t, "ana", participant.Driver, true)
	f.admin = f.addParticipant(t, "root", participant.Administrator, false)

	f.courierVehicle = f.addVehicle(t, f.courier, vehicle.Motorcycle, "AB12CD", true)
	f.driverVehicle = f.addVehicle(t, f.driver, vehicle.Car, "XYZ987", true)

	o, err := order.NewOrder(kernel.NewUUID(), f.customer.ID(), f.merchant.ID(), 1200, 300, "Av. Bolivar 12", fixedNow)
	require.NoError(t, err)
	require.NoError(t, f.factory.Create().OrderRepository().Add(t.Context(), o))
	f.order = o

	origin, err := kernel.NewGeoPoint(10.4806, -66.9036)
	require.NoError(t, err)
	destination, err := kernel.NewGeoPoint(10.5000, -66.9167)
	require.NoError(t, err)
	fare := int64(850)
	tr, err := trip.NewTrip(kernel.NewUUID(), f.customer.ID(), origin, destination, trip.Economy, &fare, fixedNow)
	require.NoError(t, err)
	require.NoError(t, f.factory.Create().TripRepository().Add(t.Context(), tr))
	f.trip = tr

	return f
}

func (f *fixture) addParticipant(t *testing.T, name string, role participant.Role, available bool) *participant.Participant {
	t.Helper()
	p, err := participant.NewParticipant(kernel.NewUUID(), name, role, available)
	require.NoError(t, err)
	require.NoError(t, f.factory.Create().ParticipantRepository().Add(t.Context(), p))
	return p
}

func (f *fixture) addVehicle(t *testing.T, owner *participant.Participant, kind vehicle.Kind, plate string, approved bool) *vehicle.Vehicle {
	t.Helper()
	v, err := vehicle.RestoreVehicle(kernel.NewUUID(), owner.ID(), kind, "model", plate, approved)
	require.NoError(t, err)
	require.NoError(t, f.factory.Create().VehicleRepository().Add(t.Context(), v))
	return v
}

func (f *fixture) apply(t *testing.T, entity string, id kernel.UUID, actor *participant.Participant, event string) (commands.TransitionResult, error) {
	t.Helper()
	cmd, err := commands.NewApplyTransitionCommand(entity, id, actor.ID(), event)
	require.NoError(t, err)
	return f.handler.Handle(t.Context(), cmd)
}

func (f *fixture) storedOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := f.factory.Create().OrderRepository().Get(t.Context(), f.order.ID())
	require.NoError(t, err)
	return o
}

func (f *fixture) storedTrip(t *testing.T) *trip.Trip {
	t.Helper()
	tr, err := f.factory.Create().TripRepository().Get(t.Context(), f.trip.ID())
	require.NoError(t, err)
	return tr
}

func (f *fixture) unpublished(t *testing.T) []*outbox.Event {
	t.Helper()
	events, err := f.factory.Create().OutboxRepository().ListUnpublished(t.Context(), 100)
	require.NoError(t, err)
	return events
}
