package commands_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"superservice/internal/core/application/realtime"
	"superservice/internal/core/application/usecases/commands"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/trip"
	"superservice/internal/core/domain/services"
	"superservice/internal/pkg/errs"
)

// An available courier accepts a pending order: the order moves to
// preparing with the courier and the courier's vehicle recorded, an
// integration event is queued and the room hears about it.
func TestApplyTransition_CourierAcceptsPendingOrder(t *testing.T) {
	f := newFixture(t)

	result, err := f.apply(t, "order", f.order.ID(), f.courier, "accept")
	require.NoError(t, err)

	assert.Equal(t, order.AggregateName, result.EntityType)
	assert.True(t, result.EntityID.IsEqual(f.order.ID()))
	assert.Equal(t, "pending", result.From)
	assert.Equal(t, "preparing", result.To)
	assert.True(t, result.ActorID.IsEqual(f.courier.ID()))
	assert.False(t, result.OccurredAt.IsZero())

	stored := f.storedOrder(t)
	assert.Equal(t, order.Preparing, stored.Status())
	require.NotNil(t, stored.Courier())
	assert.True(t, stored.Courier().IsEqual(f.courier.ID()))
	require.NotNil(t, stored.Vehicle())
	assert.True(t, stored.Vehicle().IsEqual(f.courierVehicle.ID()))

	events := f.unpublished(t)
	require.Len(t, events, 1)
	assert.Equal(t, "order.status.accept", events[0].RoutingKey())
	assert.Equal(t, "pending", events[0].FromStatus())
	assert.Equal(t, "preparing", events[0].ToStatus())

	calls := f.publisher.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].room.IsEqual(result.Room))
	assert.Equal(t, "order accepted", calls[0].frame["message"])
	assert.Equal(t, realtime.SystemUsername, calls[0].frame["username"])
	assert.Equal(t, "system", calls[0].frame["type"])
	assert.Equal(t, "accept", calls[0].frame["event"])
	assert.Equal(t, "preparing", calls[0].frame["status"])
}

func TestApplyTransition_CourierWithoutVehicleStillAcceptsOrder(t *testing.T) {
	f := newFixture(t)
	walker := f.addParticipant(t, "walker", participant.Courier, true)

	_, err := f.apply(t, "order", f.order.ID(), walker, "accept")
	require.NoError(t, err)

	stored := f.storedOrder(t)
	assert.True(t, stored.Courier().IsEqual(walker.ID()))
	assert.Nil(t, stored.Vehicle())
}

// A customer trying to accept their own order is refused before the
// status is even looked at; nothing changes anywhere.
func TestApplyTransition_CustomerCannotAccept(t *testing.T) {
	f := newFixture(t)

	_, err := f.apply(t, "order", f.order.ID(), f.customer, "accept")
	require.ErrorIs(t, err, errs.ErrForbidden)

	stored := f.storedOrder(t)
	assert.Equal(t, order.Pending, stored.Status())
	assert.Nil(t, stored.Courier())
	assert.Empty(t, f.unpublished(t))
	assert.Empty(t, f.publisher.Calls())
}

func TestApplyTransition_Failures(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture) (entity string, id kernel.UUID, actor *participant.Participant, event string)
		wantErr error
	}{
		{
			name: "unavailable courier",
			prepare: func(_ *testing.T, f *fixture) (string, kernel.UUID, *participant.Participant, string) {
				return "order", f.order.ID(), f.idleCourier, "accept"
			},
			wantErr: errs.ErrForbidden,
		},
		{
			name: "unknown order",
			prepare: func(_ *testing.T, f *fixture) (string, kernel.UUID, *participant.Participant, string) {
				return "order", kernel.NewUUID(), f.courier, "accept"
			},
			wantErr: errs.ErrObjectNotFound,
		},
		{
			name: "unknown actor",
			prepare: func(t *testing.T, f *fixture) (string, kernel.UUID, *participant.Participant, string) {
				ghost, err := participant.NewParticipant(kernel.NewUUID(), "ghost", participant.Courier, true)
				require.NoError(t, err)
				return "order", f.order.ID(), ghost, "accept"
			},
			wantErr: errs.ErrUnauthenticated,
		},
		{
			name: "wrong source status",
			prepare: func(_ *testing.T, f *fixture) (string, kernel.UUID, *participant.Participant, string) {
				return "order", f.order.ID(), f.admin, "mark_ready"
			},
			wantErr: errs.ErrStateConflict,
		},
		{
			name: "merchant of another order",
			prepare: func(t *testing.T, f *fixture) (string, kernel.UUID, *participant.Participant, string) {
				other := f.addParticipant(t, "panaderia", participant.Merchant, false)
				return "order", f.order.ID(), other, "mark_ready"
			},
			wantErr: errs.ErrForbidden,
		},
		{
			name: "trip driver without approved vehicle",
			prepare: func(_ *testing.T, f *fixture) (string, kernel.UUID, *participant.Participant, string) {
				return "trip", f.trip.ID(), f.newDriver, "accept"
			},
			wantErr: errs.ErrForbidden,
		},
		{
			name: "courier accepting a trip",
			prepare: func(_ *testing.T, f *fixture) (string, kernel.UUID, *participant.Participant, string) {
				return "trip", f.trip.ID(), f.courier, "accept"
			},
			wantErr: errs.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			entity, id, actor, event := tt.prepare(t, f)

			_, err := f.apply(t, entity, id, actor, event)

			require.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, f.unpublished(t))
			assert.Empty(t, f.publisher.Calls())
		})
	}
}

func TestApplyTransition_OrderLifecycle(t *testing.T) {
	f := newFixture(t)

	steps := []struct {
		actor *participant.Participant
		event string
		to    order.Status
	}{
		{f.courier, "accept", order.Preparing},
		{f.merchant, "mark_ready", order.Ready},
		{f.courier, "start_delivery", order.EnRoute},
		{f.courier, "deliver", order.Delivered},
	}
	for _, step := range steps {
		_, err := f.apply(t, "order", f.order.ID(), step.actor, step.event)
		require.NoError(t, err, step.event)
		assert.Equal(t, step.to, f.storedOrder(t).Status(), step.event)
	}

	stored := f.storedOrder(t)
	assert.NotNil(t, stored.DeliveredAt())
	assert.Len(t, f.unpublished(t), len(steps))
	assert.Len(t, f.publisher.Calls(), len(steps))
}

func TestApplyTransition_TerminalStatusRejectsEverything(t *testing.T) {
	f := newFixture(t)
	_, err := f.apply(t, "order", f.order.ID(), f.customer, "cancel")
	require.NoError(t, err)
	require.Equal(t, order.Cancelled, f.storedOrder(t).Status())

	for _, event := range order.Events() {
		_, err = f.apply(t, "order", f.order.ID(), f.admin, string(event))
		if errors.Is(err, errs.ErrForbidden) {
			// the administrator has no rule for this event
			continue
		}
		require.ErrorIs(t, err, errs.ErrStateConflict, event)
	}
	assert.Equal(t, order.Cancelled, f.storedOrder(t).Status())
	assert.Len(t, f.unpublished(t), 1)
}

func TestApplyTransition_TripLifecycle(t *testing.T) {
	f := newFixture(t)

	result, err := f.apply(t, "trip", f.trip.ID(), f.driver, "accept")
	require.NoError(t, err)
	assert.Equal(t, "requested", result.From)
	assert.Equal(t, "accepted", result.To)

	stored := f.storedTrip(t)
	require.NotNil(t, stored.Driver())
	assert.True(t, stored.Driver().IsEqual(f.driver.ID()))
	require.NotNil(t, stored.Vehicle())
	assert.True(t, stored.Vehicle().IsEqual(f.driverVehicle.ID()))

	for _, event := range []string{"start_pickup", "start_trip", "complete"} {
		_, err = f.apply(t, "trip", f.trip.ID(), f.driver, event)
		require.NoError(t, err, event)
	}

	stored = f.storedTrip(t)
	assert.Equal(t, trip.Completed, stored.Status())
	assert.NotNil(t, stored.StartedAt())
	assert.NotNil(t, stored.FinalizedAt())
	require.NotNil(t, stored.FinalFare())
	assert.Equal(t, int64(850), *stored.FinalFare())

	calls := f.publisher.Calls()
	require.Len(t, calls, 4)
	assert.Equal(t, "trip completed", calls[3].frame["message"])
}

func TestApplyTransition_OnlyAssignedDriverDrivesTheTrip(t *testing.T) {
	f := newFixture(t)
	_, err := f.apply(t, "trip", f.trip.ID(), f.driver, "accept")
	require.NoError(t, err)

	f.addVehicle(t, f.newDriver, "car", "NEW001", true)
	_, err = f.apply(t, "trip", f.trip.ID(), f.newDriver, "start_pickup")
	require.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.apply(t, "trip", f.trip.ID(), f.newDriver, "accept")
	require.ErrorIs(t, err, errs.ErrStateConflict)
}

// Many available couriers race for the same order: exactly one wins, all
// others see a conflict, and only one event is queued.
func TestApplyTransition_ConcurrentAcceptHasOneWinner(t *testing.T) {
	f := newFixture(t)

	const racers = 8
	couriers := make([]*participant.Participant, racers)
	for i := range couriers {
		couriers[i] = f.addParticipant(t, "racer"+string(rune('a'+i)), participant.Courier, true)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []kernel.UUID
		conflicts int
	)
	for _, c := range couriers {
		wg.Add(1)
		go func(c *participant.Participant) {
			defer wg.Done()
			cmd, err := commands.NewApplyTransitionCommand("order", f.order.ID(), c.ID(), "accept")
			if err != nil {
				return
			}
			_, err = f.handler.Handle(t.Context(), cmd)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				winners = append(winners, c.ID())
			case errors.Is(err, errs.ErrStateConflict):
				conflicts++
			}
		}(c)
	}
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, racers-1, conflicts)

	stored := f.storedOrder(t)
	require.NotNil(t, stored.Courier())
	assert.True(t, stored.Courier().IsEqual(winners[0]))
	assert.Len(t, f.unpublished(t), 1)
	assert.Len(t, f.publisher.Calls(), 1)
}

func TestApplyTransition_CommitFailureIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	handler := commands.NewApplyTransitionCommandHandler(
		commitOverride{UnitOfWorkFactory: f.factory, err: errors.New("connection reset")},
		services.NewAuthorizer(), f.publisher, realtime.NewFrameFactory(nil), discardLogger())

	cmd, err := commands.NewApplyTransitionCommand("order", f.order.ID(), f.courier.ID(), "accept")
	require.NoError(t, err)

	_, err = handler.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrPersistence)
	assert.Equal(t, order.Pending, f.storedOrder(t).Status())
	assert.Empty(t, f.publisher.Calls())
}

func TestApplyTransition_CommitConflictStaysConflict(t *testing.T) {
	f := newFixture(t)
	conflict := errs.NewStateConflictError(order.AggregateName, "update", "preparing", "status changed concurrently")
	handler := commands.NewApplyTransitionCommandHandler(
		commitOverride{UnitOfWorkFactory: f.factory, err: conflict},
		services.NewAuthorizer(), f.publisher, realtime.NewFrameFactory(nil), discardLogger())

	cmd, err := commands.NewApplyTransitionCommand("order", f.order.ID(), f.courier.ID(), "accept")
	require.NoError(t, err)

	_, err = handler.Handle(t.Context(), cmd)

	require.ErrorIs(t, err, errs.ErrStateConflict)
	assert.NotErrorIs(t, err, errs.ErrPersistence)
}

func TestApplyTransition_BeginError(t *testing.T) {
	ctx := t.Context()
	uow := new(MockUoW)
	factory := new(MockUoWFactory)

	mock.InOrder(
		factory.On("Create").Return(uow).Once(),
		uow.On("Begin", mock.Anything).Return(errors.New("begin error")).Once(),
	)

	handler := commands.NewApplyTransitionCommandHandler(
		factory, services.NewAuthorizer(), &recordingPublisher{}, realtime.NewFrameFactory(nil), discardLogger())
	cmd, err := commands.NewApplyTransitionCommand("order", kernel.NewUUID(), kernel.NewUUID(), "accept")
	require.NoError(t, err)

	_, err = handler.Handle(ctx, cmd)

	require.ErrorIs(t, err, errs.ErrPersistence)
	factory.AssertExpectations(t)
	uow.AssertExpectations(t)
}

func TestApplyTransition_NotConstructed(t *testing.T) {
	factory := new(MockUoWFactory)
	handler := commands.NewApplyTransitionCommandHandler(
		factory, services.NewAuthorizer(), &recordingPublisher{}, realtime.NewFrameFactory(nil), discardLogger())

	_, err := handler.Handle(t.Context(), commands.ApplyTransitionCommand{})

	require.ErrorIs(t, err, commands.ErrApplyTransitionCommandIsNotConstructed)
	factory.AssertNotCalled(t, "Create")
}
