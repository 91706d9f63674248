package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/outbox"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/pkg/errs"
)

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), 1000, 200, "Calle 1", time.Now())
	require.NoError(t, err)
	return o
}

func TestParticipantRepository_AddGetUpdate(t *testing.T) {
	uow := NewUnitOfWorkFactory(NewStore()).Create()
	repo := uow.ParticipantRepository()

	p, err := participant.NewParticipant(kernel.NewUUID(), "rider", participant.Courier, false)
	require.NoError(t, err)
	require.NoError(t, repo.Add(t.Context(), p))

	err = repo.Add(t.Context(), p)
	assert.ErrorIs(t, err, errs.ErrValueIsInvalid)

	require.NoError(t, p.SetAvailability(true))
	// the store holds a copy until Update is called
	got, err := repo.Get(t.Context(), p.ID())
	require.NoError(t, err)
	assert.False(t, got.IsAvailable())

	require.NoError(t, repo.Update(t.Context(), p))
	got, err = repo.Get(t.Context(), p.ID())
	require.NoError(t, err)
	assert.True(t, got.IsAvailable())

	_, err = repo.Get(t.Context(), kernel.NewUUID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)
}

func TestUnitOfWork_CommitAndRollback(t *testing.T) {
	store := NewStore()
	factory := NewUnitOfWorkFactory(store)
	o := newPendingOrder(t)

	uow := factory.Create()
	require.NoError(t, uow.Begin(t.Context()))
	require.NoError(t, uow.OrderRepository().Add(t.Context(), o))
	require.NoError(t, uow.Rollback(t.Context()))

	_, err := factory.Create().OrderRepository().Get(t.Context(), o.ID())
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	uow = factory.Create()
	require.NoError(t, uow.Begin(t.Context()))
	require.NoError(t, uow.OrderRepository().Add(t.Context(), o))
	require.NoError(t, uow.Commit(t.Context()))

	got, err := factory.Create().OrderRepository().Get(t.Context(), o.ID())
	require.NoError(t, err)
	assert.True(t, got.IsEqual(o))

	assert.ErrorIs(t, uow.Commit(t.Context()), ErrNoTransaction)
	assert.ErrorIs(t, uow.Rollback(t.Context()), ErrNoTransaction)
}

func TestOrderRepository_UpdateIfStatus(t *testing.T) {
	factory := NewUnitOfWorkFactory(NewStore())
	repo := factory.Create().OrderRepository()
	o := newPendingOrder(t)
	require.NoError(t, repo.Add(t.Context(), o))

	courier := kernel.NewUUID()
	_, err := o.Apply(order.Accept, courier, nil, time.Now())
	require.NoError(t, err)

	err = repo.UpdateIfStatus(t.Context(), o, []order.Status{order.Preparing})
	assert.ErrorIs(t, err, errs.ErrStateConflict)

	require.NoError(t, repo.UpdateIfStatus(t.Context(), o, order.SourceStatuses(order.Accept)))
	got, err := repo.Get(t.Context(), o.ID())
	require.NoError(t, err)
	assert.Equal(t, order.Preparing, got.Status())
	require.NotNil(t, got.Courier())
	assert.True(t, got.Courier().IsEqual(courier))
}

func TestOrderRepository_ConcurrentAcceptOnlyOneCommits(t *testing.T) {
	factory := NewUnitOfWorkFactory(NewStore())
	o := newPendingOrder(t)
	require.NoError(t, factory.Create().OrderRepository().Add(t.Context(), o))

	first, second := factory.Create(), factory.Create()
	require.NoError(t, first.Begin(t.Context()))
	require.NoError(t, second.Begin(t.Context()))

	a, err := first.OrderRepository().Get(t.Context(), o.ID())
	require.NoError(t, err)
	b, err := second.OrderRepository().Get(t.Context(), o.ID())
	require.NoError(t, err)

	_, err = a.Apply(order.Accept, kernel.NewUUID(), nil, time.Now())
	require.NoError(t, err)
	_, err = b.Apply(order.Accept, kernel.NewUUID(), nil, time.Now())
	require.NoError(t, err)

	from := order.SourceStatuses(order.Accept)
	require.NoError(t, first.OrderRepository().UpdateIfStatus(t.Context(), a, from))
	require.NoError(t, second.OrderRepository().UpdateIfStatus(t.Context(), b, from))

	require.NoError(t, first.Commit(t.Context()))
	err = second.Commit(t.Context())
	assert.ErrorIs(t, err, errs.ErrStateConflict)

	got, err := factory.Create().OrderRepository().Get(t.Context(), o.ID())
	require.NoError(t, err)
	assert.True(t, got.Courier().IsEqual(*a.Courier()))
}

func TestVehicleRepository_FindApprovedByDriver(t *testing.T) {
	repo := NewUnitOfWorkFactory(NewStore()).Create().VehicleRepository()
	driver := kernel.NewUUID()

	v, err := vehicle.NewVehicle(kernel.NewUUID(), driver, vehicle.Car, "Corolla", "ab123cd")
	require.NoError(t, err)
	require.NoError(t, repo.Add(t.Context(), v))

	_, err = repo.FindApprovedByDriver(t.Context(), driver)
	assert.ErrorIs(t, err, errs.ErrObjectNotFound)

	require.NoError(t, v.Approve())
	require.NoError(t, repo.Update(t.Context(), v))

	got, err := repo.FindApprovedByDriver(t.Context(), driver)
	require.NoError(t, err)
	assert.True(t, got.ID().IsEqual(v.ID()))
	assert.Equal(t, "AB123CD", got.Plate())
}

func TestMessageRepository_ListByRoom(t *testing.T) {
	store := NewStore()
	repo := NewUnitOfWorkFactory(store).Create().MessageRepository()
	room, err := message.NewOrderRoomKey(kernel.NewUUID())
	require.NoError(t, err)
	other, err := message.NewOrderRoomKey(kernel.NewUUID())
	require.NoError(t, err)

	sender := kernel.NewUUID()
	base := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	// inserted out of order on purpose
	for _, offset := range []int{2, 0, 1} {
		m, err := message.NewMessage(kernel.NewUUID(), room, sender, "m"+string(rune('0'+offset)),
			base.Add(time.Duration(offset)*time.Minute))
		require.NoError(t, err)
		require.NoError(t, repo.Add(t.Context(), m))
	}
	m, err := message.NewMessage(kernel.NewUUID(), other, sender, "elsewhere", base)
	require.NoError(t, err)
	require.NoError(t, repo.Add(t.Context(), m))

	all, err := repo.ListByRoom(t.Context(), room, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "m0", all[0].Body())
	assert.Equal(t, "m2", all[2].Body())

	latest, err := repo.ListByRoom(t.Context(), room, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "m1", latest[0].Body())
	assert.Equal(t, "m2", latest[1].Body())

	_, err = repo.ListByRoom(t.Context(), room, 0)
	assert.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	assert.Equal(t, 3, store.MessageCount(room))
}

func TestStore_ListDirectRooms(t *testing.T) {
	store := NewStore()
	repo := NewUnitOfWorkFactory(store).Create().MessageRepository()
	me, friend, stranger := kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID()

	withFriend, err := message.NewDirectRoomKey(me, friend)
	require.NoError(t, err)
	withStranger, err := message.NewDirectRoomKey(stranger, me)
	require.NoError(t, err)
	notMine, err := message.NewDirectRoomKey(friend, stranger)
	require.NoError(t, err)

	base := time.Now()
	add := func(room message.RoomKey, body string, at time.Time) {
		m, err := message.NewMessage(kernel.NewUUID(), room, me, body, at)
		require.NoError(t, err)
		require.NoError(t, repo.Add(t.Context(), m))
	}
	add(withFriend, "hi", base)
	add(withStranger, "hello", base.Add(time.Minute))
	add(withFriend, "again", base.Add(2*time.Minute))
	add(notMine, "x", base.Add(3*time.Minute))

	last := store.ListDirectRooms(me)
	require.Len(t, last, 2)
	assert.Equal(t, "again", last[0].Body())
	assert.Equal(t, "hello", last[1].Body())
}

func TestOutboxRepository_RelayCycle(t *testing.T) {
	store := NewStore()
	repo := NewUnitOfWorkFactory(store).Create().OutboxRepository()

	var ids []kernel.UUID
	for i := 0; i < 3; i++ {
		e, err := outbox.NewEvent(kernel.NewUUID(), order.AggregateName, kernel.NewUUID(),
			string(order.Accept), "pending", "preparing", kernel.NewUUID(), time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Add(t.Context(), e))
		ids = append(ids, e.ID())
	}

	batch, err := repo.ListUnpublished(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.True(t, batch[0].ID().IsEqual(ids[0]))

	require.NoError(t, repo.MarkPublished(t.Context(), []kernel.UUID{ids[0], ids[1]}, time.Now()))

	rest, err := repo.ListUnpublished(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.True(t, rest[0].ID().IsEqual(ids[2]))
	assert.Equal(t, 3, store.OutboxLen())
}
