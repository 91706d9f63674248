package realtime

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"superservice/internal/adapters/out/memory"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/services"
)

var errConnClosed = errors.New("connection closed")

// fakeConn records frames instead of writing them to a socket.
type fakeConn struct {
	id kernel.UUID

	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func newFakeConn(id kernel.UUID) *fakeConn {
	return &fakeConn{id: id}
}

func (c *fakeConn) ParticipantID() kernel.UUID {
	return c.id
}

func (c *fakeConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	c.frames = append(c.frames, frame)
	return nil
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
}

func (c *fakeConn) Frames() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.frames...)
}

func (c *fakeConn) decoded(t *testing.T) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, f := range c.Frames() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixture wires the core against the in-memory store: one order with a
// customer and an assigned courier, plus a stranger and an administrator.
type fixture struct {
	store    *memory.Store
	factory  *memory.UnitOfWorkFactory
	registry *Registry
	resolver *RoomResolver
	gateway  *Gateway
	pipeline *Pipeline

	customer *participant.Participant
	courier  *participant.Participant
	stranger *participant.Participant
	admin    *participant.Participant
	order    *order.Order
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{store: memory.NewStore()}
	f.factory = memory.NewUnitOfWorkFactory(f.store)
	f.registry = NewRegistry(discardLogger())
	f.resolver = NewRoomResolver(f.factory)
	authz := services.NewAuthorizer()
	f.gateway = NewGateway(f.factory, f.resolver, authz, f.registry, discardLogger())
	f.pipeline = NewPipeline(f.factory, f.resolver, authz, f.registry, NewFrameFactory(time.UTC), discardLogger())

	f.customer = f.addParticipant(t, "carla", participant.Customer, false)
	f.courier = f.addParticipant(t, "diego", participant.Courier, true)
	f.stranger = f.addParticipant(t, "ursula", participant.Customer, false)
	f.admin = f.addParticipant(t, "root", participant.Administrator, false)

	o, err := order.NewOrder(kernel.NewUUID(), f.customer.ID(), kernel.NewUUID(), 1200, 300, "Av. Bolivar", time.Now())
	require.NoError(t, err)
	_, err = o.Apply(order.Accept, f.courier.ID(), nil, time.Now())
	require.NoError(t, err)
	require.NoError(t, f.factory.Create().OrderRepository().Add(t.Context(), o))
	f.order = o

	return f
}

func (f *fixture) addParticipant(t *testing.T, name string, role participant.Role, available bool) *participant.Participant {
	t.Helper()
	p, err := participant.NewParticipant(kernel.NewUUID(), name, role, available)
	require.NoError(t, err)
	require.NoError(t, f.factory.Create().ParticipantRepository().Add(t.Context(), p))
	return p
}

func (f *fixture) orderRef() RoomRef {
	return RoomRef{Kind: "order", ID: f.order.ID().String()}
}
