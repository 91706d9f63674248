package http_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "superservice/internal/adapters/in/http"
	"superservice/internal/adapters/out/memory"
	"superservice/internal/core/application/realtime"
	"superservice/internal/core/application/usecases/commands"
	"superservice/internal/core/application/usecases/queries"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/domain/model/order"
	"superservice/internal/core/domain/model/participant"
	"superservice/internal/core/domain/model/vehicle"
	"superservice/internal/core/domain/services"
)

const (
	testSecret = "test-secret"
	testIssuer = "superservice"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// api runs the whole HTTP adapter over the in-memory store.
type api struct {
	server   *httptest.Server
	store    *memory.Store
	factory  *memory.UnitOfWorkFactory
	registry *realtime.Registry
	verifier *httpadapter.TokenVerifier

	customer *participant.Participant
	courier  *participant.Participant
	stranger *participant.Participant
	driver   *participant.Participant
	admin    *participant.Participant

	pendingVehicle *vehicle.Vehicle
	order          *order.Order
}

func newAPI(t *testing.T) *api {
	t.Helper()
	a := &api{store: memory.NewStore()}
	a.factory = memory.NewUnitOfWorkFactory(a.store)
	a.registry = realtime.NewRegistry(discardLogger())
	a.verifier = httpadapter.NewTokenVerifier(testSecret, testIssuer)

	authz := services.NewAuthorizer()
	frames := realtime.NewFrameFactory(time.UTC)
	resolver := realtime.NewRoomResolver(a.factory)

	server := httpadapter.NewServer(
		commands.NewApplyTransitionCommandHandler(a.factory, authz, a.registry, frames, discardLogger()),
		commands.NewSetAvailabilityCommandHandler(a.factory, discardLogger()),
		commands.NewApproveVehicleCommandHandler(a.factory, discardLogger()),
		queries.NewGetRoomHistoryQueryHandler(a.factory, resolver, authz, frames, 50),
		queries.NewRoomListConversationsQueryHandler(a.store, a.factory),
	)
	rt := httpadapter.NewRealtimeHandler(
		realtime.NewGateway(a.factory, resolver, authz, a.registry, discardLogger()),
		realtime.NewPipeline(a.factory, resolver, authz, a.registry, frames, discardLogger()),
		a.verifier,
		8,
		discardLogger(),
	)

	e, err := httpadapter.NewRouter(t.Context(), server, rt, a.verifier, discardLogger())
	require.NoError(t, err)
	a.server = httptest.NewServer(e)
	t.Cleanup(a.server.Close)

	a.customer = a.addParticipant(t, "carla", participant.Customer, false)
	a.courier = a.addParticipant(t, "diego", participant.Courier, true)
	a.stranger = a.addParticipant(t, "ursula", participant.Customer, false)
	a.driver = a.addParticipant(t, "luis", participant.Driver, false)
	a.admin = a.addParticipant(t, "root", participant.Administrator, false)

	v, err := vehicle.NewVehicle(kernel.NewUUID(), a.driver.ID(), vehicle.Car, "Aveo", "XYZ987")
	require.NoError(t, err)
	require.NoError(t, a.factory.Create().VehicleRepository().Add(t.Context(), v))
	a.pendingVehicle = v

	o, err := order.NewOrder(kernel.NewUUID(), a.customer.ID(), kernel.NewUUID(), 1200, 300, "Av. Bolivar 12", time.Now())
	require.NoError(t, err)
	require.NoError(t, a.factory.Create().OrderRepository().Add(t.Context(), o))
	a.order = o

	return a
}

func (a *api) addParticipant(t *testing.T, name string, role participant.Role, available bool) *participant.Participant {
	t.Helper()
	p, err := participant.NewParticipant(kernel.NewUUID(), name, role, available)
	require.NoError(t, err)
	require.NoError(t, a.factory.Create().ParticipantRepository().Add(t.Context(), p))
	return p
}

func (a *api) token(t *testing.T, p *participant.Participant) string {
	t.Helper()
	token, err := a.verifier.Issue(p.ID(), string(p.Role()), time.Hour)
	require.NoError(t, err)
	return token
}

func (a *api) do(t *testing.T, method, path string, as *participant.Participant, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, a.server.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if as != nil {
		req.Header.Set("Authorization", "Bearer "+a.token(t, as))
	}

	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decodeError(t *testing.T, raw []byte) httpadapter.Error {
	t.Helper()
	var e httpadapter.Error
	require.NoError(t, json.Unmarshal(raw, &e), string(raw))
	return e
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(t, http.MethodGet, "/health", nil, "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Healthy", string(body))
}

func TestSwaggerServesOpenAPIDocument(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(t, http.MethodGet, "/swagger/doc.json", nil, "")

	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"openapi"`)
	assert.Contains(t, string(body), "/api/v1/orders/{id}/{event}")
}

func TestApplyOrderTransition_CourierAccepts(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(t, http.MethodPost, "/api/v1/orders/"+a.order.ID().String()+"/accept", a.courier, "")

	require.Equal(t, http.StatusOK, code, string(body))
	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "order", got["entity"])
	assert.Equal(t, "accept", got["event"])
	assert.Equal(t, "pending", got["from"])
	assert.Equal(t, "preparing", got["to"])
	assert.Equal(t, a.courier.ID().String(), got["actor_id"])
	assert.Equal(t, "order:"+a.order.ID().String(), got["room"])
}

func TestApplyOrderTransition_ErrorMapping(t *testing.T) {
	a := newAPI(t)
	orderPath := "/api/v1/orders/" + a.order.ID().String()

	tests := []struct {
		name     string
		path     string
		as       *participant.Participant
		wantCode int
		wantKind string
	}{
		{"missing token", orderPath + "/accept", nil, http.StatusUnauthorized, "unauthenticated"},
		{"customer cannot accept", orderPath + "/accept", a.customer, http.StatusForbidden, "forbidden"},
		{"unknown order", "/api/v1/orders/" + kernel.NewUUID().String() + "/accept", a.courier, http.StatusNotFound, "not_found"},
		{"unknown event", orderPath + "/fly", a.courier, http.StatusBadRequest, "validation"},
		{"malformed id", "/api/v1/orders/not-a-uuid/accept", a.courier, http.StatusBadRequest, "validation"},
		{"trip event on order", orderPath + "/start_trip", a.courier, http.StatusBadRequest, "validation"},
		{"ready before accept", orderPath + "/mark_ready", a.admin, http.StatusConflict, "state_conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := a.do(t, http.MethodPost, tt.path, tt.as, "")

			assert.Equal(t, tt.wantCode, code, string(body))
			e := decodeError(t, body)
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantKind, e.Kind)
		})
	}
}

func TestApplyOrderTransition_InvalidTokenIsUnauthenticated(t *testing.T) {
	a := newAPI(t)
	forged, err := httpadapter.NewTokenVerifier("other-secret", testIssuer).Issue(a.courier.ID(), "courier", time.Hour)
	require.NoError(t, err)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost,
		a.server.URL+"/api/v1/orders/"+a.order.ID().String()+"/accept", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+forged)
	resp, err := a.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestGetRoomHistory(t *testing.T) {
	a := newAPI(t)
	room, err := message.NewOrderRoomKey(a.order.ID())
	require.NoError(t, err)
	msg, err := message.NewMessage(kernel.NewUUID(), room, a.customer.ID(), "hola", time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NoError(t, a.factory.Create().MessageRepository().Add(t.Context(), msg))

	path := "/api/v1/rooms/order/" + a.order.ID().String() + "/messages?limit=10"

	t.Run("party reads the room", func(t *testing.T) {
		code, body := a.do(t, http.MethodGet, path, a.customer, "")

		require.Equal(t, http.StatusOK, code, string(body))
		var got struct {
			Room     string `json:"room"`
			Messages []struct {
				Username  string `json:"username"`
				Message   string `json:"message"`
				IsMe      bool   `json:"is_me"`
				Timestamp string `json:"timestamp"`
			} `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, room.String(), got.Room)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "carla", got.Messages[0].Username)
		assert.Equal(t, "hola", got.Messages[0].Message)
		assert.True(t, got.Messages[0].IsMe)
		assert.Equal(t, "18:30", got.Messages[0].Timestamp)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		code, body := a.do(t, http.MethodGet, path, a.stranger, "")

		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, "forbidden", decodeError(t, body).Kind)
	})

	t.Run("limit out of range", func(t *testing.T) {
		code, _ := a.do(t, http.MethodGet, "/api/v1/rooms/order/"+a.order.ID().String()+"/messages?limit=501", a.customer, "")

		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("unknown room kind", func(t *testing.T) {
		code, _ := a.do(t, http.MethodGet, "/api/v1/rooms/party/"+a.order.ID().String()+"/messages", a.customer, "")

		assert.Equal(t, http.StatusBadRequest, code)
	})
}

func TestListConversations(t *testing.T) {
	a := newAPI(t)
	room, err := message.NewDirectRoomKey(a.customer.ID(), a.courier.ID())
	require.NoError(t, err)
	msg, err := message.NewMessage(kernel.NewUUID(), room, a.courier.ID(), "voy llegando", time.Now())
	require.NoError(t, err)
	require.NoError(t, a.factory.Create().MessageRepository().Add(t.Context(), msg))

	code, body := a.do(t, http.MethodGet, "/api/v1/conversations", a.customer, "")

	require.Equal(t, http.StatusOK, code, string(body))
	var got []struct {
		PeerID       string `json:"peer_id"`
		PeerUsername string `json:"peer_username"`
		LastMessage  struct {
			Message string `json:"message"`
			IsMe    bool   `json:"is_me"`
		} `json:"last_message"`
	}
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, 1)
	assert.Equal(t, a.courier.ID().String(), got[0].PeerID)
	assert.Equal(t, "diego", got[0].PeerUsername)
	assert.Equal(t, "voy llegando", got[0].LastMessage.Message)
	assert.False(t, got[0].LastMessage.IsMe)
}

func TestSetAvailability(t *testing.T) {
	a := newAPI(t)
	const path = "/api/v1/participants/me/availability"

	code, body := a.do(t, http.MethodPost, path, a.courier, `{"available": false}`)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.JSONEq(t, `{"participant_id":"`+a.courier.ID().String()+`","available":false}`, string(body))

	stored, err := a.factory.Create().ParticipantRepository().Get(t.Context(), a.courier.ID())
	require.NoError(t, err)
	assert.False(t, stored.IsAvailable())

	code, _ = a.do(t, http.MethodPost, path, a.courier, `{}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = a.do(t, http.MethodPost, path, a.customer, `{"available": true}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "validation", decodeError(t, body).Kind)
}

func TestApproveVehicle(t *testing.T) {
	a := newAPI(t)
	path := "/api/v1/vehicles/" + a.pendingVehicle.ID().String() + "/approve"

	code, _ := a.do(t, http.MethodPost, path, a.driver, "")
	assert.Equal(t, http.StatusForbidden, code)

	code, body := a.do(t, http.MethodPost, path, a.admin, "")
	require.Equal(t, http.StatusNoContent, code, string(body))

	v, err := a.factory.Create().VehicleRepository().Get(t.Context(), a.pendingVehicle.ID())
	require.NoError(t, err)
	assert.True(t, v.IsApproved())

	code, _ = a.do(t, http.MethodPost, "/api/v1/vehicles/"+kernel.NewUUID().String()+"/approve", a.admin, "")
	assert.Equal(t, http.StatusNotFound, code)
}
