package realtime

import (
	"context"
	"log/slog"
	"sync"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
	"superservice/internal/core/ports"
)

// Conn is one live connection. Send must not block; implementations queue
// the frame or fail.
type Conn interface {
	ParticipantID() kernel.UUID
	Send(frame []byte) error
}

// RegistryStats is a point-in-time view of the registry.
type RegistryStats struct {
	Rooms       int
	Connections int
}

// Registry tracks which connections are currently joined to which room.
// Membership of a room is guarded by its own mutex; the room map by the
// registry mutex, always taken first.
type Registry struct {
	mu     sync.Mutex
	rooms  map[message.RoomKey]*roomMembers
	logger *slog.Logger
}

type roomMembers struct {
	mu    sync.Mutex
	conns map[Conn]struct{}
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		rooms:  make(map[message.RoomKey]*roomMembers),
		logger: logger.With("component", "room_registry"),
	}
}

// Join adds conn to the room. Joining twice is a no-op.
func (r *Registry) Join(key message.RoomKey, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[key]
	if !ok {
		room = &roomMembers{conns: make(map[Conn]struct{})}
		r.rooms[key] = room
	}

	room.mu.Lock()
	room.conns[conn] = struct{}{}
	room.mu.Unlock()
}

// Leave removes conn from the room and evicts the room once it is empty.
// Leaving a room the connection is not in is a no-op.
func (r *Registry) Leave(key message.RoomKey, conn Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[key]
	if !ok {
		return
	}

	room.mu.Lock()
	delete(room.conns, conn)
	empty := len(room.conns) == 0
	room.mu.Unlock()

	if empty {
		delete(r.rooms, key)
	}
}

// Publish renders payload for every connection joined to the room at the
// moment of the call and sends it. Failures are logged per connection and
// never stop delivery to the others.
func (r *Registry) Publish(ctx context.Context, key message.RoomKey, payload ports.Payload) {
	for _, conn := range r.snapshot(key) {
		frame, err := payload.RenderFor(conn.ParticipantID())
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to render frame",
				"room", key.String(), "participant_id", conn.ParticipantID().String(), "error", err)
			continue
		}
		if err := conn.Send(frame); err != nil {
			r.logger.WarnContext(ctx, "frame dropped",
				"room", key.String(), "participant_id", conn.ParticipantID().String(), "error", err)
		}
	}
}

// Size is the number of connections joined to the room.
func (r *Registry) Size(key message.RoomKey) int {
	return len(r.snapshot(key))
}

// Contains reports whether conn is joined to the room.
func (r *Registry) Contains(key message.RoomKey, conn Conn) bool {
	r.mu.Lock()
	room, ok := r.rooms[key]
	r.mu.Unlock()
	if !ok {
		return false
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	_, ok = room.conns[conn]
	return ok
}

func (r *Registry) Stats() RegistryStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := RegistryStats{Rooms: len(r.rooms)}
	for _, room := range r.rooms {
		room.mu.Lock()
		stats.Connections += len(room.conns)
		room.mu.Unlock()
	}
	return stats
}

func (r *Registry) snapshot(key message.RoomKey) []Conn {
	r.mu.Lock()
	room, ok := r.rooms[key]
	r.mu.Unlock()
	if !ok {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	conns := make([]Conn, 0, len(room.conns))
	for c := range room.conns {
		conns = append(conns, c)
	}
	return conns
}
