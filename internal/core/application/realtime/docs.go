// Package realtime holds the room-scoped chat core: the Registry of active
// connections, the Gateway that admits connections into rooms, the Pipeline
// that turns inbound frames into persisted, broadcast messages, and the
// RoomResolver that builds authorization subjects from storage.
//
// Transports (websocket handlers) only see Conn, RoomRef and the Gateway
// and Pipeline entry points.
package realtime
