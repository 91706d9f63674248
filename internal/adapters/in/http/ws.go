package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"superservice/internal/core/application/realtime"
	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	defaultBacklog = 32

	// maxFrameSize is the transport cap on inbound frames. It fits a body of
	// message.MaxBodyLength runes even when every rune is sent as a \uXXXX
	// surrogate pair (12 bytes), plus the envelope. Frames under the cap that
	// fail validation are dropped; only frames over it end the session.
	maxFrameSize = 64 << 10
)

var errSendBufferFull = errors.New("send buffer full")

var errConnClosed = errors.New("connection closed")

// wsConn is one websocket client. Frames are queued on a bounded channel
// drained by writePump; a full queue drops the frame for this client only.
type wsConn struct {
	participantID kernel.UUID
	ws            *websocket.Conn
	send          chan []byte

	mu     sync.Mutex
	closed bool
}

func newWSConn(participantID kernel.UUID, ws *websocket.Conn, backlog int) *wsConn {
	return &wsConn{
		participantID: participantID,
		ws:            ws,
		send:          make(chan []byte, backlog),
	}
}

func (c *wsConn) ParticipantID() kernel.UUID {
	return c.participantID
}

// Send never blocks.
func (c *wsConn) Send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errConnClosed
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return errSendBufferFull
	}
}

// close stops writePump; queued frames are dropped.
func (c *wsConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// RealtimeHandler serves /rt/<kind>/<id>. Every connection gets a reader
// goroutine (the request goroutine) and a writer goroutine.
type RealtimeHandler struct {
	gateway  *realtime.Gateway
	pipeline *realtime.Pipeline
	verifier *TokenVerifier
	upgrader websocket.Upgrader
	backlog  int
	logger   *slog.Logger
}

func NewRealtimeHandler(
	gateway *realtime.Gateway,
	pipeline *realtime.Pipeline,
	verifier *TokenVerifier,
	backlog int,
	logger *slog.Logger,
) *RealtimeHandler {
	if backlog <= 0 {
		backlog = defaultBacklog
	}
	return &RealtimeHandler{
		gateway:  gateway,
		pipeline: pipeline,
		verifier: verifier,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		backlog: backlog,
		logger:  logger.With("component", "websocket"),
	}
}

// Serve upgrades first and decides afterwards: a refused client sees the
// socket open and close right away, with no reason attached.
func (h *RealtimeHandler) Serve(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("upgrade failed", "error", err)
		return nil
	}

	ctx := c.Request().Context()
	actorID, session, conn, err := h.connect(ctx, c, ws)
	if err != nil {
		h.logger.InfoContext(ctx, "connection refused", "path", c.Request().URL.Path, "error", err)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
		_ = ws.Close()
		return nil
	}

	go conn.writePump()
	h.readPump(context.WithoutCancel(ctx), actorID, session.Room, conn)
	return nil
}

func (h *RealtimeHandler) connect(ctx context.Context, c echo.Context, ws *websocket.Conn) (kernel.UUID, realtime.Session, *wsConn, error) {
	actorID, err := h.verifier.Verify(tokenFrom(c.Request()))
	if err != nil {
		return kernel.UUID{}, realtime.Session{}, nil, err
	}

	ref, err := realtime.ParseRoomRef(c.Param("kind"), c.Param("id"))
	if err != nil {
		return kernel.UUID{}, realtime.Session{}, nil, err
	}

	conn := newWSConn(actorID, ws, h.backlog)
	session, err := h.gateway.Connect(ctx, actorID, ref, conn)
	if err != nil {
		return kernel.UUID{}, realtime.Session{}, nil, err
	}
	return actorID, session, conn, nil
}

func (h *RealtimeHandler) readPump(ctx context.Context, actorID kernel.UUID, room message.RoomKey, conn *wsConn) {
	defer func() {
		h.gateway.Disconnect(room, conn)
		conn.close()
	}()

	conn.ws.SetReadLimit(maxFrameSize)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				h.logger.Warn("read failed", "participant_id", actorID.String(), "room", room.String(), "error", err)
			}
			return
		}
		// Errors are logged by the pipeline; the connection stays open.
		_ = h.pipeline.HandleFrame(ctx, actorID, room, raw, conn)
	}
}
