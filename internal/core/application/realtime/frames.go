package realtime

import (
	"encoding/json"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/core/domain/model/message"
)

// TimestampLayout renders frame timestamps as HH:MM.
const TimestampLayout = "15:04"

// SystemUsername is the sender shown on system frames.
const SystemUsername = "system"

// InboundFrame is what clients send.
type InboundFrame struct {
	Message *string `json:"message"`
}

type chatWire struct {
	Message   string `json:"message"`
	Username  string `json:"username"`
	IsMe      bool   `json:"is_me"`
	Timestamp string `json:"timestamp"`
}

type systemWire struct {
	chatWire
	Type   string `json:"type"`
	Event  string `json:"event"`
	Status string `json:"status"`
}

type noticeWire struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// FrameFactory builds outbound frames with timestamps in one time zone.
type FrameFactory struct {
	loc *time.Location
}

// NewFrameFactory uses UTC when loc is nil.
func NewFrameFactory(loc *time.Location) *FrameFactory {
	if loc == nil {
		loc = time.UTC
	}
	return &FrameFactory{loc: loc}
}

func (f *FrameFactory) Timestamp(t time.Time) string {
	return t.In(f.loc).Format(TimestampLayout)
}

// Chat renders a persisted message.
func (f *FrameFactory) Chat(m *message.Message, username string) *ChatFrame {
	return &ChatFrame{
		body:      m.Body(),
		username:  username,
		sender:    m.Sender(),
		timestamp: f.Timestamp(m.CreatedAt()),
	}
}

// System renders a notice such as "order accepted".
func (f *FrameFactory) System(text, event, status string, at time.Time) *SystemFrame {
	return &SystemFrame{
		text:      text,
		event:     event,
		status:    status,
		timestamp: f.Timestamp(at),
	}
}

// ChatFrame is a broadcast chat message. is_me is computed per recipient.
type ChatFrame struct {
	body      string
	username  string
	sender    kernel.UUID
	timestamp string
}

func (c *ChatFrame) RenderFor(recipient kernel.UUID) ([]byte, error) {
	return json.Marshal(chatWire{
		Message:   c.body,
		Username:  c.username,
		IsMe:      recipient.IsEqual(c.sender),
		Timestamp: c.timestamp,
	})
}

// SystemFrame keeps the chat frame fields so clients can render it inline.
type SystemFrame struct {
	text      string
	event     string
	status    string
	timestamp string
}

func (s *SystemFrame) RenderFor(kernel.UUID) ([]byte, error) {
	return json.Marshal(systemWire{
		chatWire: chatWire{
			Message:   s.text,
			Username:  SystemUsername,
			Timestamp: s.timestamp,
		},
		Type:   "system",
		Event:  s.event,
		Status: s.status,
	})
}

// DeliveryFailedNotice is sent to the sender alone when a message could not
// be stored.
func DeliveryFailedNotice(body string) []byte {
	b, _ := json.Marshal(noticeWire{Error: "message_not_delivered", Message: body})
	return b
}
