package message

import (
	"errors"
	"strings"
	"time"

	"superservice/internal/core/domain/model/kernel"
	"superservice/internal/pkg/errs"
)

var ErrMessageIsNotConstructed = errors.New("Message must be created via NewMessage constructor")

// MaxBodyLength bounds a chat message body in runes.
const MaxBodyLength = 4000

// Message is a chat line posted to a room. It is immutable once built.
type Message struct {
	id        kernel.UUID
	roomKey   RoomKey
	senderID  kernel.UUID
	body      string
	createdAt time.Time

	isConstructed bool
}

// NewMessage builds a message. The body is trimmed and must not end up
// empty.
func NewMessage(id kernel.UUID, roomKey RoomKey, senderID kernel.UUID, body string, createdAt time.Time) (*Message, error) {
	m := &Message{createdAt: createdAt, isConstructed: true}

	if err := errors.Join(
		m.setID(id),
		m.setRoomKey(roomKey),
		m.setSender(senderID),
		m.setBody(body),
	); err != nil {
		return nil, err
	}
	return m, nil
}

// NormalizeBody trims body and reports whether anything is left.
func NormalizeBody(body string) (string, bool) {
	body = strings.TrimSpace(body)
	return body, body != ""
}

func (m *Message) Validate() error {
	if m == nil || !m.isConstructed {
		return ErrMessageIsNotConstructed
	}
	return nil
}

func (m *Message) ID() kernel.UUID {
	return m.id
}

func (m *Message) RoomKey() RoomKey {
	return m.roomKey
}

func (m *Message) Sender() kernel.UUID {
	return m.senderID
}

func (m *Message) Body() string {
	return m.body
}

func (m *Message) CreatedAt() time.Time {
	return m.createdAt
}

func (m *Message) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	m.id = id
	return nil
}

func (m *Message) setRoomKey(key RoomKey) error {
	if err := key.Validate(); err != nil {
		return err
	}
	m.roomKey = key
	return nil
}

func (m *Message) setSender(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("sender", err)
	}
	m.senderID = id
	return nil
}

func (m *Message) setBody(body string) error {
	body, ok := NormalizeBody(body)
	if !ok {
		return errs.NewValueIsRequiredError("message")
	}
	if n := len([]rune(body)); n > MaxBodyLength {
		return errs.NewValueIsOutOfRangeError("message length", n, 1, MaxBodyLength)
	}
	m.body = body
	return nil
}
