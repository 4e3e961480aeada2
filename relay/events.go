package relay

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/techagentng/marketplace/models"
)

// TypeChatMessage tags a chat message on the broker.
const TypeChatMessage = "chat_message"

// Error frame codes.
const (
	CodeInvalidJSON    = "invalid_json"
	CodeMissingMessage = "missing_message"
	CodeEmptyMessage   = "empty_message"
	CodePersistFailed  = "persist_failed"
)

var ErrUnknownEvent = errors.New("relay: unknown event type")

// Event is an outbound frame. The set of implementations is closed:
// ChatMessage and ErrorFrame.
type Event interface {
	event()
}

// ChatMessage is forwarded verbatim to every connection in the room.
type ChatMessage struct {
	ID        uint          `json:"id"`
	Sender    models.Sender `json:"sender"`
	Content   string        `json:"content"`
	CreatedAt string        `json:"created_at"`
}

// ErrorFrame reports a rejected inbound frame to its sender only.
type ErrorFrame struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (ChatMessage) event() {}
func (ErrorFrame) event()  {}

func NewChatMessage(m *models.Message) ChatMessage {
	return ChatMessage{
		ID:        m.ID,
		Sender:    m.Sender.AsSender(),
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func NewErrorFrame(code, message string) ErrorFrame {
	return ErrorFrame{Error: ErrorBody{Code: code, Message: message}}
}

// envelope is the broker wire form of a routable event.
type envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message"`
}

// Encode wraps ev for the broker. Only chat messages are routed between
// connections.
func Encode(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case ChatMessage:
		payload, err := json.Marshal(e)
		if err != nil {
			return nil, errors.Wrap(err, "encode chat message")
		}
		return json.Marshal(envelope{Type: TypeChatMessage, Message: payload})
	default:
		return nil, fmt.Errorf("relay: %T is not routable", ev)
	}
}

// Decode unwraps a broker payload into its event.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "decode envelope")
	}
	switch env.Type {
	case TypeChatMessage:
		var m ChatMessage
		if err := json.Unmarshal(env.Message, &m); err != nil {
			return nil, errors.Wrap(err, "decode chat message")
		}
		return m, nil
	default:
		return nil, errors.Wrapf(ErrUnknownEvent, "%q", env.Type)
	}
}

// Frame renders ev as the JSON text a client receives.
func Frame(ev Event) ([]byte, error) {
	switch e := ev.(type) {
	case ChatMessage:
		return json.Marshal(e)
	case ErrorFrame:
		return json.Marshal(e)
	default:
		return nil, fmt.Errorf("relay: unsupported event %T", ev)
	}
}
