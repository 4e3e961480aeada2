// Package relay binds chat websocket connections to their room's broadcast
// group: inbound messages are persisted and published, and everything
// published to the group is written back to every connection in it.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/techagentng/marketplace/logging"
	"github.com/techagentng/marketplace/metrics"
	"github.com/techagentng/marketplace/models"
	"github.com/techagentng/marketplace/pubsub"
	"github.com/techagentng/marketplace/services"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 16
)

// ChatRooms is the part of the chat service the relay needs.
type ChatRooms interface {
	AuthorizeParticipant(roomID, userID uint) (*models.ChatRoom, error)
	SendMessage(ctx context.Context, roomID uint, sender *models.User, content, source string) (*models.Message, error)
}

type Relay struct {
	broker pubsub.Broker
	chat   ChatRooms
}

func New(broker pubsub.Broker, chat ChatRooms) *Relay {
	return &Relay{broker: broker, chat: chat}
}

// Authorize reports whether user may join roomID.
func (r *Relay) Authorize(roomID uint, user *models.User) (*models.ChatRoom, error) {
	return r.chat.AuthorizeParticipant(roomID, user.ID)
}

type conn struct {
	ws     *websocket.Conn
	user   *models.User
	roomID uint
	// local carries frames for this connection only (error frames).
	local chan []byte
}

// Serve runs the connection until the client goes away or ctx ends. The
// caller has already checked membership with Authorize.
func (r *Relay) Serve(ctx context.Context, ws *websocket.Conn, user *models.User, roomID uint) error {
	group := GroupName(roomID)
	sub, err := r.broker.Subscribe(ctx, group)
	if err != nil {
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "unable to join room"),
			time.Now().Add(writeWait))
		_ = ws.Close()
		return err
	}
	defer sub.Close()

	metrics.WSConnections.Inc()
	defer metrics.WSConnections.Dec()

	log := logging.Logger().With().Uint("room_id", roomID).Uint("user_id", user.ID).Logger()
	log.Info().Msg("chat connection joined")
	defer log.Info().Msg("chat connection left")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c := &conn{ws: ws, user: user, roomID: roomID, local: make(chan []byte, sendBuffer)}
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.writePump(ctx, sub)
	}()

	c.readPump(ctx, r.chat)
	cancel()
	<-done
	return nil
}

func (c *conn) readPump(ctx context.Context, chat ChatRooms) {
	// An oversized frame ends the connection with 1009 (message too big)
	// instead of an error frame.
	c.ws.SetReadLimit(maxMessageSize)
	if err := c.ws.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				logging.Warn().Err(err).Uint("room_id", c.roomID).Msg("unexpected websocket close")
			}
			return
		}
		c.receive(ctx, chat, data)
	}
}

// receive handles one inbound frame. Failures are reported to this
// connection and never end it.
func (c *conn) receive(ctx context.Context, chat ChatRooms, data []byte) {
	var frame map[string]json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil || frame == nil {
		c.reject(CodeInvalidJSON, "frame must be a JSON object")
		return
	}
	raw, ok := frame["message"]
	if !ok {
		c.reject(CodeMissingMessage, `"message" is required`)
		return
	}
	var text string
	if err := json.Unmarshal(raw, &text); err != nil {
		c.reject(CodeInvalidJSON, `"message" must be a string`)
		return
	}

	if _, err := chat.SendMessage(ctx, c.roomID, c.user, text, services.SourceWebSocket); err != nil {
		if errors.Is(err, services.ErrEmptyMessage) {
			c.reject(CodeEmptyMessage, "message may not be blank")
			return
		}
		logging.Error().Err(err).Uint("room_id", c.roomID).Uint("user_id", c.user.ID).Msg("relay persist")
		c.reject(CodePersistFailed, "message could not be saved")
	}
}

func (c *conn) reject(code, message string) {
	metrics.RecordRelayError(code)
	frame, err := Frame(NewErrorFrame(code, message))
	if err != nil {
		return
	}
	select {
	case c.local <- frame:
	default:
	}
}

// writePump is the only goroutine that writes to the socket.
func (c *conn) writePump(ctx context.Context, sub pubsub.Subscription) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case payload, ok := <-sub.Messages():
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			ev, err := Decode(payload)
			if err != nil {
				logging.Warn().Err(err).Uint("room_id", c.roomID).Msg("dropping broker payload")
				continue
			}
			var frame []byte
			switch e := ev.(type) {
			case ChatMessage:
				frame, err = Frame(e)
			case ErrorFrame:
				// error frames never travel through the broker
				continue
			}
			if err != nil {
				continue
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				return
			}

		case frame := <-c.local:
			if err := c.write(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *conn) write(messageType int, data []byte) error {
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}
