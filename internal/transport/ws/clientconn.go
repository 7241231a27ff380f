package ws

import (
	"github.com/gorilla/websocket"
	"github.com/kiryu-dev/battleship/internal/domain"
	"github.com/pkg/errors"
)

type client struct {
	conn    *websocket.Conn
	address string
}

func newClient(conn *websocket.Conn, address string) client {
	return client{conn: conn, address: address}
}

func (c client) WriteMessage(msg domain.Message) error {
	if err := c.conn.WriteJSON(msg); err != nil {
		return errors.WithMessage(err, "websocket conn write json")
	}
	return nil
}

func (c client) ReadMessage() (domain.Message, error) {
	var msg domain.Message
	if err := c.conn.ReadJSON(&msg); err != nil {
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return domain.Message{}, domain.ErrConnectionClosed
		}
		return domain.Message{}, errors.WithMessage(err, "websocket conn read json")
	}
	if msg.Payload == nil {
		return msg, errors.WithMessagef(domain.ErrEmptyMessage, "message type %d", msg.Type)
	}
	return msg, nil
}

func (c client) Address() string {
	return c.address
}

func (c client) Close() {
	_ = c.conn.Close()
}
