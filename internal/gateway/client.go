package gateway

import (
	"sync"

	"github.com/gorilla/websocket"

	"github.com/concordchat/concord/internal/logging"
)

// Client wraps a single WebSocket connection. Writes are serialized by
// a mutex since gorilla/websocket allows only one concurrent writer.
type Client struct {
	ID   string
	conn *websocket.Conn
	log  *logging.Logger

	writeMu sync.Mutex
	closeMu sync.Mutex
	closed  bool
}

func newClient(id string, conn *websocket.Conn, log *logging.Logger) *Client {
	return &Client{
		ID:   id,
		conn: conn,
		log:  log.With("connId", id),
	}
}

// Read blocks until the next frame arrives or the connection fails.
func (c *Client) Read() (Frame, error) {
	var frame Frame
	if err := c.conn.ReadJSON(&frame); err != nil {
		return Frame{}, err
	}
	return frame, nil
}

// Send writes a frame to the connection.
func (c *Client) Send(frame Frame) error {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return ErrClientClosed
	}
	c.closeMu.Unlock()

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteJSON(frame)
}

// Respond sends a success response for the given request ID.
func (c *Client) Respond(requestID string, payload any) error {
	frame, err := NewResponse(requestID, payload)
	if err != nil {
		return err
	}
	return c.Send(frame)
}

// RespondError sends an error response for the given request ID.
func (c *Client) RespondError(requestID string, shape ErrorShape) {
	frame := NewErrorResponse(requestID, shape)
	if err := c.Send(frame); err != nil {
		c.log.Warn().Err(err).Msg("failed to send error response")
	}
}

// Close terminates the connection. Safe to call multiple times.
func (c *Client) Close() {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.conn.Close()
}
