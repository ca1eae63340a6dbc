package ws

import (
	"encoding/json"

	"talentvault_backend/internal/logger"
	"talentvault_backend/internal/models"
)

// Conn is the subset of *websocket.Conn the client uses. Tests substitute
// an in-memory implementation.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one live transport session, bound to exactly one user and role
// for its lifetime. Identity comes from the JWT presented at upgrade time,
// never from client frames.
type Client struct {
	UserID string
	Role   models.UserRole
	Conn   Conn
	Send   chan OutgoingFrame

	manager *Manager
}

// ReadPump consumes control frames until the connection drops, then
// unregisters. Unregister runs on every disconnect path so room membership
// does not leak past the connection.
func (c *Client) ReadPump() {
	defer func() {
		c.manager.Unregister(c)
		c.Conn.Close()
	}()

	for {
		_, msgBytes, err := c.Conn.ReadMessage()
		if err != nil {
			logger.Debug("ws read closed", "user_id", c.UserID, "error", err)
			break
		}

		var frame IncomingFrame
		if err := json.Unmarshal(msgBytes, &frame); err != nil {
			logger.Warn("ws failed to parse frame", "user_id", c.UserID, "error", err)
			continue
		}

		c.handleFrame(frame)
	}
}

// WritePump serialises outbound frames for this connection. Per-connection
// send order matches emission order.
func (c *Client) WritePump() {
	for frame := range c.Send {
		if err := c.Conn.WriteJSON(frame); err != nil {
			logger.Debug("ws write failed", "user_id", c.UserID, "error", err)
			break
		}
	}
	c.Conn.Close()
}

func (c *Client) handleFrame(frame IncomingFrame) {
	switch frame.Action {

	case ActionJoinNotifications:
		c.manager.JoinRoom(c, RoomForUser(c.UserID))

	case ActionJoinAdminNotifications:
		// Role is taken from the authenticated client, not the frame body.
		if c.Role.IsAdminTier() {
			c.manager.JoinRoom(c, RoomAdminNotifications)
		} else {
			logger.Warn("non-admin requested admin room", "user_id", c.UserID, "role", c.Role)
		}

	case ActionLeaveNotifications:
		c.manager.LeaveAllRooms(c)

	default:
		logger.Debug("ws unhandled action", "action", frame.Action, "user_id", c.UserID)
	}
}
