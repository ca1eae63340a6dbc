package ws

import (
	"sync"

	"talentvault_backend/internal/logger"
	"talentvault_backend/internal/models"
)

// Room names. A connection always has a personal room; admin-tier roles
// additionally join the shared admin room.
const RoomAdminNotifications = "admin-notifications"

func RoomForUser(userID string) string {
	return "user:" + userID
}

// Manager tracks live connections and their room memberships. Memberships
// are not persisted: a restart drops all state and clients re-join on
// reconnect, since membership is fully derivable from (userID, role).
type Manager struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	rooms   map[string]map[*Client]bool

	sendBufferSize int
}

func NewManager(sendBufferSize int) *Manager {
	if sendBufferSize <= 0 {
		sendBufferSize = 256
	}
	return &Manager{
		clients:        make(map[*Client]bool),
		rooms:          make(map[string]map[*Client]bool),
		sendBufferSize: sendBufferSize,
	}
}

// Register adds the connection to the registry and joins its personal room.
// Admin-tier roles also join the admin-notifications room.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	m.clients[client] = true
	m.joinLocked(client, RoomForUser(client.UserID))
	if client.Role.IsAdminTier() {
		m.joinLocked(client, RoomAdminNotifications)
	}
	total := len(m.clients)
	m.mu.Unlock()

	logger.Debug("ws client registered", "user_id", client.UserID, "role", client.Role, "total", total)
}

// Unregister removes the connection from all rooms and closes its send
// channel. Calling it twice for the same connection is a no-op the second
// time.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	if _, ok := m.clients[client]; !ok {
		m.mu.Unlock()
		return
	}
	delete(m.clients, client)
	for room := range m.rooms {
		m.leaveLocked(client, room)
	}
	close(client.Send)
	total := len(m.clients)
	m.mu.Unlock()

	logger.Debug("ws client unregistered", "user_id", client.UserID, "total", total)
}

// JoinRoom adds the client to a room. Joining a room the client is already
// in is a no-op, so re-joins after reconnect races are harmless.
func (m *Manager) JoinRoom(client *Client, room string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[client]; !ok {
		return
	}
	m.joinLocked(client, room)
}

// LeaveAllRooms removes the client from every room but keeps the
// connection alive, matching the leave-notifications action.
func (m *Manager) LeaveAllRooms(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for room := range m.rooms {
		m.leaveLocked(client, room)
	}
}

func (m *Manager) joinLocked(client *Client, room string) {
	members, ok := m.rooms[room]
	if !ok {
		members = make(map[*Client]bool)
		m.rooms[room] = members
	}
	members[client] = true
}

func (m *Manager) leaveLocked(client *Client, room string) {
	members, ok := m.rooms[room]
	if !ok {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(m.rooms, room)
	}
}

// EmitToRoom sends the frame to every member of the room. Fan-out preserves
// emission order per room; slow consumers get the frame dropped rather than
// blocking the emitter.
func (m *Manager) EmitToRoom(room string, frame OutgoingFrame) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	delivered := 0
	for client := range m.rooms[room] {
		if m.trySend(client, frame) {
			delivered++
		}
	}
	return delivered
}

// EmitFiltered sends the frame to every registered connection whose client
// passes the include predicate. Used for broadcast fan-out where the server
// decides audience membership per connection.
func (m *Manager) EmitFiltered(frame OutgoingFrame, include func(*Client) bool) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	delivered := 0
	for client := range m.clients {
		if include != nil && !include(client) {
			continue
		}
		if m.trySend(client, frame) {
			delivered++
		}
	}
	return delivered
}

func (m *Manager) trySend(client *Client, frame OutgoingFrame) bool {
	select {
	case client.Send <- frame:
		return true
	default:
		// Buffer full: drop the frame. The persisted store is the durable
		// truth, live delivery is fire-and-forget.
		logger.Warn("ws send buffer full, dropping frame", "user_id", client.UserID, "event", frame.Event)
		return false
	}
}

// ClientCount returns the number of registered connections.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// RoomSize returns the number of connections in a room.
func (m *Manager) RoomSize(room string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rooms[room])
}

// InRoom reports whether the client is a member of the room.
func (m *Manager) InRoom(client *Client, room string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rooms[room][client]
}

// IsUserConnected reports whether any connection exists for the user.
func (m *Manager) IsUserConnected(userID string) bool {
	return m.RoomSize(RoomForUser(userID)) > 0
}

// NewClient builds a client bound to this manager. The caller owns the
// read/write pumps.
func (m *Manager) NewClient(userID string, role models.UserRole, conn Conn) *Client {
	return &Client{
		UserID:  userID,
		Role:    role,
		Conn:    conn,
		Send:    make(chan OutgoingFrame, m.sendBufferSize),
		manager: m,
	}
}
