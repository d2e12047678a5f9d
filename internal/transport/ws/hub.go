package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	MsgNewMessage MessageType = "new_message"
	MsgUserOnline MessageType = "user_online"
	MsgUserAway   MessageType = "user_offline"
	MsgError      MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages WebSocket connections for chat rooms
type Hub struct {
	// roomID -> userID -> conn
	conns map[string]map[string]*Connection

	mu sync.RWMutex

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents one user's WebSocket connection to one room
type Connection struct {
	RoomID string
	UserID string
	Send   chan []byte
	Hub    *Hub
}

// BroadcastMessage is a message to broadcast within a room
type BroadcastMessage struct {
	RoomID  string
	ToUser  string // Empty means everyone in the room
	Message *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		conns:      make(map[string]map[string]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.conns[conn.RoomID] == nil {
				h.conns[conn.RoomID] = make(map[string]*Connection)
			}
			h.conns[conn.RoomID][conn.UserID] = conn
			log.Printf("User %s connected to room %s", conn.UserID, conn.RoomID)
			h.mu.Unlock()

			h.notifyPresence(conn.RoomID, conn.UserID, MsgUserOnline)

		case conn := <-h.unregister:
			h.mu.Lock()
			removed := false
			if users, ok := h.conns[conn.RoomID]; ok {
				if existing, ok := users[conn.UserID]; ok && existing == conn {
					delete(users, conn.UserID)
					close(conn.Send)
					removed = true
					log.Printf("User %s disconnected from room %s", conn.UserID, conn.RoomID)
				}
			}
			h.mu.Unlock()

			if removed {
				h.notifyPresence(conn.RoomID, conn.UserID, MsgUserAway)
			}

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)

			if users, ok := h.conns[msg.RoomID]; ok {
				for userID, conn := range users {
					if msg.ToUser != "" && userID != msg.ToUser {
						continue
					}
					select {
					case conn.Send <- data:
					default:
						// Drop message if buffer full
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastToRoom sends a message to everyone connected to a room
func (h *Hub) BroadcastToRoom(roomID string, msgType MessageType, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		Message: &Message{
			Type:    msgType,
			Payload: data,
		},
	}
}

// BroadcastToUser sends a message to one user in a room
func (h *Hub) BroadcastToUser(roomID, userID string, msgType MessageType, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		RoomID: roomID,
		ToUser: userID,
		Message: &Message{
			Type:    msgType,
			Payload: data,
		},
	}
}

func (h *Hub) notifyPresence(roomID, userID string, msgType MessageType) {
	h.BroadcastToRoom(roomID, msgType, map[string]string{"userId": userID})
}
