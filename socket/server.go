package socket

import (
	"log"

	socketio "github.com/googollee/go-socket.io"
)

// NewSocketServer initializes the Socket.IO server. Connections are mute
// until they announce their owning user with a join event; the user id
// doubles as the room name, so team/project fan-out is N pushes to N user
// rooms, never a room per entity.
func NewSocketServer() *socketio.Server {
	server := socketio.NewServer(nil)

	server.OnConnect("/", func(s socketio.Conn) error {
		log.Println("✅ Socket connected:", s.ID())
		return nil
	})

	// Handle join events: register the connection in its user's channel
	server.OnEvent("/", "join", func(s socketio.Conn, userID string) {
		if userID == "" {
			log.Println("❌ Invalid userId in join request")
			return
		}
		s.Join(userID)
		log.Printf("👥 Connection %s joined channel for user %s", s.ID(), userID)
	})

	server.OnError("/", func(s socketio.Conn, err error) {
		log.Printf("⚠️ Socket error: %v", err)
	})

	// Teardown drops the connection from its rooms; nothing survives a
	// reconnect except what the client re-announces.
	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if s != nil {
			s.LeaveAll()
		}
		log.Println("❌ Socket disconnected:", reason)
	})

	return server
}

// Broadcaster adapts the socket.io server to the services.Broadcaster
// interface: one push per user room, silently dropped when the room is
// empty.
type Broadcaster struct {
	Server *socketio.Server
}

// EmitToUser pushes an event to every live connection in the user's room.
func (b *Broadcaster) EmitToUser(userID, event string, payload interface{}) {
	b.Server.BroadcastToRoom("/", userID, event, payload)
}
