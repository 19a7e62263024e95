package socketio_types

import (
	"encoding/json"
	"sync"

	"github.com/zishang520/socket.io/v2/socket"
)

// SocketServer is a struct that contains the socket.io server and a map of socket connections.
// Connections are keyed by socket id, a user may have several tabs open.
type SocketServer struct {
	Sio_server *socket.Server
	// Map to track socket id -> socket connections
	Connections map[string]*socket.Socket
	mutex       sync.RWMutex
}

func NewSocketServer() *SocketServer {
	return &SocketServer{
		Connections: make(map[string]*socket.Socket),
	}
}

func (s *SocketServer) AddConnection(id string, socket *socket.Socket) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.Connections[id] = socket
}

func (s *SocketServer) RemoveConnection(id string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.Connections, id)
}

func (s *SocketServer) GetConnection(id string) (*socket.Socket, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	socket, exists := s.Connections[id]
	return socket, exists
}

func (s *SocketServer) ConnectionCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.Connections)
}

// SocketSink delivers broadcast events to one socket.io client, using the
// channel name as event name.
type SocketSink struct {
	Client *socket.Socket
}

func (s SocketSink) Send(channel string, payload any) error {
	// socket.io sends byte slices as binary attachments, relayed events are JSON text
	if raw, ok := payload.(json.RawMessage); ok {
		var decoded any
		if err := json.Unmarshal(raw, &decoded); err != nil {
			return err
		}
		payload = decoded
	}
	s.Client.Emit(channel, payload)
	return nil
}

func (s SocketSink) Close() {
	s.Client.Disconnect(true)
}
