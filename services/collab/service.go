package collab

import (
	"CodeCollab/models"
	"CodeCollab/services/broadcast"
	"CodeCollab/services/execution"
	"CodeCollab/services/messages"
	"CodeCollab/services/rooms"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
)

var (
	ErrForbiddenChannel = errors.New("channel not allowed")
	ErrMissingSender    = errors.New("sender is required")
	ErrEmptyMessage     = errors.New("message content is required")
)

// Service turns transport events into room, chat and execution operations.
// It owns the connection lifecycle: every side effect of a disconnect happens in Disconnect.
type Service struct {
	rooms    *rooms.Coordinator
	router   *broadcast.Router
	exec     *execution.Manager
	messages messages.Store

	// latest run started per connection, counted by RunCode
	runsMu sync.Mutex
	runs   map[string]uint64
}

func NewService(coordinator *rooms.Coordinator, router *broadcast.Router, exec *execution.Manager, store messages.Store) *Service {
	return &Service{rooms: coordinator, router: router, exec: exec, messages: store, runs: make(map[string]uint64)}
}

// Connect registers a new connection and subscribes it to its private
// execution channel and to global chat. username may be empty.
func (s *Service) Connect(connID string, sink broadcast.Sink, username string) {
	s.router.Register(connID, sink)
	s.router.Subscribe(connID, broadcast.Exec(connID))
	s.router.Subscribe(connID, broadcast.GlobalChat)
	if username != "" {
		s.router.SetUsername(connID, username)
	}
	log.Printf("[CONNECT] %s connected (user %q)", connID, username)
}

func (s *Service) Subscribe(connID, channel string) error {
	if !broadcast.ValidChannel(channel) {
		return fmt.Errorf("%w: unknown channel %q", ErrForbiddenChannel, channel)
	}
	if broadcast.IsExec(channel) && channel != broadcast.Exec(connID) {
		return fmt.Errorf("%w: %s belongs to another connection", ErrForbiddenChannel, channel)
	}
	if !s.router.Subscribe(connID, channel) {
		return fmt.Errorf("connection %s is not registered", connID)
	}
	return nil
}

func (s *Service) Unsubscribe(connID, channel string) {
	s.router.Unsubscribe(connID, channel)
}

// chatChannel is the room chat channel, or global chat for unscoped events
func chatChannel(roomID string) string {
	if roomID == "" {
		return broadcast.GlobalChat
	}
	return broadcast.RoomChat(roomID)
}

// resolve fills sender and room from what the connection announced earlier
func (s *Service) resolve(connID, sender, roomID string) (string, string) {
	attrs, _ := s.router.Attrs(connID)
	sender = strings.TrimSpace(sender)
	if sender == "" {
		sender = attrs.Username
	}
	roomID = rooms.NormalizeCode(roomID)
	if roomID == "" {
		roomID = attrs.RoomID
	}
	return sender, roomID
}

// AddUser announces the connection's username, and its room when the event is room scoped
func (s *Service) AddUser(ctx context.Context, connID string, ev models.ChatEvent) error {
	sender := strings.TrimSpace(ev.Sender)
	if sender == "" {
		return ErrMissingSender
	}
	roomID := rooms.NormalizeCode(ev.RoomID)
	if roomID != "" {
		if _, err := s.rooms.GetRoom(ctx, roomID); err != nil {
			return err
		}
	}

	s.router.SetUsername(connID, sender)
	if roomID != "" {
		s.router.SetRoom(connID, roomID)
		s.router.Subscribe(connID, broadcast.RoomChat(roomID))
		s.router.Subscribe(connID, broadcast.RoomCode(roomID))
	}
	s.router.Publish(chatChannel(roomID), models.NewJoin(roomID, sender))
	log.Printf("[JOIN] %s announced as %s in %q", connID, sender, roomID)
	return nil
}

// SendMessage stores a chat message and publishes it. A failed write is logged,
// the message is still delivered.
func (s *Service) SendMessage(ctx context.Context, connID string, ev models.ChatEvent) error {
	sender, roomID := s.resolve(connID, ev.Sender, ev.RoomID)
	if sender == "" {
		return ErrMissingSender
	}
	if strings.TrimSpace(ev.Content) == "" {
		return ErrEmptyMessage
	}
	if _, err := s.messages.Append(ctx, roomID, sender, ev.Content); err != nil {
		log.Printf("[CHAT-ERROR] Persisting message from %s: %v", sender, err)
	}
	s.router.Publish(chatChannel(roomID), models.NewChat(roomID, sender, ev.Content))
	return nil
}

// LeaveRoom removes the user from the room, tells the room and stops listening to it
func (s *Service) LeaveRoom(ctx context.Context, connID string, ev models.ChatEvent) error {
	sender, roomID := s.resolve(connID, ev.Sender, ev.RoomID)
	if sender == "" {
		return ErrMissingSender
	}
	if roomID == "" {
		return fmt.Errorf("%w: room id is required", rooms.ErrValidation)
	}
	if err := s.rooms.LeaveRoom(ctx, roomID, sender); err != nil {
		return err
	}
	s.router.Publish(broadcast.RoomChat(roomID), models.NewLeave(roomID, sender))
	s.router.Unsubscribe(connID, broadcast.RoomChat(roomID))
	s.router.Unsubscribe(connID, broadcast.RoomCode(roomID))
	if attrs, _ := s.router.Attrs(connID); attrs.RoomID == roomID {
		s.router.SetRoom(connID, "")
	}
	return nil
}

// SyncCode publishes an editor event to the room. Only UPDATE is written to the room.
func (s *Service) SyncCode(ctx context.Context, connID string, ev models.CodeSyncEvent) error {
	ev.Sender, ev.RoomID = s.resolve(connID, ev.Sender, ev.RoomID)
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("%w: %v", rooms.ErrValidation, err)
	}
	if ev.Persistent() {
		if err := s.rooms.UpdateCode(ctx, ev.RoomID, ev.Code, ev.Language); err != nil {
			return err
		}
	}
	s.router.Publish(broadcast.RoomCode(ev.RoomID), ev)
	return nil
}

// RunCode starts an execution for the connection. Its output only goes to
// exec.<connID>, and stops going there as soon as a newer run replaces it.
func (s *Service) RunCode(connID, language, source string) {
	s.runsMu.Lock()
	s.runs[connID]++
	gen := s.runs[connID]
	out := s.exec.Execute(context.Background(), connID, language, source)
	s.runsMu.Unlock()

	channel := broadcast.Exec(connID)
	go func() {
		for ev := range out {
			if !s.isLatestRun(connID, gen) {
				continue
			}
			s.router.Publish(channel, ev)
		}
	}()
}

func (s *Service) isLatestRun(connID string, gen uint64) bool {
	s.runsMu.Lock()
	defer s.runsMu.Unlock()
	return s.runs[connID] == gen
}

func (s *Service) SendInput(connID, text string) error {
	return s.exec.ForwardInput(connID, text)
}

// Disconnect is the single place where a closed connection is cleaned up:
// its run is killed and, if it had announced a username, its chat gets a LEAVE.
func (s *Service) Disconnect(connID string) {
	attrs, ok := s.router.Disconnect(connID)
	s.exec.Detach(connID)
	s.runsMu.Lock()
	delete(s.runs, connID)
	s.runsMu.Unlock()
	if !ok {
		return
	}
	if attrs.Username != "" {
		s.router.Publish(chatChannel(attrs.RoomID), models.NewLeave(attrs.RoomID, attrs.Username))
	}
	log.Printf("[DISCONNECT] %s disconnected (user %q, room %q)", connID, attrs.Username, attrs.RoomID)
}
