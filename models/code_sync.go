package models

import "fmt"

// CodeSyncType tags the variant carried by a CodeSyncEvent
type CodeSyncType string

const (
	CodeUpdate         CodeSyncType = "UPDATE"
	CodeTyping         CodeSyncType = "TYPING"
	CodeStoppedTyping  CodeSyncType = "STOPPED_TYPING"
	CodeCursorActivity CodeSyncType = "CURSOR_ACTIVITY"
)

// Cursor is a (line, column) position inside the shared buffer
type Cursor struct {
	Line int `json:"line"`
	Ch   int `json:"ch"`
}

// Selection spans from Anchor (where the selection started) to Head (where the caret is)
type Selection struct {
	Anchor Cursor `json:"anchor"`
	Head   Cursor `json:"head"`
}

/*
 * 'CodeSyncEvent' is what editors exchange on the room.code.<CODE> channel.
 * Only UPDATE replaces the shared buffer, the rest are ephemeral signals
 * that live in the broadcast pipeline and never reach the room state.
 */
type CodeSyncEvent struct {
	Type      CodeSyncType `json:"type"`
	Sender    string       `json:"sender"`
	RoomID    string       `json:"roomId"`
	Code      string       `json:"code,omitempty"`
	Language  string       `json:"language,omitempty"`
	Cursor    *Cursor      `json:"cursor,omitempty"`
	Selection *Selection   `json:"selection,omitempty"`
}

func NewUpdate(roomID, sender, code, language string) CodeSyncEvent {
	return CodeSyncEvent{Type: CodeUpdate, RoomID: roomID, Sender: sender, Code: code, Language: language}
}

func NewTyping(roomID, sender string) CodeSyncEvent {
	return CodeSyncEvent{Type: CodeTyping, RoomID: roomID, Sender: sender}
}

func NewStoppedTyping(roomID, sender string) CodeSyncEvent {
	return CodeSyncEvent{Type: CodeStoppedTyping, RoomID: roomID, Sender: sender}
}

func NewCursorActivity(roomID, sender string, cursor Cursor, selection *Selection) CodeSyncEvent {
	return CodeSyncEvent{Type: CodeCursorActivity, RoomID: roomID, Sender: sender, Cursor: &cursor, Selection: selection}
}

// Persistent reports whether the event must be written into the room state
func (e CodeSyncEvent) Persistent() bool {
	return e.Type == CodeUpdate
}

func (e CodeSyncEvent) Validate() error {
	switch e.Type {
	case CodeUpdate:
		if e.Language == "" {
			return fmt.Errorf("update event requires a language")
		}
	case CodeTyping, CodeStoppedTyping, CodeCursorActivity:
	default:
		return fmt.Errorf("unknown code sync type %q", e.Type)
	}
	if e.RoomID == "" {
		return fmt.Errorf("code sync event requires a roomId")
	}
	return nil
}
