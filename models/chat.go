package models

// ChatType tags the variant carried by a ChatEvent
type ChatType string

const (
	ChatMessage ChatType = "CHAT"
	ChatJoin    ChatType = "JOIN"
	ChatLeave   ChatType = "LEAVE"
)

// ChatEvent is published on room.chat.<CODE>, or on global.chat when RoomID is empty
type ChatEvent struct {
	Type    ChatType `json:"type"`
	Sender  string   `json:"sender"`
	Content string   `json:"content,omitempty"`
	RoomID  string   `json:"roomId,omitempty"`
}

func NewChat(roomID, sender, content string) ChatEvent {
	return ChatEvent{Type: ChatMessage, RoomID: roomID, Sender: sender, Content: content}
}

func NewJoin(roomID, sender string) ChatEvent {
	return ChatEvent{Type: ChatJoin, RoomID: roomID, Sender: sender}
}

func NewLeave(roomID, sender string) ChatEvent {
	return ChatEvent{Type: ChatLeave, RoomID: roomID, Sender: sender}
}

// ExecOutput is a chunk of execution output delivered on exec.<connId>.
// RunID tells apart the output of a run from the one that replaced it.
type ExecOutput struct {
	RunID   uint64 `json:"runId,omitempty"`
	Output  string `json:"output"`
	IsError bool   `json:"isError"`
}

// maxCoalescedOutput caps the text of one merged ExecOutput
const maxCoalescedOutput = 64 << 10

// Coalesce appends next to o when both are the same stream of the same run
func (o ExecOutput) Coalesce(next any) (any, bool) {
	n, ok := next.(ExecOutput)
	if !ok || n.RunID != o.RunID || n.IsError != o.IsError || len(o.Output)+len(n.Output) > maxCoalescedOutput {
		return o, false
	}
	o.Output += n.Output
	return o, true
}
