package postgres

import "time"

// ChatMessage is the append-only chat history. RoomCode is empty for global chat.
type ChatMessage struct {
	ID       string    `gorm:"primaryKey;size:36" json:"id"`
	RoomCode string    `gorm:"size:6;index:idx_chat_messages_room" json:"roomId"`
	Sender   string    `gorm:"size:50;not null" json:"sender"`
	Content  string    `gorm:"type:text" json:"content"`
	SentAt   time.Time `gorm:"index:idx_chat_messages_room" json:"sentAt"`
}
