package broadcast

import "strings"

// GlobalChat carries chat that is not scoped to a room
const GlobalChat = "global.chat"

const execPrefix = "exec."

func RoomChat(code string) string {
	return "room.chat." + code
}

func RoomCode(code string) string {
	return "room.code." + code
}

// Exec is the private channel where a connection receives its execution output
func Exec(connID string) string {
	return execPrefix + connID
}

func IsExec(channel string) bool {
	return strings.HasPrefix(channel, execPrefix)
}

// ValidChannel reports whether channel follows one of the known naming schemes
func ValidChannel(channel string) bool {
	switch {
	case channel == GlobalChat:
		return true
	case strings.HasPrefix(channel, "room.chat."):
		return len(channel) > len("room.chat.")
	case strings.HasPrefix(channel, "room.code."):
		return len(channel) > len("room.code.")
	case IsExec(channel):
		return len(channel) > len(execPrefix)
	}
	return false
}
