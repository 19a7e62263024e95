package utils

/**
 * This file contains utility functions to format the keys for Redis
 * (key, value) pairs. It avoids having to call "fmt.Sprintf(...)"
 * with the same format string every time, potentially confusing the key format.
 */

import "fmt"

// RelayChannel is the pub/sub channel shared by every server instance
const RelayChannel = "codecollab:broadcast"

func FormatRoomKey(code string) string {
	return fmt.Sprintf("room:%s", code)
}
