package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeSyncEventRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		event CodeSyncEvent
	}{
		{"update", NewUpdate("ABC234", "alice", "int main() {}", "cpp")},
		{"typing", NewTyping("ABC234", "bob")},
		{"stopped typing", NewStoppedTyping("ABC234", "bob")},
		{"cursor activity", NewCursorActivity("ABC234", "carol", Cursor{Line: 3, Ch: 7},
			&Selection{Anchor: Cursor{Line: 1, Ch: 0}, Head: Cursor{Line: 3, Ch: 7}})},
		{"cursor without selection", NewCursorActivity("ABC234", "carol", Cursor{Line: 0, Ch: 2}, nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.event)
			require.NoError(t, err)

			var decoded CodeSyncEvent
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, tt.event, decoded)
		})
	}
}

func TestCodeSyncEventWireNames(t *testing.T) {
	raw := `{"type":"CURSOR_ACTIVITY","sender":"dan","roomId":"XYZ789",
		"cursor":{"line":4,"ch":1},"selection":{"anchor":{"line":4,"ch":0},"head":{"line":4,"ch":1}}}`

	var event CodeSyncEvent
	require.NoError(t, json.Unmarshal([]byte(raw), &event))

	assert.Equal(t, CodeCursorActivity, event.Type)
	assert.Equal(t, &Cursor{Line: 4, Ch: 1}, event.Cursor)
	assert.Equal(t, Cursor{Line: 4, Ch: 0}, event.Selection.Anchor)
	assert.False(t, event.Persistent())
}

func TestCodeSyncEventValidate(t *testing.T) {
	assert.NoError(t, NewUpdate("R", "a", "", "cpp").Validate())
	assert.NoError(t, NewTyping("R", "a").Validate())
	assert.Error(t, NewUpdate("R", "a", "x", "").Validate())
	assert.Error(t, CodeSyncEvent{Type: "DELETE", RoomID: "R"}.Validate())
	assert.Error(t, NewTyping("", "a").Validate())
	assert.True(t, NewUpdate("R", "a", "", "cpp").Persistent())
}
