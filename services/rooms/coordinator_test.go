package rooms

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCoordinator() *Coordinator {
	return NewCoordinator(NewRegistry(NewMemoryStore(), newFakeCache()), DefaultMinPasswordLength).
		WithHashCost(bcrypt.MinCost)
}

func TestCreateRoom(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator()

	view, err := c.CreateRoom(ctx, "Interview", "abcd", "alice")
	require.NoError(t, err)

	assert.Len(t, view.RoomID, CodeLength)
	assert.Equal(t, []string{"alice"}, view.ActiveUsers)
	assert.Equal(t, "abcd", view.Password)
	assert.Equal(t, "Interview", view.Name)
	assert.Equal(t, DefaultLanguage, view.CurrentLanguage)
	assert.True(t, view.IsActive)

	stored, err := c.GetRoom(ctx, view.RoomID)
	require.NoError(t, err)
	assert.Empty(t, stored.Password)
}

func TestCreateRoomValidation(t *testing.T) {
	tests := []struct {
		name     string
		roomName string
		password string
		creator  string
	}{
		{"blank name", "   ", "abcd", "alice"},
		{"short password", "Interview", "abc", "alice"},
		{"blank creator", "Interview", "abcd", " "},
	}
	c := newTestCoordinator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.CreateRoom(context.Background(), tt.roomName, tt.password, tt.creator)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCreateRoomCodesAreDistinct(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		view, err := c.CreateRoom(ctx, fmt.Sprintf("room-%d", i), "abcd", "alice")
		require.NoError(t, err)
		assert.False(t, seen[view.RoomID], "duplicate code %s", view.RoomID)
		seen[view.RoomID] = true
	}
}

func TestJoinRoomIsIdempotent(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator()
	created, err := c.CreateRoom(ctx, "Interview", "abcd", "alice")
	require.NoError(t, err)

	joined, err := c.JoinRoom(ctx, strings.ToLower(created.RoomID), "abcd", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, joined.ActiveUsers)
	assert.Empty(t, joined.Password)

	again, err := c.JoinRoom(ctx, created.RoomID, "abcd", "bob")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, again.ActiveUsers)
}

func TestJoinRoomFailures(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator()
	created, err := c.CreateRoom(ctx, "Interview", "abcd", "alice")
	require.NoError(t, err)

	_, err = c.JoinRoom(ctx, created.RoomID, "wrong", "bob")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	count, err := c.GetUsersCount(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, 1, count.UsersCount)

	_, err = c.JoinRoom(ctx, "ZZZZZZ", "abcd", "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.JoinRoom(ctx, created.RoomID, "abcd", "")
	assert.ErrorIs(t, err, ErrValidation)

	require.NoError(t, c.Deactivate(ctx, created.RoomID))
	_, err = c.JoinRoom(ctx, created.RoomID, "abcd", "bob")
	assert.ErrorIs(t, err, ErrInactive)
}

func TestLeaveRoom(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator()
	created, err := c.CreateRoom(ctx, "Interview", "abcd", "alice")
	require.NoError(t, err)
	_, err = c.JoinRoom(ctx, created.RoomID, "abcd", "bob")
	require.NoError(t, err)

	require.NoError(t, c.LeaveRoom(ctx, created.RoomID, "carol"))
	count, err := c.GetUsersCount(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, 2, count.UsersCount)

	require.NoError(t, c.LeaveRoom(ctx, created.RoomID, "bob"))
	count, err = c.GetUsersCount(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, count.Users)

	assert.ErrorIs(t, c.LeaveRoom(ctx, "ZZZZZZ", "bob"), ErrNotFound)
}

func TestUpdateCodeReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator()
	created, err := c.CreateRoom(ctx, "Interview", "abcd", "alice")
	require.NoError(t, err)

	require.NoError(t, c.UpdateCode(ctx, created.RoomID, "int main() { return 0; }", "cpp"))

	room, err := c.GetRoom(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, "int main() { return 0; }", room.CurrentCode)
	assert.Equal(t, "cpp", room.CurrentLanguage)
	assert.False(t, room.LastActivity.Before(created.LastActivity))

	require.NoError(t, c.UpdateCode(ctx, created.RoomID, "", ""))
	room, err = c.GetRoom(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, "", room.CurrentCode)
	assert.Equal(t, "cpp", room.CurrentLanguage)
}

func TestUpdateCodeUnknownRoomIsNoop(t *testing.T) {
	c := newTestCoordinator()
	assert.NoError(t, c.UpdateCode(context.Background(), "GONE22", "x", "cpp"))

	_, err := c.GetRoom(context.Background(), "GONE22")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestConcurrentJoinsKeepEveryMember(t *testing.T) {
	ctx := context.Background()
	c := newTestCoordinator()
	created, err := c.CreateRoom(ctx, "Busy", "abcd", "alice")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := c.JoinRoom(ctx, created.RoomID, "abcd", fmt.Sprintf("user-%d", i%15))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	count, err := c.GetUsersCount(ctx, created.RoomID)
	require.NoError(t, err)
	assert.Equal(t, 16, count.UsersCount)
	assert.Equal(t, 0, c.locks.size())
}
