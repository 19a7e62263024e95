package collab

import (
	"CodeCollab/models"
	"CodeCollab/services/broadcast"
	"CodeCollab/services/execution"
	"CodeCollab/services/messages"
	"CodeCollab/services/rooms"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type event struct {
	channel string
	payload any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) Send(channel string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{channel, payload})
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) on(channel string) []any {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []any
	for _, ev := range r.events {
		if ev.channel == channel {
			out = append(out, ev.payload)
		}
	}
	return out
}

func (r *recorder) waitOn(t *testing.T, channel string, n int) []any {
	t.Helper()
	require.Eventually(t, func() bool { return len(r.on(channel)) >= n }, 2*time.Second, 5*time.Millisecond)
	return r.on(channel)
}

type fixture struct {
	svc      *Service
	rooms    *rooms.Coordinator
	messages *messages.MemoryStore
	roomID   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithExec(t, execution.DefaultConfig())
}

func newFixtureWithExec(t *testing.T, cfg execution.Config) *fixture {
	t.Helper()
	coordinator := rooms.NewCoordinator(rooms.NewRegistry(rooms.NewMemoryStore(), nil), 4).
		WithHashCost(bcrypt.MinCost)
	store := messages.NewMemoryStore()
	router := broadcast.NewRouter(0)
	t.Cleanup(router.Close)
	exec := execution.NewManager(cfg)
	t.Cleanup(exec.Shutdown)

	room, err := coordinator.CreateRoom(context.Background(), "Interview", "abcd", "alice")
	require.NoError(t, err)

	return &fixture{
		svc:      NewService(coordinator, router, exec, store),
		rooms:    coordinator,
		messages: store,
		roomID:   room.RoomID,
	}
}

func (f *fixture) connect(t *testing.T, connID, username string) *recorder {
	t.Helper()
	rec := &recorder{}
	f.svc.Connect(connID, rec, "")
	require.NoError(t, f.svc.AddUser(context.Background(), connID, models.ChatEvent{
		Type: models.ChatJoin, Sender: username, RoomID: f.roomID,
	}))
	return rec
}

func TestDisconnectPublishesLeave(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "c-alice", "alice")
	f.connect(t, "c-bob", "bob")

	f.svc.Disconnect("c-bob")

	events := alice.waitOn(t, broadcast.RoomChat(f.roomID), 3)
	assert.Equal(t, models.NewLeave(f.roomID, "bob"), events[2])

	// a second disconnect of the same connection is silent
	f.svc.Disconnect("c-bob")
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, alice.on(broadcast.RoomChat(f.roomID)), 3)
}

func TestDisconnectWithoutUsernameIsSilent(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "c-alice", "alice")
	f.svc.Connect("c-anon", &recorder{}, "")

	f.svc.Disconnect("c-anon")
	time.Sleep(20 * time.Millisecond)

	assert.Empty(t, alice.on(broadcast.GlobalChat))
}

func TestSyncCodePersistsOnlyUpdates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.connect(t, "c-alice", "alice")
	bob := f.connect(t, "c-bob", "bob")

	require.NoError(t, f.svc.SyncCode(ctx, "c-alice", models.NewUpdate(f.roomID, "", "int x;", "cpp")))
	require.NoError(t, f.svc.SyncCode(ctx, "c-alice", models.NewCursorActivity(f.roomID, "", models.Cursor{Line: 1, Ch: 2}, nil)))

	events := bob.waitOn(t, broadcast.RoomCode(f.roomID), 2)
	update := events[0].(models.CodeSyncEvent)
	assert.Equal(t, models.CodeUpdate, update.Type)
	assert.Equal(t, "alice", update.Sender)
	assert.Equal(t, models.CodeCursorActivity, events[1].(models.CodeSyncEvent).Type)

	room, err := f.rooms.GetRoom(ctx, f.roomID)
	require.NoError(t, err)
	assert.Equal(t, "int x;", room.CurrentCode)
	assert.Equal(t, "cpp", room.CurrentLanguage)

	err = f.svc.SyncCode(ctx, "c-alice", models.CodeSyncEvent{Type: "ERASE", RoomID: f.roomID})
	assert.ErrorIs(t, err, rooms.ErrValidation)
}

func TestSendMessagePersistsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.connect(t, "c-alice", "alice")

	require.NoError(t, f.svc.SendMessage(ctx, "c-alice", models.ChatEvent{Content: "hello"}))
	assert.ErrorIs(t, f.svc.SendMessage(ctx, "c-alice", models.ChatEvent{Content: "  "}), ErrEmptyMessage)

	events := alice.waitOn(t, broadcast.RoomChat(f.roomID), 2)
	assert.Equal(t, models.NewChat(f.roomID, "alice", "hello"), events[1])

	history, err := f.messages.History(ctx, f.roomID, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
}

func TestLeaveRoomStopsRoomTraffic(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.connect(t, "c-alice", "alice")
	bob := f.connect(t, "c-bob", "bob")

	require.NoError(t, f.svc.LeaveRoom(ctx, "c-bob", models.ChatEvent{Type: models.ChatLeave}))
	alice.waitOn(t, broadcast.RoomChat(f.roomID), 3)

	require.NoError(t, f.svc.SendMessage(ctx, "c-alice", models.ChatEvent{Content: "still here?"}))
	alice.waitOn(t, broadcast.RoomChat(f.roomID), 4)
	assert.Len(t, bob.waitOn(t, broadcast.RoomChat(f.roomID), 2), 2)
}

func TestAddUserUnknownRoom(t *testing.T) {
	f := newFixture(t)
	f.svc.Connect("c-1", &recorder{}, "")

	err := f.svc.AddUser(context.Background(), "c-1", models.ChatEvent{Sender: "eve", RoomID: "NOPE22"})
	assert.ErrorIs(t, err, rooms.ErrNotFound)
	assert.ErrorIs(t, f.svc.AddUser(context.Background(), "c-1", models.ChatEvent{}), ErrMissingSender)
}

func TestExecutionOutputIsPrivate(t *testing.T) {
	f := newFixture(t)
	alice := f.connect(t, "c-alice", "alice")
	bob := f.connect(t, "c-bob", "bob")

	f.svc.RunCode("c-alice", "python", "print(1)")

	events := alice.waitOn(t, broadcast.Exec("c-alice"), 1)
	out := events[0].(models.ExecOutput)
	assert.Equal(t, "Only C++ is supported.", out.Output)
	assert.True(t, out.IsError)
	assert.NotZero(t, out.RunID)
	assert.Empty(t, bob.on(broadcast.Exec("c-alice")))
}

func TestSubscribeRules(t *testing.T) {
	f := newFixture(t)
	f.svc.Connect("c-1", &recorder{}, "")
	f.svc.Connect("c-2", &recorder{}, "")

	assert.ErrorIs(t, f.svc.Subscribe("c-1", broadcast.Exec("c-2")), ErrForbiddenChannel)
	assert.ErrorIs(t, f.svc.Subscribe("c-1", "/topic/public"), ErrForbiddenChannel)
	assert.NoError(t, f.svc.Subscribe("c-1", broadcast.RoomChat(f.roomID)))
	assert.Error(t, f.svc.Subscribe("ghost", broadcast.GlobalChat))
}
