//go:build unix

package execution

import (
	"bufio"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spawnCat(t *testing.T) *ProcessSession {
	t.Helper()
	s, err := Spawn(context.Background(), t.TempDir(), "cat")
	require.NoError(t, err)
	go io.Copy(io.Discard, s.Stderr())
	return s
}

func TestAttachAndForwardInput(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := spawnCat(t)
	m.Attach("conn-1", s)

	handle, ok := m.InputHandleFor("conn-1")
	require.True(t, ok)
	assert.Same(t, s, handle)

	require.NoError(t, m.ForwardInput("conn-1", "hello"))
	line, err := bufio.NewReader(s.Stdout()).ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "hello\n", line)

	m.Detach("conn-1")
	_, err = s.Wait()
	require.NoError(t, err)
	assert.False(t, s.Alive())

	_, ok = m.InputHandleFor("conn-1")
	assert.False(t, ok)
}

func TestForwardInputWithoutSessionIsNoop(t *testing.T) {
	m := NewManager(DefaultConfig())
	assert.NoError(t, m.ForwardInput("nobody", "hi"))
}

func TestAttachReplacesPreviousSession(t *testing.T) {
	m := NewManager(DefaultConfig())
	first := spawnCat(t)
	second := spawnCat(t)

	m.Attach("conn-1", first)
	m.Attach("conn-1", second)

	done := make(chan struct{})
	go func() {
		io.Copy(io.Discard, first.Stdout())
		first.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("replaced session still running")
	}

	current, ok := m.Session("conn-1")
	require.True(t, ok)
	assert.Same(t, second, current)

	m.Shutdown()
	io.Copy(io.Discard, second.Stdout())
	second.Wait()
	_, ok = m.Session("conn-1")
	assert.False(t, ok)
}

func TestConcurrentInputIsNotInterleaved(t *testing.T) {
	m := NewManager(DefaultConfig())
	s := spawnCat(t)
	m.Attach("conn-1", s)
	defer func() {
		m.Detach("conn-1")
		io.Copy(io.Discard, s.Stdout())
		s.Wait()
	}()

	const writers, lines = 8, 50
	payload := "0123456789abcdefghijklmnopqrstuvwxyz"
	errs := make(chan error, writers)
	for w := 0; w < writers; w++ {
		go func() {
			for i := 0; i < lines; i++ {
				if err := m.ForwardInput("conn-1", payload); err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
	}

	reader := bufio.NewReader(s.Stdout())
	for i := 0; i < writers*lines; i++ {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		require.Equal(t, payload+"\n", line)
	}
	for w := 0; w < writers; w++ {
		require.NoError(t, <-errs)
	}
}
