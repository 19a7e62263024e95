package execution

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"
)

// waitDelay bounds how long Wait waits for pipes after the process was killed
const waitDelay = 2 * time.Second

// ProcessSession is one running external process bound to a connection.
// Writes to stdin are serialized, the output pipes are meant to be drained by
// exactly one reader each.
type ProcessSession struct {
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	stdout    io.ReadCloser
	stderr    io.ReadCloser
	workspace string
	runID     uint64

	writeMu sync.Mutex
	exited  chan struct{}
}

// Spawn starts name in dir with all three standard streams piped.
// Cancelling ctx kills the whole process group.
func Spawn(ctx context.Context, dir, name string, args ...string) (*ProcessSession, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	setProcAttrs(cmd)
	cmd.Cancel = func() error { return killGroup(cmd) }
	cmd.WaitDelay = waitDelay

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %v", ErrProcessIO, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrProcessIO, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stderr pipe: %v", ErrProcessIO, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrProcessIO, name, err)
	}

	return &ProcessSession{
		cmd:       cmd,
		stdin:     stdin,
		stdout:    stdout,
		stderr:    stderr,
		workspace: dir,
		exited:    make(chan struct{}),
	}, nil
}

// Write sends p to the process stdin
func (s *ProcessSession) Write(p []byte) (int, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	n, err := s.stdin.Write(p)
	if err != nil {
		return n, fmt.Errorf("%w: writing stdin: %v", ErrProcessIO, err)
	}
	return n, nil
}

// CloseInput closes stdin so the process reads end of file
func (s *ProcessSession) CloseInput() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.stdin.Close()
}

func (s *ProcessSession) Stdout() io.Reader { return s.stdout }

func (s *ProcessSession) Stderr() io.Reader { return s.stderr }

func (s *ProcessSession) Pid() int { return s.cmd.Process.Pid }

func (s *ProcessSession) Workspace() string { return s.workspace }

// Alive reports whether Wait has not returned yet
func (s *ProcessSession) Alive() bool {
	select {
	case <-s.exited:
		return false
	default:
		return true
	}
}

// Kill terminates the process group. Killing an exited process is a no-op.
func (s *ProcessSession) Kill() {
	if !s.Alive() {
		return
	}
	if err := killGroup(s.cmd); err != nil && !errors.Is(err, os.ErrProcessDone) {
		log.Printf("[EXEC-ERROR] Killing pid %d: %v", s.Pid(), err)
	}
}

// Wait reaps the process and returns its exit code. Both output pipes must
// have been drained before calling it.
func (s *ProcessSession) Wait() (int, error) {
	defer close(s.exited)
	err := s.cmd.Wait()
	code := exitCode(s.cmd.ProcessState)
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) && !errors.Is(err, exec.ErrWaitDelay) {
		return code, fmt.Errorf("%w: waiting for process: %v", ErrProcessIO, err)
	}
	return code, nil
}
