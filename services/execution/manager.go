package execution

import (
	"CodeCollab/models"
	"context"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// outputBuffer is the capacity of the per-run output channel
const outputBuffer = 64

type entry struct {
	runID   uint64
	cancel  context.CancelFunc
	session *ProcessSession
}

// Manager maps connection ids to their execution session. A connection has at
// most one run in flight: starting a new one, or detaching, kills the previous.
type Manager struct {
	mu       sync.Mutex
	entries  map[string]*entry
	nextRun  uint64
	pipeline *Pipeline
}

func NewManager(cfg Config) *Manager {
	m := &Manager{entries: make(map[string]*entry)}
	m.pipeline = NewPipeline(cfg, m)
	return m
}

// Execute starts a compile and run for connID. The returned channel carries
// every output event and is closed once the workspace has been removed.
func (m *Manager) Execute(ctx context.Context, connID, language, source string) <-chan models.ExecOutput {
	runCtx, cancel := context.WithCancel(ctx)

	m.mu.Lock()
	m.nextRun++
	runID := m.nextRun
	prev := m.entries[connID]
	m.entries[connID] = &entry{runID: runID, cancel: cancel}
	m.mu.Unlock()

	if prev != nil {
		log.Printf("[EXEC] Replacing run %d of %s", prev.runID, connID)
		stop(prev)
	}

	out := make(chan models.ExecOutput, outputBuffer)
	go func() {
		defer close(out)
		m.pipeline.Run(runCtx, Request{ConnID: connID, RunID: runID, Language: language, Source: source}, out)
	}()
	return out
}

// Supports reports whether language compiles locally
func (m *Manager) Supports(language string) bool {
	return strings.EqualFold(strings.TrimSpace(language), m.pipeline.cfg.Language)
}

// Result is the collected output of a non interactive run
type Result struct {
	Output   string `json:"output"`
	IsError  bool   `json:"error"`
	ExitCode int    `json:"exitCode"`
}

// RunOnce compiles and runs source with input as its whole stdin and blocks
// until the workspace is gone. The run is not bound to any connection.
func (m *Manager) RunOnce(ctx context.Context, language, source, input string) (Result, error) {
	connID := "once-" + uuid.NewString()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	m.mu.Lock()
	m.nextRun++
	runID := m.nextRun
	m.entries[connID] = &entry{runID: runID, cancel: cancel}
	m.mu.Unlock()

	out := make(chan models.ExecOutput, outputBuffer)
	var (
		outcome Outcome
		err     error
	)
	go func() {
		defer close(out)
		outcome, err = m.pipeline.Run(runCtx, Request{ConnID: connID, RunID: runID, Language: language, Source: source, Stdin: &input}, out)
	}()

	var b strings.Builder
	isError := false
	for ev := range out {
		b.WriteString(ev.Output)
		isError = isError || ev.IsError
	}
	res := Result{Output: b.String(), IsError: isError || outcome.State != Completed || outcome.ExitCode != 0, ExitCode: outcome.ExitCode}
	return res, err
}

// Attach binds an already running process to connID, killing whatever was attached before
func (m *Manager) Attach(connID string, s *ProcessSession) {
	m.mu.Lock()
	m.nextRun++
	s.runID = m.nextRun
	prev := m.entries[connID]
	m.entries[connID] = &entry{runID: s.runID, cancel: func() {}, session: s}
	m.mu.Unlock()

	if prev != nil {
		stop(prev)
	}
}

// attachRun binds s to the run that spawned it. It fails when the run was
// superseded or detached while compiling.
func (m *Manager) attachRun(connID string, runID uint64, s *ProcessSession) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[connID]
	if !ok || e.runID != runID {
		return false
	}
	s.runID = runID
	e.session = s
	return true
}

// release forgets runID once its pipeline finished, unless a newer run took its place
func (m *Manager) release(connID string, runID uint64) {
	m.mu.Lock()
	e, ok := m.entries[connID]
	if ok && e.runID == runID {
		delete(m.entries, connID)
	}
	m.mu.Unlock()

	if ok && e.runID == runID {
		stop(e)
	}
}

// InputHandleFor returns the stdin of the process attached to connID
func (m *Manager) InputHandleFor(connID string) (io.Writer, bool) {
	s, ok := m.Session(connID)
	if !ok {
		return nil, false
	}
	return s, true
}

func (m *Manager) Session(connID string) (*ProcessSession, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[connID]
	if !ok || e.session == nil {
		return nil, false
	}
	return e.session, true
}

// Detach kills the run of connID, compiling or running, and removes it
func (m *Manager) Detach(connID string) {
	m.mu.Lock()
	e, ok := m.entries[connID]
	delete(m.entries, connID)
	m.mu.Unlock()

	if ok {
		log.Printf("[EXEC] Detaching run %d of %s", e.runID, connID)
		stop(e)
	}
}

// ForwardInput writes text and a newline to the process of connID.
// Input for a connection without a process is dropped.
func (m *Manager) ForwardInput(connID, text string) error {
	s, ok := m.Session(connID)
	if !ok {
		return nil
	}
	_, err := s.Write([]byte(text + "\n"))
	return err
}

// Shutdown kills every run
func (m *Manager) Shutdown() {
	m.mu.Lock()
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	for _, e := range entries {
		stop(e)
	}
}

func stop(e *entry) {
	e.cancel()
	if e.session != nil {
		e.session.Kill()
	}
}
