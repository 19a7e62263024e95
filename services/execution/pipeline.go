package execution

import (
	"CodeCollab/models"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// chunkSize is the read size of the output forwarders. Output is forwarded as
// it arrives, not line by line.
const chunkSize = 1024

type State int

const (
	Staged State = iota
	Compiling
	CompileFailed
	Running
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Staged:
		return "staged"
	case Compiling:
		return "compiling"
	case CompileFailed:
		return "compile_failed"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type Config struct {
	// Language is the only language tag accepted, compared case-insensitively
	Language       string
	CompilerPath   string
	CompileTimeout time.Duration
	RunTimeout     time.Duration
	// WorkspaceRoot is where scratch directories are created, os.TempDir() when empty
	WorkspaceRoot string
}

func DefaultConfig() Config {
	return Config{
		Language:       "cpp",
		CompilerPath:   "g++",
		CompileTimeout: 30 * time.Second,
		RunTimeout:     5 * time.Minute,
	}
}

var languageNames = map[string]string{
	"cpp": "C++",
	"c":   "C",
}

// displayName is used in user facing messages
func (c Config) displayName() string {
	if name, ok := languageNames[strings.ToLower(c.Language)]; ok {
		return name
	}
	return c.Language
}

type Request struct {
	ConnID   string
	RunID    uint64
	Language string
	Source   string
	// Stdin, when set, is written up front and stdin is closed after it.
	// Interactive runs leave it nil and feed input through the Manager.
	Stdin *string
}

// Outcome is the terminal state of a run. ExitCode is -1 when no process ran.
type Outcome struct {
	State    State
	ExitCode int
}

// runRegistry is the part of the Manager the pipeline needs
type runRegistry interface {
	attachRun(connID string, runID uint64, s *ProcessSession) bool
	release(connID string, runID uint64)
}

// Pipeline stages a source file, compiles it and runs the result, streaming
// every output chunk to the caller.
type Pipeline struct {
	cfg      Config
	sessions runRegistry
}

func NewPipeline(cfg Config, sessions runRegistry) *Pipeline {
	return &Pipeline{cfg: cfg, sessions: sessions}
}

// Run drives one request to a terminal state, sending output to out.
// The workspace is always removed and the run released before Run returns.
func (p *Pipeline) Run(ctx context.Context, req Request, out chan<- models.ExecOutput) (Outcome, error) {
	defer p.sessions.release(req.ConnID, req.RunID)

	emit := func(text string, isError bool) {
		out <- models.ExecOutput{RunID: req.RunID, Output: text, IsError: isError}
	}
	fail := func(state State, err error) (Outcome, error) {
		emit(err.Error(), true)
		log.Printf("[EXEC-ERROR] Run %d of %s: %v", req.RunID, req.ConnID, err)
		return Outcome{State: state, ExitCode: -1}, err
	}

	if !strings.EqualFold(strings.TrimSpace(req.Language), p.cfg.Language) {
		return fail(Failed, &UnsupportedLanguageError{Supported: p.cfg.displayName()})
	}

	// Staged
	workspace, err := os.MkdirTemp(p.cfg.WorkspaceRoot, "codecollab-compiler-*")
	if err != nil {
		return fail(Failed, fmt.Errorf("%w: creating workspace: %v", ErrProcessIO, err))
	}
	defer p.teardown(workspace)

	source := filepath.Join(workspace, "main."+strings.ToLower(p.cfg.Language))
	binary := filepath.Join(workspace, "main")
	if err := os.WriteFile(source, []byte(req.Source), 0o644); err != nil {
		return fail(Failed, fmt.Errorf("%w: writing source: %v", ErrProcessIO, err))
	}

	// Compiling
	if state, err := p.compile(ctx, workspace, source, binary); err != nil {
		return fail(state, err)
	}

	// Running
	runCtx, cancel := context.WithTimeout(ctx, p.cfg.RunTimeout)
	defer cancel()

	session, err := Spawn(runCtx, workspace, binary)
	if err != nil {
		return fail(Failed, err)
	}
	if !p.sessions.attachRun(req.ConnID, req.RunID, session) {
		session.Kill()
		io.Copy(io.Discard, session.Stdout())
		io.Copy(io.Discard, session.Stderr())
		session.Wait()
		return Outcome{State: Failed, ExitCode: -1}, ErrCancelled
	}
	if req.Stdin != nil {
		go feed(session, *req.Stdin)
	}

	var g errgroup.Group
	g.Go(func() error { return forward(session.Stdout(), false, emit) })
	g.Go(func() error { return forward(session.Stderr(), true, emit) })
	forwardErr := g.Wait()

	code, waitErr := session.Wait()

	state := Completed
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		state = Failed
		emit(fmt.Sprintf("%v after %s", ErrTimeout, p.cfg.RunTimeout), true)
	}
	if err := errors.Join(forwardErr, waitErr); err != nil {
		state = Failed
		emit(err.Error(), true)
		log.Printf("[EXEC-ERROR] Run %d of %s: %v", req.RunID, req.ConnID, err)
	}
	emit(fmt.Sprintf("\nProcess finished with exit code %d", code), false)
	return Outcome{State: state, ExitCode: code}, nil
}

// feed writes a one-shot input then closes stdin. A process that exits
// without reading its input is not an error.
func feed(s *ProcessSession, input string) {
	if input != "" {
		if _, err := s.Write([]byte(input)); err != nil {
			log.Printf("[EXEC] Run %d stopped reading input: %v", s.runID, err)
		}
	}
	s.CloseInput()
}

func (p *Pipeline) compile(ctx context.Context, workspace, source, binary string) (State, error) {
	compileCtx, cancel := context.WithTimeout(ctx, p.cfg.CompileTimeout)
	defer cancel()

	cmd := exec.CommandContext(compileCtx, p.cfg.CompilerPath, source, "-o", binary)
	cmd.Dir = workspace
	setProcAttrs(cmd)
	cmd.Cancel = func() error { return killGroup(cmd) }
	cmd.WaitDelay = waitDelay

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return Compiling, nil
	}
	switch {
	case errors.Is(compileCtx.Err(), context.DeadlineExceeded):
		return Failed, fmt.Errorf("%w: compilation exceeded %s", ErrTimeout, p.cfg.CompileTimeout)
	case ctx.Err() != nil:
		return Failed, ErrCancelled
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if stderr.Len() == 0 {
			return CompileFailed, fmt.Errorf("%w with exit code %d", ErrCompileFailed, exitCode(cmd.ProcessState))
		}
		return CompileFailed, &CompileError{Stderr: stderr.String()}
	}
	return Failed, fmt.Errorf("%w: running compiler: %v", ErrProcessIO, err)
}

// teardown never fails the run: by now the caller has seen a terminal event
func (p *Pipeline) teardown(workspace string) {
	if err := os.RemoveAll(workspace); err != nil {
		log.Printf("[EXEC-ERROR] Removing workspace %s: %v", workspace, err)
	}
}

// forward copies r to emit in raw chunks until end of stream
func forward(r io.Reader, isError bool, emit func(string, bool)) error {
	buf := make([]byte, chunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			emit(string(buf[:n]), isError)
		}
		if err == io.EOF || errors.Is(err, os.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: reading output: %v", ErrProcessIO, err)
		}
	}
}
