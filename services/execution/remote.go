package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var ErrRemoteUnavailable = errors.New("remote execution unavailable")

// RemoteRunner executes code on a Piston compatible HTTP API. It serves the
// one-shot endpoint for languages the local toolchain does not compile.
type RemoteRunner struct {
	url    string
	client *http.Client
}

func NewRemoteRunner(url string, timeout time.Duration) *RemoteRunner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &RemoteRunner{url: url, client: &http.Client{Timeout: timeout}}
}

type pistonFile struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

type pistonRequest struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Files    []pistonFile `json:"files"`
	Stdin    string       `json:"stdin"`
}

type pistonStage struct {
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
	Output string `json:"output"`
	Code   *int   `json:"code"`
	Signal string `json:"signal"`
}

type pistonResponse struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Run      pistonStage  `json:"run"`
	Compile  *pistonStage `json:"compile"`
	Message  string       `json:"message"`
}

var remoteFileNames = map[string]string{
	"javascript": "main.js",
	"typescript": "main.ts",
	"python":     "main.py",
	"java":       "Main.java",
	"go":         "main.go",
	"c":          "main.c",
	"cpp":        "main.cpp",
	"rust":       "main.rs",
}

func remoteFileName(language string) string {
	if name, ok := remoteFileNames[language]; ok {
		return name
	}
	return "main"
}

func (r *RemoteRunner) Enabled() bool { return r != nil && r.url != "" }

// Run posts the source and maps the reply to a Result
func (r *RemoteRunner) Run(ctx context.Context, language, source, input string) (Result, error) {
	if !r.Enabled() {
		return Result{}, ErrRemoteUnavailable
	}
	language = strings.ToLower(strings.TrimSpace(language))
	body, err := json.Marshal(pistonRequest{
		Language: language,
		Version:  "*",
		Files:    []pistonFile{{Name: remoteFileName(language), Content: source}},
		Stdin:    input,
	})
	if err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Result{}, fmt.Errorf("%w: reading reply: %v", ErrRemoteUnavailable, err)
	}
	var reply pistonResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		return Result{}, fmt.Errorf("%w: status %d: %v", ErrRemoteUnavailable, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		if reply.Message != "" {
			// Piston answers 400 for unknown runtimes
			return Result{Output: reply.Message, IsError: true, ExitCode: -1}, nil
		}
		return Result{}, fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	if c := reply.Compile; c != nil && c.Code != nil && *c.Code != 0 {
		return Result{Output: c.Stderr + c.Stdout, IsError: true, ExitCode: -1}, nil
	}
	res := Result{Output: reply.Run.Output, ExitCode: -1}
	if res.Output == "" {
		res.Output = reply.Run.Stdout + reply.Run.Stderr
	}
	if reply.Run.Code != nil {
		res.ExitCode = *reply.Run.Code
	}
	res.IsError = res.ExitCode != 0 || reply.Run.Stderr != "" || reply.Run.Signal != ""
	return res, nil
}
