package execution

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrCompileFailed       = errors.New("compilation failed")
	ErrProcessIO           = errors.New("process i/o error")
	ErrTimeout             = errors.New("execution timed out")
	ErrCancelled           = errors.New("execution cancelled")
)

// CompileError carries the compiler's diagnostics verbatim
type CompileError struct {
	Stderr string
}

func (e *CompileError) Error() string { return e.Stderr }

func (e *CompileError) Unwrap() error { return ErrCompileFailed }

type UnsupportedLanguageError struct {
	Supported string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("Only %s is supported.", e.Supported)
}

func (e *UnsupportedLanguageError) Unwrap() error { return ErrUnsupportedLanguage }
