package bridge

import (
	"errors"
	"fmt"
)

var (
	// ErrTransportRequired is returned by New when no transport is supplied.
	ErrTransportRequired = errors.New("bridge must be initialized with a transport")
	// ErrFileListerRequired is returned by New when no local file lister is supplied.
	ErrFileListerRequired = errors.New("bridge must be initialized with a file lister")
	// ErrRequestRequired is returned by Push when the deployment request is nil.
	ErrRequestRequired = errors.New("deployment request must be provided")
)

// TransportError reports that the underlying shell or push call itself failed.
// It unwraps to the transport's error, so errors.Is keeps matching the cause.
type TransportError struct {
	// Op is the transport primitive that failed ("shell" or "push").
	Op string
	// Command is the shell command or the "local -> remote" pair.
	Command string
	// Err is the error returned by the transport.
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sdb %s %q: %v", e.Op, e.Command, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// PushVerificationError reports a push the transport claimed to complete
// while its stderr carried a known failure marker.
type PushVerificationError struct {
	LocalPath  string
	RemotePath string
	// Marker is the failure marker found in Stderr.
	Marker string
	Stderr string
}

func (e *PushVerificationError) Error() string {
	return fmt.Sprintf("push %s to %s failed: %s", e.LocalPath, e.RemotePath, e.Marker)
}

// EnumerationError reports that the local glob could not be expanded.
type EnumerationError struct {
	Pattern string
	Err     error
}

func (e *EnumerationError) Error() string {
	return fmt.Sprintf("list local files %q: %v", e.Pattern, e.Err)
}

func (e *EnumerationError) Unwrap() error {
	return e.Err
}
