package bridge

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshokin/sdb-bridge/internal/logger"
)

const (
	// missingFileMarker is printed by stat and ls when the path does not exist.
	missingFileMarker = "No such file or directory"

	opShell = "shell"
	opPush  = "push"
)

// Transport runs primitive operations on the device.
// Implementations return raw text without bridge protocol framing.
type Transport interface {
	Shell(ctx context.Context, command string) (stdout, stderr string, err error)
	Push(ctx context.Context, localPath, remotePath string) (stdout, stderr string, err error)
}

// FileLister expands a local glob pattern into an ordered list of files.
type FileLister interface {
	List(ctx context.Context, pattern string) ([]string, error)
}

// Bridge deploys local artifacts to a device through a Transport.
type Bridge struct {
	transport Transport
	lister    FileLister
}

// New creates a Bridge over the provided collaborators.
func New(transport Transport, lister FileLister) (*Bridge, error) {
	if transport == nil {
		return nil, ErrTransportRequired
	}

	if lister == nil {
		return nil, ErrFileListerRequired
	}

	return &Bridge{
		transport: transport,
		lister:    lister,
	}, nil
}

// FileExists runs stat on the device and reports whether remotePath exists.
// Only stdout is inspected: the exit status is not trusted over sdb.
func (b *Bridge) FileExists(ctx context.Context, remotePath string) (bool, error) {
	stdout, err := b.shell(ctx, "stat "+remotePath)
	if err != nil {
		return false, err
	}

	return !strings.Contains(stdout, missingFileMarker), nil
}

// Chmod changes the mode of remotePath. The command output is not inspected.
func (b *Bridge) Chmod(ctx context.Context, remotePath, mode string) error {
	_, err := b.shell(ctx, fmt.Sprintf("chmod %s %s", mode, remotePath))

	return err
}

// ListRemoteFiles resolves spec into remote paths.
//
// Literal paths are returned as-is without contacting the device and without
// checking that they exist. Patterns are listed with "ls -1 -c", which puts
// the most recently changed file first; FilterLatest keeps only that one.
// A pattern matching nothing yields an empty list.
func (b *Bridge) ListRemoteFiles(ctx context.Context, spec FileSpec) ([]string, error) {
	if !spec.IsPattern() {
		return spec.Paths, nil
	}

	stdout, err := b.shell(ctx, "ls -1 -c "+spec.Pattern)
	if err != nil {
		return nil, err
	}

	files := listedFiles(stdout)

	if spec.Filter == FilterLatest && len(files) > 1 {
		files = files[:1]
	}

	return files, nil
}

// shell runs command on the device and wraps transport failures.
func (b *Bridge) shell(ctx context.Context, command string) (string, error) {
	logger.DebugKV(ctx, "Running device command", "command", command)

	stdout, _, err := b.transport.Shell(ctx, command)
	if err != nil {
		return "", &TransportError{Op: opShell, Command: command, Err: err}
	}

	return stdout, nil
}

// listedFiles splits listing output into file names, tolerating CRLF.
// Empty lines and the diagnostic ls prints for an unmatched pattern are dropped.
func listedFiles(output string) []string {
	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.Contains(line, missingFileMarker) {
			continue
		}

		result = append(result, line)
	}

	return result
}
