// Package lock keeps two deployments from talking to the device at once.
//
// A marker file holds the PID of the deploying process and is created
// exclusively. A marker is stale, and may be taken over, once that process
// is gone or the marker is older than MaxAge.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/sdb-bridge/internal/logger"
)

const (
	// DefaultFilename is the marker name inside the temporary directory.
	DefaultFilename = "sdb-bridge-deploy.lock"

	// MaxAge is the period after which a marker is ignored even if its owner is alive.
	MaxAge = 10 * time.Minute

	markerFileMode os.FileMode = 0o600
)

// ErrLocked is returned when another live deployment holds the marker.
var ErrLocked = errors.New("another deployment is running")

// Lock is an acquired deployment marker.
type Lock struct {
	path string
	pid  string
}

// processAlive reports whether a process with the PID exists.
//
//nolint:gochecknoglobals // Replaced in tests.
var processAlive = func(pid int) (bool, error) {
	process, err := ps.FindProcess(pid)
	if err != nil {
		return false, err
	}

	return process != nil, nil
}

// DefaultPath returns the marker location in the OS temporary directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), DefaultFilename)
}

// Acquire exclusively creates the marker at path. A stale marker is removed
// and the exclusive create is retried once.
func Acquire(ctx context.Context, path string) (*Lock, error) {
	if path == "" {
		path = DefaultPath()
	}

	path = filepath.Clean(path)
	pid := strconv.Itoa(os.Getpid())

	err := create(path, pid)
	if errors.Is(err, os.ErrExist) {
		var held bool

		held, err = isHeld(ctx, path)
		if err != nil {
			return nil, err
		}

		if held {
			return nil, ErrLocked
		}

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("remove stale deployment marker: %w", err)
		}

		err = create(path, pid)
	}

	if errors.Is(err, os.ErrExist) {
		return nil, ErrLocked
	}

	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Deployment marker acquired", "path", path, "pid", pid)

	return &Lock{path: path, pid: pid}, nil
}

// Release removes the marker if it still belongs to this lock.
// Releasing a nil lock is a no-op.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}

	contents, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read deployment marker: %w", err)
	}

	// Someone took the marker over after it went stale.
	if strings.TrimSpace(string(contents)) != l.pid {
		return nil
	}

	if err = os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove deployment marker: %w", err)
	}

	return nil
}

// create writes pid into a marker that must not exist yet.
func create(path, pid string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, markerFileMode)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return err
		}

		return fmt.Errorf("create deployment marker: %w", err)
	}

	_, err = file.WriteString(pid)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write deployment marker: %w", err)
	}

	return nil
}

// isHeld reports whether the existing marker at path belongs to a live
// deployment. A fresh marker without a readable PID is still being written
// and counts as held.
func isHeld(ctx context.Context, path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("stat deployment marker: %w", err)
	}

	if time.Since(info.ModTime()) > MaxAge {
		logger.InfoKV(ctx, "Deployment marker is too old, taking it over", "path", path)
		return false, nil
	}

	contents, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("read deployment marker: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err != nil {
		return true, nil
	}

	alive, err := processAlive(pid)
	if err != nil {
		return false, fmt.Errorf("look up process %d: %w", pid, err)
	}

	if !alive {
		logger.InfoKV(ctx, "Deployment marker owner is gone, taking it over", "path", path, "pid", pid)
	}

	return alive, nil
}
