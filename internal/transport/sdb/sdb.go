package sdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/oshokin/sdb-bridge/internal/logger"
)

const (
	// DefaultExecutable is looked up in PATH when no explicit path is configured.
	DefaultExecutable = "sdb"

	// DefaultTimeout bounds a single sdb invocation.
	DefaultTimeout = 2 * time.Minute

	// bridgeErrorPrefix starts the diagnostics sdb prints about itself.
	bridgeErrorPrefix = "error:"
)

var (
	errExecutableRequired = errors.New("sdb executable must be provided")
	errInvalidPort        = errors.New("port must be between 1 and 65535")
)

// Runner executes a program and returns its captured output.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)

// Transport talks to a single device through the sdb executable.
type Transport struct {
	// executable is the sdb binary name or path.
	executable string
	// serial selects the device when several are attached.
	serial string
	// timeout bounds every sdb invocation; zero disables it.
	timeout time.Duration
	// log overrides the context logger when set.
	log *zap.SugaredLogger
	// run spawns the process.
	run Runner
}

// Option configures a Transport.
type Option func(*Transport)

// WithSerial targets the device with the given serial number.
func WithSerial(serial string) Option {
	return func(t *Transport) {
		t.serial = strings.TrimSpace(serial)
	}
}

// WithTimeout sets the per-call timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transport) {
		if timeout >= 0 {
			t.timeout = timeout
		}
	}
}

// WithLogger sets a dedicated logger for sdb invocations.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(t *Transport) {
		t.log = l
	}
}

// WithRunner replaces the process runner.
func WithRunner(run Runner) Option {
	return func(t *Transport) {
		if run != nil {
			t.run = run
		}
	}
}

// New creates a Transport that invokes the provided sdb executable.
func New(executable string, opts ...Option) (*Transport, error) {
	executable = strings.TrimSpace(executable)
	if executable == "" {
		return nil, errExecutableRequired
	}

	t := &Transport{
		executable: executable,
		timeout:    DefaultTimeout,
		run:        runProcess,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Shell runs command in the device shell.
//
// sdb may relay the remote exit status and route the device command's
// diagnostics to stderr. A non-zero exit is therefore not an error by itself:
// the merged stdout and stderr text is returned so callers can interpret it.
// Only a process that could not run, an expired context, or a diagnostic
// printed by sdb itself is reported as an error.
func (t *Transport) Shell(ctx context.Context, command string) (string, string, error) {
	stdout, stderr, err := t.invoke(ctx, "shell", command)

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || ctx.Err() != nil || hasBridgeDiagnostic(stdout, stderr) {
		return stdout, stderr, err
	}

	return mergeOutput(stdout, stderr), stderr, nil
}

// Push copies a local file to remotePath on the device.
func (t *Transport) Push(ctx context.Context, localPath, remotePath string) (string, string, error) {
	return t.invoke(ctx, "push", localPath, remotePath)
}

// Forward forwards a local TCP port to a device TCP port.
func (t *Transport) Forward(ctx context.Context, localPort, remotePort int) error {
	if !validPort(localPort) || !validPort(remotePort) {
		return fmt.Errorf("forward %d -> %d: %w", localPort, remotePort, errInvalidPort)
	}

	_, _, err := t.invoke(ctx, "forward",
		"tcp:"+strconv.Itoa(localPort),
		"tcp:"+strconv.Itoa(remotePort))

	return err
}

// Root switches privilege elevation for subsequent commands on or off.
func (t *Transport) Root(ctx context.Context, enable bool) error {
	state := "off"
	if enable {
		state = "on"
	}

	_, _, err := t.invoke(ctx, "root", state)

	return err
}

// Args returns the full sdb argument list for a subcommand.
func (t *Transport) Args(subcommand ...string) []string {
	args := make([]string, 0, len(subcommand)+2)
	if t.serial != "" {
		args = append(args, "-s", t.serial)
	}

	return append(args, subcommand...)
}

// invoke runs sdb with the subcommand under the configured timeout.
func (t *Transport) invoke(ctx context.Context, subcommand ...string) (string, string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	args := t.Args(subcommand...)
	log := t.logger(ctx)

	log.Debugw("Invoking sdb", "args", args)

	stdout, stderr, err := t.run(ctx, t.executable, args...)
	if err != nil {
		log.Debugw("sdb invocation failed", "args", args, "stderr", stderr, "error", err)

		return stdout, stderr, err
	}

	log.Debugw("sdb invocation completed", "args", args, "stdout", stdout, "stderr", stderr)

	return stdout, stderr, nil
}

func (t *Transport) logger(ctx context.Context) *zap.SugaredLogger {
	if t.log != nil {
		return t.log
	}

	return logger.FromContext(ctx)
}

// runProcess is the default Runner built on os/exec.
func runProcess(ctx context.Context, name string, args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return stdout.String(), stderr.String(), fmt.Errorf("run %s: %w", name, ctxErr)
		}

		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return stdout.String(), stderr.String(), fmt.Errorf("run %s: %w: %s", name, err, msg)
		}

		return stdout.String(), stderr.String(), fmt.Errorf("run %s: %w", name, err)
	}

	return stdout.String(), stderr.String(), nil
}

// hasBridgeDiagnostic reports whether sdb itself complained, e.g. "error: device not found".
func hasBridgeDiagnostic(outputs ...string) bool {
	for _, output := range outputs {
		for _, line := range strings.Split(output, "\n") {
			if strings.HasPrefix(strings.TrimSpace(line), bridgeErrorPrefix) {
				return true
			}
		}
	}

	return false
}

// mergeOutput joins stdout and stderr the way a terminal would show them.
func mergeOutput(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	case strings.HasSuffix(stdout, "\n"):
		return stdout + stderr
	default:
		return stdout + "\n" + stderr
	}
}

func validPort(port int) bool {
	return port > 0 && port <= 65535
}
