package deployer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/sdb-bridge/internal/bridge"
	"github.com/oshokin/sdb-bridge/internal/config"
	"github.com/oshokin/sdb-bridge/internal/filelister"
	"github.com/oshokin/sdb-bridge/internal/logger"
	"github.com/oshokin/sdb-bridge/internal/transport/sdb"
)

var errPatternRequired = errors.New("remote file pattern must be provided")

// Options are inputs shared by every command.
type Options struct {
	// ConfigPath is an optional path to the settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when not empty.
	LogLevel string
	// Runner replaces the sdb process runner; nil runs the real executable.
	Runner sdb.Runner
}

// service bundles the collaborators built for one command invocation.
type service struct {
	cfg       *config.Config
	transport *sdb.Transport
	bridge    *bridge.Bridge
}

// newService loads settings and builds the transport and bridge.
func newService(ctx context.Context, opts *Options) (*service, error) {
	if opts == nil {
		opts = new(Options)
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(cfg.LogLevel)
	if !ok {
		return nil, fmt.Errorf("unknown log level: %s", cfg.LogLevel)
	}

	logger.SetLevel(level)

	// An unset sdb level follows the effective application level.
	sdbLevel, ok := logger.ParseLogLevel(cfg.TransportLogLevel())
	if !ok {
		return nil, fmt.Errorf("unknown sdb log level: %s", cfg.TransportLogLevel())
	}
	sdbLogger := logger.FromContext(ctx).
		Desugar().
		WithOptions(logger.WithLevel(sdbLevel)).
		Sugar().
		Named("sdb")

	transportOptions := []sdb.Option{
		sdb.WithSerial(cfg.Serial),
		sdb.WithTimeout(cfg.Timeout),
		sdb.WithLogger(sdbLogger),
		sdb.WithRunner(opts.Runner),
	}

	transport, err := sdb.New(cfg.SDBPath, transportOptions...)
	if err != nil {
		return nil, err
	}

	b, err := bridge.New(transport, filelister.New())
	if err != nil {
		return nil, err
	}

	if opts.Runner == nil {
		logServerState(ctx)
	}

	return &service{
		cfg:       cfg,
		transport: transport,
		bridge:    b,
	}, nil
}

// logServerState reports whether the host-side sdb server is already up.
func logServerState(ctx context.Context) {
	running, err := sdb.ServerRunning()
	if err != nil {
		logger.DebugKV(ctx, "Unable to inspect running processes", "error", err)
		return
	}

	if !running {
		logger.Info(ctx, "sdb server is not running, the first call will start it")
	}
}

// ListOptions are inputs of the ls command.
type ListOptions struct {
	Options

	// Pattern is expanded on the device.
	Pattern string
	// Latest keeps only the most recently changed match.
	Latest bool
}

// List runs ls on the device for the pattern, even when it holds no glob characters.
func List(ctx context.Context, opts *ListOptions) ([]string, error) {
	ctx = logger.WithName(ctx, "sdb-bridge")

	if opts == nil || opts.Pattern == "" {
		return nil, errPatternRequired
	}

	svc, err := newService(ctx, &opts.Options)
	if err != nil {
		return nil, err
	}

	filter := bridge.FilterNone
	if opts.Latest {
		filter = bridge.FilterLatest
	}

	return svc.bridge.ListRemoteFiles(ctx, bridge.Pattern(opts.Pattern, filter))
}

// Exists reports whether remotePath exists on the device.
func Exists(ctx context.Context, opts *Options, remotePath string) (bool, error) {
	ctx = logger.WithName(ctx, "sdb-bridge")

	svc, err := newService(ctx, opts)
	if err != nil {
		return false, err
	}

	return svc.bridge.FileExists(ctx, remotePath)
}

// Chmod changes the mode of remotePath on the device.
func Chmod(ctx context.Context, opts *Options, mode, remotePath string) error {
	ctx = logger.WithName(ctx, "sdb-bridge")

	svc, err := newService(ctx, opts)
	if err != nil {
		return err
	}

	if err = svc.bridge.Chmod(ctx, remotePath, mode); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Changed file mode", "remote", remotePath, "mode", mode)

	return nil
}

// Forward forwards a local TCP port to a device TCP port.
func Forward(ctx context.Context, opts *Options, localPort, remotePort int) error {
	ctx = logger.WithName(ctx, "sdb-bridge")

	svc, err := newService(ctx, opts)
	if err != nil {
		return err
	}

	if err = svc.transport.Forward(ctx, localPort, remotePort); err != nil {
		return fmt.Errorf("forward port: %w", err)
	}

	logger.InfoKV(ctx, "Port forwarded", "local", localPort, "remote", remotePort)

	return nil
}
