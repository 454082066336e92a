package deployer

import (
	"context"
	"errors"
	"fmt"

	"github.com/oshokin/sdb-bridge/internal/bridge"
	"github.com/oshokin/sdb-bridge/internal/lock"
	"github.com/oshokin/sdb-bridge/internal/logger"
)

var errLocalGlobRequired = errors.New("local file pattern must be provided")

// PushOptions are inputs of the push command.
type PushOptions struct {
	Options

	// LocalGlob selects the artifacts to deploy.
	LocalGlob string
	// RemoteDir overrides the configured destination directory when not empty.
	RemoteDir string
	// Overwrite overrides the configured overwrite policy when not nil.
	Overwrite *bool
	// Chmod overrides the configured permission change when not nil.
	Chmod *string
	// Root elevates privileges for the duration of the deployment.
	Root bool
}

// Push deploys every file matching the local glob to the device.
func Push(ctx context.Context, opts *PushOptions) error {
	ctx = logger.WithName(ctx, "sdb-bridge")

	if opts == nil || opts.LocalGlob == "" {
		return errLocalGlobRequired
	}

	svc, err := newService(ctx, &opts.Options)
	if err != nil {
		return err
	}

	req := svc.request(opts)
	ctx = logger.WithFields(ctx, map[string]any{
		"pattern":    req.LocalGlob,
		"remote_dir": req.RemoteDirectory,
	})

	deployLock, err := lock.Acquire(ctx, svc.cfg.LockFile)
	if err != nil {
		return fmt.Errorf("acquire deployment marker: %w", err)
	}

	defer func() {
		if releaseErr := deployLock.Release(); releaseErr != nil {
			logger.WarnKV(ctx, "Unable to release deployment marker", "error", releaseErr)
		}
	}()

	if opts.Root {
		if err = svc.transport.Root(ctx, true); err != nil {
			return fmt.Errorf("enable root mode: %w", err)
		}

		defer func() {
			if rootErr := svc.transport.Root(ctx, false); rootErr != nil {
				logger.WarnKV(ctx, "Unable to disable root mode", "error", rootErr)
			}
		}()
	}

	logger.InfoKV(ctx, "Deploying artifacts", "overwrite", req.Overwrite, "chmod", req.Chmod)

	if err = svc.bridge.Push(ctx, req); err != nil {
		logger.ErrorKV(ctx, "Deployment failed", "error", err)
		return err
	}

	logger.Info(ctx, "Deployment completed")

	return nil
}

// request merges command-line overrides into the configured defaults.
func (s *service) request(opts *PushOptions) *bridge.Request {
	req := &bridge.Request{
		LocalGlob:       opts.LocalGlob,
		RemoteDirectory: s.cfg.RemoteDir,
		Overwrite:       s.cfg.Overwrite,
		Chmod:           s.cfg.Chmod,
	}

	if opts.RemoteDir != "" {
		req.RemoteDirectory = opts.RemoteDir
	}

	if opts.Overwrite != nil {
		req.Overwrite = *opts.Overwrite
	}

	if opts.Chmod != nil {
		req.Chmod = *opts.Chmod
	}

	return req
}
