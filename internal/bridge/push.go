package bridge

import (
	"context"
	"path"
	"strings"

	"github.com/oshokin/sdb-bridge/internal/logger"
)

// pushFailureMarkers are stderr fragments that mean the copy did not happen,
// even when sdb itself exits successfully.
//
//nolint:gochecknoglobals // Read-only lookup table.
var pushFailureMarkers = []string{
	"failed to copy",
	"cannot stat",
}

// Request describes one batch deployment.
type Request struct {
	// LocalGlob selects the local artifacts to deploy.
	LocalGlob string
	// RemoteDirectory receives every artifact under its base name.
	RemoteDirectory string
	// Overwrite allows replacing files that already exist on the device.
	Overwrite bool
	// Chmod is applied to every pushed file when not empty, e.g. "+x".
	Chmod string
}

// GetDestination returns the remote path for localPath inside remoteDirectory.
func GetDestination(localPath, remoteDirectory string) string {
	base := path.Base(strings.ReplaceAll(localPath, `\`, "/"))

	return path.Join(remoteDirectory, base)
}

// PushRaw copies localPath to remotePath on the device.
func (b *Bridge) PushRaw(ctx context.Context, localPath, remotePath string) error {
	_, stderr, err := b.transport.Push(ctx, localPath, remotePath)
	if err != nil {
		return &TransportError{Op: opPush, Command: localPath + " -> " + remotePath, Err: err}
	}

	for _, marker := range pushFailureMarkers {
		if strings.Contains(stderr, marker) {
			return &PushVerificationError{
				LocalPath:  localPath,
				RemotePath: remotePath,
				Marker:     marker,
				Stderr:     stderr,
			}
		}
	}

	return nil
}

// PushOne pushes a single file into remoteDirectory.
//
// Without overwrite an existing remote file is kept and the call succeeds
// after logging a warning. When chmod is not empty it is applied after a
// successful push and its outcome becomes the result.
func (b *Bridge) PushOne(ctx context.Context, localPath, remoteDirectory string, overwrite bool, chmod string) error {
	destination := GetDestination(localPath, remoteDirectory)

	if !overwrite {
		exists, err := b.FileExists(ctx, destination)
		if err != nil {
			return err
		}

		if exists {
			logger.WarnKV(ctx, "Not pushing: file already exists and overwrite is disabled",
				"local", localPath, "remote", destination)

			return nil
		}
	}

	if err := b.PushRaw(ctx, localPath, destination); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Pushed file", "local", localPath, "remote", destination)

	if chmod == "" {
		return nil
	}

	return b.Chmod(ctx, destination, chmod)
}

// Push expands the local glob and pushes every match, in order, one at a time.
// It stops at the first failure; files pushed before it stay on the device.
func (b *Bridge) Push(ctx context.Context, req *Request) error {
	if req == nil {
		return ErrRequestRequired
	}

	localFiles, err := b.lister.List(ctx, req.LocalGlob)
	if err != nil {
		return &EnumerationError{Pattern: req.LocalGlob, Err: err}
	}

	if len(localFiles) == 0 {
		logger.WarnKV(ctx, "No local files match the pattern", "pattern", req.LocalGlob)

		return nil
	}

	for _, localFile := range localFiles {
		if err = b.PushOne(ctx, localFile, req.RemoteDirectory, req.Overwrite, req.Chmod); err != nil {
			return err
		}
	}

	return nil
}
