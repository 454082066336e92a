package bridge

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/oshokin/sdb-bridge/internal/logger"
)

var errBoom = errors.New("sdb: device offline")

// reply is a canned transport answer.
type reply struct {
	stdout string
	stderr string
	err    error
}

// pushCall records arguments of one Transport.Push call.
type pushCall struct {
	local  string
	remote string
}

// fakeTransport answers shell commands from a table and records every call.
type fakeTransport struct {
	shellReplies map[string]reply
	pushReplies  map[string]reply

	shellCalls []string
	pushCalls  []pushCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		shellReplies: make(map[string]reply),
		pushReplies:  make(map[string]reply),
	}
}

func (f *fakeTransport) Shell(_ context.Context, command string) (string, string, error) {
	f.shellCalls = append(f.shellCalls, command)
	r := f.shellReplies[command]

	return r.stdout, r.stderr, r.err
}

func (f *fakeTransport) Push(_ context.Context, localPath, remotePath string) (string, string, error) {
	f.pushCalls = append(f.pushCalls, pushCall{local: localPath, remote: remotePath})
	r := f.pushReplies[localPath]

	return r.stdout, r.stderr, r.err
}

// fakeLister returns a fixed set of files.
type fakeLister struct {
	files []string
	err   error

	patterns []string
}

func (f *fakeLister) List(_ context.Context, pattern string) ([]string, error) {
	f.patterns = append(f.patterns, pattern)

	return f.files, f.err
}

// observedContext returns a context whose logger records entries for assertions.
func observedContext() (context.Context, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)

	return logger.ToContext(context.Background(), zap.New(core).Sugar()), logs
}

func warnings(logs *observer.ObservedLogs) int {
	return logs.FilterLevelExact(zapcore.WarnLevel).Len()
}
