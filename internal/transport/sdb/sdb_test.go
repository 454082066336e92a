package sdb

import (
	"context"
	"errors"
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// invocation records one call to the fake runner.
type invocation struct {
	name string
	args []string
}

// recorder returns a Runner answering with the given output and recording calls.
func recorder(calls *[]invocation, stdout, stderr string, err error) Runner {
	return func(_ context.Context, name string, args ...string) (string, string, error) {
		*calls = append(*calls, invocation{name: name, args: args})

		return stdout, stderr, err
	}
}

// TestNew_RequiresExecutable ensures an empty executable is rejected.
func TestNew_RequiresExecutable(t *testing.T) {
	t.Parallel()

	tr, err := New("  ")
	require.Error(t, err)
	require.Nil(t, tr)
}

// TestArgs checks device selection flags.
func TestArgs(t *testing.T) {
	t.Parallel()

	tr, err := New(DefaultExecutable)
	require.NoError(t, err)
	require.Equal(t, []string{"shell", "ls"}, tr.Args("shell", "ls"))

	tr, err = New(DefaultExecutable, WithSerial(" emulator-26101 "))
	require.NoError(t, err)
	require.Equal(t, []string{"-s", "emulator-26101", "shell", "ls"}, tr.Args("shell", "ls"))
}

// TestPrimitives verifies the sdb command lines issued by each primitive.
func TestPrimitives(t *testing.T) {
	t.Parallel()

	var calls []invocation

	tr, err := New("/opt/tizen/sdb", WithSerial("0000d85900006200"), WithRunner(recorder(&calls, "out", "", nil)))
	require.NoError(t, err)

	ctx := context.Background()

	stdout, _, err := tr.Shell(ctx, "stat /tmp/foo.txt")
	require.NoError(t, err)
	require.Equal(t, "out", stdout)

	_, _, err = tr.Push(ctx, "build/package.wgt", "/home/developer/package.wgt")
	require.NoError(t, err)

	require.NoError(t, tr.Forward(ctx, 9222, 9223))
	require.NoError(t, tr.Root(ctx, true))
	require.NoError(t, tr.Root(ctx, false))

	serial := []string{"-s", "0000d85900006200"}
	require.Equal(t, []invocation{
		{name: "/opt/tizen/sdb", args: append(append([]string{}, serial...), "shell", "stat /tmp/foo.txt")},
		{name: "/opt/tizen/sdb", args: append(append([]string{}, serial...), "push", "build/package.wgt", "/home/developer/package.wgt")},
		{name: "/opt/tizen/sdb", args: append(append([]string{}, serial...), "forward", "tcp:9222", "tcp:9223")},
		{name: "/opt/tizen/sdb", args: append(append([]string{}, serial...), "root", "on")},
		{name: "/opt/tizen/sdb", args: append(append([]string{}, serial...), "root", "off")},
	}, calls)
}

// TestForward_InvalidPort rejects ports outside the TCP range without running sdb.
func TestForward_InvalidPort(t *testing.T) {
	t.Parallel()

	var calls []invocation

	tr, err := New(DefaultExecutable, WithRunner(recorder(&calls, "", "", nil)))
	require.NoError(t, err)

	require.ErrorIs(t, tr.Forward(context.Background(), 0, 80), errInvalidPort)
	require.ErrorIs(t, tr.Forward(context.Background(), 80, 70000), errInvalidPort)
	require.Empty(t, calls)
}

// TestShell_ExitStatus checks how a non-zero exit of the device command is reported.
func TestShell_ExitStatus(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		command    string
		stdout     string
		stderr     string
		wantStdout string
		wantErr    bool
	}{
		{
			name:       "diagnostic on stdout",
			command:    "stat /missing",
			stdout:     "stat: No such file or directory\n",
			wantStdout: "stat: No such file or directory\n",
		},
		{
			name:       "missing file on stderr",
			command:    "stat /home/developer/one.wgt",
			stderr:     "stat: can't stat '/home/developer/one.wgt': No such file or directory\n",
			wantStdout: "stat: can't stat '/home/developer/one.wgt': No such file or directory\n",
		},
		{
			name:       "ls without matches",
			command:    "ls -1 -c /tmp/*.wgt",
			stderr:     "ls: /tmp/*.wgt: No such file or directory",
			wantStdout: "ls: /tmp/*.wgt: No such file or directory",
		},
		{
			name:       "both streams are merged",
			command:    "ls -1 -c /tmp/*",
			stdout:     "young.wgt",
			stderr:     "ls: /tmp/lost+found: Permission denied",
			wantStdout: "young.wgt\nls: /tmp/lost+found: Permission denied",
		},
		{
			name:    "sdb diagnostic",
			command: "stat /missing",
			stderr:  "error: device not found",
			wantErr: true,
		},
		{
			name:    "silent non-zero exit",
			command: "false",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			exitErr := &exec.ExitError{}

			var calls []invocation

			tr, err := New(DefaultExecutable, WithRunner(recorder(&calls, tc.stdout, tc.stderr, exitErr)))
			require.NoError(t, err)

			stdout, _, err := tr.Shell(context.Background(), tc.command)
			if tc.wantErr {
				require.ErrorAs(t, err, &exitErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.wantStdout, stdout)
		})
	}
}

// TestShell_RunFailures keeps errors that do not come from the device command.
func TestShell_RunFailures(t *testing.T) {
	t.Parallel()

	var calls []invocation

	notFound := &exec.Error{Name: "sdb", Err: exec.ErrNotFound}

	tr, err := New(DefaultExecutable, WithRunner(recorder(&calls, "", "", notFound)))
	require.NoError(t, err)

	_, _, err = tr.Shell(context.Background(), "stat /tmp")
	require.ErrorIs(t, err, exec.ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err = New(DefaultExecutable, WithRunner(recorder(&calls, "", "", &exec.ExitError{})))
	require.NoError(t, err)

	_, _, err = tr.Shell(ctx, "stat /tmp")
	require.Error(t, err)

	// Push errors are always returned.
	_, _, err = tr.Push(context.Background(), "a", "b")
	require.Error(t, err)
}

// TestRunProcess exercises the real process runner.
func TestRunProcess(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}

	ctx := context.Background()

	stdout, stderr, err := runProcess(ctx, "sh", "-c", "echo out; echo err 1>&2")
	require.NoError(t, err)
	require.Equal(t, "out\n", stdout)
	require.Equal(t, "err\n", stderr)

	_, _, err = runProcess(ctx, "sh", "-c", "echo broken 1>&2; exit 3")
	require.Error(t, err)
	require.Contains(t, err.Error(), "broken")

	var exitErr *exec.ExitError
	require.ErrorAs(t, err, &exitErr)
	require.Equal(t, 3, exitErr.ExitCode())
}

// TestInvoke_Timeout ensures the per-call timeout reaches the runner.
func TestInvoke_Timeout(t *testing.T) {
	t.Parallel()

	var deadlineSet bool

	run := func(ctx context.Context, _ string, _ ...string) (string, string, error) {
		_, deadlineSet = ctx.Deadline()

		return "", "", errors.New("unused")
	}

	tr, err := New(DefaultExecutable, WithTimeout(time.Second), WithRunner(run))
	require.NoError(t, err)

	_, _, err = tr.Push(context.Background(), "a", "b")
	require.Error(t, err)
	require.True(t, deadlineSet)
}

// TestIsSDBExecutable matches host binaries by name.
func TestIsSDBExecutable(t *testing.T) {
	t.Parallel()

	require.True(t, isSDBExecutable("sdb"))
	require.True(t, isSDBExecutable("SDB.EXE"))
	require.False(t, isSDBExecutable("sdb-bridge"))
}
