package svcinstall

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeExecutable creates an executable file named name (plus .exe on
// Windows) in dir and returns its absolute path
func writeExecutable(t testing.TB, dir, name string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		name += ".exe"
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	return path
}

// writeScript creates a non-executable script file and returns its path
func writeScript(t testing.TB, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(path, []byte("print('ok')\n"), 0o644))
	return path
}

// fakeCall records one Runner invocation
type fakeCall struct {
	Path string
	Args []string
}

func (c fakeCall) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// fakeReply is the scripted outcome of a command
type fakeReply struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// fakeRunner answers commands from a script keyed by the first arguments.
// The longest matching key wins; unmatched commands succeed silently.
type fakeRunner struct {
	mu      sync.Mutex
	replies map[string][]fakeReply
	calls   []fakeCall
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{replies: make(map[string][]fakeReply)}
}

// on queues replies for commands whose arguments start with key. The last
// reply repeats once the queue is drained.
func (f *fakeRunner) on(key string, replies ...fakeReply) *fakeRunner {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[key] = append(f.replies[key], replies...)
	return f
}

func (f *fakeRunner) Run(_ context.Context, path string, args ...string) (CommandResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{Path: path, Args: append([]string(nil), args...)})

	joined := strings.Join(args, " ")
	best := ""
	for key := range f.replies {
		if strings.HasPrefix(joined, key) && len(key) > len(best) {
			best = key
		}
	}
	queue := f.replies[best]
	if len(queue) == 0 {
		return CommandResult{}, nil
	}
	reply := queue[0]
	if len(queue) > 1 {
		f.replies[best] = queue[1:]
	}

	res := CommandResult{Stdout: reply.Stdout, Stderr: reply.Stderr}
	if reply.ExitCode != 0 {
		return res, &CommandError{Path: path, Args: args, ExitCode: reply.ExitCode, Output: res.Combined()}
	}
	return res, nil
}

// commands returns the argument strings of every call in order
func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, strings.Join(c.Args, " "))
	}
	return out
}
