//go:build unix

package svcinstall

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/axondata/go-svcinstall/internal/unix"
)

func newTestRunit(t *testing.T) *RunitBackend {
	t.Helper()
	b := NewRunitBackend(t.TempDir())
	b.SuperviseTimeout = 2 * time.Second
	b.BackoffMin = 5 * time.Millisecond
	b.BackoffMax = 50 * time.Millisecond
	return b
}

// supervise fakes runsv by creating the supervise directory with a
// regular control file and optional status record
func supervise(t *testing.T, serviceDir string, status []byte) string {
	t.Helper()
	dir := filepath.Join(serviceDir, superviseDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	control := filepath.Join(dir, controlFile)
	if err := os.WriteFile(control, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if status != nil {
		if err := os.WriteFile(filepath.Join(dir, statusFile), status, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return control
}

func TestRunitRunScript(t *testing.T) {
	b := NewRunitBackend("")
	if b.ServiceDir != DefaultRunitServiceDir {
		t.Errorf("ServiceDir = %q, want %q", b.ServiceDir, DefaultRunitServiceDir)
	}

	got := b.RunScript(ServiceDescriptor{
		Name:       "Worker1",
		Executable: "/usr/bin/python3",
		Args:       []string{"/opt/my app/run.py", "--name", "it's"},
	})
	want := "#!/bin/sh\nexec 2>&1\nexec /usr/bin/python3 '/opt/my app/run.py' --name 'it'\\''s'\n"
	if got != want {
		t.Errorf("RunScript() =\n%s\nwant\n%s", got, want)
	}
}

func TestRunitRegister(t *testing.T) {
	ctx := context.Background()
	b := newTestRunit(t)
	desc := ServiceDescriptor{Name: "Worker1", Executable: "/usr/bin/python3", Args: []string{"/opt/my app/run.py"}}

	if err := b.Register(ctx, desc); err != nil {
		t.Fatal(err)
	}

	dir := filepath.Join(b.ServiceDir, "Worker1")
	info, err := os.Stat(filepath.Join(dir, "run"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0o100 == 0 {
		t.Errorf("run script mode = %v, want executable", info.Mode())
	}
	if _, err := os.Stat(filepath.Join(dir, downFile)); err != nil {
		t.Errorf("down file missing: %v", err)
	}

	entries, err := os.ReadDir(b.ServiceDir)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("staging directory %s left behind", e.Name())
		}
	}

	got, err := b.Lookup(ctx, "Worker1")
	if err != nil {
		t.Fatal(err)
	}
	if !desc.Equal(got) {
		t.Errorf("Lookup() = %+v, want %+v", got, desc)
	}

	state, err := b.Query(ctx, "Worker1")
	if err != nil {
		t.Fatal(err)
	}
	if state != StateStopped {
		t.Errorf("state before supervision = %v, want %v", state, StateStopped)
	}

	other := ServiceDescriptor{Name: "Worker1", Executable: "/bin/true"}
	if err := b.Register(ctx, other); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("second Register() error = %v, want ErrAlreadyExists", err)
	}
	got, _ = b.Lookup(ctx, "Worker1")
	if !desc.Equal(got) {
		t.Errorf("record changed by a rejected Register: %+v", got)
	}
}

func TestRunitMultilineArgument(t *testing.T) {
	ctx := context.Background()
	b := newTestRunit(t)
	python := writeExecutable(t, t.TempDir(), "python")
	desc := ServiceDescriptor{Name: "Worker1", Executable: python, Args: []string{"-c", "print(1)\nprint(2)"}}

	r := NewRegistrar(b)
	if err := r.Register(ctx, desc); err != nil {
		t.Fatal(err)
	}

	got, err := b.Lookup(ctx, "Worker1")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if !desc.Equal(got) {
		t.Errorf("Lookup() = %+v, want %+v", got, desc)
	}

	other := ServiceDescriptor{Name: "Worker1", Executable: python, Args: []string{"/opt/app/run.py"}}
	err = r.Register(ctx, other)
	if !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second Register() error = %v, want ErrAlreadyExists", err)
	}
	if k := KindOf(err); k != KindAlreadyExists {
		t.Errorf("KindOf() = %v, want %v", k, KindAlreadyExists)
	}
	got, _ = b.Lookup(ctx, "Worker1")
	if !desc.Equal(got) {
		t.Errorf("record changed by a rejected Register: %+v", got)
	}
}

func TestRunitQuery(t *testing.T) {
	ctx := context.Background()
	b := newTestRunit(t)

	state, err := b.Query(ctx, "missing")
	if err != nil || state != StateNotInstalled {
		t.Fatalf("Query(missing) = %v, %v; want NotInstalled, nil", state, err)
	}

	tests := []struct {
		name   string
		status []byte
		want   ServiceState
	}{
		{"running", makeStatusData(1234, 'u', runitRun), StateRunning},
		{"down", makeStatusData(0, 'd', runitDown), StateStopped},
		{"coming up", makeStatusData(0, 'u', runitDown), StateStartPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(b.ServiceDir, tt.name)
			supervise(t, dir, tt.status)

			got, err := b.Query(ctx, tt.name)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Query() = %v, want %v", got, tt.want)
			}
		})
	}

	t.Run("truncated", func(t *testing.T) {
		supervise(t, filepath.Join(b.ServiceDir, "truncated"), []byte{1, 2, 3})
		if _, err := b.Query(ctx, "truncated"); err == nil {
			t.Error("expected error for a truncated status file")
		}
	})

	t.Run("no down file", func(t *testing.T) {
		if err := os.MkdirAll(filepath.Join(b.ServiceDir, "fresh"), 0o755); err != nil {
			t.Fatal(err)
		}
		got, err := b.Query(ctx, "fresh")
		if err != nil {
			t.Fatal(err)
		}
		if got != StateStartPending {
			t.Errorf("Query() = %v, want %v", got, StateStartPending)
		}
	})
}

func TestRunitStart(t *testing.T) {
	ctx := context.Background()
	b := newTestRunit(t)
	desc := ServiceDescriptor{Name: "Worker1", Executable: "/bin/sleep", Args: []string{"1000"}}

	if err := b.Start(ctx, "Worker1"); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("Start() on a missing service error = %v, want ErrNotInstalled", err)
	}

	if err := b.Register(ctx, desc); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(b.ServiceDir, "Worker1")
	control := supervise(t, dir, nil)

	if err := b.Start(ctx, "Worker1"); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(control)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "u" {
		t.Errorf("control received %q, want %q", data, "u")
	}
	if _, err := os.Stat(filepath.Join(dir, downFile)); !os.IsNotExist(err) {
		t.Errorf("down file still present after Start: %v", err)
	}
}

func TestRunitStartWaitsForSupervise(t *testing.T) {
	ctx := context.Background()
	b := newTestRunit(t)
	if err := b.Register(ctx, ServiceDescriptor{Name: "late", Executable: "/bin/true"}); err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(b.ServiceDir, "late")

	control := filepath.Join(dir, superviseDir, controlFile)
	created := make(chan error, 1)
	go func() {
		time.Sleep(200 * time.Millisecond)
		if err := os.MkdirAll(filepath.Dir(control), 0o755); err != nil {
			created <- err
			return
		}
		created <- os.WriteFile(control, nil, 0o600)
	}()

	if err := b.Start(ctx, "late"); err != nil {
		t.Fatal(err)
	}
	if err := <-created; err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(control)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "u" {
		t.Errorf("control received %q, want %q", data, "u")
	}
}

func TestRunitStartUnsupervised(t *testing.T) {
	ctx := context.Background()
	b := newTestRunit(t)
	b.SuperviseTimeout = 300 * time.Millisecond
	if err := b.Register(ctx, ServiceDescriptor{Name: "orphan", Executable: "/bin/true"}); err != nil {
		t.Fatal(err)
	}

	err := b.Start(ctx, "orphan")
	if !errors.Is(err, ErrStartFailed) {
		t.Fatalf("Start() error = %v, want ErrStartFailed", err)
	}
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Start() error = %v, want it to wrap ErrTimeout", err)
	}
	// the record stays; only the start failed
	if state, _ := b.Query(ctx, "orphan"); state != StateStopped {
		t.Errorf("state = %v, want %v", state, StateStopped)
	}
}

func TestRunitSendRetriesUntilReader(t *testing.T) {
	dir := t.TempDir()
	fifo := filepath.Join(dir, "control")
	if err := unix.Mkfifo(fifo, 0o600); err != nil {
		t.Skipf("mkfifo: %v", err)
	}

	b := newTestRunit(t)
	b.MaxAttempts = 20

	reader := make(chan *os.File, 1)
	go func() {
		time.Sleep(50 * time.Millisecond)
		f, err := os.OpenFile(fifo, os.O_RDONLY|unix.ONonblock, 0)
		if err != nil {
			reader <- nil
			return
		}
		reader <- f
	}()

	if err := b.send(context.Background(), fifo, 'u'); err != nil {
		t.Fatal(err)
	}

	f := <-reader
	if f == nil {
		t.Fatal("reader failed to open the fifo")
	}
	defer func() { _ = f.Close() }()

	var buf [1]byte
	if _, err := f.Read(buf[:]); err != nil {
		t.Fatal(err)
	}
	if buf[0] != 'u' {
		t.Errorf("received command = %c, want u", buf[0])
	}
}

func TestRunitRemove(t *testing.T) {
	ctx := context.Background()
	b := newTestRunit(t)

	if err := b.Remove(ctx, "Worker1"); !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("Remove() error = %v, want ErrNotInstalled", err)
	}

	if err := b.Register(ctx, ServiceDescriptor{Name: "Worker1", Executable: "/bin/true"}); err != nil {
		t.Fatal(err)
	}
	supervise(t, filepath.Join(b.ServiceDir, "Worker1"), nil)

	if err := b.Remove(ctx, "Worker1"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(b.ServiceDir, "Worker1")); !os.IsNotExist(err) {
		t.Errorf("service directory still present: %v", err)
	}
}
