//go:build unix

package svcinstall

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/renameio/v2"
)

func createTestService(t *testing.T, dir, name string, pid int, want byte) {
	t.Helper()
	superviseDir := filepath.Join(dir, name, "supervise")
	if err := os.MkdirAll(superviseDir, 0o755); err != nil {
		t.Fatal(err)
	}

	run := byte(runitDown)
	if pid > 0 {
		run = runitRun
	}
	statusPath := filepath.Join(superviseDir, "status")
	if err := renameio.WriteFile(statusPath, makeStatusData(pid, want, run), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestManagerStatus(t *testing.T) {
	tmpDir := t.TempDir()

	createTestService(t, tmpDir, "service1", 1001, 'u')
	createTestService(t, tmpDir, "service2", 0, 'd')
	createTestService(t, tmpDir, "service3", 1003, 'u')

	mgr := NewManager(NewRunitBackend(tmpDir),
		WithConcurrency(2),
		WithTimeout(1*time.Second),
	)

	ctx := context.Background()
	statuses, err := mgr.Status(ctx, "service1", "service2", "service3", "service4")
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]ServiceState{
		"service1": StateRunning,
		"service2": StateStopped,
		"service3": StateRunning,
		"service4": StateNotInstalled,
	}
	if len(statuses) != len(want) {
		t.Fatalf("got %d statuses, want %d", len(statuses), len(want))
	}
	for name, state := range want {
		if statuses[name] != state {
			t.Errorf("%s state = %v, want %v", name, statuses[name], state)
		}
	}
}

func TestManagerEmptyServices(t *testing.T) {
	mgr := NewManager(NewMemoryBackend())

	ctx := context.Background()

	statuses, err := mgr.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(statuses) != 0 {
		t.Errorf("got %d statuses, want 0", len(statuses))
	}

	if _, err := mgr.Start(ctx); err != nil {
		t.Fatal(err)
	}

	if err := mgr.Remove(ctx); err != nil {
		t.Fatal(err)
	}
}

func TestManagerConcurrency(t *testing.T) {
	tmpDir := t.TempDir()

	var services []string
	for i := 0; i < 10; i++ {
		name := fmt.Sprintf("service%d", i)
		createTestService(t, tmpDir, name, 1000+i, 'u')
		services = append(services, name)
	}

	mgr := NewManager(NewRunitBackend(tmpDir), WithConcurrency(3))

	start := time.Now()
	ctx := context.Background()
	statuses, err := mgr.Status(ctx, services...)
	if err != nil {
		t.Fatal(err)
	}
	duration := time.Since(start)

	if len(statuses) != 10 {
		t.Fatalf("got %d statuses, want 10", len(statuses))
	}

	t.Logf("Processed 10 services with concurrency 3 in %v", duration)
}

func TestManagerStartAndRemove(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()
	for _, name := range []string{"a", "b"} {
		if err := b.Register(ctx, ServiceDescriptor{Name: name, Executable: "/bin/true"}); err != nil {
			t.Fatal(err)
		}
	}

	mgr := NewManager(b, WithConcurrency(2))
	states, err := mgr.Start(ctx, "a", "b", "ghost")
	if !errors.Is(err, ErrNotInstalled) {
		t.Fatalf("Start() error = %v, want ErrNotInstalled for ghost", err)
	}
	if states["a"] != StateRunning || states["b"] != StateRunning {
		t.Errorf("states = %v, want a and b running", states)
	}
	if _, ok := states["ghost"]; ok {
		t.Error("ghost must not have a state")
	}

	var merr *MultiError
	if !errors.As(err, &merr) || len(merr.Errors) != 1 {
		t.Fatalf("error = %v, want one collected error", err)
	}

	if err := mgr.Remove(ctx, "a", "b"); err != nil {
		t.Fatal(err)
	}
	if got := b.Services(); len(got) != 0 {
		t.Errorf("services left after Remove: %v", got)
	}
}

func TestManagerCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	b := &blockingBackend{MemoryBackend: NewMemoryBackend(), release: make(chan struct{})}
	close(b.release)

	mgr := NewManager(b)
	_, err := mgr.Status(ctx, "a", "b")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Status() error = %v, want context.Canceled", err)
	}
}

// blockingBackend holds every query until release is closed or ctx ends
type blockingBackend struct {
	*MemoryBackend
	release chan struct{}
}

func (b *blockingBackend) Query(ctx context.Context, name string) (ServiceState, error) {
	select {
	case <-b.release:
		if err := ctx.Err(); err != nil {
			return StateUnknown, err
		}
		return b.MemoryBackend.Query(ctx, name)
	case <-ctx.Done():
		return StateUnknown, ctx.Err()
	}
}
