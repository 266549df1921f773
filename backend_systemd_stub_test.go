//go:build windows

package svcinstall

import (
	"context"
	"errors"
	"testing"
)

func TestSystemdBackendUnsupported(t *testing.T) {
	ctx := context.Background()
	b := NewSystemdBackend(`C:\Windows\System32\systemctl.exe`, nil)

	if b.Name() != "systemd" {
		t.Errorf("Name() = %q", b.Name())
	}

	desc := ServiceDescriptor{Name: "Worker1", Executable: `C:\Python\python.exe`}
	errs := map[string]error{
		"register": b.Register(ctx, desc),
		"remove":   b.Remove(ctx, "Worker1"),
		"start":    b.Start(ctx, "Worker1"),
	}
	_, errs["lookup"] = b.Lookup(ctx, "Worker1")
	_, errs["query"] = b.Query(ctx, "Worker1")

	for op, err := range errs {
		if !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("%s: expected ErrInvalidArgument, got %v", op, err)
		}
	}
}
