package svcinstall

import (
	"errors"
	"runtime"
	"testing"
)

func TestParseBackendType(t *testing.T) {
	tests := []struct {
		in      string
		want    BackendType
		wantErr bool
	}{
		{"", DefaultBackendType(), false},
		{"wrapper", BackendWrapper, false},
		{"NSSM", BackendWrapper, false},
		{"systemd", BackendSystemd, false},
		{" runit ", BackendRunit, false},
		{"scm", BackendSCM, false},
		{"memory", BackendMemory, false},
		{"launchd", BackendUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBackendType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseBackendType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error %v is not ErrInvalidArgument", err)
			}
			if got != tt.want {
				t.Errorf("ParseBackendType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBackendTypeString(t *testing.T) {
	for bt := BackendUnknown; bt <= BackendMemory; bt++ {
		parsed, err := ParseBackendType(bt.String())
		if bt == BackendUnknown {
			if err == nil {
				t.Error("unknown backend must not parse")
			}
			continue
		}
		if err != nil || parsed != bt {
			t.Errorf("round trip of %v = %v, %v", bt, parsed, err)
		}
	}
}

func TestDefaultBackendType(t *testing.T) {
	want := BackendSystemd
	if runtime.GOOS == "windows" {
		want = BackendWrapper
	}
	if got := DefaultBackendType(); got != want {
		t.Errorf("DefaultBackendType() = %v, want %v", got, want)
	}
}

func TestDefaultManagerCommand(t *testing.T) {
	if got := DefaultManagerCommand(BackendWrapper); got != "nssm" {
		t.Errorf("wrapper manager = %q", got)
	}
	if got := DefaultManagerCommand(BackendSystemd); got != "systemctl" {
		t.Errorf("systemd manager = %q", got)
	}
	if got := DefaultManagerCommand(BackendRunit); got != "" {
		t.Errorf("runit manager = %q, want none", got)
	}
	if BackendMemory.NeedsManager() || BackendSCM.NeedsManager() {
		t.Error("memory and scm backends do not use a manager")
	}
}

func TestNewBackend(t *testing.T) {
	runner := newFakeRunner()

	t.Run("wrapper", func(t *testing.T) {
		b, err := NewBackend(BackendConfig{Type: BackendWrapper, ManagerPath: `C:\tools\nssm.exe`, QuoteStyle: "posix", Runner: runner})
		if err != nil {
			t.Fatal(err)
		}
		w, ok := b.(*WrapperBackend)
		if !ok {
			t.Fatalf("NewBackend() = %T, want *WrapperBackend", b)
		}
		if w.Style != QuotePOSIX {
			t.Errorf("Style = %v, want posix", w.Style)
		}
		if w.Runner != runner {
			t.Error("configured runner not used")
		}
	})

	t.Run("systemd", func(t *testing.T) {
		b, err := NewBackend(BackendConfig{Type: BackendSystemd, ManagerPath: "/usr/bin/systemctl", UnitDir: "/run/systemd/system"})
		if err != nil {
			t.Fatal(err)
		}
		s := b.(*SystemdBackend)
		if s.UnitDir != "/run/systemd/system" {
			t.Errorf("UnitDir = %q", s.UnitDir)
		}
		r, ok := s.Runner.(*ExecRunner)
		if !ok {
			t.Fatalf("Runner = %T, want *ExecRunner", s.Runner)
		}
		if r.SudoCommand != DefaultSudoCommand || r.Timeout != DefaultCommandTimeout {
			t.Errorf("runner defaults = %+v", r)
		}
	})

	t.Run("runit", func(t *testing.T) {
		b, err := NewBackend(BackendConfig{Type: BackendRunit, ServiceDir: "/var/service"})
		if err != nil {
			t.Fatal(err)
		}
		if b.(*RunitBackend).ServiceDir != "/var/service" {
			t.Errorf("ServiceDir = %q", b.(*RunitBackend).ServiceDir)
		}
	})

	t.Run("memory", func(t *testing.T) {
		b, err := NewBackend(BackendConfig{Type: BackendMemory})
		if err != nil {
			t.Fatal(err)
		}
		if b.Name() != "memory" {
			t.Errorf("Name() = %q", b.Name())
		}
	})

	t.Run("errors", func(t *testing.T) {
		cases := []BackendConfig{
			{Type: BackendWrapper},
			{Type: BackendSystemd},
			{Type: BackendWrapper, ManagerPath: "nssm", QuoteStyle: "cmd"},
			{Type: BackendUnknown},
		}
		for _, cfg := range cases {
			if _, err := NewBackend(cfg); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("NewBackend(%+v) error = %v, want ErrInvalidArgument", cfg, err)
			}
		}
	})
}
