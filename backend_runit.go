//go:build unix

package svcinstall

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/renameio/v2"

	"github.com/axondata/go-svcinstall/internal/unix"
)

// Runit defaults
const (
	// DefaultRunitServiceDir is the directory runsvdir scans
	DefaultRunitServiceDir = "/etc/service"

	// DefaultSuperviseTimeout covers one runsvdir rescan (every 5 seconds)
	DefaultSuperviseTimeout = 6 * time.Second
)

// RunitBackend registers services as runit service directories. A
// directory is staged under a dot-name runsvdir ignores and renamed into
// the scan directory, with a down file so runsv supervises it stopped.
type RunitBackend struct {
	// ServiceDir is the scan directory (e.g. /etc/service, /var/service)
	ServiceDir string

	// SuperviseTimeout bounds the wait for runsv to create supervise/control
	SuperviseTimeout time.Duration

	// BackoffMin is the minimum duration between control write attempts
	BackoffMin time.Duration

	// BackoffMax is the maximum duration between control write attempts
	BackoffMax time.Duration

	// MaxAttempts is the maximum number of control write attempts
	MaxAttempts int
}

// NewRunitBackend creates a RunitBackend for the scan directory serviceDir
func NewRunitBackend(serviceDir string) *RunitBackend {
	if serviceDir == "" {
		serviceDir = DefaultRunitServiceDir
	}
	return &RunitBackend{
		ServiceDir:       serviceDir,
		SuperviseTimeout: DefaultSuperviseTimeout,
		BackoffMin:       DefaultBackoffMin,
		BackoffMax:       DefaultBackoffMax,
		MaxAttempts:      DefaultMaxAttempts,
	}
}

// Name implements Backend
func (b *RunitBackend) Name() string {
	return BackendRunit.String()
}

func (b *RunitBackend) serviceDir(name string) string {
	return filepath.Join(b.ServiceDir, name)
}

// RunScript generates the run script for desc
func (b *RunitBackend) RunScript(desc ServiceDescriptor) string {
	var lines []string
	lines = append(lines, "#!/bin/sh")
	lines = append(lines, "exec 2>&1")

	cmd := shellQuote(desc.Executable, false)
	if len(desc.Args) > 0 {
		cmd += " " + desc.CommandLine(QuotePOSIX)
	}
	lines = append(lines, "exec "+cmd)

	return strings.Join(lines, "\n") + "\n"
}

// Register implements Backend
func (b *RunitBackend) Register(_ context.Context, desc ServiceDescriptor) error {
	dir := b.serviceDir(desc.Name)
	if _, err := os.Lstat(dir); err == nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: ErrAlreadyExists}
	}

	stage := filepath.Join(b.ServiceDir, ".svcinstall-"+desc.Name)
	if err := os.RemoveAll(stage); err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifyFSError(err)}
	}
	if err := os.MkdirAll(stage, DirMode); err != nil {
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifyFSError(err)}
	}

	if err := b.writeStage(stage, desc); err != nil {
		_ = os.RemoveAll(stage)
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifyFSError(err)}
	}

	if err := os.Rename(stage, dir); err != nil {
		_ = os.RemoveAll(stage)
		if _, statErr := os.Lstat(dir); statErr == nil {
			return &OpError{Op: OpRegister, Service: desc.Name, Err: kindError(ErrAlreadyExists, err)}
		}
		return &OpError{Op: OpRegister, Service: desc.Name, Err: classifyFSError(err)}
	}
	return nil
}

func (b *RunitBackend) writeStage(stage string, desc ServiceDescriptor) error {
	if err := renameio.WriteFile(filepath.Join(stage, downFile), nil, FileMode); err != nil {
		return fmt.Errorf("writing down file: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(stage, "run"), []byte(b.RunScript(desc)), ExecMode); err != nil {
		return fmt.Errorf("writing run script: %w", err)
	}
	return nil
}

// Lookup implements Backend. The descriptor is read back from the run script.
func (b *RunitBackend) Lookup(_ context.Context, name string) (ServiceDescriptor, error) {
	data, err := os.ReadFile(filepath.Join(b.serviceDir(name), "run"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: ErrNotInstalled}
		}
		return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: classifyFSError(err)}
	}

	// the command runs to the end of the script; quoted arguments may span lines
	rest := string(data)
	for {
		i := strings.Index(rest, "\nexec ")
		if i < 0 {
			break
		}
		rest = rest[i+len("\nexec "):]
		if strings.HasPrefix(rest, "2>") {
			continue
		}
		argv, err := SplitArgs(strings.TrimSpace(rest), QuotePOSIX)
		if err != nil {
			return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: err}
		}
		if len(argv) > 0 {
			return ServiceDescriptor{Name: name, Executable: argv[0], Args: argv[1:]}, nil
		}
	}
	return ServiceDescriptor{}, &OpError{Op: OpLookup, Service: name, Err: fmt.Errorf("%w: run script has no exec line", ErrInvalidArgument)}
}

// Remove implements Backend
func (b *RunitBackend) Remove(_ context.Context, name string) error {
	dir := b.serviceDir(name)
	if _, err := os.Lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return &OpError{Op: OpRemove, Service: name, Err: ErrNotInstalled}
	}

	// Bring the service and its runsv down; absent supervision is fine
	control := filepath.Join(dir, superviseDir, controlFile)
	_ = writeControl(control, 'd')
	_ = writeControl(control, 'x')

	if err := os.RemoveAll(dir); err != nil {
		return &OpError{Op: OpRemove, Service: name, Err: classifyFSError(err)}
	}
	return nil
}

// Query implements Backend
func (b *RunitBackend) Query(_ context.Context, name string) (ServiceState, error) {
	dir := b.serviceDir(name)
	if _, err := os.Lstat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return StateNotInstalled, nil
		}
		return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: classifyFSError(err)}
	}

	statusPath := filepath.Join(dir, superviseDir, statusFile)
	file, err := os.Open(statusPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: classifyFSError(err)}
		}
		// not supervised yet; runsv honours the down file once it picks the dir up
		if _, err := os.Stat(filepath.Join(dir, downFile)); err == nil {
			return StateStopped, nil
		}
		return StateStartPending, nil
	}
	defer func() { _ = file.Close() }()

	var buf [runitStatusSize]byte
	if _, err := io.ReadFull(file, buf[:]); err != nil {
		return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: fmt.Errorf("reading %s: %w", statusPath, err)}
	}
	st, err := decodeRunitStatus(buf[:])
	if err != nil {
		return StateUnknown, &OpError{Op: OpQuery, Service: name, Err: err}
	}
	return st.State(), nil
}

// Start implements Backend. It writes 'u' to the control FIFO and drops
// the down file so the service also comes up after a reboot.
func (b *RunitBackend) Start(ctx context.Context, name string) error {
	dir := b.serviceDir(name)
	if _, err := os.Lstat(dir); errors.Is(err, fs.ErrNotExist) {
		return &OpError{Op: OpStart, Service: name, Err: ErrNotInstalled}
	}

	if err := b.awaitSupervise(ctx, dir); err != nil {
		return &OpError{Op: OpStart, Service: name, Err: kindError(ErrStartFailed,
			fmt.Errorf("runsv is not supervising %s (is runsvdir scanning %s?): %w", dir, b.ServiceDir, err))}
	}

	control := filepath.Join(dir, superviseDir, controlFile)
	if err := b.send(ctx, control, 'u'); err != nil {
		return &OpError{Op: OpStart, Service: name, Err: kindError(ErrStartFailed, classifyFSError(err))}
	}

	if err := os.Remove(filepath.Join(dir, downFile)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &OpError{Op: OpStart, Service: name, Err: classifyFSError(err)}
	}
	return nil
}

// send writes a control byte, retrying with exponential backoff while the
// FIFO has no reader yet.
func (b *RunitBackend) send(ctx context.Context, control string, cmd byte) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = b.BackoffMin
	eb.MaxInterval = b.BackoffMax

	attempts := b.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := writeControl(control, cmd)
		if errors.Is(err, fs.ErrPermission) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}, backoff.WithBackOff(eb), backoff.WithMaxTries(uint(attempts)))
	return err
}

// writeControl performs one non-blocking write of cmd to the control FIFO
func writeControl(control string, cmd byte) error {
	file, err := os.OpenFile(control, os.O_WRONLY|unix.ONonblock, 0)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, err = file.Write([]byte{cmd})
	return err
}
