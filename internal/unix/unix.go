//go:build unix

// Package unix provides platform-specific Unix helpers.
package unix

import "golang.org/x/sys/unix"

// ONonblock is the non-blocking I/O flag used when opening control FIFOs.
const ONonblock = unix.O_NONBLOCK

// Executable reports whether the calling user may execute path.
func Executable(path string) error {
	return unix.Access(path, unix.X_OK)
}

// Mkfifo creates a named pipe at path.
func Mkfifo(path string, mode uint32) error {
	return unix.Mkfifo(path, mode)
}
