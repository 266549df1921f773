//go:build unix

package svcinstall

import (
	"errors"
	"io/fs"

	"github.com/axondata/go-svcinstall/internal/unix"
)

// checkExecutable verifies that a regular file may be executed by the caller
func checkExecutable(path string, info fs.FileInfo) error {
	if info.Mode().Perm()&0o111 == 0 {
		return errors.New("no execute permission bits set")
	}
	return unix.Executable(path)
}

// executableCandidates lists the paths tried for a bare name inside dir
func executableCandidates(dir, name string) []string {
	return []string{joinPath(dir, name)}
}
