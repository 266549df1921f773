//go:build !unix && !windows

package svcinstall

import (
	"errors"
	"io/fs"
)

// checkExecutable verifies that a regular file has execute permission bits
func checkExecutable(_ string, info fs.FileInfo) error {
	if info.Mode().Perm()&0o111 == 0 {
		return errors.New("no execute permission bits set")
	}
	return nil
}

// executableCandidates lists the paths tried for a bare name inside dir
func executableCandidates(dir, name string) []string {
	return []string{joinPath(dir, name)}
}
