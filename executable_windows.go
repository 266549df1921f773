//go:build windows

package svcinstall

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// defaultPathExt is used when PATHEXT is unset
const defaultPathExt = ".com;.exe;.bat;.cmd"

// checkExecutable verifies that a regular file has an executable extension
func checkExecutable(path string, _ fs.FileInfo) error {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range pathExts() {
		if ext == e {
			return nil
		}
	}
	return fmt.Errorf("extension %q is not listed in PATHEXT", ext)
}

// executableCandidates lists the paths tried for a bare name inside dir
func executableCandidates(dir, name string) []string {
	base := joinPath(dir, name)
	if filepath.Ext(name) != "" {
		if err := checkExecutable(base, nil); err == nil {
			return []string{base}
		}
	}
	exts := pathExts()
	candidates := make([]string, 0, len(exts))
	for _, ext := range exts {
		candidates = append(candidates, base+ext)
	}
	return candidates
}

func pathExts() []string {
	raw := os.Getenv("PATHEXT")
	if raw == "" {
		raw = defaultPathExt
	}
	var exts []string
	for _, e := range strings.Split(strings.ToLower(raw), ";") {
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}
