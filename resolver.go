package svcinstall

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver locates executables on an explicit search path.
// It never guesses: a name that is not found on the path is an error.
type Resolver struct {
	// SearchPath is a list of directories separated by os.PathListSeparator
	SearchPath string
}

// NewResolver creates a Resolver for searchPath, falling back to $PATH when empty
func NewResolver(searchPath string) *Resolver {
	if searchPath == "" {
		searchPath = os.Getenv("PATH")
	}
	return &Resolver{SearchPath: searchPath}
}

// Resolve returns the absolute path of the first executable file named name.
// Names containing a path separator are checked directly instead of searched.
func (r *Resolver) Resolve(name string) (string, error) {
	if name == "" {
		return "", &OpError{Op: OpResolve, Service: name, Err: fmt.Errorf("%w: empty executable name", ErrInvalidArgument)}
	}

	if strings.ContainsAny(name, `/\`) {
		if !filepath.IsAbs(name) {
			return "", &OpError{Op: OpResolve, Service: name, Err: fmt.Errorf("%w: %q is a relative path", ErrInvalidArgument, name)}
		}
		if isExecutableFile(name) {
			return filepath.Clean(name), nil
		}
		return "", &OpError{Op: OpResolve, Service: name, Err: ErrNotFound}
	}

	for _, dir := range filepath.SplitList(r.SearchPath) {
		// empty and relative entries would resolve against the working directory
		if dir == "" || !filepath.IsAbs(dir) {
			continue
		}
		for _, candidate := range executableCandidates(dir, name) {
			if isExecutableFile(candidate) {
				return candidate, nil
			}
		}
	}

	return "", &OpError{Op: OpResolve, Service: name, Err: fmt.Errorf("%w: %q not in search path", ErrNotFound, name)}
}

// isExecutableFile reports whether path is a regular file the caller may execute
func isExecutableFile(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return checkExecutable(path, info) == nil
}

func joinPath(dir, name string) string {
	return filepath.Join(dir, name)
}
