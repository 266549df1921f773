package svcinstall

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverFindsFirstMatch(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	want := writeExecutable(t, first, "python")
	writeExecutable(t, second, "python")

	r := NewResolver(strings.Join([]string{first, second}, string(os.PathListSeparator)))
	got, err := r.Resolve("python")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResolverNeverGuesses(t *testing.T) {
	dir := t.TempDir()
	r := NewResolver(dir)

	_, err := r.Resolve("nssm")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, OpResolve, opErr.Op)
	assert.Equal(t, "nssm", opErr.Service)
}

func TestResolverSkipsRelativeEntries(t *testing.T) {
	work := t.TempDir()
	writeExecutable(t, filepath.Join(work, "bin"), "python")
	t.Chdir(work)

	r := NewResolver(strings.Join([]string{"", "bin", "."}, string(os.PathListSeparator)))
	_, err := r.Resolve("python")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolverSkipsNonExecutables(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("execute permission bits are not used on Windows")
	}
	first := t.TempDir()
	second := t.TempDir()
	writeScript(t, first, "python")
	want := writeExecutable(t, second, "python")
	require.NoError(t, os.Mkdir(filepath.Join(first, "python3"), 0o755))

	r := NewResolver(first + string(os.PathListSeparator) + second)
	got, err := r.Resolve("python")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = r.Resolve("python3")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolverPathNames(t *testing.T) {
	dir := t.TempDir()
	exe := writeExecutable(t, dir, "nssm")
	r := NewResolver(t.TempDir())

	got, err := r.Resolve(exe)
	require.NoError(t, err)
	assert.Equal(t, exe, got)

	_, err = r.Resolve(filepath.Join(dir, "absent"))
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Resolve(filepath.Join("tools", "nssm"))
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = r.Resolve("")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestNewResolverDefaultsToPATH(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("PATH", dir)
	assert.Equal(t, dir, NewResolver("").SearchPath)
}
