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

func TestValidateServiceName(t *testing.T) {
	valid := []string{"Worker1", "AutoPkg", "my-service", "svc_2", "a.b"}
	for _, name := range valid {
		assert.NoError(t, ValidateServiceName(name), name)
	}

	invalid := []string{
		"",
		strings.Repeat("x", MaxServiceNameLength+1),
		".hidden",
		"-flag",
		"a/b",
		`a\b`,
		"with space",
		"tab\tname",
		"bell\a",
	}
	for _, name := range invalid {
		err := ValidateServiceName(name)
		assert.ErrorIs(t, err, ErrInvalidArgument, "%q", name)
		assert.Equal(t, KindInvalidArgument, KindOf(err))
	}
}

func TestDescriptorValidate(t *testing.T) {
	dir := t.TempDir()
	exe := writeExecutable(t, dir, "runtime")

	t.Run("valid", func(t *testing.T) {
		d := ServiceDescriptor{Name: "Worker1", Executable: exe, Args: []string{"--flag", "/opt/app/run.sh"}}
		assert.NoError(t, d.Validate())
	})

	t.Run("relative executable", func(t *testing.T) {
		d := ServiceDescriptor{Name: "Worker1", Executable: "runtime"}
		assert.ErrorIs(t, d.Validate(), ErrInvalidArgument)
	})

	t.Run("missing executable", func(t *testing.T) {
		d := ServiceDescriptor{Name: "Worker1", Executable: filepath.Join(dir, "absent")}
		assert.ErrorIs(t, d.Validate(), ErrInvalidArgument)
	})

	t.Run("directory", func(t *testing.T) {
		d := ServiceDescriptor{Name: "Worker1", Executable: dir}
		assert.ErrorIs(t, d.Validate(), ErrInvalidArgument)
	})

	t.Run("not executable", func(t *testing.T) {
		path := filepath.Join(dir, "data.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		d := ServiceDescriptor{Name: "Worker1", Executable: path}
		assert.ErrorIs(t, d.Validate(), ErrInvalidArgument)
	})

	t.Run("NUL in argument", func(t *testing.T) {
		d := ServiceDescriptor{Name: "Worker1", Executable: exe, Args: []string{"a\x00b"}}
		assert.ErrorIs(t, d.Validate(), ErrInvalidArgument)
	})

	t.Run("bad name", func(t *testing.T) {
		d := ServiceDescriptor{Name: "bad name", Executable: exe}
		assert.ErrorIs(t, d.Validate(), ErrInvalidArgument)
	})
}

func TestDescriptorCloneAndEqual(t *testing.T) {
	d := ServiceDescriptor{Name: "Worker1", Executable: "/usr/bin/runtime", Args: []string{"--flag", "/opt/app/run.sh"}}
	c := d.Clone()
	require.True(t, d.Equal(c))

	c.Args[0] = "--other"
	assert.Equal(t, "--flag", d.Args[0], "clone must not share the argument slice")
	assert.False(t, d.Equal(c))

	assert.Equal(t, []string{"/usr/bin/runtime", "--flag", "/opt/app/run.sh"}, d.Argv())
}

func TestDescriptorCommandLine(t *testing.T) {
	d := ServiceDescriptor{Name: "Worker1", Executable: "/usr/bin/runtime", Args: []string{"--flag", "/opt/app/run.sh"}}
	assert.Equal(t, `--flag '/opt/app/run.sh'`, d.CommandLine(QuotePOSIX))
	assert.Equal(t, `--flag "/opt/app/run.sh"`, d.CommandLine(QuoteWindows))
	if runtime.GOOS != "windows" {
		assert.Equal(t, HostQuoteStyle(), QuotePOSIX)
	}
}
