package svcinstall

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleResult() InstallationResult {
	prior := StateStopped
	return InstallationResult{
		Descriptor: ServiceDescriptor{Name: "Worker1", Executable: "/usr/bin/python3", Args: []string{"/opt/app/run.py"}},
		Backend:    "systemd",
		PriorState: &prior,
		FinalState: StateRunning,
	}
}

func TestResultRenderText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleResult().Render(&buf, FormatText))

	out := buf.String()
	assert.Contains(t, out, "Service:     Worker1\n")
	assert.Contains(t, out, "Backend:     systemd\n")
	assert.Contains(t, out, "Prior state: Stopped\n")
	assert.Contains(t, out, "Final state: Running\n")
	assert.NotContains(t, out, "Error:")

	failed := InstallationResult{Descriptor: ServiceDescriptor{Name: "Worker1"}, Backend: "wrapper"}
	_ = failed.fail(&OpError{Op: OpResolve, Service: "nssm", Err: ErrNotFound})
	buf.Reset()
	require.NoError(t, failed.Render(&buf, FormatText))
	assert.Contains(t, buf.String(), "Error:       NotFound: ")
	assert.NotContains(t, buf.String(), "Prior state")
}

func TestResultRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleResult().Render(&buf, FormatJSON))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Running", doc["final_state"])
	assert.Equal(t, "Stopped", doc["prior_state"])
	assert.NotContains(t, doc, "error_kind")
	assert.Equal(t, "Worker1", doc["descriptor"].(map[string]any)["name"])
}

func TestResultRenderYAML(t *testing.T) {
	res := sampleResult()
	_ = res.fail(&OpError{Op: OpStart, Service: "Worker1", Err: ErrStartFailed})

	var buf bytes.Buffer
	require.NoError(t, res.Render(&buf, FormatYAML))

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "Running", doc["final_state"])
	assert.Equal(t, "StartFailed", doc["error_kind"])
	assert.Contains(t, buf.String(), "  executable: /usr/bin/python3\n")
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatText, "TEXT": FormatText, "json": FormatJSON, "yml": FormatYAML} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOutputFormat("xml")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
