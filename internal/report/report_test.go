package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryLifecycle(t *testing.T) {
	dir := t.TempDir()

	s, err := NewSummary(dir, "4915781993214")
	require.NoError(t, err)
	require.NoError(t, s.AddResult("MSSTB4", "172.29.108.42", false))
	require.NoError(t, s.AddResult("MSSTB5", "172.29.108.106", true))
	require.NoError(t, s.Finalize(true))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "MSISDN Lookup Report")
	assert.Contains(t, text, "Searching for: 4915781993214")
	assert.Contains(t, text, "MSSTB4 (172.29.108.42) - NOT FOUND")
	assert.Contains(t, text, "MSSTB5 (172.29.108.106) - FOUND")
	assert.Contains(t, text, "RESULT: MSISDN found on one or more servers")

	// Header first, verdict lines in between, trailer last.
	assert.True(t, strings.Index(text, "MSSTB4") < strings.Index(text, "MSSTB5"))
	assert.True(t, strings.Index(text, "MSSTB5") < strings.Index(text, "RESULT:"))
}

func TestSummaryOverwritesPreviousRun(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewSummary(dir, "111")
	require.NoError(t, err)
	require.NoError(t, s1.AddResult("MSSTB4", "10.0.0.1", true))

	s2, err := NewSummary(dir, "222")
	require.NoError(t, err)
	require.NoError(t, s2.Finalize(false))

	data, err := os.ReadFile(s2.Path())
	require.NoError(t, err)

	assert.NotContains(t, string(data), "111")
	assert.Contains(t, string(data), "Searching for: 222")
}

func TestWriteTranscript(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteTranscript(dir, "MSSTB4", "123", ">>> ZMVO:MSISDN=123::;\nUNKNOWN SUBSCRIBER")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "transcript_MSSTB4.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Server: MSSTB4")
	assert.Contains(t, string(data), "UNKNOWN SUBSCRIBER")
}

func TestWriteTranscriptSanitizesName(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteTranscript(dir, "mss/тб 4", "123", "output")
	require.NoError(t, err)
	assert.NotContains(t, filepath.Base(path), "/")
	assert.NotContains(t, filepath.Base(path), " ")
}
