package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var (
	notFoundPatterns = []string{"UNKNOWN SUBSCRIBER", "DX ERROR", "COMMAND EXECUTION FAILED"}
	foundPatterns    = []string{"SUBSCRIBER INFORMATION", "MOBILE COUNTRY CODE"}
)

func TestClassifyAbsentBeatsPresent(t *testing.T) {
	c := New(notFoundPatterns, foundPatterns)

	// Both lists match: the absent check runs first and wins.
	r := c.Classify("UNKNOWN SUBSCRIBER\nSUBSCRIBER INFORMATION")
	assert.Equal(t, VerdictNotFound, r.Verdict)
	assert.False(t, r.Verdict.Found())
}

func TestClassifyFound(t *testing.T) {
	c := New(notFoundPatterns, foundPatterns)

	r := c.Classify("... MOBILE COUNTRY CODE: 262 ...")
	assert.Equal(t, VerdictFound, r.Verdict)
	assert.True(t, r.Verdict.Found())
}

func TestClassifyCaseInsensitive(t *testing.T) {
	c := New(notFoundPatterns, foundPatterns)

	assert.Equal(t, VerdictFound, c.Classify("subscriber information").Verdict)
	assert.Equal(t, VerdictNotFound, c.Classify("dx error").Verdict)
}

func TestClassifyAmbiguousIsDistinct(t *testing.T) {
	c := New(notFoundPatterns, foundPatterns)

	r := c.Classify("EXECUTED\n\nCOMMAND COMPLETE")
	assert.Equal(t, VerdictAmbiguous, r.Verdict)
	// Ambiguous counts as a miss but stays distinguishable from a
	// definitive NOT FOUND.
	assert.False(t, r.Verdict.Found())
	assert.NotEqual(t, VerdictNotFound, r.Verdict)
}

func TestClassifyKeepsEvidence(t *testing.T) {
	c := New(notFoundPatterns, foundPatterns)

	text := "ZMVO:MSISDN=123::;\nUNKNOWN SUBSCRIBER"
	assert.Equal(t, text, c.Classify(text).Evidence)
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("a DX ERROR happened", []string{"UNKNOWN SUBSCRIBER", "DX ERROR"}))
	assert.True(t, Matches("unknown subscriber", []string{"UNKNOWN SUBSCRIBER"}))
	assert.False(t, Matches("all good", []string{"UNKNOWN SUBSCRIBER", "DX ERROR"}))
	assert.False(t, Matches("anything", nil))
}
