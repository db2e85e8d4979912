package subscriber

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mssauto/internal/config"
	"mssauto/internal/domain"
	"mssauto/internal/mml"
)

type fakeSession struct {
	respond  func(cmd string) string
	commands []string
	aborted  bool
	closed   bool
}

func (f *fakeSession) ExecuteSequence(commands, abortPatterns []string) ([]mml.Exchange, bool, error) {
	var out []mml.Exchange
	for _, cmd := range commands {
		f.commands = append(f.commands, cmd)
		resp := f.respond(cmd)
		out = append(out, mml.Exchange{Command: cmd, Output: resp})

		upper := strings.ToUpper(resp)
		for _, p := range abortPatterns {
			if strings.Contains(upper, strings.ToUpper(p)) {
				f.aborted = true
				return out, true, nil
			}
		}
	}
	return out, false, nil
}

func (f *fakeSession) Close() error {
	f.closed = true
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Commands: config.CommandConfig{
			CheckSubscriber: []string{"ZMVO:MSISDN={msisdn}::;"},
		},
		Patterns: config.PatternConfig{
			NotFound: []string{"UNKNOWN SUBSCRIBER", "DX ERROR", "COMMAND EXECUTION FAILED"},
			Found:    []string{"SUBSCRIBER INFORMATION", "MOBILE COUNTRY CODE"},
			Abort:    []string{"UNKNOWN SUBSCRIBER", "DX ERROR"},
		},
	}
}

func testServer() domain.Server {
	return domain.Server{Name: "MSSTB4", Host: "172.29.108.42", Port: 22, User: "AUTOMA"}
}

func TestCheckFound(t *testing.T) {
	sess := &fakeSession{respond: func(string) string {
		return "SUBSCRIBER INFORMATION\nMOBILE COUNTRY CODE: 262"
	}}
	dial := func(domain.Server) (Session, error) { return sess, nil }

	c := NewChecker(dial, testConfig(), zap.NewNop())
	res := c.Check(testServer(), "4915781993214")

	require.NoError(t, res.Err)
	assert.True(t, res.Found)
	assert.False(t, res.Ambiguous)
	assert.True(t, sess.closed)

	// The {msisdn} placeholder must be expanded into the fixed sequence.
	require.Len(t, sess.commands, 1)
	assert.Equal(t, "ZMVO:MSISDN=4915781993214::;", sess.commands[0])

	assert.Contains(t, res.Transcript, ">>> ZMVO:MSISDN=4915781993214::;")
	assert.Contains(t, res.Transcript, "MOBILE COUNTRY CODE: 262")
}

func TestCheckNotFoundStopsSequenceEarly(t *testing.T) {
	sess := &fakeSession{respond: func(string) string { return "UNKNOWN SUBSCRIBER" }}
	dial := func(domain.Server) (Session, error) { return sess, nil }

	cfg := testConfig()
	cfg.Commands.CheckSubscriber = []string{
		"ZMVO:MSISDN={msisdn}::;",
		"ZMVI:MSISDN={msisdn};",
	}

	c := NewChecker(dial, cfg, zap.NewNop())
	res := c.Check(testServer(), "123")

	assert.False(t, res.Found)
	assert.True(t, sess.aborted)
	// The first response carried an abort marker, the second command must
	// never have been sent.
	assert.Len(t, sess.commands, 1)
}

func TestCheckConnectionFailure(t *testing.T) {
	dialErr := errors.New("ssh connect 172.29.108.42:22: connection refused")
	dial := func(domain.Server) (Session, error) { return nil, dialErr }

	c := NewChecker(dial, testConfig(), zap.NewNop())
	res := c.Check(testServer(), "123")

	assert.False(t, res.Found)
	assert.ErrorIs(t, res.Err, dialErr)
	assert.Contains(t, res.Transcript, "Connection failed")
}

func TestCheckAmbiguousDefaultsToNotFound(t *testing.T) {
	sess := &fakeSession{respond: func(string) string { return "EXECUTED" }}
	dial := func(domain.Server) (Session, error) { return sess, nil }

	c := NewChecker(dial, testConfig(), zap.NewNop())
	res := c.Check(testServer(), "123")

	assert.False(t, res.Found)
	assert.True(t, res.Ambiguous)
}
