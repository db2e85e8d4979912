// Package mml drives an interactive MML shell on a telecom switch over SSH.
// MML systems have no exec channel worth using: commands go down an
// interactive PTY and responses are read until the line goes quiet.
package mml

import (
	"fmt"
	"io"
	"net"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"mssauto/internal/classify"
	"mssauto/internal/config"
	"mssauto/internal/domain"
	"mssauto/internal/terminal"
)

// Exchange is one command and the output it produced.
type Exchange struct {
	Command string
	Output  string
}

type Client struct {
	server   domain.Server
	timeouts config.TimeoutConfig
	log      *zap.Logger

	conn    *ssh.Client
	session *ssh.Session
	stdin   io.WriteCloser
	chunks  <-chan []byte
}

// Dial connects to the switch, opens an interactive shell with a PTY and
// discards the login banner. The returned client must be closed by the
// caller on every path.
func Dial(server domain.Server, timeouts config.TimeoutConfig, log *zap.Logger) (*Client, error) {
	log.Info("connecting", zap.String("server", server.Name), zap.String("host", server.Host))

	cfg := &ssh.ClientConfig{
		User: server.User,
		Auth: []ssh.AuthMethod{ssh.Password(server.Password)},
		// The switches are lab equipment on private addresses and present
		// ephemeral host keys after every reinstall.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeouts.Connect,
	}

	addr := net.JoinHostPort(server.Host, strconv.Itoa(server.Port))
	conn, err := ssh.Dial("tcp", addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("ssh connect %s: %w", addr, err)
	}

	session, err := conn.NewSession()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open session on %s: %w", addr, err)
	}

	modes := ssh.TerminalModes{
		ssh.ECHO:          0,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("vt100", 80, 200, modes); err != nil {
		session.Close()
		conn.Close()
		return nil, fmt.Errorf("request pty on %s: %w", addr, err)
	}

	stdin, err := session.StdinPipe()
	if err != nil {
		session.Close()
		conn.Close()
		return nil, fmt.Errorf("stdin pipe on %s: %w", addr, err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		session.Close()
		conn.Close()
		return nil, fmt.Errorf("stdout pipe on %s: %w", addr, err)
	}

	if err := session.Shell(); err != nil {
		session.Close()
		conn.Close()
		return nil, fmt.Errorf("start shell on %s: %w", addr, err)
	}

	c := &Client{
		server:   server,
		timeouts: timeouts,
		log:      log,
		conn:     conn,
		session:  session,
		stdin:    stdin,
		chunks:   terminal.ReadChunks(stdout),
	}

	// Swallow the login banner so the first command's output starts clean.
	banner, _ := terminal.Drain(c.chunks, timeouts.Banner)
	log.Debug("banner discarded", zap.String("server", server.Name), zap.Int("bytes", len(banner)))

	return c, nil
}

// Execute sends one command and drains its response. MML expects CRLF
// termination. A transport error or hangup mid-drain yields whatever was
// collected, never an execution error.
func (c *Client) Execute(command string) (string, error) {
	c.log.Info("executing command", zap.String("server", c.server.Name), zap.String("command", command))

	if _, err := io.WriteString(c.stdin, command+"\r\n"); err != nil {
		return "", fmt.Errorf("send command to %s: %w", c.server.Name, err)
	}

	raw, closed := terminal.Drain(c.chunks, c.timeouts.Read)
	out := terminal.Normalize(terminal.StripANSI(raw))
	if closed {
		c.log.Warn("channel closed while draining", zap.String("server", c.server.Name))
	}

	c.log.Debug("command output", zap.String("server", c.server.Name), zap.String("output", out))
	return out, nil
}

// ExecuteSequence runs commands in order. After each command the just
// returned chunk (not the cumulative transcript) is checked for abort
// markers; on a hit the rest of the sequence is skipped.
func (c *Client) ExecuteSequence(commands, abortPatterns []string) ([]Exchange, bool, error) {
	var exchanges []Exchange

	for _, cmd := range commands {
		out, err := c.Execute(cmd)
		if err != nil {
			return exchanges, false, err
		}
		exchanges = append(exchanges, Exchange{Command: cmd, Output: out})

		if classify.Matches(out, abortPatterns) {
			c.log.Info("abort marker in response, stopping sequence",
				zap.String("server", c.server.Name), zap.String("command", cmd))
			return exchanges, true, nil
		}
	}

	return exchanges, false, nil
}

// Close shuts the shell session and the underlying connection.
func (c *Client) Close() error {
	if c.session != nil {
		c.session.Close()
	}
	var err error
	if c.conn != nil {
		err = c.conn.Close()
	}
	c.log.Info("disconnected", zap.String("server", c.server.Name))
	return err
}
