// Package phone places and controls test calls between two handsets through
// the adb device bridge.
package phone

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mssauto/internal/domain"
)

// State is the telephony call state of one handset.
type State string

const (
	StateIdle    State = "IDLE"
	StateRinging State = "RINGING"
	StateOffhook State = "OFFHOOK"
	StateUnknown State = "UNKNOWN" // bridge command itself failed
)

const (
	keycodeCall    = "5"
	keycodeEndCall = "6"

	shortTimeout = 5 * time.Second

	// How long to wait after answering before re-reading the call state.
	answerSettle = time.Second
)

// Bridge wraps the adb executable for a fixed set of configured handsets.
type Bridge struct {
	phones  map[string]domain.Phone
	run     Runner
	log     *zap.Logger
	timeout time.Duration // connect / call / server restart
}

func NewBridge(phones map[string]domain.Phone, run Runner, timeout time.Duration, log *zap.Logger) *Bridge {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Bridge{phones: phones, run: run, log: log, timeout: timeout}
}

// Phone resolves a configured handset by its config key.
func (b *Bridge) Phone(id string) (domain.Phone, error) {
	p, ok := b.phones[id]
	if !ok {
		return domain.Phone{}, fmt.Errorf("unknown phone %q", id)
	}
	return p, nil
}

// Phones returns the configured handsets keyed by config id.
func (b *Bridge) Phones() map[string]domain.Phone { return b.phones }

// Available checks that adb can be executed at all.
func (b *Bridge) Available(ctx context.Context) error {
	res, err := b.run.Run(ctx, shortTimeout, "adb", "version")
	if err != nil {
		return fmt.Errorf("adb not available: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("adb version failed: %s", firstNonEmpty(res.Stderr, res.Stdout))
	}
	b.log.Info("adb available", zap.String("version", firstLine(res.Stdout)))
	return nil
}

// Connect attaches adb to a handset. adb connect exits 0 even when it cannot
// reach the device, so success is decided from the output text alone.
func (b *Bridge) Connect(ctx context.Context, addr string) error {
	b.log.Info("connecting to device", zap.String("addr", addr))

	res, err := b.run.Run(ctx, b.timeout, "adb", "connect", addr)
	if err != nil {
		return fmt.Errorf("adb connect %s: %w", addr, err)
	}

	out := strings.ToLower(res.Stdout)
	if strings.Contains(out, "connected") && !strings.Contains(out, "unable to connect") {
		b.log.Info("connected to device", zap.String("addr", addr))
		return nil
	}

	b.log.Error("device connection failed",
		zap.String("addr", addr), zap.String("output", res.Stdout), zap.String("stderr", res.Stderr))
	return fmt.Errorf("adb connect %s failed: %s", addr, firstNonEmpty(res.Stdout, res.Stderr))
}

// Disconnect detaches one handset. Failures are logged, not fatal.
func (b *Bridge) Disconnect(ctx context.Context, addr string) {
	b.log.Info("disconnecting from device", zap.String("addr", addr))
	if _, err := b.run.Run(ctx, shortTimeout, "adb", "disconnect", addr); err != nil {
		b.log.Warn("disconnect failed", zap.String("addr", addr), zap.Error(err))
	}
}

// DisconnectAll detaches every device known to the adb server.
func (b *Bridge) DisconnectAll(ctx context.Context) {
	if _, err := b.run.Run(ctx, shortTimeout, "adb", "disconnect"); err != nil {
		b.log.Warn("disconnect all failed", zap.Error(err))
	}
}

// Call dials the recipient's MSISDN from the caller handset.
func (b *Bridge) Call(ctx context.Context, caller domain.Phone, recipient domain.Phone) error {
	number := CleanMSISDN(recipient.MSISDN)
	b.log.Info("initiating call",
		zap.String("from", caller.MSISDN), zap.String("to", number))

	res, err := b.run.Run(ctx, b.timeout, "adb", "-s", caller.Addr, "shell",
		"am", "start", "-a", "android.intent.action.CALL", "-d", "tel:"+number)
	if err != nil {
		return fmt.Errorf("call from %s: %w", caller.Addr, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("call from %s failed: %s", caller.Addr, firstNonEmpty(res.Stderr, res.Stdout))
	}

	b.log.Info("call initiated")
	return nil
}

// CallBetween connects the caller device and dials from one configured
// handset to the other. With hold > 0 the call is ended after that period.
func (b *Bridge) CallBetween(ctx context.Context, fromID, toID string, hold time.Duration) error {
	caller, err := b.Phone(fromID)
	if err != nil {
		return err
	}
	recipient, err := b.Phone(toID)
	if err != nil {
		return err
	}

	b.log.Info("calling",
		zap.String("from", fromID), zap.String("to", toID),
		zap.String("caller", caller.MSISDN), zap.String("recipient", recipient.MSISDN))

	if err := b.Connect(ctx, caller.Addr); err != nil {
		return err
	}
	if err := b.Call(ctx, caller, recipient); err != nil {
		return err
	}

	if hold > 0 {
		b.log.Info("holding call", zap.Duration("duration", hold))
		select {
		case <-time.After(hold):
		case <-ctx.Done():
			return ctx.Err()
		}
		return b.End(ctx, caller.Addr, true)
	}
	return nil
}

// Answer picks up a ringing call. Refuses when the handset is not RINGING,
// then re-reads the state after a short settle to confirm the pickup.
func (b *Bridge) Answer(ctx context.Context, addr string) error {
	state := b.CallState(ctx, addr)
	if state != StateRinging {
		b.log.Warn("cannot answer, phone is not ringing",
			zap.String("addr", addr), zap.String("state", string(state)))
		return fmt.Errorf("phone %s is not ringing (state %s)", addr, state)
	}

	b.log.Info("answering call", zap.String("addr", addr))
	res, err := b.run.Run(ctx, shortTimeout, "adb", "-s", addr, "shell", "input", "keyevent", keycodeCall)
	if err != nil {
		return fmt.Errorf("answer on %s: %w", addr, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("answer on %s failed: %s", addr, firstNonEmpty(res.Stderr, res.Stdout))
	}

	select {
	case <-time.After(answerSettle):
	case <-ctx.Done():
		return ctx.Err()
	}

	if state := b.CallState(ctx, addr); state == StateOffhook {
		b.log.Info("call active", zap.String("addr", addr))
	} else {
		b.log.Warn("unexpected state after answering",
			zap.String("addr", addr), zap.String("state", string(state)))
	}
	return nil
}

// End hangs up on one handset, and with all set on every other configured
// handset as well, so a two-party test call is fully torn down.
func (b *Bridge) End(ctx context.Context, addr string, all bool) error {
	b.log.Info("ending call", zap.String("addr", addr))

	res, err := b.run.Run(ctx, shortTimeout, "adb", "-s", addr, "shell", "input", "keyevent", keycodeEndCall)
	if err != nil {
		return fmt.Errorf("end call on %s: %w", addr, err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("end call on %s failed: %s", addr, firstNonEmpty(res.Stderr, res.Stdout))
	}

	if all {
		for id, p := range b.phones {
			if p.Addr == addr {
				continue
			}
			b.log.Info("also ending call", zap.String("phone", id), zap.String("addr", p.Addr))
			if _, err := b.run.Run(ctx, shortTimeout, "adb", "-s", p.Addr, "shell", "input", "keyevent", keycodeEndCall); err != nil {
				b.log.Warn("could not end call", zap.String("addr", p.Addr), zap.Error(err))
			}
		}
	}
	return nil
}

// CallState reads the telephony state of one handset from a dumpsys dump.
// An unparseable dump defaults to IDLE; a failed or timed out subprocess is
// UNKNOWN so callers can tell "no call" from "no answer from the bridge".
func (b *Bridge) CallState(ctx context.Context, addr string) State {
	res, err := b.run.Run(ctx, shortTimeout, "adb", "-s", addr, "shell", "dumpsys", "telephony.registry")
	if err != nil {
		b.log.Error("call state query failed", zap.String("addr", addr), zap.Error(err))
		return StateUnknown
	}
	if res.ExitCode != 0 {
		b.log.Error("call state query failed",
			zap.String("addr", addr), zap.String("stderr", res.Stderr))
		return StateUnknown
	}

	state, ok := parseCallState(res.Stdout)
	if !ok {
		b.log.Warn("could not parse call state, defaulting to IDLE", zap.String("addr", addr))
		return StateIdle
	}

	b.log.Debug("call state", zap.String("addr", addr), zap.String("state", string(state)))
	return state
}

// parseCallState scans a telephony.registry dump for the mCallState field.
// 0=IDLE, 1=RINGING, 2=OFFHOOK.
func parseCallState(dump string) (State, bool) {
	for _, line := range strings.Split(dump, "\n") {
		if !strings.Contains(line, "mCallState=") {
			continue
		}
		upper := strings.ToUpper(line)
		switch {
		case strings.Contains(line, "=0") || strings.Contains(upper, "IDLE"):
			return StateIdle, true
		case strings.Contains(line, "=1") || strings.Contains(upper, "RINGING"):
			return StateRinging, true
		case strings.Contains(line, "=2") || strings.Contains(upper, "OFFHOOK"):
			return StateOffhook, true
		}
	}
	return StateIdle, false
}

// RestartServer bounces the adb daemon. Devices usually need to re-authorize
// afterwards.
func (b *Bridge) RestartServer(ctx context.Context) error {
	b.log.Info("killing adb server")
	if res, err := b.run.Run(ctx, b.timeout, "adb", "kill-server"); err != nil {
		return fmt.Errorf("adb kill-server: %w", err)
	} else if res.ExitCode != 0 {
		b.log.Warn("kill-server reported failure", zap.String("stderr", res.Stderr))
	}

	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
		return ctx.Err()
	}

	b.log.Info("starting adb server")
	res, err := b.run.Run(ctx, b.timeout, "adb", "start-server")
	if err != nil {
		return fmt.Errorf("adb start-server: %w", err)
	}
	if res.ExitCode != 0 {
		return fmt.Errorf("adb start-server failed: %s", firstNonEmpty(res.Stderr, res.Stdout))
	}

	b.log.Info("adb server restarted, devices may need to re-authorize")
	return nil
}

// Devices lists what the adb server currently sees.
func (b *Bridge) Devices(ctx context.Context) ([]string, error) {
	res, err := b.run.Run(ctx, shortTimeout, "adb", "devices")
	if err != nil {
		return nil, fmt.Errorf("adb devices: %w", err)
	}

	var lines []string
	for _, line := range strings.Split(res.Stdout, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}

// CleanMSISDN strips spaces and guarantees a leading + so the dial intent
// always carries a fully qualified number.
func CleanMSISDN(msisdn string) string {
	cleaned := strings.ReplaceAll(msisdn, " ", "")
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	return cleaned
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return "(no output)"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
