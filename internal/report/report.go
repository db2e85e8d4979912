// Package report writes the human-readable artifacts of a search run: the
// summary verdict file and per-server transcripts for auditing.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const divider = "============================================================"

// Summary is the append-friendly verdict file for one MSISDN lookup.
type Summary struct {
	path string
}

// NewSummary creates (truncating any previous run) the summary file with its
// header and returns a writer for the per-server lines.
func NewSummary(dir, msisdn string) (*Summary, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	s := &Summary{path: filepath.Join(dir, "summary.txt")}

	var b strings.Builder
	fmt.Fprintf(&b, "MSISDN Lookup Report - %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "Searching for: %s\n", msisdn)
	b.WriteString(divider + "\n\n")

	if err := os.WriteFile(s.path, []byte(b.String()), 0o644); err != nil {
		return nil, fmt.Errorf("write report header: %w", err)
	}
	return s, nil
}

// AddResult appends one server's verdict line.
func (s *Summary) AddResult(serverName, host string, found bool) error {
	status := "NOT FOUND"
	if found {
		status = "FOUND"
	}
	return s.append(fmt.Sprintf("%s (%s) - %s\n", serverName, host, status))
}

// Finalize appends the overall verdict trailer.
func (s *Summary) Finalize(found bool) error {
	verdict := "RESULT: MSISDN not found on any server\n"
	if found {
		verdict = "RESULT: MSISDN found on one or more servers\n"
	}
	return s.append("\n" + divider + "\n" + verdict)
}

func (s *Summary) Path() string { return s.path }

func (s *Summary) append(line string) error {
	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open report: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(line)
	return err
}

// WriteTranscript stores the full command/response text for one server so a
// verdict can be audited after the fact.
func WriteTranscript(dir, serverName, msisdn, transcript string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(dir, "transcript_"+sanitize(serverName)+".txt")

	var b strings.Builder
	fmt.Fprintf(&b, "Server: %s\nMSISDN: %s\nCaptured: %s\n", serverName, msisdn, time.Now().Format(time.RFC3339))
	b.WriteString(divider + "\n")
	b.WriteString(transcript)
	if !strings.HasSuffix(transcript, "\n") {
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, name)
}
