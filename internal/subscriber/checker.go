// Package subscriber holds the business logic for deciding whether an MSISDN
// is provisioned on the configured switches.
package subscriber

import (
	"strings"

	"go.uber.org/zap"

	"mssauto/internal/classify"
	"mssauto/internal/config"
	"mssauto/internal/domain"
	"mssauto/internal/mml"
)

const transcriptDivider = "--------------------------------------------------------------------------------"

// Session is the slice of the MML client the checker needs. Tests substitute
// a fake; production code passes *mml.Client.
type Session interface {
	ExecuteSequence(commands, abortPatterns []string) ([]mml.Exchange, bool, error)
	Close() error
}

// DialFunc opens a session on one server.
type DialFunc func(domain.Server) (Session, error)

type Checker struct {
	dial       DialFunc
	commands   []string
	abort      []string
	classifier *classify.Classifier
	log        *zap.Logger
}

func NewChecker(dial DialFunc, cfg *config.Config, log *zap.Logger) *Checker {
	return &Checker{
		dial:       dial,
		commands:   cfg.Commands.CheckSubscriber,
		abort:      cfg.Patterns.Abort,
		classifier: classify.New(cfg.Patterns.NotFound, cfg.Patterns.Found),
		log:        log,
	}
}

// Check runs the command sequence for msisdn on one server and classifies the
// combined transcript. Connection and transport failures are folded into the
// result so one dead switch never aborts the whole search.
func (c *Checker) Check(server domain.Server, msisdn string) domain.CheckResult {
	res := domain.CheckResult{Server: server}

	sess, err := c.dial(server)
	if err != nil {
		c.log.Error("connection failed", zap.String("server", server.Name), zap.Error(err))
		res.Err = err
		res.Transcript = "Connection failed: " + err.Error()
		return res
	}
	defer sess.Close()

	exchanges, aborted, err := sess.ExecuteSequence(c.buildCommands(msisdn), c.abort)
	if err != nil {
		c.log.Error("command sequence failed", zap.String("server", server.Name), zap.Error(err))
		res.Err = err
	}
	if aborted {
		c.log.Debug("sequence stopped early on abort marker", zap.String("server", server.Name))
	}

	res.Transcript = formatTranscript(exchanges)

	switch r := c.classifier.Classify(res.Transcript); r.Verdict {
	case classify.VerdictFound:
		c.log.Info("MSISDN present", zap.String("server", server.Name))
		res.Found = true
	case classify.VerdictNotFound:
		c.log.Info("MSISDN not present", zap.String("server", server.Name))
	case classify.VerdictAmbiguous:
		// Neither list matched. Treating this as a miss can hide detection
		// gaps, so it is surfaced loudly and kept distinguishable.
		c.log.Warn("could not definitively determine presence, treating as NOT FOUND",
			zap.String("server", server.Name))
		res.Ambiguous = true
	}

	return res
}

// buildCommands expands the {msisdn} placeholder in each template. The
// sequence is fixed-length and fully determined by the MSISDN.
func (c *Checker) buildCommands(msisdn string) []string {
	out := make([]string, len(c.commands))
	for i, tmpl := range c.commands {
		out[i] = strings.ReplaceAll(tmpl, "{msisdn}", msisdn)
	}
	return out
}

func formatTranscript(exchanges []mml.Exchange) string {
	var b strings.Builder
	for _, e := range exchanges {
		b.WriteString("\n>>> " + e.Command + "\n")
		b.WriteString(e.Output + "\n")
		b.WriteString(transcriptDivider + "\n")
	}
	return b.String()
}
