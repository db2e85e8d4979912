package subscriber

import (
	"go.uber.org/zap"

	"mssauto/internal/config"
	"mssauto/internal/domain"
	"mssauto/internal/report"
)

// Searcher walks the configured servers in order, one at a time, and stops at
// the first hit.
type Searcher struct {
	checker   *Checker
	servers   []domain.Server
	reportDir string
	log       *zap.Logger
}

func NewSearcher(checker *Checker, cfg *config.Config, log *zap.Logger) *Searcher {
	servers := make([]domain.Server, len(cfg.Servers))
	for i, s := range cfg.Servers {
		servers[i] = domain.Server{
			Name:     s.Name,
			Host:     s.Host,
			Port:     s.Port,
			User:     s.User,
			Password: s.Password,
		}
	}
	return &Searcher{
		checker:   checker,
		servers:   servers,
		reportDir: cfg.Logging.Dir,
		log:       log,
	}
}

// Search checks msisdn against every server until found, writing the summary
// report and per-server transcripts as it goes. Per-server failures are
// recorded as NOT FOUND and the search moves on.
func (s *Searcher) Search(msisdn string) (bool, error) {
	s.log.Info("starting MSISDN lookup", zap.String("msisdn", msisdn))

	summary, err := report.NewSummary(s.reportDir, msisdn)
	if err != nil {
		return false, err
	}

	for _, server := range s.servers {
		res := s.checker.Check(server, msisdn)

		if _, err := report.WriteTranscript(s.reportDir, server.Name, msisdn, res.Transcript); err != nil {
			s.log.Warn("transcript not written", zap.String("server", server.Name), zap.Error(err))
		}
		if err := summary.AddResult(server.Name, server.Host, res.Found); err != nil {
			return false, err
		}

		if res.Found {
			s.log.Info("found MSISDN, stopping search",
				zap.String("server", server.Name), zap.String("host", server.Host))
			if err := summary.Finalize(true); err != nil {
				return true, err
			}
			return true, nil
		}

		s.log.Info("MSISDN not found, checking next server",
			zap.String("server", server.Name), zap.String("host", server.Host))
	}

	s.log.Info("MSISDN not found on any configured server", zap.String("msisdn", msisdn))
	if err := summary.Finalize(false); err != nil {
		return false, err
	}
	return false, nil
}
