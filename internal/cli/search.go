// Package cli wires configuration, logging and the domain packages into the
// cobra commands exposed by the binaries.
package cli

import (
	"github.com/spf13/cobra"

	"mssauto/internal/config"
	"mssauto/internal/domain"
	"mssauto/internal/logging"
	"mssauto/internal/mml"
	"mssauto/internal/subscriber"
)

// NewSearchCommand builds the MSISDN search command. found receives the
// overall verdict; ran is set once execution gets past flag parsing, so the
// caller can tell usage errors from runtime failures.
func NewSearchCommand(found, ran *bool) *cobra.Command {
	var (
		msisdn   string
		cfgPath  string
		logLevel string
		logDir   string
	)

	cmd := &cobra.Command{
		Use:   "subsearch",
		Short: "Check MSISDN presence on MML switches via SSH automation",
		Example: "  subsearch --msisdn 4915781993214\n" +
			"  subsearch -m 4915781993214",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*ran = true

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logDir != "" {
				cfg.Logging.Dir = logDir
			}

			log, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level, "subsearch")
			if err != nil {
				return err
			}
			defer log.Sync()

			dial := func(server domain.Server) (subscriber.Session, error) {
				return mml.Dial(server, cfg.Timeouts, log)
			}

			checker := subscriber.NewChecker(dial, cfg, log)
			searcher := subscriber.NewSearcher(checker, cfg, log)

			*found, err = searcher.Search(msisdn)
			return err
		},
	}

	cmd.Flags().StringVarP(&msisdn, "msisdn", "m", "", "MSISDN to check (e.g. 4915781993214)")
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "Path to the configuration file")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Console log level: debug|info|warn|error")
	cmd.Flags().StringVar(&logDir, "log-dir", "", "Directory for logs, reports and transcripts")
	_ = cmd.MarkFlagRequired("msisdn")

	return cmd
}
