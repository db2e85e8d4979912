package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mssauto/internal/config"
	"mssauto/internal/domain"
	"mssauto/internal/logging"
	"mssauto/internal/phone"
)

type phoneApp struct {
	cfg    *config.Config
	log    *zap.Logger
	bridge *phone.Bridge
}

// NewPhoneCommand builds the phonecall command tree. Without a subcommand it
// drops into the interactive menu.
func NewPhoneCommand() *cobra.Command {
	var (
		cfgPath  string
		logLevel string
		logDir   string
	)

	app := &phoneApp{}

	root := &cobra.Command{
		Use:           "phonecall",
		Short:         "Drive test calls between handsets through the adb device bridge",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidatePhones(); err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			if logDir != "" {
				cfg.Logging.Dir = logDir
			}

			log, err := logging.New(cfg.Logging.Dir, cfg.Logging.Level, "phonecall")
			if err != nil {
				return err
			}

			phones := make(map[string]domain.Phone, len(cfg.Phones))
			for id, p := range cfg.Phones {
				phones[id] = domain.Phone{ID: id, Addr: p.Addr, MSISDN: p.MSISDN}
			}

			app.cfg = cfg
			app.log = log
			app.bridge = phone.NewBridge(phones, phone.ExecRunner{}, cfg.Timeouts.Process, log)

			if err := app.bridge.Available(cmd.Context()); err != nil {
				log.Error("adb is not installed or not in PATH")
				log.Error("on Ubuntu/Debian: sudo apt-get install adb")
				return err
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.log != nil {
				_ = app.log.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd.Context(), app, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "Path to the configuration file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Console log level: debug|info|warn|error")
	root.PersistentFlags().StringVar(&logDir, "log-dir", "", "Directory for log files")

	root.AddCommand(
		newCallCommand(app),
		newAnswerCommand(app),
		newEndCommand(app),
		newStateCommand(app),
		newDevicesCommand(app),
		newConnectCommand(app),
		newDisconnectCommand(app),
		newRestartCommand(app),
	)

	return root
}

func newCallCommand(app *phoneApp) *cobra.Command {
	var (
		from     string
		to       string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "call",
		Short: "Place a call from one configured handset to another",
		Example: "  phonecall call --from phoneA --to phoneB\n" +
			"  phonecall call --from phoneA --to phoneB --duration 30s",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.bridge.CallBetween(cmd.Context(), from, to, duration)
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Caller phone id")
	cmd.Flags().StringVar(&to, "to", "", "Recipient phone id")
	cmd.Flags().DurationVar(&duration, "duration", 0, "End the call automatically after this period")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newAnswerCommand(app *phoneApp) *cobra.Command {
	return &cobra.Command{
		Use:   "answer <phone-id>",
		Short: "Answer a ringing call on a handset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.bridge.Phone(args[0])
			if err != nil {
				return err
			}
			return app.bridge.Answer(cmd.Context(), p.Addr)
		},
	}
}

func newEndCommand(app *phoneApp) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "end <phone-id>",
		Short: "End the active call on a handset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := app.bridge.Phone(args[0])
			if err != nil {
				return err
			}
			return app.bridge.End(cmd.Context(), p.Addr, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", true, "Also end the call on every other configured handset")
	return cmd
}

func newStateCommand(app *phoneApp) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Show the call state of every configured handset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range sortedPhoneIDs(app.bridge) {
				p, _ := app.bridge.Phone(id)
				state := app.bridge.CallState(cmd.Context(), p.Addr)
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", id, p.MSISDN, state)
			}
			return nil
		},
	}
}

func newDevicesCommand(app *phoneApp) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List devices known to the adb server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := app.bridge.Devices(cmd.Context())
			if err != nil {
				return err
			}
			for _, line := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}
}

func newConnectCommand(app *phoneApp) *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Connect the adb server to every configured handset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var firstErr error
			for _, id := range sortedPhoneIDs(app.bridge) {
				p, _ := app.bridge.Phone(id)
				if err := app.bridge.Connect(cmd.Context(), p.Addr); err != nil && firstErr == nil {
					firstErr = err
				}
			}
			return firstErr
		},
	}
}

func newDisconnectCommand(app *phoneApp) *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Disconnect all devices from the adb server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app.bridge.DisconnectAll(cmd.Context())
			return nil
		},
	}
}

func newRestartCommand(app *phoneApp) *cobra.Command {
	return &cobra.Command{
		Use:   "restart-server",
		Short: "Restart the adb server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.bridge.RestartServer(cmd.Context())
		},
	}
}

func sortedPhoneIDs(b *phone.Bridge) []string {
	ids := make([]string, 0, len(b.Phones()))
	for id := range b.Phones() {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
