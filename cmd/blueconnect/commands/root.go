package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/blueconnect/internal/config"
	"github.com/systmms/blueconnect/internal/logging"
)

// NewRootCommand assembles the CLI. cfg is filled in from the global flags
// before any subcommand runs.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	rootCmd := &cobra.Command{
		Use:   "blueconnect",
		Short: "Blue Connect pool monitoring client",
		Long: `blueconnect talks to the Blue Connect cloud API: it lists your pools
and devices, shows the latest water measurements and can export them to
Prometheus.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cfg.Logger == nil {
				cfg.Logger = logging.NewWithWriter(cmd.ErrOrStderr(), debug, noColor)
			}
			cfg.Path = configFile
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", config.DefaultPath, "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Never prompt")

	rootCmd.AddCommand(
		NewLoginCommand(cfg),
		NewUserCommand(cfg),
		NewPoolsCommand(cfg),
		NewPoolCommand(cfg),
		NewStatusCommand(cfg),
		NewFeedCommand(cfg),
		NewDevicesCommand(cfg),
		NewDeviceCommand(cfg),
		NewMeasurementsCommand(cfg),
		NewStateCommand(cfg),
		NewExporterCommand(cfg),
		NewCompletionCommand(),
	)

	rootCmd.SetVersionTemplate(fmt.Sprintf("blueconnect %s\n", version))
	return rootCmd
}
