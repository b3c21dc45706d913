package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/blueconnect/internal/config"
	"github.com/systmms/blueconnect/internal/poolstate"
	"github.com/systmms/blueconnect/pkg/client"
)

func NewStateCommand(cfg *config.Config) *cobra.Command {
	var (
		poolID     string
		language   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Show a summary of the main pool",
		Long: `Show the pool, its latest feed message, its Blue device and the
device's latest measurements in one view.

Examples:
  blueconnect state
  blueconnect state --pool 1a2b3c --lang da
  blueconnect state --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				lang := language
				if lang == "" {
					lang = cfg.Definition.API.Language
				}
				fetcher := poolstate.New(c,
					poolstate.WithPoolID(poolID),
					poolstate.WithLanguage(lang),
					poolstate.WithLogger(cfg.Logger))

				state, err := fetcher.Fetch(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, state)
				}

				fmt.Fprintf(out, "%s (%s)\n", state.Pool.Name, state.Pool.SwimmingPoolID)
				if state.FeedMessage != nil {
					fmt.Fprintf(out, "\n%s\n  %s\n", state.FeedMessage.Title, state.FeedMessage.Message)
				}
				if state.Device == nil {
					fmt.Fprintln(out, "\nNo Blue device attached.")
					return nil
				}
				fmt.Fprintf(out, "\nDevice %s, battery low: %s, temperatures in %s\n\n",
					state.Device.Serial, yesNo(state.Device.BatteryLow), state.TemperatureUnit)
				return printMeasurements(out, newPalette(out, cfg), state.Measurements)
			})
		},
	}

	cmd.Flags().StringVar(&poolID, "pool", "", "Pool ID (defaults to the account's main pool)")
	cmd.Flags().StringVar(&language, "lang", "", "Feed language (defaults to api.language)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
