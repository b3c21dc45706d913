package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/blueconnect/internal/config"
	"github.com/systmms/blueconnect/pkg/client"
)

func NewUserCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				user, err := c.User(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, user)
				}

				fmt.Fprintf(out, "Name:              %s %s\n", user.UserInfo.FirstName, user.UserInfo.LastName)
				fmt.Fprintf(out, "Email:             %s\n", user.UserInfo.Email)
				fmt.Fprintf(out, "Account type:      %s\n", user.UserInfo.AccountType)
				fmt.Fprintf(out, "Temperature unit:  %s\n", user.UserPreferences.DisplayTemperatureUnit)
				fmt.Fprintf(out, "Unit system:       %s\n", user.UserPreferences.DisplayUnitSystem)
				fmt.Fprintf(out, "Main pool:         %s\n", user.UserPreferences.MainSwimmingPoolID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
