package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/systmms/blueconnect/internal/config"
	"github.com/systmms/blueconnect/pkg/client"
)

func NewPoolsCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List the swimming pools of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				pools, err := c.SwimmingPools(cmd.Context())
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, pools)
				}
				if len(pools) == 0 {
					fmt.Fprintln(out, "No swimming pools.")
					return nil
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "ID\tNAME\tUPDATED\tLAST STATUS")
				for _, p := range pools {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.SwimmingPoolID, p.Name, formatTime(p.Updated), formatTime(p.LastRefreshStatus))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func NewPoolCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "pool <pool-id>",
		Short: "Show one swimming pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				pool, err := c.SwimmingPool(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, pool)
				}
				fmt.Fprintf(out, "ID:           %s\n", pool.SwimmingPoolID)
				fmt.Fprintf(out, "Name:         %s\n", pool.Name)
				fmt.Fprintf(out, "Created:      %s\n", formatTime(pool.Created))
				fmt.Fprintf(out, "Updated:      %s\n", formatTime(pool.Updated))
				fmt.Fprintf(out, "Last status:  %s\n", formatTime(pool.LastRefreshStatus))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func NewStatusCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status <pool-id>",
		Short: "Show the health status and pending tasks of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				status, err := c.SwimmingPoolStatus(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, status)
				}

				colors := newPalette(out, cfg)
				code := colors.bad.Render(status.GlobalStatusCode)
				if status.GlobalStatusCode == "OK" {
					code = colors.ok.Render(status.GlobalStatusCode)
				}
				fmt.Fprintf(out, "%s: %s (since %s)\n", status.SwimmingPoolName, code, formatTime(status.Since))
				if len(status.Tasks) == 0 {
					return nil
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "ORDER\tTASK\tSINCE")
				for _, task := range status.Tasks {
					fmt.Fprintf(tw, "%d\t%s\t%s\n", task.Order, task.TaskIdentifier, formatTime(task.Since))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func NewFeedCommand(cfg *config.Config) *cobra.Command {
	var (
		language   string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "feed <pool-id>",
		Short: "Show the message feed of a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				lang := language
				if lang == "" {
					lang = cfg.Definition.API.Language
				}
				feed, err := c.SwimmingPoolFeed(cmd.Context(), args[0], lang)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, feed)
				}
				if len(feed.Messages()) == 0 {
					fmt.Fprintln(out, "No messages.")
					return nil
				}
				for _, msg := range feed.Messages() {
					fmt.Fprintf(out, "%s\n  %s\n", msg.Title, msg.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&language, "lang", "", "Feed language (defaults to api.language)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}
