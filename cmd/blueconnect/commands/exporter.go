package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/blueconnect/internal/config"
	"github.com/systmms/blueconnect/internal/exporter"
	"github.com/systmms/blueconnect/internal/poolstate"
)

func NewExporterCommand(cfg *config.Config) *cobra.Command {
	var (
		addr    string
		poolID  string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "exporter",
		Short: "Serve pool measurements as Prometheus metrics",
		Long: `Run an HTTP server exposing the main pool's measurements in the
Prometheus text format. Every scrape fetches fresh data; credentials are
reused until they expire.

The listen port and path come from the metrics section of the
configuration file. /health answers with 200 while the server runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := newClient(ctx, cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			fetcher := poolstate.New(c,
				poolstate.WithPoolID(poolID),
				poolstate.WithLanguage(cfg.Definition.API.Language),
				poolstate.WithLogger(cfg.Logger))
			collector := exporter.NewCollector(fetcher,
				exporter.WithScrapeTimeout(timeout),
				exporter.WithLogger(cfg.Logger))

			serverCfg := exporter.DefaultServerConfig()
			serverCfg.Addr = cfg.Definition.Metrics.Addr()
			serverCfg.Path = cfg.Definition.Metrics.Path
			if addr != "" {
				serverCfg.Addr = addr
			}

			server, err := exporter.NewServer(serverCfg, collector, cfg.Logger)
			if err != nil {
				return err
			}
			if err := server.Start(); err != nil {
				return err
			}

			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Stop(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "listen", "", "Listen address (overrides metrics.port)")
	cmd.Flags().StringVar(&poolID, "pool", "", "Pool ID (defaults to the account's main pool)")
	cmd.Flags().DurationVar(&timeout, "scrape-timeout", exporter.DefaultScrapeTimeout, "Maximum time to fetch pool state per scrape")
	return cmd
}
