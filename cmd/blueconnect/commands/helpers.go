package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/systmms/blueconnect/internal/config"
	"github.com/systmms/blueconnect/pkg/client"
)

// newClient loads the configuration, resolves the password and builds an
// API client. The caller must Close it.
func newClient(ctx context.Context, cfg *config.Config) (*client.Client, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	password, err := cfg.Password(ctx)
	if err != nil {
		return nil, err
	}
	return newClientWithPassword(cfg, password)
}

func newClientWithPassword(cfg *config.Config, password string) (*client.Client, error) {
	opts, err := cfg.ClientOptions()
	if err != nil {
		return nil, err
	}
	return client.New(cfg.Definition.Account.Email, password, opts...)
}

// withClient runs fn with a fresh client and closes it afterwards.
func withClient(ctx context.Context, cfg *config.Config, fn func(*client.Client) error) error {
	c, err := newClient(ctx, cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// palette colors terminal output. Colors are dropped when w is not a
// terminal or --no-color is set.
type palette struct {
	ok, bad, faint lipgloss.Style
}

func newPalette(w io.Writer, cfg *config.Config) palette {
	r := lipgloss.NewRenderer(w)
	if cfg.Logger != nil && !cfg.Logger.ColorEnabled() {
		return palette{ok: r.NewStyle(), bad: r.NewStyle(), faint: r.NewStyle()}
	}
	return palette{
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		bad:   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		faint: r.NewStyle().Faint(true),
	}
}
