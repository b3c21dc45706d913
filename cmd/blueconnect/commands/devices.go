package commands

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/systmms/blueconnect/internal/config"
	"github.com/systmms/blueconnect/pkg/client"
	"github.com/systmms/blueconnect/pkg/models"
)

func NewDevicesCommand(cfg *config.Config) *cobra.Command {
	var (
		serialsOnly bool
		jsonOutput  bool
	)

	cmd := &cobra.Command{
		Use:   "devices <pool-id>",
		Short: "List the Blue devices attached to a pool",
		Long: `List the Blue devices attached to a pool.

With --serials only the serial numbers are printed, which needs a single
request instead of one per device.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				out := cmd.OutOrStdout()

				if serialsOnly {
					serials, err := c.SwimmingPoolBlueDeviceSerials(cmd.Context(), args[0])
					if err != nil {
						return err
					}
					if jsonOutput {
						return writeJSON(out, serials)
					}
					for _, s := range serials {
						fmt.Fprintln(out, s)
					}
					return nil
				}

				devices, err := c.SwimmingPoolBlueDevices(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(out, devices)
				}
				if len(devices) == 0 {
					fmt.Fprintln(out, "No Blue devices.")
					return nil
				}

				tw := newTable(out)
				fmt.Fprintln(tw, "SERIAL\tPRODUCT\tGEN\tLAST MEASURE\tBATTERY LOW")
				for _, d := range devices {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", d.Serial, d.HwProductName, d.HwGeneration, formatTime(lastMeasure(d)), yesNo(d.BatteryLow))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&serialsOnly, "serials", false, "Print serial numbers only")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func NewDeviceCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "device <serial>",
		Short: "Show one Blue device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				device, err := c.BlueDevice(cmd.Context(), args[0])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, device)
				}
				printDevice(out, device)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func printDevice(w io.Writer, d models.BlueDevice) {
	fmt.Fprintf(w, "Serial:          %s\n", d.Serial)
	fmt.Fprintf(w, "Product:         %s (%s, generation %d)\n", d.HwProductName, d.HwProductType, d.HwGeneration)
	fmt.Fprintf(w, "Last BLE:        %s\n", formatTime(d.LastMeasureBle))
	fmt.Fprintf(w, "Last Sigfox:     %s\n", formatTime(d.LastMeasureSigfox))
	fmt.Fprintf(w, "Battery low:     %s\n", yesNo(d.BatteryLow))
}

func lastMeasure(d models.BlueDevice) time.Time {
	if d.LastMeasureBle.After(d.LastMeasureSigfox) {
		return d.LastMeasureBle
	}
	return d.LastMeasureSigfox
}

func NewMeasurementsCommand(cfg *config.Config) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "measurements <pool-id> <serial>",
		Short: "Show the latest measurements of a device",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd.Context(), cfg, func(c *client.Client) error {
				last, err := c.LastMeasurements(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if jsonOutput {
					return writeJSON(out, last)
				}
				return printMeasurements(out, newPalette(out, cfg), last.Measurements())
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func printMeasurements(w io.Writer, colors palette, measurements []models.SwimmingPoolMeasurement) error {
	if len(measurements) == 0 {
		fmt.Fprintln(w, "No measurements.")
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "NAME\tVALUE\tRANGE\tTREND\tSOURCE\tTAKEN\tSTATE")
	for _, m := range measurements {
		state := colors.ok.Render("ok")
		switch {
		case m.Expired:
			state = colors.faint.Render("expired")
		case !m.InRange():
			state = colors.bad.Render("out of range")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s-%s\t%s\t%s\t%s\t%s\n",
			m.Name, formatFloat(m.Value), formatFloat(m.OkMin), formatFloat(m.OkMax),
			m.Trend, m.Issuer, formatTime(m.Timestamp), state)
	}
	return tw.Flush()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
