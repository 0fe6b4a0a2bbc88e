package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/smazurov/soundnode/pkg/linuxav/alsa"
	"github.com/spf13/cobra"
)

// CreateDevicesCmd creates the devices command.
func CreateDevicesCmd() *cobra.Command {
	var capture bool

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List ALSA PCM devices",
		Long:  `Enumerates sound cards and prints every playback (or capture) PCM with its channel, rate and format ranges.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stream := alsa.StreamPlayback
			if capture {
				stream = alsa.StreamCapture
			}

			devices, err := alsa.ListDevices(stream)
			if err != nil {
				return fmt.Errorf("list devices: %w", err)
			}
			if len(devices) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No %s devices found\n", alsa.StreamName(stream))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DEVICE\tCARD\tNAME\tCHANNELS\tRATES\tFORMATS")
			for _, d := range devices {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d-%d\t%s\t%s\n",
					d.ALSADevice, d.CardID, d.DeviceName,
					d.MinChannels, d.MaxChannels,
					joinInts(d.SupportedRates), strings.Join(d.SupportedFormats, ","))
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&capture, "capture", false, "List capture devices instead of playback")

	return cmd
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
