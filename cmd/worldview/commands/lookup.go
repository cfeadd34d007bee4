package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/i474232898/worldview/internal/worldview"
)

func searchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <city>",
		Short: "Show weather and culture for a city",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := appCtx.Pipeline.Search(cmd.Context(), strings.Join(args, " "))
			return show(cmd, d, err)
		},
	}
}

func clickCmd() *cobra.Command {
	var lat, lon float64
	c := &cobra.Command{
		Use:   "click",
		Short: "Show weather and culture at coordinates, as a map click would",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := appCtx.Pipeline.Click(cmd.Context(), lat, lon)
			return show(cmd, d, err)
		},
	}
	c.Flags().Float64Var(&lat, "lat", 0, "latitude")
	c.Flags().Float64Var(&lon, "lon", 0, "longitude")
	_ = c.MarkFlagRequired("lat")
	_ = c.MarkFlagRequired("lon")
	return c
}

func hereCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "here",
		Short: "Show weather and culture at this device's location",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := appCtx.Pipeline.Locate(cmd.Context())
			return show(cmd, d, err)
		},
	}
}

// show prints the display; a failed run prints the localized message and
// returns the underlying error for the exit status.
func show(cmd *cobra.Command, d worldview.Display, err error) error {
	if perr := printJSON(cmd.OutOrStdout(), d); perr != nil {
		return perr
	}
	return err
}
