package cli

import (
	"github.com/spf13/cobra"

	"earnings-watch/internal/app"
)

var (
	exportToday   string
	exportPNGPath string
	exportCSVPath string
)

var exportCmd = &cobra.Command{
	Use:   "export SYMBOL",
	Short: "Export a symbol's observations as CSV and its session votes as a PNG chart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		today, err := parseDateFlag("today", exportToday)
		if err != nil {
			return err
		}
		return getApp().Export(cmd.Context(), app.ExportOptions{
			Symbol:  args[0],
			Today:   today,
			PNGPath: exportPNGPath,
			CSVPath: exportCSVPath,
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportToday, "today", "", "Reference date (YYYY-MM-DD, defaults to the market date)")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
}
