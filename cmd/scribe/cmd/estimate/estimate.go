package estimate

import (
	"fmt"

	"github.com/spf13/cobra"

	"whisper-scribe/cmd/scribe/cmd/shared"
	"whisper-scribe/internal/app"
)

// Cmd represents the estimate command
var Cmd = &cobra.Command{
	Use:   "estimate <audio-file>...",
	Short: "Print the duration and estimated API cost of audio files",
	Long: `Print the duration and estimated API cost of audio files

Nothing is uploaded. The cost uses the configured per-minute rate.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		orch, err := app.InitializeOrchestrator(shared.Config(), shared.Logger(), nil)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		var totalMinutes, totalCost float64
		for _, path := range args {
			src, est, err := orch.Estimate(cmd.Context(), path)
			if err != nil {
				return err
			}
			totalMinutes += est.DurationMinutes()
			totalCost += est.CostUSD
			fmt.Fprintf(out, "%s\t%.1f min\t$%.4f\t(%s)\n", path, est.DurationMinutes(), est.CostUSD, src)
		}
		if len(args) > 1 {
			fmt.Fprintf(out, "total\t%.1f min\t$%.4f\n", totalMinutes, totalCost)
		}
		return nil
	},
}
