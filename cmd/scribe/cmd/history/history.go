package history

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"whisper-scribe/cmd/scribe/cmd/shared"
	"whisper-scribe/internal/app"
	"whisper-scribe/internal/app/repository/export"
)

var (
	limit      int
	exportPath string
)

func init() {
	Cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show, 0 for all")
	Cmd.Flags().StringVarP(&exportPath, "export", "x", "", "Write the entries to this xlsx file instead of printing them")
}

// Cmd represents the history command
var Cmd = &cobra.Command{
	Use:   "history",
	Short: "List past transcriptions or export them to Excel",
	Long: `List past transcriptions or export them to Excel

Requires a history store (SCRIBE_HISTORY_DRIVER and SCRIBE_HISTORY_DSN).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := shared.Config()
		if !cfg.HistoryEnabled() {
			return errors.New("no history store configured, set SCRIBE_HISTORY_DRIVER and SCRIBE_HISTORY_DSN")
		}

		dao, cleanup, err := app.ProvideHistory(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		entries, err := dao.List(cmd.Context(), limit)
		if err != nil {
			return err
		}

		if exportPath != "" {
			if err := export.ToExcel(entries, exportPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d entries to %s\n", len(entries), exportPath)
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CREATED\tFILE\tSTATUS\tMINUTES\tCOST\tWORDS")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\t$%.4f\t%d\n",
				e.CreatedAt.Local().Format("2006-01-02 15:04"), e.FileName, e.Status,
				e.DurationSeconds/60, e.CostUSD, e.Words)
		}
		return w.Flush()
	},
}
