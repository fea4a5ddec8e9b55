package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresmejia3/deepscan/internal/store"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past analyses stored in the database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireStore(cmd.Context())
		if err != nil {
			return err
		}
		records, err := db.ListAnalyses(cmd.Context(), historyLimit)
		if err != nil {
			return fmt.Errorf("failed to list analyses: %w", err)
		}
		printHistory(cmd.OutOrStdout(), records)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of analyses to show")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(out io.Writer, records []store.AnalysisRecord) {
	if len(records) == 0 {
		fmt.Fprintln(out, "No analyses found in database.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tVIDEO\tPROBABILITY\tVERDICT\tCONFIDENCE\tFRAMES\tANALYZED")
	fmt.Fprintln(w, "--\t-----\t-----------\t-------\t----------\t------\t--------")

	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%.2f\t%s\t%d%%\t%d\t%s\n",
			r.ID, r.Path, r.Probability, verdictLabel(r.IsDeepfake), r.Confidence,
			r.Details.FramesAnalyzed, r.AnalyzedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func verdictLabel(deepfake bool) string {
	if deepfake {
		return "deepfake"
	}
	return "authentic"
}
