package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

var resetYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the analysis history tables",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := requireStore(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if !resetYes && !confirm(bufio.NewReader(cmd.InOrStdin()), out, "⚠️  Are you sure you want to DROP all analysis history?") {
			fmt.Fprintln(out, "Aborted.")
			return nil
		}

		fmt.Fprintln(out, "🗑️  Clearing Database...")
		if err := db.Reset(cmd.Context()); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
		fmt.Fprintln(out, "✨ History Reset Complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}
