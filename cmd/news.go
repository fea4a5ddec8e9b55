package cmd

import (
	"errors"
	"io"
	"strings"

	"github.com/andresmejia3/deepscan/internal/news"
	"github.com/andresmejia3/deepscan/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var newsCmd = &cobra.Command{
	Use:   "news <text|->",
	Short: "Score a news text for fabricated-news markers",
	Long:  "Rates sensational language, source trust and checkable claims, and prints one JSON verdict on stdout. Pass - to read the text from stdin.",
	Args:  cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runNews(cmd.InOrStdin(), cmd.OutOrStdout(), args)
	},
}

func init() {
	rootCmd.AddCommand(newsCmd)
}

// runNews writes exactly one JSON object to out, like runAnalyze.
func runNews(in io.Reader, out io.Writer, args []string) error {
	text := strings.Join(args, " ")
	if text == "-" {
		data, err := io.ReadAll(in)
		if err != nil {
			utils.EmitError(out, "Unable to read text", err)
			return errReported
		}
		text = string(data)
	}

	res, err := news.NewDetector().Detect(text)
	if errors.Is(err, news.ErrEmptyText) {
		utils.EmitError(out, "No text provided", nil)
		return errReported
	}
	if err != nil {
		utils.EmitError(out, "Analysis failed", err)
		return errReported
	}

	log.Debug().Float64("probability", res.Probability).Bool("fake", res.IsFake).Msg("news analysis complete")
	return utils.EmitJSON(out, res)
}
