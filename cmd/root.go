package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/andresmejia3/deepscan/internal/config"
	"github.com/andresmejia3/deepscan/internal/logging"
	"github.com/andresmejia3/deepscan/internal/store"
	"github.com/andresmejia3/deepscan/internal/utils"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// DB is the history store shared by subcommands. It stays nil when no
	// database is configured or the connection failed for an analysis run.
	DB *store.Store
	// Settings is the merged flag, environment and file configuration.
	Settings *config.Settings

	v       = config.New()
	cfgFile string
	quiet   bool
)

// Version is the application version.
const Version = "0.1.0"

// errReported means the error object has already been written to stdout.
var errReported = errors.New("error already reported")

var rootCmd = &cobra.Command{
	Use:     "deepscan [flags] <video>",
	Short:   "Heuristic deepfake likelihood analysis for video files",
	Long:    "Samples frames from a video, scores six classical heuristics and prints one JSON verdict on stdout.",
	Version: Version, // This enables the --version flag
	Args:    cobra.MaximumNArgs(1),

	SilenceUsage:  true,
	SilenceErrors: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		if quiet {
			s.Log.Level = "disabled"
		}
		Settings = s
		logging.Init(s.Log.Level)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), cmd.OutOrStdout(), args)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if DB != nil {
			// Use Background here because the main context might be cancelled already (due to Ctrl+C)
			// and we still need to send the "Close" command to the DB.
			DB.Close(context.Background())
			DB = nil
		}
	},
}

// Execute runs the CLI and exits non-zero on any failure.
func Execute() {
	// Create a context that listens for Ctrl+C (SIGINT) or Kill (SIGTERM)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return
	}
	if !errors.Is(err, errReported) {
		if cmd == rootCmd {
			// Analysis runs always answer with a JSON object, even for flag errors.
			utils.EmitError(os.Stdout, err.Error(), nil)
		} else {
			utils.ShowError(cmd.Name()+" failed", err, nil)
		}
	}
	stop()
	os.Exit(1)
}

// connectStore opens the history store when a database URL is configured.
func connectStore(ctx context.Context) (*store.Store, error) {
	if DB != nil {
		return DB, nil
	}
	if Settings == nil || Settings.DB.URL == "" {
		return nil, nil
	}
	s, err := store.New(ctx, Settings.DB.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	DB = s
	return DB, nil
}

// requireStore is connectStore for commands that cannot work without history.
func requireStore(ctx context.Context) (*store.Store, error) {
	s, err := connectStore(ctx)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, errors.New("no database configured: set --db, DEEPSCAN_DB_URL or POSTGRES_HOST")
	}
	return s, nil
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Optional YAML/TOML/JSON config file")
	flags.BoolVarP(&quiet, "quiet", "q", false, "Suppress progress output on stderr")

	flags.Int("max-frames", 80, "Maximum number of frames to sample")
	flags.String("mode", "even", "Sampling mode: even (spread over the video) or first (leading frames)")
	flags.String("locator", "auto", "Face locator: auto, process, cascade or none")
	flags.String("locator-cmd", "", "Command line of an external face locator worker (locator=process)")
	flags.String("cascade", "haarcascade_frontalface_default.xml", "Haar cascade XML (locator=cascade)")
	flags.IntP("engines", "e", 1, "Number of parallel face locator instances")
	flags.String("db", "", "PostgreSQL connection string for analysis history (empty disables it)")
	flags.String("log-level", "info", "Log level: debug, info, warn, error, disabled")

	bindings := map[string]string{
		"sampling.maxframes": "max-frames",
		"sampling.mode":      "mode",
		"face.locator":       "locator",
		"face.command":       "locator-cmd",
		"face.cascade":       "cascade",
		"face.engines":       "engines",
		"db.url":             "db",
		"log.level":          "log-level",
	}
	for key, name := range bindings {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			log.Fatal().Err(err).Str("flag", name).Msg("Failed to bind flag")
		}
	}
}
