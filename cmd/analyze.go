package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/andresmejia3/deepscan/internal/analysis"
	"github.com/andresmejia3/deepscan/internal/config"
	"github.com/andresmejia3/deepscan/internal/face"
	"github.com/andresmejia3/deepscan/internal/logging"
	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/andresmejia3/deepscan/internal/utils"
	"github.com/andresmejia3/deepscan/internal/video"
	"github.com/rs/zerolog/log"
)

// runAnalyze writes exactly one JSON object to out: the result or an error.
func runAnalyze(ctx context.Context, out io.Writer, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Analysis aborted")
			utils.EmitError(out, "Internal error", fmt.Errorf("panic: %v", r))
			err = errReported
		}
	}()

	if len(args) == 0 || args[0] == "" {
		utils.EmitError(out, "No video path provided", nil)
		return errReported
	}
	path := args[0]

	s := Settings
	if s == nil {
		if s, err = config.Load(v, ""); err != nil {
			utils.EmitError(out, "Invalid configuration", err)
			return errReported
		}
	}

	pipeline, err := newPipeline(s)
	if err != nil {
		utils.EmitError(out, "Invalid configuration", err)
		return errReported
	}

	res, err := pipeline.Run(ctx, path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("Analysis failed")
		utils.EmitError(out, errorMessage(err), err)
		return errReported
	}

	if err := utils.EmitJSON(out, res); err != nil {
		return err
	}
	recordHistory(ctx, path, res)
	return nil
}

// errorMessage maps a pipeline failure to its user-facing message.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, video.ErrSourceNotFound):
		return "File not found"
	case errors.Is(err, video.ErrSourceUnreadable):
		return "Unable to read video"
	case errors.Is(err, video.ErrInsufficientFrames):
		return fmt.Sprintf("Video too short (need at least %d frames)", video.MinFrames)
	case errors.Is(err, context.Canceled):
		return "Analysis cancelled"
	}
	var panicErr *analysis.AnalyzerPanicError
	if errors.As(err, &panicErr) {
		return "Analyzer failed"
	}
	var locatorPanic *face.LocatorPanicError
	if errors.As(err, &locatorPanic) {
		return "Face locator failed"
	}
	return "Analysis failed"
}

func newPipeline(s *config.Settings) (*analysis.Pipeline, error) {
	locators, err := locatorFactory(s)
	if err != nil {
		return nil, err
	}

	sampler := video.NewSampler(s.Sampling.MaxFrames, logging.WithComponent("sampler"))
	sampler.Mode = video.Mode(s.Sampling.Mode)
	if !quiet && logging.Enabled() {
		sampler.Progress = os.Stderr
	}

	tools := video.Tools{FFmpeg: s.FFmpeg.Path, FFprobe: s.FFmpeg.ProbePath}
	p := analysis.NewPipeline(tools, sampler, locators, logging.WithComponent("analysis"))
	p.Engines = s.Face.Engines
	return p, nil
}

func locatorFactory(s *config.Settings) (face.Factory, error) {
	switch s.Face.Locator {
	case "process":
		return face.ProcessFactory(s.Face.Command), nil
	case "cascade":
		if !face.CascadeAvailable {
			return nil, errors.New("cascade locator requires a build with -tags gocv")
		}
		return face.CascadeFactory(s.Face.Cascade), nil
	case "none":
		return face.Static(face.NopLocator{}), nil
	case "auto", "":
		if !face.CascadeAvailable {
			log.Warn().Msg("No face locator built in, face-based heuristics will report neutral scores. " +
				"Rebuild with -tags gocv or use --locator process --locator-cmd <worker>")
			return face.Static(face.NopLocator{}), nil
		}
		if _, err := os.Stat(s.Face.Cascade); err != nil {
			log.Warn().Str("cascade", s.Face.Cascade).
				Msg("Haar cascade not found, face-based heuristics will report neutral scores. Point --cascade at a cascade XML")
			return face.Static(face.NopLocator{}), nil
		}
		return face.CascadeFactory(s.Face.Cascade), nil
	default:
		return nil, fmt.Errorf("unknown face locator %q", s.Face.Locator)
	}
}

// recordHistory persists a result when a database is configured. Failures are
// logged and never change the printed result or the exit code.
func recordHistory(ctx context.Context, path string, res *types.AnalysisResult) {
	db, err := connectStore(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Analysis history unavailable")
		return
	}
	if db == nil {
		return
	}

	videoID, err := utils.GenerateVideoID(path)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to identify video for history")
		return
	}
	if err := db.EnsureVideoMetadata(ctx, videoID, path); err != nil {
		log.Warn().Err(err).Msg("Failed to register video")
		return
	}
	id, err := db.SaveAnalysis(ctx, videoID, res)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to save analysis")
		return
	}
	log.Debug().Int64("analysis_id", id).Str("video_id", videoID).Msg("Analysis saved")
}
