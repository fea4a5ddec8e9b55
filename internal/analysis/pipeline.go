package analysis

import (
	"context"
	"fmt"

	"github.com/andresmejia3/deepscan/internal/face"
	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/andresmejia3/deepscan/internal/video"
	"github.com/rs/zerolog"
)

// Pipeline wires sampling, face location and the feature ensemble together.
type Pipeline struct {
	Tools    video.Tools
	Sampler  *video.Sampler
	Locators face.Factory
	Engines  int
	Features []Feature
	Logger   zerolog.Logger
}

// NewPipeline returns a pipeline with the default ensemble.
func NewPipeline(tools video.Tools, sampler *video.Sampler, locators face.Factory, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		Tools:    tools,
		Sampler:  sampler,
		Locators: locators,
		Engines:  1,
		Features: DefaultFeatures(),
		Logger:   logger,
	}
}

// Run decodes and samples the video at path, then analyzes the sample.
func (p *Pipeline) Run(ctx context.Context, path string) (*types.AnalysisResult, error) {
	if err := video.CheckSource(path); err != nil {
		return nil, err
	}
	p.Logger.Info().Str("path", path).Msg("Analyzing video")

	src, err := video.Open(ctx, p.Tools, path)
	if err != nil {
		return nil, err
	}
	sample, err := p.Sampler.Sample(ctx, src)
	if err != nil {
		return nil, err
	}
	return p.Analyze(ctx, sample)
}

// Analyze scores an already decoded sample.
func (p *Pipeline) Analyze(ctx context.Context, sample *video.Sample) (*types.AnalysisResult, error) {
	if len(sample.Frames) < video.MinFrames {
		return nil, fmt.Errorf("%w: have %d, need at least %d", video.ErrInsufficientFrames, len(sample.Frames), video.MinFrames)
	}
	locators := p.Locators
	if locators == nil {
		locators = face.Static(face.NopLocator{})
	}

	p.Logger.Info().Int("frames", min(len(sample.Frames), FaceFrameLimit)).Msg("Locating faces...")
	faces, err := face.LocateAll(ctx, locators, sample.Frames, FaceFrameLimit, p.Engines)
	if err != nil {
		return nil, err
	}

	in := &Input{Frames: sample.Frames, Faces: faces}
	scores, err := Aggregate(ctx, in, p.features(), p.Logger)
	if err != nil {
		return nil, err
	}

	res := BuildResult(scores, len(sample.Frames), sample.FPS)
	p.Logger.Info().
		Float64("probability", res.Probability).
		Bool("deepfake", res.IsDeepfake).
		Int("confidence", res.Confidence).
		Msg("analysis complete")
	return res, nil
}

func (p *Pipeline) features() []Feature {
	if len(p.Features) == 0 {
		return DefaultFeatures()
	}
	return p.Features
}
