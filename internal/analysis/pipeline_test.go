package analysis

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/andresmejia3/deepscan/internal/face"
	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/andresmejia3/deepscan/internal/video"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(loc face.Locator) *Pipeline {
	return NewPipeline(video.DefaultTools(), video.NewSampler(80, zerolog.Nop()), face.Static(loc), zerolog.Nop())
}

func identicalSample(n int) *video.Sample {
	frames := repeatFrames(n, func(i int) *types.Frame { return makeFrame(i, 64, 64, checker) })
	return &video.Sample{Frames: frames, FPS: 30}
}

func TestPipelineIdenticalFramesWithStaticFace(t *testing.T) {
	p := newTestPipeline(face.Fixed{Boxes: []image.Rectangle{image.Rect(16, 16, 48, 48)}})

	res, err := p.Analyze(context.Background(), identicalSample(10))
	require.NoError(t, err)

	d := res.Details
	assert.Equal(t, 0.0, d.ColorStability, "no temporal colour variance")
	assert.Equal(t, 0.0, d.FaceStability, "zero cv")
	assert.Equal(t, 0.0, d.HistogramConsistency)
	assert.Equal(t, 0.5, d.MotionConsistency, "no flow between identical frames")
	assert.Equal(t, 0.3, d.SharpnessQuality)
	assert.Equal(t, 0.5, d.FrequencyArtifacts)
	assert.Equal(t, 10, d.FramesAnalyzed)
	assert.Equal(t, 30.0, d.FPS)

	want := 100 * (0.20*d.MotionConsistency + 0.20*d.SharpnessQuality + 0.20*d.FrequencyArtifacts)
	assert.InDelta(t, want, res.Probability, 1e-6)
	assert.InDelta(t, 26.0, res.Probability, 1e-6)
	assert.False(t, res.IsDeepfake)
	assert.Equal(t, 74, res.Confidence)
}

func TestPipelineNoFacesIsNeutral(t *testing.T) {
	p := newTestPipeline(face.NopLocator{})

	res, err := p.Analyze(context.Background(), identicalSample(10))
	require.NoError(t, err)

	assert.InDelta(t, 50.0, res.Probability, 1e-9)
	assert.False(t, res.IsDeepfake)
	assert.Equal(t, 50, res.Confidence)
	for name, v := range map[string]float64{
		FeatureColor:     res.Details.ColorStability,
		FeatureSharpness: res.Details.SharpnessQuality,
		FeatureFrequency: res.Details.FrequencyArtifacts,
		FeatureFaceSize:  res.Details.FaceStability,
		FeatureHistogram: res.Details.HistogramConsistency,
	} {
		assert.Equal(t, NeutralScore, v, name)
	}
}

func TestPipelineFrameCountBoundary(t *testing.T) {
	called := false
	loc := face.Static(face.NopLocator{})
	p := newTestPipeline(face.NopLocator{})
	p.Locators = func(ctx context.Context) (face.Locator, error) {
		called = true
		return loc(ctx)
	}

	_, err := p.Analyze(context.Background(), identicalSample(4))
	assert.ErrorIs(t, err, video.ErrInsufficientFrames)
	assert.False(t, called, "nothing runs before the frame check")

	res, err := p.Analyze(context.Background(), identicalSample(5))
	require.NoError(t, err)
	assert.Equal(t, 5, res.Details.FramesAnalyzed)
}

func TestPipelineDeterministic(t *testing.T) {
	frames := repeatFrames(24, func(i int) *types.Frame {
		return makeFrame(i, 64, 48, func(x, y int) (uint8, uint8, uint8) {
			r, g, b := texture(i % 5)(x, y)
			return r, g ^ uint8(i*7), b
		})
	})
	sample := &video.Sample{Frames: frames, FPS: 24}
	p := newTestPipeline(face.Fixed{Boxes: []image.Rectangle{image.Rect(10, 8, 40, 38)}})

	first, err := p.Analyze(context.Background(), sample)
	require.NoError(t, err)

	p.Engines = 4
	second, err := p.Analyze(context.Background(), sample)
	require.NoError(t, err)

	assert.Equal(t, first.Probability, second.Probability)
	assert.Equal(t, first.Details, second.Details)
	assert.GreaterOrEqual(t, first.Probability, 0.0)
	assert.LessOrEqual(t, first.Probability, 100.0)
}

type brokenLocator struct{}

func (brokenLocator) Locate(context.Context, *types.Frame) ([]image.Rectangle, error) {
	return nil, errors.New("model file missing")
}
func (brokenLocator) Close() error { return nil }

func TestPipelineLocatorFailure(t *testing.T) {
	p := newTestPipeline(brokenLocator{})
	_, err := p.Analyze(context.Background(), identicalSample(6))
	assert.ErrorContains(t, err, "model file missing")
}

func TestPipelineRunMissingFile(t *testing.T) {
	p := newTestPipeline(face.NopLocator{})
	_, err := p.Run(context.Background(), "no/such/video.mp4")
	assert.ErrorIs(t, err, video.ErrSourceNotFound)
}

type panickingLocator struct{}

func (panickingLocator) Locate(context.Context, *types.Frame) ([]image.Rectangle, error) {
	panic("boom")
}
func (panickingLocator) Close() error { return nil }

func TestPipelineLocatorPanicBecomesError(t *testing.T) {
	for _, engines := range []int{1, 4} {
		p := newTestPipeline(panickingLocator{})
		p.Engines = engines

		res, err := p.Analyze(context.Background(), identicalSample(8))
		assert.Nil(t, res)
		var panicErr *face.LocatorPanicError
		require.ErrorAs(t, err, &panicErr, "engines=%d", engines)
		assert.Equal(t, "boom", panicErr.Value)
	}
}
