package analysis

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Analyzer maps the run input to a score in [0,1]. Analyzers must not mutate Input.
type Analyzer func(in *Input) float64

// Feature names, as they appear in the result details.
const (
	FeatureColor     = "color_stability"
	FeatureMotion    = "motion_consistency"
	FeatureSharpness = "sharpness_quality"
	FeatureFrequency = "frequency_artifacts"
	FeatureFaceSize  = "face_stability"
	FeatureHistogram = "histogram_consistency"
)

// Feature is one weighted entry in the ensemble.
type Feature struct {
	Name    string
	Label   string // progress message
	Weight  float64
	Analyze Analyzer
}

// DefaultFeatures returns the six-feature ensemble. Weights sum to 1.
func DefaultFeatures() []Feature {
	return []Feature{
		{Name: FeatureColor, Label: "Analyzing color stability...", Weight: 0.20, Analyze: ColorStability},
		{Name: FeatureMotion, Label: "Checking motion consistency...", Weight: 0.20, Analyze: MotionConsistency},
		{Name: FeatureSharpness, Label: "Evaluating sharpness...", Weight: 0.20, Analyze: SharpnessConsistency},
		{Name: FeatureFrequency, Label: "Analyzing frequency spectrum...", Weight: 0.20, Analyze: FrequencyArtifact},
		{Name: FeatureFaceSize, Label: "Checking face stability...", Weight: 0.10, Analyze: FaceSizeStability},
		{Name: FeatureHistogram, Label: "Analyzing histograms...", Weight: 0.10, Analyze: HistogramConsistency},
	}
}

// weightTolerance absorbs float error when checking that weights sum to 1.
const weightTolerance = 1e-9

// ValidateFeatures checks names are unique, analyzers are set and weights sum to 1.
func ValidateFeatures(features []Feature) error {
	if len(features) == 0 {
		return fmt.Errorf("no features registered")
	}
	seen := make(map[string]bool, len(features))
	var sum float64
	for _, f := range features {
		if f.Analyze == nil {
			return fmt.Errorf("feature %q has no analyzer", f.Name)
		}
		if seen[f.Name] {
			return fmt.Errorf("feature %q registered twice", f.Name)
		}
		if f.Weight < 0 {
			return fmt.Errorf("feature %q has negative weight %v", f.Name, f.Weight)
		}
		seen[f.Name] = true
		sum += f.Weight
	}
	if math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("feature weights sum to %v, want 1", sum)
	}
	return nil
}

// FeatureScore is the outcome of one feature for one run.
type FeatureScore struct {
	Name   string
	Weight float64
	Value  float64
}

// AnalyzerPanicError reports an analyzer that panicked instead of returning a score.
type AnalyzerPanicError struct {
	Feature string
	Value   any
}

func (e *AnalyzerPanicError) Error() string {
	return fmt.Sprintf("analyzer %s panicked: %v", e.Feature, e.Value)
}

// Aggregate runs every feature concurrently over in and returns the scores in
// registration order. Each goroutine writes only its own slot.
func Aggregate(ctx context.Context, in *Input, features []Feature, logger zerolog.Logger) ([]FeatureScore, error) {
	if err := ValidateFeatures(features); err != nil {
		return nil, err
	}

	scores := make([]FeatureScore, len(features))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range features {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &AnalyzerPanicError{Feature: f.Name, Value: r}
				}
			}()
			if err := gctx.Err(); err != nil {
				return err
			}

			logger.Info().Str("feature", f.Name).Msg(f.Label)
			v := f.Analyze(in)
			if math.IsNaN(v) || v < 0 || v > 1 {
				return fmt.Errorf("feature %s produced %v, outside [0,1]", f.Name, v)
			}
			logger.Debug().Str("feature", f.Name).Float64("score", v).Msg("feature scored")
			scores[i] = FeatureScore{Name: f.Name, Weight: f.Weight, Value: v}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scores, nil
}

// Probability is 100 × Σ weight·score, in [0,100].
func Probability(scores []FeatureScore) float64 {
	var p float64
	for _, s := range scores {
		p += s.Weight * s.Value
	}
	return p * 100
}

// Verdict reports whether the probability indicates manipulation.
func Verdict(probability float64) bool {
	return probability > 50
}

// Confidence is the rounded probability of the reported verdict.
func Confidence(probability float64) int {
	if Verdict(probability) {
		return int(math.Round(probability))
	}
	return int(math.Round(100 - probability))
}
