package analysis

import (
	"math"

	"github.com/andresmejia3/deepscan/internal/types"
)

// Method identifies this ensemble in the output record.
const Method = "classical-heuristic-ensemble"

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// BuildResult packages scores and sampling metadata into the output record.
// Feature scores are rounded to 3 decimals and fps to 2; the verdict and
// confidence come from the unrounded probability.
func BuildResult(scores []FeatureScore, framesAnalyzed int, fps float64) *types.AnalysisResult {
	p := Probability(scores)
	res := &types.AnalysisResult{
		Type:        "video",
		IsDeepfake:  Verdict(p),
		Confidence:  Confidence(p),
		Method:      Method,
		Probability: p,
		Details: types.Details{
			FramesAnalyzed: framesAnalyzed,
			FPS:            roundTo(fps, 2),
		},
	}

	for _, s := range scores {
		v := roundTo(s.Value, 3)
		switch s.Name {
		case FeatureColor:
			res.Details.ColorStability = v
		case FeatureMotion:
			res.Details.MotionConsistency = v
		case FeatureSharpness:
			res.Details.SharpnessQuality = v
		case FeatureFrequency:
			res.Details.FrequencyArtifacts = v
		case FeatureFaceSize:
			res.Details.FaceStability = v
		case FeatureHistogram:
			res.Details.HistogramConsistency = v
		}
	}
	return res
}
