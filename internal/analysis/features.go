package analysis

import "math"

// Per-analyzer frame caps and minimum sample counts.
const (
	colorFrames     = 40
	colorMinSamples = 5

	motionPairs      = 30
	motionMinFrames  = 6
	motionMinSamples = 3
	motionStaticMean = 0.01

	sharpnessFrames     = 35
	sharpnessMinSamples = 5

	frequencyFrames     = 25
	frequencyMinSamples = 3

	faceSizeFrames     = 50
	faceSizeMinSamples = 5

	histogramFrames     = 30
	histogramMinSamples = 5
)

// FaceFrameLimit is the largest number of leading frames any analyzer reads
// face regions from; detection beyond it is wasted work.
const FaceFrameLimit = faceSizeFrames

// ColorStability scores how much the face's colour statistics drift over time.
func ColorStability(in *Input) float64 {
	samples := in.FaceSamples(colorFrames)
	if len(samples) < colorMinSamples {
		return NeutralScore
	}

	var series [6][]float64
	for _, s := range samples {
		st := channelStats(s.Crop)
		for i, v := range st {
			series[i] = append(series[i], v)
		}
	}

	var temporal float64
	for _, xs := range series {
		_, std := meanStd(xs)
		temporal += std
	}
	temporal /= float64(len(series))

	return clamp01((temporal - 5) / 10)
}

// MotionConsistency flags whole-frame motion that is too uniform or too erratic.
func MotionConsistency(in *Input) float64 {
	if len(in.Frames) < motionMinFrames {
		return NeutralScore
	}

	last := min(len(in.Frames)-1, motionPairs)
	mags := make([]float64, 0, last)
	for i := 1; i <= last; i++ {
		mags = append(mags, meanFlowMagnitude(in.Frames[i-1], in.Frames[i]))
	}
	if len(mags) < motionMinSamples {
		return NeutralScore
	}

	mean, std := meanStd(mags)
	if mean < motionStaticMean {
		return NeutralScore
	}

	switch ratio := std / mean; {
	case ratio < 0.25:
		return 0.75
	case ratio > 2.5:
		return 0.7
	default:
		return 0.3
	}
}

// SharpnessConsistency looks for blurry or unstable face sharpness.
func SharpnessConsistency(in *Input) float64 {
	samples := in.FaceSamples(sharpnessFrames)
	if len(samples) < sharpnessMinSamples {
		return NeutralScore
	}

	values := make([]float64, len(samples))
	for i, s := range samples {
		values[i] = laplacianVariance(s.Crop)
	}
	mean, std := meanStd(values)

	blur := 0.0
	if mean < 50 {
		blur = 0.6
	}
	if std > mean*0.5 {
		return max(blur, 0.7)
	}
	if blur > 0.4 {
		return blur
	}
	return 0.3
}

// FrequencyArtifact scores the share of spectral energy outside the low-frequency core.
func FrequencyArtifact(in *Input) float64 {
	samples := in.FaceSamples(frequencyFrames)

	ratios := make([]float64, 0, len(samples))
	for _, s := range samples {
		if r, ok := highFrequencyRatio(luma(s.Crop), s.Crop.Width, s.Crop.Height); ok {
			ratios = append(ratios, r)
		}
	}
	if len(ratios) < frequencyMinSamples {
		return NeutralScore
	}

	switch avg, _ := meanStd(ratios); {
	case avg < 0.4:
		return 0.7
	case avg > 0.6:
		return 0.3
	default:
		return 0.5
	}
}

// FaceSizeStability scores jitter in the padded face area.
func FaceSizeStability(in *Input) float64 {
	samples := in.FaceSamples(faceSizeFrames)
	if len(samples) < faceSizeMinSamples {
		return NeutralScore
	}

	areas := make([]float64, len(samples))
	for i, s := range samples {
		areas[i] = float64(s.Region.Dx() * s.Region.Dy())
	}
	mean, std := meanStd(areas)
	if mean == 0 {
		return NeutralScore
	}
	return clamp01((std/mean - 0.1) / 0.2)
}

// HistogramConsistency scores drift in the face's per-channel colour histograms.
func HistogramConsistency(in *Input) float64 {
	samples := in.FaceSamples(histogramFrames)
	if len(samples) < histogramMinSamples {
		return NeutralScore
	}

	hists := make([][]float64, len(samples))
	for i, s := range samples {
		hists[i] = channelHistograms(s.Crop)
	}

	column := make([]float64, len(hists))
	var total float64
	dims := 3 * histogramBins
	for d := 0; d < dims; d++ {
		for i, h := range hists {
			column[i] = h[d]
		}
		_, std := meanStd(column)
		total += std
	}
	return math.Min(1, total/float64(dims)/0.08)
}
