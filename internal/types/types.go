package types

import "image"

// Frame is one decoded video frame: a W×H grid of RGB triples.
// A Frame returned by Crop shares Pix with its parent and must not be mutated.
type Frame struct {
	Index  int // position in the sampled sequence
	Width  int
	Height int
	Stride int // bytes per row
	Pix    []uint8
}

// NewFrame wraps a tightly packed rgb24 buffer.
func NewFrame(index, width, height int, pix []uint8) *Frame {
	return &Frame{Index: index, Width: width, Height: height, Stride: width * 3, Pix: pix}
}

// Bounds returns the frame rectangle anchored at the origin.
func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.Width, f.Height)
}

// At returns the pixel at (x, y).
func (f *Frame) At(x, y int) (r, g, b uint8) {
	i := y*f.Stride + x*3
	return f.Pix[i], f.Pix[i+1], f.Pix[i+2]
}

// Crop returns a view of the region r, clipped to the frame.
func (f *Frame) Crop(r image.Rectangle) *Frame {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return &Frame{Index: f.Index}
	}
	off := r.Min.Y*f.Stride + r.Min.X*3
	end := (r.Max.Y-1)*f.Stride + r.Max.X*3
	return &Frame{
		Index:  f.Index,
		Width:  r.Dx(),
		Height: r.Dy(),
		Stride: f.Stride,
		Pix:    f.Pix[off:end],
	}
}

// Empty reports whether the frame has no pixels.
func (f *Frame) Empty() bool {
	return f.Width == 0 || f.Height == 0
}

// RGB returns a tightly packed copy of the pixel data.
func (f *Frame) RGB() []uint8 {
	if f.Stride == f.Width*3 && len(f.Pix) == f.Width*f.Height*3 {
		return f.Pix
	}
	out := make([]uint8, 0, f.Width*f.Height*3)
	for y := 0; y < f.Height; y++ {
		out = append(out, f.Pix[y*f.Stride:y*f.Stride+f.Width*3]...)
	}
	return out
}

// Details is the per-feature breakdown of an analysis.
type Details struct {
	ColorStability       float64 `json:"color_stability"`
	MotionConsistency    float64 `json:"motion_consistency"`
	SharpnessQuality     float64 `json:"sharpness_quality"`
	FrequencyArtifacts   float64 `json:"frequency_artifacts"`
	FaceStability        float64 `json:"face_stability"`
	HistogramConsistency float64 `json:"histogram_consistency"`
	FramesAnalyzed       int     `json:"frames_analyzed"`
	FPS                  float64 `json:"fps"`
}

// AnalysisResult is the record written to stdout on success.
type AnalysisResult struct {
	Type        string  `json:"type"`
	IsDeepfake  bool    `json:"isDeepfake"`
	Confidence  int     `json:"confidence"`
	Details     Details `json:"details"`
	Method      string  `json:"method"`
	Probability float64 `json:"-"`
}

// ErrorResult is the record written to stdout on failure
type ErrorResult struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

// NewsDetails labels each text signal.
type NewsDetails struct {
	EmotionalLanguage string `json:"emotionalLanguage"`
	SourceTrust       string `json:"sourceTrust"`
	ClaimVerification string `json:"claimVerification"`
}

// NewsResult is the record written to stdout for a text analysis.
type NewsResult struct {
	Type        string      `json:"type"` // always "news"
	IsFake      bool        `json:"isFake"`
	Confidence  int         `json:"confidence"`
	Details     NewsDetails `json:"details"`
	Probability float64     `json:"-"`
}
