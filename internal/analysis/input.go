package analysis

import (
	"image"

	"github.com/andresmejia3/deepscan/internal/types"
)

// NeutralScore is what an analyzer returns when it has too little data to judge.
const NeutralScore = 0.5

// Input is the read-only material every analyzer works from.
type Input struct {
	Frames []*types.Frame
	// Faces holds the padded face regions per frame position. A nil or empty
	// entry means no face was found (or the frame was past the detection cap).
	Faces [][]image.Rectangle
}

// FaceSample is the first face of one frame.
type FaceSample struct {
	Region image.Rectangle
	Crop   *types.Frame
}

// FaceSamples returns one sample per frame among the first limit frames that
// have at least one face region.
func (in *Input) FaceSamples(limit int) []FaceSample {
	if limit > len(in.Frames) {
		limit = len(in.Frames)
	}
	var out []FaceSample
	for i := 0; i < limit; i++ {
		if i >= len(in.Faces) || len(in.Faces[i]) == 0 {
			continue
		}
		r := in.Faces[i][0]
		crop := in.Frames[i].Crop(r)
		if crop.Empty() {
			continue
		}
		out = append(out, FaceSample{Region: r, Crop: crop})
	}
	return out
}
