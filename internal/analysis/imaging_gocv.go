//go:build gocv

package analysis

import (
	"github.com/andresmejia3/deepscan/internal/types"
	"gocv.io/x/gocv"
)

// Farneback parameters for the dense flow between consecutive frames.
const (
	flowPyrScale   = 0.5
	flowLevels     = 3
	flowWinSize    = 15
	flowIterations = 3
	flowPolyN      = 5
	flowPolySigma  = 1.2
)

func rgbMat(f *types.Frame) (gocv.Mat, error) {
	return gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.RGB())
}

// grayMat returns f as a single-channel 8-bit Mat. The caller closes it.
func grayMat(f *types.Frame) (gocv.Mat, error) {
	rgb, err := rgbMat(f)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer rgb.Close()

	gray := gocv.NewMat()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)
	return gray, nil
}

// luma converts f to grayscale with OpenCV's BT.601 conversion.
func luma(f *types.Frame) []float64 {
	if f.Empty() {
		return nil
	}
	gray, err := grayMat(f)
	if err != nil {
		return nil
	}
	defer gray.Close()

	data := gray.ToBytes()
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}

// channelHistograms returns the three per-channel 32-bin histograms over
// [0,256), each normalized to sum to 1, concatenated in channel order.
func channelHistograms(f *types.Frame) []float64 {
	out := make([]float64, 3*histogramBins)
	if f.Empty() {
		return out
	}
	rgb, err := rgbMat(f)
	if err != nil {
		return out
	}
	defer rgb.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	n := float64(f.Width * f.Height)
	for c := 0; c < 3; c++ {
		hist := gocv.NewMat()
		gocv.CalcHist([]gocv.Mat{rgb}, []int{c}, mask, &hist, []int{histogramBins}, []float64{0, 256}, false)
		for b := 0; b < histogramBins; b++ {
			out[c*histogramBins+b] = float64(hist.GetFloatAt(b, 0)) / n
		}
		hist.Close()
	}
	return out
}

// laplacianVariance is the population variance of the 4-neighbour Laplacian
// of f in grayscale, computed in 64-bit float.
func laplacianVariance(f *types.Frame) float64 {
	if f.Empty() {
		return 0
	}
	gray, err := grayMat(f)
	if err != nil {
		return 0
	}
	defer gray.Close()

	lap := gocv.NewMat()
	defer lap.Close()
	gocv.Laplacian(gray, &lap, gocv.MatTypeCV64F, 1, 1, 0, gocv.BorderDefault)

	mean := gocv.NewMat()
	defer mean.Close()
	stdDev := gocv.NewMat()
	defer stdDev.Close()
	gocv.MeanStdDev(lap, &mean, &stdDev)

	std := stdDev.GetDoubleAt(0, 0)
	return std * std
}

// meanFlowMagnitude runs Farneback dense optical flow from a to b and returns
// the spatial mean of the vector lengths in pixels.
func meanFlowMagnitude(a, b *types.Frame) float64 {
	if a.Empty() || a.Width != b.Width || a.Height != b.Height {
		return 0
	}
	prev, err := grayMat(a)
	if err != nil {
		return 0
	}
	defer prev.Close()
	next, err := grayMat(b)
	if err != nil {
		return 0
	}
	defer next.Close()

	flow := gocv.NewMat()
	defer flow.Close()
	gocv.CalcOpticalFlowFarneback(prev, next, &flow,
		flowPyrScale, flowLevels, flowWinSize, flowIterations, flowPolyN, flowPolySigma, 0)

	parts := gocv.Split(flow)
	defer func() {
		for _, p := range parts {
			p.Close()
		}
	}()
	if len(parts) != 2 {
		return 0
	}

	mag := gocv.NewMat()
	defer mag.Close()
	gocv.Magnitude(parts[0], parts[1], &mag)
	return mag.Mean().Val1
}
