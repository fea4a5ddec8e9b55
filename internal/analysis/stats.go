package analysis

import (
	"math"
	"math/cmplx"

	"github.com/andresmejia3/deepscan/internal/types"
	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// meanStd returns the mean and population standard deviation of xs.
func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(xs, nil)
}

// channelStats returns the per-channel means followed by the per-channel
// population standard deviations of every pixel in f.
func channelStats(f *types.Frame) [6]float64 {
	var out [6]float64
	n := float64(f.Width * f.Height)
	if n == 0 {
		return out
	}
	var sum, sq [3]float64
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride:]
		for x := 0; x < f.Width; x++ {
			for c := 0; c < 3; c++ {
				v := float64(row[x*3+c])
				sum[c] += v
				sq[c] += v * v
			}
		}
	}
	for c := 0; c < 3; c++ {
		mean := sum[c] / n
		out[c] = mean
		out[3+c] = math.Sqrt(math.Max(0, sq[c]/n-mean*mean))
	}
	return out
}

// histogramBins is the number of bins per channel.
const histogramBins = 32

// centerRatio is the half-extent of the low-frequency window as a fraction of each dimension.
const centerRatio = 0.3

// highFrequencyRatio returns 1 - (center energy / total energy) of the centered
// magnitude spectrum of a w×h grayscale image. ok is false for zero energy.
func highFrequencyRatio(gray []float64, w, h int) (ratio float64, ok bool) {
	if w == 0 || h == 0 || len(gray) != w*h {
		return 0, false
	}
	coef := make([]complex128, w*h)
	for i, v := range gray {
		coef[i] = complex(v, 0)
	}

	rowFFT := fourier.NewCmplxFFT(w)
	for y := 0; y < h; y++ {
		row := coef[y*w : (y+1)*w]
		rowFFT.Coefficients(row, row)
	}
	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = coef[y*w+x]
		}
		colFFT.Coefficients(col, col)
		for y := 0; y < h; y++ {
			coef[y*w+x] = col[y]
		}
	}

	var total float64
	for _, c := range coef {
		total += cmplx.Abs(c)
	}
	if total <= 0 {
		return 0, false
	}

	// After an fftshift, shifted index k holds the coefficient at (k - n/2) mod n.
	cy, cx := h/2, w/2
	ch, cw := int(float64(h)*centerRatio), int(float64(w)*centerRatio)
	var center float64
	for ky := cy - ch; ky < cy+ch; ky++ {
		oy := ((ky-h/2)%h + h) % h
		for kx := cx - cw; kx < cx+cw; kx++ {
			ox := ((kx-w/2)%w + w) % w
			center += cmplx.Abs(coef[oy*w+ox])
		}
	}
	return 1 - center/total, true
}
