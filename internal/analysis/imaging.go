//go:build !gocv

package analysis

import "github.com/andresmejia3/deepscan/internal/types"

// luma converts f to grayscale using the BT.601 weights, rounded to 8 bits.
func luma(f *types.Frame) []float64 {
	out := make([]float64, f.Width*f.Height)
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride:]
		for x := 0; x < f.Width; x++ {
			r, g, b := float64(row[x*3]), float64(row[x*3+1]), float64(row[x*3+2])
			v := 0.299*r + 0.587*g + 0.114*b
			out[y*f.Width+x] = float64(uint8(v + 0.5))
		}
	}
	return out
}

// channelHistograms returns the three per-channel 32-bin histograms over
// [0,256), each normalized to sum to 1, concatenated in channel order.
func channelHistograms(f *types.Frame) []float64 {
	out := make([]float64, 3*histogramBins)
	n := float64(f.Width * f.Height)
	if n == 0 {
		return out
	}
	for y := 0; y < f.Height; y++ {
		row := f.Pix[y*f.Stride:]
		for x := 0; x < f.Width; x++ {
			for c := 0; c < 3; c++ {
				out[c*histogramBins+int(row[x*3+c])>>3]++
			}
		}
	}
	for i := range out {
		out[i] /= n
	}
	return out
}

// reflect101 maps an out-of-range index back into [0,n) mirroring around the
// edge pixel without repeating it.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}

// laplacianVariance is the population variance of the 4-neighbour Laplacian
// of f in grayscale.
func laplacianVariance(f *types.Frame) float64 {
	w, h := f.Width, f.Height
	if w == 0 || h == 0 {
		return 0
	}
	gray := luma(f)
	lap := make([]float64, w*h)
	for y := 0; y < h; y++ {
		up, down := reflect101(y-1, h), reflect101(y+1, h)
		for x := 0; x < w; x++ {
			left, right := reflect101(x-1, w), reflect101(x+1, w)
			c := gray[y*w+x]
			lap[y*w+x] = gray[up*w+x] + gray[down*w+x] + gray[y*w+left] + gray[y*w+right] - 4*c
		}
	}
	_, std := meanStd(lap)
	return std * std
}
