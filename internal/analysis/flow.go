//go:build !gocv

package analysis

import (
	"math"

	"github.com/andresmejia3/deepscan/internal/types"
)

const (
	// flowMaxWidth bounds the working resolution of the flow estimate.
	flowMaxWidth = 320
	// flowWindow is the side of the square neighbourhood each vector is fitted over.
	flowWindow = 15
	// flowMinDet rejects neighbourhoods without enough texture to constrain motion.
	flowMinDet = 1e-6
)

// grayPlane is a single-channel float image.
type grayPlane struct {
	w, h int
	v    []float64
}

// downscaledGray converts f to luma and box-averages it by an integer factor so
// the result is at most flowMaxWidth wide. It returns the plane and the factor.
func downscaledGray(f *types.Frame) (grayPlane, int) {
	full := luma(f)
	factor := int(math.Ceil(float64(f.Width) / flowMaxWidth))
	if factor <= 1 {
		return grayPlane{w: f.Width, h: f.Height, v: full}, 1
	}
	w, h := f.Width/factor, f.Height/factor
	if w == 0 || h == 0 {
		return grayPlane{w: f.Width, h: f.Height, v: full}, 1
	}
	out := make([]float64, w*h)
	area := float64(factor * factor)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var s float64
			for dy := 0; dy < factor; dy++ {
				row := (y*factor + dy) * f.Width
				for dx := 0; dx < factor; dx++ {
					s += full[row+x*factor+dx]
				}
			}
			out[y*w+x] = s / area
		}
	}
	return grayPlane{w: w, h: h, v: out}, factor
}

// integral is a summed-area table with a zero guard row and column.
type integral struct {
	w int
	s []float64
}

func newIntegral(vals []float64, w, h int) integral {
	stride := w + 1
	s := make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		var rowSum float64
		for x := 0; x < w; x++ {
			rowSum += vals[y*w+x]
			s[(y+1)*stride+x+1] = s[y*stride+x+1] + rowSum
		}
	}
	return integral{w: w, s: s}
}

// sum over the half-open box [x0,x1)×[y0,y1).
func (in integral) sum(x0, y0, x1, y1 int) float64 {
	stride := in.w + 1
	return in.s[y1*stride+x1] - in.s[y0*stride+x1] - in.s[y1*stride+x0] + in.s[y0*stride+x0]
}

// meanFlowMagnitude estimates dense optical flow between a and b with a
// windowed Lucas–Kanade fit at every pixel and returns the spatial mean of the
// vector lengths, in pixels of the original resolution.
func meanFlowMagnitude(a, b *types.Frame) float64 {
	pa, factor := downscaledGray(a)
	pb, _ := downscaledGray(b)
	if pa.w != pb.w || pa.h != pb.h || pa.w < 3 || pa.h < 3 {
		return 0
	}
	w, h := pa.w, pa.h
	n := w * h

	ixx := make([]float64, n)
	ixy := make([]float64, n)
	iyy := make([]float64, n)
	ixt := make([]float64, n)
	iyt := make([]float64, n)
	for y := 0; y < h; y++ {
		up, down := reflect101(y-1, h), reflect101(y+1, h)
		for x := 0; x < w; x++ {
			left, right := reflect101(x-1, w), reflect101(x+1, w)
			i := y*w + x
			// Spatial gradients from the mean of both frames.
			gx := ((pa.v[y*w+right] + pb.v[y*w+right]) - (pa.v[y*w+left] + pb.v[y*w+left])) / 4
			gy := ((pa.v[down*w+x] + pb.v[down*w+x]) - (pa.v[up*w+x] + pb.v[up*w+x])) / 4
			gt := pb.v[i] - pa.v[i]
			ixx[i] = gx * gx
			ixy[i] = gx * gy
			iyy[i] = gy * gy
			ixt[i] = gx * gt
			iyt[i] = gy * gt
		}
	}

	sxx, sxy, syy := newIntegral(ixx, w, h), newIntegral(ixy, w, h), newIntegral(iyy, w, h)
	sxt, syt := newIntegral(ixt, w, h), newIntegral(iyt, w, h)

	r := flowWindow / 2
	var total float64
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-r), min(h, y+r+1)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-r), min(w, x+r+1)
			a11 := sxx.sum(x0, y0, x1, y1)
			a12 := sxy.sum(x0, y0, x1, y1)
			a22 := syy.sum(x0, y0, x1, y1)
			b1 := -sxt.sum(x0, y0, x1, y1)
			b2 := -syt.sum(x0, y0, x1, y1)

			det := a11*a22 - a12*a12
			if math.Abs(det) < flowMinDet {
				continue
			}
			u := (a22*b1 - a12*b2) / det
			v := (a11*b2 - a12*b1) / det
			total += math.Hypot(u, v)
		}
	}
	return total / float64(n) * float64(factor)
}
