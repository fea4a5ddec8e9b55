package analysis

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStdIsPopulation(t *testing.T) {
	mean, std := meanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5.0, mean, 1e-12)
	assert.InDelta(t, 2.0, std, 1e-12)

	mean, std = meanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestChannelStats(t *testing.T) {
	f := makeFrame(0, 2, 1, func(x, _ int) (uint8, uint8, uint8) {
		if x == 0 {
			return 10, 100, 0
		}
		return 30, 100, 200
	})
	st := channelStats(f)
	assert.InDeltaSlice(t, []float64{20, 100, 100, 10, 0, 100}, st[:], 1e-9)
}

func TestChannelStatsOnCrop(t *testing.T) {
	f := makeFrame(0, 4, 4, func(x, y int) (uint8, uint8, uint8) {
		if x >= 2 && y >= 2 {
			return 50, 60, 70
		}
		return 0, 0, 0
	})
	st := channelStats(f.Crop(image.Rect(2, 2, 4, 4)))
	assert.InDeltaSlice(t, []float64{50, 60, 70, 0, 0, 0}, st[:], 1e-9)
}

func TestChannelHistograms(t *testing.T) {
	f := makeFrame(0, 2, 2, func(x, y int) (uint8, uint8, uint8) {
		if x == 0 {
			return 0, 7, 255
		}
		return 8, 7, 248
	})
	h := channelHistograms(f)
	require.Len(t, h, 96)

	assert.InDelta(t, 0.5, h[0], 1e-12) // red 0..7
	assert.InDelta(t, 0.5, h[1], 1e-12) // red 8..15
	assert.InDelta(t, 1.0, h[32], 1e-12)
	assert.InDelta(t, 1.0, h[64+31], 1e-12)

	var sum float64
	for _, v := range h {
		sum += v
	}
	assert.InDelta(t, 3.0, sum, 1e-12)
}

func TestLaplacianVariance(t *testing.T) {
	flat := makeFrame(0, 4, 4, solid(90))
	assert.Zero(t, laplacianVariance(flat))

	// A 0/255 checkerboard has a Laplacian of ±1020 everywhere once the
	// mirrored borders are taken into account, so the variance is 1020².
	f := makeFrame(0, 6, 6, checker)
	assert.InDelta(t, 1020.0*1020.0, laplacianVariance(f), 1e-6)
}

func TestHighFrequencyRatio(t *testing.T) {
	const n = 32

	flat := makeFrame(0, n, n, solid(120))
	r, ok := highFrequencyRatio(luma(flat), n, n)
	require.True(t, ok)
	assert.InDelta(t, 0.0, r, 1e-9, "all energy sits in DC")

	board := makeFrame(0, n, n, checker)
	r, ok = highFrequencyRatio(luma(board), n, n)
	require.True(t, ok)
	assert.InDelta(t, 0.5, r, 1e-9, "half the magnitude sits at the corner frequency")

	impulse := makeFrame(0, n, n, func(x, y int) (uint8, uint8, uint8) {
		if x == 5 && y == 9 {
			return 255, 255, 255
		}
		return 0, 0, 0
	})
	r, ok = highFrequencyRatio(luma(impulse), n, n)
	require.True(t, ok)
	// Flat spectrum: the center window holds 18×18 of the 32×32 coefficients.
	assert.InDelta(t, 1-324.0/1024.0, r, 1e-9)

	black := makeFrame(0, n, n, solid(0))
	_, ok = highFrequencyRatio(luma(black), n, n)
	assert.False(t, ok)
}

func TestMeanFlowMagnitude(t *testing.T) {
	a := makeFrame(0, 64, 48, texture(0))
	assert.InDelta(t, 0.0, meanFlowMagnitude(a, a), 1e-3, "identical frames have no flow")

	b := makeFrame(1, 64, 48, texture(1))
	m := meanFlowMagnitude(a, b)
	assert.Greater(t, m, 0.3)
	assert.Less(t, m, 2.0)
}

func TestLaplacianVarianceOnCrop(t *testing.T) {
	f := makeFrame(0, 12, 12, func(x, y int) (uint8, uint8, uint8) {
		if x >= 6 {
			return checker(x, y)
		}
		return 90, 90, 90
	})
	assert.Zero(t, laplacianVariance(f.Crop(image.Rect(0, 0, 6, 12))))
	assert.InDelta(t, 1020.0*1020.0, laplacianVariance(f.Crop(image.Rect(6, 0, 12, 12))), 1e-6)
}

func TestLuma(t *testing.T) {
	f := makeFrame(0, 3, 1, func(x, _ int) (uint8, uint8, uint8) {
		switch x {
		case 0:
			return 255, 0, 0
		case 1:
			return 0, 255, 0
		}
		return 200, 200, 200
	})
	assert.Equal(t, []float64{76, 150, 200}, luma(f))
}
