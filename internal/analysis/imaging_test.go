//go:build !gocv

package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReflect101(t *testing.T) {
	assert.Equal(t, 1, reflect101(-1, 5))
	assert.Equal(t, 3, reflect101(5, 5))
	assert.Equal(t, 2, reflect101(2, 5))
	assert.Equal(t, 0, reflect101(-1, 1))
	assert.Equal(t, 1, reflect101(2, 2))
}

func TestDownscaledGray(t *testing.T) {
	f := makeFrame(0, 1280, 8, solid(40))
	p, factor := downscaledGray(f)
	assert.Equal(t, 4, factor)
	assert.Equal(t, 320, p.w)
	assert.Equal(t, 2, p.h)
	assert.InDelta(t, 40.0, p.v[0], 1e-9)

	small := makeFrame(0, 100, 50, solid(40))
	p, factor = downscaledGray(small)
	assert.Equal(t, 1, factor)
	assert.Equal(t, 100, p.w)
}
