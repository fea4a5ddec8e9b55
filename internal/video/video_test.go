package video

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves n tiny frames whose first byte encodes the decode index.
type fakeSource struct {
	meta    Metadata
	n       int
	next    int
	failAt  int // -1 disables
	closed  bool
	readCnt int
}

func newFakeSource(n, advertised int) *fakeSource {
	return &fakeSource{meta: Metadata{Width: 2, Height: 2, FPS: 25, TotalFrames: advertised}, n: n, failAt: -1}
}

func (f *fakeSource) Meta() Metadata { return f.meta }

func (f *fakeSource) Next() (*types.Frame, error) {
	if f.next == f.failAt {
		return nil, errors.New("corrupt packet")
	}
	if f.next >= f.n {
		return nil, io.EOF
	}
	pix := make([]uint8, 12)
	pix[0] = uint8(f.next)
	fr := types.NewFrame(f.next, 2, 2, pix)
	f.next++
	f.readCnt++
	return fr, nil
}

func (f *fakeSource) Close() error {
	f.closed = true
	return nil
}

func decodedIndices(s *Sample) []int {
	out := make([]int, len(s.Frames))
	for i, f := range s.Frames {
		out[i] = int(f.Pix[0])
	}
	return out
}

func TestSampleIndices(t *testing.T) {
	tests := []struct {
		name  string
		total int
		n     int
		want  []int
	}{
		{"Fewer frames than cap", 3, 5, []int{0, 1, 2}},
		{"Exactly cap", 5, 5, []int{0, 1, 2, 3, 4}},
		{"Even spread covers the timeline", 10, 4, []int{0, 3, 6, 9}},
		{"Linspace truncation", 100, 3, []int{0, 49, 99}},
		{"Single sample", 10, 1, []int{0}},
		{"Empty source", 0, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SampleIndices(tt.total, tt.n))
		})
	}
}

func TestSampleIndicesStrictlyIncreasing(t *testing.T) {
	idx := SampleIndices(1000, 80)
	require.Len(t, idx, 80)
	assert.Equal(t, 0, idx[0])
	assert.Equal(t, 999, idx[79])
	for i := 1; i < len(idx); i++ {
		assert.Greater(t, idx[i], idx[i-1])
	}
}

func TestSamplerEvenStride(t *testing.T) {
	src := newFakeSource(100, 100)
	s := NewSampler(5, zerolog.Nop())

	res, err := s.Sample(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 24, 49, 74, 99}, decodedIndices(res))
	assert.Equal(t, 25.0, res.FPS)
	assert.True(t, src.closed)
	for i, f := range res.Frames {
		assert.Equal(t, i, f.Index, "frames are re-indexed by sample position")
	}
}

func TestSamplerStopsAfterLastSelectedFrame(t *testing.T) {
	src := newFakeSource(50, 50)
	s := &Sampler{MaxFrames: 10, Mode: ModeFirst, Logger: zerolog.Nop()}

	res, err := s.Sample(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, res.Frames, 10)
	assert.Equal(t, 10, src.readCnt)
}

func TestSamplerUnknownTotalFallsBackToLeadingFrames(t *testing.T) {
	src := newFakeSource(30, 0)
	s := NewSampler(8, zerolog.Nop())

	res, err := s.Sample(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, decodedIndices(res))
}

func TestSamplerFrameCountBoundary(t *testing.T) {
	s := NewSampler(80, zerolog.Nop())

	_, err := s.Sample(context.Background(), newFakeSource(4, 4))
	assert.ErrorIs(t, err, ErrInsufficientFrames)

	res, err := s.Sample(context.Background(), newFakeSource(5, 5))
	require.NoError(t, err)
	assert.Len(t, res.Frames, 5)
}

func TestSamplerOverstatedFrameCount(t *testing.T) {
	// Container claims more frames than actually decode.
	src := newFakeSource(6, 200)
	s := NewSampler(80, zerolog.Nop())

	_, err := s.Sample(context.Background(), src)
	assert.ErrorIs(t, err, ErrInsufficientFrames)
}

func TestSamplerReadErrors(t *testing.T) {
	s := NewSampler(80, zerolog.Nop())

	src := newFakeSource(20, 20)
	src.failAt = 0
	_, err := s.Sample(context.Background(), src)
	assert.Error(t, err)
	assert.True(t, src.closed)

	// A late error keeps what was decoded.
	src = newFakeSource(20, 20)
	src.failAt = 12
	res, err := s.Sample(context.Background(), src)
	require.NoError(t, err)
	assert.Len(t, res.Frames, 12)
}

func TestSamplerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewSampler(80, zerolog.Nop()).Sample(ctx, newFakeSource(20, 20))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseFrameRate(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"30/1", 30},
		{"30000/1001", 30000.0 / 1001.0},
		{"25", 25},
		{"0/0", 0},
		{"N/A", 0},
		{"", 0},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, ParseFrameRate(tt.in), 1e-9, tt.in)
	}
}

func TestParseProbe(t *testing.T) {
	out := []byte(`{"streams":[{"width":640,"height":360,"r_frame_rate":"30/1","avg_frame_rate":"0/0","nb_frames":"240"}]}`)
	meta, err := parseProbe(out)
	require.NoError(t, err)
	assert.Equal(t, Metadata{Width: 640, Height: 360, FPS: 30, TotalFrames: 240}, meta)

	_, err = parseProbe([]byte(`{"streams":[]}`))
	assert.ErrorIs(t, err, ErrSourceUnreadable)

	_, err = parseProbe([]byte(`not json`))
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}

func TestCheckSource(t *testing.T) {
	assert.ErrorIs(t, CheckSource("does/not/exist.mp4"), ErrSourceNotFound)
	assert.ErrorIs(t, CheckSource(t.TempDir()), ErrSourceNotFound)

	f, err := os.CreateTemp(t.TempDir(), "clip*.mp4")
	require.NoError(t, err)
	f.Close()
	assert.NoError(t, CheckSource(f.Name()))
}
