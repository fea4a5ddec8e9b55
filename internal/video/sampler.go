package video

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/andresmejia3/deepscan/internal/types"
	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

// MinFrames is the smallest sample a run can proceed with.
const MinFrames = 5

// DefaultMaxFrames caps the sample size.
const DefaultMaxFrames = 80

// Mode selects how frames are picked from the stream.
type Mode string

const (
	// ModeEven spreads the sample across the whole timeline.
	ModeEven Mode = "even"
	// ModeFirst takes the leading frames.
	ModeFirst Mode = "first"
)

// Sample is the output of a sampling pass.
type Sample struct {
	Frames      []*types.Frame
	FPS         float64
	TotalFrames int
}

// Sampler picks a bounded, deterministic subset of a stream's frames.
type Sampler struct {
	MaxFrames int
	Mode      Mode
	Progress  io.Writer // decode progress bar destination; nil hides it
	Logger    zerolog.Logger
}

// NewSampler returns an even-stride sampler capped at maxFrames.
func NewSampler(maxFrames int, logger zerolog.Logger) *Sampler {
	if maxFrames < MinFrames {
		maxFrames = DefaultMaxFrames
	}
	return &Sampler{MaxFrames: maxFrames, Mode: ModeEven, Logger: logger}
}

// SampleIndices returns n indices evenly spaced over [0, total-1], or every
// index when total <= n. Results are strictly increasing.
func SampleIndices(total, n int) []int {
	if total <= 0 || n <= 0 {
		return nil
	}
	if total <= n {
		idx := make([]int, total)
		for i := range idx {
			idx[i] = i
		}
		return idx
	}
	if n == 1 {
		return []int{0}
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i * (total - 1) / (n - 1)
	}
	return idx
}

// Sample decodes src and keeps the selected frames. The source is always closed.
// Frames in the result are re-indexed by their position in the sample.
func (s *Sampler) Sample(ctx context.Context, src FrameSource) (*Sample, error) {
	meta := src.Meta()
	mode := s.Mode
	if mode == ModeEven && meta.TotalFrames <= 0 {
		s.Logger.Warn().Msg("frame count unknown, sampling leading frames")
		mode = ModeFirst
	}

	var want map[int]bool
	last := s.MaxFrames - 1
	if mode == ModeEven {
		indices := SampleIndices(meta.TotalFrames, s.MaxFrames)
		want = make(map[int]bool, len(indices))
		for _, i := range indices {
			want[i] = true
		}
		last = indices[len(indices)-1]
	}

	bar := s.newBar(last + 1)
	frames := make([]*types.Frame, 0, s.MaxFrames)
	readErr := func() error {
		for decoded := 0; decoded <= last; decoded++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := src.Next()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return err
			}
			if bar != nil {
				bar.Add(1)
			}
			if want != nil && !want[decoded] {
				continue
			}
			f.Index = len(frames)
			frames = append(frames, f)
		}
		return nil
	}()
	if bar != nil {
		bar.Finish()
	}
	closeErr := src.Close()

	if readErr != nil {
		if errors.Is(readErr, context.Canceled) || errors.Is(readErr, context.DeadlineExceeded) {
			return nil, readErr
		}
		if len(frames) == 0 {
			return nil, readErr
		}
		s.Logger.Warn().Err(readErr).Int("frames", len(frames)).Msg("decoding stopped early")
	}
	if closeErr != nil && len(frames) == 0 {
		return nil, closeErr
	}
	if len(frames) < MinFrames {
		return nil, fmt.Errorf("%w: decoded %d, need at least %d", ErrInsufficientFrames, len(frames), MinFrames)
	}

	s.Logger.Info().Int("frames", len(frames)).Int("total", meta.TotalFrames).Float64("fps", meta.FPS).Msg("frames sampled")
	return &Sample{Frames: frames, FPS: meta.FPS, TotalFrames: meta.TotalFrames}, nil
}

func (s *Sampler) newBar(total int) *progressbar.ProgressBar {
	if s.Progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription("🎞️  Decoding"),
		progressbar.OptionSetWriter(s.Progress),
		progressbar.OptionShowCount(),
	)
}
