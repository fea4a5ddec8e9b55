// Package face locates face regions in frames. Detection itself happens behind
// the Locator interface; this package owns padding, clamping and the per-run
// detection pass that feeds the analyzers.
package face

import (
	"context"
	"fmt"
	"image"

	"github.com/andresmejia3/deepscan/internal/types"
	"golang.org/x/sync/errgroup"
)

// PadFactor is the fraction of the detected width added on each side.
const PadFactor = 0.2

// Locator returns raw face bounding boxes for a frame.
// Implementations need not be safe for concurrent use.
type Locator interface {
	Locate(ctx context.Context, frame *types.Frame) ([]image.Rectangle, error)
	Close() error
}

// Factory acquires a Locator. Each acquired Locator is closed by the caller.
type Factory func(ctx context.Context) (Locator, error)

// Pad expands box on every side by PadFactor of its width and clamps it to bounds.
// ok is false when nothing of the box lies inside bounds.
func Pad(box, bounds image.Rectangle) (image.Rectangle, bool) {
	pad := int(float64(box.Dx()) * PadFactor)
	r := image.Rect(box.Min.X-pad, box.Min.Y-pad, box.Max.X+pad, box.Max.Y+pad).Intersect(bounds)
	return r, !r.Empty()
}

// Regions runs loc on frame and returns the padded, clamped regions.
func Regions(ctx context.Context, loc Locator, frame *types.Frame) ([]image.Rectangle, error) {
	boxes, err := loc.Locate(ctx, frame)
	if err != nil {
		return nil, err
	}
	bounds := frame.Bounds()
	out := make([]image.Rectangle, 0, len(boxes))
	for _, b := range boxes {
		if r, ok := Pad(b.Canon(), bounds); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// LocateAll detects faces in the first limit frames using up to engines
// locators in parallel. The result is indexed by frame position; frames past
// limit and frames without a face have a nil entry.
func LocateAll(ctx context.Context, factory Factory, frames []*types.Frame, limit, engines int) ([][]image.Rectangle, error) {
	out := make([][]image.Rectangle, len(frames))
	if limit > len(frames) {
		limit = len(frames)
	}
	if limit <= 0 {
		return out, nil
	}
	if engines < 1 {
		engines = 1
	}
	if engines > limit {
		engines = limit
	}

	tasks := make(chan int)
	g, gctx := errgroup.WithContext(ctx)

	for i := 0; i < engines; i++ {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = &LocatorPanicError{Value: r}
				}
			}()

			loc, err := factory(gctx)
			if err != nil {
				return fmt.Errorf("locator startup failed: %w", err)
			}
			defer loc.Close()

			for idx := range tasks {
				regions, err := Regions(gctx, loc, frames[idx])
				if err != nil {
					return fmt.Errorf("locate faces in frame %d: %w", idx, err)
				}
				// Each index is owned by exactly one worker.
				out[idx] = regions
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(tasks)
		for i := 0; i < limit; i++ {
			select {
			case tasks <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// LocatorPanicError reports a locator that panicked during startup or detection.
type LocatorPanicError struct {
	Value any
}

func (e *LocatorPanicError) Error() string {
	return fmt.Sprintf("face locator panicked: %v", e.Value)
}

// NopLocator never finds a face.
type NopLocator struct{}

func (NopLocator) Locate(context.Context, *types.Frame) ([]image.Rectangle, error) { return nil, nil }
func (NopLocator) Close() error                                                    { return nil }

// Fixed reports the same boxes for every frame. It stands in for a detector
// when the face position is already known.
type Fixed struct {
	Boxes []image.Rectangle
}

func (f Fixed) Locate(context.Context, *types.Frame) ([]image.Rectangle, error) {
	return f.Boxes, nil
}

func (Fixed) Close() error { return nil }

// Static wraps an existing Locator as a Factory that always hands out loc.
// Only use it with locators that are safe for concurrent use or with engines=1.
func Static(loc Locator) Factory {
	return func(context.Context) (Locator, error) { return loc, nil }
}
