//go:build gocv

package face

import (
	"context"
	"fmt"
	"image"

	"github.com/andresmejia3/deepscan/internal/types"
	"gocv.io/x/gocv"
)

// CascadeLocator runs an OpenCV Haar cascade on the grayscale frame.
type CascadeLocator struct {
	classifier gocv.CascadeClassifier
}

// CascadeAvailable reports whether this binary was built with OpenCV support.
const CascadeAvailable = true

// NewCascadeLocator loads the cascade XML at path.
func NewCascadeLocator(path string) (*CascadeLocator, error) {
	c := gocv.NewCascadeClassifier()
	if !c.Load(path) {
		c.Close()
		return nil, fmt.Errorf("failed to load cascade classifier from %s", path)
	}
	return &CascadeLocator{classifier: c}, nil
}

// CascadeFactory loads a fresh classifier per acquisition; classifiers are not goroutine-safe.
func CascadeFactory(path string) Factory {
	return func(context.Context) (Locator, error) {
		return NewCascadeLocator(path)
	}
}

// Locate detects faces with scale factor 1.1 and 4 min neighbours.
func (c *CascadeLocator) Locate(ctx context.Context, frame *types.Frame) ([]image.Rectangle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rgb, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.RGB())
	if err != nil {
		return nil, err
	}
	defer rgb.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(rgb, &gray, gocv.ColorRGBToGray)

	boxes := c.classifier.DetectMultiScaleWithParams(gray, 1.1, 4, 0, image.Point{}, image.Point{})
	return boxes, nil
}

// Close releases the classifier.
func (c *CascadeLocator) Close() error {
	return c.classifier.Close()
}
