//go:build !gocv

package face

import (
	"context"
	"fmt"
)

// CascadeAvailable reports whether this binary was built with OpenCV support.
const CascadeAvailable = false

// CascadeFactory reports that the cascade locator needs the gocv build tag.
func CascadeFactory(path string) Factory {
	return func(context.Context) (Locator, error) {
		return nil, fmt.Errorf("cascade locator unavailable: rebuild with -tags gocv (cascade %s)", path)
	}
}
