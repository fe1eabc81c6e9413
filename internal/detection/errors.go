package detection

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrExclusionRadiusTooSmall is returned when the exclusion radius
	// converts to less than one pixel.
	ErrExclusionRadiusTooSmall = errors.New("exclusion radius is smaller than one pixel")

	// ErrInvalidScale is returned when the micrometers-per-pixel scale is not
	// a finite positive number.
	ErrInvalidScale = errors.New("scale must be a finite positive number")
)

func checkScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return fmt.Errorf("scale %v: %w", scale, ErrInvalidScale)
	}
	return nil
}
