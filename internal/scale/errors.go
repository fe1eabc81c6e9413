package scale

import "errors"

var (
	// ErrImageTooSmall is returned when the image cannot hold a footer.
	ErrImageTooSmall = errors.New("image too small for scale recognition")

	// ErrFooterNotFound is returned when no column shows the brightness rise
	// marking the top of the footer.
	ErrFooterNotFound = errors.New("calibration footer not found")

	// ErrInsufficientCalibrationLines is returned when fewer than two
	// distinct horizontal calibration lines are found in the footer.
	ErrInsufficientCalibrationLines = errors.New("fewer than two calibration lines found")

	// ErrNonHorizontalCalibrationLine is returned when the outer ends of the
	// calibration lines are not level (slope above 1:20).
	ErrNonHorizontalCalibrationLine = errors.New("calibration line is not horizontal")

	// ErrTextNotRecognized is returned when the calibration label is not a
	// number followed by "um". The wrapping error carries the raw text.
	ErrTextNotRecognized = errors.New("calibration text not recognized")

	// ErrInvalidOverride is returned for an override with a non-positive
	// length or a footer taller than the image.
	ErrInvalidOverride = errors.New("invalid scale override")
)
