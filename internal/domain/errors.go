package domain

import "errors"

// Precondition and engine failures. Callers match them with errors.Is; the
// returned errors wrap these sentinels with the offending detail.
var (
	// ErrDegenerateGrid is returned for grids with zero width or height.
	ErrDegenerateGrid = errors.New("degenerate grid")

	// ErrAlignmentMismatch is returned when hazard and exposure grids differ
	// in shape or georeference.
	ErrAlignmentMismatch = errors.New("grid alignment mismatch")

	// ErrInvalidThresholds is returned for empty or non strictly increasing thresholds.
	ErrInvalidThresholds = errors.New("invalid thresholds")

	// ErrUnsupportedBandCount is returned when a single-band operation is given
	// a multi-band raster.
	ErrUnsupportedBandCount = errors.New("only single-band rasters are supported")

	// ErrGeometryUnionFailed wraps failures reported by a GeometryEngine.
	ErrGeometryUnionFailed = errors.New("geometry union failed")

	// ErrInvalidClassCount is returned when fewer than one display class is requested.
	ErrInvalidClassCount = errors.New("invalid display class count")
)
