// Package domain assesses how much of an exposed population falls inside a
// hazard footprint.
//
// # Grids
//
// Hazard (e.g. flood depth in metres) and exposure (people per cell) are
// single-band rasters on the same grid: identical width, height and extent.
// Row 0 is the northern edge. Cell (row, col) is georeferenced by the world
// coordinate of its top-left corner:
//
//	x = xmin + col * (xmax - xmin) / width
//	y = ymax - row * (ymax - ymin) / height
//
// NaN and the nodata sentinel are treated as 0 in every aggregate.
//
// # Classification
//
// Thresholds t0 < t1 < ... < tn-1 define bands [ti, ti+1) with the last band
// [tn-1, +Inf). Exposure is summed per band in float64 and truncated toward
// zero. The impact raster is the exposure wherever the hazard reaches the
// last threshold. An all-zero impact raster is reported as [ZeroImpact], a
// normal outcome that callers render as a summary without a map.
//
// # Rounding and needs
//
// Evacuated people are rounded up with [RoundUpFull] to 10, 100 or 1,000
// depending on magnitude; totals with [RoundUpCoarse]. Relief needs scale
// per-person quantities by the rounded evacuee count ([ComputeNeeds]).
//
// # Flood areas
//
// [Polygonize] turns the cells strictly between two thresholds into
// rectangles and merges them through a [GeometryEngine].
package domain
