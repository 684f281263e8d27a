// Package esri reads and writes ESRI ASCII grids (.asc) and loads them as
// domain grids from a root directory.
package esri

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// DefaultNodata is written for missing cells when a grid carries no sentinel.
const DefaultNodata = -9999.0

// MaxCells bounds ncols*nrows so a corrupt header cannot demand an
// arbitrarily large allocation.
const MaxCells = 1 << 28

var errMalformed = errors.New("malformed ESRI ASCII grid")

type header struct {
	ncols, nrows int
	xll, yll     float64
	center       bool
	dx, dy       float64
	nodata       *float64
}

// Read parses an ESRI ASCII grid. Both corner (xllcorner) and center
// (xllcenter) georeferencing are accepted, as are cellsize or dx/dy.
func Read(r io.Reader) (*domain.Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	sc.Split(bufio.ScanWords)

	h, first, err := readHeader(sc)
	if err != nil {
		return nil, err
	}

	cells := h.ncols * h.nrows
	values := make([]float64, 0, min(cells, 1<<16))
	if first != "" {
		v, err := strconv.ParseFloat(first, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cell 0: %w", errMalformed, err)
		}
		values = append(values, v)
	}
	for sc.Scan() {
		if len(values) == cells {
			return nil, fmt.Errorf("%w: more than %d cells", errMalformed, cells)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %d: %w", errMalformed, len(values), err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}
	if len(values) != cells {
		return nil, fmt.Errorf("%w: got %d cells, want %d", errMalformed, len(values), cells)
	}

	xmin, ymin := h.xll, h.yll
	if h.center {
		xmin -= h.dx / 2
		ymin -= h.dy / 2
	}
	extent := domain.Extent{
		XMin: xmin,
		YMin: ymin,
		XMax: xmin + float64(h.ncols)*h.dx,
		YMax: ymin + float64(h.nrows)*h.dy,
	}
	return domain.NewGrid(h.ncols, h.nrows, extent, h.nodata, values)
}

// readHeader consumes key/value pairs until the first numeric token, which
// is returned as the first cell value.
func readHeader(sc *bufio.Scanner) (header, string, error) {
	h := header{ncols: -1, nrows: -1}
	var seenX, seenY, seenSize bool

	for sc.Scan() {
		key := strings.ToLower(sc.Text())
		if _, err := strconv.ParseFloat(key, 64); err == nil {
			if err := h.check(seenX, seenY, seenSize); err != nil {
				return h, "", err
			}
			return h, sc.Text(), nil
		}
		if !sc.Scan() {
			return h, "", fmt.Errorf("%w: header %s has no value", errMalformed, key)
		}
		raw := sc.Text()

		var err error
		switch key {
		case "ncols":
			h.ncols, err = strconv.Atoi(raw)
		case "nrows":
			h.nrows, err = strconv.Atoi(raw)
		case "xllcorner", "xllcenter":
			h.xll, err = strconv.ParseFloat(raw, 64)
			h.center = key == "xllcenter"
			seenX = true
		case "yllcorner", "yllcenter":
			h.yll, err = strconv.ParseFloat(raw, 64)
			seenY = true
		case "cellsize":
			h.dx, err = strconv.ParseFloat(raw, 64)
			h.dy = h.dx
			seenSize = true
		case "dx":
			h.dx, err = strconv.ParseFloat(raw, 64)
			seenSize = true
		case "dy":
			h.dy, err = strconv.ParseFloat(raw, 64)
		case "nodata_value":
			var v float64
			v, err = strconv.ParseFloat(raw, 64)
			h.nodata = &v
		default:
			return h, "", fmt.Errorf("%w: unknown header %q", errMalformed, key)
		}
		if err != nil {
			return h, "", fmt.Errorf("%w: header %s: %w", errMalformed, key, err)
		}
	}
	if err := sc.Err(); err != nil {
		return h, "", fmt.Errorf("read grid header: %w", err)
	}
	return h, "", h.check(seenX, seenY, seenSize)
}

func (h header) check(seenX, seenY, seenSize bool) error {
	switch {
	case h.ncols <= 0 || h.nrows <= 0:
		return fmt.Errorf("%w: ncols=%d nrows=%d: %w", errMalformed, h.ncols, h.nrows, domain.ErrDegenerateGrid)
	case h.ncols > MaxCells/h.nrows:
		return fmt.Errorf("%w: ncols=%d nrows=%d exceeds %d cells", errMalformed, h.ncols, h.nrows, MaxCells)
	case !seenX || !seenY:
		return fmt.Errorf("%w: missing lower-left corner", errMalformed)
	case !seenSize || !(h.dx > 0) || !(h.dy > 0):
		return fmt.Errorf("%w: missing or non-positive cell size", errMalformed)
	}
	return nil
}

// Write encodes g as an ESRI ASCII grid with corner georeferencing. NaN and
// the grid's nodata cells are written as its sentinel, or DefaultNodata.
func Write(w io.Writer, g *domain.Grid) error {
	bw := bufio.NewWriter(w)
	dx, dy := g.Resolution()
	extent := g.Extent()

	nodata := DefaultNodata
	if g.Nodata() != nil {
		nodata = *g.Nodata()
	}

	fmt.Fprintf(bw, "ncols %d\nnrows %d\n", g.Width(), g.Height())
	fmt.Fprintf(bw, "xllcorner %s\nyllcorner %s\n", formatFloat(extent.XMin), formatFloat(extent.YMin))
	if dx == dy {
		fmt.Fprintf(bw, "cellsize %s\n", formatFloat(dx))
	} else {
		fmt.Fprintf(bw, "dx %s\ndy %s\n", formatFloat(dx), formatFloat(dy))
	}
	fmt.Fprintf(bw, "NODATA_value %s\n", formatFloat(nodata))

	for row := 0; row < g.Height(); row++ {
		for col := 0; col < g.Width(); col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v, ok := g.Value(row, col)
			if !ok || math.IsNaN(v) {
				v = nodata
			}
			bw.WriteString(formatFloat(v))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
