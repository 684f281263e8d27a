package esri

import (
	"bytes"
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

const depthGrid = `ncols 3
nrows 2
xllcorner 100
yllcorner 20
cellsize 0.5
NODATA_value -9999
0.1 1.2 -9999
2 0 0.75
`

func TestRead(t *testing.T) {
	t.Run("corner georeference", func(t *testing.T) {
		g, err := Read(strings.NewReader(depthGrid))
		require.NoError(t, err)

		assert.Equal(t, 3, g.Width())
		assert.Equal(t, 2, g.Height())
		assert.Equal(t, domain.Extent{XMin: 100, YMin: 20, XMax: 101.5, YMax: 21}, g.Extent())
		require.NotNil(t, g.Nodata())
		assert.Equal(t, -9999.0, *g.Nodata())
		assert.Equal(t, []float64{0.1, 1.2, 0, 2, 0, 0.75}, g.Values())

		_, ok := g.Value(0, 2)
		assert.False(t, ok)
	})

	t.Run("center georeference and dx dy", func(t *testing.T) {
		src := "NCOLS 2\nNROWS 1\nXLLCENTER 1\nYLLCENTER 1\nDX 2\nDY 1\n5 6\n"
		g, err := Read(strings.NewReader(src))
		require.NoError(t, err)
		assert.Equal(t, domain.Extent{XMin: 0, YMin: 0.5, XMax: 4, YMax: 1.5}, g.Extent())
		assert.Nil(t, g.Nodata())
	})

	tests := []struct {
		name string
		src  string
	}{
		{"too few cells", "ncols 2\nnrows 2\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2 3\n"},
		{"too many cells", "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n1 2\n"},
		{"bad cell", "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\nabc\n"},
		{"unknown header", "ncols 1\nnrows 1\nprojection utm\n1\n"},
		{"missing cellsize", "ncols 1\nnrows 1\nxllcorner 0\nyllcorner 0\n1\n"},
		{"zero columns", "ncols 0\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n"},
		{"header without value", "ncols"},
		{"oversized header", "ncols 100000\nnrows 100000\nxllcorner 0\nyllcorner 0\ncellsize 1\n1\n"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			require.ErrorIs(t, err, errMalformed)
		})
	}

	t.Run("zero columns is degenerate", func(t *testing.T) {
		_, err := Read(strings.NewReader("ncols 0\nnrows 1\nxllcorner 0\nyllcorner 0\ncellsize 1\n"))
		require.ErrorIs(t, err, domain.ErrDegenerateGrid)
	})
}

func TestReadGrowsPastInitialCapacity(t *testing.T) {
	var b strings.Builder
	b.WriteString("ncols 300\nnrows 300\nxllcorner 0\nyllcorner 0\ncellsize 1\n")
	for i := 0; i < 300*300; i++ {
		b.WriteString("1 ")
	}

	g, err := Read(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 300, g.Width())
	assert.Equal(t, 300, g.Height())
	v, ok := g.Value(299, 299)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestWriteReadBack(t *testing.T) {
	g, err := Read(strings.NewReader(depthGrid))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	assert.Equal(t, depthGrid, buf.String())
}

func TestWriteNaNWithoutSentinel(t *testing.T) {
	g, err := domain.NewGrid(2, 1, domain.Extent{XMax: 4, YMax: 1}, nil, []float64{math.NaN(), 3})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, g))
	assert.Equal(t, "ncols 2\nnrows 1\nxllcorner 0\nyllcorner 0\ndx 2\ndy 1\nNODATA_value -9999\n-9999 3\n", buf.String())
}

func TestLoader(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "jakarta"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "jakarta", "depth.asc"), []byte(depthGrid), 0o600))
	loader := NewLoader(root)

	t.Run("relative path", func(t *testing.T) {
		g, err := loader.Load(context.Background(), "jakarta/depth.asc")
		require.NoError(t, err)
		assert.Equal(t, 3, g.Width())
	})

	t.Run("escaping the root", func(t *testing.T) {
		_, err := loader.Load(context.Background(), "../etc/passwd")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "outside the grid root")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(context.Background(), "nope.asc")
		require.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := loader.Load(ctx, "jakarta/depth.asc")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestWriteFileReadFile(t *testing.T) {
	g, err := Read(strings.NewReader(depthGrid))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out.asc")
	require.NoError(t, WriteFile(path, g))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, g.Raw(), back.Raw())
	assert.Equal(t, g.Extent(), back.Extent())
}
