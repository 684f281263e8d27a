package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildClasses(t *testing.T) {
	t.Run("eight classes over an integer range", func(t *testing.T) {
		classes, err := BuildClasses([]float64{0, 5, 70, 12}, 8)
		require.NoError(t, err)
		require.Len(t, classes, 8)

		labels := make([]string, len(classes))
		for i, c := range classes {
			labels[i] = c.Label
			assert.Equal(t, ImpactPalette[i], c.Color)
		}
		assert.Equal(t, []string{
			"[0]",
			"Low [0 - 10]",
			"[10 - 20]",
			"[20 - 30]",
			"Medium [30 - 40]",
			"[40 - 50]",
			"[50 - 60]",
			"High [60 - 70]",
		}, labels)
		assert.Equal(t, 70.0, classes[7].Quantity)
	})

	t.Run("class zero covers exactly zero and is transparent", func(t *testing.T) {
		for _, n := range []int{1, 2, 3, 8, 12} {
			classes, err := BuildClasses([]float64{3.5, 1}, n)
			require.NoError(t, err)
			require.Len(t, classes, n)
			assert.Equal(t, 0.0, classes[0].Lower)
			assert.Equal(t, 0.0, classes[0].Upper)
			assert.Equal(t, 100, classes[0].Transparency)
			for _, c := range classes[1:] {
				assert.Zero(t, c.Transparency)
			}
		}
	})

	t.Run("intervals are contiguous and non-empty", func(t *testing.T) {
		classes, err := BuildClasses([]float64{2, 2, 2}, 5)
		require.NoError(t, err)
		for i := 1; i < len(classes); i++ {
			assert.Less(t, classes[i].Lower, classes[i].Upper)
			if i > 1 {
				assert.Equal(t, classes[i-1].Upper, classes[i].Lower)
			}
		}
		assert.Equal(t, 2.0, classes[4].Upper)
	})

	t.Run("all zero values spread over one", func(t *testing.T) {
		classes, err := BuildClasses([]float64{0, 0}, 3)
		require.NoError(t, err)
		assert.Equal(t, 1.0, classes[2].Upper)
		assert.Equal(t, "[0.5 - 1]", classes[2].Label)
	})

	t.Run("NaN ignored", func(t *testing.T) {
		classes, err := BuildClasses([]float64{math.NaN(), 4}, 3)
		require.NoError(t, err)
		assert.Equal(t, 4.0, classes[2].Upper)
	})

	t.Run("thousand separators in labels", func(t *testing.T) {
		classes, err := BuildClasses([]float64{14000}, 8)
		require.NoError(t, err)
		assert.Equal(t, "High [12,000 - 14,000]", classes[7].Label)
	})

	t.Run("deterministic", func(t *testing.T) {
		values := []float64{0.7, 13.25, 8, 0}
		a, err := BuildClasses(values, 8)
		require.NoError(t, err)
		b, err := BuildClasses(values, 8)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("invalid count", func(t *testing.T) {
		_, err := BuildClasses([]float64{1}, 0)
		require.ErrorIs(t, err, ErrInvalidClassCount)
	})
}
