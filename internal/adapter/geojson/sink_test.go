package geojson

import (
	"bytes"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

func TestSinkWriteFeatures(t *testing.T) {
	square := orb.Polygon{orb.Ring{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
	features := []domain.Feature{
		{Geometry: orb.Point{106.8, -6.2}, Value: 1.5},
		{Geometry: square, Value: 1},
	}

	var buf bytes.Buffer
	require.NoError(t, NewSink(&buf, "").WriteFeatures(features))

	fc, err := geojson.UnmarshalFeatureCollection(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, fc.Features, 2)

	assert.Equal(t, orb.Point{106.8, -6.2}, fc.Features[0].Geometry)
	assert.InDelta(t, 1.5, fc.Features[0].Properties.MustFloat64(DefaultField), 1e-12)
	assert.Equal(t, square, fc.Features[1].Geometry)
}

func TestSinkCustomField(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(&buf, "depth")
	require.NoError(t, sink.WriteFeatures([]domain.Feature{{Geometry: orb.Point{1, 2}, Value: 0.7}}))

	assert.Contains(t, buf.String(), `"depth":0.7`)
	assert.NotContains(t, buf.String(), `"value"`)
}

func TestMarshalEmpty(t *testing.T) {
	data, err := Marshal(nil, DefaultField)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"FeatureCollection","features":[]}`, string(data))
}

func TestPolygonFeatures(t *testing.T) {
	mp := orb.MultiPolygon{
		{orb.Ring{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}},
	}
	data, err := Marshal(domain.PolygonFeatures(mp), "area")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"area":4`)
}
