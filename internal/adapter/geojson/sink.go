// Package geojson writes domain features as GeoJSON FeatureCollections.
package geojson

import (
	"fmt"
	"io"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/hazard-impact-service/internal/domain"
)

// DefaultField is the property name used when none is configured.
const DefaultField = "value"

// Sink implements domain.VectorSink. Each call writes one FeatureCollection.
type Sink struct {
	w     io.Writer
	field string
}

// NewSink creates a Sink storing each feature value under field.
func NewSink(w io.Writer, field string) *Sink {
	if field == "" {
		field = DefaultField
	}
	return &Sink{w: w, field: field}
}

func (s *Sink) WriteFeatures(features []domain.Feature) error {
	data, err := Marshal(features, s.field)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("write feature collection: %w", err)
	}
	return nil
}

// Collection converts features into a FeatureCollection, preserving order.
func Collection(features []domain.Feature, field string) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, f := range features {
		gf := geojson.NewFeature(f.Geometry)
		gf.Properties[field] = f.Value
		fc.Append(gf)
	}
	return fc
}

// Marshal encodes features as a FeatureCollection document.
func Marshal(features []domain.Feature, field string) ([]byte, error) {
	data, err := Collection(features, field).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode feature collection: %w", err)
	}
	return data, nil
}
