package geojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Feature is a single GeoJSON feature. Geometry is kept as raw JSON: the
// enrichment pipeline only reads and writes properties, and passing the
// geometry through untouched guarantees byte-level fidelity for whatever
// geometry types the boundary file contains.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   json.RawMessage        `json:"geometry"`
	ID         interface{}            `json:"id,omitempty"`
}

// FeatureCollection is a GeoJSON feature collection.
type FeatureCollection struct {
	Type     string     `json:"type"`
	Features []*Feature `json:"features"`
}

// Decode parses a GeoJSON feature collection from r. Features with a null
// properties member get an empty map so downstream enrichment can mutate
// them in place.
func Decode(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("expected FeatureCollection, got %q", fc.Type)
	}

	for _, f := range fc.Features {
		if f != nil && f.Properties == nil {
			f.Properties = make(map[string]interface{})
		}
	}

	return &fc, nil
}

// LoadFile reads a GeoJSON feature collection from disk.
func LoadFile(path string) (*FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open boundary file %s: %w", path, err)
	}
	defer f.Close()

	fc, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode boundary file %s: %w", path, err)
	}
	return fc, nil
}

// PropertyMaps returns the property map of every feature, in order. The maps
// are shared with the features, so mutations are visible in the collection.
func (fc *FeatureCollection) PropertyMaps() []map[string]interface{} {
	maps := make([]map[string]interface{}, 0, len(fc.Features))
	for _, f := range fc.Features {
		if f == nil {
			maps = append(maps, nil)
			continue
		}
		maps = append(maps, f.Properties)
	}
	return maps
}

// Clone returns a deep copy of the collection. Geometry is shared (it is
// never mutated); properties are copied so enrichment of the clone leaves
// the original untouched.
func (fc *FeatureCollection) Clone() *FeatureCollection {
	out := &FeatureCollection{
		Type:     fc.Type,
		Features: make([]*Feature, 0, len(fc.Features)),
	}
	for _, f := range fc.Features {
		if f == nil {
			out.Features = append(out.Features, nil)
			continue
		}
		props := make(map[string]interface{}, len(f.Properties))
		for k, v := range f.Properties {
			props[k] = v
		}
		out.Features = append(out.Features, &Feature{
			Type:       f.Type,
			Properties: props,
			Geometry:   f.Geometry,
			ID:         f.ID,
		})
	}
	return out
}
