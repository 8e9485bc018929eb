package geojson

import (
	"encoding/json"
	"fmt"
)

// Bounds is a lng/lat bounding box in EPSG:4326.
type Bounds struct {
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// Center returns the midpoint of the box as (lat, lng), the order the map
// renderer expects.
func (b Bounds) Center() (lat, lng float64) {
	return (b.MinLat + b.MaxLat) / 2, (b.MinLng + b.MaxLng) / 2
}

func (b *Bounds) extend(pt [2]float64) {
	if pt[0] < b.MinLng {
		b.MinLng = pt[0]
	}
	if pt[0] > b.MaxLng {
		b.MaxLng = pt[0]
	}
	if pt[1] < b.MinLat {
		b.MinLat = pt[1]
	}
	if pt[1] > b.MaxLat {
		b.MaxLat = pt[1]
	}
}

// geometry is the decoded shape of a GeoJSON geometry member, with the
// coordinates left raw until the type is known.
type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  []geometry      `json:"geometries"`
}

// Bounds computes the bounding box over every Polygon and MultiPolygon in
// the collection. The boolean is false when no coordinates were found
// (empty collection, null or unsupported geometries).
func (fc *FeatureCollection) Bounds() (Bounds, bool) {
	bounds := Bounds{MinLng: 180, MinLat: 90, MaxLng: -180, MaxLat: -90}
	found := false

	for _, f := range fc.Features {
		if f == nil || len(f.Geometry) == 0 {
			continue
		}
		var geom geometry
		if err := json.Unmarshal(f.Geometry, &geom); err != nil {
			continue
		}
		if extendFromGeometry(&bounds, geom) {
			found = true
		}
	}

	return bounds, found
}

func extendFromGeometry(b *Bounds, geom geometry) bool {
	switch geom.Type {
	case "Polygon":
		var rings [][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &rings); err != nil {
			return false
		}
		return extendFromRings(b, rings)
	case "MultiPolygon":
		var polys [][][][2]float64
		if err := json.Unmarshal(geom.Coordinates, &polys); err != nil {
			return false
		}
		found := false
		for _, rings := range polys {
			if extendFromRings(b, rings) {
				found = true
			}
		}
		return found
	case "GeometryCollection":
		found := false
		for _, g := range geom.Geometries {
			if extendFromGeometry(b, g) {
				found = true
			}
		}
		return found
	default:
		return false
	}
}

func extendFromRings(b *Bounds, rings [][][2]float64) bool {
	found := false
	for _, ring := range rings {
		for _, pt := range ring {
			b.extend(pt)
			found = true
		}
	}
	return found
}

// Validate checks that bounds describe a plausible WGS84 box.
func (b Bounds) Validate() error {
	if b.MinLng > b.MaxLng || b.MinLat > b.MaxLat {
		return fmt.Errorf("inverted bounds: %+v", b)
	}
	if b.MinLng < -180 || b.MaxLng > 180 || b.MinLat < -90 || b.MaxLat > 90 {
		return fmt.Errorf("bounds outside WGS84 range: %+v", b)
	}
	return nil
}
