package render

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io"

	"github.com/georgehe23/GovHack-TheGamblersReport/internal/geojson"
	"github.com/georgehe23/GovHack-TheGamblersReport/internal/lga"
)

// Victoria-wide fallback view for collections without usable coordinates.
const (
	fallbackCenterLat = -37.4713
	fallbackCenterLng = 144.7852
	defaultZoom       = 7
)

// DefaultTiles is the CARTO positron base layer the original maps used.
const DefaultTiles = "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png"

// Overlay selects one enriched property to display as a choropleth layer.
type Overlay struct {
	Metric string
	Label  string
}

// MapConfig controls the rendered map.
type MapConfig struct {
	Title     string
	Tiles     string
	NameField string
	Overlays  []Overlay
}

// overlayData is an Overlay with its value range, computed from the
// collection so the color ramp spans the actual data.
type overlayData struct {
	Metric string  `json:"metric"`
	Label  string  `json:"label"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

type templateData struct {
	Title     string
	Tiles     string
	CenterLat float64
	CenterLng float64
	Zoom      int
	NameField string
	GeoJSON   template.JS
	Overlays  template.JS
}

// Map renders an interactive Leaflet choropleth of the enriched collection
// to w. Overlays whose metric is absent from every feature are dropped;
// features with a null metric value are drawn unfilled, the way the original
// maps showed unmatched areas.
func Map(w io.Writer, fc *geojson.FeatureCollection, cfg MapConfig) error {
	if fc == nil {
		return fmt.Errorf("nil feature collection")
	}

	lat, lng := fallbackCenterLat, fallbackCenterLng
	if bounds, ok := fc.Bounds(); ok {
		lat, lng = bounds.Center()
	}

	overlays := make([]overlayData, 0, len(cfg.Overlays))
	for _, ov := range cfg.Overlays {
		od, ok := overlayRange(fc, ov)
		if !ok {
			continue
		}
		overlays = append(overlays, od)
	}

	fcJSON, err := json.Marshal(fc)
	if err != nil {
		return fmt.Errorf("failed to encode collection for map: %w", err)
	}
	ovJSON, err := json.Marshal(overlays)
	if err != nil {
		return fmt.Errorf("failed to encode overlays for map: %w", err)
	}

	tiles := cfg.Tiles
	if tiles == "" {
		tiles = DefaultTiles
	}
	nameField := cfg.NameField
	if nameField == "" {
		nameField = "NAME"
	}
	title := cfg.Title
	if title == "" {
		title = "LGA Report"
	}

	data := templateData{
		Title:     title,
		Tiles:     tiles,
		CenterLat: lat,
		CenterLng: lng,
		Zoom:      defaultZoom,
		NameField: nameField,
		GeoJSON:   template.JS(fcJSON),
		Overlays:  template.JS(ovJSON),
	}

	return mapTemplate.Execute(w, data)
}

// overlayRange scans the collection for the overlay's value range. Returns
// false when no feature carries a numeric value for the metric.
func overlayRange(fc *geojson.FeatureCollection, ov Overlay) (overlayData, bool) {
	od := overlayData{Metric: ov.Metric, Label: ov.Label}
	found := false

	for _, f := range fc.Features {
		if f == nil {
			continue
		}
		raw, ok := f.Properties[ov.Metric]
		if !ok || raw == nil {
			continue
		}
		v, ok := raw.(float64)
		if !ok || lga.IsMissing(v) {
			continue
		}
		if !found || v < od.Min {
			od.Min = v
		}
		if !found || v > od.Max {
			od.Max = v
		}
		found = true
	}

	return od, found
}
