package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/georgehe23/GovHack-TheGamblersReport/internal/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCollection() *geojson.FeatureCollection {
	fc, err := geojson.Decode(strings.NewReader(`{
		"type": "FeatureCollection",
		"features": [
			{
				"type": "Feature",
				"properties": {"NAME": "MELBOURNE", "expenditure": 1000.0},
				"geometry": {"type": "Polygon", "coordinates": [[[144.9,-37.9],[145.0,-37.9],[145.0,-37.7],[144.9,-37.9]]]}
			},
			{
				"type": "Feature",
				"properties": {"NAME": "HUME", "expenditure": null},
				"geometry": {"type": "Polygon", "coordinates": [[[144.8,-37.6],[145.0,-37.6],[145.0,-37.4],[144.8,-37.6]]]}
			}
		]
	}`))
	if err != nil {
		panic(err)
	}
	return fc
}

func TestMap(t *testing.T) {
	var buf bytes.Buffer
	cfg := MapConfig{
		Title:     "Gambling Expenditure by LGA",
		NameField: "NAME",
		Overlays:  []Overlay{{Metric: "expenditure", Label: "Net Expenditure ($)"}},
	}

	err := Map(&buf, testCollection(), cfg)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "leaflet")
	assert.Contains(t, html, "Gambling Expenditure by LGA")
	assert.Contains(t, html, "Net Expenditure ($)")
	assert.Contains(t, html, "MELBOURNE")
	// Default tiles applied when none configured.
	assert.Contains(t, html, "basemaps.cartocdn.com")
}

func TestMap_DropsOverlayWithoutData(t *testing.T) {
	var buf bytes.Buffer
	cfg := MapConfig{
		Overlays: []Overlay{
			{Metric: "expenditure", Label: "Expenditure"},
			{Metric: "nonexistent", Label: "Ghost Layer"},
		},
	}

	err := Map(&buf, testCollection(), cfg)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Expenditure")
	assert.NotContains(t, html, "Ghost Layer")
}

func TestMap_NilCollection(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Map(&buf, nil, MapConfig{}))
}

func TestOverlayRange(t *testing.T) {
	od, ok := overlayRange(testCollection(), Overlay{Metric: "expenditure", Label: "Exp"})
	require.True(t, ok)
	// Single numeric value: range collapses to it, null is ignored.
	assert.Equal(t, 1000.0, od.Min)
	assert.Equal(t, 1000.0, od.Max)
}
