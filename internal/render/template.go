package render

import "html/template"

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
  html, body { margin: 0; height: 100%; }
  #map { height: 100%; }
  .legend {
    background: white;
    padding: 6px 10px;
    font: 12px sans-serif;
    border-radius: 4px;
    box-shadow: 0 0 8px rgba(0,0,0,0.2);
  }
  .legend .swatch {
    display: inline-block;
    width: 12px;
    height: 12px;
    margin-right: 4px;
    vertical-align: middle;
  }
</style>
</head>
<body>
<div id="map"></div>
<script>
var collection = {{.GeoJSON}};
var overlays = {{.Overlays}};
var nameField = {{.NameField}};

var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], {{.Zoom}});
L.tileLayer({{.Tiles}}, {
  maxZoom: 18,
  attribution: '&copy; OpenStreetMap contributors &copy; CARTO'
}).addTo(map);

function ramp(t) {
  // White through orange to deep red, matching the YlOrRd palette the
  // original choropleths used.
  var stops = [[255,255,204],[254,178,76],[240,59,32],[128,0,38]];
  var i = Math.min(Math.floor(t * (stops.length - 1)), stops.length - 2);
  var f = t * (stops.length - 1) - i;
  var c = stops[i].map(function (v, k) {
    return Math.round(v + (stops[i + 1][k] - v) * f);
  });
  return 'rgb(' + c.join(',') + ')';
}

function tooltipHtml(props) {
  var parts = [];
  if (props[nameField]) {
    parts.push('<strong>' + props[nameField] + '</strong>');
  }
  overlays.forEach(function (ov) {
    var v = props[ov.metric];
    parts.push(ov.label + ': ' + (v === null || v === undefined ? 'no data' : v.toLocaleString()));
  });
  return parts.join('<br>');
}

var control = L.control.layers(null, null, { collapsed: false }).addTo(map);

overlays.forEach(function (ov, idx) {
  var span = ov.max - ov.min;
  var layer = L.geoJSON(collection, {
    style: function (feature) {
      var v = feature.properties[ov.metric];
      if (v === null || v === undefined) {
        return { fillColor: '#ffffff', fillOpacity: 0.1, color: '#225ea8', weight: 1 };
      }
      var t = span > 0 ? (v - ov.min) / span : 0.5;
      return { fillColor: ramp(t), fillOpacity: 0.7, color: '#225ea8', weight: 1 };
    },
    onEachFeature: function (feature, lyr) {
      lyr.bindTooltip(tooltipHtml(feature.properties), { sticky: true });
    }
  });
  if (idx === 0) {
    layer.addTo(map);
  }
  control.addOverlay(layer, ov.label);
});

if (overlays.length > 0) {
  var legend = L.control({ position: 'bottomright' });
  legend.onAdd = function () {
    var div = L.DomUtil.create('div', 'legend');
    var html = '';
    [0, 0.25, 0.5, 0.75, 1].forEach(function (t) {
      html += '<span class="swatch" style="background:' + ramp(t) + '"></span>';
    });
    div.innerHTML = html + '<br>low &rarr; high';
    return div;
  };
  legend.addTo(map);
}
</script>
</body>
</html>
`))
