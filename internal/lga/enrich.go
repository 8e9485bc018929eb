package lga

// FallbackNameField is consulted when none of the caller's candidate fields
// produce a match. Several vintages of the Victorian boundary files carry
// the canonical name only under lowercase "name".
const FallbackNameField = "name"

// Coverage reports join quality after enrichment. Unmatched areas are a
// data-quality signal, not an error; callers wanting strict validation
// compare Matched to Total themselves.
type Coverage struct {
	Matched int `json:"matched"`
	Total   int `json:"total"`
}

// Enrich matches each area's attribute map against the aggregated metrics
// and copies metric values into the map in place. For every area the first
// candidate field (in priority order) that is present and non-empty is
// normalized and looked up; if no candidate matches, the "name" fallback is
// tried before giving up. On a match every metric value is written under its
// metric name, overwriting any pre-existing attribute with that name;
// Missing values are written as nil so they serialize as JSON null.
// Unmatched areas are left untouched.
func (n *Normalizer) Enrich(areas []map[string]interface{}, metrics map[string]MetricRow, nameFieldCandidates []string) Coverage {
	cov := Coverage{Total: len(areas)}

	for _, props := range areas {
		if props == nil {
			continue
		}

		row, ok := n.matchArea(props, metrics, nameFieldCandidates)
		if !ok {
			continue
		}

		for name, v := range row.Metrics {
			if IsMissing(v) {
				props[name] = nil
			} else {
				props[name] = v
			}
		}
		cov.Matched++
	}

	return cov
}

// matchArea finds the metric row for one area's attributes, trying each
// candidate field in priority order and then the conventional fallback.
// When several candidate fields would each match, the first in priority
// order wins and the rest are ignored.
func (n *Normalizer) matchArea(props map[string]interface{}, metrics map[string]MetricRow, candidates []string) (MetricRow, bool) {
	for _, field := range candidates {
		if row, ok := n.lookupField(props, field, metrics); ok {
			return row, true
		}
	}
	return n.lookupField(props, FallbackNameField, metrics)
}

func (n *Normalizer) lookupField(props map[string]interface{}, field string, metrics map[string]MetricRow) (MetricRow, bool) {
	raw, ok := props[field]
	if !ok || raw == nil {
		return MetricRow{}, false
	}
	s, ok := raw.(string)
	if !ok || s == "" {
		return MetricRow{}, false
	}
	key := n.Normalize(s)
	if key == "" {
		return MetricRow{}, false
	}
	row, ok := metrics[key]
	return row, ok
}
