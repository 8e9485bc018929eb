package lga

import "math"

// Reducer selects how values within a group are combined for one metric
// column. Totals and counts (expenditure, population) sum; rates and ratios
// (EGM density, unemployment rate) average.
type Reducer int

const (
	ReduceSum Reducer = iota
	ReduceMean
)

// Missing is the explicit missing-value marker. Non-numeric or absent source
// values propagate as Missing through reduction and ratio computation; they
// are never coerced to zero.
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// Row is one input record: a free-text area name and its metric values.
// A metric absent from Metrics, or present as Missing, is treated as missing.
type Row struct {
	Name    string
	Metrics map[string]float64
}

// RatioSpec defines a derived metric computed after primary reduction.
// The denominator is the product of the named columns multiplied by Scale,
// which lets per-1,000 rates be folded in (e.g. expenditure per EGM where
// the EGM count is adults * egms_per_1000_adults / 1000). A zero Scale
// means 1.
type RatioSpec struct {
	Name        string
	Numerator   string
	Denominator []string
	Scale       float64
}

// AggregateSpec is the caller-supplied configuration for Aggregate. The core
// has no knowledge of domain column names; the caller decides which columns
// exist, how each reduces, and which column (if any) acts as a denominator
// gate.
type AggregateSpec struct {
	// Reducers maps metric column name to its reducer. Columns not listed
	// are ignored.
	Reducers map[string]Reducer

	// DenominatorColumn, when non-empty, names a column that must be present
	// and positive for a row to participate at all. A zero-population area
	// cannot support a per-capita metric, so such rows are dropped before
	// grouping.
	DenominatorColumn string

	// Ratios are derived metrics computed from reduced columns.
	Ratios []RatioSpec
}

// MetricRow is one aggregated output row per distinct normalized key.
type MetricRow struct {
	// Key is the normalized name the row is grouped under.
	Key string
	// DisplayName is the raw name of the first row seen in the group. It is
	// diagnostic only and never used for matching.
	DisplayName string
	// Metrics holds the reduced (and derived) values. Missing is NaN.
	Metrics map[string]float64
}

// group accumulates running reductions for one normalized key.
type group struct {
	displayName string
	sums        map[string]float64
	counts      map[string]int
}

// Aggregate groups rows by normalized name and reduces each configured
// metric column independently. Rows failing the denominator gate are
// excluded before grouping. A group with zero valid values for a column
// yields Missing for that column, never zero. An empty or unusable input
// yields an empty map, not an error.
func (n *Normalizer) Aggregate(rows []Row, spec AggregateSpec) map[string]MetricRow {
	groups := make(map[string]*group)

	for _, row := range rows {
		if spec.DenominatorColumn != "" {
			d, ok := row.Metrics[spec.DenominatorColumn]
			if !ok || IsMissing(d) || d <= 0 {
				continue
			}
		}

		key := n.Normalize(row.Name)
		if key == "" {
			continue
		}

		g, ok := groups[key]
		if !ok {
			g = &group{
				displayName: row.Name,
				sums:        make(map[string]float64),
				counts:      make(map[string]int),
			}
			groups[key] = g
		}

		for col := range spec.Reducers {
			v, ok := row.Metrics[col]
			if !ok || IsMissing(v) {
				continue
			}
			g.sums[col] += v
			g.counts[col]++
		}
	}

	out := make(map[string]MetricRow, len(groups))
	for key, g := range groups {
		metrics := make(map[string]float64, len(spec.Reducers)+len(spec.Ratios))
		for col, reducer := range spec.Reducers {
			count := g.counts[col]
			if count == 0 {
				metrics[col] = Missing()
				continue
			}
			switch reducer {
			case ReduceMean:
				metrics[col] = g.sums[col] / float64(count)
			default:
				metrics[col] = g.sums[col]
			}
		}

		for _, r := range spec.Ratios {
			metrics[r.Name] = deriveRatio(metrics, r)
		}

		out[key] = MetricRow{
			Key:         key,
			DisplayName: g.displayName,
			Metrics:     metrics,
		}
	}

	return out
}

// deriveRatio computes a derived ratio from already-reduced columns.
// Missing operands or a zero denominator yield Missing, never a panic and
// never a silently substituted zero.
func deriveRatio(metrics map[string]float64, r RatioSpec) float64 {
	num, ok := metrics[r.Numerator]
	if !ok || IsMissing(num) {
		return Missing()
	}
	den := r.Scale
	if den == 0 {
		den = 1
	}
	for _, col := range r.Denominator {
		v, ok := metrics[col]
		if !ok || IsMissing(v) {
			return Missing()
		}
		den *= v
	}
	if den == 0 {
		return Missing()
	}
	return num / den
}
