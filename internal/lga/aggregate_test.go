package lga

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_SumAndMean(t *testing.T) {
	n := NewNormalizer(nil)

	rows := []Row{
		{Name: "City of Ballarat", Metrics: map[string]float64{"expenditure": 100, "egm_rate": 4}},
		{Name: "BALLARAT (CITY)", Metrics: map[string]float64{"expenditure": 50, "egm_rate": 6}},
	}
	spec := AggregateSpec{
		Reducers: map[string]Reducer{
			"expenditure": ReduceSum,
			"egm_rate":    ReduceMean,
		},
	}

	out := n.Aggregate(rows, spec)
	require.Len(t, out, 1)

	row, ok := out["BALLARAT"]
	require.True(t, ok)
	assert.Equal(t, "City of Ballarat", row.DisplayName)
	assert.Equal(t, 150.0, row.Metrics["expenditure"])
	assert.Equal(t, 5.0, row.Metrics["egm_rate"])
}

func TestAggregate_DenominatorExclusion(t *testing.T) {
	n := NewNormalizer(nil)

	// The zero-population row is dropped before grouping, so only the
	// second row contributes to the group.
	rows := []Row{
		{Name: "Shire of X", Metrics: map[string]float64{"pop": 0, "exp": 100}},
		{Name: "City of X", Metrics: map[string]float64{"pop": 50, "exp": 200}},
	}
	spec := AggregateSpec{
		Reducers:          map[string]Reducer{"pop": ReduceSum, "exp": ReduceSum},
		DenominatorColumn: "pop",
	}

	out := n.Aggregate(rows, spec)
	require.Len(t, out, 1)

	row := out["X"]
	assert.Equal(t, "City of X", row.DisplayName)
	assert.Equal(t, 200.0, row.Metrics["exp"])
	assert.Equal(t, 50.0, row.Metrics["pop"])
}

func TestAggregate_MissingDenominatorExcluded(t *testing.T) {
	n := NewNormalizer(nil)

	rows := []Row{
		{Name: "Alpine", Metrics: map[string]float64{"exp": 100}},
		{Name: "Alpine", Metrics: map[string]float64{"pop": Missing(), "exp": 50}},
	}
	spec := AggregateSpec{
		Reducers:          map[string]Reducer{"exp": ReduceSum},
		DenominatorColumn: "pop",
	}

	assert.Empty(t, n.Aggregate(rows, spec))
}

func TestAggregate_MissingValuesNeverBecomeZero(t *testing.T) {
	n := NewNormalizer(nil)

	rows := []Row{
		{Name: "Indigo", Metrics: map[string]float64{"rate": Missing()}},
		{Name: "Indigo", Metrics: map[string]float64{"rate": 8}},
		{Name: "Towong", Metrics: map[string]float64{}},
	}
	spec := AggregateSpec{
		Reducers: map[string]Reducer{"rate": ReduceMean},
	}

	out := n.Aggregate(rows, spec)
	require.Len(t, out, 2)

	// Missing values are excluded from the reduction, not coerced to zero:
	// the mean is over the single valid value.
	assert.Equal(t, 8.0, out["INDIGO"].Metrics["rate"])
	// A group with no valid values yields the missing marker, not zero.
	assert.True(t, IsMissing(out["TOWONG"].Metrics["rate"]))
}

func TestAggregate_DerivedRatio(t *testing.T) {
	n := NewNormalizer(nil)

	spec := AggregateSpec{
		Reducers: map[string]Reducer{
			"exp":      ReduceSum,
			"adults":   ReduceSum,
			"egm_rate": ReduceMean,
		},
		Ratios: []RatioSpec{
			{Name: "exp_per_egm", Numerator: "exp", Denominator: []string{"adults", "egm_rate"}, Scale: 0.001},
		},
	}

	rows := []Row{
		{Name: "Hume", Metrics: map[string]float64{"exp": 3000, "adults": 1000, "egm_rate": 5}},
	}

	out := n.Aggregate(rows, spec)
	require.Len(t, out, 1)

	// 3000 expenditure over 1000 * 5 / 1000 = 5 machines.
	assert.InDelta(t, 600.0, out["HUME"].Metrics["exp_per_egm"], 1e-9)
}

func TestAggregate_RatioMissingOrZeroDenominator(t *testing.T) {
	n := NewNormalizer(nil)

	spec := AggregateSpec{
		Reducers: map[string]Reducer{"exp": ReduceSum, "venues": ReduceSum},
		Ratios: []RatioSpec{
			{Name: "exp_per_venue", Numerator: "exp", Denominator: []string{"venues"}},
		},
	}

	t.Run("zero denominator", func(t *testing.T) {
		rows := []Row{{Name: "Buloke", Metrics: map[string]float64{"exp": 100, "venues": 0}}}
		out := n.Aggregate(rows, spec)
		assert.True(t, IsMissing(out["BULOKE"].Metrics["exp_per_venue"]))
	})

	t.Run("missing denominator", func(t *testing.T) {
		rows := []Row{{Name: "Buloke", Metrics: map[string]float64{"exp": 100}}}
		out := n.Aggregate(rows, spec)
		assert.True(t, IsMissing(out["BULOKE"].Metrics["exp_per_venue"]))
	})

	t.Run("missing numerator", func(t *testing.T) {
		rows := []Row{{Name: "Buloke", Metrics: map[string]float64{"venues": 3}}}
		out := n.Aggregate(rows, spec)
		assert.True(t, IsMissing(out["BULOKE"].Metrics["exp_per_venue"]))
	})
}

func TestAggregate_EmptyInput(t *testing.T) {
	n := NewNormalizer(nil)

	spec := AggregateSpec{Reducers: map[string]Reducer{"exp": ReduceSum}}

	assert.Empty(t, n.Aggregate(nil, spec))
	assert.Empty(t, n.Aggregate([]Row{}, spec))
	// Rows whose names normalize to nothing are dropped, not grouped under "".
	assert.Empty(t, n.Aggregate([]Row{{Name: "---", Metrics: map[string]float64{"exp": 1}}}, spec))
}

func TestAggregate_OneRowPerKey(t *testing.T) {
	n := NewNormalizer(nil)

	rows := []Row{
		{Name: "City of Whittlesea", Metrics: map[string]float64{"exp": 1}},
		{Name: "WHITTLESEA (CITY)", Metrics: map[string]float64{"exp": 2}},
		{Name: "whittlesea", Metrics: map[string]float64{"exp": 4}},
	}
	spec := AggregateSpec{Reducers: map[string]Reducer{"exp": ReduceSum}}

	out := n.Aggregate(rows, spec)
	require.Len(t, out, 1)
	assert.Equal(t, 7.0, out["WHITTLESEA"].Metrics["exp"])
}
