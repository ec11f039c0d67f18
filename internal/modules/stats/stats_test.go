package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribe_PopulationStdDev(t *testing.T) {
	d := Describe([]float64{2, 4})

	// Population form divides by N: sqrt(((2-3)^2+(4-3)^2)/2) = 1,
	// not the sample ~1.414
	assert.InDelta(t, 1.0, d.StdDev, 1e-9)
	assert.InDelta(t, 3.0, d.Mean, 1e-9)
}

func TestDescribe_EmptySampleYieldsZeros(t *testing.T) {
	d := Describe(nil)

	assert.Zero(t, d.Mean)
	assert.Zero(t, d.Lower)
	assert.Zero(t, d.Upper)
	assert.Zero(t, d.StdDev)
}

func TestDescribe_FloorIndexPercentiles(t *testing.T) {
	// 8 values sorted: floor(8*0.25)=2, floor(8*0.75)=6
	sample := []float64{80, 10, 30, 20, 70, 40, 60, 50}

	d := Describe(sample)

	assert.Equal(t, 30.0, d.Lower)
	assert.Equal(t, 70.0, d.Upper)
}

func TestDescribe_SingleValue(t *testing.T) {
	d := Describe([]float64{42})

	assert.Equal(t, 42.0, d.Mean)
	assert.Equal(t, 42.0, d.Lower)
	assert.Equal(t, 42.0, d.Upper)
	assert.Zero(t, d.StdDev)
}

func TestMean_EmptySample(t *testing.T) {
	assert.Zero(t, Mean(nil))
}

func TestRollingAverage_ShrinkingLeadingWindow(t *testing.T) {
	out := RollingAverage([]float64{3, 1, 2}, 2)

	require.Len(t, out, 3)
	assert.InDelta(t, 3.0, out[0], 1e-9)
	assert.InDelta(t, 2.0, out[1], 1e-9)
	assert.InDelta(t, 1.5, out[2], 1e-9)
}

func TestRollingAverage_WindowLargerThanInput(t *testing.T) {
	out := RollingAverage([]float64{4, 6}, 10)

	assert.Equal(t, []float64{4, 5}, out)
}

func TestRollingAverage_EmptyInput(t *testing.T) {
	assert.Empty(t, RollingAverage(nil, 3))
}

func TestTimeline_GroupsAndSortsByDate(t *testing.T) {
	points := Timeline([]TimelineEntry{
		{DateKey: "2026-01-03", Within: true},
		{DateKey: "2026-01-01", Within: false},
		{DateKey: "2026-01-03", Within: false},
		{DateKey: "2026-01-03", Within: true},
	})

	require.Len(t, points, 2)
	assert.Equal(t, TimelinePoint{DateKey: "2026-01-01", Total: 1, Within: 0, Beyond: 1}, points[0])
	assert.Equal(t, TimelinePoint{DateKey: "2026-01-03", Total: 3, Within: 2, Beyond: 1}, points[1])
}

func TestTimeline_DoesNotSynthesizeMissingDates(t *testing.T) {
	points := Timeline([]TimelineEntry{
		{DateKey: "2026-01-01", Within: true},
		{DateKey: "2026-01-05", Within: true},
	})

	require.Len(t, points, 2)
	assert.Equal(t, "2026-01-01", points[0].DateKey)
	assert.Equal(t, "2026-01-05", points[1].DateKey)
}

func TestRollupByName_DefaultsBlankLabels(t *testing.T) {
	out := RollupByName([]string{"Inspection", "", "Inspection"}, UnknownTaskLabel)

	require.Len(t, out, 2)
	assert.Equal(t, NameCount{Name: "Inspection", Total: 2}, out[0])
	assert.Equal(t, NameCount{Name: "Unknown task", Total: 1}, out[1])
}

func TestSortByTotalThenName_DescTotalAscName(t *testing.T) {
	items := []NameCount{
		{Name: "B", Total: 2},
		{Name: "A", Total: 2},
		{Name: "C", Total: 3},
	}

	SortByTotalThenName(items)

	var names []string
	for _, it := range items {
		names = append(names, it.Name)
	}
	assert.Equal(t, []string{"C", "A", "B"}, names)
}

func TestMergeAverage_WeightsByCount(t *testing.T) {
	// (9+1)/(1+3) = 2.5, distinct from mean-of-means (9 + 1/3)/2
	avg := MergeAverage([]Partial{
		{Sum: 9, Count: 1},
		{Sum: 1, Count: 3},
	})

	assert.InDelta(t, 2.5, avg, 1e-9)
}

func TestMergeAverage_ZeroCountYieldsZero(t *testing.T) {
	assert.Zero(t, MergeAverage(nil))
	assert.Zero(t, MergeAverage([]Partial{{Sum: 0, Count: 0}}))
}
