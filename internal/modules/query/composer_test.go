package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInSet_RendersPlaceholdersPerValue(t *testing.T) {
	frag, args := Render(InSet("region", []string{"North", "South"}))

	assert.Equal(t, "region IN (?,?)", frag)
	assert.Equal(t, []interface{}{"North", "South"}, args)
}

func TestInSet_EmptyValuesIsNeutral(t *testing.T) {
	frag, args := Render(InSet("region", nil))

	assert.Empty(t, frag)
	assert.Nil(t, args)
}

func TestAnd_SkipsNeutralMembers(t *testing.T) {
	cond := And(
		Raw("status = ?", "open"),
		InSet("region", nil),
		nil,
	)

	frag, args := Render(cond)
	assert.Equal(t, "status = ?", frag)
	assert.Equal(t, []interface{}{"open"}, args)
}

func TestWhere_NeutralConditionHasNoClause(t *testing.T) {
	clause, args := Where(And())

	assert.Empty(t, clause)
	assert.Nil(t, args)
}

func TestSnapshotValid_Predicate(t *testing.T) {
	frag, args := Render(SnapshotValid(10, "tf"))

	assert.Equal(t,
		"tf.valid_from_snapshot_id <= ? AND (tf.valid_to_snapshot_id IS NULL OR tf.valid_to_snapshot_id > ?)",
		frag)
	assert.Equal(t, []interface{}{int64(10), int64(10)}, args)
}

func TestBuildWhere_EmptyFacetMatchesAbsentFacet(t *testing.T) {
	absent := FilterSpec{Regions: []string{"North"}}
	present := FilterSpec{Regions: []string{"North"}, Services: []string{}}

	fragAbsent, argsAbsent := Render(BuildWhere(absent))
	fragPresent, argsPresent := Render(BuildWhere(present))

	assert.Equal(t, fragAbsent, fragPresent)
	assert.Equal(t, argsAbsent, argsPresent)
}

func TestBuildWhere_FacetOrderIsDeterministic(t *testing.T) {
	filters := FilterSpec{
		WorkTypes: []string{"repair"},
		Services:  []string{"facilities"},
		Regions:   []string{"North"},
	}

	frag, args := Render(BuildWhere(filters))

	assert.Equal(t, "(service IN (?) AND region IN (?) AND work_type IN (?))", frag)
	assert.Equal(t, []interface{}{"facilities", "North", "repair"}, args)
}

func TestBuildWhere_BaseConditionsComeFirst(t *testing.T) {
	filters := FilterSpec{Regions: []string{"North"}}

	frag, args := Render(BuildWhere(filters, SnapshotValid(3, ""), Raw("status = ?", "open")))

	assert.Equal(t,
		"(valid_from_snapshot_id <= ? AND (valid_to_snapshot_id IS NULL OR valid_to_snapshot_id > ?) AND status = ? AND region IN (?))",
		frag)
	assert.Equal(t, []interface{}{int64(3), int64(3), "open", "North"}, args)
}

func TestBuildWhere_DateBounds(t *testing.T) {
	filters := FilterSpec{
		CompletedFrom: "2026-01-01",
		CompletedTo:   "2026-01-31",
	}

	frag, args := Render(BuildWhere(filters))

	assert.Equal(t, "(completed_date >= ? AND completed_date <= ?)", frag)
	assert.Equal(t, []interface{}{"2026-01-01", "2026-01-31"}, args)
}

func TestBuildWhere_NothingAppliesIsNeutral(t *testing.T) {
	frag, args := Render(BuildWhere(FilterSpec{}))

	assert.Empty(t, frag)
	assert.Nil(t, args)
}

func TestNormalizeValues_TrimsDedupesPreservesCase(t *testing.T) {
	out := NormalizeValues([]string{" North ", "North", "", "south", "South"})

	assert.Equal(t, []string{"North", "south", "South"}, out)
}

func TestCoerceValues_DropsNonStrings(t *testing.T) {
	out := CoerceValues([]interface{}{"North", 42, nil, " South ", true})

	assert.Equal(t, []string{"North", "South"}, out)
}

func TestCoerceValues_AllMalformedDegradesToNoRestriction(t *testing.T) {
	out := CoerceValues([]interface{}{1, 2.5, false})

	assert.Nil(t, out)

	// And composing with the degraded facet is the same as omitting it
	frag, _ := Render(BuildWhere(FilterSpec{Services: out}))
	assert.Empty(t, frag)
}
