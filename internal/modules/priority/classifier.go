// Package priority derives the four-level priority bucket from a task's raw
// numeric priority and its due date. Buckets are never stored, always
// recomputed, and the in-process rule and the SQL encoding must never
// diverge.
package priority

import (
	"time"

	"github.com/atheril/caseflow/internal/modules/query"
)

// Bucket is the derived priority level
type Bucket string

const (
	Urgent  Bucket = "Urgent"
	High    Bucket = "High"
	Medium  Bucket = "Medium"
	Low     Bucket = "Low"
	Unknown Bucket = "Unknown"
)

// Raw priority thresholds. 5000 is the only value whose bucket depends on
// the due date.
const (
	urgentMax   = 2000
	highMax     = 5000
	dueBoundary = 5000
)

// Classify evaluates the bucket rule in order, first match wins:
//
//  1. value <= 2000                     Urgent
//  2. value <  5000                     High
//  3. value == 5000, due before ref     High
//  4. value == 5000, due on ref         Medium
//  5. otherwise                         Low
//
// Due and reference dates compare as calendar dates in loc; time of day never
// affects the bucket.
func Classify(value int64, due, ref time.Time, loc *time.Location) Bucket {
	switch {
	case value <= urgentMax:
		return Urgent
	case value < highMax:
		return High
	case value == dueBoundary:
		d := dateOnly(due, loc)
		r := dateOnly(ref, loc)
		if d.Before(r) {
			return High
		}
		if d.Equal(r) {
			return Medium
		}
		return Low
	default:
		return Low
	}
}

// Rank maps buckets to a stable numeric sort order, Urgent=4 down to Low=1.
// Unknown buckets rank 0 so they sort last.
func Rank(b Bucket) int {
	switch b {
	case Urgent:
		return 4
	case High:
		return 3
	case Medium:
		return 2
	case Low:
		return 1
	default:
		return 0
	}
}

// RankCase emits the SQL encoding of the same rule as a CASE expression over
// the given priority and due-date columns, yielding the numeric rank. The
// reference date is a bound parameter (YYYY-MM-DD), so the expression stays
// fully parameterised. NULL priorities fall through to rank 0 (sorted last).
func RankCase(priorityCol, dueCol string, ref time.Time, loc *time.Location) query.Condition {
	refDate := dateOnly(ref, loc).Format("2006-01-02")
	return query.Raw(
		"CASE"+
			" WHEN "+priorityCol+" IS NULL THEN 0"+
			" WHEN "+priorityCol+" <= 2000 THEN 4"+
			" WHEN "+priorityCol+" < 5000 THEN 3"+
			" WHEN "+priorityCol+" = 5000 AND date("+dueCol+") < date(?) THEN 3"+
			" WHEN "+priorityCol+" = 5000 AND date("+dueCol+") = date(?) THEN 2"+
			" ELSE 1"+
			" END",
		refDate, refDate,
	)
}

// FromRank is the inverse of Rank, for decoding server-side bucketing
func FromRank(rank int) Bucket {
	switch rank {
	case 4:
		return Urgent
	case 3:
		return High
	case 2:
		return Medium
	case 1:
		return Low
	default:
		return Unknown
	}
}

func dateOnly(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
