// Package domain provides core domain models and types.
package domain

import "time"

// Snapshot identifies one point-in-time extraction of the source system.
// Snapshot ids increase monotonically; exactly one snapshot is published
// (current) at any moment, older ones remain queryable by id.
type Snapshot struct {
	ID          int64      `json:"id"`
	AsOfDate    string     `json:"as_of_date"` // YYYY-MM-DD
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Published   bool       `json:"published"`
}

// TaskFact is one version of a task row in the warehouse. A version is
// visible as of snapshot S iff
// ValidFromSnapshotID <= S and (ValidToSnapshotID is nil or > S).
// Versions of the same TaskKey never have overlapping validity intervals.
type TaskFact struct {
	FactID              int64
	TaskKey             string
	TaskName            string
	Service             string
	RoleCategory        string
	Region              string
	Location            string
	WorkType            string
	CaseWorker          string
	Status              string
	Priority            *int64
	DueDate             *time.Time
	CreatedDate         *time.Time
	CompletedDate       *time.Time
	HandlingMinutes     *float64
	ValidFromSnapshotID int64
	ValidToSnapshotID   *int64
}

// Region is a reference dimension row
type Region struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Venue is a reference dimension row (a physical work location)
type Venue struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	RegionCode  string `json:"region_code"`
}
