package domain

import (
	"time"

	"github.com/google/uuid"
)

// CandidateRecord is the flat view of one eligible repertoire item.
// Records reaching the queue logic are already filtered for deleted items and memberships.
type CandidateRecord struct {
	TuneRef string

	// Scheduled is a manual override placing the item into consideration.
	Scheduled *time.Time

	// LatestDue is the most recent computed due date from practice history.
	LatestDue *time.Time
}

// Coalesced returns Scheduled when present, otherwise LatestDue.
func (c CandidateRecord) Coalesced() *time.Time {
	if c.Scheduled != nil {
		return c.Scheduled
	}
	return c.LatestDue
}

// CandidateQuery scopes a bucket read to one learner and repertoire.
type CandidateQuery struct {
	UserRef       uuid.UUID
	RepertoireRef uuid.UUID
	Windows       SchedulingWindows

	// Limit caps the number of records returned. Non-positive limits return nothing.
	Limit int
}
