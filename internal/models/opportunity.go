package models

import (
	"time"
)

// OpportunityType enumerates the three listing variants LaunchPad serves.
type OpportunityType string

const (
	TypeHackathon  OpportunityType = "hackathon"
	TypeInternship OpportunityType = "internship"
	TypeContest    OpportunityType = "contest"
)

// Valid reports whether t is one of the three known variants. Live-source
// payloads are cast without validation, so callers that care must check.
func (t OpportunityType) Valid() bool {
	switch t {
	case TypeHackathon, TypeInternship, TypeContest:
		return true
	}
	return false
}

// Opportunity is the common shape every source normalizes into.
//
// IDs are only unique within a single aggregation result: live sources
// re-synthesize them per fetch (e.g. "codeforces-3"), while database-backed
// records carry their stable UUID. Deadline is semantically overloaded
// upstream: for contests it is usually the start time, for hackathons and
// internships an application cutoff.
type Opportunity struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Type         OpportunityType `json:"type"`
	Organization string          `json:"organization"`
	Description  string          `json:"description"`
	Deadline     time.Time       `json:"deadline"`
	ApplyURL     string          `json:"applyUrl"`
	Location     string          `json:"location,omitempty"`
	Prize        string          `json:"prize,omitempty"`
	Tags         []string        `json:"tags"`
	Source       string          `json:"source"`
}
