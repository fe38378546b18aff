package entity

import (
	"errors"
	"time"
)

// ReportStatus is the lifecycle state of a hazard report.
type ReportStatus string

const (
	StatusNew        ReportStatus = "New"
	StatusInProgress ReportStatus = "InProgress"
	StatusResolved   ReportStatus = "Resolved"
)

func (s ReportStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// Urgency is the reporter's assessment of the hazard.
type Urgency string

const (
	UrgencyLow      Urgency = "Low"
	UrgencyModerate Urgency = "Moderate"
	UrgencyHigh     Urgency = "High"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyModerate, UrgencyHigh:
		return true
	}
	return false
}

// Anonymous is the reporter reference for submissions without a session.
const Anonymous = "anonymous"

const (
	DescriptionMinLen = 10
	DescriptionMaxLen = 500
)

var ErrInvalidTransition = errors.New("invalid status transition")

// reportTransitions lists the permitted moves out of each state.
// Nothing leads back to New and Resolved is terminal.
var reportTransitions = map[ReportStatus]map[ReportStatus]bool{
	StatusNew:        {StatusInProgress: true, StatusResolved: true},
	StatusInProgress: {StatusResolved: true},
	StatusResolved:   {},
}

// CanTransition reports whether a report in from may move to to.
// Staying in the same state is always allowed.
func CanTransition(from, to ReportStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	return reportTransitions[from][to]
}

// AllowedSources returns every state from which to may be entered, to itself included.
// Stores use it to make the status update a single conditional write.
func AllowedSources(to ReportStatus) []ReportStatus {
	if !to.Valid() {
		return nil
	}
	out := []ReportStatus{to}
	for _, from := range []ReportStatus{StatusNew, StatusInProgress, StatusResolved} {
		if from != to && reportTransitions[from][to] {
			out = append(out, from)
		}
	}
	return out
}

// Report is a single hazard submission.
// ResolvedAt is set iff Status is Resolved.
type Report struct {
	ID          string       `json:"id"`
	Description string       `json:"description"`
	Urgency     Urgency      `json:"urgency"`
	Latitude    float64      `json:"latitude"`
	Longitude   float64      `json:"longitude"`
	ImageURL    string       `json:"imageUrl,omitempty"`
	Status      ReportStatus `json:"status"`
	ReportedBy  string       `json:"reportedBy"`
	AssignedTo  string       `json:"assignedTo,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	ResolvedAt  *time.Time   `json:"resolvedAt"`
}

// ApplyStatus moves the report to the target state at now.
// updatedAt is refreshed even when the status does not change.
// It is the reference for the conditional UPDATE in the postgres ReportRepository,
// which must produce the same status, assignedTo, resolvedAt and updatedAt.
func (r *Report) ApplyStatus(to ReportStatus, actor string, now time.Time) error {
	if !CanTransition(r.Status, to) {
		return ErrInvalidTransition
	}
	if to == StatusResolved && r.Status != StatusResolved {
		t := now
		r.ResolvedAt = &t
	}
	if to != StatusResolved {
		r.ResolvedAt = nil
	}
	if r.AssignedTo == "" && r.Status == StatusNew && to != StatusNew {
		r.AssignedTo = actor
	}
	r.Status = to
	if now.After(r.UpdatedAt) {
		r.UpdatedAt = now
	}
	return nil
}
