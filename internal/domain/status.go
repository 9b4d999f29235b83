package domain

import "strings"

// Status represents publication lifecycle states for tree entities.
type Status string

const (
	// StatusDraft indicates content still under preparation
	StatusDraft Status = "draft"
	// StatusPendingReview marks content waiting for editorial approval
	StatusPendingReview Status = "pending_review"
	// StatusScheduled marks content that has a future publish time configured
	StatusScheduled Status = "scheduled"
	// StatusPublished identifies content available to consumers
	StatusPublished Status = "published"
	// StatusArchived marks content that is retained for history but not publicly visible
	StatusArchived Status = "archived"
)

// transitions lists the legal lifecycle edges. Anything absent is rejected.
var transitions = map[Status][]Status{
	StatusDraft:         {StatusPendingReview, StatusScheduled, StatusPublished, StatusArchived},
	StatusPendingReview: {StatusDraft, StatusScheduled, StatusPublished},
	StatusScheduled:     {StatusDraft, StatusPublished},
	StatusPublished:     {StatusDraft, StatusArchived},
	StatusArchived:      {StatusDraft},
}

// NormalizeStatus coerces arbitrary status strings into a known value,
// defaulting to draft for blank input.
func NormalizeStatus(input string) Status {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	if trimmed == "" {
		return StatusDraft
	}
	return Status(trimmed)
}

// IsValidStatus reports whether the value is one of the lifecycle states.
func IsValidStatus(status Status) bool {
	switch status {
	case StatusDraft, StatusPendingReview, StatusScheduled, StatusPublished, StatusArchived:
		return true
	default:
		return false
	}
}

// CanTransition reports whether the edge from -> to is part of the lifecycle.
// Self transitions are treated as no-ops and allowed.
func CanTransition(from, to Status) bool {
	if !IsValidStatus(from) || !IsValidStatus(to) {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing edges besides restore.
func Terminal(status Status) bool {
	return status == StatusArchived
}
