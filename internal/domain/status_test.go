package domain_test

import (
	"testing"

	"github.com/goliatone/go-sitetree/internal/domain"
)

func TestCanTransitionLifecycleEdges(t *testing.T) {
	cases := []struct {
		from    domain.Status
		to      domain.Status
		allowed bool
	}{
		{domain.StatusDraft, domain.StatusPendingReview, true},
		{domain.StatusDraft, domain.StatusPublished, true},
		{domain.StatusDraft, domain.StatusScheduled, true},
		{domain.StatusPendingReview, domain.StatusPublished, true},
		{domain.StatusPendingReview, domain.StatusScheduled, true},
		{domain.StatusScheduled, domain.StatusDraft, true},
		{domain.StatusScheduled, domain.StatusPublished, true},
		{domain.StatusPublished, domain.StatusArchived, true},
		{domain.StatusPublished, domain.StatusDraft, true},
		{domain.StatusArchived, domain.StatusDraft, true},

		{domain.StatusScheduled, domain.StatusPendingReview, false},
		{domain.StatusArchived, domain.StatusPublished, false},
		{domain.StatusPendingReview, domain.StatusArchived, false},
		{domain.StatusPublished, domain.StatusScheduled, false},
	}

	for _, tc := range cases {
		if got := domain.CanTransition(tc.from, tc.to); got != tc.allowed {
			t.Fatalf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestCanTransitionRejectsUnknownStates(t *testing.T) {
	if domain.CanTransition("bogus", domain.StatusPublished) {
		t.Fatal("expected unknown source state to be rejected")
	}
	if domain.CanTransition(domain.StatusDraft, "bogus") {
		t.Fatal("expected unknown target state to be rejected")
	}
}

func TestNormalizeStatus(t *testing.T) {
	if got := domain.NormalizeStatus("  Published "); got != domain.StatusPublished {
		t.Fatalf("expected published, got %s", got)
	}
	if got := domain.NormalizeStatus(""); got != domain.StatusDraft {
		t.Fatalf("expected draft default, got %s", got)
	}
}
