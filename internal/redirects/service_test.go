package redirects_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-sitetree/internal/redirects"
)

var testLocale = uuid.MustParse("11111111-1111-1111-1111-111111111111")

func newService() redirects.Service {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return redirects.NewService(redirects.NewMemoryRepository(),
		redirects.WithClock(func() time.Time { return now }),
	)
}

func TestUpsertValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cases := []struct {
		name string
		req  redirects.UpsertRequest
		want error
	}{
		{"missing locale", redirects.UpsertRequest{FromPath: "/a", ToPath: "/b"}, redirects.ErrLocaleRequired},
		{"missing from", redirects.UpsertRequest{LocaleID: testLocale, ToPath: "/b"}, redirects.ErrPathRequired},
		{"missing to", redirects.UpsertRequest{LocaleID: testLocale, FromPath: "/a"}, redirects.ErrPathRequired},
		{"self redirect", redirects.UpsertRequest{LocaleID: testLocale, FromPath: "/a/", ToPath: "/a"}, redirects.ErrSelfRedirect},
		{"bad status", redirects.UpsertRequest{LocaleID: testLocale, FromPath: "/a", ToPath: "/b", StatusCode: 404}, redirects.ErrStatusCode},
	}
	for _, tc := range cases {
		if _, err := svc.Upsert(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestUpsertAcceptsRedirectCodes(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	for _, code := range []int{301, 302, 307, 308} {
		stored, err := svc.Upsert(ctx, redirects.UpsertRequest{
			LocaleID:   testLocale,
			FromPath:   "/old",
			ToPath:     "/new",
			StatusCode: code,
		})
		if err != nil {
			t.Fatalf("status %d: %v", code, err)
		}
		if stored.StatusCode != code {
			t.Fatalf("status %d: stored %d", code, stored.StatusCode)
		}
	}
}

func TestUpsertDefaultsAndReplaces(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	first, err := svc.Upsert(ctx, redirects.UpsertRequest{LocaleID: testLocale, FromPath: "/old", ToPath: "/new"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if first.StatusCode != redirects.DefaultStatusCode {
		t.Fatalf("expected default status code, got %d", first.StatusCode)
	}

	second, err := svc.Upsert(ctx, redirects.UpsertRequest{LocaleID: testLocale, FromPath: "/old", ToPath: "/newer", StatusCode: 302})
	if err != nil {
		t.Fatalf("re-upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected stable identity for a source path, got %s and %s", first.ID, second.ID)
	}
	if second.ToPath != "/newer" || second.StatusCode != 302 {
		t.Fatalf("expected replacement, got %+v", second)
	}

	all, err := svc.List(ctx, testLocale)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one redirect per source path, got %d", len(all))
	}
}

func TestLookupIgnoresInactive(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Upsert(ctx, redirects.UpsertRequest{LocaleID: testLocale, FromPath: "/old", ToPath: "/new"}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	found, err := svc.Lookup(ctx, testLocale, "/old/")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if found.ToPath != "/new" {
		t.Fatalf("expected /new, got %s", found.ToPath)
	}

	if err := svc.Deactivate(ctx, testLocale, "/old", uuid.Nil); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Lookup(ctx, testLocale, "/old"); !errors.Is(err, redirects.ErrRedirectNotFound) {
		t.Fatalf("expected ErrRedirectNotFound after deactivation, got %v", err)
	}
}

func TestRecordPathChangesCollapsesChains(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	pageID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	// /a -> /b, then the page moves again /b -> /c
	if err := svc.RecordPathChanges(ctx, testLocale, []redirects.Change{
		{PageID: pageID, OldPath: "/a", NewPath: "/b"},
	}, uuid.Nil); err != nil {
		t.Fatalf("first move: %v", err)
	}
	if err := svc.RecordPathChanges(ctx, testLocale, []redirects.Change{
		{PageID: pageID, OldPath: "/b", NewPath: "/c"},
	}, uuid.Nil); err != nil {
		t.Fatalf("second move: %v", err)
	}

	// the old inbound redirect points at the final destination, no chain
	first, err := svc.Lookup(ctx, testLocale, "/a")
	if err != nil {
		t.Fatalf("lookup /a: %v", err)
	}
	if first.ToPath != "/c" {
		t.Fatalf("expected /a to collapse onto /c, got %s", first.ToPath)
	}
	second, err := svc.Lookup(ctx, testLocale, "/b")
	if err != nil {
		t.Fatalf("lookup /b: %v", err)
	}
	if second.ToPath != "/c" {
		t.Fatalf("expected /b -> /c, got %s", second.ToPath)
	}
}

func TestRecordPathChangesDeactivatesRoundTrips(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	pageID := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	if err := svc.RecordPathChanges(ctx, testLocale, []redirects.Change{
		{PageID: pageID, OldPath: "/a", NewPath: "/b"},
	}, uuid.Nil); err != nil {
		t.Fatalf("move there: %v", err)
	}
	if err := svc.RecordPathChanges(ctx, testLocale, []redirects.Change{
		{PageID: pageID, OldPath: "/b", NewPath: "/a"},
	}, uuid.Nil); err != nil {
		t.Fatalf("move back: %v", err)
	}

	// /a hosts a live page again, its stale redirect must be off
	if _, err := svc.Lookup(ctx, testLocale, "/a"); !errors.Is(err, redirects.ErrRedirectNotFound) {
		t.Fatalf("expected squatter deactivated, got %v", err)
	}
	back, err := svc.Lookup(ctx, testLocale, "/b")
	if err != nil {
		t.Fatalf("lookup /b: %v", err)
	}
	if back.ToPath != "/a" {
		t.Fatalf("expected /b -> /a, got %s", back.ToPath)
	}
}

func TestRecordPathChangesIgnoresNoOps(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if err := svc.RecordPathChanges(ctx, testLocale, []redirects.Change{
		{OldPath: "/same", NewPath: "/same/"},
	}, uuid.Nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	all, err := svc.List(ctx, testLocale)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no redirects for identical paths, got %d", len(all))
	}
}
