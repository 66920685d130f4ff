package roster

import (
	"testing"
	"time"

	"github.com/kingrea/onboard/internal/employee"
)

func TestFullListingSortsBlankNamesLast(t *testing.T) {
	records := []employee.Employee{
		{ID: "1", Name: "Bob"},
		{ID: "2"},
		{ID: "3", Name: "Ann"},
	}
	got := FullListing(records)
	wantIDs := []string{"3", "1", "2"}
	for i, want := range wantIDs {
		if got[i].ID != want {
			t.Fatalf("position %d = %s, want %s (order %v)", i, got[i].ID, want, got)
		}
	}
	// input order untouched
	if records[0].ID != "1" {
		t.Fatalf("FullListing must not mutate its input")
	}
}

func TestFullListingStableAmongEqualNames(t *testing.T) {
	records := []employee.Employee{
		{ID: "a", Name: "Sam"},
		{ID: "b"},
		{ID: "c", Name: "Sam"},
		{ID: "d", Name: "   "},
	}
	got := FullListing(records)
	if got[0].ID != "a" || got[1].ID != "c" {
		t.Fatalf("equal names must keep relative order, got %v", got)
	}
	if got[2].ID != "b" || got[3].ID != "d" {
		t.Fatalf("blank names must keep relative order at the end, got %v", got)
	}
}

func TestPendingListingTracksClassification(t *testing.T) {
	records := []employee.Employee{
		{ID: "1", Name: "Ann", Status: "Completed"},
		{ID: "2", Name: "Bob", Status: "pending"},
		{ID: "3", Name: "Cid", Status: "In Progress"},
		{ID: "4", Name: "Dee", Status: ""},
		{ID: "5", Name: "Eli", Status: "failed"},
		{ID: "6", Name: "Fay", Status: "who knows"},
	}
	got := PendingListing(records)
	wantIDs := map[string]bool{"2": true, "3": true, "4": true}
	if len(got) != len(wantIDs) {
		t.Fatalf("pending size = %d, want %d (%v)", len(got), len(wantIDs), got)
	}
	for _, rec := range got {
		if !wantIDs[rec.ID] {
			t.Fatalf("record %s should not be pending", rec.ID)
		}
		if rec.Category() == employee.CategoryCompleted {
			t.Fatalf("completed record leaked into pending view: %+v", rec)
		}
	}
}

func TestRecentFirstOrdersByCreation(t *testing.T) {
	now := time.Now()
	records := []employee.Employee{
		{ID: "old", CreatedAt: now.Add(-48 * time.Hour)},
		{ID: "none"},
		{ID: "new", CreatedAt: now.Add(-time.Hour)},
	}
	got := RecentFirst(records)
	if got[0].ID != "new" || got[1].ID != "old" || got[2].ID != "none" {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestSummarize(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	records := []employee.Employee{
		{ID: "1", Department: "Engineering", Status: "Completed", CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: "2", Department: "engineering ", Status: "pending", CreatedAt: now.Add(-10 * 24 * time.Hour)},
		{ID: "3", Department: "  ", Status: "complete"},
		{ID: "4", Status: "In Progress", CreatedAt: now.Add(24 * time.Hour)}, // future-dated
	}
	stats := Summarize(records, now)
	if stats.Total != 4 {
		t.Fatalf("Total = %d, want 4", stats.Total)
	}
	// "Engineering" and "engineering " are distinct values once trimmed;
	// blank is excluded.
	if stats.Departments != 2 {
		t.Fatalf("Departments = %d, want 2", stats.Departments)
	}
	if stats.Recent != 1 {
		t.Fatalf("Recent = %d, want 1 (10d-old, missing and future excluded)", stats.Recent)
	}
	if stats.Completed != 2 {
		t.Fatalf("Completed = %d, want 2", stats.Completed)
	}
}

func TestSummarizeRecentWindowBounds(t *testing.T) {
	now := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	within := employee.Employee{ID: "a", CreatedAt: now.Add(-RecentWindow)}
	outside := employee.Employee{ID: "b", CreatedAt: now.Add(-RecentWindow - time.Second)}
	stats := Summarize([]employee.Employee{within, outside}, now)
	if stats.Recent != 1 {
		t.Fatalf("window must be inclusive at -7d: Recent = %d", stats.Recent)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	stats := Summarize(nil, time.Now())
	if stats != (Stats{}) {
		t.Fatalf("empty snapshot should yield zero stats, got %+v", stats)
	}
}
