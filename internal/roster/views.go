// internal/roster/views.go
//
// View projections. Every listing and statistic is recomputed from a record
// snapshot on demand; nothing here is incrementally maintained, which is
// what keeps the full and pending views from drifting apart.

package roster

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kingrea/onboard/internal/employee"
)

// RecentWindow is how far back a record's creation may lie to count as
// "recent" on the dashboard.
const RecentWindow = 7 * 24 * time.Hour

// nameCollator gives locale-aware, case-sensitive name ordering.
var nameCollator = collate.New(language.Und)

// Stats are the dashboard aggregates. They are always derived from the
// current records; no counter is stored that could go stale.
type Stats struct {
	Total       int
	Departments int
	Recent      int
	Completed   int
}

// FullListing returns all records sorted by name ascending. Records with a
// blank name sort last; order is stable among equal or blank names.
func FullListing(records []employee.Employee) []employee.Employee {
	out := append([]employee.Employee(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := strings.TrimSpace(out[i].Name), strings.TrimSpace(out[j].Name)
		if a == "" || b == "" {
			return a != "" && b == ""
		}
		return nameCollator.CompareString(a, b) < 0
	})
	return out
}

// PendingListing returns the subset still pending onboarding, under the same
// sort rule as FullListing.
func PendingListing(records []employee.Employee) []employee.Employee {
	subset := make([]employee.Employee, 0, len(records))
	for _, rec := range records {
		if rec.Category().PendingOnboarding() {
			subset = append(subset, rec)
		}
	}
	return FullListing(subset)
}

// RecentFirst returns the records ordered newest creation first, as the
// dashboard table shows them. Records without a parsable creation time sort
// last; order is stable otherwise.
func RecentFirst(records []employee.Employee) []employee.Employee {
	out := append([]employee.Employee(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.After(b)
	})
	return out
}

// Summarize derives the dashboard stats from a record snapshot. A malformed
// record degrades only its own contribution: a blank department is not
// counted, an unparsable creation time is never recent.
func Summarize(records []employee.Employee, now time.Time) Stats {
	stats := Stats{Total: len(records)}
	departments := map[string]struct{}{}
	cutoff := now.Add(-RecentWindow)
	for _, rec := range records {
		if dept := strings.TrimSpace(rec.Department); dept != "" {
			departments[dept] = struct{}{}
		}
		if !rec.CreatedAt.IsZero() && !rec.CreatedAt.Before(cutoff) && !rec.CreatedAt.After(now) {
			stats.Recent++
		}
		if rec.Category() == employee.CategoryCompleted {
			stats.Completed++
		}
	}
	stats.Departments = len(departments)
	return stats
}
