package employee

import "strings"

// Category is the canonical status class a raw status label maps to. The
// five page controllers this replaces each carried their own copy of this
// mapping; Classify is the single source of truth for filtering and badges.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryNew
	CategoryPending
	CategoryInProgress
	CategoryCompleted
	CategoryFailed
)

// Classify maps a raw status label to its Category. It is total and pure:
// case-insensitive, whitespace-trimmed, synonym-aware, and it never fails.
// Callers that care about unrecognized labels log them at the point a record
// enters the cache.
func Classify(raw string) Category {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return CategoryNew
	case "completed", "complete":
		return CategoryCompleted
	case "in progress", "inprogress", "in-progress", "onboarding":
		return CategoryInProgress
	case "pending", "new", "waiting":
		return CategoryPending
	case "error", "failed":
		return CategoryFailed
	default:
		return CategoryUnknown
	}
}

// PendingOnboarding reports whether records in this category belong to the
// pending-onboarding view.
func (c Category) PendingOnboarding() bool {
	switch c {
	case CategoryNew, CategoryPending, CategoryInProgress:
		return true
	}
	return false
}

func (c Category) String() string {
	switch c {
	case CategoryNew:
		return "New"
	case CategoryPending:
		return "Pending"
	case CategoryInProgress:
		return "In Progress"
	case CategoryCompleted:
		return "Completed"
	case CategoryFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}
