// internal/employee/employee.go
//
// The canonical onboarding record. Everything the API boundary sends is
// normalized through FromRaw before it reaches the roster cache, so the rest
// of the program never has to reason about missing or oddly-typed fields.

package employee

import (
	"strings"
	"time"
)

// Employee is one onboarding roster record. The zero value is a valid,
// maximally-defaulted record.
type Employee struct {
	ID         string
	Name       string
	Position   string
	Department string

	// StartDate is kept as the raw ISO-8601 date string; invalid values are
	// a display concern, not a parse failure.
	StartDate string

	// Status is the raw free-text label as the server sent it. Classify
	// maps it to a Category for filtering and badge styling.
	Status string

	EquipmentNeeds       []string
	SystemAccess         []string
	TrainingRequirements []string
	HRNotes              []string
	ITNotes              []string

	// CreatedAt and UpdatedAt are zero when absent or unparsable.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Category returns the canonical status class for this record.
func (e Employee) Category() Category {
	return Classify(e.Status)
}

// FromRaw normalizes one raw, untyped API object into an Employee. It is
// total: malformed input yields a defaulted record, never an error, so the
// mutation coordinator stays usable under payload drift.
func FromRaw(raw map[string]any) Employee {
	return Employee{
		ID:                   rawString(raw, "id"),
		Name:                 rawString(raw, "name"),
		Position:             rawString(raw, "position"),
		Department:           rawString(raw, "department"),
		StartDate:            rawString(raw, "startDate"),
		Status:               rawString(raw, "status"),
		EquipmentNeeds:       rawList(raw, "equipmentNeeds"),
		SystemAccess:         rawList(raw, "systemAccess"),
		TrainingRequirements: rawList(raw, "trainingRequirements"),
		HRNotes:              rawList(raw, "hrNotes"),
		ITNotes:              rawList(raw, "itNotes"),
		CreatedAt:            rawTime(raw, "created_at"),
		UpdatedAt:            rawTime(raw, "updated_at"),
	}
}

// timestampLayouts covers the shapes the boundary has been seen to emit:
// RFC3339 with or without fractional seconds, the original server's naive
// isoformat without a zone, and bare calendar dates.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp parses a boundary timestamp leniently. The second return
// is false when the value is blank or matches no known layout.
func ParseTimestamp(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func rawString(raw map[string]any, key string) string {
	if raw == nil {
		return ""
	}
	if value, ok := raw[key].(string); ok {
		return value
	}
	return ""
}

// rawList coerces a raw sequence field to []string, dropping entries that
// are null, non-string, or blank so no view renders an empty row.
func rawList(raw map[string]any, key string) []string {
	if raw == nil {
		return nil
	}
	entries, ok := raw[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		s, ok := entry.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func rawTime(raw map[string]any, key string) time.Time {
	ts, ok := ParseTimestamp(rawString(raw, key))
	if !ok {
		return time.Time{}
	}
	return ts
}
