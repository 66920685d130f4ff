// internal/tui/views.go
//
// Read-only screens: the dashboard, the record detail view, and the stats
// sidebar. Status badges get one color per category so a scan of the list
// shows where the roster stands.

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/onboard/internal/employee"
)

var badgeStyles = map[employee.Category]lipgloss.Style{
	employee.CategoryNew:        lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")),
	employee.CategoryPending:    lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD447")),
	employee.CategoryInProgress: lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB454")),
	employee.CategoryCompleted:  lipgloss.NewStyle().Foreground(lipgloss.Color("#4AD28A")),
	employee.CategoryFailed:     lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	employee.CategoryUnknown:    lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
}

// statusBadge renders a colored fixed-width label for a status category.
func statusBadge(cat employee.Category) string {
	style, ok := badgeStyles[cat]
	if !ok {
		style = badgeStyles[employee.CategoryUnknown]
	}
	return style.Render(fmt.Sprintf("[%-11s]", badgeLabel(cat)))
}

func badgeLabel(cat employee.Category) string {
	switch cat {
	case employee.CategoryNew:
		return "new"
	case employee.CategoryPending:
		return "pending"
	case employee.CategoryInProgress:
		return "in progress"
	case employee.CategoryCompleted:
		return "completed"
	case employee.CategoryFailed:
		return "failed"
	}
	return "unknown"
}

func (a *App) renderDashboard(width int) string {
	stats := a.ctrl.Stats()
	title := lipgloss.NewStyle().Bold(true).Render("Dashboard")
	summary := fmt.Sprintf(
		"%d employee(s) · %d department(s) · %d hired this week · %d completed",
		stats.Total, stats.Departments, stats.Recent, stats.Completed,
	)

	lines := []string{title, summary, ""}
	recent := a.ctrl.RecentFirst()
	if len(recent) == 0 {
		lines = append(lines, "No employees yet. Press n to add the first one.")
	} else {
		lines = append(lines, lipgloss.NewStyle().Bold(true).Render("Latest hires"))
		limit := 8
		if len(recent) < limit {
			limit = len(recent)
		}
		for _, rec := range recent[:limit] {
			row := fmt.Sprintf("%s %s", statusBadge(rec.Category()), rec.Name)
			if rec.Department != "" {
				row += " · " + rec.Department
			}
			if !rec.CreatedAt.IsZero() {
				row += " · added " + rec.CreatedAt.Format("2006-01-02")
			}
			lines = append(lines, row)
		}
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func (a *App) renderDetail(width int) string {
	rec, ok := a.ctrl.Get(a.detailID)
	if !ok {
		return "This record is no longer on the roster."
	}

	title := lipgloss.NewStyle().Bold(true).Render(rec.Name)
	lines := []string{
		fmt.Sprintf("%s %s", statusBadge(rec.Category()), title),
		"",
		detailRow("Position", rec.Position),
		detailRow("Department", rec.Department),
		detailRow("Start date", rec.StartDate),
		detailRow("Status", rec.Status),
	}
	lines = append(lines, detailList("Equipment", rec.EquipmentNeeds)...)
	lines = append(lines, detailList("System access", rec.SystemAccess)...)
	lines = append(lines, detailList("Training", rec.TrainingRequirements)...)
	lines = append(lines, detailList("HR notes", rec.HRNotes)...)
	lines = append(lines, detailList("IT notes", rec.ITNotes)...)
	lines = append(lines, "")
	lines = append(lines, detailRow("Added", formatTimestamp(rec.CreatedAt)))
	lines = append(lines, detailRow("Updated", formatTimestamp(rec.UpdatedAt)))

	if a.ctrl.InFlight(rec.ID) {
		lines = append(lines, "", lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFB454")).
			Render("⟳ change in flight..."))
	}
	return lipgloss.NewStyle().Width(max(20, width)).Render(strings.Join(lines, "\n"))
}

func detailRow(label, value string) string {
	if strings.TrimSpace(value) == "" {
		value = "—"
	}
	head := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render(fmt.Sprintf("%-14s", label))
	return head + value
}

func detailList(label string, values []string) []string {
	if len(values) == 0 {
		return nil
	}
	lines := []string{detailRow(label, values[0])}
	indent := strings.Repeat(" ", 14)
	for _, value := range values[1:] {
		lines = append(lines, indent+value)
	}
	return lines
}

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format("2006-01-02 15:04")
}

func (a *App) renderStatsPanel() string {
	stats := a.ctrl.Stats()
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render("Roster")
	rows := []string{
		title,
		fmt.Sprintf("Total       %d", stats.Total),
		fmt.Sprintf("Departments %d", stats.Departments),
		fmt.Sprintf("This week   %d", stats.Recent),
		fmt.Sprintf("Completed   %d", stats.Completed),
	}
	pending := a.ctrl.PendingListing()
	rows = append(rows, "", lipgloss.NewStyle().Bold(true).Render(fmt.Sprintf("Pending (%d)", len(pending))))
	limit := 6
	if len(pending) < limit {
		limit = len(pending)
	}
	for _, rec := range pending[:limit] {
		rows = append(rows, fmt.Sprintf("%s %s", statusBadge(rec.Category()), rec.Name))
	}
	if len(pending) > limit {
		rows = append(rows, fmt.Sprintf("… and %d more", len(pending)-limit))
	}
	if a.ctrl.SessionExpired() {
		rows = append(rows, "", lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Render("⚠ session expired"))
	}
	return strings.Join(rows, "\n")
}
