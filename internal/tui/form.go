// internal/tui/form.go
//
// Login and employee forms. Both are plain textinput stacks; Tab cycles
// focus, Enter submits, Esc abandons.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/onboard/internal/api"
	"github.com/kingrea/onboard/internal/employee"
)

type loginForm struct {
	username textinput.Model
	password textinput.Model
	focus    int
	errMsg   string
}

func newLoginForm() loginForm {
	username := textinput.New()
	username.Placeholder = "username"
	username.CharLimit = 64
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.CharLimit = 128
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	return loginForm{username: username, password: password}
}

func (f *loginForm) cycleFocus() {
	f.focus = (f.focus + 1) % 2
	if f.focus == 0 {
		f.username.Focus()
		f.password.Blur()
	} else {
		f.username.Blur()
		f.password.Focus()
	}
}

func (a *App) updateLoginForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "shift+tab", "down", "up":
		a.loginForm.cycleFocus()
		return a, nil
	case "enter":
		return a.submitLogin()
	}
	var cmd tea.Cmd
	if a.loginForm.focus == 0 {
		a.loginForm.username, cmd = a.loginForm.username.Update(msg)
	} else {
		a.loginForm.password, cmd = a.loginForm.password.Update(msg)
	}
	return a, cmd
}

func (a *App) submitLogin() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	username := strings.TrimSpace(a.loginForm.username.Value())
	password := a.loginForm.password.Value()
	if username == "" || password == "" {
		a.loginForm.errMsg = "Username and password are required"
		return a, nil
	}
	a.loginForm.errMsg = ""
	a.busy = true
	a.statusMsg = "Logging in..."
	return a, func() tea.Msg {
		if err := a.auth.Login(context.Background(), username, password); err != nil {
			return loginResultMsg{err: err}
		}
		return loginResultMsg{username: username}
	}
}

func (a *App) renderLogin() string {
	title := lipgloss.NewStyle().Bold(true).Render("Sign in")
	lines := []string{
		title,
		"",
		"Username: " + a.loginForm.username.View(),
		"Password: " + a.loginForm.password.View(),
	}
	if a.loginForm.errMsg != "" {
		lines = append(lines, "", lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Render("⚠ "+a.loginForm.errMsg))
	}
	lines = append(lines, "", lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		Render("Tab → next field · Enter → sign in · Ctrl+C → quit"))
	return strings.Join(lines, "\n")
}

// recordForm edits the four client-validated fields. Everything else on a
// record is server-owned.
type recordForm struct {
	fields  []textinput.Model
	labels  []string
	focus   int
	editID  string
	errMsg  string
	editing bool
}

func newRecordForm(rec employee.Employee, editing bool) recordForm {
	labels := []string{"Name", "Position", "Department", "Start date"}
	values := []string{rec.Name, rec.Position, rec.Department, rec.StartDate}
	placeholders := []string{"Jane Doe", "Software Engineer", "Engineering", "2026-09-01"}

	fields := make([]textinput.Model, len(labels))
	for i := range fields {
		input := textinput.New()
		input.Placeholder = placeholders[i]
		input.CharLimit = 120
		input.SetValue(values[i])
		fields[i] = input
	}
	fields[0].Focus()

	return recordForm{
		fields:  fields,
		labels:  labels,
		editID:  rec.ID,
		editing: editing,
	}
}

func (f *recordForm) cycleFocus(step int) {
	f.fields[f.focus].Blur()
	f.focus = (f.focus + step + len(f.fields)) % len(f.fields)
	f.fields[f.focus].Focus()
}

func (f *recordForm) input() api.EmployeeInput {
	return api.EmployeeInput{
		Name:       strings.TrimSpace(f.fields[0].Value()),
		Position:   strings.TrimSpace(f.fields[1].Value()),
		Department: strings.TrimSpace(f.fields[2].Value()),
		StartDate:  strings.TrimSpace(f.fields[3].Value()),
	}
}

func (a *App) openCreateForm() (tea.Model, tea.Cmd) {
	if a.ctrl.SessionExpired() {
		a.statusMsg = "Session expired · press L to log in again"
		return a, nil
	}
	a.prevState = a.state
	a.recordForm = newRecordForm(employee.Employee{}, false)
	a.state = stateForm
	a.statusMsg = "New employee"
	return a, nil
}

func (a *App) openEditForm(rec employee.Employee) (tea.Model, tea.Cmd) {
	if a.ctrl.SessionExpired() {
		a.statusMsg = "Session expired · press L to log in again"
		return a, nil
	}
	if a.state != stateForm {
		a.prevState = a.state
	}
	a.recordForm = newRecordForm(rec, true)
	a.ctrl.Select(rec.ID)
	a.state = stateForm
	a.statusMsg = "Editing " + rec.Name
	return a, nil
}

func (a *App) updateRecordForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.state = a.prevState
		a.statusMsg = "Cancelled"
		return a, nil
	case "tab", "down":
		a.recordForm.cycleFocus(1)
		return a, nil
	case "shift+tab", "up":
		a.recordForm.cycleFocus(-1)
		return a, nil
	case "enter":
		return a.submitRecordForm()
	}
	var cmd tea.Cmd
	a.recordForm.fields[a.recordForm.focus], cmd = a.recordForm.fields[a.recordForm.focus].Update(msg)
	return a, cmd
}

func (a *App) submitRecordForm() (tea.Model, tea.Cmd) {
	if a.busy {
		return a, nil
	}
	input := a.recordForm.input()
	if msg := validateInput(input); msg != "" {
		a.recordForm.errMsg = msg
		return a, nil
	}
	a.recordForm.errMsg = ""
	a.busy = true
	if a.recordForm.editing {
		id := a.recordForm.editID
		a.statusMsg = "Saving changes..."
		return a, func() tea.Msg {
			rec, err := a.ctrl.Update(context.Background(), id, input)
			return mutationDoneMsg{op: "updated", record: rec, err: err}
		}
	}
	a.statusMsg = "Creating employee..."
	return a, func() tea.Msg {
		rec, err := a.ctrl.Create(context.Background(), input)
		return mutationDoneMsg{op: "created", record: rec, err: err}
	}
}

// validateInput mirrors the coordinator's checks so the form can point at
// the first offending field before any request is attempted.
func validateInput(input api.EmployeeInput) string {
	switch {
	case input.Name == "":
		return "Name is required"
	case input.Position == "":
		return "Position is required"
	case input.Department == "":
		return "Department is required"
	case input.StartDate == "":
		return "Start date is required"
	}
	if _, ok := employee.ParseTimestamp(input.StartDate); !ok {
		return "Start date must be a date like 2026-09-01"
	}
	return ""
}

func (a *App) renderForm() string {
	title := "New Employee"
	if a.recordForm.editing {
		title = "Edit Employee"
	}
	lines := []string{lipgloss.NewStyle().Bold(true).Render(title), ""}
	for i, field := range a.recordForm.fields {
		label := fmt.Sprintf("%-11s", a.recordForm.labels[i]+":")
		lines = append(lines, label+" "+field.View())
	}
	if a.recordForm.errMsg != "" {
		lines = append(lines, "", lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Render("⚠ "+a.recordForm.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderConfirm() string {
	var question string
	switch a.confirm {
	case confirmDelete:
		question = fmt.Sprintf("Delete %s from the roster?", a.confirmName)
	case confirmComplete:
		question = fmt.Sprintf("Mark onboarding complete for %s?", a.confirmName)
	default:
		question = "Nothing to confirm"
	}
	warn := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFB454")).Render(question)
	hint := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("y → confirm    n → cancel")
	return lipgloss.JoinVertical(lipgloss.Left, warn, "", hint)
}
