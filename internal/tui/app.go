// internal/tui/app.go
//
// This is the main TUI for the onboarding console.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/onboard/internal/api"
	"github.com/kingrea/onboard/internal/config"
	"github.com/kingrea/onboard/internal/controller"
	"github.com/kingrea/onboard/internal/employee"
	"github.com/kingrea/onboard/internal/logbook"
)

// appState represents which "screen" we're on
type appState int

const (
	stateLogin     appState = iota // Username/password prompt
	stateDashboard                 // Stats plus the most recent hires
	stateRoster                    // Full roster listing
	statePending                   // Records still moving through onboarding
	stateDetail                    // One record, every field
	stateForm                      // Create or edit form
	stateConfirm                   // Destructive action confirmation
)

// confirmAction is what Enter commits on the confirmation screen.
type confirmAction int

const (
	confirmNone confirmAction = iota
	confirmDelete
	confirmComplete
)

// Authenticator is the slice of the API client the login flow needs.
type Authenticator interface {
	CheckAuth(ctx context.Context) (string, error)
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithAuthenticator overrides the login boundary.
func WithAuthenticator(auth Authenticator) AppOption {
	return func(a *App) {
		if auth != nil {
			a.auth = auth
		}
	}
}

// WithGateway overrides the mutation boundary the coordinator talks to.
func WithGateway(gw controller.Gateway) AppOption {
	return func(a *App) {
		if gw != nil {
			a.gateway = gw
		}
	}
}

// Messages produced by commands. Each load-shaped message carries the
// roster generation it was issued under so superseded responses can be
// dropped instead of clobbering newer state.

type authCheckedMsg struct {
	username string
	err      error
}

type loginResultMsg struct {
	username string
	err      error
}

type logoutDoneMsg struct{ err error }

type rosterLoadedMsg struct {
	generation uint64
	err        error
}

type mutationDoneMsg struct {
	op     string
	record employee.Employee
	err    error
}

// App is the main application model. In bubbletea, this holds ALL your state.
type App struct {
	state     appState
	prevState appState
	config    *config.Config
	auth      Authenticator
	gateway   controller.Gateway
	ctrl      *controller.Controller
	logbook   *logbook.Logbook

	// UI components
	rosterList  list.Model
	pendingList list.Model
	spinner     spinner.Model
	loginForm   loginForm
	recordForm  recordForm

	username    string
	statusMsg   string
	busy        bool
	detailID    string
	confirm     confirmAction
	confirmID   string
	confirmName string

	// Window size (we get this from bubbletea)
	width  int
	height int
}

// employeeItem implements list.Item for roster rows.
type employeeItem struct {
	rec employee.Employee
}

func (i employeeItem) Title() string {
	name := i.rec.Name
	if strings.TrimSpace(name) == "" {
		name = "(unnamed)"
	}
	return fmt.Sprintf("%s %s", statusBadge(i.rec.Category()), name)
}

func (i employeeItem) Description() string {
	parts := []string{}
	if i.rec.Position != "" {
		parts = append(parts, i.rec.Position)
	}
	if i.rec.Department != "" {
		parts = append(parts, i.rec.Department)
	}
	if i.rec.StartDate != "" {
		parts = append(parts, "starts "+i.rec.StartDate)
	}
	if len(parts) == 0 {
		return i.rec.Status
	}
	return strings.Join(parts, " · ")
}

func (i employeeItem) FilterValue() string { return i.rec.Name }

// NewApp wires the console together from configuration.
func NewApp(cfg *config.Config, opts ...AppOption) (*App, error) {
	lb, err := logbook.New(cfg.LogPath())
	if err != nil {
		return nil, err
	}
	if cfg.Console.Debug {
		lb = lb.WithDebug(true)
	}
	lb.Info("Session opened · API %s", cfg.BaseURL())

	client := api.NewClient(cfg.BaseURL(), cfg.Timeout(), api.WithLogbook(lb))

	rosterList := newRecordList("All Employees")
	pendingList := newRecordList("Pending Onboarding")
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	app := &App{
		state:       stateLogin,
		config:      cfg,
		auth:        client,
		gateway:     client,
		logbook:     lb,
		rosterList:  rosterList,
		pendingList: pendingList,
		spinner:     sp,
		loginForm:   newLoginForm(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(app)
		}
	}
	app.ctrl = controller.New(app.gateway, controller.WithLogbook(lb))
	return app, nil
}

func newRecordList(title string) list.Model {
	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = title
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	return l
}

func (a *App) logInfo(format string, args ...any) {
	a.logbook.Info(format, args...)
}

func (a *App) logError(format string, args ...any) {
	a.logbook.Error(format, args...)
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, a.checkAuth())
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.rosterList.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		a.pendingList.SetSize(max(0, msg.Width-6), max(0, msg.Height-12))
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case authCheckedMsg:
		return a.handleAuthChecked(msg)

	case loginResultMsg:
		return a.handleLoginResult(msg)

	case logoutDoneMsg:
		a.busy = false
		a.username = ""
		a.ctrl.ResetSession()
		a.loginForm = newLoginForm()
		a.state = stateLogin
		a.statusMsg = "Logged out"
		a.logInfo("Logged out")
		return a, nil

	case rosterLoadedMsg:
		return a.handleRosterLoaded(msg)

	case mutationDoneMsg:
		return a.handleMutationDone(msg)

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a.updateActiveComponent(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch a.state {
	case stateLogin:
		return a.updateLoginForm(msg)
	case stateForm:
		return a.updateRecordForm(msg)
	case stateConfirm:
		return a.handleConfirmKey(msg)
	}

	// Keys below apply to the browsing screens. When a list is filtering,
	// every keystroke belongs to the filter.
	if a.state == stateRoster && a.rosterList.FilterState() == list.Filtering {
		return a.updateActiveComponent(msg)
	}
	if a.state == statePending && a.pendingList.FilterState() == list.Filtering {
		return a.updateActiveComponent(msg)
	}

	switch msg.String() {
	case "q":
		if a.state == stateDashboard {
			return a, tea.Quit
		}
	case "esc":
		switch a.state {
		case stateDetail:
			a.ctrl.ClearSelection()
			a.state = a.prevState
			return a, nil
		case stateRoster, statePending:
			a.state = stateDashboard
			return a, nil
		}
	case "1", "d":
		a.state = stateDashboard
		return a, nil
	case "2", "a":
		a.state = stateRoster
		a.syncLists()
		return a, nil
	case "3", "p":
		a.state = statePending
		a.syncLists()
		return a, nil
	case "r":
		if a.busy {
			return a, nil
		}
		return a, a.loadRoster("Refreshing roster...")
	case "n":
		if a.state != stateDetail {
			return a.openCreateForm()
		}
	case "e":
		if rec, ok := a.focusedRecord(); ok {
			return a.openEditForm(rec)
		}
	case "x":
		if rec, ok := a.focusedRecord(); ok {
			return a.openConfirm(confirmDelete, rec)
		}
	case "c":
		if rec, ok := a.focusedRecord(); ok {
			if rec.Category() == employee.CategoryCompleted {
				a.statusMsg = fmt.Sprintf("%s is already completed", rec.Name)
				return a, nil
			}
			return a.openConfirm(confirmComplete, rec)
		}
	case "L":
		return a.startLogout()
	case "enter":
		if a.state == stateRoster || a.state == statePending {
			if rec, ok := a.focusedRecord(); ok {
				a.prevState = a.state
				a.detailID = rec.ID
				a.ctrl.Select(rec.ID)
				a.state = stateDetail
				return a, nil
			}
		}
	}

	return a.updateActiveComponent(msg)
}

func (a *App) updateActiveComponent(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.state {
	case stateRoster:
		a.rosterList, cmd = a.rosterList.Update(msg)
	case statePending:
		a.pendingList, cmd = a.pendingList.Update(msg)
	}
	return a, cmd
}

// focusedRecord resolves the record the current screen is pointing at.
func (a *App) focusedRecord() (employee.Employee, bool) {
	switch a.state {
	case stateDetail:
		return a.ctrl.Get(a.detailID)
	case stateRoster:
		if item, ok := a.rosterList.SelectedItem().(employeeItem); ok {
			return item.rec, true
		}
	case statePending:
		if item, ok := a.pendingList.SelectedItem().(employeeItem); ok {
			return item.rec, true
		}
	}
	return employee.Employee{}, false
}

func (a *App) handleAuthChecked(msg authCheckedMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		if errors.Is(msg.err, api.ErrAuthExpired) {
			a.state = stateLogin
			a.statusMsg = "Please log in"
			return a, nil
		}
		a.state = stateLogin
		a.statusMsg = describeError(msg.err)
		a.logError("Auth check failed: %v", msg.err)
		return a, nil
	}
	a.username = msg.username
	a.state = stateDashboard
	a.logInfo("Session valid for %s", msg.username)
	return a, a.loadRoster("Loading roster...")
}

func (a *App) handleLoginResult(msg loginResultMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		a.loginForm.errMsg = describeError(msg.err)
		a.logError("Login failed: %v", msg.err)
		return a, nil
	}
	a.username = msg.username
	a.ctrl.ResetSession()
	a.state = stateDashboard
	a.statusMsg = fmt.Sprintf("Welcome, %s", msg.username)
	a.logInfo("Logged in as %s", msg.username)
	return a, a.loadRoster("Loading roster...")
}

func (a *App) handleRosterLoaded(msg rosterLoadedMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if errors.Is(msg.err, api.ErrAuthExpired) {
		return a.redirectToLogin()
	}
	// A newer load superseded this one; the coordinator already dropped
	// its snapshot, so its outcome is not worth reporting either.
	if a.ctrl.Superseded(msg.generation) {
		return a, nil
	}
	if msg.err != nil {
		a.statusMsg = describeError(msg.err)
		return a, nil
	}
	a.syncLists()
	stats := a.ctrl.Stats()
	a.statusMsg = fmt.Sprintf("Roster loaded · %d employee(s)", stats.Total)
	return a, nil
}

func (a *App) handleMutationDone(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	a.busy = false
	if msg.err != nil {
		a.logError("%s failed: %v", msg.op, msg.err)
		if errors.Is(msg.err, api.ErrAuthExpired) {
			return a.redirectToLogin()
		}
		a.statusMsg = describeError(msg.err)
		return a, nil
	}
	a.syncLists()
	switch msg.op {
	case "delete":
		a.statusMsg = "Employee deleted"
		if a.state == stateDetail || a.state == stateConfirm {
			a.state = a.prevState
		}
	default:
		a.statusMsg = fmt.Sprintf("%s: %s", titleCase(msg.op), msg.record.Name)
		if a.state == stateForm || a.state == stateConfirm {
			if msg.record.ID != "" {
				a.detailID = msg.record.ID
				a.ctrl.Select(msg.record.ID)
				a.state = stateDetail
			} else {
				a.state = a.prevState
			}
		}
	}
	return a, nil
}

// redirectToLogin returns the user to the login screen after the boundary
// rejects the session mid-flight. The coordinator latch stays set until a
// fresh login clears it through handleLoginResult.
func (a *App) redirectToLogin() (tea.Model, tea.Cmd) {
	a.loginForm = newLoginForm()
	a.state = stateLogin
	a.statusMsg = "Session expired · please log in again"
	return a, nil
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "enter":
		action := a.confirm
		a.confirm = confirmNone
		switch action {
		case confirmDelete:
			return a, a.deleteRecord(a.confirmID)
		case confirmComplete:
			return a, a.completeRecord(a.confirmID)
		}
		a.state = a.prevState
		return a, nil
	case "n", "esc":
		a.confirm = confirmNone
		a.state = a.prevState
		a.statusMsg = "Cancelled"
		return a, nil
	}
	return a, nil
}

func (a *App) openConfirm(action confirmAction, rec employee.Employee) (tea.Model, tea.Cmd) {
	if a.ctrl.SessionExpired() {
		a.statusMsg = "Session expired · press L to log in again"
		return a, nil
	}
	if a.state != stateConfirm {
		a.prevState = a.state
	}
	a.confirm = action
	a.confirmID = rec.ID
	a.confirmName = rec.Name
	a.ctrl.Select(rec.ID)
	a.state = stateConfirm
	return a, nil
}

func (a *App) startLogout() (tea.Model, tea.Cmd) {
	if a.state == stateLogin || a.busy {
		return a, nil
	}
	a.busy = true
	a.statusMsg = "Logging out..."
	return a, func() tea.Msg {
		err := a.auth.Logout(context.Background())
		return logoutDoneMsg{err: err}
	}
}

// Commands. Each runs one boundary call off the UI loop.

func (a *App) checkAuth() tea.Cmd {
	a.busy = true
	return func() tea.Msg {
		username, err := a.auth.CheckAuth(context.Background())
		return authCheckedMsg{username: username, err: err}
	}
}

func (a *App) loadRoster(status string) tea.Cmd {
	a.busy = true
	a.statusMsg = status
	return func() tea.Msg {
		generation, err := a.ctrl.LoadRoster(context.Background())
		return rosterLoadedMsg{generation: generation, err: err}
	}
}

func (a *App) deleteRecord(id string) tea.Cmd {
	a.busy = true
	a.statusMsg = "Deleting..."
	a.ctrl.Select(id)
	return func() tea.Msg {
		err := a.ctrl.Delete(context.Background())
		return mutationDoneMsg{op: "delete", err: err}
	}
}

func (a *App) completeRecord(id string) tea.Cmd {
	a.busy = true
	a.statusMsg = "Completing onboarding..."
	return func() tea.Msg {
		rec, err := a.ctrl.CompleteOnboarding(context.Background(), id)
		return mutationDoneMsg{op: "completed onboarding", record: rec, err: err}
	}
}

// syncLists rebuilds both list models from the coordinator's views.
func (a *App) syncLists() {
	a.rosterList.SetItems(buildItems(a.ctrl.FullListing()))
	a.pendingList.SetItems(buildItems(a.ctrl.PendingListing()))
}

func buildItems(records []employee.Employee) []list.Item {
	items := make([]list.Item, len(records))
	for i, rec := range records {
		items[i] = employeeItem{rec: rec}
	}
	return items
}

// describeError renders boundary failures the way the user should see
// them: server messages verbatim, transport failures as a retry hint.
func describeError(err error) string {
	var validationErr *controller.ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Message
	}
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return apiErr.Error()
	}
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return "Cannot reach the server. Check your connection and press r to retry."
	}
	if errors.Is(err, controller.ErrMutationInFlight) {
		return "That record already has a change in flight"
	}
	if errors.Is(err, api.ErrAuthExpired) {
		return "Session expired · press L to log in again"
	}
	return err.Error()
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(30, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	var content string
	switch a.state {
	case stateLogin:
		content = a.renderLogin()
	case stateDashboard:
		content = a.renderDashboard(leftWidth - 4)
	case stateRoster:
		content = a.rosterList.View()
	case statePending:
		content = a.pendingList.View()
	case stateDetail:
		content = a.renderDetail(leftWidth - 4)
	case stateForm:
		content = a.renderForm()
	case stateConfirm:
		content = a.renderConfirm()
	}
	return a.renderFrame(content, leftWidth, rightWidth)
}

func (a *App) renderFrame(content string, leftWidth, rightWidth int) string {
	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		MarginBottom(1).
		Render("⬡ ONBOARD" + a.headerSuffix())
	leftBox := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Width(max(20, leftWidth)).
		Render(content)
	var body string
	if rightWidth > 0 && a.state != stateLogin {
		rightBox := lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1).
			Width(max(20, rightWidth)).
			Render(a.renderStatsPanel())
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	} else {
		body = leftBox
	}
	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	sections = append(sections, a.renderFooter())
	return strings.Join(sections, "\n")
}

func (a *App) headerSuffix() string {
	if a.username == "" {
		return ""
	}
	suffix := " · " + a.username
	if a.ctrl.SessionExpired() {
		suffix += " (session expired)"
	}
	return suffix
}

func (a *App) renderFooter() string {
	status := a.statusMsg
	if a.busy {
		status = a.spinner.View() + " " + status
	}
	hints := keyHints(a.state)
	if hints != "" {
		if status != "" {
			status += "\n"
		}
		status += lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).Render(hints)
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888888")).
		MarginTop(1).
		Render(status)
}

func keyHints(state appState) string {
	switch state {
	case stateDashboard:
		return "2 roster · 3 pending · n new · r refresh · L logout · q quit"
	case stateRoster, statePending:
		return "enter details · n new · e edit · c complete · x delete · / filter · esc back"
	case stateDetail:
		return "e edit · c complete · x delete · esc back"
	case stateForm:
		return "tab next field · enter submit · esc cancel"
	case stateConfirm:
		return "y confirm · n cancel"
	}
	return ""
}

func (a *App) renderLogPanel() string {
	lines := a.logbook.Tail(6)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s", fileName))
	body := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(strings.Join(lines, "\n"))
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, body))
}

func titleCase(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	lower := strings.ToLower(value)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run starts the TUI event loop and blocks until the user exits.
func Run(cfg *config.Config) error {
	app, err := NewApp(cfg)
	if err != nil {
		return err
	}
	program := tea.NewProgram(app, tea.WithAltScreen())
	_, err = program.Run()
	return err
}
