package tui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/onboard/internal/api"
	"github.com/kingrea/onboard/internal/config"
	"github.com/kingrea/onboard/internal/employee"
)

func TestLoginFlowReachesDashboard(t *testing.T) {
	app := newTestApp(t, &fakeAuth{username: "admin"}, &fakeGateway{
		records: []employee.Employee{{ID: "1", Name: "Ana", Status: "Pending"}},
	})

	app.loginForm.username.SetValue("admin")
	app.loginForm.password.SetValue("secret")
	model, cmd := app.submitLogin()
	app = runCommands(t, model, cmd)

	if app.state != stateDashboard {
		t.Fatalf("state = %d after login, want dashboard", app.state)
	}
	if app.username != "admin" {
		t.Errorf("username = %q", app.username)
	}
	if got := app.ctrl.Stats().Total; got != 1 {
		t.Errorf("roster not loaded after login: total = %d", got)
	}
}

func TestFailedLoginStaysOnForm(t *testing.T) {
	app := newTestApp(t, &fakeAuth{loginErr: &api.APIError{StatusCode: 401, Message: "invalid credentials"}}, &fakeGateway{})

	app.loginForm.username.SetValue("admin")
	app.loginForm.password.SetValue("wrong")
	model, cmd := app.submitLogin()
	app = runCommands(t, model, cmd)

	if app.state != stateLogin {
		t.Fatalf("state = %d after rejected login, want login", app.state)
	}
	if !strings.Contains(app.loginForm.errMsg, "invalid credentials") {
		t.Errorf("errMsg = %q, server message should surface verbatim", app.loginForm.errMsg)
	}
}

func TestStaleRosterLoadDiscarded(t *testing.T) {
	gw := &fakeGateway{records: []employee.Employee{{ID: "1", Name: "Ana"}}}
	app := newTestApp(t, &fakeAuth{username: "admin"}, gw)
	app.state = stateDashboard

	first, err := app.ctrl.LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	gw.records = append(gw.records, employee.Employee{ID: "2", Name: "Bo"})
	if _, err := app.ctrl.LoadRoster(context.Background()); err != nil {
		t.Fatalf("LoadRoster: %v", err)
	}
	app.syncLists()
	app.statusMsg = ""

	// The first load's completion arrives after the second already applied.
	model, _ := app.Update(rosterLoadedMsg{generation: first, err: fmt.Errorf("connection reset")})
	app = model.(*App)
	if app.statusMsg != "" {
		t.Errorf("stale load changed status to %q, want discard", app.statusMsg)
	}
	if got := app.ctrl.Stats().Total; got != 2 {
		t.Errorf("total = %d, newer snapshot must survive", got)
	}
}

func TestCreateFromFormSelectsNewRecord(t *testing.T) {
	app := newTestApp(t, &fakeAuth{username: "admin"}, &fakeGateway{})
	app.state = stateRoster

	model, cmd := app.openCreateForm()
	app = runCommands(t, model, cmd)
	if app.state != stateForm {
		t.Fatalf("state = %d, want form", app.state)
	}

	app.recordForm.fields[0].SetValue("Maya Chen")
	app.recordForm.fields[1].SetValue("Designer")
	app.recordForm.fields[2].SetValue("Design")
	app.recordForm.fields[3].SetValue("2026-10-01")
	model, cmd = app.submitRecordForm()
	app = runCommands(t, model, cmd)

	if app.state != stateDetail {
		t.Fatalf("state = %d after create, want detail", app.state)
	}
	rec, ok := app.ctrl.Get(app.detailID)
	if !ok || rec.Name != "Maya Chen" {
		t.Fatalf("created record not in cache: %+v ok=%v", rec, ok)
	}
}

func TestFormValidationBlocksSubmit(t *testing.T) {
	gw := &fakeGateway{}
	app := newTestApp(t, &fakeAuth{username: "admin"}, gw)
	app.state = stateRoster
	model, cmd := app.openCreateForm()
	app = runCommands(t, model, cmd)

	app.recordForm.fields[0].SetValue("Maya Chen")
	app.recordForm.fields[3].SetValue("soon")
	model, cmd = app.submitRecordForm()
	app = runCommands(t, model, cmd)

	if app.state != stateForm {
		t.Fatalf("state = %d, invalid form must stay open", app.state)
	}
	if app.recordForm.errMsg == "" {
		t.Error("errMsg should name the offending field")
	}
	if gw.createCalls != 0 {
		t.Errorf("createCalls = %d, no request may be attempted", gw.createCalls)
	}
}

func TestSessionExpiryBlocksFormsUntilRelogin(t *testing.T) {
	gw := &fakeGateway{listErr: api.ErrAuthExpired}
	app := newTestApp(t, &fakeAuth{username: "admin"}, gw)
	app.state = stateDashboard

	model, cmd := app.Update(app.loadRoster("")())
	app = runCommands(t, model, cmd)
	if !app.ctrl.SessionExpired() {
		t.Fatal("controller should latch session expiry")
	}

	model, _ = app.openCreateForm()
	app = model.(*App)
	if app.state == stateForm {
		t.Fatal("expired session must not open the create form")
	}
	if !strings.Contains(app.statusMsg, "expired") {
		t.Errorf("statusMsg = %q, should direct the user to log in", app.statusMsg)
	}
}

func TestAuthExpiryDuringMutationRedirectsToLogin(t *testing.T) {
	app := newTestApp(t, &fakeAuth{username: "admin"}, &fakeGateway{})
	app.state = stateDetail
	app.prevState = stateRoster

	model, _ := app.Update(mutationDoneMsg{op: "update", err: api.ErrAuthExpired})
	app = model.(*App)
	if app.state != stateLogin {
		t.Fatalf("state = %d after a rejected session, want login", app.state)
	}
	if !strings.Contains(app.statusMsg, "expired") {
		t.Errorf("statusMsg = %q, should explain why the login screen came back", app.statusMsg)
	}
}

func TestAuthExpiryDuringLoadRedirectsToLogin(t *testing.T) {
	gw := &fakeGateway{listErr: api.ErrAuthExpired}
	app := newTestApp(t, &fakeAuth{username: "admin"}, gw)
	app.state = stateDashboard

	model, cmd := app.Update(app.loadRoster("")())
	app = runCommands(t, model, cmd)
	if app.state != stateLogin {
		t.Fatalf("state = %d after a rejected session, want login", app.state)
	}
	if !app.ctrl.SessionExpired() {
		t.Fatal("controller should latch session expiry")
	}
}

func TestRefreshIgnoredWhileLoadInFlight(t *testing.T) {
	app := newTestApp(t, &fakeAuth{username: "admin"}, &fakeGateway{})
	app.state = stateDashboard
	app.busy = true

	model, cmd := app.handleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	app = model.(*App)
	if cmd != nil {
		t.Fatal("refresh while a load is in flight must not issue another one")
	}
	if app.state != stateDashboard {
		t.Fatalf("state = %d, refresh key must not change screens", app.state)
	}
}

func TestValidateInput(t *testing.T) {
	cases := []struct {
		name  string
		input api.EmployeeInput
		want  string
	}{
		{"complete", api.EmployeeInput{Name: "A", Position: "B", Department: "C", StartDate: "2026-09-01"}, ""},
		{"missing name", api.EmployeeInput{Position: "B", Department: "C", StartDate: "2026-09-01"}, "Name"},
		{"missing department", api.EmployeeInput{Name: "A", Position: "B", StartDate: "2026-09-01"}, "Department"},
		{"garbage date", api.EmployeeInput{Name: "A", Position: "B", Department: "C", StartDate: "whenever"}, "date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := validateInput(tc.input)
			if tc.want == "" && got != "" {
				t.Fatalf("validateInput = %q, want accepted", got)
			}
			if tc.want != "" && !strings.Contains(got, tc.want) {
				t.Fatalf("validateInput = %q, want mention of %q", got, tc.want)
			}
		})
	}
}

func TestBadgeLabels(t *testing.T) {
	cases := map[employee.Category]string{
		employee.CategoryNew:        "new",
		employee.CategoryPending:    "pending",
		employee.CategoryInProgress: "in progress",
		employee.CategoryCompleted:  "completed",
		employee.CategoryFailed:     "failed",
		employee.CategoryUnknown:    "unknown",
	}
	for cat, want := range cases {
		if got := badgeLabel(cat); got != want {
			t.Errorf("badgeLabel(%v) = %q, want %q", cat, got, want)
		}
	}
}

func newTestApp(t *testing.T, auth Authenticator, gw *fakeGateway) *App {
	t.Helper()
	dir := t.TempDir()
	if err := config.InitOnboardDir(dir); err != nil {
		t.Fatalf("init onboard dir: %v", err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	app, err := NewApp(cfg, WithAuthenticator(auth), WithGateway(gw))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	app.username = "admin"
	return app
}

func runCommands(t *testing.T, model tea.Model, cmd tea.Cmd) *App {
	t.Helper()
	app, ok := model.(*App)
	if !ok {
		t.Fatalf("unexpected model type: %T", model)
	}
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			break
		}
		if _, ok := msg.(tea.QuitMsg); ok {
			break
		}
		nextModel, nextCmd := app.Update(msg)
		app, ok = nextModel.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", nextModel)
		}
		cmd = nextCmd
	}
	return app
}

type fakeAuth struct {
	username string
	loginErr error
	checkErr error
}

func (f *fakeAuth) CheckAuth(context.Context) (string, error) {
	if f.checkErr != nil {
		return "", f.checkErr
	}
	return f.username, nil
}

func (f *fakeAuth) Login(_ context.Context, username, _ string) error {
	if f.loginErr != nil {
		return f.loginErr
	}
	f.username = username
	return nil
}

func (f *fakeAuth) Logout(context.Context) error { return nil }

type fakeGateway struct {
	records     []employee.Employee
	listErr     error
	nextID      int
	createCalls int
}

func (f *fakeGateway) ListEmployees(context.Context) ([]employee.Employee, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]employee.Employee, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeGateway) CreateEmployee(_ context.Context, input api.EmployeeInput) (employee.Employee, error) {
	f.createCalls++
	f.nextID++
	rec := employee.Employee{
		ID:         fmt.Sprintf("emp-%d", f.nextID),
		Name:       input.Name,
		Position:   input.Position,
		Department: input.Department,
		StartDate:  input.StartDate,
		Status:     "New",
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeGateway) UpdateEmployee(_ context.Context, id string, input api.EmployeeInput) (employee.Employee, error) {
	for i, rec := range f.records {
		if rec.ID == id {
			rec.Name = input.Name
			rec.Position = input.Position
			rec.Department = input.Department
			rec.StartDate = input.StartDate
			f.records[i] = rec
			return rec, nil
		}
	}
	return employee.Employee{}, &api.APIError{StatusCode: 404, Message: "Employee not found"}
}

func (f *fakeGateway) DeleteEmployee(_ context.Context, id string) error {
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return &api.APIError{StatusCode: 404, Message: "Employee not found"}
}

func (f *fakeGateway) CompleteOnboarding(_ context.Context, id string) (employee.Employee, error) {
	for i, rec := range f.records {
		if rec.ID == id {
			rec.Status = "Completed"
			f.records[i] = rec
			return rec, nil
		}
	}
	return employee.Employee{}, &api.APIError{StatusCode: 404, Message: "Employee not found"}
}
