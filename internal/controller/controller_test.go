package controller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/kingrea/onboard/internal/api"
	"github.com/kingrea/onboard/internal/employee"
)

// fakeGateway is an in-memory stand-in for the API boundary.
type fakeGateway struct {
	mu      sync.Mutex
	records []employee.Employee
	nextID  int

	failWith   error // returned by every call when set
	listHold   chan struct{} // blocks the next ListEmployees after it snapshots records
	createHold chan struct{}
	deleteHold chan struct{}
}

func newFakeGateway(records ...employee.Employee) *fakeGateway {
	return &fakeGateway{records: records, nextID: 100}
}

func (f *fakeGateway) ListEmployees(ctx context.Context) ([]employee.Employee, error) {
	f.mu.Lock()
	hold := f.listHold
	f.listHold = nil
	err := f.failWith
	records := append([]employee.Employee(nil), f.records...)
	f.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (f *fakeGateway) CreateEmployee(ctx context.Context, input api.EmployeeInput) (employee.Employee, error) {
	if f.createHold != nil {
		<-f.createHold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return employee.Employee{}, f.failWith
	}
	f.nextID++
	rec := employee.Employee{
		ID:         fmt.Sprintf("%d", f.nextID),
		Name:       input.Name,
		Position:   input.Position,
		Department: input.Department,
		StartDate:  input.StartDate,
		Status:     "Pending",
		CreatedAt:  time.Now(),
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *fakeGateway) UpdateEmployee(ctx context.Context, id string, input api.EmployeeInput) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return employee.Employee{}, f.failWith
	}
	for i, rec := range f.records {
		if rec.ID == id {
			rec.Name, rec.Position, rec.Department, rec.StartDate = input.Name, input.Position, input.Department, input.StartDate
			f.records[i] = rec
			return rec, nil
		}
	}
	return employee.Employee{}, &api.APIError{StatusCode: 404, Message: "Employee not found"}
}

func (f *fakeGateway) DeleteEmployee(ctx context.Context, id string) error {
	if f.deleteHold != nil {
		<-f.deleteHold
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	for i, rec := range f.records {
		if rec.ID == id {
			f.records = append(f.records[:i], f.records[i+1:]...)
			return nil
		}
	}
	return &api.APIError{StatusCode: 404, Message: "Employee not found"}
}

func (f *fakeGateway) CompleteOnboarding(ctx context.Context, id string) (employee.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return employee.Employee{}, f.failWith
	}
	for i, rec := range f.records {
		if rec.ID == id {
			rec.Status = "Completed"
			rec.HRNotes = append(rec.HRNotes, "Onboarding completed")
			f.records[i] = rec
			return rec, nil
		}
	}
	return employee.Employee{}, &api.APIError{StatusCode: 404, Message: "Employee not found"}
}

func TestCreateScenario(t *testing.T) {
	c := New(newFakeGateway())
	if _, err := c.LoadRoster(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	rec, err := c.Create(context.Background(), api.EmployeeInput{
		Name: "Jane Doe", Position: "Engineer", Department: "R&D", StartDate: "2024-01-10",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if rec.ID == "" {
		t.Fatalf("server-assigned id missing")
	}
	stats := c.Stats()
	if stats.Total != 1 || stats.Departments != 1 {
		t.Fatalf("stats = %+v, want total 1 departments 1", stats)
	}
	pending := c.PendingListing()
	if len(pending) != 1 || pending[0].ID != rec.ID {
		t.Fatalf("new record should be pending, got %v", pending)
	}
}

func TestCreateValidationBlocksRequest(t *testing.T) {
	gw := newFakeGateway()
	c := New(gw)
	_, err := c.Create(context.Background(), api.EmployeeInput{Name: "Jane"})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
	if len(gw.records) != 0 {
		t.Fatalf("no request should have been sent")
	}
	if c.Stats().Total != 0 {
		t.Fatalf("cache must be untouched")
	}
}

func TestCompleteOnboardingMovesOutOfPending(t *testing.T) {
	start := employee.Employee{ID: "7", Name: "Ann", Status: "Pending"}
	c := New(newFakeGateway(start))
	if _, err := c.LoadRoster(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.PendingListing()) != 1 {
		t.Fatalf("precondition: record should be pending")
	}
	rec, err := c.CompleteOnboarding(context.Background(), "7")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if rec.Category() != employee.CategoryCompleted {
		t.Fatalf("category = %v", rec.Category())
	}
	if len(rec.HRNotes) == 0 {
		t.Fatalf("server-side notes should be reflected")
	}
	full := c.FullListing()
	if len(full) != 1 || full[0].Category() != employee.CategoryCompleted {
		t.Fatalf("full listing should keep the record as completed, got %v", full)
	}
	if len(c.PendingListing()) != 0 {
		t.Fatalf("record must leave the pending view")
	}
}

func TestAuthExpiredLatchesUntilReset(t *testing.T) {
	gw := newFakeGateway(employee.Employee{ID: "1", Name: "Ann", Status: "Pending"})
	c := New(gw)
	if _, err := c.LoadRoster(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	gw.failWith = api.ErrAuthExpired

	_, err := c.Create(context.Background(), api.EmployeeInput{
		Name: "Jane", Position: "Engineer", Department: "R&D", StartDate: "2024-01-10",
	})
	if !errors.Is(err, api.ErrAuthExpired) {
		t.Fatalf("want ErrAuthExpired, got %v", err)
	}
	if c.Stats().Total != 1 {
		t.Fatalf("cache must be unchanged after 401")
	}
	if !c.SessionExpired() {
		t.Fatalf("session-expired latch should be set")
	}

	// Further mutations refuse locally, even though the gateway would now work.
	gw.failWith = nil
	if _, err := c.Update(context.Background(), "1", api.EmployeeInput{
		Name: "Ann", Position: "Lead", Department: "R&D", StartDate: "2024-01-10",
	}); !errors.Is(err, api.ErrAuthExpired) {
		t.Fatalf("latched session should refuse mutations, got %v", err)
	}

	c.ResetSession()
	if _, err := c.Update(context.Background(), "1", api.EmployeeInput{
		Name: "Ann", Position: "Lead", Department: "R&D", StartDate: "2024-01-10",
	}); err != nil {
		t.Fatalf("after reset the mutation should pass: %v", err)
	}
}

func TestDeleteRequiresSelection(t *testing.T) {
	gw := newFakeGateway(employee.Employee{ID: "1", Name: "Ann"})
	c := New(gw)
	if _, err := c.LoadRoster(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	var vErr *ValidationError
	if err := c.Delete(context.Background()); !errors.As(err, &vErr) {
		t.Fatalf("delete without selection should be a local validation condition, got %v", err)
	}
	if len(gw.records) != 1 {
		t.Fatalf("no API call should have happened")
	}

	c.Select("1")
	if err := c.Delete(context.Background()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if c.Stats().Total != 0 {
		t.Fatalf("record should be removed from cache")
	}
	if c.Selection() != "" {
		t.Fatalf("selection should clear after delete")
	}
}

func TestSecondMutationSameRecordRejectedLocally(t *testing.T) {
	gw := newFakeGateway(employee.Employee{ID: "1", Name: "Ann", Status: "Pending"})
	gw.deleteHold = make(chan struct{})
	c := New(gw)
	if _, err := c.LoadRoster(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	c.Select("1")

	done := make(chan error, 1)
	go func() { done <- c.Delete(context.Background()) }()
	for !c.InFlight("1") {
		time.Sleep(time.Millisecond)
	}

	if _, err := c.CompleteOnboarding(context.Background(), "1"); !errors.Is(err, ErrMutationInFlight) {
		t.Fatalf("want ErrMutationInFlight, got %v", err)
	}

	close(gw.deleteHold)
	if err := <-done; err != nil {
		t.Fatalf("first mutation should still complete: %v", err)
	}
	if c.InFlight("1") {
		t.Fatalf("in-flight guard should be released")
	}
}

func TestFailedMutationLeavesCacheUntouched(t *testing.T) {
	gw := newFakeGateway(employee.Employee{ID: "1", Name: "Ann", Status: "Pending"})
	c := New(gw)
	if _, err := c.LoadRoster(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	gw.failWith = &api.APIError{StatusCode: 500, Message: "boom"}
	if _, err := c.Update(context.Background(), "1", api.EmployeeInput{
		Name: "Changed", Position: "x", Department: "y", StartDate: "2024-01-01",
	}); err == nil {
		t.Fatalf("expected failure")
	}
	rec, _ := c.Get("1")
	if rec.Name != "Ann" {
		t.Fatalf("cache changed on failed mutation: %+v", rec)
	}
}

func TestOverlappingLoadsKeepNewestSnapshot(t *testing.T) {
	gw := newFakeGateway(employee.Employee{ID: "old", Name: "Old Snapshot"})
	hold := make(chan struct{})
	gw.listHold = hold
	c := New(gw)

	type loadResult struct {
		gen uint64
		err error
	}
	done := make(chan loadResult, 1)
	go func() {
		gen, err := c.LoadRoster(context.Background())
		done <- loadResult{gen, err}
	}()
	for {
		gw.mu.Lock()
		started := gw.listHold == nil
		gw.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}

	// A second refresh issues and completes while the first is in flight.
	gw.mu.Lock()
	gw.records = []employee.Employee{{ID: "new", Name: "Fresh Snapshot"}}
	gw.mu.Unlock()
	freshGen, err := c.LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("second load: %v", err)
	}

	close(hold)
	stale := <-done
	if stale.err != nil {
		t.Fatalf("first load: %v", stale.err)
	}
	if stale.gen >= freshGen {
		t.Fatalf("first-issued load got generation %d, second got %d", stale.gen, freshGen)
	}
	if !c.Superseded(stale.gen) {
		t.Fatalf("generation %d should read as superseded", stale.gen)
	}
	snap := c.Snapshot()
	if len(snap) != 1 || snap[0].ID != "new" {
		t.Fatalf("late response overwrote the newer snapshot: %+v", snap)
	}
	if c.Generation() != freshGen {
		t.Fatalf("Generation() = %d, want %d", c.Generation(), freshGen)
	}
}

func TestLoadGenerationAdvances(t *testing.T) {
	c := New(newFakeGateway())
	gen1, err := c.LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	gen2, err := c.LoadRoster(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if gen2 <= gen1 {
		t.Fatalf("generation should advance: %d then %d", gen1, gen2)
	}
	if c.Generation() != gen2 {
		t.Fatalf("Generation() = %d, want %d", c.Generation(), gen2)
	}
}
