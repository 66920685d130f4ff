// internal/controller/controller.go
//
// The mutation coordinator. One Controller is constructed per page session;
// it owns the roster cache and the current selection, runs every mutation
// against the API boundary, and reconciles the cache afterward. Nothing
// else writes to the cache, which is what keeps the full and pending views
// from drifting apart.

package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kingrea/onboard/internal/api"
	"github.com/kingrea/onboard/internal/employee"
	"github.com/kingrea/onboard/internal/logbook"
	"github.com/kingrea/onboard/internal/roster"
)

// ErrMutationInFlight rejects a second mutation against a record that
// already has one pending. The request is refused locally; nothing is sent.
var ErrMutationInFlight = errors.New("controller: mutation already in flight for this record")

// ValidationError is a local precondition failure. It blocks submission
// entirely: no request is attempted.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "controller: " + e.Message
}

// Gateway is the slice of the API boundary the coordinator needs. api.Client
// satisfies it; tests substitute fakes.
type Gateway interface {
	ListEmployees(ctx context.Context) ([]employee.Employee, error)
	CreateEmployee(ctx context.Context, input api.EmployeeInput) (employee.Employee, error)
	UpdateEmployee(ctx context.Context, id string, input api.EmployeeInput) (employee.Employee, error)
	DeleteEmployee(ctx context.Context, id string) error
	CompleteOnboarding(ctx context.Context, id string) (employee.Employee, error)
}

// Controller coordinates mutations between the API boundary and the roster
// cache. Methods are safe for concurrent use; the boundary call itself runs
// outside the lock so a slow server never blocks readers.
type Controller struct {
	gw  Gateway
	log *logbook.Logbook
	now func() time.Time

	mu             sync.Mutex
	cache          *roster.Cache
	inflight       map[string]struct{}
	creating       bool
	issued         uint64
	generation     uint64
	selected       string
	sessionExpired bool
	loggedStatuses map[string]struct{}
}

// Option customizes Controller construction.
type Option func(*Controller)

// WithLogbook attaches a session log for diagnostics.
func WithLogbook(log *logbook.Logbook) Option {
	return func(c *Controller) {
		c.log = log.WithScope("roster")
	}
}

// WithClock allows tests to control timestamps for the stats window.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		if clock != nil {
			c.now = clock
		}
	}
}

// New builds a coordinator over the given boundary.
func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:             gw,
		now:            time.Now,
		cache:          roster.NewCache(),
		inflight:       map[string]struct{}{},
		loggedStatuses: map[string]struct{}{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// LoadRoster refetches the full roster and replaces the cache wholesale.
// The load generation is assigned when the request is issued; a response
// that completes after a newer load was issued is dropped without touching
// the cache, so overlapping refreshes can never roll the snapshot back.
// The generation is returned either way so presentation messages can carry
// it through Superseded.
func (c *Controller) LoadRoster(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	c.issued++
	gen := c.issued
	c.mu.Unlock()

	records, err := c.gw.ListEmployees(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.noteFailureLocked("load roster", err)
		return gen, err
	}
	if gen < c.issued {
		c.log.Debug("roster load %d superseded; response dropped", gen)
		return gen, nil
	}
	c.cache.Load(records)
	c.generation = gen
	c.sessionExpired = false
	for _, rec := range records {
		c.noteStatusLocked(rec)
	}
	c.log.Info("roster loaded: %d record(s)", len(records))
	return gen, nil
}

// Generation reports the generation of the last applied load.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Superseded reports whether a newer load has been issued since the given
// generation. Presentation drops completion messages for superseded
// generations instead of reporting them.
func (c *Controller) Superseded(gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return gen < c.issued
}

// Create validates the input locally and submits a new record. On success
// the server-assigned record is upserted into the cache; on any failure the
// cache is untouched.
func (c *Controller) Create(ctx context.Context, input api.EmployeeInput) (employee.Employee, error) {
	if err := validate(input); err != nil {
		return employee.Employee{}, err
	}
	c.mu.Lock()
	if c.sessionExpired {
		c.mu.Unlock()
		return employee.Employee{}, api.ErrAuthExpired
	}
	if c.creating {
		c.mu.Unlock()
		return employee.Employee{}, ErrMutationInFlight
	}
	c.creating = true
	c.mu.Unlock()

	rec, err := c.gw.CreateEmployee(ctx, input)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.creating = false
	if err != nil {
		c.noteFailureLocked("create", err)
		return employee.Employee{}, err
	}
	c.cache.Upsert(rec)
	c.noteStatusLocked(rec)
	c.log.Info("created %s (%s)", rec.Name, rec.ID)
	return rec, nil
}

// Update validates the input locally and replaces the editable fields of an
// existing record.
func (c *Controller) Update(ctx context.Context, id string, input api.EmployeeInput) (employee.Employee, error) {
	if strings.TrimSpace(id) == "" {
		return employee.Employee{}, &ValidationError{Message: "no employee selected for update"}
	}
	if err := validate(input); err != nil {
		return employee.Employee{}, err
	}
	return c.mutateRecord(ctx, id, "update", func(ctx context.Context) (employee.Employee, error) {
		return c.gw.UpdateEmployee(ctx, id, input)
	})
}

// Delete removes the currently selected record. An empty selection is a
// local validation condition; no request is made.
func (c *Controller) Delete(ctx context.Context) error {
	c.mu.Lock()
	id := c.selected
	c.mu.Unlock()
	if id == "" {
		return &ValidationError{Message: "no employee selected for deletion"}
	}
	if err := c.acquire(id); err != nil {
		return err
	}
	err := c.gw.DeleteEmployee(ctx, id)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
	if err != nil {
		c.noteFailureLocked("delete", err)
		return err
	}
	c.cache.Remove(id)
	if c.selected == id {
		c.selected = ""
	}
	c.log.Info("deleted record %s", id)
	return nil
}

// CompleteOnboarding transitions a record toward Completed via the boundary
// and upserts the returned record, so server-side status and notes are
// reflected. Callers re-derive both listings afterward.
func (c *Controller) CompleteOnboarding(ctx context.Context, id string) (employee.Employee, error) {
	if strings.TrimSpace(id) == "" {
		return employee.Employee{}, &ValidationError{Message: "no employee selected"}
	}
	return c.mutateRecord(ctx, id, "complete onboarding", func(ctx context.Context) (employee.Employee, error) {
		return c.gw.CompleteOnboarding(ctx, id)
	})
}

// Select records the employee the user is acting on.
func (c *Controller) Select(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = id
}

// ClearSelection drops the current selection.
func (c *Controller) ClearSelection() {
	c.Select("")
}

// Selection returns the currently selected record id.
func (c *Controller) Selection() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// InFlight reports whether a mutation for the given record is pending.
func (c *Controller) InFlight(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// SessionExpired reports whether the boundary has rejected the session.
// Once set, every mutation short-circuits with api.ErrAuthExpired until
// ResetSession is called after a fresh login.
func (c *Controller) SessionExpired() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionExpired
}

// ResetSession clears the session-expired latch after re-authentication.
func (c *Controller) ResetSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionExpired = false
}

// Snapshot returns a copy of the cache contents in insertion order.
func (c *Controller) Snapshot() []employee.Employee {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.All()
}

// Get returns one cached record by id.
func (c *Controller) Get(id string) (employee.Employee, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cache.Get(id)
}

// FullListing derives the sorted full roster view.
func (c *Controller) FullListing() []employee.Employee {
	return roster.FullListing(c.Snapshot())
}

// PendingListing derives the pending-onboarding view.
func (c *Controller) PendingListing() []employee.Employee {
	return roster.PendingListing(c.Snapshot())
}

// RecentFirst derives the dashboard's newest-first view.
func (c *Controller) RecentFirst() []employee.Employee {
	return roster.RecentFirst(c.Snapshot())
}

// Stats derives the dashboard aggregates from the current cache.
func (c *Controller) Stats() roster.Stats {
	return roster.Summarize(c.Snapshot(), c.now())
}

// mutateRecord runs one record-keyed mutation under the in-flight guard and
// upserts the boundary's result on success.
func (c *Controller) mutateRecord(ctx context.Context, id, op string, call func(context.Context) (employee.Employee, error)) (employee.Employee, error) {
	if err := c.acquire(id); err != nil {
		return employee.Employee{}, err
	}
	rec, err := call(ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
	if err != nil {
		c.noteFailureLocked(op, err)
		return employee.Employee{}, err
	}
	c.cache.Upsert(rec)
	c.noteStatusLocked(rec)
	c.log.Info("%s applied to record %s", op, id)
	return rec, nil
}

// acquire registers an in-flight mutation for id, refusing if the session
// is expired or a mutation for the same record is already pending.
func (c *Controller) acquire(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessionExpired {
		return api.ErrAuthExpired
	}
	if _, busy := c.inflight[id]; busy {
		return ErrMutationInFlight
	}
	c.inflight[id] = struct{}{}
	return nil
}

func (c *Controller) noteFailureLocked(op string, err error) {
	if errors.Is(err, api.ErrAuthExpired) {
		c.sessionExpired = true
		c.log.Warn("%s: session expired", op)
		return
	}
	c.log.Error("%s failed: %v", op, err)
}

// noteStatusLocked logs unrecognized status labels once per record+label,
// so payload drift is visible without flooding the log.
func (c *Controller) noteStatusLocked(rec employee.Employee) {
	if rec.Category() != employee.CategoryUnknown {
		return
	}
	key := rec.ID + "|" + rec.Status
	if _, seen := c.loggedStatuses[key]; seen {
		return
	}
	c.loggedStatuses[key] = struct{}{}
	c.log.Warn("unknown status %q on record %s", rec.Status, rec.ID)
}

func validate(input api.EmployeeInput) error {
	for _, field := range []struct {
		name, value string
	}{
		{"name", input.Name},
		{"position", input.Position},
		{"department", input.Department},
		{"start date", input.StartDate},
	} {
		if strings.TrimSpace(field.value) == "" {
			return &ValidationError{Message: fmt.Sprintf("%s is required", field.name)}
		}
	}
	return nil
}
