// internal/api/client.go
//
// HTTP client for the employee API boundary. The transport and the session
// cookie are wrapped here so the rest of the program only ever sees typed
// records and the error taxonomy in errors.go.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/kingrea/onboard/internal/employee"
	"github.com/kingrea/onboard/internal/logbook"
)

// DefaultTimeout bounds every request; expiry surfaces as a NetworkError
// the user may retry by re-triggering the action.
const DefaultTimeout = 15 * time.Second

// EmployeeInput is the client-validated payload for create and update.
type EmployeeInput struct {
	Name       string `json:"name"`
	Position   string `json:"position"`
	Department string `json:"department"`
	StartDate  string `json:"startDate"`
}

// Client talks to one API base URL, carrying the session cookie the
// boundary sets at login.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *logbook.Logbook
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client; tests use this to
// point at httptest servers with custom transports.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// WithLogbook attaches a session log for boundary diagnostics.
func WithLogbook(log *logbook.Logbook) Option {
	return func(c *Client) {
		c.log = log.WithScope("api")
	}
}

// NewClient builds a client for the given base URL (including any path
// prefix the deployment mounts the API under). Timeout <= 0 falls back to
// DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	jar, _ := cookiejar.New(nil)
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		httpc:   &http.Client{Timeout: timeout, Jar: jar},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// CheckAuth probes the session. It returns the authenticated username, or
// ErrAuthExpired when the boundary rejects the session.
func (c *Client) CheckAuth(ctx context.Context) (string, error) {
	body, err := c.request(ctx, http.MethodGet, "/check-auth", nil)
	if err != nil {
		return "", err
	}
	var payload struct {
		Authenticated bool   `json:"authenticated"`
		Username      string `json:"username"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || !payload.Authenticated {
		return "", ErrAuthExpired
	}
	return payload.Username, nil
}

// Login authenticates with the boundary. A rejected credential is reported
// as an APIError carrying the server's message verbatim, not as
// ErrAuthExpired, since there is no session to expire yet.
func (c *Client) Login(ctx context.Context, username, password string) error {
	payload := map[string]string{"username": username, "password": password}
	body, status, err := c.do(ctx, http.MethodPost, "/login", payload)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &APIError{StatusCode: status, Message: serverMessage(body, status)}
	}
	return nil
}

// Logout terminates the session. Best effort: callers return to the login
// surface whether or not this succeeds.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.request(ctx, http.MethodPost, "/logout", nil)
	return err
}

// ListEmployees fetches the full roster.
func (c *Client) ListEmployees(ctx context.Context) ([]employee.Employee, error) {
	return c.list(ctx, "/employees")
}

// ListPending fetches the server-side pending prefilter. The cache still
// re-derives pending locally so freshly-mutated records are never stale.
func (c *Client) ListPending(ctx context.Context) ([]employee.Employee, error) {
	return c.list(ctx, "/employees/pending")
}

// GetEmployee fetches a single record by id.
func (c *Client) GetEmployee(ctx context.Context, id string) (employee.Employee, error) {
	body, err := c.request(ctx, http.MethodGet, "/employees/"+url.PathEscape(id), nil)
	if err != nil {
		return employee.Employee{}, err
	}
	return c.decodeRecord(body)
}

// CreateEmployee submits a new record; the server assigns id and created_at
// and returns the full record.
func (c *Client) CreateEmployee(ctx context.Context, input EmployeeInput) (employee.Employee, error) {
	body, err := c.request(ctx, http.MethodPost, "/employees", input)
	if err != nil {
		return employee.Employee{}, err
	}
	return c.decodeRecord(body)
}

// UpdateEmployee replaces the editable fields of an existing record.
func (c *Client) UpdateEmployee(ctx context.Context, id string, input EmployeeInput) (employee.Employee, error) {
	body, err := c.request(ctx, http.MethodPut, "/employees/"+url.PathEscape(id), input)
	if err != nil {
		return employee.Employee{}, err
	}
	return c.decodeRecord(body)
}

// DeleteEmployee removes a record.
func (c *Client) DeleteEmployee(ctx context.Context, id string) error {
	_, err := c.request(ctx, http.MethodDelete, "/employees/"+url.PathEscape(id), nil)
	return err
}

// CompleteOnboarding asks the server to finish a record's onboarding and
// returns the updated record, including any server-side notes.
func (c *Client) CompleteOnboarding(ctx context.Context, id string) (employee.Employee, error) {
	body, err := c.request(ctx, http.MethodPost, "/employees/complete-onboarding/"+url.PathEscape(id), nil)
	if err != nil {
		return employee.Employee{}, err
	}
	return c.decodeRecord(body)
}

func (c *Client) list(ctx context.Context, path string) ([]employee.Employee, error) {
	body, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	var envelope struct {
		Employees []map[string]any `json:"employees"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, c.malformed(path, err)
	}
	records := make([]employee.Employee, 0, len(envelope.Employees))
	for _, raw := range envelope.Employees {
		records = append(records, employee.FromRaw(raw))
	}
	return records, nil
}

func (c *Client) decodeRecord(body []byte) (employee.Employee, error) {
	var envelope struct {
		Employee map[string]any `json:"employee"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return employee.Employee{}, c.malformed("record envelope", err)
	}
	if envelope.Employee == nil {
		return employee.Employee{}, c.malformed("record envelope", fmt.Errorf("missing employee field"))
	}
	return employee.FromRaw(envelope.Employee), nil
}

// malformed maps an unexpected payload shape to an APIError: the request
// itself succeeded, so the failure belongs to the server contract.
func (c *Client) malformed(what string, err error) error {
	c.log.Warn("malformed response (%s): %v", what, err)
	return &APIError{StatusCode: http.StatusOK, Message: fmt.Sprintf("unexpected response shape: %v", err)}
}

// request performs one round trip and maps failures onto the taxonomy:
// transport errors to NetworkError, 401 to ErrAuthExpired, other non-2xx to
// APIError with the server's message verbatim.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	body, status, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	if status == http.StatusUnauthorized {
		c.log.Warn("%s %s: session expired", method, path)
		return nil, ErrAuthExpired
	}
	if status < 200 || status > 299 {
		return nil, &APIError{StatusCode: status, Message: serverMessage(body, status)}
	}
	return body, nil
}

// do performs the round trip itself, reporting only transport failures so
// callers can interpret the status code and body themselves.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("api: encode %s %s: %w", method, path, err)
		}
		reqBody = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, 0, fmt.Errorf("api: build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.Warn("%s %s failed: %v", method, path, err)
		return nil, 0, &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &NetworkError{Op: method + " " + path, Err: err}
	}
	return body, resp.StatusCode, nil
}

// serverMessage extracts the server's error text: the JSON error field when
// present, the raw body otherwise, the status text as a last resort.
func serverMessage(body []byte, status int) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && strings.TrimSpace(payload.Error) != "" {
		return payload.Error
	}
	if text := strings.TrimSpace(string(body)); text != "" && len(text) <= 200 {
		return text
	}
	return http.StatusText(status)
}
