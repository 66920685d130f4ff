// internal/server/store.go
//
// SQLite persistence for the reference employee API. List-valued fields are
// stored as JSON text columns; timestamps are RFC 3339 text.

package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one employee row as the API stores and serves it.
type Record struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Position             string   `json:"position"`
	Department           string   `json:"department"`
	StartDate            string   `json:"startDate"`
	Status               string   `json:"status"`
	EquipmentNeeds       []string `json:"equipmentNeeds"`
	SystemAccess         []string `json:"systemAccess"`
	TrainingRequirements []string `json:"trainingRequirements"`
	HRNotes              []string `json:"hrNotes,omitempty"`
	ITNotes              []string `json:"itNotes,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
}

// Store implements employee persistence over SQLite.
type Store struct {
	db    *sql.DB
	clock func() time.Time
}

// NewStore wraps an initialized database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{
		db:    db,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// InitDB enables WAL mode and creates the schema.
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("server: enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("server: enable foreign keys: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS employee (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		position TEXT NOT NULL,
		department TEXT NOT NULL,
		start_date TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'New',
		equipment_needs TEXT NOT NULL DEFAULT '[]',
		system_access TEXT NOT NULL DEFAULT '[]',
		training_requirements TEXT NOT NULL DEFAULT '[]',
		hr_notes TEXT NOT NULL DEFAULT '[]',
		it_notes TEXT NOT NULL DEFAULT '[]',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("server: create schema: %w", err)
	}
	return nil
}

const recordColumns = "id, name, position, department, start_date, status, equipment_needs, system_access, training_requirements, hr_notes, it_notes, created_at, updated_at"

// List returns all employees in insertion order.
func (s *Store) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+recordColumns+" FROM employee ORDER BY rowid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// Get retrieves one employee by ID.
func (s *Store) Get(ctx context.Context, id string) (Record, bool, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+recordColumns+" FROM employee WHERE id = ?", id)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	return rec, true, nil
}

// Create assigns an ID and timestamps, then inserts the record. A blank
// status defaults to New.
func (s *Store) Create(ctx context.Context, rec Record) (Record, error) {
	rec.ID = uuid.NewString()
	now := s.clock().Format(time.RFC3339)
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if rec.Status == "" {
		rec.Status = "New"
	}
	if err := s.exec(ctx, rec, `INSERT INTO employee (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Update replaces an existing record. ID and created_at are preserved from
// the stored row; updated_at is stamped here.
func (s *Store) Update(ctx context.Context, rec Record) (Record, error) {
	existing, ok, err := s.Get(ctx, rec.ID)
	if err != nil {
		return Record{}, err
	}
	if !ok {
		return Record{}, sql.ErrNoRows
	}
	rec.CreatedAt = existing.CreatedAt
	rec.UpdatedAt = s.clock().Format(time.RFC3339)

	query := `UPDATE employee SET name = ?, position = ?, department = ?, start_date = ?, status = ?,
		equipment_needs = ?, system_access = ?, training_requirements = ?, hr_notes = ?, it_notes = ?, updated_at = ?
		WHERE id = ?`
	_, err = s.db.ExecContext(ctx, query,
		rec.Name,
		rec.Position,
		rec.Department,
		rec.StartDate,
		rec.Status,
		marshalList(rec.EquipmentNeeds),
		marshalList(rec.SystemAccess),
		marshalList(rec.TrainingRequirements),
		marshalList(rec.HRNotes),
		marshalList(rec.ITNotes),
		rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Delete removes an employee. The bool reports whether a row existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM employee WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of stored employees.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM employee").Scan(&count)
	return count, err
}

// Seed inserts the sample roster when the table is empty, so a fresh server
// has something to show.
func (s *Store) Seed(ctx context.Context) error {
	count, err := s.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, rec := range sampleRecords() {
		if err := s.exec(ctx, rec, `INSERT INTO employee (`+recordColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) exec(ctx context.Context, rec Record, query string) error {
	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.Name,
		rec.Position,
		rec.Department,
		rec.StartDate,
		rec.Status,
		marshalList(rec.EquipmentNeeds),
		marshalList(rec.SystemAccess),
		marshalList(rec.TrainingRequirements),
		marshalList(rec.HRNotes),
		marshalList(rec.ITNotes),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func scanRecord(scan func(...any) error) (Record, error) {
	var rec Record
	var equipment, access, training, hrNotes, itNotes string
	err := scan(
		&rec.ID,
		&rec.Name,
		&rec.Position,
		&rec.Department,
		&rec.StartDate,
		&rec.Status,
		&equipment,
		&access,
		&training,
		&hrNotes,
		&itNotes,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return Record{}, err
	}
	rec.EquipmentNeeds = unmarshalList(equipment)
	rec.SystemAccess = unmarshalList(access)
	rec.TrainingRequirements = unmarshalList(training)
	rec.HRNotes = unmarshalList(hrNotes)
	rec.ITNotes = unmarshalList(itNotes)
	return rec, nil
}

func marshalList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalList(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}

func sampleRecords() []Record {
	return []Record{
		{
			ID:                   "1682900001",
			Name:                 "John Doe",
			Position:             "Software Engineer",
			Department:           "Engineering",
			StartDate:            "2023-05-01",
			Status:               "Completed",
			EquipmentNeeds:       []string{"Laptop", "Monitor", "Keyboard"},
			SystemAccess:         []string{"Email", "GitHub", "Jira"},
			TrainingRequirements: []string{"Security Training", "Code Standards"},
			CreatedAt:            "2023-05-01T09:00:00Z",
			UpdatedAt:            "2023-05-01T09:00:00Z",
		},
		{
			ID:                   "1682900002",
			Name:                 "Jane Smith",
			Position:             "Product Manager",
			Department:           "Product",
			StartDate:            "2023-06-15",
			Status:               "In Progress",
			EquipmentNeeds:       []string{"Laptop", "Phone"},
			SystemAccess:         []string{"Email", "Jira", "Analytics"},
			TrainingRequirements: []string{"Product Management", "Agile Methodologies"},
			CreatedAt:            "2023-06-10T10:30:00Z",
			UpdatedAt:            "2023-06-10T10:30:00Z",
		},
		{
			ID:                   "1682900003",
			Name:                 "Michael Johnson",
			Position:             "Sales Representative",
			Department:           "Sales",
			StartDate:            "2023-07-01",
			Status:               "Pending",
			EquipmentNeeds:       []string{"Laptop", "Phone", "Headset"},
			SystemAccess:         []string{"Email", "CRM", "Sales Tools"},
			TrainingRequirements: []string{"Sales Training", "CRM Usage"},
			CreatedAt:            "2023-06-25T11:15:00Z",
			UpdatedAt:            "2023-06-25T11:15:00Z",
		},
	}
}
