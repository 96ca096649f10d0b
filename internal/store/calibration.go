package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Calibration kinds.
const (
	KindWheel  = "wheel"
	KindBounds = "bounds"
)

// Calibration is one stored calibration result. Data holds the JSON of the
// result for its kind.
type Calibration struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

// Decode unmarshals Data into v.
func (c *Calibration) Decode(v any) error {
	return json.Unmarshal(c.Data, v)
}

// CalibrationRepository stores calibration runs.
type CalibrationRepository struct {
	db *sql.DB
}

// Calibrations returns the calibration repository for this store.
func (s *Store) Calibrations() *CalibrationRepository {
	return &CalibrationRepository{db: s.db}
}

// Save stores v as the newest calibration of kind.
func (r *CalibrationRepository) Save(kind string, v any) (*Calibration, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode calibration: %w", err)
	}
	c := &Calibration{
		ID:        uuid.New().String(),
		Kind:      kind,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
	_, err = r.db.Exec(
		`INSERT INTO calibrations (id, kind, data, created_at) VALUES (?, ?, ?, ?)`,
		c.ID, c.Kind, string(c.Data), c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Latest returns the newest calibration of kind.
func (r *CalibrationRepository) Latest(kind string) (*Calibration, error) {
	c := &Calibration{}
	var data string
	err := r.db.QueryRow(
		`SELECT id, kind, data, created_at FROM calibrations
		 WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		kind,
	).Scan(&c.ID, &c.Kind, &data, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	c.Data = json.RawMessage(data)
	return c, nil
}

// List returns all calibrations of kind, newest first.
func (r *CalibrationRepository) List(kind string) ([]*Calibration, error) {
	rows, err := r.db.Query(
		`SELECT id, kind, data, created_at FROM calibrations
		 WHERE kind = ? ORDER BY created_at DESC, rowid DESC`,
		kind,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Calibration
	for rows.Next() {
		c := &Calibration{}
		var data string
		if err := rows.Scan(&c.ID, &c.Kind, &data, &c.CreatedAt); err != nil {
			return nil, err
		}
		c.Data = json.RawMessage(data)
		out = append(out, c)
	}
	return out, rows.Err()
}
