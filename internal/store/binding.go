package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Binding overrides the key of one controller slot.
type Binding struct {
	ID        string    `json:"id"`
	Mode      string    `json:"mode"`
	Slot      string    `json:"slot"`
	Key       string    `json:"key"`
	CreatedAt time.Time `json:"created_at"`
}

// BindingRepository provides CRUD operations for key bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

// Create inserts b, assigning an ID when it has none. A second binding for
// the same mode and slot is ErrConflict.
func (r *BindingRepository) Create(b *Binding) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(
		`INSERT INTO bindings (id, mode, slot, key, created_at) VALUES (?, ?, ?, ?, ?)`,
		b.ID, b.Mode, b.Slot, b.Key, b.CreatedAt,
	)
	return conflict(err)
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	b := &Binding{}
	err := r.db.QueryRow(
		`SELECT id, mode, slot, key, created_at FROM bindings WHERE id = ?`,
		id,
	).Scan(&b.ID, &b.Mode, &b.Slot, &b.Key, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

// List retrieves all bindings ordered by mode and slot.
func (r *BindingRepository) List() ([]*Binding, error) {
	return r.query(`SELECT id, mode, slot, key, created_at FROM bindings ORDER BY mode, slot`)
}

// ListMode retrieves the bindings of one mode ordered by slot.
func (r *BindingRepository) ListMode(mode string) ([]*Binding, error) {
	return r.query(`SELECT id, mode, slot, key, created_at FROM bindings WHERE mode = ? ORDER BY slot`, mode)
}

// ForMode returns the slot to key overrides of mode.
func (r *BindingRepository) ForMode(mode string) (map[string]string, error) {
	bindings, err := r.ListMode(mode)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(bindings))
	for _, b := range bindings {
		out[b.Slot] = b.Key
	}
	return out, nil
}

func (r *BindingRepository) query(q string, args ...any) ([]*Binding, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bindings []*Binding
	for rows.Next() {
		b := &Binding{}
		if err := rows.Scan(&b.ID, &b.Mode, &b.Slot, &b.Key, &b.CreatedAt); err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return bindings, nil
}

// Update updates an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	result, err := r.db.Exec(
		`UPDATE bindings SET mode = ?, slot = ?, key = ? WHERE id = ?`,
		b.Mode, b.Slot, b.Key, b.ID,
	)
	if err != nil {
		return conflict(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func conflict(err error) error {
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrConflict
	}
	return err
}
