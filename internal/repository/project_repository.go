package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/equipment-rental/internal/model"
)

// ProjectRepo provides read access to the projects table.  Project and
// client management is handled by the surrounding system; the engine
// only validates foreign keys and lists a project's bookings.
type ProjectRepo struct {
	db *sql.DB
}

// NewProjectRepo returns a new ProjectRepo bound to the given database.
func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{db: db} }

// GetByID returns a single project or ErrProjectNotFound.
func (r *ProjectRepo) GetByID(ctx context.Context, id uint64) (*model.Project, error) {
	const q = `SELECT id, name, client_id, created_at, updated_at FROM projects WHERE id = ?`
	var p model.Project
	err := r.db.QueryRowContext(ctx, q, id).Scan(&p.ID, &p.Name, &p.ClientID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}
	return &p, nil
}

// Exists reports whether a project row exists.
func (r *ProjectRepo) Exists(ctx context.Context, id uint64) (bool, error) {
	const q = `SELECT 1 FROM projects WHERE id = ?`
	var one int
	err := r.db.QueryRowContext(ctx, q, id).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
