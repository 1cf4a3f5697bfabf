// internal/storage/children.go
package storage

import (
	"context"
	"database/sql"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// PostgresChildren implements ChildRepository over PostgreSQL.
type PostgresChildren struct {
	db *sql.DB
}

func NewPostgresChildren(db *sql.DB) *PostgresChildren {
	return &PostgresChildren{db: db}
}

func (r *PostgresChildren) Create(ctx context.Context, child models.Child) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO children (id, name, birth_date, guardian_id, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		child.ID, child.Name, child.BirthDate, child.GuardianID, child.Active, child.CreatedAt,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("children.create", err)
	}
	return nil
}

func (r *PostgresChildren) GetByID(ctx context.Context, id string) (models.Child, error) {
	var c models.Child
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, birth_date, guardian_id, active, created_at
		FROM children WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.BirthDate, &c.GuardianID, &c.Active, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return models.Child{}, errors.NewChildNotFoundError(id)
	}
	if err != nil {
		return models.Child{}, errors.NewQueryExecutionFailedError("children.get", err)
	}
	return c, nil
}

func (r *PostgresChildren) ListActive(ctx context.Context) ([]models.Child, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, birth_date, guardian_id, active, created_at
		FROM children WHERE active = TRUE ORDER BY id`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("children.list_active", err)
	}
	defer rows.Close()

	var out []models.Child
	for rows.Next() {
		var c models.Child
		if err := rows.Scan(&c.ID, &c.Name, &c.BirthDate, &c.GuardianID, &c.Active, &c.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("children.list_active.scan", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("children.list_active.rows", err)
	}
	return out, nil
}

func (r *PostgresChildren) SetActive(ctx context.Context, id string, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE children SET active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return errors.NewQueryExecutionFailedError("children.set_active", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.NewChildNotFoundError(id)
	}
	return nil
}
