// internal/storage/vaccines.go
package storage

import (
	"context"
	"database/sql"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// PostgresVaccines implements VaccineRepository over PostgreSQL.
type PostgresVaccines struct {
	db *sql.DB
}

func NewPostgresVaccines(db *sql.DB) *PostgresVaccines {
	return &PostgresVaccines{db: db}
}

func (r *PostgresVaccines) Create(ctx context.Context, vaccine models.Vaccine) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccines (id, code, name, total_doses, active)
		VALUES ($1, $2, $3, $4, $5)`,
		vaccine.ID, vaccine.Code, vaccine.Name, vaccine.TotalDoses, vaccine.Active,
	)
	if err != nil {
		return errors.NewQueryExecutionFailedError("vaccines.create", err)
	}
	return nil
}

func (r *PostgresVaccines) GetByID(ctx context.Context, id string) (models.Vaccine, error) {
	var v models.Vaccine
	err := r.db.QueryRowContext(ctx, `
		SELECT id, code, name, total_doses, active FROM vaccines WHERE id = $1`, id,
	).Scan(&v.ID, &v.Code, &v.Name, &v.TotalDoses, &v.Active)
	if err == sql.ErrNoRows {
		return models.Vaccine{}, errors.NewVaccineNotFoundError(id)
	}
	if err != nil {
		return models.Vaccine{}, errors.NewQueryExecutionFailedError("vaccines.get", err)
	}
	return v, nil
}

func (r *PostgresVaccines) List(ctx context.Context, activeOnly bool) ([]models.Vaccine, error) {
	query := `SELECT id, code, name, total_doses, active FROM vaccines ORDER BY code`
	if activeOnly {
		query = `SELECT id, code, name, total_doses, active FROM vaccines WHERE active = TRUE ORDER BY code`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("vaccines.list", err)
	}
	defer rows.Close()

	var out []models.Vaccine
	for rows.Next() {
		var v models.Vaccine
		if err := rows.Scan(&v.ID, &v.Code, &v.Name, &v.TotalDoses, &v.Active); err != nil {
			return nil, errors.NewQueryExecutionFailedError("vaccines.list.scan", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("vaccines.list.rows", err)
	}
	return out, nil
}
