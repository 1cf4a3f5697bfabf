// internal/storage/records.go
package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// uniqueViolation is the PostgreSQL error code for unique-constraint hits.
const uniqueViolation = "23505"

// PostgresRecords implements RecordRepository over PostgreSQL. The table
// carries UNIQUE (child_id, vaccine_id, dose_number), which serializes
// concurrent attempts to record the same dose.
type PostgresRecords struct {
	db *sql.DB
}

func NewPostgresRecords(db *sql.DB) *PostgresRecords {
	return &PostgresRecords{db: db}
}

func (r *PostgresRecords) Create(ctx context.Context, record models.VaccinationRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO vaccination_records
			(id, child_id, vaccine_id, dose_number, application_date, site, lot_number, reaction_severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		record.ID, record.ChildID, record.VaccineID, record.DoseNumber,
		record.ApplicationDate, record.Site, record.LotNumber,
		string(record.ReactionSeverity), record.CreatedAt,
	)
	if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
		return errors.NewDuplicateRecordError(record.ChildID, record.VaccineID, record.DoseNumber)
	}
	if err != nil {
		return errors.NewQueryExecutionFailedError("records.create", err)
	}
	return nil
}

func (r *PostgresRecords) GetByID(ctx context.Context, id string) (models.VaccinationRecord, error) {
	var rec models.VaccinationRecord
	var severity string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, child_id, vaccine_id, dose_number, application_date, site, lot_number, reaction_severity, created_at
		FROM vaccination_records WHERE id = $1`, id,
	).Scan(&rec.ID, &rec.ChildID, &rec.VaccineID, &rec.DoseNumber,
		&rec.ApplicationDate, &rec.Site, &rec.LotNumber, &severity, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return models.VaccinationRecord{}, errors.NewRecordNotFoundError(fmt.Sprintf("recordId: %s", id))
	}
	if err != nil {
		return models.VaccinationRecord{}, errors.NewQueryExecutionFailedError("records.get", err)
	}
	rec.ReactionSeverity = models.ReactionSeverity(severity)
	return rec, nil
}

func (r *PostgresRecords) ListByChild(ctx context.Context, childID string) ([]models.VaccinationRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, child_id, vaccine_id, dose_number, application_date, site, lot_number, reaction_severity, created_at
		FROM vaccination_records WHERE child_id = $1
		ORDER BY application_date, vaccine_id, dose_number`, childID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("records.list_by_child", err)
	}
	defer rows.Close()

	var out []models.VaccinationRecord
	for rows.Next() {
		var rec models.VaccinationRecord
		var severity string
		if err := rows.Scan(&rec.ID, &rec.ChildID, &rec.VaccineID, &rec.DoseNumber,
			&rec.ApplicationDate, &rec.Site, &rec.LotNumber, &severity, &rec.CreatedAt); err != nil {
			return nil, errors.NewQueryExecutionFailedError("records.list_by_child.scan", err)
		}
		rec.ReactionSeverity = models.ReactionSeverity(severity)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("records.list_by_child.rows", err)
	}
	return out, nil
}

func (r *PostgresRecords) AttachReaction(ctx context.Context, recordID string, severity models.ReactionSeverity) (models.VaccinationRecord, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE vaccination_records SET reaction_severity = $2 WHERE id = $1`,
		recordID, string(severity))
	if err != nil {
		return models.VaccinationRecord{}, errors.NewQueryExecutionFailedError("records.attach_reaction", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.VaccinationRecord{}, errors.NewRecordNotFoundError(fmt.Sprintf("recordId: %s", recordID))
	}
	return r.GetByID(ctx, recordID)
}
