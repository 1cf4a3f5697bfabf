// internal/storage/schedule.go
package storage

import (
	"context"
	"database/sql"

	"immunization-engine/internal/common/errors"
	"immunization-engine/internal/models"
)

// PostgresSchedule implements ScheduleRepository over PostgreSQL.
type PostgresSchedule struct {
	db *sql.DB
}

func NewPostgresSchedule(db *sql.DB) *PostgresSchedule {
	return &PostgresSchedule{db: db}
}

// Seed inserts the catalog inside one transaction, guarded by a count check.
// Concurrent initializers race on the check, but the reruns see rows and
// no-op; ON CONFLICT DO NOTHING absorbs the window in between.
func (r *PostgresSchedule) Seed(ctx context.Context, vaccines []models.Vaccine, entries []models.ScheduleEntry) (bool, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schedule_entries`).Scan(&count); err != nil {
		return false, errors.NewQueryExecutionFailedError("schedule.seed.count", err)
	}
	if count > 0 {
		return false, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, errors.NewScheduleSeedError(err)
	}
	defer tx.Rollback()

	for _, v := range vaccines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO vaccines (id, code, name, total_doses, active)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING`,
			v.ID, v.Code, v.Name, v.TotalDoses, v.Active); err != nil {
			return false, errors.NewScheduleSeedError(err)
		}
	}

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO schedule_entries
				(id, vaccine_id, dose_number, target_age_days, min_age_days, max_age_days, min_interval_days, is_booster, is_mandatory, active)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO NOTHING`,
			e.ID, e.VaccineID, e.DoseNumber, e.TargetAgeDays,
			e.MinAgeDays, e.MaxAgeDays, e.MinIntervalDays,
			e.IsBooster, e.IsMandatory, e.Active); err != nil {
			return false, errors.NewScheduleSeedError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, errors.NewScheduleSeedError(err)
	}
	return true, nil
}

func (r *PostgresSchedule) LoadVaccines(ctx context.Context) ([]models.Vaccine, error) {
	return NewPostgresVaccines(r.db).List(ctx, false)
}

func (r *PostgresSchedule) LoadEntries(ctx context.Context) ([]models.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, vaccine_id, dose_number, target_age_days, min_age_days, max_age_days, min_interval_days, is_booster, is_mandatory, active
		FROM schedule_entries ORDER BY vaccine_id, dose_number`)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("schedule.load_entries", err)
	}
	defer rows.Close()

	var out []models.ScheduleEntry
	for rows.Next() {
		var e models.ScheduleEntry
		var minAge, maxAge, minInterval sql.NullInt64
		if err := rows.Scan(&e.ID, &e.VaccineID, &e.DoseNumber, &e.TargetAgeDays,
			&minAge, &maxAge, &minInterval, &e.IsBooster, &e.IsMandatory, &e.Active); err != nil {
			return nil, errors.NewQueryExecutionFailedError("schedule.load_entries.scan", err)
		}
		if minAge.Valid {
			v := int(minAge.Int64)
			e.MinAgeDays = &v
		}
		if maxAge.Valid {
			v := int(maxAge.Int64)
			e.MaxAgeDays = &v
		}
		if minInterval.Valid {
			v := int(minInterval.Int64)
			e.MinIntervalDays = &v
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("schedule.load_entries.rows", err)
	}
	return out, nil
}
