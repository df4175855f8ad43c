package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

func (r *Repository) CreateRecurringSchedule(rule *domain.RecurringSchedule) error {
	query := `
		INSERT INTO recurring_schedules (company_id, job_id, engineer_id, pattern, start_time, duration_minutes, valid_from, valid_until, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		rule.CompanyID,
		rule.JobID,
		rule.EngineerID,
		rule.RawPattern,
		rule.StartTime,
		rule.DurationMinutes,
		rule.ValidFrom,
		rule.ValidUntil,
		rule.Notes,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&rule.ID, &rule.CreatedAt, &rule.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetRecurringScheduleByID(companyID, id int64) (*domain.RecurringSchedule, error) {
	query := `
		SELECT job_id, engineer_id, pattern, start_time, duration_minutes, valid_from, valid_until, notes, created_at, version
		FROM recurring_schedules WHERE id = $1 AND company_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rule := &domain.RecurringSchedule{
		ID:        id,
		CompanyID: companyID,
	}

	dst := []any{
		&rule.JobID,
		&rule.EngineerID,
		&rule.RawPattern,
		&rule.StartTime,
		&rule.DurationMinutes,
		&rule.ValidFrom,
		&rule.ValidUntil,
		&rule.Notes,
		&rule.CreatedAt,
		&rule.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id, companyID).Scan(dst...); err != nil {
		return nil, err
	}

	return rule, nil
}

func (r *Repository) GetAllRecurringSchedules(companyID int64) ([]*domain.RecurringSchedule, error) {
	query := `
		SELECT id, job_id, engineer_id, pattern, start_time, duration_minutes, valid_from, valid_until, notes, created_at, version
		FROM recurring_schedules WHERE company_id = $1
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecurringSchedules(rows, companyID)
}

// GetActiveRecurringSchedules 返回生效区间和目标周有交集的规则：
// valid_from <= weekEnd 且 (valid_until 为空 或 valid_until >= weekStart)
func (r *Repository) GetActiveRecurringSchedules(companyID int64, weekStart, weekEnd time.Time) ([]*domain.RecurringSchedule, error) {
	query := `
		SELECT id, job_id, engineer_id, pattern, start_time, duration_minutes, valid_from, valid_until, notes, created_at, version
		FROM recurring_schedules
		WHERE company_id = $1
			AND valid_from <= $2
			AND (valid_until IS NULL OR valid_until >= $3)
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, companyID, weekEnd, weekStart)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanRecurringSchedules(rows, companyID)
}

func scanRecurringSchedules(rows *sql.Rows, companyID int64) ([]*domain.RecurringSchedule, error) {
	rules := []*domain.RecurringSchedule{}
	for rows.Next() {
		rule := &domain.RecurringSchedule{CompanyID: companyID}
		dst := []any{
			&rule.ID,
			&rule.JobID,
			&rule.EngineerID,
			&rule.RawPattern,
			&rule.StartTime,
			&rule.DurationMinutes,
			&rule.ValidFrom,
			&rule.ValidUntil,
			&rule.Notes,
			&rule.CreatedAt,
			&rule.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rules, nil
}

func (r *Repository) UpdateRecurringSchedule(rule *domain.RecurringSchedule) error {
	query := `
		UPDATE recurring_schedules
		SET
			job_id = $1,
			engineer_id = $2,
			pattern = $3,
			start_time = $4,
			duration_minutes = $5,
			valid_from = $6,
			valid_until = $7,
			notes = $8,
			version = version + 1
		WHERE id = $9 AND company_id = $10 AND version = $11
		RETURNING version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		rule.JobID,
		rule.EngineerID,
		rule.RawPattern,
		rule.StartTime,
		rule.DurationMinutes,
		rule.ValidFrom,
		rule.ValidUntil,
		rule.Notes,
		rule.ID,
		rule.CompanyID,
		rule.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&rule.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) DeleteRecurringSchedule(companyID, id int64) error {
	query := `
		DELETE FROM recurring_schedules WHERE id = $1 AND company_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id, companyID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
