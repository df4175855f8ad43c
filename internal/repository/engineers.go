package repository

import (
	"context"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

func (r *Repository) GetEngineerByID(companyID, id int64) (*domain.Engineer, error) {
	query := `
		SELECT full_name, email, work_start_hour, work_end_hour, break_minutes, max_jobs_per_day, travel_buffer_minutes, created_at, version
		FROM engineers WHERE id = $1 AND company_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	engineer := &domain.Engineer{
		ID:        id,
		CompanyID: companyID,
	}

	dst := []any{
		&engineer.FullName,
		&engineer.Email,
		&engineer.WorkStartHour,
		&engineer.WorkEndHour,
		&engineer.BreakMinutes,
		&engineer.MaxJobsPerDay,
		&engineer.TravelBufferMinutes,
		&engineer.CreatedAt,
		&engineer.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id, companyID).Scan(dst...); err != nil {
		return nil, err
	}

	return engineer, nil
}

func (r *Repository) GetEngineerByEmail(companyID int64, email string) (*domain.Engineer, error) {
	query := `
		SELECT id, full_name, work_start_hour, work_end_hour, break_minutes, max_jobs_per_day, travel_buffer_minutes, created_at, version
		FROM engineers WHERE company_id = $1 AND email = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	engineer := &domain.Engineer{
		CompanyID: companyID,
		Email:     email,
	}

	dst := []any{
		&engineer.ID,
		&engineer.FullName,
		&engineer.WorkStartHour,
		&engineer.WorkEndHour,
		&engineer.BreakMinutes,
		&engineer.MaxJobsPerDay,
		&engineer.TravelBufferMinutes,
		&engineer.CreatedAt,
		&engineer.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, companyID, email).Scan(dst...); err != nil {
		return nil, err
	}

	return engineer, nil
}

func (r *Repository) GetAllEngineers(companyID int64) ([]*domain.Engineer, error) {
	query := `
		SELECT id, full_name, email, work_start_hour, work_end_hour, break_minutes, max_jobs_per_day, travel_buffer_minutes, created_at, version
		FROM engineers WHERE company_id = $1
		ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	engineers := []*domain.Engineer{}
	for rows.Next() {
		engineer := &domain.Engineer{CompanyID: companyID}
		dst := []any{
			&engineer.ID,
			&engineer.FullName,
			&engineer.Email,
			&engineer.WorkStartHour,
			&engineer.WorkEndHour,
			&engineer.BreakMinutes,
			&engineer.MaxJobsPerDay,
			&engineer.TravelBufferMinutes,
			&engineer.CreatedAt,
			&engineer.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		engineers = append(engineers, engineer)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return engineers, nil
}

// CreateEngineer 只给种子程序使用，线上数据由人事方同步
func (r *Repository) CreateEngineer(engineer *domain.Engineer) error {
	query := `
		INSERT INTO engineers (company_id, full_name, email, work_start_hour, work_end_hour, break_minutes, max_jobs_per_day, travel_buffer_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{
		engineer.CompanyID,
		engineer.FullName,
		engineer.Email,
		engineer.WorkStartHour,
		engineer.WorkEndHour,
		engineer.BreakMinutes,
		engineer.MaxJobsPerDay,
		engineer.TravelBufferMinutes,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&engineer.ID, &engineer.CreatedAt, &engineer.Version); err != nil {
		return err
	}

	return nil
}
