package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

const localDateLayout = "2006-01-02"

// EntryWriteCheck 描述写入派工前要在临界区内重新执行的校验。
// Recheck 拿到的是持有该工程师咨询锁之后重新读出的数据，
// 事务外的预检查只用于界面提示，真正的正确性以这里为准
type EntryWriteCheck struct {
	// WindowFrom / WindowTo 是冲突检查需要读出的现有派工窗口（已包含路途间隔的外扩）
	WindowFrom time.Time
	WindowTo   time.Time
	// ExcludeID 在更新时排除记录自身，创建时为 0
	ExcludeID int64
	Recheck   func(sameDayCount int32, nearby []*domain.ScheduleEntry) error
}

// CreateScheduleEntryChecked 在一个事务里完成“检查 + 插入”：
// 先对 (company, engineer) 取咨询锁，把并发写同一个工程师的请求串行化，
// 再在锁内重新读取现有派工并执行校验，校验通过才插入
func (r *Repository) CreateScheduleEntryChecked(entry *domain.ScheduleEntry, chk EntryWriteCheck) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.checkEntryWritable(ctx, tx, entry, chk); err != nil {
		return err
	}

	query := `
		INSERT INTO schedule_entries (company_id, job_id, engineer_id, start_at, end_at, local_date, status, notes, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'manual')
		RETURNING id, created_at, version
	`

	args := []any{
		entry.CompanyID,
		entry.JobID,
		entry.EngineerID,
		entry.StartAt,
		entry.EndAt,
		entry.StartAt.In(r.loc).Format(localDateLayout),
		entry.Status,
		entry.Notes,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&entry.ID, &entry.CreatedAt, &entry.Version); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateScheduleEntryChecked 和创建走同一套临界区逻辑，只是最后执行 UPDATE，
// 并用乐观版本号挡住并发修改同一条记录
func (r *Repository) UpdateScheduleEntryChecked(entry *domain.ScheduleEntry, chk EntryWriteCheck) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := r.checkEntryWritable(ctx, tx, entry, chk); err != nil {
		return err
	}

	query := `
		UPDATE schedule_entries
		SET
			job_id = $1,
			engineer_id = $2,
			start_at = $3,
			end_at = $4,
			local_date = $5,
			status = $6,
			notes = $7,
			version = version + 1
		WHERE id = $8 AND company_id = $9 AND deleted_at IS NULL AND version = $10
		RETURNING version
	`

	args := []any{
		entry.JobID,
		entry.EngineerID,
		entry.StartAt,
		entry.EndAt,
		entry.StartAt.In(r.loc).Format(localDateLayout),
		entry.Status,
		entry.Notes,
		entry.ID,
		entry.CompanyID,
		entry.Version,
	}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&entry.Version); err != nil {
		return err
	}

	return tx.Commit()
}

// checkEntryWritable 在事务内取锁、重读数据并执行调用方的校验
func (r *Repository) checkEntryWritable(ctx context.Context, tx *sql.Tx, entry *domain.ScheduleEntry, chk EntryWriteCheck) error {
	// 咨询锁随事务结束自动释放
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1::int, $2::int)`, entry.CompanyID, entry.EngineerID); err != nil {
		return err
	}

	countQuery := `
		SELECT COUNT(*) FROM schedule_entries
		WHERE company_id = $1 AND engineer_id = $2 AND deleted_at IS NULL
			AND local_date = $3 AND id <> $4
	`

	var sameDayCount int32
	localDate := entry.StartAt.In(r.loc).Format(localDateLayout)
	if err := tx.QueryRowContext(ctx, countQuery, entry.CompanyID, entry.EngineerID, localDate, chk.ExcludeID).Scan(&sameDayCount); err != nil {
		return err
	}

	nearbyQuery := `
		SELECT id, job_id, start_at, end_at, status, notes, deleted_at, created_at, version
		FROM schedule_entries
		WHERE company_id = $1 AND engineer_id = $2 AND deleted_at IS NULL
			AND start_at < $3 AND end_at > $4
			AND id <> $5
		ORDER BY start_at
	`

	rows, err := tx.QueryContext(ctx, nearbyQuery, entry.CompanyID, entry.EngineerID, chk.WindowTo, chk.WindowFrom, chk.ExcludeID)
	if err != nil {
		return err
	}
	defer rows.Close()

	nearby := []*domain.ScheduleEntry{}
	for rows.Next() {
		e := &domain.ScheduleEntry{
			CompanyID:  entry.CompanyID,
			EngineerID: entry.EngineerID,
		}
		dst := []any{&e.ID, &e.JobID, &e.StartAt, &e.EndAt, &e.Status, &e.Notes, &e.DeletedAt, &e.CreatedAt, &e.Version}
		if err := rows.Scan(dst...); err != nil {
			return err
		}
		nearby = append(nearby, e)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	return chk.Recheck(sameDayCount, nearby)
}

// GetScheduleEntryByID 按 id 直查，软删除的记录也返回，供审计追查使用
func (r *Repository) GetScheduleEntryByID(companyID, id int64) (*domain.ScheduleEntry, error) {
	query := `
		SELECT job_id, engineer_id, start_at, end_at, status, notes, deleted_at, created_at, version
		FROM schedule_entries WHERE id = $1 AND company_id = $2
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	entry := &domain.ScheduleEntry{
		ID:        id,
		CompanyID: companyID,
	}

	dst := []any{
		&entry.JobID,
		&entry.EngineerID,
		&entry.StartAt,
		&entry.EndAt,
		&entry.Status,
		&entry.Notes,
		&entry.DeletedAt,
		&entry.CreatedAt,
		&entry.Version,
	}
	if err := r.dbpool.QueryRowContext(ctx, query, id, companyID).Scan(dst...); err != nil {
		return nil, err
	}

	return entry, nil
}

// SoftDeleteScheduleEntry 只打删除标记，从不物理删除。
// 对已删除记录重复删除按不存在处理，避免悄悄吞掉调用方的 bug
func (r *Repository) SoftDeleteScheduleEntry(companyID, id int64) error {
	query := `
		UPDATE schedule_entries
		SET deleted_at = NOW(), version = version + 1
		WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL
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

// GetEntriesInWindow 返回租户内所有和 [from, to) 相交的未删除派工
func (r *Repository) GetEntriesInWindow(companyID int64, from, to time.Time) ([]*domain.ScheduleEntry, error) {
	query := `
		SELECT id, job_id, engineer_id, start_at, end_at, status, notes, created_at, version
		FROM schedule_entries
		WHERE company_id = $1 AND deleted_at IS NULL
			AND start_at < $2 AND end_at > $3
		ORDER BY engineer_id, start_at, id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, companyID, to, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*domain.ScheduleEntry{}
	for rows.Next() {
		entry := &domain.ScheduleEntry{CompanyID: companyID}
		dst := []any{
			&entry.ID,
			&entry.JobID,
			&entry.EngineerID,
			&entry.StartAt,
			&entry.EndAt,
			&entry.Status,
			&entry.Notes,
			&entry.CreatedAt,
			&entry.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}

// GenerateWeekEntries 在一个事务里完成“读已有 + 批量插入”：
// 先读出目标周内已入库的派工交给 expand 做去重展开，再把展开结果逐条插入。
// 插入带 ON CONFLICT DO NOTHING，唯一索引是并发生成时的第二道防线，
// 返回值是按工程师统计的实际插入条数
func (r *Repository) GenerateWeekEntries(companyID int64, weekStart, weekEnd time.Time, expand func(existing []*domain.ScheduleEntry) []*domain.ScheduleEntry) (map[int64]int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existingQuery := `
		SELECT id, job_id, engineer_id, start_at, end_at, status, notes, created_at, version
		FROM schedule_entries
		WHERE company_id = $1 AND deleted_at IS NULL
			AND start_at >= $2 AND start_at < $3
	`

	rows, err := tx.QueryContext(ctx, existingQuery, companyID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	existing := []*domain.ScheduleEntry{}
	for rows.Next() {
		entry := &domain.ScheduleEntry{CompanyID: companyID}
		dst := []any{
			&entry.ID,
			&entry.JobID,
			&entry.EngineerID,
			&entry.StartAt,
			&entry.EndAt,
			&entry.Status,
			&entry.Notes,
			&entry.CreatedAt,
			&entry.Version,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		existing = append(existing, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	insertQuery := `
		INSERT INTO schedule_entries (company_id, job_id, engineer_id, start_at, end_at, local_date, status, notes, origin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, '', 'recurring')
		ON CONFLICT (company_id, engineer_id, job_id, local_date) WHERE deleted_at IS NULL AND origin = 'recurring' DO NOTHING
	`

	created := map[int64]int{}
	for _, entry := range expand(existing) {
		args := []any{
			companyID,
			entry.JobID,
			entry.EngineerID,
			entry.StartAt,
			entry.EndAt,
			entry.StartAt.In(r.loc).Format(localDateLayout),
			domain.EntryStatusScheduled,
		}
		result, err := tx.ExecContext(ctx, insertQuery, args...)
		if err != nil {
			return nil, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return nil, err
		}
		created[entry.EngineerID] += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return created, nil
}
