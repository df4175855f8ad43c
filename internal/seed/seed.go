package seed

import (
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/repository"
)

func int32Ptr(v int32) *int32 {
	return &v
}

// demoEngineers 是一组固定的演示工程师，容量配置覆盖了常见的几种组合：
// 有无单量上限、有无路途间隔、长短休息
var demoEngineers = []domain.Engineer{
	{
		FullName:            "陈志远",
		Email:               "chenzhiyuan@fieldserve.dev",
		WorkStartHour:       8,
		WorkEndHour:         17,
		BreakMinutes:        60,
		MaxJobsPerDay:       int32Ptr(4),
		TravelBufferMinutes: 30,
	},
	{
		FullName:            "林晓梅",
		Email:               "linxiaomei@fieldserve.dev",
		WorkStartHour:       8.5,
		WorkEndHour:         18,
		BreakMinutes:        45,
		MaxJobsPerDay:       int32Ptr(6),
		TravelBufferMinutes: 15,
	},
	{
		FullName:            "王建国",
		Email:               "wangjianguo@fieldserve.dev",
		WorkStartHour:       7,
		WorkEndHour:         16,
		BreakMinutes:        30,
		TravelBufferMinutes: 0,
	},
	{
		FullName:            "赵天宇",
		Email:               "zhaotianyu@fieldserve.dev",
		WorkStartHour:       9,
		WorkEndHour:         19,
		BreakMinutes:        60,
		MaxJobsPerDay:       int32Ptr(5),
		TravelBufferMinutes: 45,
	},
}

// demoRule 是绑定到工程师下标的周期规则模板
type demoRule struct {
	engineerIdx     int
	jobID           string
	pattern         string
	startTime       string
	durationMinutes int32
	notes           string
}

var demoRules = []demoRule{
	{0, "MAINT-0001", "weekly:1,3", "09:00", 120, "一号机房例行巡检"},
	{1, "MAINT-0002", "weekly:2,4", "14:00", 90, "客户侧空调季度保养"},
	{2, "MAINT-0003", "weekly:5", "08:00", 180, "园区消防设备检查"},
	// 末位规则没有工单，验证空工单规则只保留不生成
	{3, "", "weekly:1", "10:00", 60, "待分配的周一巡检"},
}

// SeedDemoData 插入一套固定的演示数据：工程师加周期规则。
// 重复执行会因为邮箱唯一约束而跳过已存在的工程师
func SeedDemoData(r *repository.Repository, companyID int64) {
	validFrom := time.Now().Truncate(24 * time.Hour)

	created := make([]*domain.Engineer, 0, len(demoEngineers))
	for i := range demoEngineers {
		engineer := demoEngineers[i]
		engineer.CompanyID = companyID

		if err := r.CreateEngineer(&engineer); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.ConstraintName == "engineers_company_email_key" {
				// 已经插入过的演示工程师直接跳过
				slog.Info("演示工程师已存在，跳过", "fullName", engineer.FullName)
				continue
			}
			slog.Error("插入演示工程师失败", "fullName", engineer.FullName, "error", err)
			continue
		}
		created = append(created, &engineer)
	}
	slog.Info("插入演示工程师成功", "count", len(created))

	cnt := 0
	for _, dr := range demoRules {
		if dr.engineerIdx >= len(created) {
			continue
		}

		rule := &domain.RecurringSchedule{
			CompanyID:       companyID,
			JobID:           dr.jobID,
			EngineerID:      created[dr.engineerIdx].ID,
			RawPattern:      dr.pattern,
			StartTime:       dr.startTime,
			DurationMinutes: dr.durationMinutes,
			ValidFrom:       validFrom,
			Notes:           dr.notes,
		}
		if err := r.CreateRecurringSchedule(rule); err != nil {
			slog.Error("插入演示周期规则失败", "jobID", dr.jobID, "error", err)
			continue
		}
		cnt++
	}
	slog.Info("插入演示周期规则成功", "count", cnt)
}
