package scheduler

import (
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

// WorkingHoursPolicy 决定工作时间检查是直接拦截还是只做提示
type WorkingHoursPolicy string

const (
	// PolicyBlock 表示超出工作时间的派工会被拒绝
	PolicyBlock WorkingHoursPolicy = "block"
	// PolicyAdvise 表示超出工作时间只记录日志，不拦截
	PolicyAdvise WorkingHoursPolicy = "advise"
)

const (
	CodeOutsideWorkingHours   = "outside_working_hours"
	CodeOverlapsBreak         = "overlaps_break"
	CodeMaxJobsExceeded       = "max_jobs_exceeded"
	CodeClash                 = "clash"
	CodeTravelBufferViolation = "travel_buffer_violation"
)

// CapacityViolation 描述一次容量约束的违反，附带渲染错误提示所需的数值上下文
type CapacityViolation struct {
	Code          string     `json:"code"`
	Blocking      bool       `json:"-"`
	WorkStartHour *float64   `json:"workStartHour,omitempty"`
	WorkEndHour   *float64   `json:"workEndHour,omitempty"`
	BreakStart    *time.Time `json:"breakStart,omitempty"`
	BreakEnd      *time.Time `json:"breakEnd,omitempty"`
	MaxJobsPerDay *int32     `json:"maxJobsPerDay,omitempty"`
	CurrentCount  *int32     `json:"currentCount,omitempty"`
}

type CapacityInput struct {
	Start    time.Time
	End      time.Time
	Engineer *domain.Engineer
	// SameDayCount 是候选开始日当天该工程师已有的未删除派工数，更新时已排除自身
	SameDayCount int32
	// Force 只对午休检查生效，其余约束不允许绕过
	Force    bool
	Policy   WorkingHoursPolicy
	Location *time.Location
}

// CheckCapacity 按固定顺序检查工作时间、午休和每日单量上限，返回所有违反项
func CheckCapacity(in CapacityInput) []CapacityViolation {
	loc := in.Location
	if loc == nil {
		loc = time.Local
	}
	eng := in.Engineer

	violations := []CapacityViolation{}

	// 工作时间检查：候选区间换算成本地小数小时后必须落在 [workStartHour, workEndHour] 内。
	// 是否拦截由配置的策略决定，不允许 create 和 update 各走各的口径
	startHour := localDecimalHour(in.Start, loc)
	endHour := localDecimalHour(in.End, loc)
	if startHour < eng.WorkStartHour || endHour > eng.WorkEndHour {
		ws, we := eng.WorkStartHour, eng.WorkEndHour
		violations = append(violations, CapacityViolation{
			Code:          CodeOutsideWorkingHours,
			Blocking:      in.Policy != PolicyAdvise,
			WorkStartHour: &ws,
			WorkEndHour:   &we,
		})
	}

	// 午休检查：休息窗口以工作时间中点为中心，长度为 breakMinutes。
	// 这是唯一允许调用方用 force 绕过的约束
	if eng.BreakMinutes > 0 && !in.Force {
		breakStart, breakEnd := BreakWindow(eng, in.Start.In(loc), loc)
		if Overlaps(in.Start, in.End, breakStart, breakEnd) {
			violations = append(violations, CapacityViolation{
				Code:       CodeOverlapsBreak,
				Blocking:   true,
				BreakStart: &breakStart,
				BreakEnd:   &breakEnd,
			})
		}
	}

	// 每日单量上限检查：按候选开始日当天统计，force 不能绕过
	if eng.MaxJobsPerDay != nil && in.SameDayCount >= *eng.MaxJobsPerDay {
		maxJobs := *eng.MaxJobsPerDay
		current := in.SameDayCount
		violations = append(violations, CapacityViolation{
			Code:          CodeMaxJobsExceeded,
			Blocking:      true,
			MaxJobsPerDay: &maxJobs,
			CurrentCount:  &current,
		})
	}

	return violations
}

// BlockingViolations 过滤出会导致请求被拒绝的违反项
func BlockingViolations(violations []CapacityViolation) []CapacityViolation {
	blocking := []CapacityViolation{}
	for _, v := range violations {
		if v.Blocking {
			blocking = append(blocking, v)
		}
	}
	return blocking
}

// BreakWindow 计算 day 当天的休息窗口：以工作时间中点为中心，向两侧各延伸半个 breakMinutes
func BreakWindow(eng *domain.Engineer, day time.Time, loc *time.Location) (time.Time, time.Time) {
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	midHour := (eng.WorkStartHour + eng.WorkEndHour) / 2
	center := midnight.Add(time.Duration(midHour * float64(time.Hour)))
	half := time.Duration(eng.BreakMinutes) * time.Minute / 2
	return center.Add(-half), center.Add(half)
}

// localDecimalHour 把时刻换算成本地营业时间的小数小时，如 08:30 -> 8.5
func localDecimalHour(t time.Time, loc *time.Location) float64 {
	t = t.In(loc)
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}
