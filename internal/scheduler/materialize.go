package scheduler

import (
	"fmt"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

// DedupKey 唯一标识一条由周期规则生成的派工：(工程师, 工单, 本地日期)。
// 同一个键重复生成时直接跳过，这是整个生成流程幂等性的基础
func DedupKey(engineerID int64, jobID string, startAt time.Time, loc *time.Location) string {
	return fmt.Sprintf("%d|%s|%s", engineerID, jobID, startAt.In(loc).Format("2006-01-02"))
}

// WeekStart 把任意时刻归一到它所在那一周的周一零点（营业时区）
func WeekStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	offset := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -offset)
}

// GenerateCandidate 是一条待插入的生成结果
type GenerateCandidate struct {
	RuleID     int64
	EngineerID int64
	JobID      string
	StartAt    time.Time
	EndAt      time.Time
	Key        string
}

// GenerateSummary 是一次生成的统计结果，Created 以实际入库数为准
type GenerateSummary struct {
	Created      int `json:"created"`
	RulesMatched int `json:"rulesMatched"`
	SkippedNoJob int `json:"skippedNoJob"`
}

// ExpandWeek 把一批规则在目标周（weekStart 起的 7 天）内展开成候选派工。
// existingKeys 是本周已经入库的去重键集合；同一批内部先生成的键也会挡住后生成的，
// 两者共同保证重复调用和批内重复都不会产生重复记录。
// 只有 weekly 规则会展开，monthly 规则在这条路径上永远不产生任何派工
func ExpandWeek(rules []*domain.RecurringSchedule, weekStart time.Time, existingKeys map[string]struct{}, loc *time.Location) ([]GenerateCandidate, GenerateSummary) {
	summary := GenerateSummary{}
	candidates := []GenerateCandidate{}

	seen := make(map[string]struct{}, len(existingKeys))
	for key := range existingKeys {
		seen[key] = struct{}{}
	}

	for _, rule := range rules {
		if rule.Pattern.Kind != domain.PatternWeekly {
			continue
		}

		hour, minute, err := ParseStartTime(rule.StartTime)
		if err != nil {
			// 开始时间在入口处已经校验过，这里跳过而不是中断整批生成
			continue
		}

		matched := false
		for i := 0; i < 7; i++ {
			date := weekStart.AddDate(0, 0, i)
			if !MatchesDate(rule.Pattern, date) {
				continue
			}
			// 日期还必须落在规则自身的生效区间内
			if ymd(date) < ymd(rule.ValidFrom) {
				continue
			}
			if rule.ValidUntil != nil && ymd(date) > ymd(*rule.ValidUntil) {
				continue
			}
			matched = true

			// 没有关联工单的规则可以命中日期，但永远不会生成派工
			if rule.JobID == "" {
				summary.SkippedNoJob++
				continue
			}

			startAt := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, loc)
			endAt := startAt.Add(time.Duration(rule.DurationMinutes) * time.Minute)

			key := DedupKey(rule.EngineerID, rule.JobID, startAt, loc)
			if _, exists := seen[key]; exists {
				continue
			}
			seen[key] = struct{}{}

			candidates = append(candidates, GenerateCandidate{
				RuleID:     rule.ID,
				EngineerID: rule.EngineerID,
				JobID:      rule.JobID,
				StartAt:    startAt,
				EndAt:      endAt,
				Key:        key,
			})
		}

		if matched {
			summary.RulesMatched++
		}
	}

	summary.Created = len(candidates)
	return candidates, summary
}

// ymd 取时刻自身时区下的日历日期，方便只按日期比较
func ymd(t time.Time) int {
	year, month, day := t.Date()
	return year*10000 + int(month)*100 + day
}
