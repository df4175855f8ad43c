package scheduler

import (
	"testing"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

func weeklyRule(t *testing.T) *domain.RecurringSchedule {
	t.Helper()
	pattern, err := ParsePattern("weekly:1,3,5")
	if err != nil {
		t.Fatalf("解析规则失败: %v", err)
	}
	return &domain.RecurringSchedule{
		ID:              1,
		CompanyID:       1,
		JobID:           "J-100",
		EngineerID:      7,
		RawPattern:      "weekly:1,3,5",
		Pattern:         pattern,
		StartTime:       "09:00",
		DurationMinutes: 120,
		ValidFrom:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestWeekStart(t *testing.T) {
	// 2024-01-10 是周三，所在周的周一是 2024-01-08
	wednesday := time.Date(2024, 1, 10, 15, 30, 0, 0, time.UTC)
	got := WeekStart(wednesday, time.UTC)
	want := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("WeekStart = %v, 期望 %v", got, want)
	}

	// 周一自身归一到当天零点
	monday := time.Date(2024, 1, 8, 23, 0, 0, 0, time.UTC)
	if got := WeekStart(monday, time.UTC); !got.Equal(want) {
		t.Errorf("WeekStart(周一) = %v, 期望 %v", got, want)
	}

	// 周日归一到前一个周一
	sunday := time.Date(2024, 1, 14, 1, 0, 0, 0, time.UTC)
	if got := WeekStart(sunday, time.UTC); !got.Equal(want) {
		t.Errorf("WeekStart(周日) = %v, 期望 %v", got, want)
	}
}

func TestExpandWeekCreatesWeeklyEntries(t *testing.T) {
	rule := weeklyRule(t)
	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	candidates, summary := ExpandWeek([]*domain.RecurringSchedule{rule}, weekStart, nil, time.UTC)

	// 周一、周三、周五各一条，09:00 - 11:00
	if len(candidates) != 3 {
		t.Fatalf("候选数 = %d, 期望 3", len(candidates))
	}
	if summary.RulesMatched != 1 || summary.SkippedNoJob != 0 || summary.Created != 3 {
		t.Errorf("统计 = %+v, 期望 created=3 rulesMatched=1 skippedNoJob=0", summary)
	}

	wantStarts := []time.Time{
		time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC),
		time.Date(2024, 1, 12, 9, 0, 0, 0, time.UTC),
	}
	for i, c := range candidates {
		if !c.StartAt.Equal(wantStarts[i]) {
			t.Errorf("第 %d 条开始时间 = %v, 期望 %v", i, c.StartAt, wantStarts[i])
		}
		if !c.EndAt.Equal(wantStarts[i].Add(2 * time.Hour)) {
			t.Errorf("第 %d 条结束时间 = %v, 期望开始后 2 小时", i, c.EndAt)
		}
		if c.EngineerID != 7 || c.JobID != "J-100" || c.RuleID != 1 {
			t.Errorf("第 %d 条候选字段错误: %+v", i, c)
		}
	}
}

// 幂等性：把第一轮生成的键喂回去，第二轮必须一条都不再生成
func TestExpandWeekIdempotent(t *testing.T) {
	rule := weeklyRule(t)
	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	first, _ := ExpandWeek([]*domain.RecurringSchedule{rule}, weekStart, nil, time.UTC)
	if len(first) != 3 {
		t.Fatalf("第一轮候选数 = %d, 期望 3", len(first))
	}

	existingKeys := make(map[string]struct{}, len(first))
	for _, c := range first {
		existingKeys[c.Key] = struct{}{}
	}

	second, summary := ExpandWeek([]*domain.RecurringSchedule{rule}, weekStart, existingKeys, time.UTC)
	if len(second) != 0 {
		t.Errorf("第二轮候选数 = %d, 期望 0", len(second))
	}
	if summary.Created != 0 {
		t.Errorf("第二轮 created = %d, 期望 0", summary.Created)
	}
	// 规则仍然命中日期，只是不再产生新记录
	if summary.RulesMatched != 1 {
		t.Errorf("第二轮 rulesMatched = %d, 期望 1", summary.RulesMatched)
	}
}

// 批内去重：两条规则展开出同一个 (工程师, 工单, 日期) 时只保留先出现的
func TestExpandWeekIntraBatchDedup(t *testing.T) {
	ruleA := weeklyRule(t)
	ruleB := weeklyRule(t)
	ruleB.ID = 2
	ruleB.StartTime = "14:00"

	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	candidates, _ := ExpandWeek([]*domain.RecurringSchedule{ruleA, ruleB}, weekStart, nil, time.UTC)

	if len(candidates) != 3 {
		t.Fatalf("候选数 = %d, 期望批内去重后只剩 3", len(candidates))
	}
	for _, c := range candidates {
		if c.RuleID != 1 {
			t.Errorf("应保留先展开的规则 1 的候选, 得到规则 %d", c.RuleID)
		}
	}
}

func TestExpandWeekSkipsNoJob(t *testing.T) {
	rule := weeklyRule(t)
	rule.JobID = ""
	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	candidates, summary := ExpandWeek([]*domain.RecurringSchedule{rule}, weekStart, nil, time.UTC)
	if len(candidates) != 0 {
		t.Errorf("没有工单的规则不应生成任何派工, 得到 %d 条", len(candidates))
	}
	// 命中的每一天都单独计入 skippedNoJob
	if summary.SkippedNoJob != 3 {
		t.Errorf("skippedNoJob = %d, 期望 3", summary.SkippedNoJob)
	}
	if summary.RulesMatched != 1 {
		t.Errorf("rulesMatched = %d, 期望 1", summary.RulesMatched)
	}
}

func TestExpandWeekSkipsMonthly(t *testing.T) {
	pattern, err := ParsePattern("monthly:10")
	if err != nil {
		t.Fatalf("解析规则失败: %v", err)
	}
	rule := weeklyRule(t)
	rule.RawPattern = "monthly:10"
	rule.Pattern = pattern

	// 2024-01-10 落在目标周内，但 monthly 规则在周生成路径上永远不展开
	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	candidates, summary := ExpandWeek([]*domain.RecurringSchedule{rule}, weekStart, nil, time.UTC)
	if len(candidates) != 0 || summary.RulesMatched != 0 {
		t.Errorf("monthly 规则不应参与周生成, 候选 %d 条, 统计 %+v", len(candidates), summary)
	}
}

func TestExpandWeekHonorsValidity(t *testing.T) {
	rule := weeklyRule(t)
	// 规则从周三开始生效，到周五之前截止
	rule.ValidFrom = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	validUntil := time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC)
	rule.ValidUntil = &validUntil

	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	candidates, _ := ExpandWeek([]*domain.RecurringSchedule{rule}, weekStart, nil, time.UTC)

	if len(candidates) != 1 {
		t.Fatalf("候选数 = %d, 期望只剩周三一条", len(candidates))
	}
	want := time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	if !candidates[0].StartAt.Equal(want) {
		t.Errorf("开始时间 = %v, 期望 %v", candidates[0].StartAt, want)
	}
}

func TestDedupKeyUsesLocalDate(t *testing.T) {
	loc := time.FixedZone("CST", 8*60*60)
	// UTC 的 1 月 8 日 22 点在东八区已经是 1 月 9 日
	startAt := time.Date(2024, 1, 8, 22, 0, 0, 0, time.UTC)
	key := DedupKey(7, "J-100", startAt, loc)
	if key != "7|J-100|2024-01-09" {
		t.Errorf("DedupKey = %q, 期望按营业时区取日期", key)
	}
}
