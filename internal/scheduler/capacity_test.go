package scheduler

import (
	"testing"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

func testEngineer() *domain.Engineer {
	maxJobs := int32(3)
	return &domain.Engineer{
		ID:                  1,
		CompanyID:           1,
		WorkStartHour:       8,
		WorkEndHour:         18,
		BreakMinutes:        60, // 休息窗口为 12:30 - 13:30
		MaxJobsPerDay:       &maxJobs,
		TravelBufferMinutes: 30,
	}
}

func findViolation(violations []CapacityViolation, code string) *CapacityViolation {
	for i := range violations {
		if violations[i].Code == code {
			return &violations[i]
		}
	}
	return nil
}

func TestCheckCapacityClean(t *testing.T) {
	violations := CheckCapacity(CapacityInput{
		Start:    at(9, 0),
		End:      at(11, 0),
		Engineer: testEngineer(),
		Policy:   PolicyBlock,
		Location: time.UTC,
	})

	if len(violations) != 0 {
		t.Errorf("合规区间不应有违反项, 得到 %+v", violations)
	}
}

func TestCheckCapacityWorkingHours(t *testing.T) {
	// 07:00 开工早于 8 点上班时间
	violations := CheckCapacity(CapacityInput{
		Start:    at(7, 0),
		End:      at(9, 0),
		Engineer: testEngineer(),
		Policy:   PolicyBlock,
		Location: time.UTC,
	})

	v := findViolation(violations, CodeOutsideWorkingHours)
	if v == nil {
		t.Fatal("应检出超出工作时间")
	}
	if !v.Blocking {
		t.Error("block 策略下超出工作时间应拦截")
	}
	if v.WorkStartHour == nil || *v.WorkStartHour != 8 || v.WorkEndHour == nil || *v.WorkEndHour != 18 {
		t.Errorf("违反项缺少工作时间上下文: %+v", v)
	}

	// advise 策略下仍要报告，但不拦截
	violations = CheckCapacity(CapacityInput{
		Start:    at(7, 0),
		End:      at(9, 0),
		Engineer: testEngineer(),
		Policy:   PolicyAdvise,
		Location: time.UTC,
	})
	v = findViolation(violations, CodeOutsideWorkingHours)
	if v == nil {
		t.Fatal("advise 策略下也应检出超出工作时间")
	}
	if v.Blocking {
		t.Error("advise 策略下超出工作时间不应拦截")
	}
	if len(BlockingViolations(violations)) != 0 {
		t.Error("advise 策略下不应有拦截项")
	}
}

func TestCheckCapacityBreakOverlap(t *testing.T) {
	// 12:00 - 13:00 和 12:30 - 13:30 的休息窗口重叠
	violations := CheckCapacity(CapacityInput{
		Start:    at(12, 0),
		End:      at(13, 0),
		Engineer: testEngineer(),
		Policy:   PolicyBlock,
		Location: time.UTC,
	})

	v := findViolation(violations, CodeOverlapsBreak)
	if v == nil {
		t.Fatal("应检出和午休重叠")
	}
	if v.BreakStart == nil || v.BreakEnd == nil {
		t.Fatalf("违反项缺少休息窗口上下文: %+v", v)
	}
	if !v.BreakStart.Equal(at(12, 30)) || !v.BreakEnd.Equal(at(13, 30)) {
		t.Errorf("休息窗口 = %v - %v, 期望 12:30 - 13:30", v.BreakStart, v.BreakEnd)
	}

	// force 是唯一能绕过午休检查的开关
	violations = CheckCapacity(CapacityInput{
		Start:    at(12, 0),
		End:      at(13, 0),
		Engineer: testEngineer(),
		Force:    true,
		Policy:   PolicyBlock,
		Location: time.UTC,
	})
	if findViolation(violations, CodeOverlapsBreak) != nil {
		t.Error("force 时不应再报告午休重叠")
	}
}

func TestCheckCapacityMaxJobs(t *testing.T) {
	// 当天已有 3 单，上限 3，第 4 单应被拒绝
	violations := CheckCapacity(CapacityInput{
		Start:        at(15, 0),
		End:          at(16, 0),
		Engineer:     testEngineer(),
		SameDayCount: 3,
		Policy:       PolicyBlock,
		Location:     time.UTC,
	})

	v := findViolation(violations, CodeMaxJobsExceeded)
	if v == nil {
		t.Fatal("应检出超过每日单量上限")
	}
	if v.CurrentCount == nil || *v.CurrentCount != 3 {
		t.Errorf("currentCount = %v, 期望 3", v.CurrentCount)
	}
	if v.MaxJobsPerDay == nil || *v.MaxJobsPerDay != 3 {
		t.Errorf("maxJobsPerDay = %v, 期望 3", v.MaxJobsPerDay)
	}

	// force 不能绕过单量上限
	violations = CheckCapacity(CapacityInput{
		Start:        at(15, 0),
		End:          at(16, 0),
		Engineer:     testEngineer(),
		SameDayCount: 3,
		Force:        true,
		Policy:       PolicyBlock,
		Location:     time.UTC,
	})
	if findViolation(violations, CodeMaxJobsExceeded) == nil {
		t.Error("force 不应绕过每日单量上限")
	}

	// 没有配置上限时不检查
	eng := testEngineer()
	eng.MaxJobsPerDay = nil
	violations = CheckCapacity(CapacityInput{
		Start:        at(15, 0),
		End:          at(16, 0),
		Engineer:     eng,
		SameDayCount: 99,
		Policy:       PolicyBlock,
		Location:     time.UTC,
	})
	if findViolation(violations, CodeMaxJobsExceeded) != nil {
		t.Error("未配置上限时不应报告单量违反")
	}
}

func TestBreakWindowCentered(t *testing.T) {
	eng := testEngineer() // 8 - 18 点，中点 13 点
	eng.WorkStartHour = 9
	eng.WorkEndHour = 17 // 中点 13 点
	start, end := BreakWindow(eng, at(10, 0), time.UTC)
	if !start.Equal(at(12, 30)) || !end.Equal(at(13, 30)) {
		t.Errorf("休息窗口 = %v - %v, 期望 12:30 - 13:30", start, end)
	}
}
