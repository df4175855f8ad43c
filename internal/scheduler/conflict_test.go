package scheduler

import (
	"testing"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

func entry(id, engineerID int64, start, end time.Time) *domain.ScheduleEntry {
	return &domain.ScheduleEntry{
		ID:         id,
		CompanyID:  1,
		JobID:      "J-100",
		EngineerID: engineerID,
		StartAt:    start,
		EndAt:      end,
		Status:     domain.EntryStatusScheduled,
	}
}

func deletedEntry(id, engineerID int64, start, end time.Time) *domain.ScheduleEntry {
	e := entry(id, engineerID, start, end)
	deletedAt := time.Now()
	e.DeletedAt = &deletedAt
	return e
}

func TestCheckConflictsClash(t *testing.T) {
	// 已有 10:00 - 11:00，候选 10:30 - 11:30 是硬冲突
	existing := []*domain.ScheduleEntry{entry(1, 1, at(10, 0), at(11, 0))}

	result := CheckConflicts(at(10, 30), at(11, 30), existing, 30)
	if result.Kind != ConflictClash {
		t.Fatalf("Kind = %v, 期望 clash", result.Kind)
	}
	if len(result.Entries) != 1 || result.Entries[0].ID != 1 {
		t.Errorf("冲突列表 = %+v, 期望只包含 ID 1", result.Entries)
	}
}

func TestCheckConflictsTravelBuffer(t *testing.T) {
	// 已有 10:00 - 11:00，候选 11:15 - 12:00：裸区间不重叠，30 分钟路途间隔下太近
	existing := []*domain.ScheduleEntry{entry(1, 1, at(10, 0), at(11, 0))}

	result := CheckConflicts(at(11, 15), at(12, 0), existing, 30)
	if result.Kind != ConflictTravelBuffer {
		t.Fatalf("Kind = %v, 期望 travel_buffer", result.Kind)
	}
	if len(result.Entries) != 1 {
		t.Errorf("应报告 1 条过近的派工, 得到 %d 条", len(result.Entries))
	}

	// 不配置路途间隔时同样的候选是干净的
	result = CheckConflicts(at(11, 15), at(12, 0), existing, 0)
	if result.Kind != ConflictClean {
		t.Errorf("buffer 为 0 时 Kind = %v, 期望 clean", result.Kind)
	}
}

func TestCheckConflictsClean(t *testing.T) {
	existing := []*domain.ScheduleEntry{entry(1, 1, at(10, 0), at(11, 0))}

	result := CheckConflicts(at(13, 0), at(14, 0), existing, 30)
	if result.Kind != ConflictClean {
		t.Errorf("Kind = %v, 期望 clean", result.Kind)
	}
}

func TestCheckConflictsIgnoresDeleted(t *testing.T) {
	// 软删除的派工对冲突检查完全不可见
	existing := []*domain.ScheduleEntry{deletedEntry(1, 1, at(10, 0), at(11, 0))}

	result := CheckConflicts(at(10, 30), at(11, 30), existing, 30)
	if result.Kind != ConflictClean {
		t.Errorf("Kind = %v, 期望软删除记录不参与判定", result.Kind)
	}
}

func TestCheckConflictsClashBeatsBuffer(t *testing.T) {
	// 同时存在硬冲突和路途间隔不足时，按硬冲突上报
	existing := []*domain.ScheduleEntry{
		entry(1, 1, at(10, 0), at(11, 0)),  // 和候选重叠
		entry(2, 1, at(12, 15), at(13, 0)), // 只是太近
	}

	result := CheckConflicts(at(10, 30), at(12, 0), existing, 30)
	if result.Kind != ConflictClash {
		t.Fatalf("Kind = %v, 期望 clash", result.Kind)
	}
	if len(result.Entries) != 1 || result.Entries[0].ID != 1 {
		t.Errorf("clash 列表只应包含真正重叠的派工, 得到 %+v", result.Entries)
	}
}

func TestFindClashes(t *testing.T) {
	entries := []*domain.ScheduleEntry{
		entry(1, 1, at(10, 0), at(11, 0)),
		entry(2, 1, at(10, 30), at(11, 30)), // 和 1 重叠
		entry(3, 1, at(11, 30), at(12, 30)), // 和 2 首尾相接，不算
		entry(4, 2, at(10, 0), at(11, 0)),   // 另一个工程师，不互相影响
		deletedEntry(5, 1, at(10, 0), at(12, 0)),
	}

	pairs := FindClashes(entries)
	if len(pairs) != 1 {
		t.Fatalf("撞单对数 = %d, 期望 1, 结果 %+v", len(pairs), pairs)
	}
	p := pairs[0]
	if p.EngineerID != 1 || p.AID != 1 || p.BID != 2 {
		t.Errorf("撞单对 = %+v, 期望 engineer 1 的 (1, 2)", p)
	}
}

func TestFindClashesBoundedSweep(t *testing.T) {
	// 一条长派工盖住后面多条，必须每一对都报告
	entries := []*domain.ScheduleEntry{
		entry(1, 1, at(9, 0), at(17, 0)),
		entry(2, 1, at(10, 0), at(11, 0)),
		entry(3, 1, at(12, 0), at(13, 0)),
	}

	pairs := FindClashes(entries)
	if len(pairs) != 2 {
		t.Fatalf("撞单对数 = %d, 期望 2, 结果 %+v", len(pairs), pairs)
	}
	if pairs[0].AID != 1 || pairs[0].BID != 2 || pairs[1].AID != 1 || pairs[1].BID != 3 {
		t.Errorf("撞单对 = %+v, 期望 (1,2) 和 (1,3)", pairs)
	}
}
