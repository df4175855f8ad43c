package scheduler

import (
	"sort"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

type ConflictKind string

const (
	// ConflictClean 表示候选区间和现有派工没有任何冲突
	ConflictClean ConflictKind = "clean"
	// ConflictClash 表示存在真正的时间重叠，永远不允许绕过
	ConflictClash ConflictKind = "clash"
	// ConflictTravelBuffer 表示时间本身不重叠，但路途间隔不足
	ConflictTravelBuffer ConflictKind = "travel_buffer"
)

type ConflictResult struct {
	Kind ConflictKind
	// Entries 是引发该判定的现有派工，按与仓库返回时一致的顺序
	Entries []*domain.ScheduleEntry
}

// CheckConflicts 把候选区间和该工程师现有的未删除派工做分类：
// 只要有一条裸区间重叠就是 clash；只有加上路途间隔后才相交的归为 travel_buffer
func CheckConflicts(start, end time.Time, existing []*domain.ScheduleEntry, bufferMinutes int32) ConflictResult {
	buffer := time.Duration(bufferMinutes) * time.Minute

	clashes := []*domain.ScheduleEntry{}
	tooClose := []*domain.ScheduleEntry{}

	for _, entry := range existing {
		if entry.IsDeleted() {
			continue
		}
		if !OverlapsWithBuffer(start, end, entry.StartAt, entry.EndAt, buffer) {
			continue
		}
		if Overlaps(start, end, entry.StartAt, entry.EndAt) {
			clashes = append(clashes, entry)
		} else {
			tooClose = append(tooClose, entry)
		}
	}

	switch {
	case len(clashes) > 0:
		return ConflictResult{Kind: ConflictClash, Entries: clashes}
	case len(tooClose) > 0:
		return ConflictResult{Kind: ConflictTravelBuffer, Entries: tooClose}
	default:
		return ConflictResult{Kind: ConflictClean}
	}
}

// ClashPair 是看板撞单报告里一对互相重叠的派工
type ClashPair struct {
	EngineerID int64 `json:"engineerKey"`
	AID        int64 `json:"aID"`
	BID        int64 `json:"bID"`
}

// FindClashes 生成看板级的撞单报告：按工程师分组、组内按开始时间排序后向前扫描，
// 一旦 b 的开始时间不早于 a 的结束时间就停止扫描，不做完整的两两比较。
// 这个报告只用于诊断展示，和 create/update 的拦截检查互相独立
func FindClashes(entries []*domain.ScheduleEntry) []ClashPair {
	groups := make(map[int64][]*domain.ScheduleEntry)
	for _, entry := range entries {
		if entry.IsDeleted() {
			continue
		}
		groups[entry.EngineerID] = append(groups[entry.EngineerID], entry)
	}

	// 固定工程师的遍历顺序，保证报告输出稳定
	engineerIDs := make([]int64, 0, len(groups))
	for id := range groups {
		engineerIDs = append(engineerIDs, id)
	}
	sort.Slice(engineerIDs, func(i, j int) bool { return engineerIDs[i] < engineerIDs[j] })

	pairs := []ClashPair{}
	for _, engineerID := range engineerIDs {
		group := groups[engineerID]
		sort.Slice(group, func(i, j int) bool {
			if group[i].StartAt.Equal(group[j].StartAt) {
				return group[i].ID < group[j].ID
			}
			return group[i].StartAt.Before(group[j].StartAt)
		})

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				if !group[j].StartAt.Before(group[i].EndAt) {
					break
				}
				pairs = append(pairs, ClashPair{
					EngineerID: engineerID,
					AID:        group[i].ID,
					BID:        group[j].ID,
				})
			}
		}
	}

	return pairs
}
