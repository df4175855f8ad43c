package domain

import "time"

type EntryStatus string

const (
	EntryStatusScheduled  EntryStatus = "scheduled"
	EntryStatusEnRoute    EntryStatus = "en_route"
	EntryStatusOnSite     EntryStatus = "on_site"
	EntryStatusInProgress EntryStatus = "in_progress"
	EntryStatusCompleted  EntryStatus = "completed"
)

type ScheduleEntry struct {
	ID         int64       `json:"id"`
	CompanyID  int64       `json:"companyID"`
	JobID      string      `json:"jobID"`
	EngineerID int64       `json:"engineerID"`
	StartAt    time.Time   `json:"startAt"`
	EndAt      time.Time   `json:"endAt"`
	Status     EntryStatus `json:"status"`
	Notes      string      `json:"notes"`
	DeletedAt  *time.Time  `json:"deletedAt"`
	CreatedAt  time.Time   `json:"createdAt"`
	Version    int32       `json:"-"`
}

// IsDeleted 为 true 的工单派工记录对容量统计、冲突检查和撞单报告都是不可见的
func (e *ScheduleEntry) IsDeleted() bool {
	return e.DeletedAt != nil
}
