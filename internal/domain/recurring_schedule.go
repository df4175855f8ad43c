package domain

import "time"

type PatternKind string

const (
	PatternWeekly  PatternKind = "weekly"
	PatternMonthly PatternKind = "monthly"
)

// Pattern 是周期规则的解析结果，在入口处解析一次，之后不再反复解析原始字符串
type Pattern struct {
	Kind PatternKind `json:"kind"`
	// Weekly 时有效：0 表示周日，6 表示周六
	Weekdays []int32 `json:"weekdays,omitempty"`
	// Monthly 时有效：1-31
	MonthDay int32 `json:"monthDay,omitempty"`
}

type RecurringSchedule struct {
	ID        int64  `json:"id"`
	CompanyID int64  `json:"companyID"`
	// JobID 为空的规则可以存在，但永远不会生成任何派工记录
	JobID           string     `json:"jobID"`
	EngineerID      int64      `json:"engineerID"`
	RawPattern      string     `json:"pattern"`
	Pattern         Pattern    `json:"-"`
	StartTime       string     `json:"startTime"` // 本地时间 "HH:MM"
	DurationMinutes int32      `json:"durationMinutes"`
	ValidFrom       time.Time  `json:"validFrom"`
	ValidUntil      *time.Time `json:"validUntil"`
	Notes           string     `json:"notes"`
	CreatedAt       time.Time  `json:"createdAt"`
	Version         int32      `json:"-"`
}
