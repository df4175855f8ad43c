package domain

import "time"

// Engineer 是一名外勤工程师的容量配置，数据本身由人事方维护，这个子系统只读
type Engineer struct {
	ID                  int64     `json:"id"`
	CompanyID           int64     `json:"companyID"`
	FullName            string    `json:"fullName"`
	Email               string    `json:"email"`
	WorkStartHour       float64   `json:"workStartHour"` // 本地营业时间的小数小时，如 8.5 表示 08:30
	WorkEndHour         float64   `json:"workEndHour"`
	BreakMinutes        int32     `json:"breakMinutes"` // 每日唯一一次休息的时长，休息窗口以工作时间中点为中心
	MaxJobsPerDay       *int32    `json:"maxJobsPerDay"`
	TravelBufferMinutes int32     `json:"travelBufferMinutes"` // 相邻两单之间要求的最小路途间隔
	CreatedAt           time.Time `json:"createdAt"`
	Version             int32     `json:"-"`
}
