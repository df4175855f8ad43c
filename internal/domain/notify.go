package domain

type NotifyMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type EntryCreatedNotifyData struct {
	EngineerName string `json:"engineerName"`
	JobID        string `json:"jobID"`
	StartAt      string `json:"startAt"`
	EndAt        string `json:"endAt"`
}

type EntryUpdatedNotifyData struct {
	EngineerName string `json:"engineerName"`
	JobID        string `json:"jobID"`
	StartAt      string `json:"startAt"`
	EndAt        string `json:"endAt"`
	Status       string `json:"status"`
}

type EntryCancelledNotifyData struct {
	EngineerName string `json:"engineerName"`
	JobID        string `json:"jobID"`
	StartAt      string `json:"startAt"`
}

type WeekGeneratedNotifyData struct {
	EngineerName string `json:"engineerName"`
	WeekStart    string `json:"weekStart"`
	Created      int    `json:"created"`
}
