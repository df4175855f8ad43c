package handler

type ContextKey string

var (
	RoleCtxKey              ContextKey = "role"
	CompanyIDCtxKey         ContextKey = "companyID"
	RequestIDCtxKey         ContextKey = "requestID"
	ScheduleEntryCtxKey     ContextKey = "scheduleEntry"
	RecurringScheduleCtxKey ContextKey = "recurringSchedule"
)
