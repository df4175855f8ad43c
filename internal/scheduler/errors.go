package scheduler

// CapacityError 在容量约束检查不通过时返回，调用方据此渲染 422 响应
type CapacityError struct {
	Violations []CapacityViolation
}

func (e *CapacityError) Error() string {
	return "派工不满足工程师的容量约束"
}

// ConflictError 在冲突检查判定为 clash 或 travel_buffer 时返回
type ConflictError struct {
	Result ConflictResult
}

func (e *ConflictError) Error() string {
	if e.Result.Kind == ConflictClash {
		return "派工和现有安排的时间重叠"
	}
	return "派工和现有安排之间的路途间隔不足"
}
