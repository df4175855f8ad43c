package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/scheduler"
)

func (h *Handler) CreateRecurringSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID           string     `json:"jobID"`
		EngineerID      int64      `json:"engineerID" validate:"required"`
		Pattern         string     `json:"pattern" validate:"required"`
		StartTime       string     `json:"startTime" validate:"required"`
		DurationMinutes int32      `json:"durationMinutes" validate:"required,gt=0"`
		ValidFrom       time.Time  `json:"validFrom" validate:"required"`
		ValidUntil      *time.Time `json:"validUntil"`
		Notes           string     `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	pattern, err := scheduler.ParsePattern(req.Pattern)
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", fmt.Sprintf("周期模式无效: %v", err), nil)
		return
	}
	if _, _, err := scheduler.ParseStartTime(req.StartTime); err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "开始时间必须是 HH:MM 格式", nil)
		return
	}
	if req.ValidUntil != nil && req.ValidUntil.Before(req.ValidFrom) {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "失效日期不能早于生效日期", nil)
		return
	}

	companyID := h.companyID(r)
	if _, err := h.repository.GetEngineerByID(companyID, req.EngineerID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "工程师不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	rule := &domain.RecurringSchedule{
		CompanyID:       companyID,
		JobID:           req.JobID,
		EngineerID:      req.EngineerID,
		RawPattern:      req.Pattern,
		Pattern:         pattern,
		StartTime:       req.StartTime,
		DurationMinutes: req.DurationMinutes,
		ValidFrom:       req.ValidFrom,
		ValidUntil:      req.ValidUntil,
		Notes:           req.Notes,
	}

	if err := h.repository.CreateRecurringSchedule(rule); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.createdResponse(w, r, "创建周期规则成功", rule)
}

func (h *Handler) GetRecurringSchedule(w http.ResponseWriter, r *http.Request) {
	rule := r.Context().Value(RecurringScheduleCtxKey).(*domain.RecurringSchedule)

	h.successResponse(w, r, "获取周期规则成功", rule)
}

func (h *Handler) ListRecurringSchedules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.repository.GetAllRecurringSchedules(h.companyID(r))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取周期规则列表成功", rules)
}

func (h *Handler) UpdateRecurringSchedule(w http.ResponseWriter, r *http.Request) {
	rule := r.Context().Value(RecurringScheduleCtxKey).(*domain.RecurringSchedule)

	var req struct {
		JobID           *string    `json:"jobID"`
		Pattern         *string    `json:"pattern"`
		StartTime       *string    `json:"startTime"`
		DurationMinutes *int32     `json:"durationMinutes" validate:"omitempty,gt=0"`
		ValidFrom       *time.Time `json:"validFrom"`
		ValidUntil      *time.Time `json:"validUntil"`
		Notes           *string    `json:"notes"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if req.JobID != nil {
		rule.JobID = *req.JobID
	}
	if req.Pattern != nil {
		pattern, err := scheduler.ParsePattern(*req.Pattern)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "validation_error", fmt.Sprintf("周期模式无效: %v", err), nil)
			return
		}
		rule.RawPattern = *req.Pattern
		rule.Pattern = pattern
	}
	if req.StartTime != nil {
		if _, _, err := scheduler.ParseStartTime(*req.StartTime); err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "开始时间必须是 HH:MM 格式", nil)
			return
		}
		rule.StartTime = *req.StartTime
	}
	if req.DurationMinutes != nil {
		rule.DurationMinutes = *req.DurationMinutes
	}
	if req.ValidFrom != nil {
		rule.ValidFrom = *req.ValidFrom
	}
	if req.ValidUntil != nil {
		rule.ValidUntil = req.ValidUntil
	}
	if req.Notes != nil {
		rule.Notes = *req.Notes
	}

	if rule.ValidUntil != nil && rule.ValidUntil.Before(rule.ValidFrom) {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "失效日期不能早于生效日期", nil)
		return
	}

	if err := h.repository.UpdateRecurringSchedule(rule); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.errorResponse(w, r, http.StatusConflict, "stale_version", "周期规则已被其他人修改，请刷新后重试", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "更新周期规则成功", rule)
}

func (h *Handler) DeleteRecurringSchedule(w http.ResponseWriter, r *http.Request) {
	rule := r.Context().Value(RecurringScheduleCtxKey).(*domain.RecurringSchedule)

	if err := h.repository.DeleteRecurringSchedule(rule.CompanyID, rule.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "周期规则不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除周期规则成功", nil)
}

// GenerateWeek 把本租户的周期规则展开成目标周的派工记录。
// 同一周可以重复调用，已生成的记录不会重复产生
func (h *Handler) GenerateWeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TargetWeekStart string `json:"targetWeekStart" validate:"required"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	target, err := time.Parse(time.RFC3339, req.TargetWeekStart)
	if err != nil {
		target, err = time.ParseInLocation("2006-01-02", req.TargetWeekStart, h.location)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "targetWeekStart 参数无效", nil)
			return
		}
	}

	companyID := h.companyID(r)
	// 周起点统一归一化到周一，传周中任何一天效果相同
	weekStart := scheduler.WeekStart(target, h.location)
	weekEnd := weekStart.AddDate(0, 0, 7)

	// 同一租户同一周的生成不允许并发执行
	lockKey := fmt.Sprintf("schedule_generate_%d_%s", companyID, weekStart.Format("2006-01-02"))
	ok, err := h.redisClient.SetNX(r.Context(), lockKey, "1", time.Duration(h.config.Schedule.GenerateLockExpiration)*time.Second).Result()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}
	if !ok {
		h.errorResponse(w, r, http.StatusConflict, "generation_in_progress", "该周的生成任务正在进行中，请稍后再试", nil)
		return
	}
	defer func() {
		if err := h.redisClient.Del(r.Context(), lockKey).Err(); err != nil {
			slog.Error("释放生成锁失败", "key", lockKey, "error", err)
		}
	}()

	rules, err := h.repository.GetActiveRecurringSchedules(companyID, weekStart, weekEnd)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	parsed := make([]*domain.RecurringSchedule, 0, len(rules))
	for _, rule := range rules {
		pattern, err := scheduler.ParsePattern(rule.RawPattern)
		if err != nil {
			// 库里存在解析不了的规则只跳过本条，不让整周生成失败
			slog.Warn("跳过无法解析的周期规则", "ruleID", rule.ID, "pattern", rule.RawPattern, "error", err)
			continue
		}
		rule.Pattern = pattern
		parsed = append(parsed, rule)
	}

	var summary scheduler.GenerateSummary
	var candidates []scheduler.GenerateCandidate
	inserted, err := h.repository.GenerateWeekEntries(companyID, weekStart, weekEnd, func(existing []*domain.ScheduleEntry) []*domain.ScheduleEntry {
		existingKeys := make(map[string]struct{}, len(existing))
		for _, entry := range existing {
			existingKeys[scheduler.DedupKey(entry.EngineerID, entry.JobID, entry.StartAt, h.location)] = struct{}{}
		}

		candidates, summary = scheduler.ExpandWeek(parsed, weekStart, existingKeys, h.location)

		entries := make([]*domain.ScheduleEntry, len(candidates))
		for i, c := range candidates {
			entries[i] = &domain.ScheduleEntry{
				CompanyID:  companyID,
				JobID:      c.JobID,
				EngineerID: c.EngineerID,
				StartAt:    c.StartAt,
				EndAt:      c.EndAt,
				Status:     domain.EntryStatusScheduled,
			}
		}
		return entries
	})
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 以数据库实际插入数为准，唯一索引兜掉的重复不计入
	created := 0
	for _, n := range inserted {
		created += n
	}
	summary.Created = created

	for engineerID, n := range inserted {
		if n == 0 {
			continue
		}
		engineer, err := h.repository.GetEngineerByID(companyID, engineerID)
		if err != nil {
			slog.Warn("生成通知时查询工程师失败", "engineerID", engineerID, "error", err)
			continue
		}
		h.publishNotify(&domain.NotifyMessage{
			Type: "week_generated",
			To:   engineer.Email,
			Data: domain.WeekGeneratedNotifyData{
				EngineerName: engineer.FullName,
				WeekStart:    weekStart.Format("2006-01-02"),
				Created:      n,
			},
		})
	}

	h.successResponse(w, r, "生成周排班成功", summary)
}
