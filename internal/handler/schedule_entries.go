package handler

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/repository"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/scheduler"
)

// entryBrief 是冲突响应里引用到的现有派工摘要
type entryBrief struct {
	ID      int64     `json:"id"`
	StartAt time.Time `json:"startAt"`
	EndAt   time.Time `json:"endAt"`
}

func briefEntries(entries []*domain.ScheduleEntry) []entryBrief {
	briefs := make([]entryBrief, len(entries))
	for i, entry := range entries {
		briefs[i] = entryBrief{ID: entry.ID, StartAt: entry.StartAt, EndAt: entry.EndAt}
	}
	return briefs
}

// resolveEngineer 按 ID 或邮箱解析本租户的工程师
func (h *Handler) resolveEngineer(companyID, engineerID int64, engineerEmail string) (*domain.Engineer, error) {
	if engineerID != 0 {
		return h.repository.GetEngineerByID(companyID, engineerID)
	}
	return h.repository.GetEngineerByEmail(companyID, engineerEmail)
}

// entryWriteCheck 构建写入临界区里要重新执行的校验。
// 冲突检查要把现有派工按双侧外扩后的窗口读出来，所以这里取两倍路途间隔
func (h *Handler) entryWriteCheck(engineer *domain.Engineer, entry *domain.ScheduleEntry, excludeID int64, force bool) repository.EntryWriteCheck {
	window := 2 * time.Duration(engineer.TravelBufferMinutes) * time.Minute

	return repository.EntryWriteCheck{
		WindowFrom: entry.StartAt.Add(-window),
		WindowTo:   entry.EndAt.Add(window),
		ExcludeID:  excludeID,
		Recheck: func(sameDayCount int32, nearby []*domain.ScheduleEntry) error {
			violations := scheduler.CheckCapacity(scheduler.CapacityInput{
				Start:        entry.StartAt,
				End:          entry.EndAt,
				Engineer:     engineer,
				SameDayCount: sameDayCount,
				Force:        force,
				Policy:       h.workingHoursPolicy(),
				Location:     h.location,
			})

			// advise 策略下超出工作时间只提示，不拦截
			for _, v := range violations {
				if !v.Blocking {
					slog.Warn("派工超出工程师的工作时间", "companyID", entry.CompanyID, "engineerID", engineer.ID, "startAt", entry.StartAt, "endAt", entry.EndAt)
				}
			}
			if blocking := scheduler.BlockingViolations(violations); len(blocking) > 0 {
				return &scheduler.CapacityError{Violations: blocking}
			}

			result := scheduler.CheckConflicts(entry.StartAt, entry.EndAt, nearby, engineer.TravelBufferMinutes)
			if result.Kind != scheduler.ConflictClean {
				return &scheduler.ConflictError{Result: result}
			}

			return nil
		},
	}
}

// writeScheduleError 把业务违规转换成对应的响应：
// 硬冲突 409，容量违规和路途间隔不足 422，其余按基础设施错误处理。
// 返回 true 表示错误已经写出响应
func (h *Handler) writeScheduleError(w http.ResponseWriter, r *http.Request, err error) bool {
	var capErr *scheduler.CapacityError
	var conflictErr *scheduler.ConflictError

	switch {
	case errors.As(err, &capErr):
		h.errorResponse(w, r, http.StatusUnprocessableEntity, capErr.Violations[0].Code, capErr.Error(), map[string]any{
			"violations": capErr.Violations,
		})
		return true
	case errors.As(err, &conflictErr):
		if conflictErr.Result.Kind == scheduler.ConflictClash {
			h.errorResponse(w, r, http.StatusConflict, scheduler.CodeClash, conflictErr.Error(), map[string]any{
				"clashWith": briefEntries(conflictErr.Result.Entries),
			})
		} else {
			h.errorResponse(w, r, http.StatusUnprocessableEntity, scheduler.CodeTravelBufferViolation, conflictErr.Error(), map[string]any{
				"nearby": briefEntries(conflictErr.Result.Entries),
			})
		}
		return true
	default:
		return false
	}
}

func (h *Handler) CreateScheduleEntry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		JobID         string    `json:"jobID" validate:"required"`
		EngineerID    int64     `json:"engineerID"`
		EngineerEmail string    `json:"engineerEmail" validate:"omitempty,email"`
		StartAt       time.Time `json:"startAt" validate:"required"`
		EndAt         time.Time `json:"endAt" validate:"required"`
		Notes         string    `json:"notes"`
		Force         bool      `json:"force"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if req.EngineerID == 0 && req.EngineerEmail == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "必须提供工程师ID或邮箱", nil)
		return
	}
	if !req.EndAt.After(req.StartAt) {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "结束时间必须晚于开始时间", nil)
		return
	}

	companyID := h.companyID(r)
	engineer, err := h.resolveEngineer(companyID, req.EngineerID, req.EngineerEmail)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "工程师不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	entry := &domain.ScheduleEntry{
		CompanyID:  companyID,
		JobID:      req.JobID,
		EngineerID: engineer.ID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Status:     domain.EntryStatusScheduled,
		Notes:      req.Notes,
	}

	// 校验和插入在同一个临界区里执行，见 repository.CreateScheduleEntryChecked
	if err := h.repository.CreateScheduleEntryChecked(entry, h.entryWriteCheck(engineer, entry, 0, req.Force)); err != nil {
		if h.writeScheduleError(w, r, err) {
			return
		}
		h.internalServerError(w, r, err)
		return
	}

	h.publishNotify(&domain.NotifyMessage{
		Type: "entry_created",
		To:   engineer.Email,
		Data: domain.EntryCreatedNotifyData{
			EngineerName: engineer.FullName,
			JobID:        entry.JobID,
			StartAt:      entry.StartAt.In(h.location).Format(time.RFC3339),
			EndAt:        entry.EndAt.In(h.location).Format(time.RFC3339),
		},
	})

	h.createdResponse(w, r, "创建派工成功", entry)
}

func (h *Handler) GetScheduleEntry(w http.ResponseWriter, r *http.Request) {
	entry := r.Context().Value(ScheduleEntryCtxKey).(*domain.ScheduleEntry)

	h.successResponse(w, r, "获取派工成功", entry)
}

func (h *Handler) UpdateScheduleEntry(w http.ResponseWriter, r *http.Request) {
	entry := r.Context().Value(ScheduleEntryCtxKey).(*domain.ScheduleEntry)

	// 软删除的记录不允许再修改
	if entry.IsDeleted() {
		h.notFound(w, r, "派工记录不存在")
		return
	}

	var req struct {
		JobID      *string    `json:"jobID"`
		EngineerID *int64     `json:"engineerID"`
		StartAt    *time.Time `json:"startAt"`
		EndAt      *time.Time `json:"endAt"`
		Status     *string    `json:"status" validate:"omitempty,oneof=scheduled en_route on_site in_progress completed"`
		Notes      *string    `json:"notes"`
		Force      bool       `json:"force"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	// 把补丁合并进现有记录，校验针对合并后的最终状态执行
	if req.JobID != nil {
		entry.JobID = *req.JobID
	}
	if req.EngineerID != nil {
		entry.EngineerID = *req.EngineerID
	}
	if req.StartAt != nil {
		entry.StartAt = *req.StartAt
	}
	if req.EndAt != nil {
		entry.EndAt = *req.EndAt
	}
	if req.Status != nil {
		entry.Status = domain.EntryStatus(*req.Status)
	}
	if req.Notes != nil {
		entry.Notes = *req.Notes
	}

	if entry.JobID == "" {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "工单不能为空", nil)
		return
	}
	if !entry.EndAt.After(entry.StartAt) {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "结束时间必须晚于开始时间", nil)
		return
	}

	engineer, err := h.repository.GetEngineerByID(entry.CompanyID, entry.EngineerID)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "工程师不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 冲突和容量统计都要把这条记录自己排除掉
	if err := h.repository.UpdateScheduleEntryChecked(entry, h.entryWriteCheck(engineer, entry, entry.ID, req.Force)); err != nil {
		if h.writeScheduleError(w, r, err) {
			return
		}
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 版本不匹配，说明记录刚被其他人修改或删除
			h.errorResponse(w, r, http.StatusConflict, "stale_version", "派工记录已被其他人修改，请刷新后重试", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.publishNotify(&domain.NotifyMessage{
		Type: "entry_updated",
		To:   engineer.Email,
		Data: domain.EntryUpdatedNotifyData{
			EngineerName: engineer.FullName,
			JobID:        entry.JobID,
			StartAt:      entry.StartAt.In(h.location).Format(time.RFC3339),
			EndAt:        entry.EndAt.In(h.location).Format(time.RFC3339),
			Status:       string(entry.Status),
		},
	})

	h.successResponse(w, r, "更新派工成功", entry)
}

func (h *Handler) DeleteScheduleEntry(w http.ResponseWriter, r *http.Request) {
	entry := r.Context().Value(ScheduleEntryCtxKey).(*domain.ScheduleEntry)

	if err := h.repository.SoftDeleteScheduleEntry(entry.CompanyID, entry.ID); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			// 重复删除按不存在处理，不做静默成功
			h.notFound(w, r, "派工记录不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	if engineer, err := h.repository.GetEngineerByID(entry.CompanyID, entry.EngineerID); err == nil {
		h.publishNotify(&domain.NotifyMessage{
			Type: "entry_cancelled",
			To:   engineer.Email,
			Data: domain.EntryCancelledNotifyData{
				EngineerName: engineer.FullName,
				JobID:        entry.JobID,
				StartAt:      entry.StartAt.In(h.location).Format(time.RFC3339),
			},
		})
	}

	h.successResponse(w, r, "删除派工成功", nil)
}

func (h *Handler) ListScheduleEntries(w http.ResponseWriter, r *http.Request) {
	from, err := time.Parse(time.RFC3339, r.URL.Query().Get("from"))
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "from 参数无效", nil)
		return
	}
	to, err := time.Parse(time.RFC3339, r.URL.Query().Get("to"))
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "to 参数无效", nil)
		return
	}
	if !to.After(from) {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "to 必须晚于 from", nil)
		return
	}

	entries, err := h.repository.GetEntriesInWindow(h.companyID(r), from, to)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	// 看板级撞单报告只是诊断快照，和写入时的拦截检查互相独立
	clashes := scheduler.FindClashes(entries)

	h.successResponse(w, r, "获取排班看板成功", map[string]any{
		"entries": entries,
		"clashes": clashes,
	})
}
