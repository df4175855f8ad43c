package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) ListEngineers(w http.ResponseWriter, r *http.Request) {
	engineers, err := h.repository.GetAllEngineers(h.companyID(r))
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取工程师列表成功", engineers)
}

func (h *Handler) GetEngineer(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "工程师ID无效", nil)
		return
	}

	engineer, err := h.repository.GetEngineerByID(h.companyID(r), id)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			h.notFound(w, r, "工程师不存在")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取工程师成功", engineer)
}
