package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
)

// AuthClaims 是外部身份服务签发的令牌声明，这里只做验签和能力断言
type AuthClaims struct {
	Role      string `json:"role"`
	CompanyID int64  `json:"companyID"`
	jwt.RegisteredClaims
}

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), RequestIDCtxKey, requestID)

		rw := &ResponseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r.WithContext(ctx))
		duration := time.Since(start)
		slog.Info("已处理请求", "requestID", requestID, "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				stackTrace := string(debug.Stack())
				fmt.Print(stackTrace) // 这里如果用 slog 的话会很乱
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 从 cookie 中获取 token
		cookie, err := r.Cookie("__field_scheduler_token")
		if err != nil {
			switch {
			case errors.Is(err, http.ErrNoCookie):
				h.errorResponse(w, r, http.StatusUnauthorized, "unauthorized", "用户未登录", nil)
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		// 验证 token
		tokenString := cookie.Value
		claims := &AuthClaims{}
		_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.config.JWT.Secret), nil
		})
		if err != nil {
			h.errorResponse(w, r, http.StatusUnauthorized, "unauthorized", "无效的令牌", nil)
			return
		}

		if claims.CompanyID == 0 {
			h.errorResponse(w, r, http.StatusUnauthorized, "unauthorized", "令牌缺少租户信息", nil)
			return
		}

		// 将 claims 中的 role 和 companyID 附在 context 中
		ctx := r.Context()
		ctx = context.WithValue(ctx, RoleCtxKey, claims.Role)
		ctx = context.WithValue(ctx, CompanyIDCtxKey, claims.CompanyID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireCapability 断言调用方持有指定能力之一，所有排班操作统一返回同样的拒绝响应
func (h *Handler) requireCapability(roles ...domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			roleCtx := r.Context().Value(RoleCtxKey).(string)
			role := domain.Role(roleCtx)
			if !slices.Contains(roles, role) {
				h.errorResponse(w, r, http.StatusForbidden, "forbidden", "权限不足", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) companyID(r *http.Request) int64 {
	return r.Context().Value(CompanyIDCtxKey).(int64)
}

func (h *Handler) scheduleEntryCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entryIDParam := chi.URLParam(r, "id")
		entryID, err := strconv.ParseInt(entryIDParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "派工ID无效", nil)
			return
		}

		// 软删除的记录也加载，查询接口要能看到，写接口自己判断
		entry, err := h.repository.GetScheduleEntryByID(h.companyID(r), entryID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "派工记录不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), ScheduleEntryCtxKey, entry)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) recurringScheduleCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ruleIDParam := chi.URLParam(r, "id")
		ruleID, err := strconv.ParseInt(ruleIDParam, 10, 64)
		if err != nil {
			h.errorResponse(w, r, http.StatusBadRequest, "validation_error", "规则ID无效", nil)
			return
		}

		rule, err := h.repository.GetRecurringScheduleByID(h.companyID(r), ruleID)
		if err != nil {
			switch {
			case errors.Is(err, sql.ErrNoRows):
				h.notFound(w, r, "周期规则不存在")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), RecurringScheduleCtxKey, rule)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
