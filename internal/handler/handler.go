package handler

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/config"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/domain"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/repository"
	"github.com/fieldserve-dev/field-scheduler/backend/internal/scheduler"
)

type Handler struct {
	validate      *validator.Validate
	config        *config.Config
	repository    *repository.Repository
	translator    ut.Translator
	notifyChannel *amqp.Channel
	redisClient   *redis.Client
	location      *time.Location

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo *repository.Repository, notifyCh *amqp.Channel, rdb *redis.Client, loc *time.Location) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:      validate,
		config:        cfg,
		repository:    repo,
		translator:    trans,
		notifyChannel: notifyCh,
		redisClient:   rdb,
		location:      loc,

		Mux: chi.NewRouter(),
	}, nil
}

// workingHoursPolicy 把配置里的策略交给容量校验，create 和 update 使用同一个口径
func (h *Handler) workingHoursPolicy() scheduler.WorkingHoursPolicy {
	if h.config.Schedule.WorkingHoursPolicy == string(scheduler.PolicyAdvise) {
		return scheduler.PolicyAdvise
	}
	return scheduler.PolicyBlock
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 所有排班接口都必须登录，并且持有 admin 或 office 能力
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.Use(h.requireCapability(domain.RoleAdmin, domain.RoleOffice))

		r.Route("/schedule-entries", func(r chi.Router) {
			r.Post("/", h.CreateScheduleEntry)
			r.Get("/", h.ListScheduleEntries)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.scheduleEntryCtx)
				r.Get("/", h.GetScheduleEntry)
				r.Patch("/", h.UpdateScheduleEntry)
				r.Delete("/", h.DeleteScheduleEntry)
			})
		})

		r.Route("/recurring-schedules", func(r chi.Router) {
			r.Post("/", h.CreateRecurringSchedule)
			r.Get("/", h.ListRecurringSchedules)
			r.Post("/generate", h.GenerateWeek)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.recurringScheduleCtx)
				r.Get("/", h.GetRecurringSchedule)
				r.Patch("/", h.UpdateRecurringSchedule)
				r.Delete("/", h.DeleteRecurringSchedule)
			})
		})

		// 工程师数据由人事方维护，这里只读，供界面展示容量配置
		r.Route("/engineers", func(r chi.Router) {
			r.Get("/", h.ListEngineers)
			r.Get("/{id}", h.GetEngineer)
		})
	})
}
