package repository

import (
	"database/sql"
	"time"

	"github.com/fieldserve-dev/field-scheduler/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
	loc    *time.Location
}

func NewRepository(cfg *config.Config, dbpool *sql.DB, loc *time.Location) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
		loc:    loc,
	}
}
