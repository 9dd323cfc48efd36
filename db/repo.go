package db

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"school_inventory/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repo is the entity store. Every state-changing method runs as one
// transaction opened on the handle it was given; no package-level session
// is shared between calls.
type Repo struct {
	DB  *gorm.DB
	Log *slog.Logger
	Now func() time.Time
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{DB: db, Log: slog.Default(), Now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repo) now() time.Time {
	if r.Now == nil {
		return time.Now().UTC()
	}
	return r.Now().UTC()
}

// Clock is the time the store stamps writes with and evaluates overdue against.
func (r *Repo) Clock() time.Time { return r.now() }

const pgUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// translate maps storage errors onto the models taxonomy.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrConflict):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %s", models.ErrNotFound, what)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", models.ErrConflict, what)
	}
	return err
}

func required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%w: %s is required", models.ErrValidation, field)
	}
	return nil
}
