package repository

import (
	"context"
	"time"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
)

// StatusChange is a single conditional status write.
// The store applies it only when the current status is one of From.
type StatusChange struct {
	ID    string
	To    entity.ReportStatus
	From  []entity.ReportStatus
	Actor string
	At    time.Time
}

// ReportRepository is the Report Store. Reports are never deleted.
type ReportRepository interface {
	Create(ctx context.Context, r *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	// List returns reports ordered by created_at descending.
	List(ctx context.Context) ([]*entity.Report, error)
	// UpdateStatus matches by id and current status and sets the new fields atomically.
	// It returns ErrNotFound for an unknown id and entity.ErrInvalidTransition when
	// the current status is not in From.
	UpdateStatus(ctx context.Context, ch StatusChange) (*entity.Report, error)
}
