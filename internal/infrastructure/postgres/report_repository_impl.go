package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oksasatya/hazard-reporting/internal/domain/entity"
	"github.com/oksasatya/hazard-reporting/internal/domain/repository"
)

const reportColumns = `id::text, description, urgency, latitude, longitude, image_url, status,
	reported_by, assigned_to, created_at, updated_at, resolved_at`

type ReportRepository struct {
	pool *pgxpool.Pool
}

func NewReportRepository(pool *pgxpool.Pool) *ReportRepository {
	return &ReportRepository{pool: pool}
}

func (r *ReportRepository) Create(ctx context.Context, rep *entity.Report) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO reports (id, description, urgency, latitude, longitude, image_url, status,
			reported_by, assigned_to, created_at, updated_at, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, rep.ID, rep.Description, string(rep.Urgency), rep.Latitude, rep.Longitude, rep.ImageURL,
		string(rep.Status), rep.ReportedBy, rep.AssignedTo, rep.CreatedAt, rep.UpdatedAt, rep.ResolvedAt)
	return err
}

func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, repository.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1::uuid`, id)
	rep, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return rep, nil
}

func (r *ReportRepository) List(ctx context.Context) ([]*entity.Report, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+reportColumns+` FROM reports ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*entity.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rep)
	}
	return out, rows.Err()
}

// UpdateStatus is a single conditional write: the row changes only if its current
// status is one of ch.From, so concurrent updates cannot skip the state machine.
// resolved_at is kept on a Resolved no-op, stamped on entry to Resolved and cleared
// otherwise. updated_at never moves backwards.
func (r *ReportRepository) UpdateStatus(ctx context.Context, ch repository.StatusChange) (*entity.Report, error) {
	if _, err := uuid.Parse(ch.ID); err != nil {
		return nil, repository.ErrNotFound
	}
	from := make([]string, len(ch.From))
	for i, s := range ch.From {
		from[i] = string(s)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE reports
		SET status = $2::text,
			resolved_at = CASE
				WHEN $2::text = 'Resolved' AND status = 'Resolved' THEN resolved_at
				WHEN $2::text = 'Resolved' THEN $4::timestamptz
				ELSE NULL
			END,
			assigned_to = CASE
				WHEN assigned_to = '' AND status = 'New' AND $2::text <> 'New' THEN $5::text
				ELSE assigned_to
			END,
			updated_at = GREATEST(updated_at, $4::timestamptz)
		WHERE id = $1::uuid AND status = ANY($3::text[])
		RETURNING `+reportColumns,
		ch.ID, string(ch.To), from, ch.At, ch.Actor)

	rep, err := scanReport(row)
	if err == nil {
		return rep, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reports WHERE id = $1::uuid)`, ch.ID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, repository.ErrNotFound
	}
	return nil, entity.ErrInvalidTransition
}

func scanReport(row pgx.Row) (*entity.Report, error) {
	rep := &entity.Report{}
	var urgency, status string
	if err := row.Scan(&rep.ID, &rep.Description, &urgency, &rep.Latitude, &rep.Longitude, &rep.ImageURL,
		&status, &rep.ReportedBy, &rep.AssignedTo, &rep.CreatedAt, &rep.UpdatedAt, &rep.ResolvedAt); err != nil {
		return nil, err
	}
	rep.Urgency = entity.Urgency(urgency)
	rep.Status = entity.ReportStatus(status)
	return rep, nil
}

var _ repository.ReportRepository = (*ReportRepository)(nil)
