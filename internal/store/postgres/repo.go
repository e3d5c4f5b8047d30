package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/store"
)

const (
	pgExclusionViolation = "23P01"
	pgUniqueViolation    = "23505"
)

type Repo struct {
	queries
	db *DB
}

var _ store.Store = (*Repo)(nil)

func NewRepo(db *DB) *Repo {
	return &Repo{queries: queries{db: db.DB}, db: db}
}

// queries runs against either the pool or an open transaction.
type queries struct {
	db bun.IDB
}

func (r *Repo) InTechnicianTransaction(ctx context.Context, technicianID string, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockTechnician(ctx, tx, technicianID); err != nil {
			return err
		}
		return fn(ctx, queries{db: tx})
	})
}

func lockTechnician(ctx context.Context, tx bun.Tx, technicianID string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", store.TechnicianLockKey(technicianID)).Exec(ctx)
	return err
}

func (r *Repo) Close() error {
	return Close(r.db)
}

func (r *Repo) ListSlotOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := r.db.NewSelect().
		Model((*domain.WeeklySlot)(nil)).
		Distinct().
		Column("owner_id").
		OrderExpr("owner_id ASC").
		Scan(ctx, &owners)
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (r *Repo) RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error) {
	var rows []domain.RatingSummary
	err := r.db.NewSelect().
		Model((*domain.Appointment)(nil)).
		Column("technician_id").
		ColumnExpr("count(*) AS count").
		ColumnExpr("sum(rating) AS total").
		Where("rating IS NOT NULL").
		Group("technician_id").
		Scan(ctx, &rows)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q queries) GetSlot(ctx context.Context, id uuid.UUID) (domain.WeeklySlot, error) {
	var slot domain.WeeklySlot
	err := q.db.NewSelect().
		Model(&slot).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.WeeklySlot{}, translate(err)
	}
	return slot, nil
}

func (q queries) ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error) {
	var rows []domain.WeeklySlot
	err := q.db.NewSelect().
		Model(&rows).
		Where("owner_id = ?", ownerID).
		OrderExpr("day ASC, start_minute ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q queries) InsertSlot(ctx context.Context, slot domain.WeeklySlot) (domain.WeeklySlot, error) {
	m := slot
	if _, err := q.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.WeeklySlot{}, translate(err)
	}
	return m, nil
}

func (q queries) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.NewDelete().
		Model((*domain.WeeklySlot)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q queries) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := q.db.NewSelect().
		Model(&appt).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Appointment{}, translate(err)
	}
	return appt, nil
}

func (q queries) ListTechnicianAppointments(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	query := q.db.NewSelect().
		Model(&rows).
		Where("technician_id = ?", technicianID)
	if !to.IsZero() {
		query = query.Where("start_at < ?", to)
	}
	if !from.IsZero() {
		query = query.Where("end_at > ?", from)
	}
	if err := query.OrderExpr("start_at ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (q queries) ListRequesterAppointments(ctx context.Context, requesterID string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := q.db.NewSelect().
		Model(&rows).
		Where("requester_id = ?", requesterID).
		OrderExpr("start_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (q queries) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	if _, err := q.db.NewInsert().Model(&m).Exec(ctx); err != nil {
		return domain.Appointment{}, translate(err)
	}
	return m, nil
}

func (q queries) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	res, err := q.db.NewUpdate().
		Model(&m).
		Column("status", "rating", "meeting_link", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, translate(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func translate(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgExclusionViolation:
			if pgErr.ConstraintName == "weekly_slots_no_overlap" || pgErr.ConstraintName == "appointments_no_overlap" {
				return store.ErrConflict
			}
		case pgUniqueViolation:
			return store.ErrConflict
		}
	}
	return err
}
