package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/store"
)

type slotRow struct {
	ID          string `gorm:"primaryKey"`
	OwnerID     string `gorm:"not null;index:idx_slots_owner_day"`
	Day         int    `gorm:"not null;index:idx_slots_owner_day"`
	StartMinute int    `gorm:"not null"`
	EndMinute   int    `gorm:"not null"`
	CreatedAt   time.Time
}

func (slotRow) TableName() string { return "weekly_slots" }

type appointmentRow struct {
	ID           string    `gorm:"primaryKey"`
	RequesterID  string    `gorm:"not null;index"`
	TechnicianID string    `gorm:"not null;index:idx_appointments_technician_start"`
	StartAt      time.Time `gorm:"not null;index:idx_appointments_technician_start"`
	EndAt        time.Time `gorm:"not null"`
	Status       int       `gorm:"not null;default:0"`
	Rating       *int
	MeetingLink  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (appointmentRow) TableName() string { return "appointments" }

// Store keeps everything in one SQLite file. Writers are serialized by a process mutex
// and a single-connection pool.
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

var _ store.Store = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&slotRow{}, &appointmentRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) InTechnicianTransaction(ctx context.Context, technicianID string, fn func(ctx context.Context, tx store.SchedulingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, queries{db: tx})
	})
}

func (s *Store) q(ctx context.Context) queries {
	return queries{db: s.db.WithContext(ctx)}
}

func (s *Store) GetSlot(ctx context.Context, id uuid.UUID) (domain.WeeklySlot, error) {
	return s.q(ctx).GetSlot(ctx, id)
}

func (s *Store) ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error) {
	return s.q(ctx).ListSlots(ctx, ownerID)
}

func (s *Store) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return s.q(ctx).GetAppointment(ctx, id)
}

func (s *Store) ListTechnicianAppointments(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error) {
	return s.q(ctx).ListTechnicianAppointments(ctx, technicianID, from, to)
}

func (s *Store) ListRequesterAppointments(ctx context.Context, requesterID string) ([]domain.Appointment, error) {
	return s.q(ctx).ListRequesterAppointments(ctx, requesterID)
}

func (s *Store) ListSlotOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := s.db.WithContext(ctx).
		Model(&slotRow{}).
		Distinct("owner_id").
		Order("owner_id ASC").
		Pluck("owner_id", &owners).Error
	if err != nil {
		return nil, err
	}
	return owners, nil
}

func (s *Store) RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error) {
	var rows []struct {
		TechnicianID string
		Count        int
		Total        int
	}
	err := s.db.WithContext(ctx).
		Model(&appointmentRow{}).
		Select("technician_id, count(*) AS count, sum(rating) AS total").
		Where("rating IS NOT NULL").
		Group("technician_id").
		Order("technician_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.RatingSummary, 0, len(rows))
	for _, r := range rows {
		out = append(out, domain.RatingSummary{TechnicianID: r.TechnicianID, Count: r.Count, Total: r.Total})
	}
	return out, nil
}

type queries struct {
	db *gorm.DB
}

func (q queries) GetSlot(ctx context.Context, id uuid.UUID) (domain.WeeklySlot, error) {
	var row slotRow
	if err := q.db.Where("id = ?", id.String()).Take(&row).Error; err != nil {
		return domain.WeeklySlot{}, translate(err)
	}
	return row.toDomain()
}

func (q queries) ListSlots(ctx context.Context, ownerID string) ([]domain.WeeklySlot, error) {
	var rows []slotRow
	err := q.db.Where("owner_id = ?", ownerID).
		Order("day ASC").
		Order("start_minute ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.WeeklySlot, 0, len(rows))
	for _, r := range rows {
		slot, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, nil
}

func (q queries) InsertSlot(ctx context.Context, slot domain.WeeklySlot) (domain.WeeklySlot, error) {
	var overlapping int64
	err := q.db.Model(&slotRow{}).
		Where("owner_id = ? AND day = ?", slot.OwnerID, int(slot.Day)).
		Where("start_minute < ? AND end_minute > ?", int(slot.End), int(slot.Start)).
		Count(&overlapping).Error
	if err != nil {
		return domain.WeeklySlot{}, err
	}
	if overlapping > 0 {
		return domain.WeeklySlot{}, store.ErrConflict
	}

	if slot.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.WeeklySlot{}, err
		}
		slot.ID = id
	}
	row := slotFromDomain(slot)
	if err := q.db.Create(&row).Error; err != nil {
		return domain.WeeklySlot{}, translate(err)
	}
	return row.toDomain()
}

func (q queries) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	res := q.db.Where("id = ?", id.String()).Delete(&slotRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (q queries) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var row appointmentRow
	if err := q.db.Where("id = ?", id.String()).Take(&row).Error; err != nil {
		return domain.Appointment{}, translate(err)
	}
	return row.toDomain()
}

func (q queries) ListTechnicianAppointments(ctx context.Context, technicianID string, from, to time.Time) ([]domain.Appointment, error) {
	query := q.db.Where("technician_id = ?", technicianID)
	if !to.IsZero() {
		query = query.Where("start_at < ?", to)
	}
	if !from.IsZero() {
		query = query.Where("end_at > ?", from)
	}
	var rows []appointmentRow
	if err := query.Order("start_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return appointmentsToDomain(rows)
}

func (q queries) ListRequesterAppointments(ctx context.Context, requesterID string) ([]domain.Appointment, error) {
	var rows []appointmentRow
	if err := q.db.Where("requester_id = ?", requesterID).Order("start_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return appointmentsToDomain(rows)
}

func (q queries) InsertAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if err := q.ensureUnoccupied(appt); err != nil {
		return domain.Appointment{}, err
	}
	if appt.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return domain.Appointment{}, err
		}
		appt.ID = id
	}
	row := appointmentFromDomain(appt)
	if err := q.db.Create(&row).Error; err != nil {
		return domain.Appointment{}, translate(err)
	}
	return row.toDomain()
}

func (q queries) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	current, err := q.GetAppointment(ctx, appt.ID)
	if err != nil {
		return domain.Appointment{}, err
	}
	current.Status = appt.Status
	current.Rating = appt.Rating
	current.MeetingLink = appt.MeetingLink
	if err := q.ensureUnoccupied(current); err != nil {
		return domain.Appointment{}, err
	}

	res := q.db.Model(&appointmentRow{}).
		Where("id = ?", appt.ID.String()).
		Updates(map[string]any{
			"status":       int(current.Status),
			"rating":       current.Rating,
			"meeting_link": current.MeetingLink,
			"updated_at":   time.Now().UTC(),
		})
	if res.Error != nil {
		return domain.Appointment{}, res.Error
	}
	if res.RowsAffected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return q.GetAppointment(ctx, appt.ID)
}

// ensureUnoccupied stands in for the exclusion constraint SQLite does not have.
func (q queries) ensureUnoccupied(appt domain.Appointment) error {
	if !appt.Status.Occupies() {
		return nil
	}
	var n int64
	err := q.db.Model(&appointmentRow{}).
		Where("technician_id = ? AND id <> ?", appt.TechnicianID, appt.ID.String()).
		Where("status IN ?", []int{int(domain.StatusAccepted), int(domain.StatusCompleted)}).
		Where("start_at < ? AND end_at > ?", appt.EndTime, appt.StartTime).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return store.ErrConflict
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return store.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return store.ErrConflict
	default:
		return err
	}
}

func slotFromDomain(s domain.WeeklySlot) slotRow {
	return slotRow{
		ID:          s.ID.String(),
		OwnerID:     s.OwnerID,
		Day:         int(s.Day),
		StartMinute: int(s.Start),
		EndMinute:   int(s.End),
		CreatedAt:   s.CreatedAt,
	}
}

func (r slotRow) toDomain() (domain.WeeklySlot, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.WeeklySlot{}, fmt.Errorf("slot id %q: %w", r.ID, err)
	}
	return domain.WeeklySlot{
		ID:        id,
		OwnerID:   r.OwnerID,
		Day:       domain.Weekday(r.Day),
		Start:     domain.ClockTime(r.StartMinute),
		End:       domain.ClockTime(r.EndMinute),
		CreatedAt: r.CreatedAt.UTC(),
	}, nil
}

func appointmentFromDomain(a domain.Appointment) appointmentRow {
	return appointmentRow{
		ID:           a.ID.String(),
		RequesterID:  a.RequesterID,
		TechnicianID: a.TechnicianID,
		StartAt:      a.StartTime,
		EndAt:        a.EndTime,
		Status:       int(a.Status),
		Rating:       a.Rating,
		MeetingLink:  a.MeetingLink,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func (r appointmentRow) toDomain() (domain.Appointment, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return domain.Appointment{}, fmt.Errorf("appointment id %q: %w", r.ID, err)
	}
	return domain.Appointment{
		ID:           id,
		RequesterID:  r.RequesterID,
		TechnicianID: r.TechnicianID,
		StartTime:    domain.Naive(r.StartAt),
		EndTime:      domain.Naive(r.EndAt),
		Status:       domain.Status(r.Status),
		Rating:       r.Rating,
		MeetingLink:  r.MeetingLink,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}, nil
}

func appointmentsToDomain(rows []appointmentRow) ([]domain.Appointment, error) {
	out := make([]domain.Appointment, 0, len(rows))
	for _, r := range rows {
		a, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
