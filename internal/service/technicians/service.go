// Package technicians builds the bookable technician catalog.
package technicians

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"techsupport/backend/internal/directory"
	"techsupport/backend/internal/domain"
	"techsupport/backend/internal/store"
)

type Profile struct {
	directory.Profile
	Availabilities []domain.WeeklySlot
	AverageRating  float64
	RatingCount    int
}

type source interface {
	store.SlotReader
	RatingSummaries(ctx context.Context) ([]domain.RatingSummary, error)
}

type Service struct {
	dir   directory.Directory
	store source
	log   *zap.Logger
}

func NewService(dir directory.Directory, s source, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{dir: dir, store: s, log: log.With(zap.String("component", "technicians"))}
}

// List returns every technician the directory knows, sorted by display name, with their
// weekly windows and rating aggregate.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	people, err := s.dir.ListTechnicians(ctx)
	if err != nil {
		return nil, fmt.Errorf("list technicians: %w", err)
	}

	summaries, err := s.store.RatingSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("rating summaries: %w", err)
	}
	byTech := make(map[string]domain.RatingSummary, len(summaries))
	for _, sum := range summaries {
		byTech[sum.TechnicianID] = sum
	}

	out := make([]Profile, 0, len(people))
	for _, p := range people {
		slots, err := s.store.ListSlots(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("list slots for %s: %w", p.ID, err)
		}
		sum := byTech[p.ID]
		out = append(out, Profile{
			Profile:        p,
			Availabilities: domain.GroupByDay(slots).Flatten(),
			AverageRating:  sum.Average(),
			RatingCount:    sum.Count,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}
