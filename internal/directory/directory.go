// Package directory lists the people who can be booked as technicians.
package directory

import (
	"context"
	"errors"
)

var (
	ErrUnavailable   = errors.New("technician directory unavailable")
	ErrMisconfigured = errors.New("technician directory misconfigured")
)

type Profile struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
}

type Directory interface {
	ListTechnicians(ctx context.Context) ([]Profile, error)
}

type ownerLister interface {
	ListSlotOwners(ctx context.Context) ([]string, error)
}

// Owners treats everyone who published availability as a technician. Profiles carry the
// id only.
type Owners struct {
	store ownerLister
}

func NewOwners(s ownerLister) *Owners {
	return &Owners{store: s}
}

func (o *Owners) ListTechnicians(ctx context.Context) ([]Profile, error) {
	ids, err := o.store.ListSlotOwners(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(ids))
	for _, id := range ids {
		out = append(out, Profile{ID: id, DisplayName: id})
	}
	return out, nil
}
