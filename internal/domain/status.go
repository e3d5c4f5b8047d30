package domain

import "strconv"

// Status is encoded 0-3 on the wire and in storage.
type Status int8

const (
	StatusPending Status = iota
	StatusAccepted
	StatusRejected
	StatusCompleted
)

func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCompleted
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusAccepted:
		return "Accepted"
	case StatusRejected:
		return "Rejected"
	case StatusCompleted:
		return "Completed"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusCompleted:
		return true
	case StatusPending, StatusAccepted:
		return false
	default:
		return false
	}
}

// Occupies reports whether an appointment in this status consumes the technician's time.
func (s Status) Occupies() bool {
	switch s {
	case StatusAccepted, StatusCompleted:
		return true
	case StatusPending, StatusRejected:
		return false
	default:
		return false
	}
}

func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected
	case StatusAccepted:
		return next == StatusCompleted
	case StatusRejected, StatusCompleted:
		return false
	default:
		return false
	}
}
