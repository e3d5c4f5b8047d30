package notify

import (
	"context"

	"go.uber.org/zap"

	"techsupport/backend/internal/domain"
)

type Kind string

const (
	KindRequested   Kind = "appointment.requested"
	KindAccepted    Kind = "appointment.accepted"
	KindRejected    Kind = "appointment.rejected"
	KindCompleted   Kind = "appointment.completed"
	KindRated       Kind = "appointment.rated"
	KindMeetingLink Kind = "appointment.meeting_link"
)

// Event tells Recipient that Appointment changed.
type Event struct {
	Kind        Kind
	Recipient   string
	Appointment domain.Appointment
	// Cascade marks rejections caused by accepting an overlapping request.
	Cascade bool
}

type Notifier interface {
	Notify(ctx context.Context, ev Event) error
}

type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log.With(zap.String("component", "notify"))}
}

func (n *LogNotifier) Notify(ctx context.Context, ev Event) error {
	n.log.Info("notification",
		zap.String("kind", string(ev.Kind)),
		zap.String("recipient", ev.Recipient),
		zap.String("appointment_id", ev.Appointment.ID.String()),
		zap.Stringer("status", ev.Appointment.Status),
		zap.Bool("cascade", ev.Cascade),
	)
	return nil
}
