package domain

import "errors"

// Error is a scheduling rule violation. Code is stable and safe to expose to clients;
// errors.Is matches on Code so a re-messaged error still equals its sentinel.
type Error struct {
	code string
	msg  string
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Code() string {
	return e.code
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.code == e.code
}

func (e *Error) WithMessage(msg string) *Error {
	return &Error{code: e.code, msg: msg}
}

var (
	ErrInvalidInput  = &Error{code: "INVALID_INPUT", msg: "invalid input"}
	ErrInvalidRange  = &Error{code: "INVALID_RANGE", msg: "end must be after start"}
	ErrOverlap       = &Error{code: "OVERLAP", msg: "time range overlaps an existing availability window"}
	ErrNotFound      = &Error{code: "NOT_FOUND", msg: "not found"}
	ErrNotOwner      = &Error{code: "NOT_OWNER", msg: "only the owner can change this availability window"}
	ErrNotTechnician = &Error{code: "NOT_TECHNICIAN", msg: "only the assigned technician can do this"}
	ErrNotRequester  = &Error{code: "NOT_REQUESTER", msg: "only the requester can do this"}
	ErrInvalidState  = &Error{code: "INVALID_STATE", msg: "appointment is not in a state that allows this"}
	ErrAlreadyRated  = &Error{code: "ALREADY_RATED", msg: "appointment was already rated"}
	ErrOutOfRange    = &Error{code: "OUT_OF_RANGE", msg: "rating must be between 1 and 5"}
	ErrInPast        = &Error{code: "IN_PAST", msg: "appointment cannot start in the past"}
	ErrUnavailable   = &Error{code: "UNAVAILABLE", msg: "the technician is no longer available for this time"}
	ErrNotFinished   = &Error{code: "NOT_FINISHED", msg: "appointment has not ended yet"}

	ErrIdempotencyConflict = &Error{code: "IDEMPOTENCY_CONFLICT", msg: "this request key was already used for a different appointment"}
)

// CodeOf returns the rule code carried by err, if any.
func CodeOf(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.code, true
	}
	return "", false
}
