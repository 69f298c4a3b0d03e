package attendance

import (
	"errors"
	"fmt"

	"staffledger/internal/geofence"
)

var (
	ErrDuplicateSubmission = errors.New("attendance: declaration already submitted for this day")
	ErrSequenceViolation   = errors.New("attendance: session sequence violation")
	ErrNotFound            = errors.New("attendance: staff not found")
	ErrStorage             = errors.New("attendance: storage failure")
	ErrInvalidStaffID      = errors.New("attendance: invalid staff id")
	ErrInvalidStatus       = errors.New("attendance: invalid status")
	ErrInvalidKind         = errors.New("attendance: invalid session kind")
	ErrInvalidDate         = errors.New("attendance: invalid date")
	ErrInvalidTime         = errors.New("attendance: invalid time of day")
	ErrInvalidFilter       = errors.New("attendance: invalid report filter")
)

// SequenceReason explains why a session event was rejected.
type SequenceReason string

const (
	ReasonAlreadyIn  SequenceReason = "already-in"
	ReasonAlreadyOut SequenceReason = "already-out"
	ReasonNotYetIn   SequenceReason = "not-yet-in"
)

// SequenceViolation is returned when a session event is illegal in the day's current state.
type SequenceViolation struct {
	Reason SequenceReason
}

func (e *SequenceViolation) Error() string {
	switch e.Reason {
	case ReasonAlreadyIn:
		return "attendance: already clocked in today"
	case ReasonAlreadyOut:
		return "attendance: work day already completed"
	case ReasonNotYetIn:
		return "attendance: clock in first"
	default:
		return ErrSequenceViolation.Error()
	}
}

// Is makes errors.Is(err, ErrSequenceViolation) match any reason.
func (e *SequenceViolation) Is(target error) bool {
	return target == ErrSequenceViolation
}

// StorageError wraps a collaborator failure. Callers see it as ErrStorage.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("attendance: storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// Code returns the machine-readable reason code for err.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateSubmission):
		return "duplicate_submission"
	case errors.Is(err, ErrSequenceViolation):
		return "sequence_violation"
	case errors.Is(err, geofence.ErrLocationDenied):
		return "location_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidStaffID),
		errors.Is(err, ErrInvalidStatus),
		errors.Is(err, ErrInvalidKind),
		errors.Is(err, ErrInvalidDate),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidFilter):
		return "invalid_argument"
	default:
		return "storage_failure"
	}
}

// Reason returns the sequence reason carried by err, if any.
func Reason(err error) (SequenceReason, bool) {
	var sv *SequenceViolation
	if errors.As(err, &sv) {
		return sv.Reason, true
	}
	return "", false
}
