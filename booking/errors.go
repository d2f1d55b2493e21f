package booking

import "errors"

// Sentinel errors for booking operations. The endpoint layer is the only
// place these are mapped to HTTP status codes.
var (
	// validator outcomes
	ErrDoctorUnknown  = errors.New("doctor unknown")
	ErrSlotNotOffered = errors.New("requested time is not an offered slot")
	ErrSlotTaken      = errors.New("slot already taken")

	// lifecycle outcomes
	ErrNotFound          = errors.New("appointment not found")
	ErrNotOwner          = errors.New("caller does not own the appointment")
	ErrNotCancellable    = errors.New("appointment can no longer be cancelled")
	ErrInvalidTransition = errors.New("invalid appointment status transition")
	ErrAlreadyPrescribed = errors.New("appointment already has a prescription")

	ErrPrescriptionNotFound = errors.New("prescription not found")
)

// ErrorCode returns the machine-readable code carried in rejection bodies.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrDoctorUnknown):
		return "doctor_unknown"
	case errors.Is(err, ErrSlotNotOffered):
		return "slot_not_offered"
	case errors.Is(err, ErrSlotTaken):
		return "slot_taken"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrNotCancellable):
		return "not_cancellable"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrAlreadyPrescribed):
		return "already_prescribed"
	case errors.Is(err, ErrPrescriptionNotFound):
		return "prescription_not_found"
	}
	return "internal"
}

// IsValidationError reports whether err is a booking rejection the client
// caused, as opposed to a store failure.
func IsValidationError(err error) bool {
	return ErrorCode(err) != "internal"
}
