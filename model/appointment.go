package model

import (
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus is the lifecycle state of an appointment. It serializes
// to the historical integer codes at the persistence and JSON boundaries.
type AppointmentStatus int

const (
	StatusScheduled AppointmentStatus = 0
	StatusCompleted AppointmentStatus = 1
	StatusCancelled AppointmentStatus = 2
)

func (s AppointmentStatus) String() string {
	switch s {
	case StatusScheduled:
		return "scheduled"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Appointment links a patient to one of a doctor's slots at an absolute time
// (minute precision, clinic time zone).
//
// SlotKey backs the per-doctor slot uniqueness barrier: it is non-NULL while
// the appointment is live and NULLed on cancellation. MySQL has no filtered
// unique indexes, and NULLs never collide inside a unique index, so the
// composite index below rejects a second live booking of the same
// (doctor, time) while letting cancelled rows keep their history.
type Appointment struct {
	gorm.Model
	DoctorID        uint              `json:"doctor_id" gorm:"column:doctor_id;index;not null;uniqueIndex:uniq_live_slot"`
	PatientID       uint              `json:"patient_id" gorm:"column:patient_id;index;not null"`
	AppointmentTime time.Time         `json:"appointment_time" gorm:"column:appointment_time;not null;uniqueIndex:uniq_live_slot"`
	Status          AppointmentStatus `json:"status" gorm:"column:status;not null;default:0"`
	SlotKey         *bool             `json:"-" gorm:"column:slot_key;uniqueIndex:uniq_live_slot"`
}

// Live reports whether the appointment still occupies its slot.
func (a *Appointment) Live() bool {
	return a.Status != StatusCancelled
}

// HoldSlot marks the appointment as occupying its slot.
func (a *Appointment) HoldSlot() {
	taken := true
	a.SlotKey = &taken
}

// ReleaseSlot frees the slot so the time becomes bookable again.
func (a *Appointment) ReleaseSlot() {
	a.SlotKey = nil
}
