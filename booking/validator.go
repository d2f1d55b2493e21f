package booking

import (
	"errors"

	"gorm.io/gorm"

	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/schedule"
)

// Validate gates every booking and reschedule. It checks, in order, that the
// appointment references an existing doctor, that its time is the start of
// one of the doctor's availability entries, and that no other live
// appointment occupies the same (doctor, time). On updates excludeID names
// the appointment being moved so it does not conflict with itself.
//
// Two concurrent callers may both see a free slot here; the live-slot unique
// index is the write barrier that decides the race (see Manager.Book).
func Validate(db *gorm.DB, appt *model.Appointment, excludeID uint) error {
	var doctor model.Doctor
	err := db.First(&doctor, appt.DoctorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrDoctorUnknown
	}
	if err != nil {
		return err
	}

	if !schedule.IsOfferedSlot(&doctor, appt.AppointmentTime) {
		return ErrSlotNotOffered
	}

	query := db.Model(&model.Appointment{}).
		Where("doctor_id = ? AND appointment_time = ? AND status <> ?",
			appt.DoctorID, appt.AppointmentTime, model.StatusCancelled)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var occupied int64
	if err := query.Count(&occupied).Error; err != nil {
		return err
	}
	if occupied > 0 {
		return ErrSlotTaken
	}
	return nil
}
