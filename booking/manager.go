package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/schedule"
)

// Manager owns the appointment lifecycle: it persists bookings, reschedules,
// cancellations and prescription attachments under the validator's
// guarantees, and answers the per-doctor and per-patient queries.
//
// Store handles are passed in at construction; the Manager consumes the
// validator and the stores, the handlers consume the Manager.
type Manager struct {
	db            *gorm.DB
	prescriptions PrescriptionStore
	loc           *time.Location
}

func NewManager(db *gorm.DB, prescriptions PrescriptionStore, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.Local
	}
	return &Manager{db: db, prescriptions: prescriptions, loc: loc}
}

// Book validates and inserts a new scheduled appointment for the patient.
// The validator and the insert run in one transaction; if a concurrent
// booking wins the slot between the check and the write, the live-slot
// unique index fails the insert and the loser observes ErrSlotTaken.
func (m *Manager) Book(ctx context.Context, appt *model.Appointment) error {
	appt.ID = 0
	appt.Status = model.StatusScheduled
	appt.HoldSlot()

	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := Validate(tx, appt, 0); err != nil {
			return err
		}
		if err := tx.Create(appt).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
}

// Reschedule moves the patient's scheduled appointment to newTime. Terminal
// appointments cannot move.
func (m *Manager) Reschedule(ctx context.Context, patientID, appointmentID uint, newTime time.Time) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appt, err := loadOwned(tx, appointmentID, patientID)
		if err != nil {
			return err
		}
		if appt.Status != model.StatusScheduled {
			return ErrInvalidTransition
		}

		appt.AppointmentTime = newTime
		if err := Validate(tx, appt, appt.ID); err != nil {
			return err
		}
		if err := tx.Save(appt).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotTaken
			}
			return err
		}
		return nil
	})
}

// Cancel transitions the patient's scheduled appointment to Cancelled and
// frees its slot. The row is kept for history.
func (m *Manager) Cancel(ctx context.Context, patientID, appointmentID uint) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		appt, err := loadOwned(tx, appointmentID, patientID)
		if err != nil {
			return err
		}
		if appt.Status != model.StatusScheduled {
			return ErrNotCancellable
		}

		appt.Status = model.StatusCancelled
		appt.ReleaseSlot()
		return tx.Save(appt).Error
	})
}

func loadOwned(tx *gorm.DB, appointmentID, patientID uint) (*model.Appointment, error) {
	var appt model.Appointment
	err := tx.First(&appt, appointmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if appt.PatientID != patientID {
		return nil, ErrNotOwner
	}
	return &appt, nil
}

// ListForDoctorOnDate returns the doctor's appointments inside
// [date 00:00, date 23:59], ascending, optionally narrowed by a
// case-insensitive patient-name substring.
func (m *Manager) ListForDoctorOnDate(ctx context.Context, doctorID uint, date time.Time, patientName string) ([]model.Appointment, error) {
	start, end := m.dayWindow(date)

	query := m.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("appointments.doctor_id = ? AND appointments.appointment_time BETWEEN ? AND ?", doctorID, start, end).
		Order("appointments.appointment_time ASC")
	if patientName != "" {
		query = query.
			Joins("JOIN patients ON patients.id = appointments.patient_id").
			Where("LOWER(patients.name) LIKE ?", "%"+strings.ToLower(patientName)+"%")
	}

	var appts []model.Appointment
	err := query.Find(&appts).Error
	return appts, err
}

// ListForPatient returns the patient's appointments, optionally narrowed to a
// status, ordered by appointment time ascending.
func (m *Manager) ListForPatient(ctx context.Context, patientID uint, status *model.AppointmentStatus) ([]model.Appointment, error) {
	query := m.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("patient_id = ?", patientID).
		Order("appointment_time ASC")
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var appts []model.Appointment
	err := query.Find(&appts).Error
	return appts, err
}

// FilterForPatient narrows the patient's appointments by a case-insensitive
// doctor-name substring and an optional status.
func (m *Manager) FilterForPatient(ctx context.Context, patientID uint, doctorName string, status *model.AppointmentStatus) ([]model.Appointment, error) {
	query := m.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("appointments.patient_id = ?", patientID).
		Order("appointments.appointment_time ASC")
	if doctorName != "" {
		query = query.
			Joins("JOIN doctors ON doctors.id = appointments.doctor_id").
			Where("LOWER(doctors.name) LIKE ?", "%"+strings.ToLower(doctorName)+"%")
	}
	if status != nil {
		query = query.Where("appointments.status = ?", *status)
	}

	var appts []model.Appointment
	err := query.Find(&appts).Error
	return appts, err
}

// AvailableSlotsOn computes the doctor's free slots on date: the advertised
// slots minus the times held by live appointments.
func (m *Manager) AvailableSlotsOn(ctx context.Context, doctorID uint, date time.Time) ([]time.Time, error) {
	var doctor model.Doctor
	err := m.db.WithContext(ctx).First(&doctor, doctorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDoctorUnknown
	}
	if err != nil {
		return nil, err
	}

	start, end := m.dayWindow(date)
	var booked []time.Time
	err = m.db.WithContext(ctx).Model(&model.Appointment{}).
		Where("doctor_id = ? AND appointment_time BETWEEN ? AND ? AND status <> ?",
			doctorID, start, end, model.StatusCancelled).
		Pluck("appointment_time", &booked).Error
	if err != nil {
		return nil, err
	}

	return schedule.AvailableSlotsOn(&doctor, start, booked, m.loc), nil
}

// AttachPrescription records the doctor's prescription for a scheduled
// appointment and transitions it to Completed. At most one prescription may
// exist per appointment; the document store's unique index backs the check
// against concurrent attachments.
func (m *Manager) AttachPrescription(ctx context.Context, doctorID uint, p *model.Prescription) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appt model.Appointment
		err := tx.First(&appt, p.AppointmentID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		if appt.DoctorID != doctorID {
			return ErrNotOwner
		}
		switch appt.Status {
		case model.StatusCompleted:
			return ErrAlreadyPrescribed
		case model.StatusCancelled:
			return ErrInvalidTransition
		}

		if _, err := m.prescriptions.ByAppointmentID(ctx, p.AppointmentID); err == nil {
			return ErrAlreadyPrescribed
		} else if !errors.Is(err, ErrPrescriptionNotFound) {
			return err
		}

		p.CreatedAt = time.Now()
		if err := m.prescriptions.Insert(ctx, p); err != nil {
			return err
		}

		appt.Status = model.StatusCompleted
		return tx.Save(&appt).Error
	})
}

// PrescriptionFor returns the prescription attached to the doctor's
// appointment.
func (m *Manager) PrescriptionFor(ctx context.Context, doctorID, appointmentID uint) (*model.Prescription, error) {
	var appt model.Appointment
	err := m.db.WithContext(ctx).First(&appt, appointmentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if appt.DoctorID != doctorID {
		return nil, ErrNotOwner
	}
	return m.prescriptions.ByAppointmentID(ctx, appointmentID)
}

// RemoveDoctor deletes the doctor and every appointment that references it.
// Prescriptions attached to those appointments are left behind; the document
// store tolerates orphans.
func (m *Manager) RemoveDoctor(ctx context.Context, doctorID uint) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var doctor model.Doctor
		err := tx.First(&doctor, doctorID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		if err := tx.Where("doctor_id = ?", doctorID).Delete(&model.Appointment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&doctor).Error
	})
}

// dayWindow returns the inclusive [00:00, 23:59] window of date's civil day
// in the clinic zone.
func (m *Manager) dayWindow(date time.Time) (time.Time, time.Time) {
	y, mo, d := date.In(m.loc).Date()
	start := time.Date(y, mo, d, 0, 0, 0, 0, m.loc)
	end := time.Date(y, mo, d, 23, 59, 0, 0, m.loc)
	return start, end
}
