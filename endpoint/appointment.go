package endpoint

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/util"
)

type appointmentRequest struct {
	ID              uint   `json:"id"`
	DoctorID        uint   `json:"doctor_id"`
	AppointmentTime string `json:"appointment_time"`
}

// BookAppointment books a slot with a doctor for the calling patient.
func (h *Handler) BookAppointment(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	patient, ok := h.authPatient(c, db)
	if !ok {
		return
	}

	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	at, err := h.parseTimestamp(req.AppointmentTime)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid appointment_time, want YYYY-MM-DDTHH:MM",
			Err: errors.New("bad_datetime"),
		})
		return
	}

	appt := model.Appointment{
		DoctorID:        req.DoctorID,
		PatientID:       patient.ID,
		AppointmentTime: at,
	}
	if err := h.manager.Book(c.Request.Context(), &appt); err != nil {
		respondBookingError(c, err)
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Appointment booked",
		Data: map[string]interface{}{"appointment": appt},
	})
}

// UpdateAppointment moves the calling patient's appointment to a new time.
func (h *Handler) UpdateAppointment(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	patient, ok := h.authPatient(c, db)
	if !ok {
		return
	}

	var req appointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	if req.ID == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "id is required", Err: errors.New("bad_request")})
		return
	}
	at, err := h.parseTimestamp(req.AppointmentTime)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid appointment_time, want YYYY-MM-DDTHH:MM",
			Err: errors.New("bad_datetime"),
		})
		return
	}

	if err := h.manager.Reschedule(c.Request.Context(), patient.ID, req.ID, at); err != nil {
		respondBookingError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment rescheduled",
		Data: map[string]interface{}{"id": req.ID, "appointment_time": at.Format(timestampLayout)},
	})
}

// CancelAppointment cancels the calling patient's scheduled appointment. The
// row is kept with cancelled status; the slot becomes bookable again.
func (h *Handler) CancelAppointment(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	patient, ok := h.authPatient(c, db)
	if !ok {
		return
	}

	appointmentID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid appointment id", Err: errors.New("bad_request")})
		return
	}

	if err := h.manager.Cancel(c.Request.Context(), patient.ID, uint(appointmentID)); err != nil {
		respondBookingError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment cancelled",
		Data: map[string]interface{}{"id": appointmentID},
	})
}

// GetAppointments returns the calling doctor's appointments on a date,
// optionally narrowed by a patient-name substring ("null" means all).
func (h *Handler) GetAppointments(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	doctor, ok := h.authDoctor(c, db)
	if !ok {
		return
	}

	date, err := h.parseDate(c.Param("date"))
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date, want YYYY-MM-DD", Err: errors.New("bad_datetime")})
		return
	}
	patientName := filterValue(c.Param("patientName"))

	appts, err := h.manager.ListForDoctorOnDate(c.Request.Context(), doctor.ID, date, patientName)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: map[string]interface{}{"total": len(appts), "appointments": appts},
	})
}
