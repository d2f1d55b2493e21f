package endpoint

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/util"
)

type prescriptionRequest struct {
	AppointmentID uint   `json:"appointment_id"`
	PatientName   string `json:"patient_name"`
	Medication    string `json:"medication"`
	Dosage        string `json:"dosage"`
	DoctorNotes   string `json:"doctor_notes"`
}

// SavePrescription attaches a prescription to one of the calling doctor's
// scheduled appointments and marks the appointment completed.
func (h *Handler) SavePrescription(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	doctor, ok := h.authDoctor(c, db)
	if !ok {
		return
	}

	var req prescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	if req.AppointmentID == 0 || req.Medication == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "appointment_id and medication are required",
			Err: errors.New("bad_request"),
		})
		return
	}

	prescription := model.Prescription{
		AppointmentID: req.AppointmentID,
		PatientName:   util.NormalizeName(req.PatientName),
		Medication:    req.Medication,
		Dosage:        req.Dosage,
		DoctorNotes:   req.DoctorNotes,
	}
	if err := h.manager.AttachPrescription(c.Request.Context(), doctor.ID, &prescription); err != nil {
		respondBookingError(c, err)
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Prescription saved",
		Data: map[string]interface{}{"prescription": prescription},
	})
}

// GetPrescription returns the prescription attached to one of the calling
// doctor's appointments.
func (h *Handler) GetPrescription(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	doctor, ok := h.authDoctor(c, db)
	if !ok {
		return
	}

	appointmentID, err := strconv.ParseUint(c.Param("appointmentId"), 10, 32)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid appointment id", Err: errors.New("bad_request")})
		return
	}

	prescription, err := h.manager.PrescriptionFor(c.Request.Context(), doctor.ID, uint(appointmentID))
	if err != nil {
		respondBookingError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Prescription retrieved",
		Data: map[string]interface{}{"prescription": prescription},
	})
}
