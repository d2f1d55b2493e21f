package endpoint

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/util"
)

type createPatientRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// CreatePatient registers a patient account. Either an email or a phone
// collision rejects the registration with 409.
func (h *Handler) CreatePatient(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	var req createPatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	if req.Email == "" || req.Phone == "" || req.Name == "" || req.Password == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "email, phone, name and password are required",
			Err: errors.New("bad_request"),
		})
		return
	}

	hashed, err := util.HashPassword(req.Password)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	patient := model.Patient{
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Name:     util.NormalizeName(req.Name),
		Address:  strings.TrimSpace(req.Address),
		Password: hashed,
	}
	if err := db.Create(&patient).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallConflict(c, util.APIErrorParams{
				Msg: "Email or phone already registered",
				Err: errors.New("conflict"),
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create patient", Err: err})
		return
	}

	patient.Password = ""
	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: map[string]interface{}{"patient": patient},
	})
}

// GetPatient returns the calling patient's profile.
func (h *Handler) GetPatient(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	patient, ok := h.authPatient(c, db)
	if !ok {
		return
	}

	patient.Password = ""
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: map[string]interface{}{"patient": patient},
	})
}

// ListPatientAppointments returns every appointment of the calling patient,
// ordered by appointment time ascending.
func (h *Handler) ListPatientAppointments(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	patient, ok := h.authPatient(c, db)
	if !ok {
		return
	}

	appts, err := h.manager.ListForPatient(c.Request.Context(), patient.ID, nil)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: map[string]interface{}{"total": len(appts), "appointments": appts},
	})
}

// conditionStatus maps the condition path segment to a status filter:
// "past" means completed, "future" means scheduled, "null" means any.
func conditionStatus(condition string) (*model.AppointmentStatus, bool) {
	switch condition {
	case nullSegment, "":
		return nil, true
	case "past":
		status := model.StatusCompleted
		return &status, true
	case "future":
		status := model.StatusScheduled
		return &status, true
	}
	return nil, false
}

// FilterPatientAppointments narrows the calling patient's appointments by a
// doctor-name substring and a past/future condition, each unconstrained when
// its path segment is the literal "null".
func (h *Handler) FilterPatientAppointments(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}
	patient, ok := h.authPatient(c, db)
	if !ok {
		return
	}

	status, ok := conditionStatus(c.Param("condition"))
	if !ok {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "condition must be past, future or null",
			Err: errors.New("bad_request"),
		})
		return
	}
	doctorName := filterValue(c.Param("name"))

	appts, err := h.manager.FilterForPatient(c.Request.Context(), patient.ID, doctorName, status)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: map[string]interface{}{"total": len(appts), "appointments": appts},
	})
}
