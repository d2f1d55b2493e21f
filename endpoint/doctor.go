package endpoint

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stephane-vergier/smart-clinic/booking"
	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/schedule"
	"github.com/stephane-vergier/smart-clinic/token"
	"github.com/stephane-vergier/smart-clinic/util"
)

type doctorRequest struct {
	ID             uint     `json:"id"`
	Email          string   `json:"email"`
	Name           string   `json:"name"`
	Specialty      string   `json:"specialty"`
	Password       string   `json:"password"`
	AvailableTimes []string `json:"available_times"`
}

// sanitizeAvailableTimes drops malformed entries so a doctor record never
// advertises a slot the availability model would refuse to resolve.
func sanitizeAvailableTimes(entries []string) []string {
	kept := make([]string, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if _, ok := schedule.ParseRange(entry); ok {
			kept = append(kept, entry)
		}
	}
	return kept
}

func stripPasswords(doctors []model.Doctor) {
	for i := range doctors {
		doctors[i].Password = ""
	}
}

// ListDoctors returns every doctor, ordered by name then id, passwords
// removed.
func (h *Handler) ListDoctors(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	var doctors []model.Doctor
	if err := db.Order("name ASC, id ASC").Find(&doctors).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to retrieve doctors", Err: err})
		return
	}
	stripPasswords(doctors)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctors retrieved",
		Data: map[string]interface{}{"total": len(doctors), "doctors": doctors},
	})
}

// GetDoctorAvailability returns the doctor's free slots on the requested
// date: the advertised slots minus live bookings. The role path segment names
// the caller's role; patients and doctors may ask.
func (h *Handler) GetDoctorAvailability(c *gin.Context) {
	role := c.Param("role")
	if role != token.RolePatient && role != token.RoleDoctor {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Authentication failed",
			Err: token.ErrWrongRole,
		})
		return
	}
	if _, ok := h.subjectForRole(c, c.Param("token"), role); !ok {
		return
	}

	doctorID, err := strconv.ParseUint(c.Param("doctorId"), 10, 32)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid doctor id", Err: errors.New("bad_request")})
		return
	}
	date, err := h.parseDate(c.Param("date"))
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid date, want YYYY-MM-DD", Err: errors.New("bad_datetime")})
		return
	}

	slots, err := h.manager.AvailableSlotsOn(c.Request.Context(), uint(doctorID), date)
	if err != nil {
		respondBookingError(c, err)
		return
	}

	available := make([]string, 0, len(slots))
	for _, slot := range slots {
		available = append(available, slot.Format(timestampLayout))
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Availability retrieved",
		Data: map[string]interface{}{"available": available},
	})
}

// CreateDoctor registers a new doctor account. Admin only; 409 when the email
// is already registered.
func (h *Handler) CreateDoctor(c *gin.Context) {
	if !h.authAdmin(c) {
		return
	}
	db, ok := getDB(c)
	if !ok {
		return
	}

	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	if req.Email == "" || req.Name == "" || req.Password == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "email, name and password are required",
			Err: errors.New("bad_request"),
		})
		return
	}

	hashed, err := util.HashPassword(req.Password)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
		return
	}

	doctor := model.Doctor{
		Email:          strings.TrimSpace(req.Email),
		Name:           util.NormalizeName(req.Name),
		Specialty:      strings.TrimSpace(req.Specialty),
		Password:       hashed,
		AvailableTimes: sanitizeAvailableTimes(req.AvailableTimes),
	}
	if err := db.Create(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallConflict(c, util.APIErrorParams{Msg: "Email already registered", Err: errors.New("conflict")})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to create doctor", Err: err})
		return
	}

	doctor.Password = ""
	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Doctor created",
		Data: map[string]interface{}{"doctor": doctor},
	})
}

// UpdateDoctor updates an existing doctor's profile and availability. Admin
// only; 404 when the id is unknown.
func (h *Handler) UpdateDoctor(c *gin.Context) {
	if !h.authAdmin(c) {
		return
	}
	db, ok := getDB(c)
	if !ok {
		return
	}

	var req doctorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	if req.ID == 0 {
		util.CallUserError(c, util.APIErrorParams{Msg: "id is required", Err: errors.New("bad_request")})
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, req.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: errors.New("not_found")})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to load doctor", Err: err})
		return
	}

	if req.Email != "" {
		doctor.Email = strings.TrimSpace(req.Email)
	}
	if req.Name != "" {
		doctor.Name = util.NormalizeName(req.Name)
	}
	if req.Specialty != "" {
		doctor.Specialty = strings.TrimSpace(req.Specialty)
	}
	if req.Password != "" {
		hashed, err := util.HashPassword(req.Password)
		if err != nil {
			util.CallServerError(c, util.APIErrorParams{Msg: "Failed to hash password", Err: err})
			return
		}
		doctor.Password = hashed
	}
	if req.AvailableTimes != nil {
		doctor.AvailableTimes = sanitizeAvailableTimes(req.AvailableTimes)
	}

	if err := db.Save(&doctor).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			util.CallConflict(c, util.APIErrorParams{Msg: "Email already registered", Err: errors.New("conflict")})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to update doctor", Err: err})
		return
	}

	doctor.Password = ""
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor updated",
		Data: map[string]interface{}{"doctor": doctor},
	})
}

// DeleteDoctor removes a doctor and every appointment referencing it. Admin
// only.
func (h *Handler) DeleteDoctor(c *gin.Context) {
	if !h.authAdmin(c) {
		return
	}

	doctorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid doctor id", Err: errors.New("bad_request")})
		return
	}

	if err := h.manager.RemoveDoctor(c.Request.Context(), uint(doctorID)); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			util.CallErrorNotFound(c, util.APIErrorParams{Msg: "Doctor not found", Err: errors.New("not_found")})
			return
		}
		respondBookingError(c, err)
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor deleted",
		Data: map[string]interface{}{"id": doctorID},
	})
}

// FilterDoctors narrows the doctor list by the conjunction of an optional
// name substring, an optional AM/PM bucket and an optional specialty
// substring, each unconstrained when its path segment is the literal "null".
func (h *Handler) FilterDoctors(c *gin.Context) {
	db, ok := getDB(c)
	if !ok {
		return
	}

	name := filterValue(c.Param("name"))
	period := strings.ToLower(filterValue(c.Param("time")))
	specialty := filterValue(c.Param("speciality"))

	if period != "" && period != "am" && period != "pm" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "time must be am, pm or null",
			Err: errors.New("bad_request"),
		})
		return
	}

	query := db.Model(&model.Doctor{}).Order("name ASC, id ASC")
	if name != "" {
		query = query.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}
	if specialty != "" {
		query = query.Where("LOWER(specialty) LIKE ?", "%"+strings.ToLower(specialty)+"%")
	}

	var doctors []model.Doctor
	if err := query.Find(&doctors).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to filter doctors", Err: err})
		return
	}

	// the AM/PM bucket lives in the serialized availability entries, so it is
	// applied after the relational filters
	matched := doctors[:0]
	for i := range doctors {
		if schedule.MatchesPeriod(&doctors[i], period) {
			matched = append(matched, doctors[i])
		}
	}
	stripPasswords(matched)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctors retrieved",
		Data: map[string]interface{}{"total": len(matched), "doctors": matched},
	})
}
