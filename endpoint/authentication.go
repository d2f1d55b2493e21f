package endpoint

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/token"
	"github.com/stephane-vergier/smart-clinic/util"
)

type loginRequest struct {
	Identifier string `json:"identifier"`
	// Username is the admin spelling of the identifier field; either key is
	// accepted on the admin route.
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r loginRequest) identifier() string {
	if r.Identifier != "" {
		return r.Identifier
	}
	return r.Username
}

var errBadCredentials = errors.New("invalid credentials")

func respondBadCredentials(c *gin.Context) {
	util.CallUserNotAuthorized(c, util.APIErrorParams{
		Msg: "Invalid identifier or password",
		Err: errBadCredentials,
	})
}

func (h *Handler) respondToken(c *gin.Context, identifier, role string) {
	signed, err := h.tokens.Issue(identifier, role)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to issue token", Err: err})
		return
	}
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Login successful",
		Data: map[string]interface{}{"token": signed},
	})
}

// DoctorLogin authenticates a doctor by email and password and returns a
// doctor-role token.
func (h *Handler) DoctorLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	db, ok := getDB(c)
	if !ok {
		return
	}

	var doctor model.Doctor
	if err := db.Where("email = ?", req.identifier()).First(&doctor).Error; err != nil {
		respondBadCredentials(c)
		return
	}
	if !util.VerifyPassword(req.Password, doctor.Password) {
		respondBadCredentials(c)
		return
	}
	h.respondToken(c, doctor.Email, token.RoleDoctor)
}

// PatientLogin authenticates a patient by email and password and returns a
// patient-role token.
func (h *Handler) PatientLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	db, ok := getDB(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.Where("email = ?", req.identifier()).First(&patient).Error; err != nil {
		respondBadCredentials(c)
		return
	}
	if !util.VerifyPassword(req.Password, patient.Password) {
		respondBadCredentials(c)
		return
	}
	h.respondToken(c, patient.Email, token.RolePatient)
}

// AdminLogin authenticates an administrator by username and password and
// returns an admin-role token.
func (h *Handler) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: "Invalid request body", Err: err})
		return
	}
	db, ok := getDB(c)
	if !ok {
		return
	}

	var admin model.Admin
	if err := db.Where("username = ?", req.identifier()).First(&admin).Error; err != nil {
		respondBadCredentials(c)
		return
	}
	if !util.VerifyPassword(req.Password, admin.Password) {
		respondBadCredentials(c)
		return
	}
	h.respondToken(c, admin.Username, token.RoleAdmin)
}
