package endpoint

import (
	"errors"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/stephane-vergier/smart-clinic/booking"
	"github.com/stephane-vergier/smart-clinic/middleware"
	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/token"
	"github.com/stephane-vergier/smart-clinic/util"
)

const (
	dateLayout          = "2006-01-02"
	timestampLayout     = "2006-01-02T15:04"
	timestampLayoutSecs = "2006-01-02T15:04:05"

	// nullSegment is the path literal meaning "unconstrained" in filter routes.
	nullSegment = "null"
)

// Handler carries the collaborators the HTTP layer consumes: the token
// service for authentication and the booking manager for the appointment
// lifecycle. The database handle travels in the gin context via
// middleware.DatabaseMiddleware.
type Handler struct {
	tokens  *token.Service
	manager *booking.Manager
	loc     *time.Location
}

func NewHandler(tokens *token.Service, manager *booking.Manager, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{tokens: tokens, manager: manager, loc: loc}
}

// getDB fetches the request database handle, answering 500 when the
// middleware did not run.
func getDB(c *gin.Context) (*gorm.DB, bool) {
	db, err := middleware.GetDB(c)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Database connection not available",
			Err: err,
		})
		return nil, false
	}
	return db, true
}

// parseTimestamp reads a local civil timestamp off the wire. Seconds are
// accepted and truncated to the minute.
func (h *Handler) parseTimestamp(s string) (time.Time, error) {
	if t, err := time.ParseInLocation(timestampLayout, s, h.loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(timestampLayoutSecs, s, h.loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, h.loc), nil
}

func (h *Handler) parseDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, h.loc)
}

// authPatient authenticates the token path segment for the patient role and
// resolves the calling patient row. On failure the 401 response is already
// written.
func (h *Handler) authPatient(c *gin.Context, db *gorm.DB) (*model.Patient, bool) {
	email, ok := h.subjectFor(c, token.RolePatient)
	if !ok {
		return nil, false
	}
	var patient model.Patient
	if err := db.Where("email = ?", email).First(&patient).Error; err != nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Unknown account",
			Err: token.ErrInvalidToken,
		})
		return nil, false
	}
	return &patient, true
}

func (h *Handler) authDoctor(c *gin.Context, db *gorm.DB) (*model.Doctor, bool) {
	email, ok := h.subjectFor(c, token.RoleDoctor)
	if !ok {
		return nil, false
	}
	var doctor model.Doctor
	if err := db.Where("email = ?", email).First(&doctor).Error; err != nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Unknown account",
			Err: token.ErrInvalidToken,
		})
		return nil, false
	}
	return &doctor, true
}

// authAdmin checks the token for the admin role. The admin row itself is not
// needed by any operation, only the role gate.
func (h *Handler) authAdmin(c *gin.Context) bool {
	_, ok := h.subjectFor(c, token.RoleAdmin)
	return ok
}

// subjectFor validates the "token" path segment against the expected role and
// returns the subject identifier.
func (h *Handler) subjectFor(c *gin.Context, role string) (string, bool) {
	return h.subjectForRole(c, c.Param("token"), role)
}

func (h *Handler) subjectForRole(c *gin.Context, tokenString, role string) (string, bool) {
	if err := h.tokens.Validate(tokenString, role); err != nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Authentication failed",
			Err: err,
		})
		return "", false
	}
	subject, err := h.tokens.IdentifierOf(tokenString)
	if err != nil {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Authentication failed",
			Err: err,
		})
		return "", false
	}
	return subject, true
}

// respondBookingError translates a booking failure into the HTTP envelope.
// Validation rejections answer 400 with the machine code in the error field;
// missing rows answer 404; ownership failures answer 401 so the API does not
// become a resource-existence oracle. Anything else is internal: one WARN
// line with the cause, a generic body for the client.
func respondBookingError(c *gin.Context, err error) {
	code := errors.New(booking.ErrorCode(err))
	switch {
	case errors.Is(err, booking.ErrNotFound), errors.Is(err, booking.ErrPrescriptionNotFound):
		util.CallErrorNotFound(c, util.APIErrorParams{Msg: err.Error(), Err: code})
	case errors.Is(err, booking.ErrNotOwner):
		util.CallUserNotAuthorized(c, util.APIErrorParams{Msg: "Not allowed", Err: code})
	case booking.IsValidationError(err):
		util.CallUserError(c, util.APIErrorParams{Msg: err.Error(), Err: code})
	default:
		log.Printf("WARN booking operation failed: %v", err)
		util.CallServerError(c, util.APIErrorParams{Msg: "Operation failed", Err: code})
	}
}

// filterValue maps the "null" path literal to the empty (unconstrained)
// filter value.
func filterValue(segment string) string {
	if segment == nullSegment {
		return ""
	}
	return segment
}
