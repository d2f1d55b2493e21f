package endpoint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/stephane-vergier/smart-clinic/booking"
	"github.com/stephane-vergier/smart-clinic/middleware"
	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/token"
	"github.com/stephane-vergier/smart-clinic/util"
)

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	tokens *token.Service
}

// setupEndpointTest wires a test router with the full route table over an
// in-memory SQLite database and the in-memory prescription store.
func setupEndpointTest(t *testing.T, name string) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:endpointdb_%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&model.Doctor{}, &model.Patient{}, &model.Admin{}, &model.Appointment{}); err != nil {
		t.Fatalf("failed to auto-migrate models: %v", err)
	}

	tokens := token.NewService("test-secret-123", time.Hour)
	manager := booking.NewManager(db, booking.NewMemoryPrescriptionStore(), time.UTC)
	h := NewHandler(tokens, manager, time.UTC)

	r := gin.New()
	r.Use(middleware.DatabaseMiddleware(db))

	api := r.Group("/api")
	api.POST("/doctor/login", h.DoctorLogin)
	api.GET("/doctor", h.ListDoctors)
	api.GET("/doctor/availability/:role/:doctorId/:date/:token", h.GetDoctorAvailability)
	api.POST("/doctor/:token", h.CreateDoctor)
	api.PUT("/doctor/:token", h.UpdateDoctor)
	api.DELETE("/doctor/:id/:token", h.DeleteDoctor)
	api.GET("/doctor/filter/:name/:time/:speciality", h.FilterDoctors)
	api.POST("/prescription/:token", h.SavePrescription)
	api.GET("/prescription/:appointmentId/:token", h.GetPrescription)

	r.POST("/admin/login", h.AdminLogin)
	r.POST("/patient/login", h.PatientLogin)
	r.POST("/patient", h.CreatePatient)
	r.GET("/patient/:token", h.GetPatient)
	r.GET("/patient/appointments/:token", h.ListPatientAppointments)
	r.GET("/patient/appointments/filter/:condition/:name/:token", h.FilterPatientAppointments)

	r.POST("/appointments/:token", h.BookAppointment)
	r.PUT("/appointments/:token", h.UpdateAppointment)
	r.DELETE("/appointments/:id/:token", h.CancelAppointment)
	r.GET("/appointments/:date/:patientName/:token", h.GetAppointments)

	return &testEnv{router: r, db: db, tokens: tokens}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to decode response body %q: %v", w.Body.String(), err)
	}
	return response
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hashed, err := util.HashPassword(password)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return hashed
}

func (e *testEnv) seedDoctor(t *testing.T, email, name, specialty string, times ...string) *model.Doctor {
	t.Helper()
	doctor := &model.Doctor{
		Email:          email,
		Name:           name,
		Specialty:      specialty,
		Password:       mustHash(t, "doctor-pass"),
		AvailableTimes: times,
	}
	if err := e.db.Create(doctor).Error; err != nil {
		t.Fatalf("failed to seed doctor: %v", err)
	}
	return doctor
}

func (e *testEnv) seedPatient(t *testing.T, email, phone, name string) *model.Patient {
	t.Helper()
	patient := &model.Patient{
		Email:    email,
		Phone:    phone,
		Name:     name,
		Password: mustHash(t, "patient-pass"),
	}
	if err := e.db.Create(patient).Error; err != nil {
		t.Fatalf("failed to seed patient: %v", err)
	}
	return patient
}

func (e *testEnv) tokenFor(t *testing.T, identifier, role string) string {
	t.Helper()
	signed, err := e.tokens.Issue(identifier, role)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return signed
}

func TestDoctorLogin(t *testing.T) {
	e := setupEndpointTest(t, "doctor_login")
	e.seedDoctor(t, "ann@clinic.test", "Ann", "cardiology", "09:00-09:30")

	w := e.request(t, "POST", "/api/doctor/login", gin.H{"identifier": "ann@clinic.test", "password": "doctor-pass"})
	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])

	w = e.request(t, "POST", "/api/doctor/login", gin.H{"identifier": "ann@clinic.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminLoginAcceptsUsernameKey(t *testing.T) {
	e := setupEndpointTest(t, "admin_login")
	admin := &model.Admin{Username: "root", Password: mustHash(t, "admin-pass")}
	assert.NoError(t, e.db.Create(admin).Error)

	w := e.request(t, "POST", "/admin/login", gin.H{"username": "root", "password": "admin-pass"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.request(t, "POST", "/admin/login", gin.H{"username": "nobody", "password": "admin-pass"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateDoctorRequiresAdminRole(t *testing.T) {
	e := setupEndpointTest(t, "create_doctor_auth")
	e.seedPatient(t, "bob@example.test", "+15550001", "Bob")
	patientToken := e.tokenFor(t, "bob@example.test", token.RolePatient)

	w := e.request(t, "POST", "/api/doctor/"+patientToken, gin.H{
		"email": "new@clinic.test", "name": "New Doc", "password": "secret",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateDoctorAndConflict(t *testing.T) {
	e := setupEndpointTest(t, "create_doctor")
	adminToken := e.tokenFor(t, "root", token.RoleAdmin)

	body := gin.H{
		"email":           "ann@clinic.test",
		"name":            "Ann",
		"specialty":       "cardiology",
		"password":        "secret",
		"available_times": []string{"09:00-09:30", "bogus", "10:00-10:30"},
	}
	w := e.request(t, "POST", "/api/doctor/"+adminToken, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	// malformed availability entries are dropped on the way in
	var created model.Doctor
	assert.NoError(t, e.db.Where("email = ?", "ann@clinic.test").First(&created).Error)
	assert.Equal(t, []string{"09:00-09:30", "10:00-10:30"}, created.AvailableTimes)

	w = e.request(t, "POST", "/api/doctor/"+adminToken, body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateDoctorNotFound(t *testing.T) {
	e := setupEndpointTest(t, "update_doctor_404")
	adminToken := e.tokenFor(t, "root", token.RoleAdmin)

	w := e.request(t, "PUT", "/api/doctor/"+adminToken, gin.H{"id": 4242, "name": "Ghost"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteDoctorCascades(t *testing.T) {
	e := setupEndpointTest(t, "delete_doctor")
	doctor := e.seedDoctor(t, "ann@clinic.test", "Ann", "cardiology", "09:00-09:30")
	patient := e.seedPatient(t, "bob@example.test", "+15550001", "Bob")
	adminToken := e.tokenFor(t, "root", token.RoleAdmin)
	patientToken := e.tokenFor(t, patient.Email, token.RolePatient)

	w := e.request(t, "POST", "/appointments/"+patientToken, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = e.request(t, "DELETE", fmt.Sprintf("/api/doctor/%d/%s", doctor.ID, adminToken), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var count int64
	assert.NoError(t, e.db.Model(&model.Appointment{}).Where("doctor_id = ?", doctor.ID).Count(&count).Error)
	assert.Zero(t, count)

	w = e.request(t, "DELETE", fmt.Sprintf("/api/doctor/%d/%s", doctor.ID, adminToken), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFilterDoctors(t *testing.T) {
	e := setupEndpointTest(t, "filter_doctor")
	e.seedDoctor(t, "ann@clinic.test", "Ann Smith", "cardiology", "09:00-09:30")
	e.seedDoctor(t, "zoe@clinic.test", "Zoe Jones", "dermatology", "14:00-14:30")

	w := e.request(t, "GET", "/api/doctor/filter/null/null/null", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])

	w = e.request(t, "GET", "/api/doctor/filter/smith/null/null", nil)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	w = e.request(t, "GET", "/api/doctor/filter/null/pm/null", nil)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	doctors := data["doctors"].([]interface{})
	if assert.Len(t, doctors, 1) {
		doctor := doctors[0].(map[string]interface{})
		assert.Equal(t, "Zoe Jones", doctor["name"])
		// passwords never leave the API
		assert.Empty(t, doctor["password"])
	}

	w = e.request(t, "GET", "/api/doctor/filter/null/noon/null", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookAppointmentLifecycle(t *testing.T) {
	e := setupEndpointTest(t, "book_lifecycle")
	doctor := e.seedDoctor(t, "ann@clinic.test", "Ann", "cardiology", "09:00-09:30", "10:00-10:30")
	p1 := e.seedPatient(t, "bob@example.test", "+15550001", "Bob")
	p2 := e.seedPatient(t, "carol@example.test", "+15550002", "Carol")
	t1 := e.tokenFor(t, p1.Email, token.RolePatient)
	t2 := e.tokenFor(t, p2.Email, token.RolePatient)

	// P1 books 09:00
	w := e.request(t, "POST", "/appointments/"+t1, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// P2 hits the occupied slot
	w = e.request(t, "POST", "/appointments/"+t2, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "slot_taken", decodeResponse(t, w)["error"])

	// 09:15 is not a slot start
	w = e.request(t, "POST", "/appointments/"+t2, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:15",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "slot_not_offered", decodeResponse(t, w)["error"])

	// P1 reschedules to 10:00, freeing 09:00 for P2
	var appt model.Appointment
	assert.NoError(t, e.db.Where("patient_id = ?", p1.ID).First(&appt).Error)
	w = e.request(t, "PUT", "/appointments/"+t1, gin.H{
		"id": appt.ID, "appointment_time": "2024-06-01T10:00",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.request(t, "POST", "/appointments/"+t2, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCancelAppointment(t *testing.T) {
	e := setupEndpointTest(t, "cancel")
	doctor := e.seedDoctor(t, "ann@clinic.test", "Ann", "cardiology", "09:00-09:30")
	patient := e.seedPatient(t, "bob@example.test", "+15550001", "Bob")
	patientToken := e.tokenFor(t, patient.Email, token.RolePatient)

	w := e.request(t, "POST", "/appointments/"+patientToken, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	var appt model.Appointment
	assert.NoError(t, e.db.Where("patient_id = ?", patient.ID).First(&appt).Error)

	w = e.request(t, "DELETE", fmt.Sprintf("/appointments/%d/%s", appt.ID, patientToken), nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var cancelled model.Appointment
	assert.NoError(t, e.db.First(&cancelled, appt.ID).Error)
	assert.Equal(t, model.StatusCancelled, cancelled.Status)

	w = e.request(t, "DELETE", fmt.Sprintf("/appointments/%d/%s", appt.ID, patientToken), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "not_cancellable", decodeResponse(t, w)["error"])
}

func TestDoctorAvailabilityRoute(t *testing.T) {
	e := setupEndpointTest(t, "availability")
	doctor := e.seedDoctor(t, "ann@clinic.test", "Ann", "cardiology", "09:00-09:30", "10:00-10:30")
	patient := e.seedPatient(t, "bob@example.test", "+15550001", "Bob")
	patientToken := e.tokenFor(t, patient.Email, token.RolePatient)

	w := e.request(t, "POST", "/appointments/"+patientToken, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	path := fmt.Sprintf("/api/doctor/availability/patient/%d/2024-06-01/%s", doctor.ID, patientToken)
	w = e.request(t, "GET", path, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	available := data["available"].([]interface{})
	if assert.Len(t, available, 1) {
		assert.Equal(t, "2024-06-01T10:00", available[0])
	}

	// admin tokens cannot use the availability route
	adminToken := e.tokenFor(t, "root", token.RoleAdmin)
	path = fmt.Sprintf("/api/doctor/availability/admin/%d/2024-06-01/%s", doctor.ID, adminToken)
	w = e.request(t, "GET", path, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestDoctorAppointmentsOnDate(t *testing.T) {
	e := setupEndpointTest(t, "doctor_day")
	doctor := e.seedDoctor(t, "ann@clinic.test", "Ann", "cardiology", "09:00-09:30", "10:00-10:30")
	e.seedPatient(t, "bob@example.test", "+15550001", "Bob Martin")
	e.seedPatient(t, "carol@example.test", "+15550002", "Carol Danvers")
	doctorToken := e.tokenFor(t, doctor.Email, token.RoleDoctor)

	for patientEmail, at := range map[string]string{
		"bob@example.test":   "2024-06-01T09:00",
		"carol@example.test": "2024-06-01T10:00",
	} {
		patientToken := e.tokenFor(t, patientEmail, token.RolePatient)
		w := e.request(t, "POST", "/appointments/"+patientToken, gin.H{
			"doctor_id": doctor.ID, "appointment_time": at,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
	}

	w := e.request(t, "GET", "/appointments/2024-06-01/null/"+doctorToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])

	w = e.request(t, "GET", "/appointments/2024-06-01/danvers/"+doctorToken, nil)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	w = e.request(t, "GET", "/appointments/2024-06-02/null/"+doctorToken, nil)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])
}

func TestPatientSignupAndProfile(t *testing.T) {
	e := setupEndpointTest(t, "patient_signup")

	body := gin.H{
		"email":    "bob@example.test",
		"phone":    "+15550001",
		"name":     "  Bob   Martin ",
		"address":  "12 Main St",
		"password": "patient-pass",
	}
	w := e.request(t, "POST", "/patient", body)
	assert.Equal(t, http.StatusCreated, w.Code)

	// either colliding email or colliding phone rejects
	w = e.request(t, "POST", "/patient", gin.H{
		"email": "bob@example.test", "phone": "+15550099", "name": "Other", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = e.request(t, "POST", "/patient", gin.H{
		"email": "other@example.test", "phone": "+15550001", "name": "Other", "password": "x",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	patientToken := e.tokenFor(t, "bob@example.test", token.RolePatient)
	w = e.request(t, "GET", "/patient/"+patientToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	profile := data["patient"].(map[string]interface{})
	assert.Equal(t, "Bob Martin", profile["name"])
	assert.Empty(t, profile["password"])
}

func TestPatientAppointmentListAndFilter(t *testing.T) {
	e := setupEndpointTest(t, "patient_filter")
	ann := e.seedDoctor(t, "ann@clinic.test", "Ann Smith", "cardiology", "09:00-09:30")
	zoe := e.seedDoctor(t, "zoe@clinic.test", "Zoe Jones", "dermatology", "10:00-10:30")
	patient := e.seedPatient(t, "bob@example.test", "+15550001", "Bob")
	doctorToken := e.tokenFor(t, ann.Email, token.RoleDoctor)
	patientToken := e.tokenFor(t, patient.Email, token.RolePatient)

	var annAppt model.Appointment
	w := e.request(t, "POST", "/appointments/"+patientToken, gin.H{
		"doctor_id": ann.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NoError(t, e.db.Where("doctor_id = ?", ann.ID).First(&annAppt).Error)

	w = e.request(t, "POST", "/appointments/"+patientToken, gin.H{
		"doctor_id": zoe.ID, "appointment_time": "2024-06-01T10:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	// complete the Ann appointment via prescription
	w = e.request(t, "POST", "/api/prescription/"+doctorToken, gin.H{
		"appointment_id": annAppt.ID, "medication": "amoxicillin", "dosage": "500mg",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = e.request(t, "GET", "/patient/appointments/"+patientToken, nil)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])

	w = e.request(t, "GET", "/patient/appointments/filter/past/null/"+patientToken, nil)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	w = e.request(t, "GET", "/patient/appointments/filter/future/smith/"+patientToken, nil)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["total"])

	w = e.request(t, "GET", "/patient/appointments/filter/null/jones/"+patientToken, nil)
	data = decodeResponse(t, w)["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])

	w = e.request(t, "GET", "/patient/appointments/filter/yesterday/null/"+patientToken, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrescriptionFlow(t *testing.T) {
	e := setupEndpointTest(t, "prescription")
	doctor := e.seedDoctor(t, "ann@clinic.test", "Ann", "cardiology", "09:00-09:30")
	patient := e.seedPatient(t, "bob@example.test", "+15550001", "Bob")
	doctorToken := e.tokenFor(t, doctor.Email, token.RoleDoctor)
	patientToken := e.tokenFor(t, patient.Email, token.RolePatient)

	w := e.request(t, "POST", "/appointments/"+patientToken, gin.H{
		"doctor_id": doctor.ID, "appointment_time": "2024-06-01T09:00",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	var appt model.Appointment
	assert.NoError(t, e.db.Where("patient_id = ?", patient.ID).First(&appt).Error)

	body := gin.H{
		"appointment_id": appt.ID,
		"patient_name":   "Bob",
		"medication":     "amoxicillin",
		"dosage":         "500mg twice daily",
		"doctor_notes":   "finish the full course",
	}
	w = e.request(t, "POST", "/api/prescription/"+doctorToken, body)
	assert.Equal(t, http.StatusCreated, w.Code)

	var completed model.Appointment
	assert.NoError(t, e.db.First(&completed, appt.ID).Error)
	assert.Equal(t, model.StatusCompleted, completed.Status)

	w = e.request(t, "POST", "/api/prescription/"+doctorToken, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "already_prescribed", decodeResponse(t, w)["error"])

	w = e.request(t, "GET", fmt.Sprintf("/api/prescription/%d/%s", appt.ID, doctorToken), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeResponse(t, w)["data"].(map[string]interface{})
	prescription := data["prescription"].(map[string]interface{})
	assert.Equal(t, "amoxicillin", prescription["medication"])

	w = e.request(t, "GET", fmt.Sprintf("/api/prescription/%d/%s", 4242, doctorToken), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExpiredAndWrongRoleTokens(t *testing.T) {
	e := setupEndpointTest(t, "token_guards")
	e.seedPatient(t, "bob@example.test", "+15550001", "Bob")

	expired := token.NewService("test-secret-123", -time.Hour)
	stale, err := expired.Issue("bob@example.test", token.RolePatient)
	assert.NoError(t, err)
	w := e.request(t, "GET", "/patient/"+stale, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	doctorToken := e.tokenFor(t, "bob@example.test", token.RoleDoctor)
	w = e.request(t, "GET", "/patient/"+doctorToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.request(t, "GET", "/patient/not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
