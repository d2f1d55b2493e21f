// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stephane-vergier/smart-clinic/booking"
	"github.com/stephane-vergier/smart-clinic/config"
	"github.com/stephane-vergier/smart-clinic/endpoint"
	"github.com/stephane-vergier/smart-clinic/middleware"
	"github.com/stephane-vergier/smart-clinic/model"
	"github.com/stephane-vergier/smart-clinic/token"
)

func main() {
	// Load the configuration
	cfg := config.LoadConfig()
	if cfg.JWTSecret == "" {
		log.Fatal("JWTSECRET must be set")
	}
	loc := cfg.Location()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := db.AutoMigrate(&model.Doctor{}, &model.Patient{}, &model.Admin{}, &model.Appointment{}); err != nil {
		log.Fatalf("Error migrating schema: %v", err)
	}

	prescriptions, err := connectPrescriptionStore()
	if err != nil {
		log.Fatalf("Error connecting to MongoDB: %v", err)
	}

	tokens := token.NewService(cfg.JWTSecret, cfg.TokenTTL)
	manager := booking.NewManager(db, prescriptions, loc)
	h := endpoint.NewHandler(tokens, manager, loc)

	// Set Gin mode from config
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.EndpointCallLogger())
	router.Use(middleware.DatabaseMiddleware(db))

	// Basic HTTP handler for root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	api := router.Group(cfg.APIPath)
	api.POST("/doctor/login", h.DoctorLogin)
	api.GET("/doctor", h.ListDoctors)
	api.GET("/doctor/availability/:role/:doctorId/:date/:token", h.GetDoctorAvailability)
	api.POST("/doctor/:token", h.CreateDoctor)
	api.PUT("/doctor/:token", h.UpdateDoctor)
	api.DELETE("/doctor/:id/:token", h.DeleteDoctor)
	api.GET("/doctor/filter/:name/:time/:speciality", h.FilterDoctors)
	api.POST("/prescription/:token", h.SavePrescription)
	api.GET("/prescription/:appointmentId/:token", h.GetPrescription)

	router.POST("/admin/login", h.AdminLogin)

	router.POST("/patient/login", h.PatientLogin)
	router.POST("/patient", h.CreatePatient)
	router.GET("/patient/:token", h.GetPatient)
	router.GET("/patient/appointments/:token", h.ListPatientAppointments)
	router.GET("/patient/appointments/filter/:condition/:name/:token", h.FilterPatientAppointments)

	router.POST("/appointments/:token", h.BookAppointment)
	router.PUT("/appointments/:token", h.UpdateAppointment)
	router.DELETE("/appointments/:id/:token", h.CancelAppointment)
	router.GET("/appointments/:date/:patientName/:token", h.GetAppointments)

	// Start server on specified port
	address := fmt.Sprintf(":%d", cfg.AppPort)
	if err := router.Run(address); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

// connectPrescriptionStore wires the prescription document store: MongoDB
// when configured, the in-memory store otherwise (tests, local development
// without a Mongo instance).
func connectPrescriptionStore() (booking.PrescriptionStore, error) {
	mongoDB, err := config.ConnectMongo()
	if err != nil {
		return nil, err
	}
	if mongoDB == nil {
		log.Print("No MongoDB configured, using in-memory prescription store")
		return booking.NewMemoryPrescriptionStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return booking.NewMongoPrescriptionStore(ctx, mongoDB)
}
