package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prescription is the free-text note a doctor attaches to a completed
// appointment. Stored in the document store; at most one per appointment,
// enforced by a unique index on appointmentId.
type Prescription struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	AppointmentID uint               `json:"appointment_id" bson:"appointmentId"`
	PatientName   string             `json:"patient_name" bson:"patientName"`
	Medication    string             `json:"medication" bson:"medication"`
	Dosage        string             `json:"dosage" bson:"dosage"`
	DoctorNotes   string             `json:"doctor_notes" bson:"doctorNotes"`
	CreatedAt     time.Time          `json:"created_at" bson:"createdAt"`
}
