package booking

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/stephane-vergier/smart-clinic/model"
)

// PrescriptionStore is the document-store handle the Manager writes
// prescriptions through. Implementations must enforce at most one
// prescription per appointment.
type PrescriptionStore interface {
	Insert(ctx context.Context, p *model.Prescription) error
	ByAppointmentID(ctx context.Context, appointmentID uint) (*model.Prescription, error)
}

const prescriptionCollection = "prescriptions"

// MongoPrescriptionStore stores prescriptions in a MongoDB collection with a
// unique index on appointmentId.
type MongoPrescriptionStore struct {
	coll *mongo.Collection
}

// NewMongoPrescriptionStore wraps the prescriptions collection of db and
// creates the uniqueness index. Index creation is idempotent.
func NewMongoPrescriptionStore(ctx context.Context, db *mongo.Database) (*MongoPrescriptionStore, error) {
	coll := db.Collection(prescriptionCollection)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "appointmentId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &MongoPrescriptionStore{coll: coll}, nil
}

func (s *MongoPrescriptionStore) Insert(ctx context.Context, p *model.Prescription) error {
	_, err := s.coll.InsertOne(ctx, p)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyPrescribed
	}
	return err
}

func (s *MongoPrescriptionStore) ByAppointmentID(ctx context.Context, appointmentID uint) (*model.Prescription, error) {
	var p model.Prescription
	err := s.coll.FindOne(ctx, bson.M{"appointmentId": appointmentID}).Decode(&p)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrPrescriptionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
