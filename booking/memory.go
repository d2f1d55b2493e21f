package booking

import (
	"context"
	"sync"
	"time"

	"github.com/stephane-vergier/smart-clinic/model"
)

// MemoryPrescriptionStore keeps prescriptions in process memory. It backs
// tests and local runs where no MongoDB instance is available.
type MemoryPrescriptionStore struct {
	mu   sync.Mutex
	docs map[uint]*model.Prescription
}

func NewMemoryPrescriptionStore() *MemoryPrescriptionStore {
	return &MemoryPrescriptionStore{docs: make(map[uint]*model.Prescription)}
}

func (s *MemoryPrescriptionStore) Insert(ctx context.Context, p *model.Prescription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[p.AppointmentID]; exists {
		return ErrAlreadyPrescribed
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	cp := *p
	s.docs[p.AppointmentID] = &cp
	return nil
}

func (s *MemoryPrescriptionStore) ByAppointmentID(ctx context.Context, appointmentID uint) (*model.Prescription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.docs[appointmentID]
	if !ok {
		return nil, ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}
