// Package mockdata serves the dashboard views from an in-memory ICU so the
// dashboard can be exercised without a backend.
package mockdata

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/icuboard/icuboard/pkg/sdk"
)

// Store is a mutable in-memory ICU. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	beds     []sdk.Bed
	patients []sdk.Patient
	events   []sdk.BedEvent

	latency time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithLatency delays every call by d, emulating a network round trip.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		s.latency = d
	}
}

// WithClock sets the clock used to timestamp history entries.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithBeds replaces the seeded beds.
func WithBeds(beds []sdk.Bed) Option {
	return func(s *Store) {
		s.beds = slices.Clone(beds)
	}
}

// WithPatients replaces the seeded patients.
func WithPatients(patients []sdk.Patient) Option {
	return func(s *Store) {
		s.patients = slices.Clone(patients)
	}
}

// New returns a store seeded with DefaultBeds and DefaultPatients.
func New(opts ...Option) *Store {
	s := &Store{
		beds:     DefaultBeds(),
		patients: DefaultPatients(),
		events:   defaultEvents(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) wait(ctx context.Context) error {
	if s.latency <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ListBeds returns a copy of every bed.
func (s *Store) ListBeds(ctx context.Context) ([]sdk.Bed, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.beds), nil
}

// GetBed returns one bed by number.
func (s *Store) GetBed(ctx context.Context, number string) (*sdk.Bed, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(number)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", sdk.ErrBedNotFound, number)
	}
	b := s.beds[i]
	return &b, nil
}

// ListBedsAvailableForReservation returns beds that are not disabled and have
// no queued patient.
func (s *Store) ListBedsAvailableForReservation(ctx context.Context) ([]sdk.Bed, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []sdk.Bed
	for _, b := range s.beds {
		if reservable(b) {
			out = append(out, b)
		}
	}
	return out, nil
}

func reservable(b sdk.Bed) bool {
	return b.Status != sdk.BedDisabled && !b.HasReservation()
}

// ReserveBed queues a patient for the bed.
func (s *Store) ReserveBed(ctx context.Context, number string, r sdk.Reservation) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reservation: %w", err)
	}
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(number)
	if i < 0 {
		return fmt.Errorf("%w: %s", sdk.ErrBedNotFound, number)
	}
	b := &s.beds[i]
	if !reservable(*b) {
		return fmt.Errorf("%w: bed %s cannot take a reservation (status %s)", sdk.ErrInvalidBedState, number, b.Status)
	}
	b.NextRecord = strconv.Itoa(r.Record)
	b.NextSpecialty = r.Specialty
	b.ReservationType = "Clinica"
	s.record(number, sdk.EventReservation, fmt.Sprintf("prontuario %d (%s)", r.Record, r.Specialty))
	return nil
}

// RequestDischarge moves an occupied bed to discharge.
func (s *Store) RequestDischarge(ctx context.Context, number string) error {
	return s.transition(ctx, number, sdk.BedOccupied, sdk.BedDischarge, sdk.EventDischargeRequested)
}

// CancelDischarge moves a bed in discharge back to occupied.
func (s *Store) CancelDischarge(ctx context.Context, number string) error {
	return s.transition(ctx, number, sdk.BedDischarge, sdk.BedOccupied, sdk.EventDischargeCancelled)
}

func (s *Store) transition(ctx context.Context, number string, from, to sdk.BedStatus, kind sdk.BedEventKind) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(number)
	if i < 0 {
		return fmt.Errorf("%w: %s", sdk.ErrBedNotFound, number)
	}
	if s.beds[i].Status != from {
		return fmt.Errorf("%w: bed %s is %s, expected %s", sdk.ErrInvalidBedState, number, s.beds[i].Status, from)
	}
	s.beds[i].Status = to
	s.record(number, kind, "")
	return nil
}

// BedHistory returns the recorded events, oldest first.
func (s *Store) BedHistory(ctx context.Context) ([]sdk.BedEvent, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.events), nil
}

// ListPatients returns a copy of every patient.
func (s *Store) ListPatients(ctx context.Context) ([]sdk.Patient, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.patients), nil
}

// GetPatient returns one patient by code.
func (s *Store) GetPatient(ctx context.Context, code int) (*sdk.Patient, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.patients {
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %d", sdk.ErrPatientNotFound, code)
}

func (s *Store) indexOf(number string) int {
	return slices.IndexFunc(s.beds, func(b sdk.Bed) bool { return b.Number == number })
}

// record must be called with mu held.
func (s *Store) record(number string, kind sdk.BedEventKind, detail string) {
	s.events = append(s.events, sdk.BedEvent{
		ID:        uuid.NewString(),
		BedNumber: number,
		Kind:      kind,
		Detail:    detail,
		At:        s.now().UTC(),
	})
}
