package sdk

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// BedStatus is the occupancy state of an ICU bed.
type BedStatus string

const (
	BedAvailable BedStatus = "disponivel"
	BedOccupied  BedStatus = "ocupado"
	BedCleaning  BedStatus = "higienizacao"
	BedDisabled  BedStatus = "desativado"
	BedDischarge BedStatus = "alta"
)

// BedStatuses lists every status in display order.
var BedStatuses = []BedStatus{BedAvailable, BedOccupied, BedCleaning, BedDisabled, BedDischarge}

// ParseBedStatus validates a status name.
func ParseBedStatus(s string) (BedStatus, error) {
	for _, st := range BedStatuses {
		if string(st) == strings.ToLower(strings.TrimSpace(s)) {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown bed status %q", s)
}

// BedType is the clinical profile a bed is set up for.
type BedType string

const (
	BedSurgical   BedType = "cirurgico"
	BedHematology BedType = "hem"
	BedObstetric  BedType = "obstetrico"
	BedOther      BedType = "outro"
	BedUndefined  BedType = "nao_definido"
)

// BedTypes lists every bed type in display order.
var BedTypes = []BedType{BedSurgical, BedHematology, BedObstetric, BedOther, BedUndefined}

// ParseBedType validates a type name.
func ParseBedType(s string) (BedType, error) {
	for _, t := range BedTypes {
		if string(t) == strings.ToLower(strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown bed type %q", s)
}

// DateLayout is the format of date-only fields on the wire.
const DateLayout = "2006-01-02"

// Bed is one ICU bed with its current occupant and, when reserved, the next
// patient queued for it.
type Bed struct {
	Number string    `json:"leito_numero"`
	Status BedStatus `json:"status"`
	Type   BedType   `json:"tipo"`

	PatientRecord    string `json:"paciente_prontuario,omitempty"`
	PatientAge       int    `json:"paciente_idade,omitempty"`
	PatientSpecialty string `json:"paciente_especialidade,omitempty"`

	NextRecord      string `json:"proximo_prontuario,omitempty"`
	NextSpecialty   string `json:"proximo_especialidade,omitempty"`
	ReservationType string `json:"tipo_reserva,omitempty"`

	TransferFlag    bool   `json:"sinalizacao_transferencia"`
	ExpectedRelease string `json:"previsao_liberacao,omitempty"`
}

// HasPatient reports whether the bed has a current occupant.
func (b Bed) HasPatient() bool { return b.PatientRecord != "" }

// HasReservation reports whether a next patient is queued for the bed.
func (b Bed) HasReservation() bool { return b.NextRecord != "" }

// ExpectedReleaseDate parses the forecast release date.
func (b Bed) ExpectedReleaseDate() (time.Time, bool) {
	if b.ExpectedRelease == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, b.ExpectedRelease)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// PatientSummary is the short patient description shown on a bed card.
type PatientSummary struct {
	Record    string `json:"prontuario"`
	Age       int    `json:"idade"`
	Specialty string `json:"especialidade"`
}

// BedCard is the display projection of a Bed.
type BedCard struct {
	Number          string          `json:"leitoNumero"`
	Status          BedStatus       `json:"status"`
	Type            BedType         `json:"tipo"`
	Current         *PatientSummary `json:"pacienteAtual,omitempty"`
	Next            *PatientSummary `json:"proximoPaciente,omitempty"`
	ReservationType string          `json:"tipoReserva,omitempty"`
	TransferFlag    bool            `json:"sinalizacaoTransferencia,omitempty"`
	ExpectedRelease string          `json:"previsaoLiberacao,omitempty"`
}

// Card formats the bed for display. The next patient's age is not part of a
// reservation and is reported as 0.
func (b Bed) Card() BedCard {
	card := BedCard{
		Number:          b.Number,
		Status:          b.Status,
		Type:            b.Type,
		ReservationType: b.ReservationType,
		TransferFlag:    b.TransferFlag,
		ExpectedRelease: b.ExpectedRelease,
	}
	if b.HasPatient() {
		card.Current = &PatientSummary{Record: b.PatientRecord, Age: b.PatientAge, Specialty: b.PatientSpecialty}
	}
	if b.HasReservation() {
		card.Next = &PatientSummary{Record: b.NextRecord, Specialty: b.NextSpecialty}
	}
	return card
}

// Reservation queues a patient for a bed.
type Reservation struct {
	Record    int    `json:"prontuario"`
	Age       int    `json:"idade"`
	Specialty string `json:"especialidade"`
}

// Validate checks the reservation fields.
func (r Reservation) Validate() error {
	var errs []error
	if r.Record <= 0 {
		errs = append(errs, errors.New("record number must be positive"))
	}
	if r.Age < 0 {
		errs = append(errs, errors.New("age must not be negative"))
	}
	if strings.TrimSpace(r.Specialty) == "" {
		errs = append(errs, errors.New("specialty is required"))
	}
	return errors.Join(errs...)
}

// BedEventKind classifies entries of the bed history.
type BedEventKind string

const (
	EventReservation        BedEventKind = "reserva"
	EventDischargeRequested BedEventKind = "alta_solicitada"
	EventDischargeCancelled BedEventKind = "alta_cancelada"
)

// BedEvent is one entry of the bed history.
type BedEvent struct {
	ID        string       `json:"id"`
	BedNumber string       `json:"leito_numero"`
	Kind      BedEventKind `json:"tipo"`
	Detail    string       `json:"detalhe,omitempty"`
	At        time.Time    `json:"em"`
}

// AdminData is the payload of the admin-only endpoint.
type AdminData struct {
	Message    string   `json:"message"`
	UserGroups []string `json:"user_groups"`
}
