// Package dashboard holds the ICU dashboard's views and its route guard. The
// views aggregate data from any Source; the router gates them on the session.
package dashboard

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/icuboard/icuboard/pkg/sdk"
)

// Source is the data the views are computed from. *sdk.Client and
// *mockdata.Store both implement it.
type Source interface {
	ListBeds(ctx context.Context) ([]sdk.Bed, error)
	ListBedsAvailableForReservation(ctx context.Context) ([]sdk.Bed, error)
	ReserveBed(ctx context.Context, number string, r sdk.Reservation) error
	RequestDischarge(ctx context.Context, number string) error
	CancelDischarge(ctx context.Context, number string) error
	BedHistory(ctx context.Context) ([]sdk.BedEvent, error)
	ListPatients(ctx context.Context) ([]sdk.Patient, error)
	GetPatient(ctx context.Context, code int) (*sdk.Patient, error)
}

const defaultFilterCacheSize = 64

// Views computes what each dashboard page shows.
type Views struct {
	source  Source
	filters *filterCache
	now     func() time.Time
}

// ViewOption configures Views.
type ViewOption func(*Views)

// WithClock sets the clock used for date-based alerts.
func WithClock(now func() time.Time) ViewOption {
	return func(v *Views) {
		v.now = now
	}
}

// NewViews returns views over source.
func NewViews(source Source, opts ...ViewOption) (*Views, error) {
	filters, err := newFilterCache(defaultFilterCacheSize)
	if err != nil {
		return nil, err
	}
	v := &Views{source: source, filters: filters, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// BedQuery narrows the bed list. Zero fields match everything.
type BedQuery struct {
	Status sdk.BedStatus
	Type   sdk.BedType
	// Filter is a boolean expression over FilterFields.
	Filter string
}

func (q BedQuery) expression() string {
	where := map[string]string{}
	if q.Status != "" {
		where["status"] = string(q.Status)
	}
	if q.Type != "" {
		where["type"] = string(q.Type)
	}
	return CombineFilters(BuildFilter(where), q.Filter)
}

// Beds returns the beds matching q in source order.
func (v *Views) Beds(ctx context.Context, q BedQuery) ([]sdk.Bed, error) {
	beds, err := v.source.ListBeds(ctx)
	if err != nil {
		return nil, err
	}
	return v.filters.apply(q.expression(), beds)
}

// BedCards returns the display cards of the beds matching q.
func (v *Views) BedCards(ctx context.Context, q BedQuery) ([]sdk.BedCard, error) {
	beds, err := v.Beds(ctx, q)
	if err != nil {
		return nil, err
	}
	cards := make([]sdk.BedCard, 0, len(beds))
	for _, b := range beds {
		cards = append(cards, b.Card())
	}
	return cards, nil
}

// Bed returns one bed by number.
func (v *Views) Bed(ctx context.Context, number string) (*sdk.Bed, error) {
	beds, err := v.source.ListBeds(ctx)
	if err != nil {
		return nil, err
	}
	for i := range beds {
		if strings.EqualFold(beds[i].Number, number) {
			return &beds[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", sdk.ErrBedNotFound, number)
}

// Patients returns the patients whose name, record or specialty contains
// search, case-insensitively. An empty search returns everyone.
func (v *Views) Patients(ctx context.Context, search string) ([]sdk.Patient, error) {
	patients, err := v.source.ListPatients(ctx)
	if err != nil {
		return nil, err
	}
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return patients, nil
	}
	var out []sdk.Patient
	for _, p := range patients {
		if strings.Contains(strings.ToLower(p.Name), search) ||
			strings.Contains(p.Record, search) ||
			strings.Contains(strings.ToLower(p.Specialty), search) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Patient returns one patient by code.
func (v *Views) Patient(ctx context.Context, code int) (*sdk.Patient, error) {
	return v.source.GetPatient(ctx, code)
}

// Requests is the reservation page: pending reservations and the beds that
// can still take one.
type Requests struct {
	Reserved  []sdk.Bed `json:"reservados"`
	Available []sdk.Bed `json:"disponiveis"`
}

// Requests lists reserved beds and beds open for reservation.
func (v *Views) Requests(ctx context.Context) (*Requests, error) {
	beds, err := v.source.ListBeds(ctx)
	if err != nil {
		return nil, err
	}
	available, err := v.source.ListBedsAvailableForReservation(ctx)
	if err != nil {
		return nil, err
	}
	req := &Requests{Available: available}
	for _, b := range beds {
		if b.HasReservation() {
			req.Reserved = append(req.Reserved, b)
		}
	}
	return req, nil
}

// Reserve validates r and queues it for the bed.
func (v *Views) Reserve(ctx context.Context, number string, r sdk.Reservation) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reservation: %w", err)
	}
	return v.source.ReserveBed(ctx, number, r)
}

// Discharges returns the beds with a pending discharge.
func (v *Views) Discharges(ctx context.Context) ([]sdk.Bed, error) {
	return v.Beds(ctx, BedQuery{Status: sdk.BedDischarge})
}

// RequestDischarge flags the bed's occupant for discharge.
func (v *Views) RequestDischarge(ctx context.Context, number string) error {
	return v.source.RequestDischarge(ctx, number)
}

// CancelDischarge withdraws the bed's discharge request.
func (v *Views) CancelDischarge(ctx context.Context, number string) error {
	return v.source.CancelDischarge(ctx, number)
}

// AlertKind classifies alerts.
type AlertKind string

const (
	AlertTransfer       AlertKind = "transferencia"
	AlertOverdueRelease AlertKind = "liberacao_atrasada"
)

// Alert is one item of the alerts page.
type Alert struct {
	Kind      AlertKind `json:"tipo"`
	BedNumber string    `json:"leito_numero"`
	Message   string    `json:"mensagem"`
}

// Alerts lists transfer-flagged beds, then beds whose expected release date
// has passed while they are still occupied, cleaning or in discharge.
func (v *Views) Alerts(ctx context.Context) ([]Alert, error) {
	beds, err := v.source.ListBeds(ctx)
	if err != nil {
		return nil, err
	}
	today := truncateDay(v.now())

	var transfers, overdue []Alert
	for _, b := range beds {
		if b.TransferFlag {
			transfers = append(transfers, Alert{
				Kind:      AlertTransfer,
				BedNumber: b.Number,
				Message:   fmt.Sprintf("bed %s is flagged for transfer", b.Number),
			})
		}
		switch b.Status {
		case sdk.BedOccupied, sdk.BedCleaning, sdk.BedDischarge:
		default:
			continue
		}
		release, ok := b.ExpectedReleaseDate()
		if !ok || !release.Before(today) {
			continue
		}
		days := int(today.Sub(release).Hours() / 24)
		overdue = append(overdue, Alert{
			Kind:      AlertOverdueRelease,
			BedNumber: b.Number,
			Message:   fmt.Sprintf("bed %s expected release %s is %s overdue", b.Number, b.ExpectedRelease, pluralDays(days)),
		})
	}
	return append(transfers, overdue...), nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return strconv.Itoa(n) + " days"
}

// Indicators are the bed statistics shown on the indicators page.
type Indicators struct {
	Total          int     `json:"total"`
	Occupied       int     `json:"ocupados"`
	Available      int     `json:"disponiveis"`
	Cleaning       int     `json:"higienizacao"`
	Disabled       int     `json:"desativados"`
	Discharge      int     `json:"alta"`
	Reserved       int     `json:"comReserva"`
	TransferAlerts int     `json:"alertasTransferencia"`
	OccupancyRate  float64 `json:"taxaOcupacao"`
}

// ComputeIndicators aggregates beds. The occupancy rate excludes disabled
// beds, is rounded to one decimal and is 0 when no bed is in service.
func ComputeIndicators(beds []sdk.Bed) Indicators {
	ind := Indicators{Total: len(beds)}
	for _, b := range beds {
		switch b.Status {
		case sdk.BedOccupied:
			ind.Occupied++
		case sdk.BedAvailable:
			ind.Available++
		case sdk.BedCleaning:
			ind.Cleaning++
		case sdk.BedDisabled:
			ind.Disabled++
		case sdk.BedDischarge:
			ind.Discharge++
		}
		if b.HasReservation() {
			ind.Reserved++
		}
		if b.TransferFlag {
			ind.TransferAlerts++
		}
	}
	if inService := ind.Total - ind.Disabled; inService > 0 {
		rate := float64(ind.Occupied) / float64(inService) * 100
		ind.OccupancyRate = math.Round(rate*10) / 10
	}
	return ind
}

// Indicators computes the bed statistics.
func (v *Views) Indicators(ctx context.Context) (*Indicators, error) {
	beds, err := v.source.ListBeds(ctx)
	if err != nil {
		return nil, err
	}
	ind := ComputeIndicators(beds)
	return &ind, nil
}

// History returns up to limit events, newest first. A limit of 0 or less
// returns every event.
func (v *Views) History(ctx context.Context, limit int) ([]sdk.BedEvent, error) {
	events, err := v.source.BedHistory(ctx)
	if err != nil {
		return nil, err
	}
	events = slices.Clone(events)
	slices.SortStableFunc(events, func(a, b sdk.BedEvent) int {
		return b.At.Compare(a.At)
	})
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}
