package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icuboard/icuboard/pkg/dashboard"
	"github.com/icuboard/icuboard/pkg/mockdata"
	"github.com/icuboard/icuboard/pkg/sdk"
)

var today = time.Date(2025, time.December, 2, 15, 30, 0, 0, time.UTC)

func newViews(t *testing.T, opts ...mockdata.Option) (*dashboard.Views, *mockdata.Store) {
	t.Helper()
	store := mockdata.New(opts...)
	views, err := dashboard.NewViews(store, dashboard.WithClock(func() time.Time { return today }))
	require.NoError(t, err)
	return views, store
}

func numbers(beds []sdk.Bed) []string {
	out := make([]string, 0, len(beds))
	for _, b := range beds {
		out = append(out, b.Number)
	}
	return out
}

func TestViews_Beds(t *testing.T) {
	views, _ := newViews(t)
	ctx := context.Background()

	occupied, err := views.Beds(ctx, dashboard.BedQuery{Status: sdk.BedOccupied})
	require.NoError(t, err)
	assert.Equal(t, []string{"UTI-01", "UTI-02", "UTI-03", "UTI-07", "UTI-09"}, numbers(occupied))

	surgicalOccupied, err := views.Beds(ctx, dashboard.BedQuery{Status: sdk.BedOccupied, Type: sdk.BedSurgical})
	require.NoError(t, err)
	assert.Equal(t, []string{"UTI-01", "UTI-09"}, numbers(surgicalOccupied))

	flagged, err := views.Beds(ctx, dashboard.BedQuery{Type: sdk.BedSurgical, Filter: `transfer == "true"`})
	require.NoError(t, err)
	assert.Equal(t, []string{"UTI-09"}, numbers(flagged))

	_, err = views.Beds(ctx, dashboard.BedQuery{Filter: "status =="})
	assert.Error(t, err)
}

func TestViews_BedCards(t *testing.T) {
	views, _ := newViews(t)

	cards, err := views.BedCards(context.Background(), dashboard.BedQuery{Filter: `number == "UTI-01" or number == "UTI-04"`})
	require.NoError(t, err)
	require.Len(t, cards, 2)

	assert.Equal(t, &sdk.PatientSummary{Record: "77018", Age: 30, Specialty: "Cirurgia Geral"}, cards[0].Current)
	assert.Equal(t, &sdk.PatientSummary{Record: "77012", Age: 0, Specialty: "Nefrologia"}, cards[0].Next)
	assert.Nil(t, cards[1].Current)
	assert.Nil(t, cards[1].Next)
}

func TestViews_Bed(t *testing.T) {
	views, _ := newViews(t)

	bed, err := views.Bed(context.Background(), "uti-10")
	require.NoError(t, err)
	assert.Equal(t, sdk.BedDischarge, bed.Status)

	_, err = views.Bed(context.Background(), "UTI-11")
	assert.ErrorIs(t, err, sdk.ErrBedNotFound)
}

func TestViews_Patients(t *testing.T) {
	views, _ := newViews(t)
	ctx := context.Background()

	all, err := views.Patients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 6)

	byName, err := views.Patients(ctx, "bezerra")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "77005", byName[0].Record)

	byRecord, err := views.Patients(ctx, "7701")
	require.NoError(t, err)
	assert.Len(t, byRecord, 3)

	bySpecialty, err := views.Patients(ctx, "NEURO")
	require.NoError(t, err)
	require.Len(t, bySpecialty, 1)

	p, err := views.Patient(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Hematologia", p.Specialty)

	_, err = views.Patient(ctx, 42)
	assert.ErrorIs(t, err, sdk.ErrPatientNotFound)
}

func TestViews_Requests(t *testing.T) {
	views, _ := newViews(t)
	ctx := context.Background()

	req, err := views.Requests(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"UTI-01", "UTI-03", "UTI-06", "UTI-07", "UTI-09", "UTI-10"}, numbers(req.Reserved))
	assert.Equal(t, []string{"UTI-02", "UTI-04", "UTI-05"}, numbers(req.Available))

	err = views.Reserve(ctx, "UTI-04", sdk.Reservation{Record: 0, Age: -1})
	require.Error(t, err)
	assert.ErrorContains(t, err, "record number must be positive")
	assert.ErrorContains(t, err, "age must not be negative")
	assert.ErrorContains(t, err, "specialty is required")

	require.NoError(t, views.Reserve(ctx, "UTI-04", sdk.Reservation{Record: 77030, Age: 58, Specialty: "Cardiologia"}))
	assert.ErrorIs(t, views.Reserve(ctx, "UTI-04", sdk.Reservation{Record: 77031, Age: 1, Specialty: "Pediatria"}), sdk.ErrInvalidBedState)

	req, err = views.Requests(ctx)
	require.NoError(t, err)
	assert.Contains(t, numbers(req.Reserved), "UTI-04")
	assert.NotContains(t, numbers(req.Available), "UTI-04")
}

func TestViews_Discharges(t *testing.T) {
	views, _ := newViews(t)
	ctx := context.Background()

	beds, err := views.Discharges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"UTI-10"}, numbers(beds))

	require.NoError(t, views.RequestDischarge(ctx, "UTI-02"))
	beds, err = views.Discharges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"UTI-02", "UTI-10"}, numbers(beds))

	require.NoError(t, views.CancelDischarge(ctx, "UTI-10"))
	assert.ErrorIs(t, views.CancelDischarge(ctx, "UTI-10"), sdk.ErrInvalidBedState)
	assert.ErrorIs(t, views.RequestDischarge(ctx, "UTI-04"), sdk.ErrInvalidBedState)
}

func TestViews_Alerts(t *testing.T) {
	views, _ := newViews(t)

	alerts, err := views.Alerts(context.Background())
	require.NoError(t, err)

	var got []string
	for _, a := range alerts {
		got = append(got, string(a.Kind)+":"+a.BedNumber)
	}
	// Beds 03, 05 and 10 were expected to be released before the 2nd of December.
	assert.Equal(t, []string{
		"transferencia:UTI-03",
		"transferencia:UTI-09",
		"liberacao_atrasada:UTI-03",
		"liberacao_atrasada:UTI-05",
		"liberacao_atrasada:UTI-10",
	}, got)
	assert.Contains(t, alerts[3].Message, "5 days overdue")
	assert.Contains(t, alerts[2].Message, "1 day overdue")
}

func TestViews_AlertsSkipAvailableBeds(t *testing.T) {
	views, _ := newViews(t, mockdata.WithBeds([]sdk.Bed{
		{Number: "UTI-01", Status: sdk.BedAvailable, ExpectedRelease: "2025-01-01"},
		{Number: "UTI-02", Status: sdk.BedOccupied, ExpectedRelease: "2025-12-02"},
		{Number: "UTI-03", Status: sdk.BedOccupied, ExpectedRelease: "not-a-date"},
	}))

	alerts, err := views.Alerts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, alerts)
}

func TestViews_Indicators(t *testing.T) {
	views, _ := newViews(t)

	ind, err := views.Indicators(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dashboard.Indicators{
		Total:          10,
		Occupied:       5,
		Available:      2,
		Cleaning:       1,
		Disabled:       1,
		Discharge:      1,
		Reserved:       6,
		TransferAlerts: 2,
		OccupancyRate:  55.6,
	}, *ind)
}

func TestComputeIndicators_NoBedInService(t *testing.T) {
	ind := dashboard.ComputeIndicators([]sdk.Bed{{Number: "UTI-01", Status: sdk.BedDisabled}})
	assert.Equal(t, 0.0, ind.OccupancyRate)
	assert.Equal(t, 0.0, dashboard.ComputeIndicators(nil).OccupancyRate)
}

func TestViews_History(t *testing.T) {
	clock := today
	views, _ := newViews(t, mockdata.WithClock(func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}))
	ctx := context.Background()

	require.NoError(t, views.RequestDischarge(ctx, "UTI-07"))
	require.NoError(t, views.CancelDischarge(ctx, "UTI-07"))

	events, err := views.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, sdk.EventDischargeCancelled, events[0].Kind)
	assert.Equal(t, sdk.EventDischargeRequested, events[1].Kind)
	for i := 1; i < len(events); i++ {
		assert.False(t, events[i].At.After(events[i-1].At))
	}

	limited, err := views.History(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, events[:2], limited)
}

func TestViews_SourceLatencyHonoursContext(t *testing.T) {
	views, _ := newViews(t, mockdata.WithLatency(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := views.Indicators(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
