package render

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icuboard/icuboard/pkg/sdk"
)

func TestCard(t *testing.T) {
	card := sdk.Bed{
		Number:           "UTI-03",
		Status:           sdk.BedOccupied,
		Type:             sdk.BedSurgical,
		PatientRecord:    "77007",
		PatientAge:       64,
		PatientSpecialty: "Cirurgia Geral",
		NextRecord:       "77031",
		ReservationType:  "Clinica",
		TransferFlag:     true,
		ExpectedRelease:  "2025-12-01",
	}.Card()

	out := Card(card)
	for _, want := range []string{"UTI-03", "Ocupado", "atual: 77007 (64)", "proximo: 77031 [Clinica]", "previsao: 2025-12-01", "transferencia"} {
		assert.Contains(t, out, want)
	}
}

func TestCard_EmptyBed(t *testing.T) {
	out := Card(sdk.Bed{Number: "UTI-04", Status: sdk.BedAvailable, Type: sdk.BedOther}.Card())
	assert.Contains(t, out, "Disponivel")
	assert.NotContains(t, out, "atual:")
	assert.NotContains(t, out, "proximo:")
}

func TestBoard_Columns(t *testing.T) {
	var cards []sdk.BedCard
	for i := 1; i <= 5; i++ {
		cards = append(cards, sdk.Bed{Number: fmt.Sprintf("UTI-%02d", i), Status: sdk.BedAvailable}.Card())
	}

	cardHeight := lipgloss.Height(Card(cards[0]))

	narrow := Board(cards, cardWidth+4)
	assert.Equal(t, 5*cardHeight, lipgloss.Height(narrow), "one card per row")

	wide := Board(cards, 0)
	assert.Equal(t, 2*cardHeight, lipgloss.Height(wide), "four per row")
	assert.True(t, strings.Index(wide, "UTI-01") < strings.Index(wide, "UTI-05"))

	assert.Empty(t, Board(nil, 80))
}

func TestStatusLabels(t *testing.T) {
	for _, st := range sdk.BedStatuses {
		assert.NotEqual(t, string(st), StatusLabel(st), st)
	}
	assert.Equal(t, "mystery", StatusLabel("mystery"))
}

func TestOutputHelpers(t *testing.T) {
	require.NoError(t, ValidateFormat(FormatJSON))
	assert.ErrorContains(t, ValidateFormat("yaml"), "unknown output format")

	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]int{"total": 10}))
	assert.Equal(t, "{\n  \"total\": 10\n}\n", buf.String())

	buf.Reset()
	w := Table(&buf)
	fmt.Fprintln(w, "LEITO\tSTATUS")
	fmt.Fprintln(w, "UTI-01\tocupado")
	require.NoError(t, w.Flush())
	assert.Equal(t, "LEITO   STATUS\nUTI-01  ocupado\n", buf.String())

	assert.Equal(t, "-", OrDash(""))
	assert.Equal(t, "x", OrDash("x"))
}
