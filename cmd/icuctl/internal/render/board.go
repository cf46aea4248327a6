// Package render formats dashboard data for the terminal.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/icuboard/icuboard/pkg/sdk"
)

const (
	cardWidth   = 26
	defaultCols = 4
)

// StatusColor is the 256-color palette entry used for each bed status.
func StatusColor(status sdk.BedStatus) lipgloss.Color {
	switch status {
	case sdk.BedAvailable:
		return lipgloss.Color("35") // green
	case sdk.BedOccupied:
		return lipgloss.Color("167") // red
	case sdk.BedCleaning:
		return lipgloss.Color("178") // amber
	case sdk.BedDischarge:
		return lipgloss.Color("75") // blue
	default:
		return lipgloss.Color("245")
	}
}

// StatusLabel is the human label of a bed status.
func StatusLabel(status sdk.BedStatus) string {
	switch status {
	case sdk.BedAvailable:
		return "Disponivel"
	case sdk.BedOccupied:
		return "Ocupado"
	case sdk.BedCleaning:
		return "Higienizacao"
	case sdk.BedDisabled:
		return "Desativado"
	case sdk.BedDischarge:
		return "Alta"
	default:
		return string(status)
	}
}

// Card renders one bed card.
func Card(card sdk.BedCard) string {
	color := StatusColor(card.Status)

	header := lipgloss.NewStyle().Bold(true).Render(card.Number) + " " +
		lipgloss.NewStyle().Foreground(color).Render(StatusLabel(card.Status))

	lines := []string{header, "tipo: " + string(card.Type)}
	if card.Current != nil {
		lines = append(lines, fmt.Sprintf("atual: %s (%d) %s", card.Current.Record, card.Current.Age, card.Current.Specialty))
	}
	if card.Next != nil {
		next := "proximo: " + card.Next.Record
		if card.ReservationType != "" {
			next += " [" + card.ReservationType + "]"
		}
		lines = append(lines, next)
	}
	if card.ExpectedRelease != "" {
		lines = append(lines, "previsao: "+card.ExpectedRelease)
	}
	if card.TransferFlag {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true).Render("! transferencia"))
	}

	return lipgloss.NewStyle().
		Width(cardWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}

// Board lays the cards out in rows that fit width. A width of 0 or less uses
// four columns.
func Board(cards []sdk.BedCard, width int) string {
	if len(cards) == 0 {
		return ""
	}
	cols := defaultCols
	if width > 0 {
		// card plus border and padding
		cols = max(1, width/(cardWidth+4))
	}

	var rows []string
	for start := 0; start < len(cards); start += cols {
		end := min(start+cols, len(cards))
		rendered := make([]string, 0, end-start)
		for _, c := range cards[start:end] {
			rendered = append(rendered, Card(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
