package sdk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func bedPath(number string, rest ...string) string {
	p := "/leitos/" + url.PathEscape(number)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// ListBeds returns every bed known to the API.
func (c *Client) ListBeds(ctx context.Context) ([]Bed, error) {
	var beds []Bed
	if err := c.getJSON(ctx, "/leitos", nil, &beds); err != nil {
		return nil, fmt.Errorf("failed to list beds: %w", err)
	}
	return beds, nil
}

// GetBed looks a bed up by number. The API has no per-bed endpoint, so the
// full list is fetched.
func (c *Client) GetBed(ctx context.Context, number string) (*Bed, error) {
	beds, err := c.ListBeds(ctx)
	if err != nil {
		return nil, err
	}
	for i := range beds {
		if beds[i].Number == number {
			return &beds[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrBedNotFound, number)
}

// ListBedsAvailableForReservation returns the beds that can take a reservation.
func (c *Client) ListBedsAvailableForReservation(ctx context.Context) ([]Bed, error) {
	var beds []Bed
	if err := c.getJSON(ctx, "/leitos/disponiveis-para-reserva", nil, &beds); err != nil {
		return nil, fmt.Errorf("failed to list beds available for reservation: %w", err)
	}
	return beds, nil
}

// ReserveBed queues a patient for the bed.
func (c *Client) ReserveBed(ctx context.Context, number string, r Reservation) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid reservation: %w", err)
	}
	if err := c.sendJSON(ctx, http.MethodPost, bedPath(number, "reservar"), r, nil); err != nil {
		return c.bedError("reserve", number, err)
	}
	return nil
}

// RequestDischarge flags the bed's occupant for discharge.
func (c *Client) RequestDischarge(ctx context.Context, number string) error {
	if err := c.sendJSON(ctx, http.MethodPost, bedPath(number, "alta"), nil, nil); err != nil {
		return c.bedError("request discharge for", number, err)
	}
	return nil
}

// CancelDischarge withdraws a discharge request.
func (c *Client) CancelDischarge(ctx context.Context, number string) error {
	if err := c.sendJSON(ctx, http.MethodDelete, bedPath(number, "alta"), nil, nil); err != nil {
		return c.bedError("cancel discharge for", number, err)
	}
	return nil
}

// BedHistory returns the recorded bed events.
func (c *Client) BedHistory(ctx context.Context) ([]BedEvent, error) {
	var events []BedEvent
	if err := c.getJSON(ctx, "/leitos/historico", nil, &events); err != nil {
		return nil, fmt.Errorf("failed to load bed history: %w", err)
	}
	return events, nil
}

// AdminData fetches the admin-only payload. The API answers 403 for users
// outside the admin group.
func (c *Client) AdminData(ctx context.Context) (*AdminData, error) {
	var data AdminData
	if err := c.getJSON(ctx, "/api/admin-only-data", nil, &data); err != nil {
		return nil, fmt.Errorf("failed to load admin data: %w", err)
	}
	return &data, nil
}

func (c *Client) bedError(action, number string, err error) error {
	switch StatusCode(err) {
	case http.StatusNotFound:
		return fmt.Errorf("failed to %s bed %s: %w: %w", action, number, ErrBedNotFound, err)
	case http.StatusConflict:
		return fmt.Errorf("failed to %s bed %s: %w: %w", action, number, ErrInvalidBedState, err)
	}
	return fmt.Errorf("failed to %s bed %s: %w", action, number, err)
}
