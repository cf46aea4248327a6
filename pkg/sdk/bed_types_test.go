package sdk_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/icuboard/icuboard/pkg/sdk"
)

func TestReservationValidate(t *testing.T) {
	tests := []struct {
		name    string
		r       sdk.Reservation
		wantErr string
	}{
		{name: "valid", r: sdk.Reservation{Record: 77040, Age: 70, Specialty: "Geriatria"}},
		{name: "age unknown", r: sdk.Reservation{Record: 77041, Age: 0, Specialty: "Neonatologia"}},
		{name: "zero record", r: sdk.Reservation{Age: 40, Specialty: "Cardiologia"}, wantErr: "record number must be positive"},
		{name: "negative age", r: sdk.Reservation{Record: 1, Age: -1, Specialty: "Cardiologia"}, wantErr: "age must not be negative"},
		{name: "blank specialty", r: sdk.Reservation{Record: 1, Age: 40, Specialty: "  "}, wantErr: "specialty is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
