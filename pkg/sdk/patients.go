package sdk

import (
	"context"
	"fmt"
	"strconv"
)

// Patient is an inpatient record as exported by the hospital system.
type Patient struct {
	Code              int    `json:"codigo"`
	Record            string `json:"prontuario"`
	Name              string `json:"nome"`
	BirthDate         string `json:"dt_nascimento"`
	Age               int    `json:"idade"`
	MotherName        string `json:"nome_mae"`
	FatherName        string `json:"nome_pai,omitempty"`
	Sex               string `json:"sexo"`
	Race              string `json:"cor"`
	Specialty         string `json:"especialidade_atual"`
	MainDiagnosis     string `json:"diagnostico_principal"`
	AdmissionDate     string `json:"data_admissao"`
	ExpectedDischarge string `json:"data_alta_prevista,omitempty"`
	Origin            string `json:"origem_atendimento"`
}

// ListPatients returns every patient. The endpoint requires authentication.
func (c *Client) ListPatients(ctx context.Context) ([]Patient, error) {
	var patients []Patient
	if err := c.getJSON(ctx, "/api/pacientes", nil, &patients); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	for _, p := range patients {
		c.patients.Add(p.Code, p)
	}
	return patients, nil
}

// GetPatient returns a patient by code. Results are memoized for the life of
// the client.
func (c *Client) GetPatient(ctx context.Context, code int) (*Patient, error) {
	if p, ok := c.patients.Get(code); ok {
		return &p, nil
	}

	var p Patient
	if err := c.getJSON(ctx, "/api/pacientes/"+strconv.Itoa(code), nil, &p); err != nil {
		if IsNotFound(err) {
			return nil, fmt.Errorf("%w: %d: %w", ErrPatientNotFound, code, err)
		}
		return nil, fmt.Errorf("failed to get patient %d: %w", code, err)
	}
	c.patients.Add(code, p)
	return &p, nil
}
