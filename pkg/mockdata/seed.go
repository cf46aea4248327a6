package mockdata

import (
	"time"

	"github.com/icuboard/icuboard/pkg/sdk"
)

// DefaultBeds is the ten-bed ICU used for demos and tests.
func DefaultBeds() []sdk.Bed {
	return []sdk.Bed{
		{
			Number: "UTI-01", Status: sdk.BedOccupied, Type: sdk.BedSurgical,
			PatientRecord: "77018", PatientAge: 30, PatientSpecialty: "Cirurgia Geral",
			NextRecord: "77012", NextSpecialty: "Nefrologia", ReservationType: "Emergencia",
			ExpectedRelease: "2025-12-03",
		},
		{
			Number: "UTI-02", Status: sdk.BedOccupied, Type: sdk.BedHematology,
			PatientRecord: "77016", PatientAge: 27, PatientSpecialty: "Hematologia",
			ExpectedRelease: "2025-12-12",
		},
		{
			Number: "UTI-03", Status: sdk.BedOccupied, Type: sdk.BedObstetric,
			PatientRecord: "77007", PatientAge: 40, PatientSpecialty: "Obstetricia",
			NextRecord: "77009", NextSpecialty: "Infectologia", ReservationType: "Clinica",
			TransferFlag: true, ExpectedRelease: "2025-12-01",
		},
		{
			Number: "UTI-04", Status: sdk.BedAvailable, Type: sdk.BedUndefined,
		},
		{
			Number: "UTI-05", Status: sdk.BedCleaning, Type: sdk.BedUndefined,
			ExpectedRelease: "2025-11-27",
		},
		{
			Number: "UTI-06", Status: sdk.BedAvailable, Type: sdk.BedSurgical,
			NextRecord: "77018", NextSpecialty: "Cirurgia Geral", ReservationType: "Cirurgico",
			ExpectedRelease: "2025-11-29",
		},
		{
			Number: "UTI-07", Status: sdk.BedOccupied, Type: sdk.BedOther,
			PatientRecord: "77006", PatientAge: 25, PatientSpecialty: "Neurologia",
			NextRecord: "77014", NextSpecialty: "Pneumologia", ReservationType: "Clinica",
			ExpectedRelease: "2025-12-05",
		},
		{
			Number: "UTI-08", Status: sdk.BedDisabled, Type: sdk.BedOther,
		},
		{
			Number: "UTI-09", Status: sdk.BedOccupied, Type: sdk.BedSurgical,
			PatientRecord: "77010", PatientAge: 21, PatientSpecialty: "Trauma",
			NextRecord: "77002", NextSpecialty: "Ortopedia", ReservationType: "Emergencia",
			TransferFlag: true, ExpectedRelease: "2025-12-04",
		},
		{
			Number: "UTI-10", Status: sdk.BedDischarge, Type: sdk.BedUndefined,
			PatientRecord: "77005", PatientAge: 49, PatientSpecialty: "Oncologia",
			NextRecord: "77011", NextSpecialty: "Reumatologia", ReservationType: "Clinica",
			ExpectedRelease: "2025-11-30",
		},
	}
}

// DefaultPatients are the inpatients occupying the default beds.
func DefaultPatients() []sdk.Patient {
	return []sdk.Patient{
		{
			Code: 1, Record: "77018", Name: "Marcos Vinicius Albuquerque", BirthDate: "1995-03-14", Age: 30,
			MotherName: "Helena Albuquerque", Sex: "M", Race: "Parda", Specialty: "Cirurgia Geral",
			MainDiagnosis: "Abdome agudo obstrutivo", AdmissionDate: "2025-11-20",
			ExpectedDischarge: "2025-12-03", Origin: "Emergencia",
		},
		{
			Code: 2, Record: "77016", Name: "Juliana Ferreira Lins", BirthDate: "1998-07-02", Age: 27,
			MotherName: "Rosa Ferreira", FatherName: "Carlos Lins", Sex: "F", Race: "Branca",
			Specialty: "Hematologia", MainDiagnosis: "Leucemia mieloide aguda", AdmissionDate: "2025-11-18",
			ExpectedDischarge: "2025-12-12", Origin: "Ambulatorio",
		},
		{
			Code: 3, Record: "77007", Name: "Patricia Gomes de Melo", BirthDate: "1985-01-22", Age: 40,
			MotherName: "Lucia Gomes", Sex: "F", Race: "Preta", Specialty: "Obstetricia",
			MainDiagnosis: "Pre-eclampsia grave", AdmissionDate: "2025-11-24",
			ExpectedDischarge: "2025-12-01", Origin: "Centro Obstetrico",
		},
		{
			Code: 4, Record: "77006", Name: "Rafael Souza Cavalcanti", BirthDate: "2000-09-10", Age: 25,
			MotherName: "Ana Souza", FatherName: "Paulo Cavalcanti", Sex: "M", Race: "Parda",
			Specialty: "Neurologia", MainDiagnosis: "Acidente vascular cerebral hemorragico",
			AdmissionDate: "2025-11-21", ExpectedDischarge: "2025-12-05", Origin: "Emergencia",
		},
		{
			Code: 5, Record: "77010", Name: "Bruno Henrique Tavares", BirthDate: "2004-05-30", Age: 21,
			MotherName: "Claudia Tavares", Sex: "M", Race: "Branca", Specialty: "Trauma",
			MainDiagnosis: "Politraumatismo", AdmissionDate: "2025-11-25",
			ExpectedDischarge: "2025-12-04", Origin: "SAMU",
		},
		{
			Code: 6, Record: "77005", Name: "Maria do Carmo Bezerra", BirthDate: "1976-11-08", Age: 49,
			MotherName: "Josefa Bezerra", Sex: "F", Race: "Parda", Specialty: "Oncologia",
			MainDiagnosis: "Neutropenia febril", AdmissionDate: "2025-11-15",
			ExpectedDischarge: "2025-11-30", Origin: "Enfermaria",
		},
	}
}

// seedTime anchors the seeded history entries.
var seedTime = time.Date(2025, time.November, 26, 8, 0, 0, 0, time.UTC)

func defaultEvents() []sdk.BedEvent {
	return []sdk.BedEvent{
		{ID: "5f7c1c1e-0b0e-4c1e-9d8a-4d0e8f2b7a01", BedNumber: "UTI-01", Kind: sdk.EventReservation, Detail: "prontuario 77012 (Nefrologia)", At: seedTime},
		{ID: "5f7c1c1e-0b0e-4c1e-9d8a-4d0e8f2b7a02", BedNumber: "UTI-06", Kind: sdk.EventReservation, Detail: "prontuario 77018 (Cirurgia Geral)", At: seedTime.Add(30 * time.Minute)},
		{ID: "5f7c1c1e-0b0e-4c1e-9d8a-4d0e8f2b7a03", BedNumber: "UTI-10", Kind: sdk.EventDischargeRequested, At: seedTime.Add(2 * time.Hour)},
	}
}
