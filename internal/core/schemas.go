package core

import (
	"time"

	"ethicure/internal/docstore"
	"ethicure/pkg/domain"
)

// AdminSchema declares the administrator document.
func AdminSchema() docstore.Schema[domain.AdminDocument] {
	return docstore.Schema[domain.AdminDocument]{
		Role:     domain.RoleAdmin,
		Required: domain.AdminRequired,
		Defaults: domain.DefaultAdmin,
	}
}

// DoctorSchema declares the doctor document.
func DoctorSchema() docstore.Schema[domain.DoctorDocument] {
	return docstore.Schema[domain.DoctorDocument]{
		Role:     domain.RoleDoctor,
		Required: domain.DoctorRequired,
		Defaults: func(now time.Time, _ domain.Owner) domain.DoctorDocument { return domain.DefaultDoctor(now) },
	}
}

// PatientSchema declares the patient document.
func PatientSchema() docstore.Schema[domain.PatientDocument] {
	return docstore.Schema[domain.PatientDocument]{
		Role:     domain.RolePatient,
		Required: domain.PatientRequired,
		Defaults: func(now time.Time, _ domain.Owner) domain.PatientDocument { return domain.DefaultPatient(now) },
	}
}

// PharmacistSchema declares the pharmacist document.
func PharmacistSchema() docstore.Schema[domain.PharmacistDocument] {
	return docstore.Schema[domain.PharmacistDocument]{
		Role:     domain.RolePharmacist,
		Required: domain.PharmacistRequired,
		Defaults: func(now time.Time, _ domain.Owner) domain.PharmacistDocument { return domain.DefaultPharmacist(now) },
	}
}

// StaffSchema declares the front-desk document.
func StaffSchema() docstore.Schema[domain.StaffDocument] {
	return docstore.Schema[domain.StaffDocument]{
		Role:     domain.RoleStaff,
		Required: domain.StaffRequired,
		Defaults: func(now time.Time, _ domain.Owner) domain.StaffDocument { return domain.DefaultStaff(now) },
	}
}
