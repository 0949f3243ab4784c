package core

import (
	"context"
	"sort"
	"strings"

	"ethicure/internal/docstore"
	"ethicure/pkg/domain"
)

// MsgPrescriptionMedicines is reported when no usable medicine line remains.
const MsgPrescriptionMedicines = "Add at least one medicine with a name and dosage."

// Doctor is a doctor's schedule and prescription pad.
type Doctor struct {
	*Workspace[domain.DoctorDocument]
}

// OpenDoctor loads the doctor document for owner.
func OpenDoctor(ctx context.Context, store *docstore.Store[domain.DoctorDocument], owner domain.Owner, opts ...Option) (*Doctor, error) {
	w, err := Open(ctx, store, owner, opts...)
	if err != nil {
		return nil, err
	}
	return &Doctor{Workspace: w}, nil
}

func (d *Doctor) setStatus(ctx context.Context, op, id string, to domain.AppointmentStatus) error {
	return d.Mutate(ctx, op, func(doc *domain.DoctorDocument) error {
		apt, err := lookup(doc.Appointments, domain.EntityAppointment, id)
		if err != nil {
			return err
		}
		if err := domain.AppointmentLifecycle.Check(id, apt.Status, to); err != nil {
			return err
		}
		apt.Status = to
		return nil
	})
}

// ConfirmAppointment moves the appointment with id to confirmed.
func (d *Doctor) ConfirmAppointment(ctx context.Context, id string) error {
	return d.setStatus(ctx, "doctor.confirm_appointment", id, domain.AppointmentConfirmed)
}

// CompleteAppointment moves the appointment with id to completed.
func (d *Doctor) CompleteAppointment(ctx context.Context, id string) error {
	return d.setStatus(ctx, "doctor.complete_appointment", id, domain.AppointmentCompleted)
}

// CleanMedicines trims every line and keeps those with both a name and a
// dosage.
func CleanMedicines(lines []domain.MedicineLine) []domain.MedicineLine {
	out := make([]domain.MedicineLine, 0, len(lines))
	for _, l := range lines {
		l = domain.MedicineLine{
			Name:      strings.TrimSpace(l.Name),
			Dosage:    strings.TrimSpace(l.Dosage),
			Duration:  strings.TrimSpace(l.Duration),
			Frequency: strings.TrimSpace(l.Frequency),
		}
		if l.Name != "" && l.Dosage != "" {
			out = append(out, l)
		}
	}
	return out
}

// IssuePrescription records a prescription for the appointment with
// appointmentID and completes the appointment. The newest prescription is
// listed first.
func (d *Doctor) IssuePrescription(ctx context.Context, appointmentID string, medicines []domain.MedicineLine, notes string) (domain.Prescription, error) {
	lines := CleanMedicines(medicines)
	if len(lines) == 0 {
		return domain.Prescription{}, domain.FieldErrors{"medicines": MsgPrescriptionMedicines}
	}
	var rx domain.Prescription
	err := d.Mutate(ctx, "doctor.issue_prescription", func(doc *domain.DoctorDocument) error {
		apt, err := lookup(doc.Appointments, domain.EntityAppointment, appointmentID)
		if err != nil {
			return err
		}
		if err := domain.AppointmentLifecycle.Check(apt.ID, apt.Status, domain.AppointmentCompleted); err != nil {
			return err
		}
		rx = domain.Prescription{
			ID:            d.newID("rx"),
			AppointmentID: apt.ID,
			Patient:       apt.Patient,
			CreatedAt:     domain.At(d.now()),
			Medicines:     lines,
			Notes:         strings.TrimSpace(notes),
		}
		doc.Prescriptions = append([]domain.Prescription{rx}, doc.Prescriptions...)
		apt.Status = domain.AppointmentCompleted
		return nil
	})
	if err != nil {
		return domain.Prescription{}, err
	}
	return rx, nil
}

// DoctorSummary backs the doctor dashboard cards.
type DoctorSummary struct {
	Today     int
	Pending   int
	Confirmed int
}

// Summary counts today's, pending and confirmed appointments.
func (d *Doctor) Summary() DoctorSummary {
	now := d.now()
	apts := d.data().Appointments
	return DoctorSummary{
		Today: count(apts, func(apt domain.DoctorAppointment) bool {
			return apt.Datetime.SameDay(now, d.cfg.loc)
		}),
		Pending: count(apts, func(apt domain.DoctorAppointment) bool {
			return apt.Status == domain.AppointmentPending
		}),
		Confirmed: count(apts, func(apt domain.DoctorAppointment) bool {
			return apt.Status == domain.AppointmentConfirmed
		}),
	}
}

// Schedule returns the appointments in chronological order.
func (d *Doctor) Schedule() []domain.DoctorAppointment {
	out := d.view().Appointments
	sort.SliceStable(out, func(i, j int) bool { return out[i].Datetime.Before(out[j].Datetime.Time) })
	return out
}

// PrescriptionsFor returns the prescriptions written against appointmentID.
func (d *Doctor) PrescriptionsFor(appointmentID string) []domain.Prescription {
	return filter(d.view().Prescriptions, func(rx domain.Prescription) bool {
		return rx.AppointmentID == appointmentID
	})
}
