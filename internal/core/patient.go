package core

import (
	"context"
	"strings"
	"time"

	"ethicure/internal/docstore"
	"ethicure/pkg/domain"
)

// MsgBooking is reported when a booking lacks a doctor, date or time.
const MsgBooking = "Please choose a doctor, date, and time."

// Booking is an appointment request entered by a patient. Date is
// YYYY-MM-DD and Time is HH:MM, both in the workspace location.
type Booking struct {
	DoctorID string
	Date     string
	Time     string
	Notes    string
}

// Patient is the patient portal workspace.
type Patient struct {
	*Workspace[domain.PatientDocument]
}

// OpenPatient loads the patient document for owner.
func OpenPatient(ctx context.Context, store *docstore.Store[domain.PatientDocument], owner domain.Owner, opts ...Option) (*Patient, error) {
	w, err := Open(ctx, store, owner, opts...)
	if err != nil {
		return nil, err
	}
	return &Patient{Workspace: w}, nil
}

// BookAppointment files a pending appointment with a listed doctor.
func (p *Patient) BookAppointment(ctx context.Context, b Booking) (domain.PatientAppointment, error) {
	b.DoctorID = strings.TrimSpace(b.DoctorID)
	b.Date = strings.TrimSpace(b.Date)
	b.Time = strings.TrimSpace(b.Time)
	fe := domain.FieldErrors{}
	for field, v := range map[string]string{"doctor": b.DoctorID, "date": b.Date, "time": b.Time} {
		if v == "" {
			fe.Add(field, MsgBooking)
		}
	}
	if err := fe.Err(); err != nil {
		return domain.PatientAppointment{}, err
	}
	at, err := time.ParseInLocation("2006-01-02T15:04", b.Date+"T"+b.Time, p.cfg.loc)
	if err != nil {
		return domain.PatientAppointment{}, domain.FieldErrors{"date": MsgBooking}
	}
	var apt domain.PatientAppointment
	err = p.Mutate(ctx, "patient.book_appointment", func(doc *domain.PatientDocument) error {
		if _, err := lookup(doc.Doctors, domain.EntityDoctor, b.DoctorID); err != nil {
			return err
		}
		apt = domain.PatientAppointment{
			ID:       p.newID("apt"),
			DoctorID: b.DoctorID,
			Datetime: domain.At(at),
			Status:   domain.AppointmentPending,
			Notes:    strings.TrimSpace(b.Notes),
		}
		doc.Appointments = append(doc.Appointments, apt)
		return nil
	})
	if err != nil {
		return domain.PatientAppointment{}, err
	}
	return apt, nil
}

// CancelAppointment moves the appointment with id to cancelled.
func (p *Patient) CancelAppointment(ctx context.Context, id string) error {
	return p.Mutate(ctx, "patient.cancel_appointment", func(doc *domain.PatientDocument) error {
		apt, err := lookup(doc.Appointments, domain.EntityAppointment, id)
		if err != nil {
			return err
		}
		if err := domain.AppointmentLifecycle.Check(id, apt.Status, domain.AppointmentCancelled); err != nil {
			return err
		}
		apt.Status = domain.AppointmentCancelled
		return nil
	})
}

// ToggleChecklistItem flips the completion flag of the item with id and
// returns the new value.
func (p *Patient) ToggleChecklistItem(ctx context.Context, id string) (bool, error) {
	var done bool
	err := p.Mutate(ctx, "patient.toggle_checklist", func(doc *domain.PatientDocument) error {
		item, err := lookup(doc.Checklist, domain.EntityChecklistItem, id)
		if err != nil {
			return err
		}
		item.Completed = !item.Completed
		done = item.Completed
		return nil
	})
	return done, err
}

// MarkMessageRead clears the unread flag of the message with id.
func (p *Patient) MarkMessageRead(ctx context.Context, id string) error {
	return p.Mutate(ctx, "patient.mark_message_read", func(doc *domain.PatientDocument) error {
		msg, err := lookup(doc.Messages, domain.EntityMessage, id)
		if err != nil {
			return err
		}
		msg.Unread = false
		return nil
	})
}

// PatientSummary backs the patient dashboard cards.
type PatientSummary struct {
	Upcoming  int
	Confirmed int
	Doctors   int
	Unread    int
}

// Summary counts appointments at or after now, confirmed appointments,
// listed doctors and unread messages.
func (p *Patient) Summary() PatientSummary {
	doc := p.data()
	now := p.now()
	return PatientSummary{
		Upcoming: count(doc.Appointments, func(apt domain.PatientAppointment) bool {
			return !apt.Datetime.IsZero() && !apt.Datetime.Before(now)
		}),
		Confirmed: count(doc.Appointments, func(apt domain.PatientAppointment) bool {
			return apt.Status == domain.AppointmentConfirmed
		}),
		Doctors: len(doc.Doctors),
		Unread:  count(doc.Messages, func(m domain.Message) bool { return m.Unread }),
	}
}

// DoctorsInDepartment lists the doctors of departmentID, or every doctor
// when departmentID is empty.
func (p *Patient) DoctorsInDepartment(departmentID string) []domain.Doctor {
	doctors := p.view().Doctors
	if departmentID == "" {
		return doctors
	}
	return filter(doctors, func(d domain.Doctor) bool { return d.DepartmentID == departmentID })
}
