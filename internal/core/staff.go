package core

import (
	"context"
	"sort"
	"strings"
	"time"

	"ethicure/internal/docstore"
	"ethicure/pkg/domain"
)

// MsgCheckIn is reported when a check-in lacks a name, doctor or time.
const MsgCheckIn = "Please fill patient name, doctor, and appointment time."

// WalkInPurpose is recorded on every front-desk check-in.
const WalkInPurpose = "Walk-in"

// CheckIn is a walk-in registration. Time is HH:MM today in the workspace
// location; Status defaults to waiting.
type CheckIn struct {
	Name   string
	Doctor string
	Time   string
	Status domain.VisitStatus
	Notes  string
}

// Staff is the front-desk workspace.
type Staff struct {
	*Workspace[domain.StaffDocument]
}

// OpenStaff loads the front-desk document for owner.
func OpenStaff(ctx context.Context, store *docstore.Store[domain.StaffDocument], owner domain.Owner, opts ...Option) (*Staff, error) {
	w, err := Open(ctx, store, owner, opts...)
	if err != nil {
		return nil, err
	}
	return &Staff{Workspace: w}, nil
}

// splitName takes the first two space-separated tokens as first and last
// name. Remaining tokens are dropped.
func splitName(name string) (first, last string) {
	parts := strings.Split(name, " ")
	first = parts[0]
	if first == "" {
		first = name
	}
	if len(parts) > 1 {
		last = parts[1]
	}
	return first, last
}

// CheckInPatient logs a walk-in visit for today.
func (s *Staff) CheckInPatient(ctx context.Context, in CheckIn) (domain.Visit, error) {
	name := strings.TrimSpace(in.Name)
	doctor := strings.TrimSpace(in.Doctor)
	clock := strings.TrimSpace(in.Time)
	fe := domain.FieldErrors{}
	if name == "" {
		fe.Add("name", MsgCheckIn)
	}
	if doctor == "" {
		fe.Add("doctor", MsgCheckIn)
	}
	if clock == "" {
		fe.Add("time", MsgCheckIn)
	}
	if err := fe.Err(); err != nil {
		return domain.Visit{}, err
	}
	status := domain.VisitStatus(strings.TrimSpace(string(in.Status)))
	if status == "" {
		status = domain.VisitWaiting
	}
	if !domain.VisitLifecycle.Valid(status) {
		return domain.Visit{}, domain.FieldErrors{"status": "Unknown visit status."}
	}
	hm, err := time.Parse("15:04", clock)
	if err != nil {
		return domain.Visit{}, domain.FieldErrors{"time": MsgCheckIn}
	}
	now := s.now()
	at := time.Date(now.Year(), now.Month(), now.Day(), hm.Hour(), hm.Minute(), 0, 0, s.cfg.loc)

	first, last := splitName(name)
	visit := domain.Visit{
		ID:        s.newID("visit"),
		Patient:   domain.VisitPatient{FirstName: first, LastName: last},
		Doctor:    doctor,
		Purpose:   WalkInPurpose,
		Notes:     strings.TrimSpace(in.Notes),
		Status:    status,
		VisitDate: domain.At(at),
	}
	err = s.Mutate(ctx, "staff.check_in", func(doc *domain.StaffDocument) error {
		doc.Visits = append(doc.Visits, visit)
		return nil
	})
	return visit, err
}

// UpdateVisitStatus moves the visit with id to status.
func (s *Staff) UpdateVisitStatus(ctx context.Context, id string, status domain.VisitStatus) error {
	return s.Mutate(ctx, "staff.update_visit", func(doc *domain.StaffDocument) error {
		v, err := lookup(doc.Visits, domain.EntityVisit, id)
		if err != nil {
			return err
		}
		if err := domain.VisitLifecycle.Check(id, v.Status, status); err != nil {
			return err
		}
		v.Status = status
		return nil
	})
}

func (s *Staff) setBillStatus(ctx context.Context, op, id string, to domain.BillStatus) error {
	return s.Mutate(ctx, op, func(doc *domain.StaffDocument) error {
		b, err := lookup(doc.Billing, domain.EntityBill, id)
		if err != nil {
			return err
		}
		if err := domain.BillLifecycle.Check(id, b.Status, to); err != nil {
			return err
		}
		b.Status = to
		return nil
	})
}

// MarkBillPaid settles the bill with id.
func (s *Staff) MarkBillPaid(ctx context.Context, id string) error {
	return s.setBillStatus(ctx, "staff.mark_bill_paid", id, domain.BillPaid)
}

// MarkBillOverdue flags the bill with id as overdue.
func (s *Staff) MarkBillOverdue(ctx context.Context, id string) error {
	return s.setBillStatus(ctx, "staff.mark_bill_overdue", id, domain.BillOverdue)
}

// RemoveBill drops the bill with id.
func (s *Staff) RemoveBill(ctx context.Context, id string) error {
	return s.Mutate(ctx, "staff.remove_bill", func(doc *domain.StaffDocument) error {
		billing, err := remove(doc.Billing, domain.EntityBill, id)
		if err != nil {
			return err
		}
		doc.Billing = billing
		return nil
	})
}

// StaffSummary backs the front-desk dashboard cards.
type StaffSummary struct {
	TodayVisits    int
	TotalVisits    int
	PendingBilling int
}

// Summary counts today's visits, all visits and bills not yet paid.
func (s *Staff) Summary() StaffSummary {
	doc := s.data()
	now := s.now()
	return StaffSummary{
		TodayVisits: count(doc.Visits, func(v domain.Visit) bool {
			return v.VisitDate.SameDay(now, s.cfg.loc)
		}),
		TotalVisits:    len(doc.Visits),
		PendingBilling: count(doc.Billing, func(b domain.Bill) bool { return b.Status != domain.BillPaid }),
	}
}

// Visits returns the visit log, most recent first.
func (s *Staff) Visits() []domain.Visit {
	out := s.view().Visits
	sort.SliceStable(out, func(i, j int) bool { return out[i].VisitDate.After(out[j].VisitDate.Time) })
	return out
}
