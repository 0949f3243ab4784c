package core

import (
	"context"
	"math"
	"sort"
	"strings"

	"ethicure/internal/docstore"
	"ethicure/internal/ids"
	"ethicure/pkg/domain"
)

// Field messages for admin forms.
const (
	MsgPersonName     = "Please enter a first and last name."
	MsgDepartmentName = "Please enter a department name."
	MsgMedicine       = "Please enter a medicine name with non-negative stock and threshold."
	MsgPrice          = "Please enter a valid price."
)

// MinSearchTerm is the shortest term Search acts on.
const MinSearchTerm = 2

// Admin is the hospital administration workspace.
type Admin struct {
	*Workspace[domain.AdminDocument]
}

// OpenAdmin loads the administrator document for owner.
func OpenAdmin(ctx context.Context, store *docstore.Store[domain.AdminDocument], owner domain.Owner, opts ...Option) (*Admin, error) {
	w, err := Open(ctx, store, owner, opts...)
	if err != nil {
		return nil, err
	}
	return &Admin{Workspace: w}, nil
}

func checkPersonName(first, last string) error {
	fe := domain.FieldErrors{}
	if strings.TrimSpace(first) == "" {
		fe.Add("firstName", MsgPersonName)
	}
	if strings.TrimSpace(last) == "" {
		fe.Add("lastName", MsgPersonName)
	}
	return fe.Err()
}

// CreateDoctor appends doctor with a fresh id.
func (a *Admin) CreateDoctor(ctx context.Context, doctor domain.Doctor) (domain.Doctor, error) {
	if err := checkPersonName(doctor.FirstName, doctor.LastName); err != nil {
		return domain.Doctor{}, err
	}
	doctor.ID = a.newID("doc")
	err := a.Mutate(ctx, "admin.create_doctor", func(doc *domain.AdminDocument) error {
		doc.Doctors = append(doc.Doctors, doctor)
		return nil
	})
	return doctor, err
}

// UpdateDoctor applies mutate to the doctor with id.
func (a *Admin) UpdateDoctor(ctx context.Context, id string, mutate func(*domain.Doctor)) (domain.Doctor, error) {
	var out domain.Doctor
	err := a.Mutate(ctx, "admin.update_doctor", func(doc *domain.AdminDocument) error {
		updated, err := update(doc.Doctors, domain.EntityDoctor, id, mutate)
		if err != nil {
			return err
		}
		if err := checkPersonName(updated.FirstName, updated.LastName); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// DeleteDoctor removes the doctor and every appointment booked with them.
func (a *Admin) DeleteDoctor(ctx context.Context, id string) error {
	return a.Mutate(ctx, "admin.delete_doctor", func(doc *domain.AdminDocument) error {
		doctors, err := remove(doc.Doctors, domain.EntityDoctor, id)
		if err != nil {
			return err
		}
		doc.Doctors = doctors
		doc.Appointments = filter(doc.Appointments, func(apt domain.AdminAppointment) bool {
			return apt.DoctorID != id
		})
		return nil
	})
}

// CreateDepartment adds a department whose id is derived from its name. When
// the name yields no usable slug, or the slug is taken, a generated id is used.
func (a *Admin) CreateDepartment(ctx context.Context, name, description string) (domain.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Department{}, domain.FieldErrors{"name": MsgDepartmentName}
	}
	dept := domain.Department{Name: name, Description: strings.TrimSpace(description)}
	err := a.Mutate(ctx, "admin.create_department", func(doc *domain.AdminDocument) error {
		dept.ID = ids.Slug(name)
		if dept.ID == "" || indexOf(doc.Departments, dept.ID) >= 0 {
			dept.ID = a.newID("dept")
		}
		doc.Departments = append(doc.Departments, dept)
		return nil
	})
	return dept, err
}

// UpdateDepartment applies mutate to the department with id.
func (a *Admin) UpdateDepartment(ctx context.Context, id string, mutate func(*domain.Department)) (domain.Department, error) {
	var out domain.Department
	err := a.Mutate(ctx, "admin.update_department", func(doc *domain.AdminDocument) error {
		updated, err := update(doc.Departments, domain.EntityDepartment, id, mutate)
		if err != nil {
			return err
		}
		if strings.TrimSpace(updated.Name) == "" {
			return domain.FieldErrors{"name": MsgDepartmentName}
		}
		out = updated
		return nil
	})
	return out, err
}

// DeleteDepartment removes the department. Doctors and staff stay on record
// with their department cleared; appointments filed under it are removed.
func (a *Admin) DeleteDepartment(ctx context.Context, id string) error {
	return a.Mutate(ctx, "admin.delete_department", func(doc *domain.AdminDocument) error {
		departments, err := remove(doc.Departments, domain.EntityDepartment, id)
		if err != nil {
			return err
		}
		doc.Departments = departments
		for i := range doc.Doctors {
			if doc.Doctors[i].DepartmentID == id {
				doc.Doctors[i].DepartmentID = ""
			}
		}
		for i := range doc.Staff {
			if doc.Staff[i].DepartmentID == id {
				doc.Staff[i].DepartmentID = ""
			}
		}
		doc.Appointments = filter(doc.Appointments, func(apt domain.AdminAppointment) bool {
			return apt.DepartmentID != id
		})
		return nil
	})
}

// CreateStaff appends member with a fresh id.
func (a *Admin) CreateStaff(ctx context.Context, member domain.StaffMember) (domain.StaffMember, error) {
	if err := checkPersonName(member.FirstName, member.LastName); err != nil {
		return domain.StaffMember{}, err
	}
	member.ID = a.newID("staff")
	err := a.Mutate(ctx, "admin.create_staff", func(doc *domain.AdminDocument) error {
		doc.Staff = append(doc.Staff, member)
		return nil
	})
	return member, err
}

// UpdateStaff applies mutate to the staff member with id.
func (a *Admin) UpdateStaff(ctx context.Context, id string, mutate func(*domain.StaffMember)) (domain.StaffMember, error) {
	var out domain.StaffMember
	err := a.Mutate(ctx, "admin.update_staff", func(doc *domain.AdminDocument) error {
		updated, err := update(doc.Staff, domain.EntityStaffMember, id, mutate)
		if err != nil {
			return err
		}
		if err := checkPersonName(updated.FirstName, updated.LastName); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// DeleteStaff removes the staff member with id.
func (a *Admin) DeleteStaff(ctx context.Context, id string) error {
	return a.Mutate(ctx, "admin.delete_staff", func(doc *domain.AdminDocument) error {
		staff, err := remove(doc.Staff, domain.EntityStaffMember, id)
		if err != nil {
			return err
		}
		doc.Staff = staff
		return nil
	})
}

func checkMedicine(m domain.Medicine) error {
	fe := domain.FieldErrors{}
	if strings.TrimSpace(m.Name) == "" {
		fe.Add("name", MsgMedicine)
	}
	if m.Stock < 0 {
		fe.Add("stock", MsgMedicine)
	}
	if m.Threshold < 0 {
		fe.Add("threshold", MsgMedicine)
	}
	if math.IsNaN(m.Price) || math.IsInf(m.Price, 0) || m.Price < 0 {
		fe.Add("price", MsgPrice)
	}
	return fe.Err()
}

// CreateMedicine appends medicine to the catalogue with a fresh id.
func (a *Admin) CreateMedicine(ctx context.Context, medicine domain.Medicine) (domain.Medicine, error) {
	medicine.Name = strings.TrimSpace(medicine.Name)
	if err := checkMedicine(medicine); err != nil {
		return domain.Medicine{}, err
	}
	medicine.ID = a.newID("med")
	err := a.Mutate(ctx, "admin.create_medicine", func(doc *domain.AdminDocument) error {
		doc.Medicines = append(doc.Medicines, medicine)
		return nil
	})
	return medicine, err
}

// UpdateMedicine applies mutate to the medicine with id.
func (a *Admin) UpdateMedicine(ctx context.Context, id string, mutate func(*domain.Medicine)) (domain.Medicine, error) {
	var out domain.Medicine
	err := a.Mutate(ctx, "admin.update_medicine", func(doc *domain.AdminDocument) error {
		updated, err := update(doc.Medicines, domain.EntityMedicine, id, mutate)
		if err != nil {
			return err
		}
		if err := checkMedicine(updated); err != nil {
			return err
		}
		out = updated
		return nil
	})
	return out, err
}

// DeleteMedicine removes the medicine with id.
func (a *Admin) DeleteMedicine(ctx context.Context, id string) error {
	return a.Mutate(ctx, "admin.delete_medicine", func(doc *domain.AdminDocument) error {
		medicines, err := remove(doc.Medicines, domain.EntityMedicine, id)
		if err != nil {
			return err
		}
		doc.Medicines = medicines
		return nil
	})
}

// ConfirmAppointment moves the appointment with id to confirmed.
func (a *Admin) ConfirmAppointment(ctx context.Context, id string) error {
	return a.Mutate(ctx, "admin.confirm_appointment", func(doc *domain.AdminDocument) error {
		apt, err := lookup(doc.Appointments, domain.EntityAppointment, id)
		if err != nil {
			return err
		}
		if err := domain.AppointmentLifecycle.Check(id, apt.Status, domain.AppointmentConfirmed); err != nil {
			return err
		}
		apt.Status = domain.AppointmentConfirmed
		return nil
	})
}

// UpdateProfile applies mutate to the administrator profile.
func (a *Admin) UpdateProfile(ctx context.Context, mutate func(*domain.AdminProfile)) error {
	return a.Mutate(ctx, "admin.update_profile", func(doc *domain.AdminDocument) error {
		mutate(&doc.Profile)
		return nil
	})
}

// UpdatePreferences applies mutate to the hospital preferences.
func (a *Admin) UpdatePreferences(ctx context.Context, mutate func(*domain.Preferences)) error {
	return a.Mutate(ctx, "admin.update_preferences", func(doc *domain.AdminDocument) error {
		mutate(&doc.Preferences)
		return nil
	})
}

// MarkNotificationRead flags the notification with id as read.
func (a *Admin) MarkNotificationRead(ctx context.Context, id string) error {
	return a.Mutate(ctx, "admin.mark_notification_read", func(doc *domain.AdminDocument) error {
		n, err := lookup(doc.Notifications, domain.EntityNotification, id)
		if err != nil {
			return err
		}
		n.Read = true
		return nil
	})
}

// AdminSummary backs the administrator dashboard cards.
type AdminSummary struct {
	TodayAppointments   int
	PendingAppointments int
	LowStock            int
	MedicinesInStock    int
	Doctors             int
	Patients            int
	Departments         int
	Staff               int
}

// Summary computes the dashboard figures.
func (a *Admin) Summary() AdminSummary {
	doc := a.data()
	now := a.now()
	return AdminSummary{
		TodayAppointments: count(doc.Appointments, func(apt domain.AdminAppointment) bool {
			return apt.Datetime.SameDay(now, a.cfg.loc)
		}),
		PendingAppointments: count(doc.Appointments, func(apt domain.AdminAppointment) bool {
			return apt.Status == domain.AppointmentPending
		}),
		LowStock: count(doc.Medicines, func(m domain.Medicine) bool {
			return m.Level() == domain.StockLow
		}),
		MedicinesInStock: count(doc.Medicines, func(m domain.Medicine) bool { return m.Stock > 0 }),
		Doctors:          len(doc.Doctors),
		Patients:         len(doc.Patients),
		Departments:      len(doc.Departments),
		Staff:            len(doc.Staff),
	}
}

// StockAlert flags a medicine that is low or out of stock.
type StockAlert struct {
	MedicineID string
	Name       string
	Level      domain.StockLevel
	Stock      int
	Threshold  int
}

// StockAlerts lists low-stock medicines followed by out-of-stock ones, each
// group in catalogue order.
func (a *Admin) StockAlerts() []StockAlert {
	var low, out []StockAlert
	for _, m := range a.data().Medicines {
		alert := StockAlert{MedicineID: m.ID, Name: m.Name, Level: m.Level(), Stock: m.Stock, Threshold: m.Threshold}
		switch alert.Level {
		case domain.StockLow:
			low = append(low, alert)
		case domain.StockOut:
			out = append(out, alert)
		}
	}
	return append(low, out...)
}

// SearchResults groups the records matching a search term.
type SearchResults struct {
	Doctors      []domain.Doctor
	Patients     []domain.PatientRecord
	Appointments []domain.AdminAppointment
	Departments  []domain.Department
}

// Empty reports whether nothing matched.
func (r SearchResults) Empty() bool {
	return len(r.Doctors)+len(r.Patients)+len(r.Appointments)+len(r.Departments) == 0
}

// Search matches term case-insensitively against doctor names and
// specializations, patient names and patient ids, appointment patient names
// and department names. Terms shorter than MinSearchTerm match nothing.
func (a *Admin) Search(term string) SearchResults {
	term = strings.ToLower(strings.TrimSpace(term))
	if len([]rune(term)) < MinSearchTerm {
		return SearchResults{}
	}
	has := func(s string) bool { return strings.Contains(strings.ToLower(s), term) }
	doc := a.view()
	return SearchResults{
		Doctors: filter(doc.Doctors, func(d domain.Doctor) bool {
			return has(d.FirstName+" "+d.LastName) || has(d.Specialization)
		}),
		Patients: filter(doc.Patients, func(p domain.PatientRecord) bool {
			return has(p.FirstName+" "+p.LastName) || has(p.PatientID)
		}),
		Appointments: filter(doc.Appointments, func(apt domain.AdminAppointment) bool {
			return has(apt.Patient)
		}),
		Departments: filter(doc.Departments, func(d domain.Department) bool {
			return has(d.Name)
		}),
	}
}

// DepartmentLoad is the number of doctors assigned to a department.
type DepartmentLoad struct {
	DepartmentID string
	Name         string
	Doctors      int
}

// DepartmentDistribution counts doctors per department, busiest first. Ties
// keep department order.
func (a *Admin) DepartmentDistribution() []DepartmentLoad {
	doc := a.data()
	out := make([]DepartmentLoad, 0, len(doc.Departments))
	for _, dept := range doc.Departments {
		out = append(out, DepartmentLoad{
			DepartmentID: dept.ID,
			Name:         dept.Name,
			Doctors: count(doc.Doctors, func(d domain.Doctor) bool {
				return d.DepartmentID == dept.ID
			}),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Doctors > out[j].Doctors })
	return out
}

// DispenseHistory returns the dispense log, most recent first.
func (a *Admin) DispenseHistory() []domain.DispenseRecord {
	out := a.view().DispenseHistory
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date.Time) })
	return out
}

// UnreadNotifications returns the notifications not yet read.
func (a *Admin) UnreadNotifications() []domain.Notification {
	return filter(a.view().Notifications, func(n domain.Notification) bool { return !n.Read })
}
