package core

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethicure/internal/kv"
	"ethicure/pkg/domain"
)

func seedAppointments(t *testing.T, a *Admin, apts ...domain.AdminAppointment) {
	t.Helper()
	require.NoError(t, a.Mutate(context.Background(), "test.seed", func(doc *domain.AdminDocument) error {
		doc.Appointments = apts
		return nil
	}))
}

func TestConfirmAppointmentScenario(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	a := openAdmin(t, store)
	seedAppointments(t, a, domain.AdminAppointment{ID: "apt-1", Status: domain.AppointmentPending})

	require.NoError(t, a.ConfirmAppointment(ctx, "apt-1"))
	assert.Equal(t, domain.AppointmentConfirmed, snapshot(t, a.Workspace).Appointments[0].Status)
	stored := snapshot(t, openAdmin(t, store).Workspace)
	assert.Equal(t, domain.AppointmentConfirmed, stored.Appointments[0].Status, "confirmation is persisted")

	before := snapshot(t, a.Workspace)
	revision := a.Revision()
	requireNotFound(t, a.ConfirmAppointment(ctx, "apt-999"), domain.EntityAppointment, "apt-999")
	assert.Equal(t, before, snapshot(t, a.Workspace))
	assert.Equal(t, revision, a.Revision())
}

func TestConfirmRejectsTerminalAppointment(t *testing.T) {
	a := openAdmin(t, kv.NewMemory())
	seedAppointments(t, a, domain.AdminAppointment{ID: "apt-1", Status: domain.AppointmentCancelled})
	err := a.ConfirmAppointment(context.Background(), "apt-1")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, domain.AppointmentCancelled, snapshot(t, a.Workspace).Appointments[0].Status)
}

func TestConfirmTwiceIsNoop(t *testing.T) {
	a := openAdmin(t, kv.NewMemory())
	require.NoError(t, a.ConfirmAppointment(context.Background(), "apt-1"))
	assert.Equal(t, domain.AppointmentConfirmed, snapshot(t, a.Workspace).Appointments[0].Status)
}

func TestDeleteDepartmentCascades(t *testing.T) {
	ctx := context.Background()
	a := openAdmin(t, kv.NewMemory())
	seedAppointments(t, a,
		domain.AdminAppointment{ID: "apt-1", DoctorID: "doc-1", DepartmentID: "cardiology", Status: domain.AppointmentPending},
		domain.AdminAppointment{ID: "apt-2", DoctorID: "doc-2", DepartmentID: "neurology", Status: domain.AppointmentPending},
	)

	require.NoError(t, a.DeleteDepartment(ctx, "cardiology"))
	doc := snapshot(t, a.Workspace)
	assert.Equal(t, -1, indexOf(doc.Departments, "cardiology"))
	require.Len(t, doc.Doctors, 2, "doctors are kept")
	assert.Equal(t, "", doc.Doctors[0].DepartmentID)
	assert.Equal(t, "neurology", doc.Doctors[1].DepartmentID)
	require.Len(t, doc.Staff, 1)
	assert.Equal(t, "", doc.Staff[0].DepartmentID)
	require.Len(t, doc.Appointments, 1)
	assert.Equal(t, "apt-2", doc.Appointments[0].ID)

	requireNotFound(t, a.DeleteDepartment(ctx, "cardiology"), domain.EntityDepartment, "cardiology")
}

func TestDeleteDoctorRemovesTheirAppointments(t *testing.T) {
	ctx := context.Background()
	a := openAdmin(t, kv.NewMemory())
	seedAppointments(t, a,
		domain.AdminAppointment{ID: "apt-1", DoctorID: "doc-1"},
		domain.AdminAppointment{ID: "apt-2", DoctorID: "doc-2"},
	)
	require.NoError(t, a.DeleteDoctor(ctx, "doc-1"))
	doc := snapshot(t, a.Workspace)
	require.Len(t, doc.Doctors, 1)
	assert.Equal(t, "doc-2", doc.Doctors[0].ID)
	require.Len(t, doc.Appointments, 1)
	assert.Equal(t, "apt-2", doc.Appointments[0].ID)
}

func TestDoctorCRUD(t *testing.T) {
	ctx := context.Background()
	a := openAdmin(t, kv.NewMemory())

	_, err := a.CreateDoctor(ctx, domain.Doctor{FirstName: " "})
	require.ErrorIs(t, err, domain.ErrValidation)

	created, err := a.CreateDoctor(ctx, domain.Doctor{ID: "ignored", FirstName: "Meera", LastName: "Nair", Specialization: "Dermatologist", DepartmentID: "pediatrics"})
	require.NoError(t, err)
	assert.Equal(t, "doc-new-1", created.ID)
	doctors := snapshot(t, a.Workspace).Doctors
	require.Len(t, doctors, 3)
	assert.Equal(t, created, doctors[2], "new doctors are appended")

	updated, err := a.UpdateDoctor(ctx, created.ID, func(d *domain.Doctor) { d.Experience = 4 })
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Experience)
	assert.Equal(t, "Meera", updated.FirstName, "unchanged fields are kept")

	_, err = a.UpdateDoctor(ctx, created.ID, func(d *domain.Doctor) { d.LastName = "" })
	require.ErrorIs(t, err, domain.ErrValidation)

	_, err = a.UpdateDoctor(ctx, "doc-404", func(d *domain.Doctor) {})
	requireNotFound(t, err, domain.EntityDoctor, "doc-404")
}

func TestCreateDepartmentDerivesSlug(t *testing.T) {
	ctx := context.Background()
	a := openAdmin(t, kv.NewMemory())

	dept, err := a.CreateDepartment(ctx, "  Emergency & Trauma ", " 24/7 ")
	require.NoError(t, err)
	assert.Equal(t, "emergency-trauma", dept.ID)
	assert.Equal(t, "Emergency & Trauma", dept.Name)
	assert.Equal(t, "24/7", dept.Description)

	dup, err := a.CreateDepartment(ctx, "Cardiology", "")
	require.NoError(t, err)
	assert.Equal(t, "dept-new-1", dup.ID, "a taken slug falls back to a generated id")

	symbols, err := a.CreateDepartment(ctx, "+++", "")
	require.NoError(t, err)
	assert.Equal(t, "dept-new-2", symbols.ID)

	_, err = a.CreateDepartment(ctx, "  ", "")
	require.ErrorIs(t, err, domain.ErrValidation)

	renamed, err := a.UpdateDepartment(ctx, dept.ID, func(d *domain.Department) { d.Name = "Emergency" })
	require.NoError(t, err)
	assert.Equal(t, "emergency-trauma", renamed.ID, "renaming keeps the id")
	assert.Len(t, snapshot(t, a.Workspace).Departments, 7)
}

func TestStaffAndMedicineCRUD(t *testing.T) {
	ctx := context.Background()
	a := openAdmin(t, kv.NewMemory())

	member, err := a.CreateStaff(ctx, domain.StaffMember{FirstName: "Lena", LastName: "Ortiz", Role: "receptionist"})
	require.NoError(t, err)
	_, err = a.UpdateStaff(ctx, member.ID, func(s *domain.StaffMember) { s.Phone = "555" })
	require.NoError(t, err)
	require.NoError(t, a.DeleteStaff(ctx, "staff-1"))
	staff := snapshot(t, a.Workspace).Staff
	require.Len(t, staff, 1)
	assert.Equal(t, "555", staff[0].Phone)

	_, err = a.CreateMedicine(ctx, domain.Medicine{Name: "Ibuprofen", Stock: -1})
	require.ErrorIs(t, err, domain.ErrValidation)
	med, err := a.CreateMedicine(ctx, domain.Medicine{Name: " Ibuprofen ", Stock: 0, Threshold: 5, Unit: "tablets"})
	require.NoError(t, err)
	assert.Equal(t, "Ibuprofen", med.Name)
	_, err = a.UpdateMedicine(ctx, med.ID, func(m *domain.Medicine) { m.Stock = 40 })
	require.NoError(t, err)
	require.NoError(t, a.DeleteMedicine(ctx, "med-1"))
	requireNotFound(t, a.DeleteMedicine(ctx, "med-1"), domain.EntityMedicine, "med-1")
	meds := snapshot(t, a.Workspace).Medicines
	require.Len(t, meds, 2)
	assert.Equal(t, 40, meds[1].Stock)
}

func TestMedicinePriceMustBeFinite(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	a := openAdmin(t, store)
	before := snapshot(t, a.Workspace)

	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -2} {
		_, err := a.CreateMedicine(ctx, domain.Medicine{Name: "Ibuprofen", Stock: 10, Price: price})
		var fe domain.FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, domain.FieldErrors{"price": MsgPrice}, fe)
	}
	_, err := a.UpdateMedicine(ctx, "med-1", func(m *domain.Medicine) { m.Price = math.NaN() })
	require.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, before, snapshot(t, a.Workspace))

	doctor, err := a.CreateDoctor(ctx, domain.Doctor{FirstName: "Ira", LastName: "Bose"})
	require.NoError(t, err)
	assert.Equal(t, "doc-new-1", doctor.ID)
	assert.NotEmpty(t, a.Search("Bose").Doctors)
}

func TestProfilePreferencesAndNotifications(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	a := openAdmin(t, store)
	assert.Equal(t, "Test User", snapshot(t, a.Workspace).Profile.FullName)

	require.NoError(t, a.UpdateProfile(ctx, func(p *domain.AdminProfile) { p.Phone = "+1 000" }))
	require.NoError(t, a.UpdatePreferences(ctx, func(p *domain.Preferences) { p.HospitalName = "North Clinic" }))
	require.Len(t, a.UnreadNotifications(), 2)
	require.NoError(t, a.MarkNotificationRead(ctx, "notif-1"))
	requireNotFound(t, a.MarkNotificationRead(ctx, "notif-9"), domain.EntityNotification, "notif-9")

	fresh := openAdmin(t, store)
	doc := snapshot(t, fresh.Workspace)
	assert.Equal(t, "+1 000", doc.Profile.Phone)
	assert.Equal(t, "North Clinic", doc.Preferences.HospitalName)
	unread := fresh.UnreadNotifications()
	require.Len(t, unread, 1)
	assert.Equal(t, "notif-2", unread[0].ID)
}

func TestAdminSummaryAndStockAlerts(t *testing.T) {
	ctx := context.Background()
	a := openAdmin(t, kv.NewMemory())
	seedAppointments(t, a,
		domain.AdminAppointment{ID: "apt-1", Status: domain.AppointmentPending, Datetime: domain.At(testNow.Add(3 * time.Hour))},
		domain.AdminAppointment{ID: "apt-2", Status: domain.AppointmentConfirmed, Datetime: domain.At(testNow)},
		domain.AdminAppointment{ID: "apt-3", Status: domain.AppointmentPending, Datetime: domain.At(testNow.AddDate(0, 0, 1))},
	)
	_, err := a.CreateMedicine(ctx, domain.Medicine{Name: "Insulin", Stock: 0, Threshold: 5})
	require.NoError(t, err)

	s := a.Summary()
	assert.Equal(t, AdminSummary{
		TodayAppointments:   2,
		PendingAppointments: 2,
		LowStock:            1,
		MedicinesInStock:    2,
		Doctors:             2,
		Patients:            1,
		Departments:         4,
		Staff:               1,
	}, s)

	alerts := a.StockAlerts()
	require.Len(t, alerts, 2)
	assert.Equal(t, "Paracetamol", alerts[0].Name)
	assert.Equal(t, domain.StockLow, alerts[0].Level)
	assert.Equal(t, "Insulin", alerts[1].Name)
	assert.Equal(t, domain.StockOut, alerts[1].Level)
}

func TestSearch(t *testing.T) {
	a := openAdmin(t, kv.NewMemory())
	assert.True(t, a.Search("r").Empty(), "single characters match nothing")

	res := a.Search("  NEURO ")
	require.Len(t, res.Doctors, 1)
	assert.Equal(t, "doc-2", res.Doctors[0].ID)
	require.Len(t, res.Departments, 1)
	assert.Equal(t, "neurology", res.Departments[0].ID)

	res = a.Search("sonia kap")
	assert.Len(t, res.Patients, 1)
	assert.Len(t, res.Appointments, 1)

	res = a.Search("p001")
	require.Len(t, res.Patients, 1)
	assert.Empty(t, res.Doctors)
}

func TestDepartmentDistribution(t *testing.T) {
	ctx := context.Background()
	a := openAdmin(t, kv.NewMemory())
	_, err := a.CreateDoctor(ctx, domain.Doctor{FirstName: "A", LastName: "B", DepartmentID: "neurology"})
	require.NoError(t, err)

	dist := a.DepartmentDistribution()
	require.Len(t, dist, 4)
	assert.Equal(t, DepartmentLoad{DepartmentID: "neurology", Name: "Neurology", Doctors: 2}, dist[0])
	assert.Equal(t, "cardiology", dist[1].DepartmentID)
	assert.Equal(t, "orthopedics", dist[2].DepartmentID)
	assert.Equal(t, 0, dist[3].Doctors)
}

func TestDispenseHistoryNewestFirst(t *testing.T) {
	a := openAdmin(t, kv.NewMemory())
	require.NoError(t, a.Mutate(context.Background(), "test.seed", func(doc *domain.AdminDocument) error {
		doc.DispenseHistory = []domain.DispenseRecord{
			{Medicine: "old", Date: domain.At(testNow.AddDate(0, 0, -3))},
			{Medicine: "new", Date: domain.At(testNow)},
			{Medicine: "mid", Date: domain.At(testNow.AddDate(0, 0, -1))},
		}
		return nil
	}))
	got := a.DispenseHistory()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{got[0].Medicine, got[1].Medicine, got[2].Medicine})
}
