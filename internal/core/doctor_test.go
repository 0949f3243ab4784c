package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ethicure/internal/kv"
	"ethicure/pkg/domain"
)

func TestIssuePrescription(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	d := openDoctor(t, store)

	rx, err := d.IssuePrescription(ctx, "apt-101", []domain.MedicineLine{
		{Name: "  Aspirin ", Dosage: " 75mg ", Duration: " 30 days ", Frequency: "Once daily "},
		{Name: "Placeholder", Dosage: "   "},
		{Name: "", Dosage: "10mg"},
	}, "  after meals ")
	require.NoError(t, err)
	assert.Equal(t, "rx-new-1", rx.ID)
	assert.Equal(t, "apt-101", rx.AppointmentID)
	assert.Equal(t, domain.PersonName{FirstName: "Sonia", LastName: "Kapoor"}, rx.Patient)
	assert.Equal(t, []domain.MedicineLine{{Name: "Aspirin", Dosage: "75mg", Duration: "30 days", Frequency: "Once daily"}}, rx.Medicines)
	assert.Equal(t, "after meals", rx.Notes)
	assert.True(t, rx.CreatedAt.Equal(testNow))

	doc := snapshot(t, openDoctor(t, store).Workspace)
	require.Len(t, doc.Prescriptions, 2)
	assert.Equal(t, rx.ID, doc.Prescriptions[0].ID, "newest prescription first")
	assert.Equal(t, domain.AppointmentCompleted, doc.Appointments[0].Status)
	assert.Len(t, d.PrescriptionsFor("apt-101"), 1)
}

func TestIssuePrescriptionNeedsAMedicine(t *testing.T) {
	d := openDoctor(t, kv.NewMemory())
	_, err := d.IssuePrescription(context.Background(), "apt-101", []domain.MedicineLine{{Name: " ", Dosage: "1"}}, "")
	require.ErrorIs(t, err, domain.ErrValidation)
	var fe domain.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, MsgPrescriptionMedicines, fe["medicines"])
	assert.Len(t, snapshot(t, d.Workspace).Prescriptions, 1)
}

func TestIssuePrescriptionRejectsUnknownAndCancelled(t *testing.T) {
	ctx := context.Background()
	d := openDoctor(t, kv.NewMemory())
	lines := []domain.MedicineLine{{Name: "Aspirin", Dosage: "75mg"}}

	_, err := d.IssuePrescription(ctx, "apt-404", lines, "")
	requireNotFound(t, err, domain.EntityAppointment, "apt-404")

	require.NoError(t, d.Mutate(ctx, "test.cancel", func(doc *domain.DoctorDocument) error {
		doc.Appointments[0].Status = domain.AppointmentCancelled
		return nil
	}))
	_, err = d.IssuePrescription(ctx, "apt-101", lines, "")
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Len(t, snapshot(t, d.Workspace).Prescriptions, 1)
}

func TestDoctorAppointmentTransitions(t *testing.T) {
	ctx := context.Background()
	d := openDoctor(t, kv.NewMemory())

	require.NoError(t, d.ConfirmAppointment(ctx, "apt-101"))
	require.NoError(t, d.CompleteAppointment(ctx, "apt-101"))
	require.ErrorIs(t, d.ConfirmAppointment(ctx, "apt-101"), ErrInvalidTransition)
	require.ErrorIs(t, d.ConfirmAppointment(ctx, "apt-103"), ErrInvalidTransition)
	requireNotFound(t, d.CompleteAppointment(ctx, "apt-9"), domain.EntityAppointment, "apt-9")
	assert.Equal(t, domain.AppointmentCompleted, snapshot(t, d.Workspace).Appointments[0].Status)
}

func TestDoctorSummaryAndSchedule(t *testing.T) {
	d := openDoctor(t, kv.NewMemory())
	assert.Equal(t, DoctorSummary{Today: 3, Pending: 1, Confirmed: 1}, d.Summary())

	schedule := d.Schedule()
	require.Len(t, schedule, 3)
	assert.Equal(t, []string{"apt-103", "apt-101", "apt-102"},
		[]string{schedule[0].ID, schedule[1].ID, schedule[2].ID})
}

func TestCleanMedicinesKeepsEmptySlice(t *testing.T) {
	assert.NotNil(t, CleanMedicines(nil))
	assert.Empty(t, CleanMedicines([]domain.MedicineLine{{Name: "x"}}))
}
