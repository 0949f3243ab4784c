package domain

import (
	"encoding/json"
	"time"
)

// Default documents are rebuilt on every call so callers may mutate them
// freely. Relative timestamps are computed from now.

func daysFrom(now time.Time, offset int) Timestamp { return At(now.AddDate(0, 0, offset)) }

func hoursFrom(now time.Time, offset int) Timestamp {
	return At(now.Add(time.Duration(offset) * time.Hour))
}

func minutesFrom(now time.Time, offset int) Timestamp {
	return At(now.Add(time.Duration(offset) * time.Minute))
}

func stringPtr(s string) *string { return &s }

// DefaultAdmin returns the seed admin document for owner.
func DefaultAdmin(now time.Time, owner Owner) AdminDocument {
	fullName := joinName(owner.FirstName, owner.LastName)
	if fullName == "" {
		fullName = owner.Username
	}
	email := owner.Email
	if email == "" {
		email = "admin@hospital.com"
	}
	return AdminDocument{
		Departments: []Department{
			{ID: "cardiology", Name: "Cardiology", Description: "Heart & vascular care"},
			{ID: "neurology", Name: "Neurology", Description: "Brain & nervous system"},
			{ID: "orthopedics", Name: "Orthopedics", Description: "Bones & muscular system"},
			{ID: "pediatrics", Name: "Pediatrics", Description: "Child care & wellness"},
		},
		Doctors: []Doctor{
			{ID: "doc-1", FirstName: "Riya", LastName: "Sen", Specialization: "Cardiologist", DepartmentID: "cardiology", Experience: 12, Email: "riya.sen@hospital.com", Phone: "+1 234 567 8901"},
			{ID: "doc-2", FirstName: "Amit", LastName: "Verma", Specialization: "Neurologist", DepartmentID: "neurology", Experience: 9, Email: "amit.verma@hospital.com", Phone: "+1 234 567 8902"},
		},
		Staff: []StaffMember{
			{ID: "staff-1", FirstName: "Sarah", LastName: "Johnson", Role: "nurse", DepartmentID: "cardiology", Email: "sarah.j@hospital.com", Phone: "+1 234 567 8910"},
		},
		Patients: []PatientRecord{
			{ID: "pat-1", PatientID: "P001", FirstName: "Sonia", LastName: "Kapoor", Email: "sonia.k@email.com", Phone: "+1 234 567 9001", LastVisit: daysFrom(now, -5), Status: "active"},
		},
		Appointments: []AdminAppointment{
			{ID: "apt-1", PatientID: "pat-1", Patient: "Sonia Kapoor", DoctorID: "doc-1", DepartmentID: "cardiology", Status: AppointmentConfirmed, Datetime: daysFrom(now, 0)},
		},
		Medicines: []Medicine{
			{ID: "med-1", Name: "Aspirin", Stock: 150, Unit: "tablets", Threshold: 20, Price: 5.00},
			{ID: "med-2", Name: "Paracetamol", Stock: 8, Unit: "tablets", Threshold: 10, Price: 3.50},
		},
		DispenseHistory: []DispenseRecord{},
		Profile:         AdminProfile{FullName: fullName, Email: email, Phone: "+1 234 567 0000"},
		Preferences: Preferences{
			HospitalName: "ethicure Medical Center",
			Address:      "123 Medical Street, Healthcare City",
			Phone:        "+1 234 567 0000",
			Email:        "info@ethicure.com",
		},
		Notifications: []Notification{
			{ID: "notif-1", Message: "New appointment scheduled", Time: daysFrom(now, 0), Read: false, Type: "appointment"},
			{ID: "notif-2", Message: "Low stock alert: Paracetamol", Time: daysFrom(now, -1), Read: false, Type: "pharmacy"},
		},
	}
}

// DefaultDoctor returns the seed doctor document.
func DefaultDoctor(now time.Time) DoctorDocument {
	return DoctorDocument{
		Profile: &DoctorProfile{Specialization: "General Medicine", Department: "Internal Medicine"},
		Appointments: []DoctorAppointment{
			{ID: "apt-101", Patient: PersonName{FirstName: "Sonia", LastName: "Kapoor"}, Datetime: hoursFrom(now, 2), Status: AppointmentPending, Notes: "Complaints of chest discomfort"},
			{ID: "apt-102", Patient: PersonName{FirstName: "Rohan", LastName: "Das"}, Datetime: hoursFrom(now, 5), Status: AppointmentConfirmed, Notes: "Routine follow-up"},
			{ID: "apt-103", Patient: PersonName{FirstName: "Nisha", LastName: "Gill"}, Datetime: hoursFrom(now, -3), Status: AppointmentCompleted, Notes: "Migraine check-in"},
		},
		Prescriptions: []Prescription{
			{
				ID:            "rx-201",
				AppointmentID: "apt-103",
				Patient:       PersonName{FirstName: "Nisha", LastName: "Gill"},
				CreatedAt:     hoursFrom(now, -2),
				Medicines: []MedicineLine{
					{Name: "Sumatriptan 50mg", Dosage: "1 tablet", Duration: "As needed", Frequency: "Twice daily"},
				},
				Notes: "Take at onset of symptoms",
			},
		},
	}
}

// DefaultPatient returns the seed patient document.
func DefaultPatient(now time.Time) PatientDocument {
	return PatientDocument{
		Departments: []Department{
			{ID: "cardiology", Name: "Cardiology", Description: "Heart & circulatory system"},
			{ID: "neurology", Name: "Neurology", Description: "Brain & nervous system"},
			{ID: "orthopedics", Name: "Orthopedics", Description: "Bones & muscular system"},
			{ID: "pediatrics", Name: "Pediatrics", Description: "Child care & wellness"},
		},
		Doctors: []Doctor{
			{ID: "d1", FirstName: "Riya", LastName: "Sen", Specialization: "Interventional Cardiologist", Experience: 12, DepartmentID: "cardiology"},
			{ID: "d2", FirstName: "Amit", LastName: "Verma", Specialization: "Neurologist", Experience: 9, DepartmentID: "neurology"},
			{ID: "d3", FirstName: "Sahana", LastName: "Roy", Specialization: "Orthopedic Surgeon", Experience: 15, DepartmentID: "orthopedics"},
			{ID: "d4", FirstName: "Vikram", LastName: "Patel", Specialization: "Pediatrician", Experience: 7, DepartmentID: "pediatrics"},
		},
		Appointments: []PatientAppointment{
			{ID: "apt-1", DoctorID: "d1", Datetime: daysFrom(now, 1), Status: AppointmentConfirmed, Notes: "Follow-up for ECG"},
			{ID: "apt-2", DoctorID: "d3", Datetime: daysFrom(now, 5), Status: AppointmentPending, Notes: "Knee pain consultation"},
		},
		Prescriptions: []PatientPrescription{
			{ID: "rx-1", DoctorID: "d2", Date: daysFrom(now, -10), Dispensed: true, Medicines: []string{"Neurocalm 10mg", "Omega-3"}},
			{ID: "rx-2", DoctorID: "d1", Date: daysFrom(now, -32), Dispensed: false, Medicines: []string{"Atorvastatin 20mg", "Aspirin 75mg", "Metoprolol 50mg"}},
		},
		CareUpdates: []CareUpdate{
			{ID: "bp", Label: "Blood pressure", Value: "118 / 76", Detail: "Morning clinic reading", Trend: "stable"},
			{ID: "heart", Label: "Heart rate", Value: "68 bpm", Detail: "Resting average this week", Trend: "improving"},
			{ID: "sleep", Label: "Sleep", Value: "7h 45m", Detail: "Rolling 7-day average", Trend: "stable"},
			{ID: "activity", Label: "Activity", Value: "6,400 steps", Detail: "Goal: 8,000 daily", Trend: "pending"},
		},
		Goals: []Goal{
			{ID: "steps-goal", Label: "Steps", Progress: 64, Target: "8k steps"},
			{ID: "hydration-goal", Label: "Hydration", Progress: 72, Target: "2L water"},
			{ID: "medication-goal", Label: "Medication adherence", Progress: 92, Target: "All doses"},
		},
		MedicationsSchedule: []MedicationDose{
			{ID: "med-1", Name: "Atorvastatin", Dosage: "20mg", Schedule: "9:00 PM", Context: "After dinner", Status: "due"},
			{ID: "med-2", Name: "Metoprolol", Dosage: "50mg", Schedule: "8:00 AM", Context: "With breakfast", Status: "completed"},
			{ID: "med-3", Name: "Vitamin D3", Dosage: "2,000 IU", Schedule: "Sunday", Context: "Weekly supplement", Status: "upcoming"},
		},
		Checklist: []ChecklistItem{
			{ID: "ck-water", Label: "Log 2L of water", Completed: false},
			{ID: "ck-walk", Label: "20 min walk", Completed: false},
			{ID: "ck-meditate", Label: "Breathing exercise", Completed: true},
		},
		Labs: []LabResult{
			{ID: "lab-1", Title: "Lipid profile", Date: daysFrom(now, -14), Status: "Normal", Summary: "LDL trending downward · HDL within range"},
			{ID: "lab-2", Title: "Comprehensive metabolic panel", Date: daysFrom(now, -32), Status: "Review", Summary: "Slightly elevated fasting glucose · monitor diet"},
		},
		Messages: []Message{
			{ID: "msg-1", Sender: "Dr. Riya Sen", Role: "Cardiology", Time: daysFrom(now, -1), Snippet: "ECG looks stable. Keep the current medication plan.", Unread: true},
			{ID: "msg-2", Sender: "Care Navigator", Role: "Patient Success", Time: daysFrom(now, -3), Snippet: "Remember to upload your insurance card for the new plan year.", Unread: false},
		},
		Billing: BillingSummary{
			Outstanding: 240.5,
			DueDate:     daysFrom(now, 7),
			Invoices: []Invoice{
				{ID: "inv-1", Label: "Cardiology follow-up", Amount: 120, Status: "due", Date: daysFrom(now, -5)},
				{ID: "inv-2", Label: "Lab processing", Amount: 98.5, Status: "processing", Date: daysFrom(now, -2)},
				{ID: "inv-3", Label: "Medication refill", Amount: 22, Status: "paid", Date: daysFrom(now, -9)},
			},
		},
		Benefits: Benefits{
			Provider:             "HealSure Gold",
			Plan:                 "Preferred Care 80",
			MemberID:             "HS-23893",
			Coverage:             "80% in-network",
			PrescriptionCoverage: "Included",
		},
		Resources: []Resource{
			{ID: "res-1", Title: "24/7 nurse line", Description: "Speak with a nurse within minutes.", ActionLabel: "Call nurse", Href: "tel:+15551234567"},
			{ID: "res-2", Title: "Download visit summary", Description: "Latest visit notes and attachments.", ActionLabel: "Download PDF", Href: "#"},
			{ID: "res-3", Title: "Mental wellbeing", Description: "Access guided meditation & support.", ActionLabel: "Open guide", Href: "#"},
		},
	}
}

// DefaultPharmacist returns the seed pharmacist document.
func DefaultPharmacist(now time.Time) PharmacistDocument {
	return PharmacistDocument{
		Prescriptions: []PharmacyPrescription{
			{
				ID:        "rx-501",
				Patient:   PersonName{FirstName: "Sonia", LastName: "Kapoor"},
				Doctor:    "Dr. Riya Sen",
				CreatedAt: hoursFrom(now, -4),
				Dispensed: false,
				Notes:     "Check blood pressure before dispensing.",
				Medicines: []MedicineLine{
					{Name: "Amlodipine 5mg", Dosage: "1 tablet", Duration: "30 days", Frequency: "Once daily"},
					{Name: "Atorvastatin 20mg", Dosage: "1 tablet", Duration: "30 days", Frequency: "Once daily"},
				},
			},
			{
				ID:        "rx-502",
				Patient:   PersonName{FirstName: "Rohan", LastName: "Das"},
				Doctor:    "Dr. Amit Verma",
				CreatedAt: hoursFrom(now, -12),
				Dispensed: true,
				Notes:     "Patient informed about potential drowsiness.",
				Medicines: []MedicineLine{
					{Name: "Gabapentin 300mg", Dosage: "1 capsule", Duration: "14 days", Frequency: "Twice daily"},
				},
			},
		},
		Inventory: []InventoryItem{
			{ID: "med-1", MedicineName: "Aspirin", Stock: 120, Unit: "tablets", LowStockThreshold: 25},
			{ID: "med-2", MedicineName: "Metformin", Stock: 60, Unit: "tablets", LowStockThreshold: 20},
			{ID: "med-3", MedicineName: "Insulin", Stock: 12, Unit: "vials", LowStockThreshold: 15},
		},
	}
}

// DefaultStaff returns the seed front-desk document.
func DefaultStaff(now time.Time) StaffDocument {
	return StaffDocument{
		Visits: []Visit{
			{
				ID:        "visit-1",
				Patient:   VisitPatient{FirstName: "Sonia", LastName: "Kapoor", PatientID: stringPtr("PAT-123456")},
				Doctor:    "Dr. Riya Sen",
				Purpose:   "Follow-up",
				Notes:     "Patient reported dizziness last visit",
				Status:    VisitWaiting,
				VisitDate: minutesFrom(now, -30),
			},
			{
				ID:        "visit-2",
				Patient:   VisitPatient{FirstName: "Rohan", LastName: "Das", PatientID: stringPtr("PAT-987654")},
				Doctor:    "Dr. Amit Verma",
				Purpose:   "MRI results review",
				Notes:     "Bring previous MRI scans",
				Status:    VisitInProgress,
				VisitDate: minutesFrom(now, -10),
			},
		},
		Billing: []Bill{
			{ID: "bill-1", Patient: "Sonia Kapoor", Type: "Consultation", Amount: 1200, DueDate: daysFrom(now, 0), Status: BillPending},
			{ID: "bill-2", Patient: "Rohan Das", Type: "MRI Scan", Amount: 3500, DueDate: daysFrom(now, -1), Status: BillOverdue},
		},
		Highlights: []Highlight{
			{Title: "Walk-ins", Value: json.RawMessage(`4`), Description: "Patients without appointments"},
			{Title: "Completed Visits", Value: json.RawMessage(`12`), Description: "Handled by front desk"},
			{Title: "Billing Collected", Value: json.RawMessage(`"₹18,500"`), Description: "Settled today"},
		},
		Actions: []string{
			"Confirm tomorrow's appointments",
			"Send reminders for overdue bills",
			"Prepare discharge summaries",
		},
	}
}
