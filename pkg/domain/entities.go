package domain

import "encoding/json"

// EntityType identifies the kind of record held inside a role document.
type EntityType string

// Entity types referenced by not-found and transition errors.
const (
	EntityAppointment   EntityType = "appointment"
	EntityPrescription  EntityType = "prescription"
	EntityMedicine      EntityType = "medicine"
	EntityInventoryItem EntityType = "inventory_item"
	EntityDoctor        EntityType = "doctor"
	EntityPatient       EntityType = "patient"
	EntityStaffMember   EntityType = "staff_member"
	EntityDepartment    EntityType = "department"
	EntityVisit         EntityType = "visit"
	EntityBill          EntityType = "bill"
	EntityNotification  EntityType = "notification"
	EntityChecklistItem EntityType = "checklist_item"
	EntityMessage       EntityType = "message"
)

// AppointmentStatus enumerates appointment workflow states.
type AppointmentStatus string

// Appointment states.
const (
	AppointmentPending   AppointmentStatus = "pending"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// BillStatus enumerates front-desk billing states.
type BillStatus string

// Bill states.
const (
	BillPending BillStatus = "pending"
	BillPaid    BillStatus = "paid"
	BillOverdue BillStatus = "overdue"
)

// VisitStatus enumerates walk-in visit states.
type VisitStatus string

// Visit states.
const (
	VisitWaiting    VisitStatus = "waiting"
	VisitInProgress VisitStatus = "in-progress"
	VisitCompleted  VisitStatus = "completed"
)

// DispenseStatus is the pharmacy view of a prescription. It is derived from
// the stored dispensed flag.
type DispenseStatus string

// Dispense states.
const (
	DispensePending   DispenseStatus = "pending"
	DispenseDispensed DispenseStatus = "dispensed"
)

// DispenseStatusOf maps the stored flag onto a DispenseStatus.
func DispenseStatusOf(dispensed bool) DispenseStatus {
	if dispensed {
		return DispenseDispensed
	}
	return DispensePending
}

// PersonName is the embedded patient reference used by doctor and pharmacy
// records.
type PersonName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// FullName joins the name parts.
func (p PersonName) FullName() string {
	return joinName(p.FirstName, p.LastName)
}

// Department groups doctors and staff.
type Department struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Doctor is a practitioner listed in the admin and patient documents.
type Doctor struct {
	ID             string `json:"id"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Specialization string `json:"specialization"`
	DepartmentID   string `json:"departmentId"`
	Experience     int    `json:"experience"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// FullName joins the name parts.
func (d Doctor) FullName() string { return joinName(d.FirstName, d.LastName) }

// StaffMember is a non-physician employee.
type StaffMember struct {
	ID           string `json:"id"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Role         string `json:"role"`
	DepartmentID string `json:"departmentId"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
}

// PatientRecord is the admin registry entry for a patient.
type PatientRecord struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	LastVisit Timestamp `json:"lastVisit"`
	Status    string    `json:"status"`
}

// AdminAppointment is the hospital-wide appointment view.
type AdminAppointment struct {
	ID           string            `json:"id"`
	PatientID    string            `json:"patientId"`
	Patient      string            `json:"patient"`
	DoctorID     string            `json:"doctorId"`
	DepartmentID string            `json:"departmentId"`
	Status       AppointmentStatus `json:"status"`
	Datetime     Timestamp         `json:"datetime"`
}

// DoctorAppointment is an appointment on a doctor's schedule.
type DoctorAppointment struct {
	ID       string            `json:"id"`
	Patient  PersonName        `json:"patient"`
	Datetime Timestamp         `json:"datetime"`
	Status   AppointmentStatus `json:"status"`
	Notes    string            `json:"notes"`
}

// PatientAppointment is an appointment booked by a patient.
type PatientAppointment struct {
	ID       string            `json:"id"`
	DoctorID string            `json:"doctorId"`
	Datetime Timestamp         `json:"datetime"`
	Status   AppointmentStatus `json:"status"`
	Notes    string            `json:"notes"`
}

// Medicine is an admin pharmacy catalogue entry.
type Medicine struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Stock     int     `json:"stock"`
	Unit      string  `json:"unit"`
	Threshold int     `json:"threshold"`
	Price     float64 `json:"price"`
}

// Level classifies the medicine's stock.
func (m Medicine) Level() StockLevel { return ClassifyStock(m.Stock, m.Threshold) }

// DispenseRecord is one entry of the admin dispense history.
type DispenseRecord struct {
	Date     Timestamp `json:"date"`
	Patient  string    `json:"patient"`
	Medicine string    `json:"medicine"`
	Quantity int       `json:"quantity"`
	DoctorID string    `json:"doctorId"`
}

// AdminProfile describes the signed-in administrator.
type AdminProfile struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

// Preferences holds hospital-wide settings.
type Preferences struct {
	HospitalName string `json:"hospitalName"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
}

// Notification is an admin inbox item.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Time    Timestamp `json:"time"`
	Read    bool      `json:"read"`
	Type    string    `json:"type"`
}

// DoctorProfile describes the doctor's practice.
type DoctorProfile struct {
	Specialization string `json:"specialization"`
	Department     string `json:"department"`
}

// MedicineLine is one medicine on a prescription.
type MedicineLine struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Duration  string `json:"duration"`
	Frequency string `json:"frequency"`
}

// Prescription is issued by a doctor against an appointment.
type Prescription struct {
	ID            string         `json:"id"`
	AppointmentID string         `json:"appointmentId"`
	Patient       PersonName     `json:"patient"`
	CreatedAt     Timestamp      `json:"createdAt"`
	Medicines     []MedicineLine `json:"medicines"`
	Notes         string         `json:"notes"`
}

// PharmacyPrescription is a prescription waiting at, or handled by, the
// pharmacy counter.
type PharmacyPrescription struct {
	ID        string         `json:"id"`
	Patient   PersonName     `json:"patient"`
	Doctor    string         `json:"doctor"`
	CreatedAt Timestamp      `json:"createdAt"`
	Dispensed bool           `json:"dispensed"`
	Notes     string         `json:"notes"`
	Medicines []MedicineLine `json:"medicines"`
}

// Status reports the dispense state.
func (p PharmacyPrescription) Status() DispenseStatus { return DispenseStatusOf(p.Dispensed) }

// InventoryItem is a pharmacy stock entry.
type InventoryItem struct {
	ID                string `json:"id"`
	MedicineName      string `json:"medicineName"`
	Stock             int    `json:"stock"`
	Unit              string `json:"unit"`
	LowStockThreshold int    `json:"lowStockThreshold"`
}

// Level classifies the item's stock.
func (i InventoryItem) Level() StockLevel { return ClassifyStock(i.Stock, i.LowStockThreshold) }

// PatientPrescription is a prescription in the patient's history.
type PatientPrescription struct {
	ID        string    `json:"id"`
	DoctorID  string    `json:"doctorId"`
	Date      Timestamp `json:"date"`
	Dispensed bool      `json:"dispensed"`
	Medicines []string  `json:"medicines"`
}

// CareUpdate is a vital-sign snapshot.
type CareUpdate struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Detail string `json:"detail"`
	Trend  string `json:"trend"`
}

// Goal tracks progress toward a wellness target.
type Goal struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Progress int    `json:"progress"`
	Target   string `json:"target"`
}

// MedicationDose is an entry of the patient's medication schedule.
type MedicationDose struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Dosage   string `json:"dosage"`
	Schedule string `json:"schedule"`
	Context  string `json:"context"`
	Status   string `json:"status"`
}

// ChecklistItem is a daily care task.
type ChecklistItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// LabResult summarises a lab report.
type LabResult struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Date    Timestamp `json:"date"`
	Status  string    `json:"status"`
	Summary string    `json:"summary"`
}

// Message is an inbox message addressed to the patient.
type Message struct {
	ID      string    `json:"id"`
	Sender  string    `json:"sender"`
	Role    string    `json:"role"`
	Time    Timestamp `json:"time"`
	Snippet string    `json:"snippet"`
	Unread  bool      `json:"unread"`
}

// Invoice is a patient billing line.
type Invoice struct {
	ID     string    `json:"id"`
	Label  string    `json:"label"`
	Amount float64   `json:"amount"`
	Status string    `json:"status"`
	Date   Timestamp `json:"date"`
}

// BillingSummary is the patient's account overview.
type BillingSummary struct {
	Outstanding float64   `json:"outstanding"`
	DueDate     Timestamp `json:"dueDate"`
	Invoices    []Invoice `json:"invoices"`
}

// Benefits describes the patient's insurance plan.
type Benefits struct {
	Provider             string `json:"provider"`
	Plan                 string `json:"plan"`
	MemberID             string `json:"memberId"`
	Coverage             string `json:"coverage"`
	PrescriptionCoverage string `json:"prescriptionCoverage"`
}

// Resource is a self-service link.
type Resource struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ActionLabel string `json:"actionLabel"`
	Href        string `json:"href"`
}

// VisitPatient identifies the patient of a walk-in visit. PatientID is nil
// for unregistered walk-ins.
type VisitPatient struct {
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	PatientID *string `json:"patientId"`
}

// Visit is a front-desk check-in.
type Visit struct {
	ID        string       `json:"id"`
	Patient   VisitPatient `json:"patient"`
	Doctor    string       `json:"doctor"`
	Purpose   string       `json:"purpose"`
	Notes     string       `json:"notes"`
	Status    VisitStatus  `json:"status"`
	VisitDate Timestamp    `json:"visitDate"`
}

// Bill is a front-desk charge.
type Bill struct {
	ID      string     `json:"id"`
	Patient string     `json:"patient"`
	Type    string     `json:"type"`
	Amount  float64    `json:"amount"`
	DueDate Timestamp  `json:"dueDate"`
	Status  BillStatus `json:"status"`
}

// Highlight is a report card on the staff dashboard. Value is either a
// number or a preformatted string.
type Highlight struct {
	Title       string          `json:"title"`
	Value       json.RawMessage `json:"value"`
	Description string          `json:"description"`
}

// EntityID implementations let the workspaces address collection items
// generically.
func (d Department) EntityID() string           { return d.ID }
func (d Doctor) EntityID() string               { return d.ID }
func (s StaffMember) EntityID() string          { return s.ID }
func (p PatientRecord) EntityID() string        { return p.ID }
func (a AdminAppointment) EntityID() string     { return a.ID }
func (a DoctorAppointment) EntityID() string    { return a.ID }
func (a PatientAppointment) EntityID() string   { return a.ID }
func (m Medicine) EntityID() string             { return m.ID }
func (n Notification) EntityID() string         { return n.ID }
func (p Prescription) EntityID() string         { return p.ID }
func (p PharmacyPrescription) EntityID() string { return p.ID }
func (i InventoryItem) EntityID() string        { return i.ID }
func (c ChecklistItem) EntityID() string        { return c.ID }
func (m Message) EntityID() string              { return m.ID }
func (v Visit) EntityID() string                { return v.ID }
func (b Bill) EntityID() string                 { return b.ID }
