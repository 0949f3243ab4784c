package domain

// AdminDocument is the hospital administration workspace.
type AdminDocument struct {
	Departments     []Department       `json:"departments"`
	Doctors         []Doctor           `json:"doctors"`
	Staff           []StaffMember      `json:"staff"`
	Patients        []PatientRecord    `json:"patients"`
	Appointments    []AdminAppointment `json:"appointments"`
	Medicines       []Medicine         `json:"medicines"`
	DispenseHistory []DispenseRecord   `json:"dispenseHistory"`
	Profile         AdminProfile       `json:"profile"`
	Preferences     Preferences        `json:"preferences"`
	Notifications   []Notification     `json:"notifications"`
}

// DoctorDocument is a doctor's schedule and prescriptions. A stored null
// profile is kept as nil.
type DoctorDocument struct {
	Profile       *DoctorProfile      `json:"profile"`
	Appointments  []DoctorAppointment `json:"appointments"`
	Prescriptions []Prescription      `json:"prescriptions"`
}

// PatientDocument is the patient portal workspace.
type PatientDocument struct {
	Departments         []Department          `json:"departments"`
	Doctors             []Doctor              `json:"doctors"`
	Appointments        []PatientAppointment  `json:"appointments"`
	Prescriptions       []PatientPrescription `json:"prescriptions"`
	CareUpdates         []CareUpdate          `json:"careUpdates"`
	Goals               []Goal                `json:"goals"`
	MedicationsSchedule []MedicationDose      `json:"medicationsSchedule"`
	Checklist           []ChecklistItem       `json:"checklist"`
	Labs                []LabResult           `json:"labs"`
	Messages            []Message             `json:"messages"`
	Billing             BillingSummary        `json:"billing"`
	Benefits            Benefits              `json:"benefits"`
	Resources           []Resource            `json:"resources"`
}

// PharmacistDocument is the pharmacy counter workspace.
type PharmacistDocument struct {
	Prescriptions []PharmacyPrescription `json:"prescriptions"`
	Inventory     []InventoryItem        `json:"inventory"`
}

// StaffDocument is the front-desk workspace.
type StaffDocument struct {
	Visits     []Visit     `json:"visits"`
	Billing    []Bill      `json:"billing"`
	Highlights []Highlight `json:"highlights"`
	Actions    []string    `json:"actions"`
}

// Required top-level fields per role. A stored value that is absent or falsy
// is replaced by the default.
var (
	AdminRequired = []string{
		"departments", "doctors", "staff", "patients", "appointments",
		"medicines", "dispenseHistory", "profile", "preferences", "notifications",
	}
	DoctorRequired  = []string{"appointments", "prescriptions"}
	PatientRequired = []string{
		"appointments", "prescriptions", "careUpdates", "goals",
		"medicationsSchedule", "checklist", "labs", "messages",
		"billing", "benefits", "resources",
	}
	PharmacistRequired = []string{"prescriptions", "inventory"}
	StaffRequired      = []string{"visits", "billing", "highlights", "actions"}
)
