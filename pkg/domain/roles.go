// Package domain defines the hospital entities, the per-role documents and
// their default contents, the status lifecycles and the stock rules shared by
// every role workspace.
package domain

// Role identifies the dashboard a user belongs to.
type Role string

// Supported roles.
const (
	RolePatient    Role = "patient"
	RoleDoctor     Role = "doctor"
	RoleAdmin      Role = "admin"
	RolePharmacist Role = "pharmacist"
	RoleStaff      Role = "staff"
)

// Pages the presentation layer navigates to.
const (
	PageLogin = "login.html"
	PageIndex = "index.html"
)

var roleHomePages = map[Role]string{
	RolePatient:    "patient.html",
	RoleDoctor:     "doctor.html",
	RoleAdmin:      "admin.html",
	RolePharmacist: "pharmacist.html",
	RoleStaff:      "staff.html",
}

// Roles returns every supported role.
func Roles() []Role {
	return []Role{RolePatient, RoleDoctor, RoleAdmin, RolePharmacist, RoleStaff}
}

// Valid reports whether r is a supported role.
func (r Role) Valid() bool {
	_, ok := roleHomePages[r]
	return ok
}

// HomePage returns the landing page for r, or index.html for unknown roles.
func (r Role) HomePage() string {
	if page, ok := roleHomePages[r]; ok {
		return page
	}
	return PageIndex
}

// ParseRole converts s into a supported role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}
