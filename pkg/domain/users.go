package domain

import "strings"

// UserRecord is a registered account. Passwords are stored as entered.
type UserRecord struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	PatientID *string   `json:"patientId"`
	CreatedAt Timestamp `json:"createdAt"`
}

// SessionRecord is the active login. It never carries the password.
type SessionRecord struct {
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	PatientID *string   `json:"patientId"`
	CreatedAt Timestamp `json:"createdAt"`
}

// DisplayName is the trimmed full name, or the username when both name parts
// are blank.
func (s SessionRecord) DisplayName() string {
	if name := joinName(s.FirstName, s.LastName); name != "" {
		return name
	}
	return s.Username
}

// Owner returns the identity a role document is created for.
func (s SessionRecord) Owner() Owner {
	return Owner{Username: s.Username, FirstName: s.FirstName, LastName: s.LastName, Email: s.Email}
}

// Owner is the user a role document belongs to. Only the admin defaults
// depend on it.
type Owner struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

func joinName(first, last string) string {
	return strings.TrimSpace(first + " " + last)
}
