package model

import "strings"

// HR pseudo-user that non-HR employees always have a conversation with.
const (
	HRUserID   = "hr-department"
	HRUserName = "HR Department"
	HRUserRole = "HR"
)

// Placeholders for participants that cannot be resolved from the roster.
const (
	UnknownUserName   = "Unknown User"
	UnknownUserRole   = "Unknown"
	UnknownSenderName = "Unknown Sender"
	SelfDisplayName   = "You"
)

// Employee is one entry of the portal roster.
type Employee struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Role       string `json:"role" db:"role"`
	Email      string `json:"email" db:"email"`
	Department string `json:"department" db:"department"`
}

// IsHR reports whether the employee holds an HR role.
func (e Employee) IsHR() bool {
	return IsHRRole(e.Role)
}

// Principal identifies the signed-in user.
type Principal struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// IsHR reports whether the signed-in user holds an HR role.
func (p Principal) IsHR() bool {
	return IsHRRole(p.Role)
}

// HREmployee returns the HR pseudo-user as a roster entry.
func HREmployee() Employee {
	return Employee{ID: HRUserID, Name: HRUserName, Role: HRUserRole}
}

// IsHRRole matches "hr", "HR", "HR Manager" and similar role labels.
func IsHRRole(role string) bool {
	for _, word := range strings.FieldsFunc(strings.ToLower(role), func(r rune) bool {
		return r == ' ' || r == '_' || r == '-'
	}) {
		if word == "hr" {
			return true
		}
	}
	return false
}

// Roster indexes employees by ID.
type Roster map[string]Employee

// NewRoster builds a lookup table from a list of employees.
func NewRoster(employees []Employee) Roster {
	r := make(Roster, len(employees))
	for _, e := range employees {
		if e.ID == "" {
			continue
		}
		r[e.ID] = e
	}
	return r
}
