package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of roles the backend may assign. Arbitrary strings
// are rejected at the boundary where the verify response is parsed instead of
// being propagated through the app.
type Role string

const (
	RoleStudent Role = "Student"
	RoleTeacher Role = "Teacher"
	RoleAdmin   Role = "Admin"
)

// ParseRole normalizes a role string from the backend. The verify response is
// the single source of truth for the role; when it omits the field the user is
// treated as a Student, matching the backend's default for new accounts.
// Unknown non-empty values are an error.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return RoleStudent, nil
	case "student":
		return RoleStudent, nil
	case "teacher":
		return RoleTeacher, nil
	case "admin":
		return RoleAdmin, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r Role) String() string { return string(r) }
