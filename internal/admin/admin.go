package admin

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultUsername   = "admin"
	DefaultPassword   = "admin123"
	DefaultDepartment = "All"
	DefaultEmail      = "admin@gov.in"
)

// Admin is a department staff account. Accounts are never updated after
// registration.
type Admin struct {
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Department   string `json:"department"`
	Email        string `json:"email"`
}

// SeesAllDepartments reports whether the account is scoped to every
// department rather than a single one.
func (a *Admin) SeesAllDepartments() bool {
	return a.Department == DefaultDepartment
}

func (a *Admin) ToResponse() AdminResponse {
	return AdminResponse{
		Username:   a.Username,
		Department: a.Department,
		Email:      a.Email,
	}
}

var whitespace = regexp.MustCompile(`\s+`)

// FallbackEmail is the address given to a demo login for department.
func FallbackEmail(department string) string {
	return fmt.Sprintf("admin@%s.gov", whitespace.ReplaceAllString(strings.ToLower(department), ""))
}
