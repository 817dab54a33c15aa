package models

import (
	"math"
	"strings"
	"time"
)

// UserRole enumerates the roles recognised by the hub.
type UserRole string

const (
	// RoleStudent submits activities.
	RoleStudent UserRole = "student"
	// RoleFaculty reviews activities.
	RoleFaculty UserRole = "faculty"
	// RoleAdmin manages users and reviews activities.
	RoleAdmin UserRole = "admin"
)

// User is an account of any role. Role specific fields are left empty for other roles.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Name          string    `gorm:"size:255;not null" json:"name"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"size:255" json:"-"`
	Role          UserRole  `gorm:"size:16;not null;index" json:"role"`
	Department    string    `gorm:"size:128;index" json:"department"`
	Year          *int      `json:"year,omitempty"`
	StudentNumber string    `gorm:"size:64" json:"student_id,omitempty"`
	Designation   string    `gorm:"size:128" json:"designation,omitempty"`
	Phone         string    `gorm:"size:32" json:"phone,omitempty"`
	IsActive      bool      `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanReview reports whether the user may approve or reject activities.
func (u User) CanReview() bool {
	return u.Role == RoleFaculty || u.Role == RoleAdmin
}

// ProfileCompletion returns the share of role relevant profile fields that are filled, as a whole percentage.
func (u User) ProfileCompletion() int {
	fields := []bool{
		strings.TrimSpace(u.Name) != "",
		strings.TrimSpace(u.Email) != "",
		strings.TrimSpace(u.Department) != "",
		strings.TrimSpace(u.Phone) != "",
	}

	switch u.Role {
	case RoleStudent:
		fields = append(fields, u.Year != nil && *u.Year > 0, strings.TrimSpace(u.StudentNumber) != "")
	case RoleFaculty:
		fields = append(fields, strings.TrimSpace(u.Designation) != "")
	}

	filled := 0
	for _, ok := range fields {
		if ok {
			filled++
		}
	}

	return int(math.Round(float64(filled) * 100 / float64(len(fields))))
}

// ParseUserRole normalises a role string, returning false for unknown roles.
func ParseUserRole(raw string) (UserRole, bool) {
	switch role := UserRole(strings.ToLower(strings.TrimSpace(raw))); role {
	case RoleStudent, RoleFaculty, RoleAdmin:
		return role, true
	default:
		return "", false
	}
}
