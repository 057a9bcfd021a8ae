package models

import "time"

// UserRole mirrors the roles the directory service knows about.
type UserRole string

const (
	RoleRespondent UserRole = "respondent"
	RoleManager    UserRole = "manager"
	RoleAdmin      UserRole = "admin"
)

// User is a directory profile resolved from Casdoor. Analytics uses it to
// attach name, phone and gender to respondent emails; it is never persisted
// by this service.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	DisplayName string     `json:"display_name"`
	Phone       string     `json:"phone,omitempty"`
	Gender      string     `json:"gender,omitempty"`
	Role        UserRole   `json:"role"`
	Avatar      string     `json:"avatar,omitempty"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// BestName prefers the display name over the account name.
func (u *User) BestName() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Name
}
