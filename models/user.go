package models

import "time"

// User owns robots. Password holds a bcrypt hash and never leaves the service.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Phone        *string   `gorm:"size:32;uniqueIndex" json:"phone"`
	Password     string    `gorm:"size:255;not null" json:"-"`
	IsSuperAdmin bool      `gorm:"not null" json:"is_super_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSummary is the owner projection embedded in robot responses.
type UserSummary struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Summary projects the user to its public owner fields.
func (u User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

// Caller identifies who is acting on a request and whether the
// owner filter applies to them.
type Caller struct {
	UserID       uint
	IsSuperAdmin bool
}

// CanAccess is the access policy: owners see their own robots, super-admins see all.
func (c Caller) CanAccess(ownerID uint) bool {
	return c.IsSuperAdmin || c.UserID == ownerID
}
