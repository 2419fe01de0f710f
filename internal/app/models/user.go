package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID              int64      `json:"id" db:"id" example:"1"`                                                         // Unique identifier for the user
	Email           string     `json:"email" db:"email" example:"user@thapar.edu"`                                     // User's email address
	Password        string     `json:"-" db:"password"`                                                                // User's hashed password (excluded from JSON)
	FirstName       string     `json:"firstName" db:"first_name" example:"John"`                                       // User's first name
	LastName        string     `json:"lastName" db:"last_name" example:"Doe"`                                          // User's last name
	CreatedAt       time.Time  `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`                       // Timestamp when the user was created
	UpdatedAt       time.Time  `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`                       // Timestamp when the user was last updated
	RoleType        RoleType   `json:"roleType" db:"role_type" example:"STUDENT"`                                      // User's role (STUDENT or TEACHER)
	IsActive        bool       `json:"isActive" db:"is_active" example:"true"`                                         // Whether the user account is active
	LastLoginAt     *time.Time `json:"lastLoginAt,omitempty" db:"last_login_at" example:"2024-04-20T18:00:00Z"`        // Timestamp of the last login (nullable)
	ProfilePhotoURL *string    `json:"profilePhotoUrl,omitempty" db:"profile_photo_url" example:"uploads/profile.jpg"` // URL of the user's profile photo (nullable)
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Student defines the student model based on the 'students' table
type Student struct {
	ID         int64   `json:"id" db:"id"`
	UserID     int64   `json:"userId" db:"user_id"`
	RollNumber string  `json:"rollNumber" db:"roll_number"`
	Branch     *string `json:"branch,omitempty" db:"branch"` // Pointer for potential NULL
	Year       *int    `json:"year,omitempty" db:"year"`
	User       *User   `json:"user,omitempty"` // Relation, no db tag
}

// Teacher defines the teacher model based on the 'teachers' table
type Teacher struct {
	ID          int64   `json:"id" db:"id"`
	UserID      int64   `json:"userId" db:"user_id"`
	Department  *string `json:"department,omitempty" db:"department"`
	Designation *string `json:"designation,omitempty" db:"designation"`
	User        *User   `json:"user,omitempty"` // Relation, no db tag
}
