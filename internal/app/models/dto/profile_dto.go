package dto

// UserResponse represents basic user information
type UserResponse struct {
	ID              int64   `json:"id"`
	Email           string  `json:"email"`
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	RoleType        string  `json:"roleType" example:"STUDENT" enums:"STUDENT,TEACHER"`
	ProfilePhotoURL *string `json:"profilePhotoUrl,omitempty"`

	// Student-specific fields
	StudentID  *int64  `json:"studentId,omitempty"`
	RollNumber *string `json:"rollNumber,omitempty"`
	Branch     *string `json:"branch,omitempty"`
	Year       *int    `json:"year,omitempty"`

	// Teacher-specific fields
	TeacherID   *int64  `json:"teacherId,omitempty"`
	Department  *string `json:"department,omitempty"`
	Designation *string `json:"designation,omitempty"`
}

// UpdateProfileRequest represents profile update data
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`

	// Student-specific fields
	Branch *string `json:"branch,omitempty"`
	Year   *int    `json:"year,omitempty"`

	// Teacher-specific fields
	Department  *string `json:"department,omitempty"`
	Designation *string `json:"designation,omitempty"`
}

// StudentResponse is a compact student view used in team and search listings
type StudentResponse struct {
	ID         int64   `json:"id"`
	UserID     int64   `json:"userId"`
	FirstName  string  `json:"firstName"`
	LastName   string  `json:"lastName"`
	Email      string  `json:"email"`
	RollNumber string  `json:"rollNumber"`
	Branch     *string `json:"branch,omitempty"`
	Year       *int    `json:"year,omitempty"`
}

// TeacherResponse is a compact teacher view used in project and search listings
type TeacherResponse struct {
	ID          int64   `json:"id"`
	UserID      int64   `json:"userId"`
	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	Email       string  `json:"email"`
	Department  *string `json:"department,omitempty"`
	Designation *string `json:"designation,omitempty"`
}
