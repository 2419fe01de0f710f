package models

import (
	"time"
)

// Team defines the team model based on the 'teams' table
type Team struct {
	ID          int64        `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	Description *string      `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time    `json:"createdAt" db:"created_at"`
	Members     []TeamMember `json:"members,omitempty"` // Relation, no db tag
}

// TeamMember defines a student's membership in a team, based on the 'team_members' table.
// A (student, team) pair has at most one row; leaving sets left_at and rejoining
// reactivates the same row.
type TeamMember struct {
	ID        int64      `json:"id" db:"id"`
	TeamID    int64      `json:"teamId" db:"team_id"`
	StudentID int64      `json:"studentId" db:"student_id"`
	Role      TeamRole   `json:"role" db:"role"`
	JoinedAt  time.Time  `json:"joinedAt" db:"joined_at"`
	LeftAt    *time.Time `json:"leftAt,omitempty" db:"left_at"`
	Student   *Student   `json:"student,omitempty"` // Relation, no db tag
}

// IsActive reports whether the member is currently part of the team
func (m *TeamMember) IsActive() bool {
	return m.LeftAt == nil
}
