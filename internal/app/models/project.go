package models

import (
	"time"
)

// Project defines the project model based on the 'projects' table
type Project struct {
	ID          int64         `json:"id" db:"id"`
	Title       string        `json:"title" db:"title"`
	Description string        `json:"description" db:"description"`
	Type        ProjectType   `json:"type" db:"type"`
	Status      ProjectStatus `json:"status" db:"status"`
	GithubLink  *string       `json:"githubLink,omitempty" db:"github_link"`
	StartDate   *time.Time    `json:"startDate,omitempty" db:"start_date"`
	EndDate     *time.Time    `json:"endDate,omitempty" db:"end_date"`
	TeamID      int64         `json:"teamId" db:"team_id"`
	MentorID    int64         `json:"mentorId" db:"mentor_id"`
	CreatedByID int64         `json:"createdById" db:"created_by_id"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at"`

	// Relations, no db tag
	Team           *Team           `json:"team,omitempty"`
	Mentor         *Teacher        `json:"mentor,omitempty"`
	ResearchPapers []ResearchPaper `json:"researchPapers,omitempty"`
	Media          []Media         `json:"media,omitempty"`
	Approvals      []Approval      `json:"approvals,omitempty"`
}

// Approval defines an audit entry for a mentor decision, based on the 'approvals' table.
// Every approve/reject appends a new row; the history is never rewritten.
type Approval struct {
	ID         int64          `json:"id" db:"id"`
	ProjectID  int64          `json:"projectId" db:"project_id"`
	ApproverID int64          `json:"approverId" db:"approver_id"`
	Status     ApprovalStatus `json:"status" db:"status"`
	Comment    *string        `json:"comment,omitempty" db:"comment"`
	CreatedAt  time.Time      `json:"createdAt" db:"created_at"`
	Approver   *Teacher       `json:"approver,omitempty"` // Relation, no db tag
}

// ResearchPaper defines a paper attached to a project, based on the 'research_papers' table
type ResearchPaper struct {
	ID        int64     `json:"id" db:"id"`
	ProjectID int64     `json:"projectId" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	Link      string    `json:"link" db:"link"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Media defines a media attachment of a project, based on the 'media' table
type Media struct {
	ID        int64     `json:"id" db:"id"`
	ProjectID int64     `json:"projectId" db:"project_id"`
	URL       string    `json:"url" db:"url"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
