package dto

import (
	"time"

	"github.com/thapar/projectportal/internal/app/models"
)

// ResearchPaperInput describes a paper in create/update payloads.
// On update, an entry with an ID edits the existing row; without an ID a new row is added.
type ResearchPaperInput struct {
	ID    *int64 `json:"id,omitempty"`
	Title string `json:"title" binding:"required"`
	Link  string `json:"link" binding:"required,url"`
}

// MediaInput describes a media attachment in create/update payloads
type MediaInput struct {
	ID      *int64  `json:"id,omitempty"`
	URL     string  `json:"url" binding:"required,url"`
	Caption *string `json:"caption,omitempty"`
}

// CreateProjectRequest represents a new project submission.
// A student creator names a mentor and the project starts PENDING;
// a teacher creator names a team lead and the project starts APPROVED.
type CreateProjectRequest struct {
	Title       string             `json:"title" binding:"required,min=3,max=200"`
	Description string             `json:"description" binding:"required"`
	Type        models.ProjectType `json:"type" binding:"required,oneof=CAPSTONE THAPAR R_D INTERNATIONAL RESEARCH"`
	GithubLink  *string            `json:"githubLink,omitempty" binding:"omitempty,url"`
	StartDate   *time.Time         `json:"startDate,omitempty"`
	EndDate     *time.Time         `json:"endDate,omitempty"`

	// Exactly one of these is set, depending on the creator's role
	MentorID   *int64 `json:"mentorId,omitempty"`
	TeamLeadID *int64 `json:"teamLeadId,omitempty"`

	ResearchPapers []ResearchPaperInput `json:"researchPapers,omitempty"`
	Media          []MediaInput         `json:"media,omitempty"`
}

// UpdateProjectRequest represents an edit of project content.
// Paper and media entries with IDs are updated in place and entries without
// IDs are added. Removal is explicit: only IDs listed in PapersToDelete and
// MediaToDelete are deleted, rows absent from all lists are left untouched.
type UpdateProjectRequest struct {
	Title          string               `json:"title" binding:"required,min=3,max=200"`
	Description    string               `json:"description" binding:"required"`
	Type           models.ProjectType   `json:"type" binding:"required,oneof=CAPSTONE THAPAR R_D INTERNATIONAL RESEARCH"`
	GithubLink     *string              `json:"githubLink,omitempty" binding:"omitempty,url"`
	StartDate      *time.Time           `json:"startDate,omitempty"`
	EndDate        *time.Time           `json:"endDate,omitempty"`
	ResearchPapers []ResearchPaperInput `json:"researchPapers,omitempty"`
	Media          []MediaInput         `json:"media,omitempty"`
	PapersToDelete []int64              `json:"papersToDelete,omitempty"`
	MediaToDelete  []int64              `json:"mediaToDelete,omitempty"`
}

// ApproveProjectRequest carries an optional mentor comment on approval
type ApproveProjectRequest struct {
	Comment *string `json:"comment,omitempty"`
}

// RejectProjectRequest carries an optional reason for the rejection
type RejectProjectRequest struct {
	Comment *string `json:"comment,omitempty"`
}

// UpdateProjectStatusRequest moves an approved project through its lifecycle
type UpdateProjectStatusRequest struct {
	Status models.ProjectStatus `json:"status" binding:"required,oneof=ONGOING COMPLETED"`
}

// AddTeamMemberRequest adds a student to a project's team.
// Role is a free-form label and defaults to MEMBER when omitted.
type AddTeamMemberRequest struct {
	StudentID int64           `json:"studentId" binding:"required,min=1"`
	Role      models.TeamRole `json:"role,omitempty"`
}

// ResearchPaperResponse represents a stored paper
type ResearchPaperResponse struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Link  string `json:"link"`
}

// MediaResponse represents a stored media attachment
type MediaResponse struct {
	ID      int64   `json:"id"`
	URL     string  `json:"url"`
	Caption *string `json:"caption,omitempty"`
}

// TeamMemberResponse represents an active team member
type TeamMemberResponse struct {
	ID       int64           `json:"id"`
	Role     models.TeamRole `json:"role"`
	JoinedAt time.Time       `json:"joinedAt"`
	Student  StudentResponse `json:"student"`
}

// TeamResponse represents a project team with its active members
type TeamResponse struct {
	ID      int64                `json:"id"`
	Name    string               `json:"name"`
	Members []TeamMemberResponse `json:"members"`
}

// ApprovalResponse represents one audit entry of the approval history
type ApprovalResponse struct {
	ID        int64                 `json:"id"`
	Status    models.ApprovalStatus `json:"status"`
	Comment   *string               `json:"comment,omitempty"`
	CreatedAt time.Time             `json:"createdAt"`
	Approver  TeacherResponse       `json:"approver"`
}

// ProjectResponse represents full project details
type ProjectResponse struct {
	ID             int64                   `json:"id"`
	Title          string                  `json:"title"`
	Description    string                  `json:"description"`
	Type           models.ProjectType      `json:"type"`
	Status         models.ProjectStatus    `json:"status"`
	GithubLink     *string                 `json:"githubLink,omitempty"`
	StartDate      *time.Time              `json:"startDate,omitempty"`
	EndDate        *time.Time              `json:"endDate,omitempty"`
	CreatedAt      time.Time               `json:"createdAt"`
	UpdatedAt      time.Time               `json:"updatedAt"`
	Mentor         TeacherResponse         `json:"mentor"`
	Team           TeamResponse            `json:"team"`
	ResearchPapers []ResearchPaperResponse `json:"researchPapers"`
	Media          []MediaResponse         `json:"media"`
	Approvals      []ApprovalResponse      `json:"approvals"`
}

// ProjectListItem is a compact project view for listings
type ProjectListItem struct {
	ID        int64                `json:"id"`
	Title     string               `json:"title"`
	Type      models.ProjectType   `json:"type"`
	Status    models.ProjectStatus `json:"status"`
	TeamName  string               `json:"teamName"`
	Mentor    TeacherResponse      `json:"mentor"`
	CreatedAt time.Time            `json:"createdAt"`
}

// ProjectListResponse represents a paginated project listing
type ProjectListResponse struct {
	Projects   []ProjectListItem `json:"projects"`
	Pagination PaginationInfo    `json:"pagination"`
}
