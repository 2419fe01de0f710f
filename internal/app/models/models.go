package models

// RoleType represents the role of a user in the system
type RoleType string

const (
	// RoleStudent represents a student user
	RoleStudent RoleType = "STUDENT"
	// RoleTeacher represents a teacher user
	RoleTeacher RoleType = "TEACHER"
)

// IsValid checks whether the role is one of the known roles
func (r RoleType) IsValid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// ProjectType represents the category of a project
type ProjectType string

const (
	ProjectTypeCapstone      ProjectType = "CAPSTONE"
	ProjectTypeThapar        ProjectType = "THAPAR"
	ProjectTypeRD            ProjectType = "R_D"
	ProjectTypeInternational ProjectType = "INTERNATIONAL"
	ProjectTypeResearch      ProjectType = "RESEARCH"
)

// IsValid checks whether the project type is one of the known types
func (t ProjectType) IsValid() bool {
	switch t {
	case ProjectTypeCapstone, ProjectTypeThapar, ProjectTypeRD, ProjectTypeInternational, ProjectTypeResearch:
		return true
	}
	return false
}

// ProjectStatus represents the lifecycle state of a project
type ProjectStatus string

const (
	ProjectStatusPending   ProjectStatus = "PENDING"
	ProjectStatusApproved  ProjectStatus = "APPROVED"
	ProjectStatusOngoing   ProjectStatus = "ONGOING"
	ProjectStatusCompleted ProjectStatus = "COMPLETED"
	ProjectStatusRejected  ProjectStatus = "REJECTED"
)

// IsValid checks whether the status is one of the known states
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPending, ProjectStatusApproved, ProjectStatusOngoing,
		ProjectStatusCompleted, ProjectStatusRejected:
		return true
	}
	return false
}

// ApprovalStatus represents the outcome recorded in an approval entry
type ApprovalStatus string

const (
	ApprovalStatusApproved ApprovalStatus = "APPROVED"
	ApprovalStatusRejected ApprovalStatus = "REJECTED"
)

// TeamRole represents a member's role inside a project team. LEAD and MEMBER
// are the roles the workflow assigns itself; any other label (e.g. DEVELOPER)
// may be given when adding a member.
type TeamRole string

const (
	TeamRoleLead   TeamRole = "LEAD"
	TeamRoleMember TeamRole = "MEMBER"
)

// NotificationType represents the kind of event a notification describes
type NotificationType string

const (
	NotificationProjectApproval NotificationType = "PROJECT_APPROVAL"
	NotificationProjectUpdate   NotificationType = "PROJECT_UPDATE"
)
