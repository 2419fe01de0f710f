package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
	"github.com/thapar/projectportal/internal/pkg/email"
	"github.com/thapar/projectportal/internal/pkg/logger"
)

// ProjectService handles the project lifecycle and team membership
type ProjectService interface {
	Create(ctx context.Context, userID int64, req *dto.CreateProjectRequest) (*models.Project, error)
	GetByID(ctx context.Context, projectID int64) (*models.Project, error)
	List(ctx context.Context, userID int64, filter repositories.ProjectFilter, mine bool, offset uint64, limit int) ([]*models.Project, int64, error)
	Update(ctx context.Context, userID, projectID int64, req *dto.UpdateProjectRequest) (*models.Project, error)
	Approve(ctx context.Context, userID, projectID int64, comment *string) error
	Reject(ctx context.Context, userID, projectID int64, comment *string) error
	UpdateStatus(ctx context.Context, userID, projectID int64, status models.ProjectStatus) error
	Delete(ctx context.Context, userID, projectID int64) error

	AddTeamMember(ctx context.Context, userID, projectID, studentID int64, role models.TeamRole) (*models.TeamMember, error)
	RemoveTeamMember(ctx context.Context, userID, projectID, memberID int64) error
}

// ProjectServiceImpl implements ProjectService
type ProjectServiceImpl struct {
	projectRepo  repositories.IProjectRepository
	teamRepo     repositories.ITeamRepository
	userRepo     repositories.IUserRepository
	emailService email.EmailService
}

// NewProjectService creates a new ProjectService
func NewProjectService(
	projectRepo repositories.IProjectRepository,
	teamRepo repositories.ITeamRepository,
	userRepo repositories.IUserRepository,
	emailService email.EmailService,
) ProjectService {
	return &ProjectServiceImpl{
		projectRepo:  projectRepo,
		teamRepo:     teamRepo,
		userRepo:     userRepo,
		emailService: emailService,
	}
}

// Create creates a project together with its team and seeded lead member.
// A teacher creator names the team lead and the project starts APPROVED;
// a student creator becomes the lead, names a mentor, and the project starts PENDING.
func (s *ProjectServiceImpl) Create(ctx context.Context, userID int64, req *dto.CreateProjectRequest) (*models.Project, error) {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	if !req.Type.IsValid() {
		return nil, apperrors.ErrInvalidProjectType
	}

	project := &models.Project{
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		GithubLink:  req.GithubLink,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedByID: userID,
	}
	for _, paper := range req.ResearchPapers {
		project.ResearchPapers = append(project.ResearchPapers, models.ResearchPaper{
			Title: paper.Title,
			Link:  paper.Link,
		})
	}
	for _, item := range req.Media {
		project.Media = append(project.Media, models.Media{
			URL:     item.URL,
			Caption: item.Caption,
		})
	}

	teamDescription := fmt.Sprintf("Team for %s", req.Title)
	team := &models.Team{
		Name:        fmt.Sprintf("%s Team", req.Title),
		Description: &teamDescription,
	}

	var lead *models.Student
	var notifyUser *models.User
	var notification *models.Notification
	var emailRole string

	if actor.IsTeacher() {
		if req.TeamLeadID == nil {
			return nil, apperrors.NewBadRequestError("a team lead must be specified for teacher-created projects")
		}
		lead, err = s.userRepo.GetStudentByID(ctx, *req.TeamLeadID)
		if err != nil {
			return nil, err
		}

		project.Status = models.ProjectStatusApproved
		project.MentorID = actor.Teacher.ID
		notifyUser = lead.User
		notification = &models.Notification{
			UserID:  lead.User.ID,
			Type:    models.NotificationProjectApproval,
			Message: fmt.Sprintf("You have been assigned as the team lead for the project: %s", req.Title),
		}
		emailRole = "team lead"
	} else {
		if req.MentorID == nil {
			return nil, apperrors.NewBadRequestError("a mentor must be specified for student-created projects")
		}
		mentor, err := s.userRepo.GetTeacherByID(ctx, *req.MentorID)
		if err != nil {
			return nil, err
		}

		lead = actor.Student
		project.Status = models.ProjectStatusPending
		project.MentorID = mentor.ID
		notifyUser = mentor.User
		notification = &models.Notification{
			UserID:  mentor.User.ID,
			Type:    models.NotificationProjectApproval,
			Message: fmt.Sprintf("You have been assigned as mentor for the project: %s", req.Title),
		}
		emailRole = "mentor"
	}

	if err := s.projectRepo.CreateWithTeam(ctx, project, team, lead.ID, notification); err != nil {
		return nil, err
	}
	project.Team = team

	// Email is best-effort, failures only get logged
	if notifyUser != nil {
		if err := s.emailService.SendProjectAssignedEmail(notifyUser.Email, notifyUser.FullName(), project.Title, emailRole); err != nil {
			logger.Warn().Err(err).Int64("projectID", project.ID).Msg("Failed to send project assignment email")
		}
	}

	return s.projectRepo.GetByID(ctx, project.ID)
}

// GetByID retrieves full project details
func (s *ProjectServiceImpl) GetByID(ctx context.Context, projectID int64) (*models.Project, error) {
	return s.projectRepo.GetByID(ctx, projectID)
}

// List retrieves projects. With mine set, the listing is scoped to the caller:
// a student sees projects of teams they actively belong to, a teacher sees
// projects they supervise.
func (s *ProjectServiceImpl) List(ctx context.Context, userID int64, filter repositories.ProjectFilter, mine bool, offset uint64, limit int) ([]*models.Project, int64, error) {
	if mine {
		actor, err := resolveActor(ctx, s.userRepo, userID)
		if err != nil {
			return nil, 0, err
		}
		if actor.IsTeacher() {
			filter.MentorID = actor.Teacher.ID
		} else {
			filter.StudentID = actor.Student.ID
		}
	} else if filter.Status == "" {
		// Pending projects only show up in the caller's own listings
		filter.ExcludePending = true
	}
	return s.projectRepo.List(ctx, filter, offset, limit)
}

// canManageTeam reports whether the actor is the project's mentor or active team lead
func (s *ProjectServiceImpl) canManageTeam(ctx context.Context, actor *Actor, project *models.Project) (bool, error) {
	if actor.IsMentorOf(project) {
		return true, nil
	}
	if actor.Student == nil {
		return false, nil
	}
	lead, err := s.teamRepo.GetActiveLead(ctx, project.TeamID)
	if err != nil {
		if errors.Is(err, apperrors.ErrTeamMemberNotFound) {
			return false, nil
		}
		return false, err
	}
	return lead.StudentID == actor.Student.ID, nil
}

// Update edits project content. Only the mentor or the active team lead may update.
// Papers and media are upserted and only explicitly listed IDs are deleted. All
// active team members are notified, and the mentor gets a best-effort email.
func (s *ProjectServiceImpl) Update(ctx context.Context, userID, projectID int64, req *dto.UpdateProjectRequest) (*models.Project, error) {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canManageTeam(ctx, actor, project)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.NewForbiddenError("only the project mentor or lead can update the project")
	}

	if !req.Type.IsValid() {
		return nil, apperrors.ErrInvalidProjectType
	}

	updated := &models.Project{
		ID:          project.ID,
		Title:       req.Title,
		Description: req.Description,
		Type:        req.Type,
		GithubLink:  req.GithubLink,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	for _, paper := range req.ResearchPapers {
		p := models.ResearchPaper{Title: paper.Title, Link: paper.Link}
		if paper.ID != nil {
			p.ID = *paper.ID
		}
		updated.ResearchPapers = append(updated.ResearchPapers, p)
	}
	for _, item := range req.Media {
		m := models.Media{URL: item.URL, Caption: item.Caption}
		if item.ID != nil {
			m.ID = *item.ID
		}
		updated.Media = append(updated.Media, m)
	}

	// Notify every active team member about the update
	var notifications []*models.Notification
	if project.Team != nil {
		for _, member := range project.Team.Members {
			if member.Student == nil || member.Student.User == nil {
				continue
			}
			notifications = append(notifications, &models.Notification{
				UserID:  member.Student.User.ID,
				Type:    models.NotificationProjectUpdate,
				Message: fmt.Sprintf("The project %q has been updated", req.Title),
			})
		}
	}

	if err := s.projectRepo.UpdateContent(ctx, updated, req.PapersToDelete, req.MediaToDelete, notifications); err != nil {
		return nil, err
	}

	if project.Mentor != nil && project.Mentor.User != nil && !actor.IsMentorOf(project) {
		if err := s.emailService.SendProjectUpdateEmail(project.Mentor.User.Email, project.Mentor.User.FullName(), req.Title); err != nil {
			logger.Warn().Err(err).Int64("projectID", projectID).Msg("Failed to send project update email")
		}
	}

	return s.projectRepo.GetByID(ctx, projectID)
}

// decide is the shared approve/reject path. Only the mentor may decide, and each
// decision appends a new approval audit row.
func (s *ProjectServiceImpl) decide(ctx context.Context, userID, projectID int64, approvalStatus models.ApprovalStatus, comment *string) error {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if !actor.IsTeacher() {
		return apperrors.NewForbiddenError("only teachers can approve or reject projects")
	}
	if !actor.IsMentorOf(project) {
		return apperrors.NewForbiddenError("only the project mentor can approve or reject the project")
	}

	approval := &models.Approval{
		ProjectID:  projectID,
		ApproverID: actor.Teacher.ID,
		Status:     approvalStatus,
		Comment:    comment,
	}

	projectStatus := models.ProjectStatusApproved
	notificationType := models.NotificationProjectApproval
	verb := "approved"
	if approvalStatus == models.ApprovalStatusRejected {
		projectStatus = models.ProjectStatusRejected
		notificationType = models.NotificationProjectUpdate
		verb = "rejected"
	}

	// The notification goes to the active team lead
	var notification *models.Notification
	var leadUser *models.User
	lead, err := s.teamRepo.GetActiveLead(ctx, project.TeamID)
	if err == nil {
		student, err := s.userRepo.GetStudentByID(ctx, lead.StudentID)
		if err == nil && student.User != nil {
			leadUser = student.User
			notification = &models.Notification{
				UserID: student.User.ID,
				Type:   notificationType,
				Message: fmt.Sprintf("Your project %q has been %s by %s",
					project.Title, verb, actor.User.FullName()),
			}
		}
	} else if !errors.Is(err, apperrors.ErrTeamMemberNotFound) {
		return err
	}

	if err := s.projectRepo.SetDecision(ctx, approval, projectStatus, notification); err != nil {
		return err
	}

	if leadUser != nil {
		if err := s.emailService.SendProjectStatusEmail(leadUser.Email, leadUser.FullName(), project.Title, string(approvalStatus)); err != nil {
			logger.Warn().Err(err).Int64("projectID", projectID).Msg("Failed to send project status email")
		}
	}

	return nil
}

// Approve records a mentor approval and moves the project to APPROVED
func (s *ProjectServiceImpl) Approve(ctx context.Context, userID, projectID int64, comment *string) error {
	return s.decide(ctx, userID, projectID, models.ApprovalStatusApproved, comment)
}

// Reject records a mentor rejection and moves the project to REJECTED
func (s *ProjectServiceImpl) Reject(ctx context.Context, userID, projectID int64, comment *string) error {
	return s.decide(ctx, userID, projectID, models.ApprovalStatusRejected, comment)
}

// UpdateStatus moves an approved project through ONGOING and COMPLETED.
// Only the mentor or the active team lead may change the status.
func (s *ProjectServiceImpl) UpdateStatus(ctx context.Context, userID, projectID int64, status models.ProjectStatus) error {
	if status != models.ProjectStatusOngoing && status != models.ProjectStatusCompleted {
		return apperrors.ErrInvalidStatus
	}

	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	allowed, err := s.canManageTeam(ctx, actor, project)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.NewForbiddenError("only the project mentor or lead can change the project status")
	}

	if project.Status != models.ProjectStatusApproved && project.Status != models.ProjectStatusOngoing {
		return apperrors.NewBadRequestError("only approved projects can change lifecycle status")
	}

	return s.projectRepo.UpdateStatus(ctx, projectID, status)
}

// Delete removes a project. Any teacher, the mentor, or the active team lead may delete.
// The team and its membership history are kept.
func (s *ProjectServiceImpl) Delete(ctx context.Context, userID, projectID int64) error {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	if !actor.IsTeacher() {
		allowed, err := s.canManageTeam(ctx, actor, project)
		if err != nil {
			return err
		}
		if !allowed {
			return apperrors.NewForbiddenError("only the project mentor, team lead, or a teacher can delete this project")
		}
	}

	return s.projectRepo.Delete(ctx, projectID)
}

// AddTeamMember adds a student to the project's team. Only the mentor or the
// active team lead may manage members. The role label defaults to MEMBER; a
// student who previously left the team is reactivated on the same membership
// row, taking the new role, instead of getting a new one.
func (s *ProjectServiceImpl) AddTeamMember(ctx context.Context, userID, projectID, studentID int64, role models.TeamRole) (*models.TeamMember, error) {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	if role == "" {
		role = models.TeamRoleMember
	}
	// The LEAD role is assigned once, when the team is seeded at creation
	if role == models.TeamRoleLead {
		return nil, apperrors.NewBadRequestError("the team lead is assigned at project creation")
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.canManageTeam(ctx, actor, project)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperrors.NewForbiddenError("only the project mentor or lead can manage team members")
	}

	if _, err := s.userRepo.GetStudentByID(ctx, studentID); err != nil {
		return nil, err
	}

	existing, err := s.teamRepo.GetMember(ctx, project.TeamID, studentID)
	switch {
	case err == nil:
		if existing.IsActive() {
			return nil, apperrors.ErrAlreadyTeamMember
		}
		// Rejoin: reactivate the old row rather than inserting a second one
		if err := s.teamRepo.ReactivateMember(ctx, existing.ID, role); err != nil {
			return nil, err
		}
		return s.teamRepo.GetMember(ctx, project.TeamID, studentID)
	case errors.Is(err, apperrors.ErrTeamMemberNotFound):
		member, err := s.teamRepo.AddMember(ctx, project.TeamID, studentID, role)
		if err != nil {
			// Lost a race with a concurrent add of the same student
			if errors.Is(err, apperrors.ErrAlreadyTeamMember) {
				return nil, apperrors.ErrAlreadyTeamMember
			}
			return nil, err
		}
		return member, nil
	default:
		return nil, err
	}
}

// RemoveTeamMember soft-removes a member from the project's team. The lead
// cannot be removed.
func (s *ProjectServiceImpl) RemoveTeamMember(ctx context.Context, userID, projectID, memberID int64) error {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return err
	}

	allowed, err := s.canManageTeam(ctx, actor, project)
	if err != nil {
		return err
	}
	if !allowed {
		return apperrors.NewForbiddenError("only the project mentor or lead can manage team members")
	}

	var target *models.TeamMember
	if project.Team != nil {
		for i := range project.Team.Members {
			if project.Team.Members[i].ID == memberID {
				target = &project.Team.Members[i]
				break
			}
		}
	}
	if target == nil {
		// A member ID from another project's team is treated as a bad request,
		// not a lookup miss
		return apperrors.NewBadRequestError("team member does not belong to this project's team")
	}

	if target.Role == models.TeamRoleLead {
		return apperrors.ErrCannotRemoveLead
	}

	return s.teamRepo.RemoveMember(ctx, memberID)
}
