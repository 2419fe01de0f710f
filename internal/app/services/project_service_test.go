package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
)

// --- fakes ---

type fakeUserRepo struct {
	users    map[int64]*models.User
	students map[int64]*models.Student // keyed by student ID
	teachers map[int64]*models.Teacher // keyed by teacher ID

	registeredStudent *models.Student
	registeredTeacher *models.Teacher
	passwordUpdates   map[int64]string
}

func (f *fakeUserRepo) Register(ctx context.Context, user *models.User, student *models.Student, teacher *models.Teacher) error {
	if exists, _ := f.EmailExists(ctx, user.Email); exists {
		return apperrors.ErrEmailAlreadyExists
	}
	user.ID = int64(len(f.users) + 101)
	f.users[user.ID] = user
	if student != nil {
		student.ID = user.ID * 10
		student.UserID = user.ID
		student.User = user
		f.students[student.ID] = student
		f.registeredStudent = student
	}
	if teacher != nil {
		teacher.ID = user.ID * 10
		teacher.UserID = user.ID
		teacher.User = user
		f.teachers[teacher.ID] = teacher
		f.registeredTeacher = teacher
	}
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range f.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (f *fakeUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, err := f.GetUserByEmail(ctx, email)
	return err == nil, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.FirstName = firstName
	user.LastName = lastName
	return nil
}

func (f *fakeUserRepo) UpdateProfilePhotoURL(ctx context.Context, userID int64, photoURL *string) error {
	user, ok := f.users[userID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	user.ProfilePhotoURL = photoURL
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	if f.passwordUpdates == nil {
		f.passwordUpdates = map[int64]string{}
	}
	f.passwordUpdates[userID] = passwordHash
	return nil
}

func (f *fakeUserRepo) UpdateLastLogin(ctx context.Context, userID int64) error { return nil }

func (f *fakeUserRepo) GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	for _, student := range f.students {
		if student.UserID == userID {
			return student, nil
		}
	}
	return nil, apperrors.ErrStudentNotFound
}

func (f *fakeUserRepo) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, apperrors.ErrStudentNotFound
	}
	return student, nil
}

func (f *fakeUserRepo) GetTeacherByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	for _, teacher := range f.teachers {
		if teacher.UserID == userID {
			return teacher, nil
		}
	}
	return nil, apperrors.ErrTeacherNotFound
}

func (f *fakeUserRepo) GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error) {
	teacher, ok := f.teachers[id]
	if !ok {
		return nil, apperrors.ErrTeacherNotFound
	}
	return teacher, nil
}

func (f *fakeUserRepo) UpdateStudent(ctx context.Context, studentID int64, branch *string, year *int) error {
	student, ok := f.students[studentID]
	if !ok {
		return apperrors.ErrStudentNotFound
	}
	if branch != nil {
		student.Branch = branch
	}
	if year != nil {
		student.Year = year
	}
	return nil
}

func (f *fakeUserRepo) UpdateTeacher(ctx context.Context, teacherID int64, department, designation *string) error {
	teacher, ok := f.teachers[teacherID]
	if !ok {
		return apperrors.ErrTeacherNotFound
	}
	if department != nil {
		teacher.Department = department
	}
	if designation != nil {
		teacher.Designation = designation
	}
	return nil
}

func (f *fakeUserRepo) SearchTeachers(ctx context.Context, query string, offset uint64, limit int) ([]*models.Teacher, int64, error) {
	var out []*models.Teacher
	for _, teacher := range f.teachers {
		if matchesUser(teacher.User, query) {
			out = append(out, teacher)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) SearchStudents(ctx context.Context, query string, offset uint64, limit int) ([]*models.Student, int64, error) {
	var out []*models.Student
	for _, student := range f.students {
		if matchesUser(student.User, query) || strings.Contains(student.RollNumber, query) {
			out = append(out, student)
		}
	}
	return out, int64(len(out)), nil
}

func matchesUser(user *models.User, query string) bool {
	if user == nil {
		return false
	}
	query = strings.ToLower(query)
	return strings.Contains(strings.ToLower(user.FirstName), query) ||
		strings.Contains(strings.ToLower(user.LastName), query) ||
		strings.Contains(strings.ToLower(user.Email), query)
}

type fakeProjectRepo struct {
	nextID        int64
	nextAttachID  int64
	projects      map[int64]*models.Project
	approvals     []*models.Approval
	notifications []*models.Notification
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{nextID: 1, nextAttachID: 1000, projects: map[int64]*models.Project{}}
}

func (f *fakeProjectRepo) CreateWithTeam(ctx context.Context, project *models.Project, team *models.Team, leadStudentID int64, notification *models.Notification) error {
	team.ID = f.nextID * 100
	project.ID = f.nextID
	f.nextID++
	project.TeamID = team.ID
	project.CreatedAt = time.Now()
	project.UpdatedAt = project.CreatedAt

	team.Members = []models.TeamMember{{
		ID:        team.ID + 1,
		TeamID:    team.ID,
		StudentID: leadStudentID,
		Role:      models.TeamRoleLead,
		JoinedAt:  time.Now(),
	}}
	project.Team = team
	f.projects[project.ID] = project

	if notification != nil {
		f.notifications = append(f.notifications, notification)
	}
	return nil
}

func (f *fakeProjectRepo) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	project, ok := f.projects[id]
	if !ok {
		return nil, apperrors.ErrProjectNotFound
	}
	return project, nil
}

func (f *fakeProjectRepo) List(ctx context.Context, filter repositories.ProjectFilter, offset uint64, limit int) ([]*models.Project, int64, error) {
	var out []*models.Project
	for _, project := range f.projects {
		if filter.MentorID > 0 && project.MentorID != filter.MentorID {
			continue
		}
		if filter.Status != "" && project.Status != filter.Status {
			continue
		}
		if filter.ExcludePending && project.Status == models.ProjectStatusPending {
			continue
		}
		out = append(out, project)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProjectRepo) SearchTitles(ctx context.Context, query string, limit int) ([]*models.Project, error) {
	var out []*models.Project
	for _, project := range f.projects {
		if strings.Contains(strings.ToLower(project.Title), strings.ToLower(query)) {
			out = append(out, project)
		}
	}
	return out, nil
}

func (f *fakeProjectRepo) UpdateContent(ctx context.Context, project *models.Project, papersToDelete, mediaToDelete []int64, notifications []*models.Notification) error {
	stored, ok := f.projects[project.ID]
	if !ok {
		return apperrors.ErrProjectNotFound
	}
	stored.Title = project.Title
	stored.Description = project.Description
	stored.Type = project.Type
	stored.GithubLink = project.GithubLink
	stored.StartDate = project.StartDate
	stored.EndDate = project.EndDate

	for i := range project.ResearchPapers {
		paper := &project.ResearchPapers[i]
		if paper.ID > 0 {
			updated := false
			for j := range stored.ResearchPapers {
				if stored.ResearchPapers[j].ID == paper.ID {
					stored.ResearchPapers[j].Title = paper.Title
					stored.ResearchPapers[j].Link = paper.Link
					updated = true
				}
			}
			if !updated {
				return apperrors.NewResourceNotFoundError("research paper not found in this project")
			}
		} else {
			paper.ID = f.nextAttachID
			f.nextAttachID++
			stored.ResearchPapers = append(stored.ResearchPapers, *paper)
		}
	}
	for i := range project.Media {
		item := &project.Media[i]
		if item.ID > 0 {
			updated := false
			for j := range stored.Media {
				if stored.Media[j].ID == item.ID {
					stored.Media[j].URL = item.URL
					stored.Media[j].Caption = item.Caption
					updated = true
				}
			}
			if !updated {
				return apperrors.NewResourceNotFoundError("media not found in this project")
			}
		} else {
			item.ID = f.nextAttachID
			f.nextAttachID++
			stored.Media = append(stored.Media, *item)
		}
	}

	// Only explicitly listed attachments are removed
	if len(papersToDelete) > 0 {
		var kept []models.ResearchPaper
		for _, paper := range stored.ResearchPapers {
			if !containsID(papersToDelete, paper.ID) {
				kept = append(kept, paper)
			}
		}
		stored.ResearchPapers = kept
	}
	if len(mediaToDelete) > 0 {
		var kept []models.Media
		for _, item := range stored.Media {
			if !containsID(mediaToDelete, item.ID) {
				kept = append(kept, item)
			}
		}
		stored.Media = kept
	}

	f.notifications = append(f.notifications, notifications...)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func (f *fakeProjectRepo) UpdateStatus(ctx context.Context, id int64, status models.ProjectStatus) error {
	stored, ok := f.projects[id]
	if !ok {
		return apperrors.ErrProjectNotFound
	}
	stored.Status = status
	return nil
}

func (f *fakeProjectRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := f.projects[id]; !ok {
		return apperrors.ErrProjectNotFound
	}
	delete(f.projects, id)
	return nil
}

func (f *fakeProjectRepo) SetDecision(ctx context.Context, approval *models.Approval, status models.ProjectStatus, notification *models.Notification) error {
	stored, ok := f.projects[approval.ProjectID]
	if !ok {
		return apperrors.ErrProjectNotFound
	}
	f.approvals = append(f.approvals, approval)
	stored.Status = status
	if notification != nil {
		f.notifications = append(f.notifications, notification)
	}
	return nil
}

type fakeTeamRepo struct {
	members map[int64]*models.TeamMember // keyed by member ID
	nextID  int64
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{members: map[int64]*models.TeamMember{}, nextID: 1}
}

func (f *fakeTeamRepo) GetTeamByID(ctx context.Context, id int64) (*models.Team, error) {
	return nil, apperrors.ErrTeamNotFound
}

func (f *fakeTeamRepo) GetMember(ctx context.Context, teamID, studentID int64) (*models.TeamMember, error) {
	for _, member := range f.members {
		if member.TeamID == teamID && member.StudentID == studentID {
			return member, nil
		}
	}
	return nil, apperrors.ErrTeamMemberNotFound
}

func (f *fakeTeamRepo) AddMember(ctx context.Context, teamID, studentID int64, role models.TeamRole) (*models.TeamMember, error) {
	if _, err := f.GetMember(ctx, teamID, studentID); err == nil {
		return nil, apperrors.ErrAlreadyTeamMember
	}
	member := &models.TeamMember{
		ID:        f.nextID,
		TeamID:    teamID,
		StudentID: studentID,
		Role:      role,
		JoinedAt:  time.Now(),
	}
	f.nextID++
	f.members[member.ID] = member
	return member, nil
}

func (f *fakeTeamRepo) ReactivateMember(ctx context.Context, memberID int64, role models.TeamRole) error {
	member, ok := f.members[memberID]
	if !ok {
		return apperrors.ErrTeamMemberNotFound
	}
	member.LeftAt = nil
	member.JoinedAt = time.Now()
	member.Role = role
	return nil
}

func (f *fakeTeamRepo) RemoveMember(ctx context.Context, memberID int64) error {
	member, ok := f.members[memberID]
	if !ok {
		return apperrors.ErrTeamMemberNotFound
	}
	now := time.Now()
	member.LeftAt = &now
	return nil
}

func (f *fakeTeamRepo) IsActiveMember(ctx context.Context, teamID, studentID int64) (bool, error) {
	member, err := f.GetMember(ctx, teamID, studentID)
	if err != nil {
		return false, nil
	}
	return member.IsActive(), nil
}

func (f *fakeTeamRepo) GetActiveLead(ctx context.Context, teamID int64) (*models.TeamMember, error) {
	for _, member := range f.members {
		if member.TeamID == teamID && member.Role == models.TeamRoleLead && member.IsActive() {
			return member, nil
		}
	}
	return nil, apperrors.ErrTeamMemberNotFound
}

type fakeNotificationRepo struct{}

func (f *fakeNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	return nil
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, userID int64, offset uint64, limit int) ([]*models.Notification, int64, error) {
	return nil, 0, nil
}

func (f *fakeNotificationRepo) CountUnread(ctx context.Context, userID int64) (int64, error) {
	return 0, nil
}

func (f *fakeNotificationRepo) MarkRead(ctx context.Context, id, userID int64) error { return nil }

func (f *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID int64) error { return nil }

type fakeEmailService struct {
	sent []string
}

func (f *fakeEmailService) SendOTPEmail(toEmail, toName, code string) error {
	f.sent = append(f.sent, "otp:"+toEmail)
	return nil
}

func (f *fakeEmailService) SendProjectAssignedEmail(toEmail, toName, projectTitle, role string) error {
	f.sent = append(f.sent, "assigned:"+toEmail)
	return nil
}

func (f *fakeEmailService) SendProjectStatusEmail(toEmail, toName, projectTitle, status string) error {
	f.sent = append(f.sent, "status:"+toEmail)
	return nil
}

func (f *fakeEmailService) SendProjectUpdateEmail(toEmail, toName, projectTitle string) error {
	f.sent = append(f.sent, "update:"+toEmail)
	return nil
}

func (f *fakeEmailService) SendPasswordResetEmail(toEmail, toName, token string) error {
	f.sent = append(f.sent, "reset:"+toEmail)
	return nil
}

// --- fixture ---

type fixture struct {
	userRepo     *fakeUserRepo
	projectRepo  *fakeProjectRepo
	teamRepo     *fakeTeamRepo
	emailService *fakeEmailService
	service      ProjectService
}

const (
	mentorUserID  = int64(1)
	mentorID      = int64(10)
	leadUserID    = int64(2)
	leadStudentID = int64(20)
	peerUserID    = int64(3)
	peerStudentID = int64(30)
	otherUserID   = int64(4)
	otherStudent  = int64(40)
)

func newFixture() *fixture {
	mentorUser := &models.User{ID: mentorUserID, Email: "mentor@example.com", FirstName: "Asha", LastName: "Verma", RoleType: models.RoleTeacher, IsActive: true}
	leadUser := &models.User{ID: leadUserID, Email: "lead@example.com", FirstName: "Ravi", LastName: "Kumar", RoleType: models.RoleStudent, IsActive: true}
	peerUser := &models.User{ID: peerUserID, Email: "peer@example.com", FirstName: "Neha", LastName: "Singh", RoleType: models.RoleStudent, IsActive: true}
	otherUser := &models.User{ID: otherUserID, Email: "other@example.com", FirstName: "Vikram", LastName: "Rao", RoleType: models.RoleStudent, IsActive: true}

	f := &fixture{
		userRepo: &fakeUserRepo{
			users: map[int64]*models.User{
				mentorUserID: mentorUser,
				leadUserID:   leadUser,
				peerUserID:   peerUser,
				otherUserID:  otherUser,
			},
			students: map[int64]*models.Student{
				leadStudentID: {ID: leadStudentID, UserID: leadUserID, RollNumber: "102103001", User: leadUser},
				peerStudentID: {ID: peerStudentID, UserID: peerUserID, RollNumber: "102103002", User: peerUser},
				otherStudent:  {ID: otherStudent, UserID: otherUserID, RollNumber: "102103003", User: otherUser},
			},
			teachers: map[int64]*models.Teacher{
				mentorID: {ID: mentorID, UserID: mentorUserID, User: mentorUser},
			},
		},
		projectRepo:  newFakeProjectRepo(),
		teamRepo:     newFakeTeamRepo(),
		emailService: &fakeEmailService{},
	}
	f.service = NewProjectService(f.projectRepo, f.teamRepo, f.userRepo, f.emailService)
	return f
}

// seedProject installs an existing project with an active lead membership
func (f *fixture) seedProject(status models.ProjectStatus) *models.Project {
	team := &models.Team{ID: 100, Name: "Smart Campus Team"}
	lead, _ := f.teamRepo.AddMember(context.Background(), team.ID, leadStudentID, models.TeamRoleLead)
	lead.Student = f.userRepo.students[leadStudentID]
	team.Members = []models.TeamMember{*lead}

	project := &models.Project{
		ID:          500,
		Title:       "Smart Campus",
		Description: "IoT-based campus automation",
		Type:        models.ProjectTypeCapstone,
		Status:      status,
		TeamID:      team.ID,
		MentorID:    mentorID,
		CreatedByID: leadUserID,
		Team:        team,
		Mentor:      f.userRepo.teachers[mentorID],
	}
	f.projectRepo.projects[project.ID] = project
	return project
}

// --- tests ---

func TestCreateProjectByStudent(t *testing.T) {
	f := newFixture()
	mentorRef := mentorID

	project, err := f.service.Create(context.Background(), leadUserID, &dto.CreateProjectRequest{
		Title:       "Traffic Analyzer",
		Description: "Vision-based traffic analysis",
		Type:        models.ProjectTypeResearch,
		MentorID:    &mentorRef,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if project.Status != models.ProjectStatusPending {
		t.Errorf("status = %s, want PENDING", project.Status)
	}
	if project.MentorID != mentorID {
		t.Errorf("mentorID = %d, want %d", project.MentorID, mentorID)
	}
	if project.Team == nil || project.Team.Name != "Traffic Analyzer Team" {
		t.Errorf("team not seeded with derived name: %+v", project.Team)
	}
	if len(project.Team.Members) != 1 || project.Team.Members[0].Role != models.TeamRoleLead {
		t.Errorf("creator not seeded as team lead: %+v", project.Team.Members)
	}
	if project.Team.Members[0].StudentID != leadStudentID {
		t.Errorf("lead studentID = %d, want %d", project.Team.Members[0].StudentID, leadStudentID)
	}

	if len(f.projectRepo.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(f.projectRepo.notifications))
	}
	n := f.projectRepo.notifications[0]
	if n.UserID != mentorUserID || n.Type != models.NotificationProjectApproval {
		t.Errorf("mentor notification wrong: %+v", n)
	}
}

func TestCreateProjectByTeacher(t *testing.T) {
	f := newFixture()
	leadRef := leadStudentID

	project, err := f.service.Create(context.Background(), mentorUserID, &dto.CreateProjectRequest{
		Title:       "Drone Fleet",
		Description: "Autonomous drone coordination",
		Type:        models.ProjectTypeCapstone,
		TeamLeadID:  &leadRef,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if project.Status != models.ProjectStatusApproved {
		t.Errorf("status = %s, want APPROVED", project.Status)
	}
	if project.MentorID != mentorID {
		t.Errorf("mentorID = %d, want creator's teacher ID %d", project.MentorID, mentorID)
	}

	if len(f.projectRepo.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1", len(f.projectRepo.notifications))
	}
	if f.projectRepo.notifications[0].UserID != leadUserID {
		t.Errorf("notification went to user %d, want lead %d", f.projectRepo.notifications[0].UserID, leadUserID)
	}
}

func TestCreateProjectMissingCounterpart(t *testing.T) {
	f := newFixture()

	_, err := f.service.Create(context.Background(), leadUserID, &dto.CreateProjectRequest{
		Title:       "No Mentor",
		Description: "missing mentor",
		Type:        models.ProjectTypeCapstone,
	})
	if !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("student create without mentor: err = %v, want ErrBadRequest", err)
	}

	_, err = f.service.Create(context.Background(), mentorUserID, &dto.CreateProjectRequest{
		Title:       "No Lead",
		Description: "missing lead",
		Type:        models.ProjectTypeCapstone,
	})
	if !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("teacher create without lead: err = %v, want ErrBadRequest", err)
	}
}

func TestApproveAndRejectAppendHistory(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusPending)

	if err := f.service.Approve(context.Background(), mentorUserID, project.ID, nil); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}
	if project.Status != models.ProjectStatusApproved {
		t.Errorf("status = %s, want APPROVED", project.Status)
	}

	comment := "needs more detail"
	if err := f.service.Reject(context.Background(), mentorUserID, project.ID, &comment); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if project.Status != models.ProjectStatusRejected {
		t.Errorf("status = %s, want REJECTED", project.Status)
	}

	// Every decision appends its own audit row
	if len(f.projectRepo.approvals) != 2 {
		t.Fatalf("got %d approval rows, want 2", len(f.projectRepo.approvals))
	}
	if f.projectRepo.approvals[0].Status != models.ApprovalStatusApproved {
		t.Errorf("first decision = %s, want APPROVED", f.projectRepo.approvals[0].Status)
	}
	if f.projectRepo.approvals[1].Status != models.ApprovalStatusRejected {
		t.Errorf("second decision = %s, want REJECTED", f.projectRepo.approvals[1].Status)
	}
	if f.projectRepo.approvals[1].Comment == nil || *f.projectRepo.approvals[1].Comment != comment {
		t.Errorf("rejection comment not recorded: %+v", f.projectRepo.approvals[1])
	}

	// Both decisions notify the active lead
	if len(f.projectRepo.notifications) != 2 {
		t.Fatalf("got %d notifications, want 2", len(f.projectRepo.notifications))
	}
	for _, n := range f.projectRepo.notifications {
		if n.UserID != leadUserID {
			t.Errorf("notification to user %d, want lead %d", n.UserID, leadUserID)
		}
	}
	if f.projectRepo.notifications[0].Type != models.NotificationProjectApproval {
		t.Errorf("approval notification type = %s", f.projectRepo.notifications[0].Type)
	}
	if f.projectRepo.notifications[1].Type != models.NotificationProjectUpdate {
		t.Errorf("rejection notification type = %s", f.projectRepo.notifications[1].Type)
	}
}

func TestDecisionRequiresMentor(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusPending)

	// A student is turned away for not being a teacher at all
	err := f.service.Approve(context.Background(), leadUserID, project.ID, nil)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("lead approving: err = %v, want ErrPermissionDenied", err)
	}
	if !strings.Contains(apperrors.Message(err), "teachers") {
		t.Errorf("non-teacher denial message = %q, want the teachers-only message", apperrors.Message(err))
	}

	// A teacher who is not the mentor gets the mentor-specific denial
	teacherUser := &models.User{ID: 9, Email: "second@example.com", FirstName: "Priya", LastName: "Nair", RoleType: models.RoleTeacher, IsActive: true}
	f.userRepo.users[teacherUser.ID] = teacherUser
	f.userRepo.teachers[90] = &models.Teacher{ID: 90, UserID: teacherUser.ID, User: teacherUser}

	err = f.service.Approve(context.Background(), teacherUser.ID, project.ID, nil)
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("non-mentor teacher approving: err = %v, want ErrPermissionDenied", err)
	}
	if !strings.Contains(apperrors.Message(err), "mentor") {
		t.Errorf("non-mentor denial message = %q, want the mentor-only message", apperrors.Message(err))
	}

	if len(f.projectRepo.approvals) != 0 {
		t.Errorf("approval row recorded despite denial")
	}
}

func TestRejectWithoutComment(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusPending)

	if err := f.service.Reject(context.Background(), mentorUserID, project.ID, nil); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}
	if project.Status != models.ProjectStatusRejected {
		t.Errorf("status = %s, want REJECTED", project.Status)
	}
	if len(f.projectRepo.approvals) != 1 || f.projectRepo.approvals[0].Comment != nil {
		t.Errorf("rejection without comment not recorded cleanly: %+v", f.projectRepo.approvals)
	}
}

func TestUpdateStatusTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    models.ProjectStatus
		to      models.ProjectStatus
		caller  int64
		wantErr error
	}{
		{"approved to ongoing by lead", models.ProjectStatusApproved, models.ProjectStatusOngoing, leadUserID, nil},
		{"ongoing to completed by mentor", models.ProjectStatusOngoing, models.ProjectStatusCompleted, mentorUserID, nil},
		{"pending cannot advance", models.ProjectStatusPending, models.ProjectStatusOngoing, mentorUserID, apperrors.ErrBadRequest},
		{"rejected cannot advance", models.ProjectStatusRejected, models.ProjectStatusCompleted, mentorUserID, apperrors.ErrBadRequest},
		{"invalid target status", models.ProjectStatusApproved, models.ProjectStatusApproved, mentorUserID, apperrors.ErrInvalidStatus},
		{"outsider student denied", models.ProjectStatusApproved, models.ProjectStatusOngoing, otherUserID, apperrors.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			project := f.seedProject(tt.from)

			err := f.service.UpdateStatus(context.Background(), tt.caller, project.ID, tt.to)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("UpdateStatus returned error: %v", err)
				}
				if project.Status != tt.to {
					t.Errorf("status = %s, want %s", project.Status, tt.to)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateNotifiesTeam(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)

	_, err := f.service.Update(context.Background(), leadUserID, project.ID, &dto.UpdateProjectRequest{
		Title:       "Smart Campus v2",
		Description: "Expanded scope",
		Type:        models.ProjectTypeCapstone,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if project.Title != "Smart Campus v2" {
		t.Errorf("title = %q, want updated title", project.Title)
	}
	if len(f.projectRepo.notifications) != 1 {
		t.Fatalf("got %d notifications, want 1 (one per active member)", len(f.projectRepo.notifications))
	}
	if f.projectRepo.notifications[0].Type != models.NotificationProjectUpdate {
		t.Errorf("notification type = %s, want PROJECT_UPDATE", f.projectRepo.notifications[0].Type)
	}
}

func TestProjectOptionalFieldsPersist(t *testing.T) {
	f := newFixture()
	mentorRef := mentorID
	link := "https://github.com/example/traffic-analyzer"
	start := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 6, 0)

	project, err := f.service.Create(context.Background(), leadUserID, &dto.CreateProjectRequest{
		Title:       "Traffic Analyzer",
		Description: "Vision-based traffic analysis",
		Type:        models.ProjectTypeResearch,
		MentorID:    &mentorRef,
		GithubLink:  &link,
		StartDate:   &start,
		EndDate:     &end,
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	stored := f.projectRepo.projects[project.ID]
	if stored.GithubLink == nil || *stored.GithubLink != link {
		t.Errorf("githubLink not persisted on create: %v", stored.GithubLink)
	}
	if stored.StartDate == nil || !stored.StartDate.Equal(start) {
		t.Errorf("startDate not persisted on create: %v", stored.StartDate)
	}
	if stored.EndDate == nil || !stored.EndDate.Equal(end) {
		t.Errorf("endDate not persisted on create: %v", stored.EndDate)
	}

	newLink := "https://github.com/example/traffic-analyzer-v2"
	newEnd := end.AddDate(0, 3, 0)
	if _, err := f.service.Update(context.Background(), mentorUserID, project.ID, &dto.UpdateProjectRequest{
		Title:       "Traffic Analyzer",
		Description: "Vision-based traffic analysis",
		Type:        models.ProjectTypeResearch,
		GithubLink:  &newLink,
		StartDate:   &start,
		EndDate:     &newEnd,
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if stored.GithubLink == nil || *stored.GithubLink != newLink {
		t.Errorf("githubLink not updated: %v", stored.GithubLink)
	}
	if stored.EndDate == nil || !stored.EndDate.Equal(newEnd) {
		t.Errorf("endDate not updated: %v", stored.EndDate)
	}
}

func TestUpdateDeletesOnlyListedAttachments(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)
	project.ResearchPapers = []models.ResearchPaper{
		{ID: 11, ProjectID: project.ID, Title: "Survey", Link: "https://example.com/survey"},
		{ID: 12, ProjectID: project.ID, Title: "Benchmark", Link: "https://example.com/benchmark"},
	}
	project.Media = []models.Media{
		{ID: 21, ProjectID: project.ID, URL: "https://example.com/demo.png"},
		{ID: 22, ProjectID: project.ID, URL: "https://example.com/poster.png"},
	}

	paperID := int64(11)
	_, err := f.service.Update(context.Background(), leadUserID, project.ID, &dto.UpdateProjectRequest{
		Title:       "Smart Campus",
		Description: "IoT-based campus automation",
		Type:        models.ProjectTypeCapstone,
		ResearchPapers: []dto.ResearchPaperInput{
			{ID: &paperID, Title: "Survey v2", Link: "https://example.com/survey-v2"},
			{Title: "Field Study", Link: "https://example.com/field-study"},
		},
		PapersToDelete: []int64{12},
		MediaToDelete:  []int64{21},
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	// Paper 11 updated, paper 12 deleted, the new paper added
	if len(project.ResearchPapers) != 2 {
		t.Fatalf("got %d papers, want 2: %+v", len(project.ResearchPapers), project.ResearchPapers)
	}
	if project.ResearchPapers[0].ID != 11 || project.ResearchPapers[0].Title != "Survey v2" {
		t.Errorf("paper 11 not updated in place: %+v", project.ResearchPapers[0])
	}
	if project.ResearchPapers[1].Title != "Field Study" {
		t.Errorf("new paper not added: %+v", project.ResearchPapers[1])
	}

	// Media 22 was listed nowhere and must survive; only 21 is deleted
	if len(project.Media) != 1 || project.Media[0].ID != 22 {
		t.Errorf("unlisted media not retained: %+v", project.Media)
	}
}

func TestUpdateWithoutDeleteListsKeepsAttachments(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)
	project.ResearchPapers = []models.ResearchPaper{
		{ID: 11, ProjectID: project.ID, Title: "Survey", Link: "https://example.com/survey"},
	}
	project.Media = []models.Media{
		{ID: 21, ProjectID: project.ID, URL: "https://example.com/demo.png"},
	}

	_, err := f.service.Update(context.Background(), leadUserID, project.ID, &dto.UpdateProjectRequest{
		Title:       "Smart Campus v2",
		Description: "Expanded scope",
		Type:        models.ProjectTypeCapstone,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if len(project.ResearchPapers) != 1 || len(project.Media) != 1 {
		t.Errorf("attachments absent from the request were removed: papers=%+v media=%+v",
			project.ResearchPapers, project.Media)
	}
}

func TestUpdateDeniedForNonMembers(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)

	_, err := f.service.Update(context.Background(), otherUserID, project.ID, &dto.UpdateProjectRequest{
		Title:       "Hijacked",
		Description: "x",
		Type:        models.ProjectTypeCapstone,
	})
	if !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("err = %v, want ErrPermissionDenied", err)
	}
}

func TestAddTeamMemberAndRejoin(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)
	ctx := context.Background()

	member, err := f.service.AddTeamMember(ctx, leadUserID, project.ID, peerStudentID, "")
	if err != nil {
		t.Fatalf("AddTeamMember returned error: %v", err)
	}
	if member.Role != models.TeamRoleMember {
		t.Errorf("role = %s, want MEMBER as the default", member.Role)
	}

	// Adding the same active student again conflicts
	if _, err := f.service.AddTeamMember(ctx, leadUserID, project.ID, peerStudentID, ""); !errors.Is(err, apperrors.ErrAlreadyTeamMember) {
		t.Errorf("duplicate add: err = %v, want ErrAlreadyTeamMember", err)
	}

	// Remove, then rejoin with a different role: the original membership row
	// is reactivated and takes the new role
	if err := f.teamRepo.RemoveMember(ctx, member.ID); err != nil {
		t.Fatalf("RemoveMember returned error: %v", err)
	}
	rejoined, err := f.service.AddTeamMember(ctx, leadUserID, project.ID, peerStudentID, "DEVELOPER")
	if err != nil {
		t.Fatalf("rejoin returned error: %v", err)
	}
	if rejoined.ID != member.ID {
		t.Errorf("rejoin created row %d, want reactivated row %d", rejoined.ID, member.ID)
	}
	if rejoined.LeftAt != nil {
		t.Errorf("rejoined member still has leftAt set")
	}
	if rejoined.Role != models.TeamRole("DEVELOPER") {
		t.Errorf("rejoined role = %s, want DEVELOPER", rejoined.Role)
	}
}

func TestAddTeamMemberRoles(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)
	ctx := context.Background()

	// Any free-form role label is accepted
	member, err := f.service.AddTeamMember(ctx, leadUserID, project.ID, peerStudentID, "DESIGNER")
	if err != nil {
		t.Fatalf("AddTeamMember returned error: %v", err)
	}
	if member.Role != models.TeamRole("DESIGNER") {
		t.Errorf("role = %s, want DESIGNER", member.Role)
	}

	// LEAD is reserved for the seeded creation-time member
	_, err = f.service.AddTeamMember(ctx, leadUserID, project.ID, otherStudent, models.TeamRoleLead)
	if !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("adding a second lead: err = %v, want ErrBadRequest", err)
	}
}

func TestAddTeamMemberRequiresMentorOrLead(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)

	if _, err := f.service.AddTeamMember(context.Background(), otherUserID, project.ID, peerStudentID, ""); !errors.Is(err, apperrors.ErrPermissionDenied) {
		t.Errorf("outsider add: err = %v, want ErrPermissionDenied", err)
	}

	// The mentor may manage members too
	if _, err := f.service.AddTeamMember(context.Background(), mentorUserID, project.ID, peerStudentID, ""); err != nil {
		t.Errorf("mentor add: unexpected error %v", err)
	}
}

func TestRemoveTeamMember(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)
	ctx := context.Background()

	member, err := f.service.AddTeamMember(ctx, mentorUserID, project.ID, peerStudentID, "")
	if err != nil {
		t.Fatalf("AddTeamMember returned error: %v", err)
	}
	member.Student = f.userRepo.students[peerStudentID]
	project.Team.Members = append(project.Team.Members, *member)

	if err := f.service.RemoveTeamMember(ctx, leadUserID, project.ID, member.ID); err != nil {
		t.Fatalf("RemoveTeamMember returned error: %v", err)
	}
	if f.teamRepo.members[member.ID].LeftAt == nil {
		t.Errorf("member not soft-removed")
	}

	// A member ID outside this project's team is a bad request, not a lookup miss
	if err := f.service.RemoveTeamMember(ctx, leadUserID, project.ID, 9999); !errors.Is(err, apperrors.ErrBadRequest) {
		t.Errorf("cross-team member ID: err = %v, want ErrBadRequest", err)
	}
}

func TestRemoveTeamMemberLeadProtected(t *testing.T) {
	f := newFixture()
	project := f.seedProject(models.ProjectStatusApproved)
	leadMemberID := project.Team.Members[0].ID

	err := f.service.RemoveTeamMember(context.Background(), mentorUserID, project.ID, leadMemberID)
	if !errors.Is(err, apperrors.ErrCannotRemoveLead) {
		t.Errorf("err = %v, want ErrCannotRemoveLead", err)
	}
}

func TestDeleteAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		caller  int64
		wantErr error
	}{
		{"mentor may delete", mentorUserID, nil},
		{"lead may delete", leadUserID, nil},
		{"outside student denied", otherUserID, apperrors.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			project := f.seedProject(models.ProjectStatusApproved)

			err := f.service.Delete(context.Background(), tt.caller, project.ID)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Delete returned error: %v", err)
				}
				if _, ok := f.projectRepo.projects[project.ID]; ok {
					t.Errorf("project still present after delete")
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestListMineScopesToCaller(t *testing.T) {
	f := newFixture()
	f.seedProject(models.ProjectStatusApproved)

	projects, total, err := f.service.List(context.Background(), mentorUserID, repositories.ProjectFilter{}, true, 0, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || len(projects) != 1 {
		t.Errorf("mentor sees %d projects, want 1", total)
	}
}

func TestListHidesPendingFromGeneralView(t *testing.T) {
	f := newFixture()
	f.seedProject(models.ProjectStatusPending)

	_, total, err := f.service.List(context.Background(), otherUserID, repositories.ProjectFilter{}, false, 0, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 0 {
		t.Errorf("general listing shows %d pending projects, want 0", total)
	}

	// The mentor still sees the pending project in their own view
	_, total, err = f.service.List(context.Background(), mentorUserID, repositories.ProjectFilter{}, true, 0, 10)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 {
		t.Errorf("mentor's own listing shows %d projects, want 1", total)
	}
}
