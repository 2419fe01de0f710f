package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/db"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
	"github.com/thapar/projectportal/internal/pkg/logger"
)

// ProjectFilter narrows project listings
type ProjectFilter struct {
	Status    models.ProjectStatus
	Type      models.ProjectType
	MentorID  int64 // projects supervised by this teacher
	StudentID int64 // projects whose team has this student as an active member

	// ExcludePending hides projects still awaiting a mentor decision
	ExcludePending bool
}

// IProjectRepository defines the interface for project database operations
type IProjectRepository interface {
	// CreateWithTeam creates the team, its lead member, the project, any attached
	// papers and media, and the lead's notification in a single transaction.
	CreateWithTeam(ctx context.Context, project *models.Project, team *models.Team, leadStudentID int64, notification *models.Notification) error

	GetByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context, filter ProjectFilter, offset uint64, limit int) ([]*models.Project, int64, error)

	// SearchTitles returns id and title of projects matching the query,
	// for typeahead suggestions.
	SearchTitles(ctx context.Context, query string, limit int) ([]*models.Project, error)

	// UpdateContent rewrites the project row and synchronizes papers and media:
	// entries with IDs are updated, entries without IDs are inserted, and only
	// the IDs listed in papersToDelete/mediaToDelete are deleted, scoped to
	// this project. Runs in one transaction together with the team's update
	// notifications.
	UpdateContent(ctx context.Context, project *models.Project, papersToDelete, mediaToDelete []int64, notifications []*models.Notification) error

	UpdateStatus(ctx context.Context, id int64, status models.ProjectStatus) error
	Delete(ctx context.Context, id int64) error

	// SetDecision appends an approval audit row, updates the project status and
	// creates the notification atomically.
	SetDecision(ctx context.Context, approval *models.Approval, status models.ProjectStatus, notification *models.Notification) error
}

// ProjectRepository handles project database operations
type ProjectRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(database *db.PostgresDB) *ProjectRepository {
	return &ProjectRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// CreateWithTeam creates team, lead membership, project and attachments in one transaction
func (r *ProjectRepository) CreateWithTeam(ctx context.Context, project *models.Project, team *models.Team, leadStudentID int64, notification *models.Notification) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO teams (name, description) VALUES ($1, $2) RETURNING id, created_at`,
			team.Name, team.Description).Scan(&team.ID, &team.CreatedAt)
		if err != nil {
			return fmt.Errorf("error creating team: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO team_members (team_id, student_id, role)
			VALUES ($1, $2, $3)`,
			team.ID, leadStudentID, models.TeamRoleLead)
		if err != nil {
			return fmt.Errorf("error creating team lead: %w", err)
		}

		project.TeamID = team.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO projects (title, description, type, status, github_link, start_date, end_date, team_id, mentor_id, created_by_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id, created_at, updated_at`,
			project.Title, project.Description, project.Type, project.Status,
			project.GithubLink, project.StartDate, project.EndDate,
			project.TeamID, project.MentorID, project.CreatedByID).
			Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
		if err != nil {
			return fmt.Errorf("error creating project: %w", err)
		}

		for i := range project.ResearchPapers {
			paper := &project.ResearchPapers[i]
			paper.ProjectID = project.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO research_papers (project_id, title, link)
				VALUES ($1, $2, $3) RETURNING id`,
				paper.ProjectID, paper.Title, paper.Link).Scan(&paper.ID)
			if err != nil {
				return fmt.Errorf("error creating research paper: %w", err)
			}
		}

		for i := range project.Media {
			item := &project.Media[i]
			item.ProjectID = project.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO media (project_id, url, caption)
				VALUES ($1, $2, $3) RETURNING id`,
				item.ProjectID, item.URL, item.Caption).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("error creating media: %w", err)
			}
		}

		if notification != nil {
			notification.ProjectID = &project.ID
			if err := insertNotification(ctx, tx, notification); err != nil {
				return err
			}
		}

		logger.Info().Int64("projectID", project.ID).Int64("teamID", team.ID).Msg("Project created with team")
		return nil
	})
}

// GetByID retrieves a project with its mentor, team, attachments and approval history
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	project := &models.Project{}
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, title, description, type, status, github_link, start_date, end_date,
			team_id, mentor_id, created_by_id, created_at, updated_at
		FROM projects WHERE id = $1`, id).
		Scan(&project.ID, &project.Title, &project.Description, &project.Type, &project.Status,
			&project.GithubLink, &project.StartDate, &project.EndDate,
			&project.TeamID, &project.MentorID, &project.CreatedByID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrProjectNotFound
		}
		return nil, fmt.Errorf("error retrieving project: %w", err)
	}

	// Mentor with user
	mentor, err := scanTeacherWithUser(r.db.Pool.QueryRow(ctx, `
		SELECT `+teacherJoinColumns+`
		FROM teachers t JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`, project.MentorID))
	if err != nil {
		return nil, err
	}
	project.Mentor = mentor

	// Team with active members
	team := &models.Team{}
	err = r.db.Pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM teams WHERE id = $1`, project.TeamID).
		Scan(&team.ID, &team.Name, &team.Description, &team.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("error retrieving team: %w", err)
	}

	memberRows, err := r.db.Pool.Query(ctx, `
		SELECT tm.id, tm.team_id, tm.student_id, tm.role, tm.joined_at, tm.left_at,
			`+studentJoinColumns+`
		FROM team_members tm
		JOIN students s ON s.id = tm.student_id
		JOIN users u ON u.id = s.user_id
		WHERE tm.team_id = $1 AND tm.left_at IS NULL
		ORDER BY tm.joined_at`, team.ID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving team members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		member := models.TeamMember{Student: &models.Student{User: &models.User{}}}
		err := memberRows.Scan(
			&member.ID, &member.TeamID, &member.StudentID, &member.Role, &member.JoinedAt, &member.LeftAt,
			&member.Student.ID, &member.Student.UserID, &member.Student.RollNumber,
			&member.Student.Branch, &member.Student.Year,
			&member.Student.User.ID, &member.Student.User.Email, &member.Student.User.FirstName,
			&member.Student.User.LastName, &member.Student.User.RoleType, &member.Student.User.ProfilePhotoURL)
		if err != nil {
			return nil, fmt.Errorf("error scanning team member: %w", err)
		}
		team.Members = append(team.Members, member)
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team members: %w", err)
	}
	project.Team = team

	// Research papers
	paperRows, err := r.db.Pool.Query(ctx, `
		SELECT id, project_id, title, link, created_at
		FROM research_papers WHERE project_id = $1 ORDER BY id`, project.ID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving research papers: %w", err)
	}
	defer paperRows.Close()

	for paperRows.Next() {
		var paper models.ResearchPaper
		if err := paperRows.Scan(&paper.ID, &paper.ProjectID, &paper.Title, &paper.Link, &paper.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning research paper: %w", err)
		}
		project.ResearchPapers = append(project.ResearchPapers, paper)
	}
	if err := paperRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating research papers: %w", err)
	}

	// Media
	mediaRows, err := r.db.Pool.Query(ctx, `
		SELECT id, project_id, url, caption, created_at
		FROM media WHERE project_id = $1 ORDER BY id`, project.ID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving media: %w", err)
	}
	defer mediaRows.Close()

	for mediaRows.Next() {
		var item models.Media
		if err := mediaRows.Scan(&item.ID, &item.ProjectID, &item.URL, &item.Caption, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("error scanning media: %w", err)
		}
		project.Media = append(project.Media, item)
	}
	if err := mediaRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating media: %w", err)
	}

	// Approval history, newest first
	approvalRows, err := r.db.Pool.Query(ctx, `
		SELECT a.id, a.project_id, a.approver_id, a.status, a.comment, a.created_at,
			`+teacherJoinColumns+`
		FROM approvals a
		JOIN teachers t ON t.id = a.approver_id
		JOIN users u ON u.id = t.user_id
		WHERE a.project_id = $1
		ORDER BY a.created_at DESC`, project.ID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving approvals: %w", err)
	}
	defer approvalRows.Close()

	for approvalRows.Next() {
		approval := models.Approval{Approver: &models.Teacher{User: &models.User{}}}
		err := approvalRows.Scan(
			&approval.ID, &approval.ProjectID, &approval.ApproverID, &approval.Status,
			&approval.Comment, &approval.CreatedAt,
			&approval.Approver.ID, &approval.Approver.UserID, &approval.Approver.Department,
			&approval.Approver.Designation,
			&approval.Approver.User.ID, &approval.Approver.User.Email, &approval.Approver.User.FirstName,
			&approval.Approver.User.LastName, &approval.Approver.User.RoleType, &approval.Approver.User.ProfilePhotoURL)
		if err != nil {
			return nil, fmt.Errorf("error scanning approval: %w", err)
		}
		project.Approvals = append(project.Approvals, approval)
	}
	if err := approvalRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating approvals: %w", err)
	}

	return project, nil
}

// List retrieves projects matching the filter with team name and mentor attached
func (r *ProjectRepository) List(ctx context.Context, filter ProjectFilter, offset uint64, limit int) ([]*models.Project, int64, error) {
	base := func(b squirrel.SelectBuilder) squirrel.SelectBuilder {
		b = b.From("projects p").
			Join("teams tm ON tm.id = p.team_id").
			Join("teachers t ON t.id = p.mentor_id").
			Join("users u ON u.id = t.user_id")
		if filter.Status != "" {
			b = b.Where(squirrel.Eq{"p.status": filter.Status})
		}
		if filter.Type != "" {
			b = b.Where(squirrel.Eq{"p.type": filter.Type})
		}
		if filter.MentorID > 0 {
			b = b.Where(squirrel.Eq{"p.mentor_id": filter.MentorID})
		}
		if filter.StudentID > 0 {
			b = b.Where(`p.team_id IN (
				SELECT team_id FROM team_members
				WHERE student_id = ? AND left_at IS NULL)`, filter.StudentID)
		}
		if filter.ExcludePending {
			b = b.Where(squirrel.NotEq{"p.status": models.ProjectStatusPending})
		}
		return b
	}

	countSQL, countArgs, err := base(r.sb.Select("COUNT(*)")).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build project count query: %w", err)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting projects: %w", err)
	}

	sql, args, err := base(r.sb.Select(
		`p.id, p.title, p.description, p.type, p.status, p.team_id, p.mentor_id,
		p.created_by_id, p.created_at, p.updated_at, tm.name,
		t.id, t.user_id, t.department, t.designation,
		u.id, u.email, u.first_name, u.last_name, u.role_type, u.profile_photo_url`)).
		OrderBy("p.created_at DESC").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build project list query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{
			Team:   &models.Team{},
			Mentor: &models.Teacher{User: &models.User{}},
		}
		err := rows.Scan(
			&project.ID, &project.Title, &project.Description, &project.Type, &project.Status,
			&project.TeamID, &project.MentorID, &project.CreatedByID, &project.CreatedAt, &project.UpdatedAt,
			&project.Team.Name,
			&project.Mentor.ID, &project.Mentor.UserID, &project.Mentor.Department, &project.Mentor.Designation,
			&project.Mentor.User.ID, &project.Mentor.User.Email, &project.Mentor.User.FirstName,
			&project.Mentor.User.LastName, &project.Mentor.User.RoleType, &project.Mentor.User.ProfilePhotoURL)
		if err != nil {
			return nil, 0, fmt.Errorf("error scanning project: %w", err)
		}
		project.Team.ID = project.TeamID
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, total, nil
}

// SearchTitles returns lightweight project rows whose title matches the query
func (r *ProjectRepository) SearchTitles(ctx context.Context, query string, limit int) ([]*models.Project, error) {
	sql, args, err := r.sb.Select("id", "title", "status").
		From("projects").
		Where(squirrel.ILike{"title": "%" + query + "%"}).
		OrderBy("title ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build project title search query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("error searching project titles: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		project := &models.Project{}
		if err := rows.Scan(&project.ID, &project.Title, &project.Status); err != nil {
			return nil, fmt.Errorf("error scanning project title: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating project titles: %w", err)
	}

	return projects, nil
}

// UpdateContent rewrites the project row and synchronizes papers and media in one transaction
func (r *ProjectRepository) UpdateContent(ctx context.Context, project *models.Project, papersToDelete, mediaToDelete []int64, notifications []*models.Notification) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		cmdTag, err := tx.Exec(ctx, `
			UPDATE projects SET title = $1, description = $2, type = $3,
				github_link = $4, start_date = $5, end_date = $6, updated_at = $7
			WHERE id = $8`,
			project.Title, project.Description, project.Type,
			project.GithubLink, project.StartDate, project.EndDate, time.Now(), project.ID)
		if err != nil {
			return fmt.Errorf("error updating project: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrProjectNotFound
		}

		if err := syncResearchPapers(ctx, tx, project.ID, project.ResearchPapers, papersToDelete); err != nil {
			return err
		}
		if err := syncMedia(ctx, tx, project.ID, project.Media, mediaToDelete); err != nil {
			return err
		}

		for _, notification := range notifications {
			notification.ProjectID = &project.ID
			if err := insertNotification(ctx, tx, notification); err != nil {
				return err
			}
		}

		return nil
	})
}

// syncResearchPapers upserts the given papers and deletes the explicitly listed IDs
func syncResearchPapers(ctx context.Context, tx pgx.Tx, projectID int64, papers []models.ResearchPaper, deleteIDs []int64) error {
	for i := range papers {
		paper := &papers[i]
		paper.ProjectID = projectID
		if paper.ID > 0 {
			cmdTag, err := tx.Exec(ctx, `
				UPDATE research_papers SET title = $1, link = $2
				WHERE id = $3 AND project_id = $4`,
				paper.Title, paper.Link, paper.ID, projectID)
			if err != nil {
				return fmt.Errorf("error updating research paper: %w", err)
			}
			if cmdTag.RowsAffected() == 0 {
				return apperrors.NewResourceNotFoundError("research paper not found in this project")
			}
		} else {
			err := tx.QueryRow(ctx, `
				INSERT INTO research_papers (project_id, title, link)
				VALUES ($1, $2, $3) RETURNING id`,
				projectID, paper.Title, paper.Link).Scan(&paper.ID)
			if err != nil {
				return fmt.Errorf("error creating research paper: %w", err)
			}
		}
	}

	// Only explicitly listed rows are removed, scoped to this project
	if len(deleteIDs) > 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM research_papers WHERE project_id = $1 AND id = ANY($2)`,
			projectID, deleteIDs); err != nil {
			return fmt.Errorf("error deleting research papers: %w", err)
		}
	}
	return nil
}

// syncMedia upserts the given media items and deletes the explicitly listed IDs
func syncMedia(ctx context.Context, tx pgx.Tx, projectID int64, items []models.Media, deleteIDs []int64) error {
	for i := range items {
		item := &items[i]
		item.ProjectID = projectID
		if item.ID > 0 {
			cmdTag, err := tx.Exec(ctx, `
				UPDATE media SET url = $1, caption = $2
				WHERE id = $3 AND project_id = $4`,
				item.URL, item.Caption, item.ID, projectID)
			if err != nil {
				return fmt.Errorf("error updating media: %w", err)
			}
			if cmdTag.RowsAffected() == 0 {
				return apperrors.NewResourceNotFoundError("media not found in this project")
			}
		} else {
			err := tx.QueryRow(ctx, `
				INSERT INTO media (project_id, url, caption)
				VALUES ($1, $2, $3) RETURNING id`,
				projectID, item.URL, item.Caption).Scan(&item.ID)
			if err != nil {
				return fmt.Errorf("error creating media: %w", err)
			}
		}
	}

	if len(deleteIDs) > 0 {
		if _, err := tx.Exec(ctx,
			`DELETE FROM media WHERE project_id = $1 AND id = ANY($2)`,
			projectID, deleteIDs); err != nil {
			return fmt.Errorf("error deleting media: %w", err)
		}
	}
	return nil
}

// UpdateStatus moves a project to a new lifecycle state
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id int64, status models.ProjectStatus) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE projects SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error updating project status: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

// Delete removes a project. Papers, media, approvals and notifications cascade;
// the team and its membership history are kept.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting project: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrProjectNotFound
	}
	logger.Info().Int64("projectID", id).Msg("Project deleted")
	return nil
}

// SetDecision appends an approval row, updates the status and notifies the creator atomically
func (r *ProjectRepository) SetDecision(ctx context.Context, approval *models.Approval, status models.ProjectStatus, notification *models.Notification) error {
	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO approvals (project_id, approver_id, status, comment)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			approval.ProjectID, approval.ApproverID, approval.Status, approval.Comment).
			Scan(&approval.ID, &approval.CreatedAt)
		if err != nil {
			return fmt.Errorf("error creating approval: %w", err)
		}

		cmdTag, err := tx.Exec(ctx, `
			UPDATE projects SET status = $1, updated_at = $2 WHERE id = $3`,
			status, time.Now(), approval.ProjectID)
		if err != nil {
			return fmt.Errorf("error updating project status: %w", err)
		}
		if cmdTag.RowsAffected() == 0 {
			return apperrors.ErrProjectNotFound
		}

		if notification != nil {
			notification.ProjectID = &approval.ProjectID
			if err := insertNotification(ctx, tx, notification); err != nil {
				return err
			}
		}

		return nil
	})
}
