package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/db"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
	"github.com/thapar/projectportal/internal/pkg/dberrors"
)

// ITeamRepository defines the interface for team membership operations
type ITeamRepository interface {
	GetTeamByID(ctx context.Context, id int64) (*models.Team, error)

	// GetMember returns the membership row for a (team, student) pair,
	// including rows where the student has left.
	GetMember(ctx context.Context, teamID, studentID int64) (*models.TeamMember, error)

	// AddMember inserts a fresh membership row. Returns ErrAlreadyTeamMember
	// when a row for the pair already exists.
	AddMember(ctx context.Context, teamID, studentID int64, role models.TeamRole) (*models.TeamMember, error)

	// ReactivateMember clears left_at, refreshes joined_at and sets the new
	// role on an existing row
	ReactivateMember(ctx context.Context, memberID int64, role models.TeamRole) error

	// RemoveMember soft-deletes a membership by setting left_at
	RemoveMember(ctx context.Context, memberID int64) error

	// IsActiveMember reports whether the student currently belongs to the team
	IsActiveMember(ctx context.Context, teamID, studentID int64) (bool, error)

	// GetActiveLead returns the active LEAD member of the team
	GetActiveLead(ctx context.Context, teamID int64) (*models.TeamMember, error)
}

// TeamRepository handles team membership database operations
type TeamRepository struct {
	db *db.PostgresDB
}

// NewTeamRepository creates a new TeamRepository
func NewTeamRepository(database *db.PostgresDB) *TeamRepository {
	return &TeamRepository{db: database}
}

// GetTeamByID retrieves a team by ID
func (r *TeamRepository) GetTeamByID(ctx context.Context, id int64) (*models.Team, error) {
	team := &models.Team{}
	err := r.db.Pool.QueryRow(ctx,
		`SELECT id, name, description, created_at FROM teams WHERE id = $1`, id).
		Scan(&team.ID, &team.Name, &team.Description, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, fmt.Errorf("error retrieving team: %w", err)
	}
	return team, nil
}

const memberColumns = `id, team_id, student_id, role, joined_at, left_at`

func scanMember(row pgx.Row) (*models.TeamMember, error) {
	member := &models.TeamMember{}
	err := row.Scan(&member.ID, &member.TeamID, &member.StudentID, &member.Role, &member.JoinedAt, &member.LeftAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeamMemberNotFound
		}
		return nil, fmt.Errorf("error scanning team member: %w", err)
	}
	return member, nil
}

// GetMember returns the membership row for a (team, student) pair, left or not
func (r *TeamRepository) GetMember(ctx context.Context, teamID, studentID int64) (*models.TeamMember, error) {
	return scanMember(r.db.Pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM team_members WHERE team_id = $1 AND student_id = $2`,
		teamID, studentID))
}

// AddMember inserts a fresh membership row
func (r *TeamRepository) AddMember(ctx context.Context, teamID, studentID int64, role models.TeamRole) (*models.TeamMember, error) {
	member := &models.TeamMember{TeamID: teamID, StudentID: studentID, Role: role}
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO team_members (team_id, student_id, role)
		VALUES ($1, $2, $3)
		RETURNING id, joined_at`,
		teamID, studentID, role).Scan(&member.ID, &member.JoinedAt)
	if err != nil {
		if dberrors.IsDuplicateConstraintError(err, "team_members_student_id_team_id_key") {
			return nil, apperrors.ErrAlreadyTeamMember
		}
		if dberrors.IsForeignKeyViolation(err) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error adding team member: %w", err)
	}
	return member, nil
}

// ReactivateMember clears left_at, refreshes joined_at and sets the new role
func (r *TeamRepository) ReactivateMember(ctx context.Context, memberID int64, role models.TeamRole) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE team_members SET left_at = NULL, joined_at = $1, role = $2 WHERE id = $3`,
		time.Now(), role, memberID)
	if err != nil {
		return fmt.Errorf("error reactivating team member: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTeamMemberNotFound
	}
	return nil
}

// RemoveMember soft-deletes a membership by setting left_at
func (r *TeamRepository) RemoveMember(ctx context.Context, memberID int64) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE team_members SET left_at = $1 WHERE id = $2 AND left_at IS NULL`,
		time.Now(), memberID)
	if err != nil {
		return fmt.Errorf("error removing team member: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTeamMemberNotFound
	}
	return nil
}

// IsActiveMember reports whether the student currently belongs to the team
func (r *TeamRepository) IsActiveMember(ctx context.Context, teamID, studentID int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_members
			WHERE team_id = $1 AND student_id = $2 AND left_at IS NULL)`,
		teamID, studentID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking team membership: %w", err)
	}
	return exists, nil
}

// GetActiveLead returns the active LEAD member of the team
func (r *TeamRepository) GetActiveLead(ctx context.Context, teamID int64) (*models.TeamMember, error) {
	return scanMember(r.db.Pool.QueryRow(ctx,
		`SELECT `+memberColumns+` FROM team_members
		WHERE team_id = $1 AND role = $2 AND left_at IS NULL`,
		teamID, models.TeamRoleLead))
}
