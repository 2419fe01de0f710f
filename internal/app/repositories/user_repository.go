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
	"github.com/thapar/projectportal/internal/pkg/dberrors"
	"github.com/thapar/projectportal/internal/pkg/logger"
)

// IUserRepository defines the interface for user-related database operations
type IUserRepository interface {
	// Registration creates the user row and its role-specific profile atomically
	Register(ctx context.Context, user *models.User, student *models.Student, teacher *models.Teacher) error

	// Basic lookups
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)

	// Profile
	UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) error
	UpdateProfilePhotoURL(ctx context.Context, userID int64, photoURL *string) error
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
	UpdateLastLogin(ctx context.Context, userID int64) error

	// Role-specific profiles
	GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error)
	GetStudentByID(ctx context.Context, id int64) (*models.Student, error)
	GetTeacherByUserID(ctx context.Context, userID int64) (*models.Teacher, error)
	GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error)
	UpdateStudent(ctx context.Context, studentID int64, branch *string, year *int) error
	UpdateTeacher(ctx context.Context, teacherID int64, department, designation *string) error

	// Search
	SearchTeachers(ctx context.Context, query string, offset uint64, limit int) ([]*models.Teacher, int64, error)
	SearchStudents(ctx context.Context, query string, offset uint64, limit int) ([]*models.Student, int64, error)
}

// UserRepository handles user, student and teacher database operations
type UserRepository struct {
	db *db.PostgresDB
	sb squirrel.StatementBuilderType
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(database *db.PostgresDB) *UserRepository {
	return &UserRepository{
		db: database,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Register creates a user and its student or teacher profile in one transaction
func (r *UserRepository) Register(ctx context.Context, user *models.User, student *models.Student, teacher *models.Teacher) error {
	exists, err := r.EmailExists(ctx, user.Email)
	if err != nil {
		return fmt.Errorf("error checking email: %w", err)
	}
	if exists {
		return apperrors.ErrEmailAlreadyExists
	}

	return r.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			INSERT INTO users (email, password, first_name, last_name, role_type, is_active)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			user.Email, user.Password, user.FirstName, user.LastName, user.RoleType, user.IsActive).
			Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			if dberrors.IsDuplicateConstraintError(err, "users_email_key") {
				return apperrors.ErrEmailAlreadyExists
			}
			return fmt.Errorf("error creating user: %w", err)
		}

		switch user.RoleType {
		case models.RoleStudent:
			student.UserID = user.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO students (user_id, roll_number, branch, year)
				VALUES ($1, $2, $3, $4)
				RETURNING id`,
				student.UserID, student.RollNumber, student.Branch, student.Year).
				Scan(&student.ID)
			if err != nil {
				if dberrors.IsDuplicateConstraintError(err, "students_roll_number_key") {
					return apperrors.NewConflictError("roll number already registered")
				}
				return fmt.Errorf("error creating student profile: %w", err)
			}
		case models.RoleTeacher:
			teacher.UserID = user.ID
			err = tx.QueryRow(ctx, `
				INSERT INTO teachers (user_id, department, designation)
				VALUES ($1, $2, $3)
				RETURNING id`,
				teacher.UserID, teacher.Department, teacher.Designation).
				Scan(&teacher.ID)
			if err != nil {
				return fmt.Errorf("error creating teacher profile: %w", err)
			}
		default:
			return apperrors.NewBadRequestError("unknown role type")
		}

		return nil
	})
}

const userColumns = `id, email, password, first_name, last_name, created_at, updated_at, role_type, is_active, last_login_at, profile_photo_url`

func scanUser(row pgx.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.Email, &user.Password, &user.FirstName, &user.LastName,
		&user.CreatedAt, &user.UpdatedAt, &user.RoleType, &user.IsActive,
		&user.LastLoginAt, &user.ProfilePhotoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("error scanning user: %w", err)
	}
	return user, nil
}

// GetUserByID retrieves a user by ID
func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail retrieves a user by email
func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(r.db.Pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// EmailExists checks if an email already exists
func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking email: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates a user's basic profile information
func (r *UserRepository) UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET first_name = $1, last_name = $2, updated_at = $3
		WHERE id = $4`,
		firstName, lastName, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("error updating profile: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateProfilePhotoURL updates the profile photo URL for a given user
func (r *UserRepository) UpdateProfilePhotoURL(ctx context.Context, userID int64, photoURL *string) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET profile_photo_url = $1, updated_at = $2
		WHERE id = $3`,
		photoURL, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("error updating profile photo: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdatePassword replaces the stored password hash
func (r *UserRepository) UpdatePassword(ctx context.Context, userID int64, passwordHash string) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE users SET password = $1, updated_at = $2
		WHERE id = $3`,
		passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("error updating password: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateLastLogin updates the last login time
func (r *UserRepository) UpdateLastLogin(ctx context.Context, userID int64) error {
	_, err := r.db.Pool.Exec(ctx,
		`UPDATE users SET last_login_at = $1 WHERE id = $2`, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("error updating last login: %w", err)
	}
	return nil
}

const studentJoinColumns = `s.id, s.user_id, s.roll_number, s.branch, s.year,
	u.id, u.email, u.first_name, u.last_name, u.role_type, u.profile_photo_url`

func scanStudentWithUser(row pgx.Row) (*models.Student, error) {
	student := &models.Student{User: &models.User{}}
	err := row.Scan(
		&student.ID, &student.UserID, &student.RollNumber, &student.Branch, &student.Year,
		&student.User.ID, &student.User.Email, &student.User.FirstName, &student.User.LastName,
		&student.User.RoleType, &student.User.ProfilePhotoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrStudentNotFound
		}
		return nil, fmt.Errorf("error scanning student: %w", err)
	}
	return student, nil
}

// GetStudentByUserID retrieves a student profile by user ID
func (r *UserRepository) GetStudentByUserID(ctx context.Context, userID int64) (*models.Student, error) {
	return scanStudentWithUser(r.db.Pool.QueryRow(ctx, `
		SELECT `+studentJoinColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.user_id = $1`, userID))
}

// GetStudentByID retrieves a student profile by its own ID
func (r *UserRepository) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	return scanStudentWithUser(r.db.Pool.QueryRow(ctx, `
		SELECT `+studentJoinColumns+`
		FROM students s JOIN users u ON u.id = s.user_id
		WHERE s.id = $1`, id))
}

const teacherJoinColumns = `t.id, t.user_id, t.department, t.designation,
	u.id, u.email, u.first_name, u.last_name, u.role_type, u.profile_photo_url`

func scanTeacherWithUser(row pgx.Row) (*models.Teacher, error) {
	teacher := &models.Teacher{User: &models.User{}}
	err := row.Scan(
		&teacher.ID, &teacher.UserID, &teacher.Department, &teacher.Designation,
		&teacher.User.ID, &teacher.User.Email, &teacher.User.FirstName, &teacher.User.LastName,
		&teacher.User.RoleType, &teacher.User.ProfilePhotoURL)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTeacherNotFound
		}
		return nil, fmt.Errorf("error scanning teacher: %w", err)
	}
	return teacher, nil
}

// GetTeacherByUserID retrieves a teacher profile by user ID
func (r *UserRepository) GetTeacherByUserID(ctx context.Context, userID int64) (*models.Teacher, error) {
	return scanTeacherWithUser(r.db.Pool.QueryRow(ctx, `
		SELECT `+teacherJoinColumns+`
		FROM teachers t JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1`, userID))
}

// GetTeacherByID retrieves a teacher profile by its own ID
func (r *UserRepository) GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error) {
	return scanTeacherWithUser(r.db.Pool.QueryRow(ctx, `
		SELECT `+teacherJoinColumns+`
		FROM teachers t JOIN users u ON u.id = t.user_id
		WHERE t.id = $1`, id))
}

// UpdateStudent updates student-specific profile fields
func (r *UserRepository) UpdateStudent(ctx context.Context, studentID int64, branch *string, year *int) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE students SET branch = COALESCE($1, branch), year = COALESCE($2, year)
		WHERE id = $3`,
		branch, year, studentID)
	if err != nil {
		return fmt.Errorf("error updating student: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrStudentNotFound
	}
	return nil
}

// UpdateTeacher updates teacher-specific profile fields
func (r *UserRepository) UpdateTeacher(ctx context.Context, teacherID int64, department, designation *string) error {
	cmdTag, err := r.db.Pool.Exec(ctx, `
		UPDATE teachers SET department = COALESCE($1, department), designation = COALESCE($2, designation)
		WHERE id = $3`,
		department, designation, teacherID)
	if err != nil {
		return fmt.Errorf("error updating teacher: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return apperrors.ErrTeacherNotFound
	}
	return nil
}

// SearchTeachers finds teachers by name, email or department
func (r *UserRepository) SearchTeachers(ctx context.Context, query string, offset uint64, limit int) ([]*models.Teacher, int64, error) {
	pattern := "%" + query + "%"
	where := squirrel.Or{
		squirrel.ILike{"u.first_name": pattern},
		squirrel.ILike{"u.last_name": pattern},
		squirrel.ILike{"u.email": pattern},
		squirrel.ILike{"t.department": pattern},
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("teachers t").
		Join("users u ON u.id = t.user_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build teacher count query: %w", err)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting teachers: %w", err)
	}

	sql, args, err := r.sb.Select(teacherJoinColumns).
		From("teachers t").
		Join("users u ON u.id = t.user_id").
		Where(where).
		OrderBy("u.first_name", "u.last_name").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build teacher search query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*models.Teacher
	for rows.Next() {
		teacher, err := scanTeacherWithUser(rows)
		if err != nil {
			return nil, 0, err
		}
		teachers = append(teachers, teacher)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating teachers: %w", err)
	}

	return teachers, total, nil
}

// SearchStudents finds students by name, email or roll number
func (r *UserRepository) SearchStudents(ctx context.Context, query string, offset uint64, limit int) ([]*models.Student, int64, error) {
	pattern := "%" + query + "%"
	where := squirrel.Or{
		squirrel.ILike{"u.first_name": pattern},
		squirrel.ILike{"u.last_name": pattern},
		squirrel.ILike{"u.email": pattern},
		squirrel.ILike{"s.roll_number": pattern},
	}

	countSQL, countArgs, err := r.sb.Select("COUNT(*)").
		From("students s").
		Join("users u ON u.id = s.user_id").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build student count query: %w", err)
	}

	var total int64
	if err := r.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting students: %w", err)
	}

	sql, args, err := r.sb.Select(studentJoinColumns).
		From("students s").
		Join("users u ON u.id = s.user_id").
		Where(where).
		OrderBy("u.first_name", "u.last_name").
		Offset(offset).
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build student search query: %w", err)
	}

	rows, err := r.db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("error searching students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		student, err := scanStudentWithUser(rows)
		if err != nil {
			return nil, 0, err
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating students: %w", err)
	}

	logger.Debug().Str("query", query).Int("found", len(students)).Msg("Student search executed")
	return students, total, nil
}
