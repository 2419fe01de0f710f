package services

import (
	"context"
	"errors"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
)

// Actor bundles the authenticated user with its role-specific profile.
// Exactly one of Student and Teacher is non-nil.
type Actor struct {
	User    *models.User
	Student *models.Student
	Teacher *models.Teacher
}

// IsTeacher reports whether the actor has a teacher profile
func (a *Actor) IsTeacher() bool {
	return a.Teacher != nil
}

// IsMentorOf reports whether the actor supervises the project
func (a *Actor) IsMentorOf(project *models.Project) bool {
	return a.Teacher != nil && a.Teacher.ID == project.MentorID
}

// StudentID returns the actor's student ID, or 0 for teachers
func (a *Actor) StudentID() int64 {
	if a.Student == nil {
		return 0
	}
	return a.Student.ID
}

// resolveActor loads the user and its student or teacher profile
func resolveActor(ctx context.Context, userRepo repositories.IUserRepository, userID int64) (*Actor, error) {
	user, err := userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	actor := &Actor{User: user}
	switch user.RoleType {
	case models.RoleStudent:
		student, err := userRepo.GetStudentByUserID(ctx, userID)
		if err != nil {
			// A student user without a profile row is a data integrity problem
			if errors.Is(err, apperrors.ErrStudentNotFound) {
				return nil, apperrors.NewResourceNotFoundError("student profile not found")
			}
			return nil, err
		}
		actor.Student = student
	case models.RoleTeacher:
		teacher, err := userRepo.GetTeacherByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, apperrors.ErrTeacherNotFound) {
				return nil, apperrors.NewResourceNotFoundError("teacher profile not found")
			}
			return nil, err
		}
		actor.Teacher = teacher
	default:
		return nil, apperrors.NewBadRequestError("unknown role type")
	}

	return actor, nil
}
