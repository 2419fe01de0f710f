// Package seed creates default accounts for a fresh installation.
package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	appModels "github.com/thapar/projectportal/internal/app/models"
	appRepos "github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/db"
	"github.com/thapar/projectportal/internal/pkg/auth"
)

// CreateDefaultData creates a default teacher and student account if they
// don't exist yet. Intended for development setups.
func CreateDefaultData(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	userRepo := appRepos.NewUserRepository(database)

	lgr.Info().Msg("Checking/Creating default accounts...")
	var finalErr error

	defaultPassword, err := auth.HashPassword("ChangeMe123")
	if err != nil {
		return err
	}

	teacherEmail := "mentor@projectportal.app"
	exists, err := userRepo.EmailExists(ctx, teacherEmail)
	if err != nil {
		finalErr = errors.Join(finalErr, err)
	} else if !exists {
		department := "Computer Science and Engineering"
		designation := "Assistant Professor"
		teacherUser := &appModels.User{
			Email:     teacherEmail,
			Password:  defaultPassword,
			FirstName: "Default",
			LastName:  "Mentor",
			RoleType:  appModels.RoleTeacher,
			IsActive:  true,
		}
		teacher := &appModels.Teacher{Department: &department, Designation: &designation}
		if err := userRepo.Register(ctx, teacherUser, nil, teacher); err != nil {
			lgr.Error().Err(err).Msg("Error creating default teacher account")
			finalErr = errors.Join(finalErr, err)
		} else {
			lgr.Info().Str("email", teacherEmail).Msg("Default teacher account created")
		}
	}

	studentEmail := "student@projectportal.app"
	exists, err = userRepo.EmailExists(ctx, studentEmail)
	if err != nil {
		finalErr = errors.Join(finalErr, err)
	} else if !exists {
		branch := "COE"
		year := 3
		studentUser := &appModels.User{
			Email:     studentEmail,
			Password:  defaultPassword,
			FirstName: "Default",
			LastName:  "Student",
			RoleType:  appModels.RoleStudent,
			IsActive:  true,
		}
		student := &appModels.Student{RollNumber: "102103001", Branch: &branch, Year: &year}
		if err := userRepo.Register(ctx, studentUser, student, nil); err != nil {
			lgr.Error().Err(err).Msg("Error creating default student account")
			finalErr = errors.Join(finalErr, err)
		} else {
			lgr.Info().Str("email", studentEmail).Msg("Default student account created")
		}
	}

	if finalErr != nil {
		return finalErr
	}
	lgr.Info().Msg("Default data check complete.")
	return nil
}
