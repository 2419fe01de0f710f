package services

import (
	"context"
	"errors"
	"testing"

	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
)

func TestGetProfile(t *testing.T) {
	f := newFixture()
	service := NewUserService(f.userRepo, nil)

	profile, err := service.GetProfile(context.Background(), leadUserID)
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if profile.RoleType != "STUDENT" {
		t.Errorf("roleType = %q, want STUDENT", profile.RoleType)
	}
	if profile.RollNumber == nil || *profile.RollNumber != "102103001" {
		t.Errorf("rollNumber missing from student profile: %+v", profile)
	}
	if profile.Department != nil {
		t.Errorf("student profile carries teacher fields: %+v", profile)
	}

	profile, err = service.GetProfile(context.Background(), mentorUserID)
	if err != nil {
		t.Fatalf("GetProfile returned error: %v", err)
	}
	if profile.RoleType != "TEACHER" {
		t.Errorf("roleType = %q, want TEACHER", profile.RoleType)
	}
	if profile.TeacherID == nil || *profile.TeacherID != mentorID {
		t.Errorf("teacherID missing from teacher profile: %+v", profile)
	}

	if _, err := service.GetProfile(context.Background(), 9999); !errors.Is(err, apperrors.ErrUserNotFound) {
		t.Errorf("unknown user: err = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	f := newFixture()
	service := NewUserService(f.userRepo, nil)

	branch := "ENC"
	year := 4
	profile, err := service.UpdateProfile(context.Background(), leadUserID, &dto.UpdateProfileRequest{
		FirstName: "Raveena",
		LastName:  "Kumari",
		Branch:    &branch,
		Year:      &year,
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if profile.FirstName != "Raveena" || profile.LastName != "Kumari" {
		t.Errorf("name not updated: %+v", profile)
	}
	if profile.Branch == nil || *profile.Branch != "ENC" {
		t.Errorf("branch not updated: %+v", profile)
	}
	if profile.Year == nil || *profile.Year != 4 {
		t.Errorf("year not updated: %+v", profile)
	}
}

func TestUpdateProfileTeacherFields(t *testing.T) {
	f := newFixture()
	service := NewUserService(f.userRepo, nil)

	designation := "Professor"
	profile, err := service.UpdateProfile(context.Background(), mentorUserID, &dto.UpdateProfileRequest{
		FirstName:   "Asha",
		LastName:    "Verma",
		Designation: &designation,
	})
	if err != nil {
		t.Fatalf("UpdateProfile returned error: %v", err)
	}
	if profile.Designation == nil || *profile.Designation != "Professor" {
		t.Errorf("designation not updated: %+v", profile)
	}
}
