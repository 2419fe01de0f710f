package services

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/pkg/apperrors"
	"github.com/thapar/projectportal/internal/pkg/filestorage"
	"github.com/thapar/projectportal/internal/pkg/logger"
)

// maxProfilePhotoSize limits avatar uploads to 5 MB
const maxProfilePhotoSize = 5 << 20

var allowedPhotoExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// UserService manages user profiles
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error)
	UpdateProfilePhoto(ctx context.Context, userID int64, file *multipart.FileHeader) (*dto.UserResponse, error)
	DeleteProfilePhoto(ctx context.Context, userID int64) error
}

// UserServiceImpl implements UserService
type UserServiceImpl struct {
	userRepo    repositories.IUserRepository
	fileStorage *filestorage.LocalStorage
}

// NewUserService creates a new UserService
func NewUserService(userRepo repositories.IUserRepository, fileStorage *filestorage.LocalStorage) UserService {
	return &UserServiceImpl{
		userRepo:    userRepo,
		fileStorage: fileStorage,
	}
}

// GetProfile returns the profile of the given user including role-specific fields
func (s *UserServiceImpl) GetProfile(ctx context.Context, userID int64) (*dto.UserResponse, error) {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}
	return buildUserResponse(actor), nil
}

// UpdateProfile updates the user's name and role-specific fields
func (s *UserServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	actor, err := resolveActor(ctx, s.userRepo, userID)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfile(ctx, userID, req.FirstName, req.LastName); err != nil {
		return nil, err
	}

	switch {
	case actor.Student != nil && (req.Branch != nil || req.Year != nil):
		if err := s.userRepo.UpdateStudent(ctx, actor.Student.ID, req.Branch, req.Year); err != nil {
			return nil, err
		}
	case actor.Teacher != nil && (req.Department != nil || req.Designation != nil):
		if err := s.userRepo.UpdateTeacher(ctx, actor.Teacher.ID, req.Department, req.Designation); err != nil {
			return nil, err
		}
	}

	return s.GetProfile(ctx, userID)
}

// UpdateProfilePhoto stores a new avatar and replaces the previous one
func (s *UserServiceImpl) UpdateProfilePhoto(ctx context.Context, userID int64, file *multipart.FileHeader) (*dto.UserResponse, error) {
	if file == nil {
		return nil, apperrors.NewBadRequestError("no file provided")
	}
	if file.Size > maxProfilePhotoSize {
		return nil, apperrors.NewBadRequestError("profile photo must be at most 5 MB")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedPhotoExtensions[ext] {
		return nil, apperrors.NewBadRequestError("profile photo must be a jpg, png or webp image")
	}

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	photoURL, err := s.fileStorage.SaveFileWithPath(file, fmt.Sprintf("avatars/%d", userID))
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateProfilePhotoURL(ctx, userID, &photoURL); err != nil {
		return nil, err
	}

	if user.ProfilePhotoURL != nil {
		if err := s.fileStorage.DeleteFile(*user.ProfilePhotoURL); err != nil {
			logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to delete previous profile photo")
		}
	}

	return s.GetProfile(ctx, userID)
}

// DeleteProfilePhoto removes the user's avatar
func (s *UserServiceImpl) DeleteProfilePhoto(ctx context.Context, userID int64) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfilePhotoURL == nil {
		return nil
	}

	if err := s.userRepo.UpdateProfilePhotoURL(ctx, userID, nil); err != nil {
		return err
	}
	if err := s.fileStorage.DeleteFile(*user.ProfilePhotoURL); err != nil {
		logger.Warn().Err(err).Int64("userID", userID).Msg("Failed to delete profile photo file")
	}
	return nil
}

// buildUserResponse maps a resolved actor onto the profile response
func buildUserResponse(actor *Actor) *dto.UserResponse {
	resp := &dto.UserResponse{
		ID:              actor.User.ID,
		Email:           actor.User.Email,
		FirstName:       actor.User.FirstName,
		LastName:        actor.User.LastName,
		RoleType:        string(actor.User.RoleType),
		ProfilePhotoURL: actor.User.ProfilePhotoURL,
	}
	if actor.Student != nil {
		resp.StudentID = &actor.Student.ID
		resp.RollNumber = &actor.Student.RollNumber
		resp.Branch = actor.Student.Branch
		resp.Year = actor.Student.Year
	}
	if actor.Teacher != nil {
		resp.TeacherID = &actor.Teacher.ID
		resp.Department = actor.Teacher.Department
		resp.Designation = actor.Teacher.Designation
	}
	return resp
}
