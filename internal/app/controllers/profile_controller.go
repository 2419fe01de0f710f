package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/services"
	"github.com/thapar/projectportal/internal/middleware"
)

// ProfileController handles the authenticated user's own profile
type ProfileController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewProfileController creates a new ProfileController
func NewProfileController(userService services.UserService, logger zerolog.Logger) *ProfileController {
	return &ProfileController{
		userService: userService,
		logger:      logger,
	}
}

// GetMyProfile returns the caller's profile
// @Summary Get own profile
// @Description Returns the authenticated user's profile including role-specific fields
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Profile retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/me [get]
func (c *ProfileController) GetMyProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	profile, err := c.userService.GetProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile))
}

// UpdateMyProfile updates the caller's profile
// @Summary Update own profile
// @Description Updates the authenticated user's name and role-specific fields
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Updated profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Profile updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/me [put]
func (c *ProfileController) UpdateMyProfile(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	profile, err := c.userService.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, "Profile updated successfully"))
}

// UpdateProfilePhoto replaces the caller's avatar
// @Summary Upload profile photo
// @Description Stores a new profile photo for the authenticated user, replacing any previous one
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param profilePhoto formData file true "Image file (jpg, png or webp, max 5 MB)"
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse} "Profile photo updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Missing or invalid file"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/me/profile-photo [put]
func (c *ProfileController) UpdateProfilePhoto(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("profilePhoto")
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Profile photo file is required")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return
	}

	profile, err := c.userService.UpdateProfilePhoto(ctx.Request.Context(), userID, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Msg("Profile photo updated")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, "Profile photo updated successfully"))
}

// DeleteProfilePhoto removes the caller's avatar
// @Summary Delete profile photo
// @Description Removes the authenticated user's profile photo
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Profile photo deleted successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /users/me/profile-photo [delete]
func (c *ProfileController) DeleteProfilePhoto(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	if err := c.userService.DeleteProfilePhoto(ctx.Request.Context(), userID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Profile photo deleted successfully"}))
}
