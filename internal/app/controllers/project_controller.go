package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/thapar/projectportal/internal/app/models"
	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/app/services"
	"github.com/thapar/projectportal/internal/middleware"
	"github.com/thapar/projectportal/internal/pkg/helpers"
)

// ProjectController handles project lifecycle and team membership operations
type ProjectController struct {
	projectService services.ProjectService
	logger         zerolog.Logger
}

// NewProjectController creates a new ProjectController
func NewProjectController(projectService services.ProjectService, logger zerolog.Logger) *ProjectController {
	return &ProjectController{
		projectService: projectService,
		logger:         logger,
	}
}

func mapTeacherToResponse(teacher *models.Teacher) dto.TeacherResponse {
	resp := dto.TeacherResponse{
		ID:          teacher.ID,
		UserID:      teacher.UserID,
		Department:  teacher.Department,
		Designation: teacher.Designation,
	}
	if teacher.User != nil {
		resp.FirstName = teacher.User.FirstName
		resp.LastName = teacher.User.LastName
		resp.Email = teacher.User.Email
	}
	return resp
}

func mapMemberToResponse(member *models.TeamMember) dto.TeamMemberResponse {
	resp := dto.TeamMemberResponse{
		ID:       member.ID,
		Role:     member.Role,
		JoinedAt: member.JoinedAt,
	}
	if member.Student != nil {
		resp.Student = dto.StudentResponse{
			ID:         member.Student.ID,
			UserID:     member.Student.UserID,
			RollNumber: member.Student.RollNumber,
			Branch:     member.Student.Branch,
			Year:       member.Student.Year,
		}
		if member.Student.User != nil {
			resp.Student.FirstName = member.Student.User.FirstName
			resp.Student.LastName = member.Student.User.LastName
			resp.Student.Email = member.Student.User.Email
		}
	}
	return resp
}

func mapProjectToResponse(project *models.Project) dto.ProjectResponse {
	resp := dto.ProjectResponse{
		ID:             project.ID,
		Title:          project.Title,
		Description:    project.Description,
		Type:           project.Type,
		Status:         project.Status,
		GithubLink:     project.GithubLink,
		StartDate:      project.StartDate,
		EndDate:        project.EndDate,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
		ResearchPapers: []dto.ResearchPaperResponse{},
		Media:          []dto.MediaResponse{},
		Approvals:      []dto.ApprovalResponse{},
	}

	if project.Mentor != nil {
		resp.Mentor = mapTeacherToResponse(project.Mentor)
	}

	if project.Team != nil {
		resp.Team = dto.TeamResponse{
			ID:      project.Team.ID,
			Name:    project.Team.Name,
			Members: []dto.TeamMemberResponse{},
		}
		for i := range project.Team.Members {
			resp.Team.Members = append(resp.Team.Members, mapMemberToResponse(&project.Team.Members[i]))
		}
	}

	for _, paper := range project.ResearchPapers {
		resp.ResearchPapers = append(resp.ResearchPapers, dto.ResearchPaperResponse{
			ID:    paper.ID,
			Title: paper.Title,
			Link:  paper.Link,
		})
	}
	for _, item := range project.Media {
		resp.Media = append(resp.Media, dto.MediaResponse{
			ID:      item.ID,
			URL:     item.URL,
			Caption: item.Caption,
		})
	}
	for _, approval := range project.Approvals {
		approvalResp := dto.ApprovalResponse{
			ID:        approval.ID,
			Status:    approval.Status,
			Comment:   approval.Comment,
			CreatedAt: approval.CreatedAt,
		}
		if approval.Approver != nil {
			approvalResp.Approver = mapTeacherToResponse(approval.Approver)
		}
		resp.Approvals = append(resp.Approvals, approvalResp)
	}

	return resp
}

// CreateProject creates a new project with its team
// @Summary Create a project
// @Description Creates a project together with its team. A student creator becomes the team lead and must name a mentor; a teacher creator becomes the mentor and must name a team lead.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateProjectRequest true "Project information"
// @Success 201 {object} dto.APIResponse{data=dto.ProjectResponse} "Project created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or missing mentor/team lead"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Mentor or team lead not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects [post]
func (c *ProjectController) CreateProject(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	project, err := c.projectService.Create(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("projectID", project.ID).Int64("userID", userID).Msg("Project created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(mapProjectToResponse(project), "Project created successfully"))
}

// GetProjectByID retrieves full project details
// @Summary Get a project
// @Description Retrieves a project with its team, papers, media and approval history
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.ProjectResponse} "Project retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid project ID"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Project not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id} [get]
func (c *ProjectController) GetProjectByID(ctx *gin.Context) {
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	project, err := c.projectService.GetByID(ctx.Request.Context(), projectID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(mapProjectToResponse(project)))
}

// ListProjects lists projects with optional filters
// @Summary List projects
// @Description Lists projects with optional status, type and ownership filters
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status (PENDING, APPROVED, ONGOING, COMPLETED, REJECTED)"
// @Param type query string false "Filter by type (CAPSTONE, THAPAR, R_D, INTERNATIONAL, RESEARCH)"
// @Param mine query bool false "Only projects the caller mentors or is a team member of"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ProjectListResponse} "Projects retrieved successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid filter value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects [get]
func (c *ProjectController) ListProjects(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}

	filter := repositories.ProjectFilter{}
	if status := ctx.Query("status"); status != "" {
		filter.Status = models.ProjectStatus(status)
		if !filter.Status.IsValid() {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid status filter")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
	}
	if projectType := ctx.Query("type"); projectType != "" {
		filter.Type = models.ProjectType(projectType)
		if !filter.Type.IsValid() {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid type filter")
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}
	}
	mine := ctx.Query("mine") == "true"

	page, pageSize := helpers.ParsePaginationParams(ctx)
	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	projects, total, err := c.projectService.List(ctx.Request.Context(), userID, filter, mine, offset, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	items := make([]dto.ProjectListItem, 0, len(projects))
	for _, project := range projects {
		item := dto.ProjectListItem{
			ID:        project.ID,
			Title:     project.Title,
			Type:      project.Type,
			Status:    project.Status,
			CreatedAt: project.CreatedAt,
		}
		if project.Team != nil {
			item.TeamName = project.Team.Name
		}
		if project.Mentor != nil {
			item.Mentor = mapTeacherToResponse(project.Mentor)
		}
		items = append(items, item)
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.ProjectListResponse{
		Projects:   items,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}))
}

// UpdateProject edits project content
// @Summary Update a project
// @Description Updates title, description, type, papers and media. Only the mentor or the team lead may update.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Param request body dto.UpdateProjectRequest true "Updated project content"
// @Success 200 {object} dto.APIResponse{data=dto.ProjectResponse} "Project updated successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Caller is neither the mentor nor the team lead"
// @Failure 404 {object} dto.ErrorResponse "Project not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id} [put]
func (c *ProjectController) UpdateProject(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	project, err := c.projectService.Update(ctx.Request.Context(), userID, projectID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(mapProjectToResponse(project), "Project updated successfully"))
}

// ApproveProject approves a pending project
// @Summary Approve a project
// @Description Records an approval by the project's mentor and moves the project to APPROVED
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Param request body dto.ApproveProjectRequest false "Optional comment"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Project approved"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Caller is not the project's mentor"
// @Failure 404 {object} dto.ErrorResponse "Project not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id}/approve [post]
func (c *ProjectController) ApproveProject(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	// The body is optional: an empty body approves without a comment
	var req dto.ApproveProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	if err := c.projectService.Approve(ctx.Request.Context(), userID, projectID, req.Comment); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("projectID", projectID).Int64("userID", userID).Msg("Project approved")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Project approved"}))
}

// RejectProject rejects a pending project
// @Summary Reject a project
// @Description Records a rejection by the project's mentor and moves the project to REJECTED
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Param request body dto.RejectProjectRequest false "Optional rejection reason"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Project rejected"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Caller is not the project's mentor"
// @Failure 404 {object} dto.ErrorResponse "Project not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id}/reject [post]
func (c *ProjectController) RejectProject(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	// The body is optional: an empty body rejects without a comment
	var req dto.RejectProjectRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	if err := c.projectService.Reject(ctx.Request.Context(), userID, projectID, req.Comment); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("projectID", projectID).Int64("userID", userID).Msg("Project rejected")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Project rejected"}))
}

// UpdateProjectStatus moves an approved project through its lifecycle
// @Summary Update project status
// @Description Moves an approved project to ONGOING or COMPLETED. Only the mentor or the team lead may change status.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Param request body dto.UpdateProjectStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Status updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid status transition"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Caller is neither the mentor nor the team lead"
// @Failure 404 {object} dto.ErrorResponse "Project not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id}/status [put]
func (c *ProjectController) UpdateProjectStatus(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.UpdateProjectStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	if err := c.projectService.UpdateStatus(ctx.Request.Context(), userID, projectID, req.Status); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Project status updated"}))
}

// DeleteProject deletes a project
// @Summary Delete a project
// @Description Deletes a project and its papers, media, approvals and notifications. Teachers, the mentor or the team lead may delete.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Project deleted"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Caller may not delete this project"
// @Failure 404 {object} dto.ErrorResponse "Project not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id} [delete]
func (c *ProjectController) DeleteProject(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	if err := c.projectService.Delete(ctx.Request.Context(), userID, projectID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("projectID", projectID).Int64("userID", userID).Msg("Project deleted")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Project deleted"}))
}

// AddTeamMember adds a student to the project's team
// @Summary Add a team member
// @Description Adds a student to the project's team. A student who previously left rejoins with the original membership row. Only the mentor or the team lead may add members.
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Param request body dto.AddTeamMemberRequest true "Student to add with an optional role"
// @Success 201 {object} dto.APIResponse{data=dto.TeamMemberResponse} "Member added"
// @Failure 400 {object} dto.ErrorResponse "Invalid request format or student already an active member"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Caller is neither the mentor nor the team lead"
// @Failure 404 {object} dto.ErrorResponse "Project or student not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id}/team [post]
func (c *ProjectController) AddTeamMember(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req dto.AddTeamMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(dto.HandleValidationError(err)))
		return
	}

	member, err := c.projectService.AddTeamMember(ctx.Request.Context(), userID, projectID, req.StudentID, req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("projectID", projectID).Int64("studentID", req.StudentID).Msg("Team member added")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(mapMemberToResponse(member), "Team member added"))
}

// RemoveTeamMember removes a member from the project's team
// @Summary Remove a team member
// @Description Marks the membership as left. The team lead cannot be removed. Only the mentor or the team lead may remove members.
// @Tags projects
// @Produce json
// @Security BearerAuth
// @Param id path int true "Project ID" Format(int64) minimum(1)
// @Param memberId path int true "Team member ID" Format(int64) minimum(1)
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Member removed"
// @Failure 400 {object} dto.ErrorResponse "Member belongs to another project's team or is the lead"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Caller may not remove members"
// @Failure 404 {object} dto.ErrorResponse "Project not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /projects/{id}/team/{memberId} [delete]
func (c *ProjectController) RemoveTeamMember(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		return
	}
	projectID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	memberID, ok := pathID(ctx, "memberId")
	if !ok {
		return
	}

	if err := c.projectService.RemoveTeamMember(ctx.Request.Context(), userID, projectID, memberID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("projectID", projectID).Int64("memberID", memberID).Msg("Team member removed")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuccessResponse{Message: "Team member removed"}))
}
