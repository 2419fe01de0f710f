package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/services"
	"github.com/thapar/projectportal/internal/middleware"
	"github.com/thapar/projectportal/internal/pkg/helpers"
)

// SearchController handles directory search and typeahead suggestions
type SearchController struct {
	searchService services.SearchService
}

// NewSearchController creates a new SearchController
func NewSearchController(searchService services.SearchService) *SearchController {
	return &SearchController{searchService: searchService}
}

// SearchTeachers finds teachers by name, email or department
// @Summary Search teachers
// @Description Finds teachers matching the query by name, email or department
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.TeacherSearchResponse} "Teachers retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /search/teachers [get]
func (c *SearchController) SearchTeachers(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	result, err := c.searchService.SearchTeachers(ctx.Request.Context(), ctx.Query("q"), page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// SearchStudents finds students by name, email or roll number
// @Summary Search students
// @Description Finds students matching the query by name, email or roll number
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Param page query int false "Page number (default 1)"
// @Param pageSize query int false "Page size (default 10, max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.StudentSearchResponse} "Students retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /search/students [get]
func (c *SearchController) SearchStudents(ctx *gin.Context) {
	page, pageSize := helpers.ParsePaginationParams(ctx)

	result, err := c.searchService.SearchStudents(ctx.Request.Context(), ctx.Query("q"), page, pageSize)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result))
}

// Suggestions returns typeahead suggestions across students, teachers and projects
// @Summary Typeahead suggestions
// @Description Returns a small mixed list of students, teachers and projects matching the query
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param q query string true "Search query"
// @Success 200 {object} dto.APIResponse{data=[]dto.SuggestionResponse} "Suggestions retrieved successfully"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /search/suggestions [get]
func (c *SearchController) Suggestions(ctx *gin.Context) {
	suggestions, err := c.searchService.Suggestions(ctx.Request.Context(), ctx.Query("q"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(suggestions))
}
