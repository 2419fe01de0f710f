package services

import (
	"context"
	"strings"

	"github.com/thapar/projectportal/internal/app/models/dto"
	"github.com/thapar/projectportal/internal/app/repositories"
	"github.com/thapar/projectportal/internal/pkg/helpers"
)

const (
	// minQueryLength is the shortest query worth hitting the database for
	minQueryLength = 2

	// suggestionLimit caps each entity kind in typeahead results
	suggestionLimit = 5
)

// SearchService finds teachers, students and projects by name
type SearchService interface {
	SearchTeachers(ctx context.Context, query string, page, pageSize int) (*dto.TeacherSearchResponse, error)
	SearchStudents(ctx context.Context, query string, page, pageSize int) (*dto.StudentSearchResponse, error)
	Suggestions(ctx context.Context, query string) ([]dto.SuggestionResponse, error)
}

// SearchServiceImpl implements SearchService
type SearchServiceImpl struct {
	userRepo    repositories.IUserRepository
	projectRepo repositories.IProjectRepository
}

// NewSearchService creates a new SearchService
func NewSearchService(userRepo repositories.IUserRepository, projectRepo repositories.IProjectRepository) SearchService {
	return &SearchServiceImpl{
		userRepo:    userRepo,
		projectRepo: projectRepo,
	}
}

// SearchTeachers finds teachers by name, email or department
func (s *SearchServiceImpl) SearchTeachers(ctx context.Context, query string, page, pageSize int) (*dto.TeacherSearchResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return &dto.TeacherSearchResponse{
			Teachers:   []dto.TeacherResponse{},
			Pagination: helpers.NewPaginationInfo(0, page, pageSize),
		}, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	teachers, total, err := s.userRepo.SearchTeachers(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.TeacherResponse, 0, len(teachers))
	for _, t := range teachers {
		items = append(items, dto.TeacherResponse{
			ID:          t.ID,
			UserID:      t.UserID,
			FirstName:   t.User.FirstName,
			LastName:    t.User.LastName,
			Email:       t.User.Email,
			Department:  t.Department,
			Designation: t.Designation,
		})
	}

	return &dto.TeacherSearchResponse{
		Teachers:   items,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// SearchStudents finds students by name, email or roll number
func (s *SearchServiceImpl) SearchStudents(ctx context.Context, query string, page, pageSize int) (*dto.StudentSearchResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return &dto.StudentSearchResponse{
			Students:   []dto.StudentResponse{},
			Pagination: helpers.NewPaginationInfo(0, page, pageSize),
		}, nil
	}

	offset, limit := helpers.CalculateOffsetLimit(page, pageSize)

	students, total, err := s.userRepo.SearchStudents(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}

	items := make([]dto.StudentResponse, 0, len(students))
	for _, st := range students {
		items = append(items, dto.StudentResponse{
			ID:         st.ID,
			UserID:     st.UserID,
			FirstName:  st.User.FirstName,
			LastName:   st.User.LastName,
			Email:      st.User.Email,
			RollNumber: st.RollNumber,
			Branch:     st.Branch,
			Year:       st.Year,
		})
	}

	return &dto.StudentSearchResponse{
		Students:   items,
		Pagination: helpers.NewPaginationInfo(total, page, pageSize),
	}, nil
}

// Suggestions returns a mixed typeahead list across students, teachers and projects
func (s *SearchServiceImpl) Suggestions(ctx context.Context, query string) ([]dto.SuggestionResponse, error) {
	query = strings.TrimSpace(query)
	if len(query) < minQueryLength {
		return []dto.SuggestionResponse{}, nil
	}

	suggestions := make([]dto.SuggestionResponse, 0, 3*suggestionLimit)

	students, _, err := s.userRepo.SearchStudents(ctx, query, 0, suggestionLimit)
	if err != nil {
		return nil, err
	}
	for _, st := range students {
		suggestions = append(suggestions, dto.SuggestionResponse{
			ID:    st.ID,
			Label: st.User.FirstName + " " + st.User.LastName + " (" + st.RollNumber + ")",
			Kind:  "STUDENT",
		})
	}

	teachers, _, err := s.userRepo.SearchTeachers(ctx, query, 0, suggestionLimit)
	if err != nil {
		return nil, err
	}
	for _, t := range teachers {
		suggestions = append(suggestions, dto.SuggestionResponse{
			ID:    t.ID,
			Label: t.User.FirstName + " " + t.User.LastName,
			Kind:  "TEACHER",
		})
	}

	projects, err := s.projectRepo.SearchTitles(ctx, query, suggestionLimit)
	if err != nil {
		return nil, err
	}
	for _, p := range projects {
		suggestions = append(suggestions, dto.SuggestionResponse{
			ID:    p.ID,
			Label: p.Title,
			Kind:  "PROJECT",
		})
	}

	return suggestions, nil
}
