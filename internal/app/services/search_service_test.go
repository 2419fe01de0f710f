package services

import (
	"context"
	"testing"

	"github.com/thapar/projectportal/internal/app/models"
)

func TestSearchTeachers(t *testing.T) {
	f := newFixture()
	service := NewSearchService(f.userRepo, f.projectRepo)

	resp, err := service.SearchTeachers(context.Background(), "Verma", 1, 10)
	if err != nil {
		t.Fatalf("SearchTeachers returned error: %v", err)
	}
	if len(resp.Teachers) != 1 {
		t.Fatalf("got %d teachers, want 1", len(resp.Teachers))
	}
	if resp.Teachers[0].LastName != "Verma" {
		t.Errorf("lastName = %q, want Verma", resp.Teachers[0].LastName)
	}
	if resp.Pagination.TotalItems != 1 {
		t.Errorf("totalItems = %d, want 1", resp.Pagination.TotalItems)
	}
}

func TestSearchStudentsByRollNumber(t *testing.T) {
	f := newFixture()
	service := NewSearchService(f.userRepo, f.projectRepo)

	resp, err := service.SearchStudents(context.Background(), "102103002", 1, 10)
	if err != nil {
		t.Fatalf("SearchStudents returned error: %v", err)
	}
	if len(resp.Students) != 1 {
		t.Fatalf("got %d students, want 1", len(resp.Students))
	}
	if resp.Students[0].RollNumber != "102103002" {
		t.Errorf("rollNumber = %q", resp.Students[0].RollNumber)
	}
}

func TestSuggestions(t *testing.T) {
	f := newFixture()
	f.seedProject(models.ProjectStatusApproved)
	service := NewSearchService(f.userRepo, f.projectRepo)

	suggestions, err := service.Suggestions(context.Background(), "smart")
	if err != nil {
		t.Fatalf("Suggestions returned error: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(suggestions), suggestions)
	}
	if suggestions[0].Kind != "PROJECT" || suggestions[0].Label != "Smart Campus" {
		t.Errorf("unexpected suggestion: %+v", suggestions[0])
	}

	// Student labels carry the roll number
	suggestions, err = service.Suggestions(context.Background(), "Ravi")
	if err != nil {
		t.Fatalf("Suggestions returned error: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("got %d suggestions, want 1: %+v", len(suggestions), suggestions)
	}
	if suggestions[0].Kind != "STUDENT" || suggestions[0].Label != "Ravi Kumar (102103001)" {
		t.Errorf("unexpected suggestion: %+v", suggestions[0])
	}
}

func TestSearchShortQueries(t *testing.T) {
	f := newFixture()
	service := NewSearchService(f.userRepo, f.projectRepo)

	suggestions, err := service.Suggestions(context.Background(), "   ")
	if err != nil {
		t.Fatalf("Suggestions returned error: %v", err)
	}
	if len(suggestions) != 0 {
		t.Errorf("blank query returned %d suggestions", len(suggestions))
	}

	resp, err := service.SearchTeachers(context.Background(), "V", 1, 10)
	if err != nil {
		t.Fatalf("SearchTeachers returned error: %v", err)
	}
	if len(resp.Teachers) != 0 || resp.Pagination.TotalItems != 0 {
		t.Errorf("one-character query hit the directory: %+v", resp)
	}
}
