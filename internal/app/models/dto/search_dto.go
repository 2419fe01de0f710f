package dto

// TeacherSearchResponse represents a paginated teacher search result
type TeacherSearchResponse struct {
	Teachers   []TeacherResponse `json:"teachers"`
	Pagination PaginationInfo    `json:"pagination"`
}

// StudentSearchResponse represents a paginated student search result
type StudentSearchResponse struct {
	Students   []StudentResponse `json:"students"`
	Pagination PaginationInfo    `json:"pagination"`
}

// SuggestionResponse is a lightweight entry for typeahead suggestions
type SuggestionResponse struct {
	ID    int64  `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind" enums:"STUDENT,TEACHER,PROJECT"`
}
