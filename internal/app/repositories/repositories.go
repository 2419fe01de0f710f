package repositories

import (
	"github.com/thapar/projectportal/internal/db"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository               *UserRepository
	ProjectRepository            *ProjectRepository
	TeamRepository               *TeamRepository
	NotificationRepository       *NotificationRepository
	TokenRepository              *TokenRepository
	PasswordResetTokenRepository *PasswordResetTokenRepository
}

// NewRepositories initializes all repositories
func NewRepositories(database *db.PostgresDB) *Repositories {
	return &Repositories{
		UserRepository:               NewUserRepository(database),
		ProjectRepository:            NewProjectRepository(database),
		TeamRepository:               NewTeamRepository(database),
		NotificationRepository:       NewNotificationRepository(database),
		TokenRepository:              NewTokenRepository(database),
		PasswordResetTokenRepository: NewPasswordResetTokenRepository(database),
	}
}
