package repositories

import "context"

// Repository aggregates every repository the service uses
type Repository interface {
	// Question bank (read side)
	Test() TestRepository
	Question() QuestionRepository
	Rubric() RubricRepository

	// Session domain
	Session() SessionRepository
	Answer() AnswerRepository
	Result() ResultRepository

	// User domain (read-only, owned by the identity provider)
	User() UserRepository

	// Transaction support
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}

// RepositoryManager interface for managing repository lifecycle
type RepositoryManager interface {
	// Initialize repositories with database connections
	Initialize() error

	// Get repository instance
	GetRepository() Repository

	// Health check for all repositories
	HealthCheck(ctx context.Context) error

	// Graceful shutdown
	Shutdown(ctx context.Context) error
}
