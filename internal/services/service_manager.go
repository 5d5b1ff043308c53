package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/psytest-service/internal/events"
	"github.com/SAP-F-2025/psytest-service/internal/repositories"
	"github.com/SAP-F-2025/psytest-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	// Narrative generation runs after a result is stored and is cut off after this
	NarrativeTimeout time.Duration
	// Rows fetched per page when exporting results
	ExportBatchSize int

	DefaultPageSize int
	MaxPageSize     int
}

// ServiceDependencies are the collaborators the services consume
type ServiceDependencies struct {
	Screener     CrisisScreener
	Publisher    events.EventPublisher
	Entitlements EntitlementChecker
	Narrator     NarrativeGenerator
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	deps      ServiceDependencies
	config    ServiceManagerConfig

	// Service instances
	sessionService   SessionService
	scoringService   ScoringService
	screeningService ScreeningService
	rubricService    RubricService
	testService      TestService
	crisisNotifier   CrisisNotifier

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps ServiceDependencies, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:      repo,
		logger:    logger,
		validator: validator,
		deps:      deps,
		config:    config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator, deps ServiceDependencies) ServiceManager {
	return NewServiceManager(repo, logger, validator, deps, DefaultServiceManagerConfig())
}

func DefaultServiceManagerConfig() ServiceManagerConfig {
	return ServiceManagerConfig{
		NarrativeTimeout: 10 * time.Second,
		ExportBatchSize:  500,
		DefaultPageSize:  20,
		MaxPageSize:      100,
	}
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if err := sm.config.Validate(); err != nil {
		return err
	}
	if sm.deps.Screener == nil {
		return fmt.Errorf("failed to initialize services: crisis screener is required")
	}

	sm.initializeServices()

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

func (sm *serviceManager) initializeServices() {
	publisher := sm.deps.Publisher
	if publisher == nil {
		publisher = events.NoopEventPublisher{}
	}
	limits := pageLimits{defaultSize: sm.config.DefaultPageSize, maxSize: sm.config.MaxPageSize}

	sm.crisisNotifier = NewCrisisNotifier(publisher, sm.logger)
	sm.screeningService = NewScreeningService(sm.deps.Screener, sm.logger, sm.validator)
	sm.scoringService = newScoringService(sm.repo, sm.logger, sm.validator, sm.deps.Narrator, publisher, sm.config)

	session := NewSessionService(sm.repo, sm.logger, sm.validator, sm.scoringService, sm.screeningService, sm.deps.Entitlements, sm.crisisNotifier, publisher).(*sessionService)
	session.pageSize = limits
	sm.sessionService = session

	catalog := NewTestService(sm.repo, sm.logger, sm.validator).(*testService)
	catalog.pageSize = limits
	sm.testService = catalog

	sm.rubricService = NewRubricService(sm.repo, sm.logger, sm.validator)

	if sm.deps.Entitlements == nil {
		sm.logger.Warn("No entitlement checker configured, premium tests are closed to non-admins")
	}
}

// Service getters
func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.sessionService
}

func (sm *serviceManager) Scoring() ScoringService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.scoringService
}

func (sm *serviceManager) Screening() ScreeningService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.screeningService
}

func (sm *serviceManager) Rubric() RubricService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.rubricService
}

func (sm *serviceManager) Catalog() TestService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.mustBeInitialized()
	return sm.testService
}

func (sm *serviceManager) mustBeInitialized() {
	if !sm.initialized {
		panic("service manager not initialized")
	}
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if session, ok := sm.sessionService.(*sessionService); ok {
		if err := session.waitForEnrichment(ctx); err != nil {
			sm.logger.Warn("Narrative enrichment still running at shutdown", "error", err)
		}
	}

	if sm.deps.Publisher != nil {
		if err := sm.deps.Publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	if repoManager, ok := sm.repo.(repositories.RepositoryManager); ok {
		if err := repoManager.Shutdown(ctx); err != nil {
			sm.logger.Error("Failed to shutdown repository manager", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// ===== CONFIGURATION VALIDATION =====

// Validate validates the service manager configuration
func (config *ServiceManagerConfig) Validate() error {
	var errors []string

	if config.NarrativeTimeout <= 0 {
		errors = append(errors, "narrative timeout must be positive")
	}
	if config.ExportBatchSize <= 0 {
		errors = append(errors, "export batch size must be positive")
	}
	if config.DefaultPageSize <= 0 || config.MaxPageSize < config.DefaultPageSize {
		errors = append(errors, "page sizes must satisfy 0 < default <= max")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}
