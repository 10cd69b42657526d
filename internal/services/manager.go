package services

import (
	"log/slog"
	"time"

	"github.com/prepwise/scoring-service/internal/cache"
	"github.com/prepwise/scoring-service/internal/events"
	"github.com/prepwise/scoring-service/internal/repositories"
	"github.com/prepwise/scoring-service/internal/utils"
)

type serviceManager struct {
	attempt  AttemptService
	trend    TrendService
	streak   StreakService
	reward   RewardService
	progress ProgressService
	export   ExportService
}

// NewServiceManager wires every service over one repository and one set of
// collaborators.
func NewServiceManager(
	repo repositories.Repository,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
	logger *slog.Logger,
	validator *utils.Validator,
	streakLocation *time.Location,
) ServiceManager {
	trend := NewTrendService(logger)
	streak := NewStreakService(repo, logger, streakLocation)
	reward := NewRewardService(repo, publisher, logger, validator, streakLocation)
	attempt := NewAttemptService(repo, trend, streak, reward, publisher, cacheService, logger, validator)

	return &serviceManager{
		attempt:  attempt,
		trend:    trend,
		streak:   streak,
		reward:   reward,
		progress: NewProgressService(repo, logger),
		export:   NewExportService(repo, logger),
	}
}

func (m *serviceManager) Attempt() AttemptService   { return m.attempt }
func (m *serviceManager) Trend() TrendService       { return m.trend }
func (m *serviceManager) Streak() StreakService     { return m.streak }
func (m *serviceManager) Reward() RewardService     { return m.reward }
func (m *serviceManager) Progress() ProgressService { return m.progress }
func (m *serviceManager) Export() ExportService     { return m.export }
