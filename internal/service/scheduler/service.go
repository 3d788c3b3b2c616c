// Package scheduler runs periodic gamification maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dileepadari/wellnesshub/internal/config"
	prommetrics "github.com/dileepadari/wellnesshub/internal/metrics"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

const (
	jobAchievementEvaluation = "achievement_evaluation"
	jobChallengeExpiry       = "challenge_expiry"
)

// AchievementEvaluator runs a catalog sweep over all users.
type AchievementEvaluator interface {
	EvaluateAllUsers(ctx context.Context, statsFor func(ctx context.Context, userID uint) (map[string]float64, error)) (int, error)
}

// ChallengeExpirer flips challenges past their end date to ended.
type ChallengeExpirer interface {
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
}

// StatsProvider supplies the per-user stats snapshot for evaluation.
type StatsProvider interface {
	GetUserStats(ctx context.Context, userID uint) (map[string]float64, error)
}

// Service handles periodic achievement evaluation and challenge expiry.
type Service struct {
	config       *config.Config
	achievements AchievementEvaluator
	challenges   ChallengeExpirer
	stats        StatsProvider
	log          *logger.Logger
	cron         *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	achievements AchievementEvaluator,
	challenges ChallengeExpirer,
	stats StatsProvider,
	log *logger.Logger,
) *Service {
	return &Service{
		config:       cfg,
		achievements: achievements,
		challenges:   challenges,
		stats:        stats,
		log:          log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := time.LoadLocation(s.config.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	if s.config.Scheduler.AchievementEvaluationCron != "" && s.achievements != nil {
		_, err = s.cron.AddFunc(s.config.Scheduler.AchievementEvaluationCron, func() {
			s.runAchievementEvaluation(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register achievement evaluation job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.AchievementEvaluationCron).
			Msg("Achievement evaluation job registered")
	}

	if s.config.Scheduler.ChallengeExpiryCron != "" && s.challenges != nil {
		_, err = s.cron.AddFunc(s.config.Scheduler.ChallengeExpiryCron, func() {
			s.runChallengeExpiry(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register challenge expiry job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.ChallengeExpiryCron).
			Msg("Challenge expiry job registered")
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("timezone", s.config.Scheduler.Timezone).
		Int("jobs", len(entries)).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// runAchievementEvaluation sweeps the catalog across all users.
func (s *Service) runAchievementEvaluation(ctx context.Context) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveSchedulerJobDuration(jobAchievementEvaluation, time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun(jobAchievementEvaluation)
	}()

	s.log.Info().Msg("Running achievement evaluation job")

	unlocked, err := s.achievements.EvaluateAllUsers(ctx, s.stats.GetUserStats)
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Achievement evaluation job failed")
		prommetrics.RecordSchedulerJobRun(jobAchievementEvaluation, "error")
		return
	}

	prommetrics.RecordSchedulerJobRun(jobAchievementEvaluation, "success")

	s.log.Info().
		Int("achievements_unlocked", unlocked).
		Dur("duration", time.Since(start)).
		Msg("Achievement evaluation job completed successfully")
}

// runChallengeExpiry ends challenges whose end date has passed.
func (s *Service) runChallengeExpiry(ctx context.Context) {
	start := time.Now()
	defer func() {
		prommetrics.ObserveSchedulerJobDuration(jobChallengeExpiry, time.Since(start).Seconds())
		prommetrics.SetSchedulerLastRun(jobChallengeExpiry)
	}()

	s.log.Info().Msg("Running challenge expiry job")

	ended, err := s.challenges.ExpireEnded(ctx, time.Now())
	if err != nil {
		s.log.Error().
			Err(err).
			Dur("duration", time.Since(start)).
			Msg("Challenge expiry job failed")
		prommetrics.RecordSchedulerJobRun(jobChallengeExpiry, "error")
		return
	}

	prommetrics.RecordSchedulerJobRun(jobChallengeExpiry, "success")

	s.log.Info().
		Int64("challenges_ended", ended).
		Dur("duration", time.Since(start)).
		Msg("Challenge expiry job completed successfully")
}
