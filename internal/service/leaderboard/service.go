// Package leaderboard ranks users globally by gamification metrics and
// assembles the per-user stats snapshot consumed by achievement evaluation.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/dileepadari/wellnesshub/internal/cache"
	"github.com/dileepadari/wellnesshub/internal/models"
	"github.com/dileepadari/wellnesshub/internal/repository"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

// Supported ranking metrics.
const (
	MetricPoints       = "points"
	MetricExperience   = "experience"
	MetricStreak       = "streak"
	MetricAchievements = "achievements"
)

const defaultCacheTTL = 60 * time.Second

// Entry is one ranked row of the global leaderboard.
type Entry struct {
	Rank     int    `json:"rank"`
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Team     string `json:"team,omitempty"`
	Level    int    `json:"level"`
	Value    int    `json:"value"`
}

// UserRepository interface for user operations.
type UserRepository interface {
	GetByID(id uint) (*models.User, error)
	List(team string) ([]models.User, error)
	CountWithMorePoints(points int) (int64, error)
}

// AchievementRepository interface for unlock counts.
type AchievementRepository interface {
	GetUserAchievementCount(userID uint) (int64, error)
}

// ChallengeRepository interface for completion counts.
type ChallengeRepository interface {
	CountUserCompleted(userID uint) (int64, error)
}

// Service computes leaderboards and user stats snapshots.
type Service struct {
	userRepo        UserRepository
	achievementRepo AchievementRepository
	challengeRepo   ChallengeRepository
	cache           cache.Cache
	cacheTTL        time.Duration
	log             *logger.Logger
}

// NewService creates a new leaderboard service.
func NewService(
	userRepo *repository.UserRepository,
	achievementRepo *repository.AchievementRepository,
	challengeRepo *repository.ChallengeRepository,
	c cache.Cache,
	cacheTTLSeconds int,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(userRepo, achievementRepo, challengeRepo, c, cacheTTLSeconds, log)
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	userRepo UserRepository,
	achievementRepo AchievementRepository,
	challengeRepo ChallengeRepository,
	c cache.Cache,
	cacheTTLSeconds int,
	log *logger.Logger,
) *Service {
	ttl := defaultCacheTTL
	if cacheTTLSeconds > 0 {
		ttl = time.Duration(cacheTTLSeconds) * time.Second
	}
	return &Service{
		userRepo:        userRepo,
		achievementRepo: achievementRepo,
		challengeRepo:   challengeRepo,
		cache:           c,
		cacheTTL:        ttl,
		log:             log,
	}
}

// GetLeaderboard ranks active users by the given metric, optionally within a
// team. Results are cached; cache failures fall through to the database.
func (s *Service) GetLeaderboard(ctx context.Context, metric, team string, limit int) ([]Entry, error) {
	switch metric {
	case MetricPoints, MetricExperience, MetricStreak, MetricAchievements:
	case "":
		metric = MetricPoints
	default:
		return nil, fmt.Errorf("unknown leaderboard metric %q", metric)
	}

	cacheKey := fmt.Sprintf("leaderboard:%s:%s:%d", metric, team, limit)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey); err == nil && cached != "" {
			var entries []Entry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				return entries, nil
			}
		}
	}

	users, err := s.userRepo.List(team)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	entries := make([]Entry, 0, len(users))
	for _, u := range users {
		value, err := s.metricValue(&u, metric)
		if err != nil {
			return nil, err
		}
		entries = append(entries, Entry{
			UserID:   u.ID,
			Username: u.Username,
			Team:     u.Team,
			Level:    u.Level,
			Value:    value,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Value != entries[j].Value {
			return entries[i].Value > entries[j].Value
		}
		return entries[i].Username < entries[j].Username
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}

	if s.cache != nil {
		if data, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, string(data), s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Str("key", cacheKey).Msg("Failed to cache leaderboard")
			}
		}
	}

	return entries, nil
}

func (s *Service) metricValue(u *models.User, metric string) (int, error) {
	switch metric {
	case MetricPoints:
		return u.TotalPoints, nil
	case MetricExperience:
		return u.Experience, nil
	case MetricStreak:
		return u.CurrentStreak, nil
	case MetricAchievements:
		count, err := s.achievementRepo.GetUserAchievementCount(u.ID)
		if err != nil {
			return 0, fmt.Errorf("failed to count achievements for user %d: %w", u.ID, err)
		}
		return int(count), nil
	}
	return 0, fmt.Errorf("unknown leaderboard metric %q", metric)
}

// InvalidateCache drops all cached leaderboard variants for a metric.
func (s *Service) InvalidateCache(ctx context.Context, keys ...string) error {
	if s.cache == nil || len(keys) == 0 {
		return nil
	}
	return s.cache.Del(ctx, keys...)
}

// GetUserStats assembles the flat stats snapshot for a user. This is the
// map achievement criteria are evaluated against, so key names here are
// part of the achievement catalog contract. The rank key is the user's
// position by total points among active users, ties sharing a rank.
func (s *Service) GetUserStats(ctx context.Context, userID uint) (map[string]float64, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	achievementCount, err := s.achievementRepo.GetUserAchievementCount(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count achievements for user %d: %w", userID, err)
	}
	challengeCount, err := s.challengeRepo.CountUserCompleted(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count completed challenges for user %d: %w", userID, err)
	}
	higher, err := s.userRepo.CountWithMorePoints(user.TotalPoints)
	if err != nil {
		return nil, fmt.Errorf("failed to rank user %d: %w", userID, err)
	}

	return map[string]float64{
		"points":           float64(user.TotalPoints),
		"available_points": float64(user.AvailablePoints),
		"experience":       float64(user.Experience),
		"level":            float64(user.Level),
		"current_streak":   float64(user.CurrentStreak),
		"longest_streak":   float64(user.LongestStreak),
		"achievements":     float64(achievementCount),
		"challenges":       float64(challengeCount),
		"rank":             float64(higher + 1),
	}, nil
}
