// Package dashboard provides REST API handlers for the gamification dashboard.
// It exposes endpoints for points, streaks, achievements, challenges and
// leaderboards.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dileepadari/wellnesshub/internal/models"
	"github.com/dileepadari/wellnesshub/internal/service/achievements"
	"github.com/dileepadari/wellnesshub/internal/service/challenges"
	"github.com/dileepadari/wellnesshub/internal/service/leaderboard"
	"github.com/dileepadari/wellnesshub/internal/service/progress"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

// ProgressService interface for points, experience and streak operations.
type ProgressService interface {
	AddPoints(ctx context.Context, userID uint, amount int, reason string) (*models.User, error)
	SpendPoints(ctx context.Context, userID uint, amount int, reason string) (*models.User, error)
	GrantExperience(ctx context.Context, userID uint, amount int) (*models.User, error)
	RecordActivity(ctx context.Context, userID uint, now time.Time) (*models.User, error)
}

// AchievementService interface for achievement operations.
type AchievementService interface {
	GetCatalog(ctx context.Context) ([]models.Achievement, error)
	GetByID(ctx context.Context, id uint) (*models.Achievement, error)
	GetUserAchievements(ctx context.Context, userID uint) ([]models.UserAchievement, error)
	CheckAndUnlock(ctx context.Context, userID uint, stats map[string]float64) ([]models.Achievement, error)
}

// ChallengeService interface for challenge operations.
type ChallengeService interface {
	GetChallenge(ctx context.Context, id uint) (*models.Challenge, error)
	ListChallenges(ctx context.Context, status string) ([]models.Challenge, error)
	GetUserChallenges(ctx context.Context, userID uint) ([]models.ChallengeParticipant, error)
	Join(ctx context.Context, challengeID, userID uint, teamID *uint) (*models.ChallengeParticipant, error)
	UpdateProgress(ctx context.Context, challengeID, userID uint, progress float64) (*models.ChallengeParticipant, error)
	Leaderboard(ctx context.Context, challengeID uint, limit int) ([]challenges.LeaderboardEntry, error)
}

// LeaderboardService interface for leaderboard and stats operations.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, metric, team string, limit int) ([]leaderboard.Entry, error)
	GetUserStats(ctx context.Context, userID uint) (map[string]float64, error)
}

// Handler handles dashboard API requests.
type Handler struct {
	progressService    ProgressService
	achievementService AchievementService
	challengeService   ChallengeService
	leaderboardService LeaderboardService
	log                *logger.Logger
}

// NewHandler creates a new dashboard handler.
func NewHandler(
	progressService *progress.Service,
	achievementService *achievements.Service,
	challengeService *challenges.Service,
	leaderboardService *leaderboard.Service,
	log *logger.Logger,
) *Handler {
	return NewHandlerWithInterfaces(progressService, achievementService, challengeService, leaderboardService, log)
}

// NewHandlerWithInterfaces creates a new dashboard handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	progressService ProgressService,
	achievementService AchievementService,
	challengeService ChallengeService,
	leaderboardService LeaderboardService,
	log *logger.Logger,
) *Handler {
	return &Handler{
		progressService:    progressService,
		achievementService: achievementService,
		challengeService:   challengeService,
		leaderboardService: leaderboardService,
		log:                log,
	}
}

// RegisterRoutes attaches all dashboard routes under /api/v1.
func (h *Handler) RegisterRoutes(router gin.IRouter) {
	v1 := router.Group("/api/v1")

	v1.GET("/leaderboard", h.GetLeaderboard)

	users := v1.Group("/users/:id")
	users.GET("/stats", h.GetUserStats)
	users.POST("/points", h.AddPoints)
	users.POST("/points/spend", h.SpendPoints)
	users.POST("/experience", h.GrantExperience)
	users.POST("/activity", h.RecordActivity)
	users.GET("/achievements", h.GetUserAchievements)
	users.POST("/achievements/check", h.CheckAchievements)
	users.GET("/challenges", h.GetUserChallenges)

	v1.GET("/achievements", h.GetAchievementCatalog)
	v1.GET("/achievements/:id", h.GetAchievementByID)

	v1.GET("/challenges", h.ListChallenges)
	v1.GET("/challenges/:id", h.GetChallenge)
	v1.POST("/challenges/:id/join", h.JoinChallenge)
	v1.PUT("/challenges/:id/progress", h.UpdateChallengeProgress)
	v1.GET("/challenges/:id/leaderboard", h.GetChallengeLeaderboard)
}

// GetLeaderboard returns the global or team leaderboard.
// GET /api/v1/leaderboard?metric=points&team=wellness&limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	metric := c.DefaultQuery("metric", leaderboard.MetricPoints)
	team := c.Query("team")
	limit, err := h.parseLimit(c, 10)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.GetLeaderboard(c.Request.Context(), metric, team, limit)
	if err != nil {
		h.log.Error().Err(err).Str("metric", metric).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"leaderboard":   entries,
		"metric":        metric,
		"team":          team,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserStats returns the gamification stats snapshot for a user.
// GET /api/v1/users/:id/stats.
func (h *Handler) GetUserStats(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.leaderboardService.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user stats")
		h.errorResponse(c, http.StatusNotFound, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"stats":        stats,
		"generated_at": time.Now().UTC(),
	})
}

type pointsRequest struct {
	Amount int    `json:"amount" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// AddPoints awards points (and matching experience) to a user.
// POST /api/v1/users/:id/points.
func (h *Handler) AddPoints(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "amount and reason are required")
		return
	}

	user, err := h.progressService.AddPoints(c.Request.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		if errors.Is(err, progress.ErrInvalidAmount) {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to add points")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to add points")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// SpendPoints deducts available points from a user.
// POST /api/v1/users/:id/points/spend.
func (h *Handler) SpendPoints(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req pointsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "amount and reason are required")
		return
	}

	user, err := h.progressService.SpendPoints(c.Request.Context(), userID, req.Amount, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, progress.ErrInvalidAmount):
			h.errorResponse(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, progress.ErrInsufficientFunds):
			h.errorResponse(c, http.StatusConflict, err.Error())
		default:
			h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to spend points")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to spend points")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

type experienceRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// GrantExperience adds experience without touching point balances.
// POST /api/v1/users/:id/experience.
func (h *Handler) GrantExperience(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req experienceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "amount is required")
		return
	}

	user, err := h.progressService.GrantExperience(c.Request.Context(), userID, req.Amount)
	if err != nil {
		if errors.Is(err, progress.ErrInvalidAmount) {
			h.errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to grant experience")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to grant experience")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// RecordActivity registers a qualifying activity and updates the streak.
// POST /api/v1/users/:id/activity.
func (h *Handler) RecordActivity(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.progressService.RecordActivity(c.Request.Context(), userID, time.Now())
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to record activity")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to record activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":        userID,
		"current_streak": user.CurrentStreak,
		"longest_streak": user.LongestStreak,
	})
}

// GetAchievementCatalog returns all achievements.
// GET /api/v1/achievements.
func (h *Handler) GetAchievementCatalog(c *gin.Context) {
	catalog, err := h.achievementService.GetCatalog(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get achievement catalog")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve achievement catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"achievements":       catalog,
		"total_achievements": len(catalog),
		"generated_at":       time.Now().UTC(),
	})
}

// GetAchievementByID returns details for a specific achievement.
// GET /api/v1/achievements/:id.
func (h *Handler) GetAchievementByID(c *gin.Context) {
	achievementID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	achievement, err := h.achievementService.GetByID(c.Request.Context(), achievementID)
	if err != nil {
		h.log.Error().Err(err).Uint("achievement_id", achievementID).Msg("Failed to get achievement")
		h.errorResponse(c, http.StatusNotFound, "Achievement not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"achievement": achievement})
}

// GetUserAchievements returns achievements unlocked by a user.
// GET /api/v1/users/:id/achievements.
func (h *Handler) GetUserAchievements(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	unlocked, err := h.achievementService.GetUserAchievements(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user achievements")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user achievements")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"achievements": unlocked,
		"total":        len(unlocked),
		"generated_at": time.Now().UTC(),
	})
}

// CheckAchievements evaluates the catalog against the user's current stats
// and unlocks everything whose criteria are now met.
// POST /api/v1/users/:id/achievements/check.
func (h *Handler) CheckAchievements(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	stats, err := h.leaderboardService.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user stats")
		h.errorResponse(c, http.StatusNotFound, "User not found")
		return
	}

	unlocked, err := h.achievementService.CheckAndUnlock(c.Request.Context(), userID, stats)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Achievement check failed")
		h.errorResponse(c, http.StatusInternalServerError, "Achievement check failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"unlocked":     unlocked,
		"new_unlocks":  len(unlocked),
		"generated_at": time.Now().UTC(),
	})
}

// ListChallenges returns challenges with an optional status filter.
// GET /api/v1/challenges?status=active.
func (h *Handler) ListChallenges(c *gin.Context) {
	status := c.Query("status")
	list, err := h.challengeService.ListChallenges(c.Request.Context(), status)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list challenges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve challenges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenges":   list,
		"total":        len(list),
		"generated_at": time.Now().UTC(),
	})
}

// GetChallenge returns details for a specific challenge.
// GET /api/v1/challenges/:id.
func (h *Handler) GetChallenge(c *gin.Context) {
	challengeID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	challenge, err := h.challengeService.GetChallenge(c.Request.Context(), challengeID)
	if err != nil {
		h.log.Error().Err(err).Uint("challenge_id", challengeID).Msg("Failed to get challenge")
		h.errorResponse(c, http.StatusNotFound, "Challenge not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"challenge": challenge})
}

type joinRequest struct {
	UserID uint  `json:"user_id" binding:"required"`
	TeamID *uint `json:"team_id"`
}

// JoinChallenge adds a user to a challenge.
// POST /api/v1/challenges/:id/join.
func (h *Handler) JoinChallenge(c *gin.Context) {
	challengeID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req joinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "user_id is required")
		return
	}

	participant, err := h.challengeService.Join(c.Request.Context(), challengeID, req.UserID, req.TeamID)
	if err != nil {
		switch {
		case errors.Is(err, challenges.ErrAlreadyJoined):
			h.errorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, challenges.ErrCapacityExceeded):
			h.errorResponse(c, http.StatusConflict, err.Error())
		case errors.Is(err, challenges.ErrJoinWindowClosed):
			h.errorResponse(c, http.StatusForbidden, err.Error())
		default:
			h.log.Error().Err(err).Uint("challenge_id", challengeID).Msg("Failed to join challenge")
			h.errorResponse(c, http.StatusInternalServerError, "Failed to join challenge")
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"participant": participant})
}

type progressRequest struct {
	UserID   uint     `json:"user_id" binding:"required"`
	Progress *float64 `json:"progress" binding:"required"`
}

// UpdateChallengeProgress sets a participant's progress percentage.
// PUT /api/v1/challenges/:id/progress.
func (h *Handler) UpdateChallengeProgress(c *gin.Context) {
	challengeID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "user_id and progress are required")
		return
	}

	participant, err := h.challengeService.UpdateProgress(c.Request.Context(), challengeID, req.UserID, *req.Progress)
	if err != nil {
		if errors.Is(err, challenges.ErrNotParticipating) {
			h.errorResponse(c, http.StatusNotFound, err.Error())
			return
		}
		h.log.Error().Err(err).Uint("challenge_id", challengeID).Msg("Failed to update challenge progress")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to update challenge progress")
		return
	}

	c.JSON(http.StatusOK, gin.H{"participant": participant})
}

// GetChallengeLeaderboard returns the ranked participants of a challenge.
// GET /api/v1/challenges/:id/leaderboard?limit=50.
func (h *Handler) GetChallengeLeaderboard(c *gin.Context) {
	challengeID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := h.parseLimit(c, 50)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.challengeService.Leaderboard(c.Request.Context(), challengeID, limit)
	if err != nil {
		h.log.Error().Err(err).Uint("challenge_id", challengeID).Msg("Failed to get challenge leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve challenge leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"challenge_id":  challengeID,
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetUserChallenges returns a user's challenge participations.
// GET /api/v1/users/:id/challenges.
func (h *Handler) GetUserChallenges(c *gin.Context) {
	userID, err := h.parseID(c, "id")
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	participations, err := h.challengeService.GetUserChallenges(c.Request.Context(), userID)
	if err != nil {
		h.log.Error().Err(err).Uint("user_id", userID).Msg("Failed to get user challenges")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve user challenges")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":      userID,
		"challenges":   participations,
		"total":        len(participations),
		"generated_at": time.Now().UTC(),
	})
}

// Helper functions

// parseID extracts and validates a numeric ID from a URL parameter.
func (h *Handler) parseID(c *gin.Context, param string) (uint, error) {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", param, idStr)
	}
	return uint(id), nil
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
