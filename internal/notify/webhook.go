// Package notify provides the synchronous notification callback invoked after
// gamification state changes. It replaces the unrealized event emission of the
// original system: services call the notifier directly and the caller decides
// whether anything listens.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dileepadari/wellnesshub/internal/config"
	"github.com/dileepadari/wellnesshub/internal/models"
	"github.com/dileepadari/wellnesshub/pkg/logger"
)

// Notifier receives gamification events after they are committed.
// Implementations must be safe to call from request handlers; failures are
// logged by callers and never roll back state.
type Notifier interface {
	AchievementUnlocked(ctx context.Context, user *models.User, achievement *models.Achievement) error
	ChallengeCompleted(ctx context.Context, user *models.User, challenge *models.Challenge) error
	LevelUp(ctx context.Context, user *models.User, oldLevel, newLevel int) error
}

// Event is the JSON payload posted to the webhook.
type Event struct {
	Type        string    `json:"type"`
	UserID      uint      `json:"user_id"`
	Username    string    `json:"username"`
	Title       string    `json:"title,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
	Achievement string    `json:"achievement,omitempty"`
	Challenge   string    `json:"challenge,omitempty"`
	OldLevel    int       `json:"old_level,omitempty"`
	NewLevel    int       `json:"new_level,omitempty"`
}

// WebhookNotifier posts events to a configured HTTP endpoint.
type WebhookNotifier struct {
	webhookURL string
	enabled    bool
	log        *logger.Logger
}

// NewWebhookNotifier creates a webhook notifier. When disabled every call is a no-op.
func NewWebhookNotifier(cfg *config.NotifierConfig, log *logger.Logger) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: cfg.WebhookURL,
		enabled:    cfg.Enabled,
		log:        log,
	}
}

// AchievementUnlocked posts an achievement-unlocked event.
func (n *WebhookNotifier) AchievementUnlocked(ctx context.Context, user *models.User, achievement *models.Achievement) error {
	return n.send(ctx, &Event{
		Type:        "achievement_unlocked",
		UserID:      user.ID,
		Username:    user.Username,
		Title:       achievement.Name,
		Detail:      achievement.Description,
		Achievement: achievement.Name,
		OccurredAt:  time.Now().UTC(),
	})
}

// ChallengeCompleted posts a challenge-completed event.
func (n *WebhookNotifier) ChallengeCompleted(ctx context.Context, user *models.User, challenge *models.Challenge) error {
	return n.send(ctx, &Event{
		Type:       "challenge_completed",
		UserID:     user.ID,
		Username:   user.Username,
		Title:      challenge.Title,
		Challenge:  challenge.Title,
		OccurredAt: time.Now().UTC(),
	})
}

// LevelUp posts a level-up event.
func (n *WebhookNotifier) LevelUp(ctx context.Context, user *models.User, oldLevel, newLevel int) error {
	return n.send(ctx, &Event{
		Type:       "level_up",
		UserID:     user.ID,
		Username:   user.Username,
		OldLevel:   oldLevel,
		NewLevel:   newLevel,
		OccurredAt: time.Now().UTC(),
	})
}

func (n *WebhookNotifier) send(ctx context.Context, event *Event) error {
	if !n.enabled {
		n.log.Debug().Str("type", event.Type).Msg("Notifier is disabled, skipping event")
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send event: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	n.log.Debug().
		Str("type", event.Type).
		Uint("user_id", event.UserID).
		Msg("Sent notification event")

	return nil
}

// NopNotifier discards all events. Used when no webhook is configured and in tests.
type NopNotifier struct{}

// AchievementUnlocked implements Notifier.
func (NopNotifier) AchievementUnlocked(context.Context, *models.User, *models.Achievement) error {
	return nil
}

// ChallengeCompleted implements Notifier.
func (NopNotifier) ChallengeCompleted(context.Context, *models.User, *models.Challenge) error {
	return nil
}

// LevelUp implements Notifier.
func (NopNotifier) LevelUp(context.Context, *models.User, int, int) error {
	return nil
}
