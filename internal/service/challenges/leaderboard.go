package challenges

import (
	"context"
	"sort"
	"time"
)

// LeaderboardEntry is one ranked row of a challenge leaderboard.
type LeaderboardEntry struct {
	Rank        int     `json:"rank"`
	UserID      uint    `json:"user_id"`
	Username    string  `json:"username"`
	Progress    float64 `json:"progress"`
	Completed   bool    `json:"completed"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// Leaderboard ranks a challenge's participants as a race: finishers come
// first, ordered by who finished earliest; everyone else follows by
// progress, ties broken by who joined earliest.
func (s *Service) Leaderboard(ctx context.Context, challengeID uint, limit int) ([]LeaderboardEntry, error) {
	participants, err := s.challengeRepo.GetParticipants(challengeID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(participants, func(i, j int) bool {
		a, b := participants[i], participants[j]
		if a.Completed != b.Completed {
			return a.Completed
		}
		if a.Completed && b.Completed {
			// A completed row without a timestamp can only come from
			// out-of-band writes; rank it after dated finishers.
			switch {
			case a.CompletedAt == nil && b.CompletedAt == nil:
				return a.JoinedAt.Before(b.JoinedAt)
			case a.CompletedAt == nil:
				return false
			case b.CompletedAt == nil:
				return true
			}
			if !a.CompletedAt.Equal(*b.CompletedAt) {
				return a.CompletedAt.Before(*b.CompletedAt)
			}
			return a.JoinedAt.Before(b.JoinedAt)
		}
		if a.Progress != b.Progress {
			return a.Progress > b.Progress
		}
		return a.JoinedAt.Before(b.JoinedAt)
	})

	if limit > 0 && len(participants) > limit {
		participants = participants[:limit]
	}

	entries := make([]LeaderboardEntry, 0, len(participants))
	for i, p := range participants {
		entry := LeaderboardEntry{
			Rank:      i + 1,
			UserID:    p.UserID,
			Username:  p.User.Username,
			Progress:  p.Progress,
			Completed: p.Completed,
		}
		if p.CompletedAt != nil {
			ts := p.CompletedAt.Format(time.RFC3339)
			entry.CompletedAt = &ts
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
