// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the gamification service.
var (
	// Counters.
	PointsAwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_awarded_total",
			Help: "Total number of points awarded to users",
		},
		[]string{"reason"},
	)

	PointsSpentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "points_spent_total",
			Help: "Total number of points spent by users",
		},
		[]string{"reason"},
	)

	LevelUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "level_ups_total",
			Help: "Total number of level-ups across all users",
		},
	)

	AchievementsUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "achievements_unlocked_total",
			Help: "Total number of achievement unlocks",
		},
		[]string{"achievement", "category"},
	)

	ChallengesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "challenges_completed_total",
			Help: "Total number of challenge completions",
		},
		[]string{"challenge"},
	)

	// Gauges.
	ActiveChallengeParticipants = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "active_challenge_participants",
			Help: "Current number of participants per challenge",
		},
		[]string{"challenge"},
	)

	SchedulerLastRun = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "scheduler_last_run_timestamp",
			Help: "Unix timestamp of the last run per scheduled job",
		},
		[]string{"job"},
	)

	// Histograms.
	StreakLengthDays = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streak_length_days",
			Help:    "Streak length observed when a streak ends",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1 day to ~512 days
		},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Duration of scheduled job runs",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)

	SchedulerJobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_job_runs_total",
			Help: "Total number of scheduled job runs by status",
		},
		[]string{"job", "status"},
	)
)

// RecordPointsAwarded records points added to a user's balance.
func RecordPointsAwarded(reason string, amount int) {
	PointsAwardedTotal.WithLabelValues(reason).Add(float64(amount))
}

// RecordPointsSpent records points spent by a user.
func RecordPointsSpent(reason string, amount int) {
	PointsSpentTotal.WithLabelValues(reason).Add(float64(amount))
}

// RecordLevelUp records a user level increase.
func RecordLevelUp() {
	LevelUpsTotal.Inc()
}

// RecordAchievementUnlocked records an achievement unlock.
func RecordAchievementUnlocked(achievement, category string) {
	AchievementsUnlockedTotal.WithLabelValues(achievement, category).Inc()
}

// RecordChallengeCompleted records a participant finishing a challenge.
func RecordChallengeCompleted(challenge string) {
	ChallengesCompletedTotal.WithLabelValues(challenge).Inc()
}

// SetChallengeParticipants updates the participant gauge for a challenge.
func SetChallengeParticipants(challenge string, count int) {
	ActiveChallengeParticipants.WithLabelValues(challenge).Set(float64(count))
}

// RecordStreakEnded records the length of a streak that was just broken.
func RecordStreakEnded(days int) {
	StreakLengthDays.Observe(float64(days))
}

// RecordSchedulerJobRun records a scheduled job run outcome.
func RecordSchedulerJobRun(job, status string) {
	SchedulerJobRunsTotal.WithLabelValues(job, status).Inc()
}

// ObserveSchedulerJobDuration records how long a scheduled job took.
func ObserveSchedulerJobDuration(job string, seconds float64) {
	SchedulerJobDuration.WithLabelValues(job).Observe(seconds)
}

// SetSchedulerLastRun updates the last run timestamp for a job.
func SetSchedulerLastRun(job string) {
	SchedulerLastRun.WithLabelValues(job).SetToCurrentTime()
}
