package approval

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mira/api/internal/models"
)

const cacheTTL = 5 * time.Minute

// SettingsStore looks up the owning user's account settings
type SettingsStore interface {
	GetUserSettings(ctx context.Context, userID uuid.UUID) (models.UserSettings, error)
}

// Notifier dispatches a review request to the user. Best-effort: failures
// are swallowed by the resolver.
type Notifier interface {
	NotifyForReview(ctx context.Context, storyID uuid.UUID, recipient string) error
}

// Resolver maps a user's approval mode to the terminal story status.
// Resolution never fails: any error while looking up the policy resolves to
// pending, requiring human review rather than silently auto-publishing.
type Resolver struct {
	store    SettingsStore
	cache    *redis.Client
	notifier Notifier
	logger   *zap.Logger
}

// NewResolver creates a resolver. cache and notifier may be nil; the
// resolver degrades to direct lookups and log-only notification.
func NewResolver(store SettingsStore, cache *redis.Client, notifier Notifier, logger *zap.Logger) *Resolver {
	return &Resolver{store: store, cache: cache, notifier: notifier, logger: logger}
}

// Resolve returns the terminal status for a finished pipeline run:
// auto approves outright, app and email hold the story pending, and email
// additionally dispatches a best-effort review notification.
func (r *Resolver) Resolve(ctx context.Context, userID, storyID uuid.UUID) models.StoryStatus {
	settings, err := r.settings(ctx, userID)
	if err != nil {
		r.logger.Warn("approval-mode lookup failed, defaulting to pending",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return models.StoryStatusPending
	}

	switch settings.ApprovalMode {
	case models.ApprovalModeAuto:
		return models.StoryStatusApproved
	case models.ApprovalModeApp:
		return models.StoryStatusPending
	case models.ApprovalModeEmail:
		r.notify(ctx, storyID, settings.Email)
		return models.StoryStatusPending
	default:
		r.logger.Warn("unrecognized approval mode, defaulting to pending",
			zap.String("user_id", userID.String()),
			zap.String("approval_mode", string(settings.ApprovalMode)),
		)
		return models.StoryStatusPending
	}
}

// settings reads the user's approval settings through the Redis cache
func (r *Resolver) settings(ctx context.Context, userID uuid.UUID) (models.UserSettings, error) {
	key := "approval_mode:" + userID.String()

	if r.cache != nil {
		if cached, err := r.cache.HGetAll(ctx, key).Result(); err == nil && len(cached) > 0 {
			return models.UserSettings{
				ID:           userID,
				Email:        cached["email"],
				ApprovalMode: models.ApprovalMode(cached["mode"]),
			}, nil
		}
	}

	settings, err := r.store.GetUserSettings(ctx, userID)
	if err != nil {
		return models.UserSettings{}, err
	}

	if r.cache != nil {
		pipe := r.cache.Pipeline()
		pipe.HSet(ctx, key, "mode", string(settings.ApprovalMode), "email", settings.Email)
		pipe.Expire(ctx, key, cacheTTL)
		if _, err := pipe.Exec(ctx); err != nil {
			r.logger.Debug("approval-mode cache write failed", zap.Error(err))
		}
	}
	return settings, nil
}

// notify dispatches the review request without letting a dispatch failure
// affect status resolution.
func (r *Resolver) notify(ctx context.Context, storyID uuid.UUID, recipient string) {
	if r.notifier == nil {
		r.logger.Info("review notification skipped, no notifier configured",
			zap.String("story_id", storyID.String()),
		)
		return
	}
	if err := r.notifier.NotifyForReview(ctx, storyID, recipient); err != nil {
		r.logger.Warn("review notification failed",
			zap.String("story_id", storyID.String()),
			zap.Error(err),
		)
	}
}
