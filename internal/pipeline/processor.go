package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mira/api/internal/artist"
	"github.com/mira/api/internal/metrics"
	"github.com/mira/api/internal/models"
)

// VisionAgent turns image bytes into a text description
type VisionAgent interface {
	Describe(ctx context.Context, image []byte, mime string) (string, error)
}

// StorytellerAgent turns a description plus kid context into a story draft
type StorytellerAgent interface {
	Compose(ctx context.Context, description string, kid models.KidProfile, language string) (models.StoryDraft, error)
}

// VoiceAgent narrates story text
type VoiceAgent interface {
	Narrate(ctx context.Context, text, language string) (audio []byte, contentType string, err error)
}

// CoverArtist generates and persists a cover image
type CoverArtist interface {
	CreateCover(ctx context.Context, req artist.CoverRequest) (models.GenerationResult, error)
}

// Store is the slice of the story store the pipeline writes through
type Store interface {
	UpdateStory(ctx context.Context, id uuid.UUID, upd models.StoryUpdate) error
	SaveStoryInput(ctx context.Context, storyID uuid.UUID, description string) error
}

// ObjectStore persists narration audio
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// StatusResolver maps the owning user's approval policy to a terminal status.
// Implementations must never fail; policy errors resolve to pending.
type StatusResolver interface {
	Resolve(ctx context.Context, userID, storyID uuid.UUID) models.StoryStatus
}

// Config holds the pipeline's own knobs
type Config struct {
	// DefaultCoverRef is substituted when image generation is exhausted
	DefaultCoverRef string
}

// Processor sequences one story generation run: vision, storyteller, then
// narration and cover generation in parallel, then status resolution. Vision
// and storyteller failures abort the run; narration and cover failures
// degrade it. The processor is the sole writer to the story row during a run.
type Processor struct {
	vision      VisionAgent
	storyteller StorytellerAgent
	voice       VoiceAgent
	artist      CoverArtist
	store       Store
	objects     ObjectStore
	resolver    StatusResolver
	cfg         Config
	metrics     *metrics.Metrics
	logger      *zap.Logger
}

// NewProcessor wires a processor from its collaborators
func NewProcessor(
	vision VisionAgent,
	storyteller StorytellerAgent,
	voice VoiceAgent,
	coverArtist CoverArtist,
	store Store,
	objects ObjectStore,
	resolver StatusResolver,
	cfg Config,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		vision:      vision,
		storyteller: storyteller,
		voice:       voice,
		artist:      coverArtist,
		store:       store,
		objects:     objects,
		resolver:    resolver,
		cfg:         cfg,
		metrics:     m,
		logger:      logger,
	}
}

type stepResult struct {
	ref string
	err error
}

// Run executes the pipeline for one request. The caller runs it as a
// background task, logs the returned error and drops it; the terminal state
// is only observable through the persisted story record.
func (p *Processor) Run(ctx context.Context, req models.GenerationRequest, kid models.KidProfile) (err error) {
	start := time.Now()
	logger := p.logger.With(zap.String("story_id", req.ID.String()))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pipeline panic: %v", r)
		}
		if err != nil {
			p.markFailed(req.ID, err, logger)
		}
		p.metrics.PipelineDuration.Observe(time.Since(start).Seconds())
	}()

	// Step 1: vision. Mandatory; no story can be grounded without it.
	description, err := p.vision.Describe(ctx, req.Image, req.ImageMime)
	if err != nil {
		p.metrics.StepFailures.WithLabelValues("vision").Inc()
		return fmt.Errorf("vision step: %w", err)
	}

	p.bestEffort(ctx, "save story input", logger, func(ctx context.Context) error {
		return p.store.SaveStoryInput(ctx, req.ID, description)
	})

	// Step 2: storyteller. Mandatory; the draft is persisted immediately so
	// partial progress stays visible even if later steps fail.
	draft, err := p.storyteller.Compose(ctx, description, kid, req.Language)
	if err != nil {
		p.metrics.StepFailures.WithLabelValues("storyteller").Inc()
		return fmt.Errorf("storyteller step: %w", err)
	}
	if err := p.store.UpdateStory(ctx, req.ID, models.StoryUpdate{
		Title:            models.StringPtr(draft.Title),
		Content:          models.StringPtr(draft.Content),
		ImageDescription: models.StringPtr(description),
		CoverDescription: models.StringPtr(draft.CoverDescription),
	}); err != nil {
		return fmt.Errorf("persisting draft: %w", err)
	}

	// Step 3: narration and cover in parallel. Both are optional; both must
	// finish (either way) before the status is resolved. Join barrier, not a
	// race.
	audioCh := make(chan stepResult, 1)
	coverCh := make(chan stepResult, 1)

	go func() {
		ref, err := p.narrate(ctx, req, draft)
		audioCh <- stepResult{ref: ref, err: err}
	}()
	go func() {
		ref, err := p.cover(ctx, req, kid, draft)
		coverCh <- stepResult{ref: ref, err: err}
	}()

	audio := <-audioCh
	cover := <-coverCh

	if audio.err != nil {
		p.metrics.StepFailures.WithLabelValues("audio").Inc()
		logger.Warn("narration failed, continuing without audio", zap.Error(audio.err))
	}
	if cover.err != nil {
		p.metrics.StepFailures.WithLabelValues("cover").Inc()
		logger.Warn("cover generation exhausted, substituting default cover", zap.Error(cover.err))
		cover.ref = p.cfg.DefaultCoverRef
	}

	upd := models.StoryUpdate{CoverRef: &cover.ref}
	if audio.err == nil {
		upd.AudioRef = &audio.ref
	}
	if err := p.store.UpdateStory(ctx, req.ID, upd); err != nil {
		return fmt.Errorf("persisting media refs: %w", err)
	}

	// Step 4: terminal status from the owning user's approval policy.
	status := p.resolver.Resolve(ctx, kid.UserID, req.ID)

	// Step 5: persist the terminal status.
	if err := p.store.UpdateStory(ctx, req.ID, models.StoryUpdate{Status: models.StatusPtr(status)}); err != nil {
		return fmt.Errorf("persisting status: %w", err)
	}

	p.metrics.PipelineRuns.WithLabelValues(string(status)).Inc()
	logger.Info("pipeline completed",
		zap.String("status", string(status)),
		zap.Bool("has_audio", audio.err == nil),
		zap.Bool("cover_degraded", cover.err != nil),
		zap.Duration("duration", time.Since(start)),
	)
	return nil
}

func (p *Processor) narrate(ctx context.Context, req models.GenerationRequest, draft models.StoryDraft) (string, error) {
	audio, contentType, err := p.voice.Narrate(ctx, draft.Content, req.Language)
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("audio/%s.mp3", req.ID)
	ref, err := p.objects.Upload(ctx, path, audio, contentType)
	if err != nil {
		return "", fmt.Errorf("uploading narration: %w", err)
	}
	return ref, nil
}

func (p *Processor) cover(ctx context.Context, req models.GenerationRequest, kid models.KidProfile, draft models.StoryDraft) (string, error) {
	result, err := p.artist.CreateCover(ctx, artist.CoverRequest{
		StoryID:          req.ID,
		Title:            draft.Title,
		CoverDescription: draft.CoverDescription,
		KidName:          kid.Name,
		KidAppearance:    kid.Appearance,
	})
	if err != nil {
		return "", err
	}
	return result.ImageRef, nil
}

// markFailed records the terminal error state. A fatal step must never leave
// the row dangling in processing. The write itself is best-effort: the run is
// already failing and the caller will log the original error.
func (p *Processor) markFailed(storyID uuid.UUID, runErr error, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.store.UpdateStory(ctx, storyID, models.StoryUpdate{
		Status:       models.StatusPtr(models.StoryStatusError),
		ErrorMessage: models.StringPtr(runErr.Error()),
	}); err != nil {
		logger.Error("failed to persist error status", zap.Error(err))
	}
	p.metrics.PipelineRuns.WithLabelValues(string(models.StoryStatusError)).Inc()
}
