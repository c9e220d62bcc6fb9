package artist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mira/api/internal/metrics"
	"github.com/mira/api/internal/models"
)

// ObjectStore persists generated cover images
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// CoverRequest carries the story and kid data a cover is generated from
type CoverRequest struct {
	StoryID          uuid.UUID
	Title            string
	CoverDescription string
	KidName          string
	KidAppearance    string
}

// Config tunes the retry/fallback behaviour of the agent
type Config struct {
	// MaxAttempts is how many times the primary vendor is tried
	MaxAttempts int
	// RetryDelay is the fixed delay between primary attempts
	RetryDelay time.Duration
	// FallbackEnabled gates the single fallback-vendor attempt
	FallbackEnabled bool
}

// Agent generates cover images with a retry-then-fallback state machine:
// the primary vendor is tried up to MaxAttempts times, then a distinct
// fallback vendor exactly once. The agent uploads the winning image and
// reports vendor, attempt count and fallback use for observability.
type Agent struct {
	primary  ImageGenerator
	fallback ImageGenerator
	prompts  *PromptBuilder
	objects  ObjectStore
	cfg      Config
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

// NewAgent creates an artist agent. fallback may be nil.
func NewAgent(primary, fallback ImageGenerator, prompts *PromptBuilder, objects ObjectStore, cfg Config, m *metrics.Metrics, logger *zap.Logger) *Agent {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Agent{
		primary:  primary,
		fallback: fallback,
		prompts:  prompts,
		objects:  objects,
		cfg:      cfg,
		metrics:  m,
		logger:   logger,
	}
}

// CreateCover generates, uploads and reports a cover image for the story.
// When every attempt across both vendors fails it returns a VendorError
// carrying the last underlying failure.
func (a *Agent) CreateCover(ctx context.Context, req CoverRequest) (models.GenerationResult, error) {
	scene := req.CoverDescription
	if scene == "" {
		scene = "A cheerful scene illustrating a story called " + req.Title
	}
	character := ""
	if req.KidAppearance != "" {
		character = fmt.Sprintf("%s, %s", req.KidName, req.KidAppearance)
	}
	prompt := a.prompts.Build(scene, character)

	image, result, err := a.generate(ctx, prompt)
	if err != nil {
		return result, err
	}

	path := fmt.Sprintf("covers/%s.png", req.StoryID)
	ref, err := a.objects.Upload(ctx, path, image, "image/png")
	if err != nil {
		return result, fmt.Errorf("uploading cover: %w", err)
	}
	result.ImageRef = ref

	a.logger.Info("cover generated",
		zap.String("story_id", req.StoryID.String()),
		zap.String("vendor", result.VendorUsed),
		zap.String("model", result.Model),
		zap.Int("attempts", result.AttemptsMade),
		zap.Bool("fallback_used", result.FallbackUsed),
	)
	return result, nil
}

// generate walks the vendor state machine and returns the image bytes
// together with the attempt bookkeeping.
func (a *Agent) generate(ctx context.Context, prompt string) ([]byte, models.GenerationResult, error) {
	result := models.GenerationResult{}
	var lastErr error

	for attempt := 1; attempt <= a.cfg.MaxAttempts; attempt++ {
		result.AttemptsMade++
		a.metrics.ImageAttempts.Inc()

		image, err := a.primary.Generate(ctx, prompt)
		if err == nil {
			result.VendorUsed = a.primary.Name()
			result.Model = a.primary.Model()
			return image, result, nil
		}
		lastErr = err
		a.logger.Warn("image generation attempt failed",
			zap.String("vendor", a.primary.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if attempt < a.cfg.MaxAttempts {
			select {
			case <-ctx.Done():
				return nil, result, a.tagged(a.primary.Name(), ctx.Err())
			case <-time.After(a.retryDelay(err)):
			}
		}
	}

	if !a.useFallback() {
		return nil, result, a.tagged(a.primary.Name(), lastErr)
	}

	result.AttemptsMade++
	a.metrics.ImageAttempts.Inc()
	a.metrics.ImageFallbacks.Inc()

	image, err := a.fallback.Generate(ctx, prompt)
	if err != nil {
		a.logger.Warn("fallback image generation failed",
			zap.String("vendor", a.fallback.Name()),
			zap.Error(err),
		)
		return nil, result, a.tagged(a.fallback.Name(), err)
	}
	result.VendorUsed = a.fallback.Name()
	result.Model = a.fallback.Model()
	result.FallbackUsed = true
	return image, result, nil
}

// useFallback reports whether the fallback vendor should be attempted.
// A fallback identical to the primary is skipped: retrying the same vendor
// under another name buys nothing.
func (a *Agent) useFallback() bool {
	return a.cfg.FallbackEnabled &&
		a.fallback != nil &&
		a.fallback.Name() != a.primary.Name()
}

// retryDelay honors a vendor retry-after hint when it is longer than the
// configured fixed delay.
func (a *Agent) retryDelay(err error) time.Duration {
	var ve *VendorError
	if errors.As(err, &ve) && ve.RetryAfter > a.cfg.RetryDelay {
		return ve.RetryAfter
	}
	return a.cfg.RetryDelay
}

func (a *Agent) tagged(vendor string, err error) error {
	var ve *VendorError
	if errors.As(err, &ve) {
		return ve
	}
	return &VendorError{Vendor: vendor, Err: err}
}
