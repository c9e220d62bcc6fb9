package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mira/api/internal/middleware"
	"github.com/mira/api/internal/models"
	"github.com/mira/api/internal/objects"
	"github.com/mira/api/internal/pipeline"
	"github.com/mira/api/internal/store"
)

// maxImageBytes bounds uploaded photos; phones routinely produce ~5MB JPEGs
const maxImageBytes = 10 << 20

// storyCacheTTL bounds staleness of a cached terminal story response
const storyCacheTTL = 2 * time.Minute

// StoriesHandler exposes the story-generation trigger and status polling.
// It is a thin adapter: it builds a GenerationRequest, hands it to the
// pipeline as a background task and immediately acknowledges.
type StoriesHandler struct {
	store     *store.Store
	objects   *objects.Store
	processor *pipeline.Processor
	breaker   *middleware.CircuitBreaker
	cache     *redis.Client
	logger    *zap.Logger
}

// NewStoriesHandler creates a stories handler. cache may be nil; polling then
// always reads through to Postgres.
func NewStoriesHandler(st *store.Store, obj *objects.Store, processor *pipeline.Processor, breaker *middleware.CircuitBreaker, cache *redis.Client, logger *zap.Logger) *StoriesHandler {
	return &StoriesHandler{
		store:     st,
		objects:   obj,
		processor: processor,
		breaker:   breaker,
		cache:     cache,
		logger:    logger,
	}
}

// StoryResponse is the polling view of a story record
type StoryResponse struct {
	ID               uuid.UUID          `json:"id"`
	KidID            uuid.UUID          `json:"kid_id"`
	Title            string             `json:"title,omitempty"`
	Content          string             `json:"content,omitempty"`
	ImageDescription string             `json:"image_description,omitempty"`
	CoverDescription string             `json:"cover_description,omitempty"`
	AudioURL         string             `json:"audio_url,omitempty"`
	CoverURL         string             `json:"cover_url,omitempty"`
	Language         string             `json:"language"`
	Status           models.StoryStatus `json:"status"`
	Error            string             `json:"error,omitempty"`
}

// Create accepts a photo and kid id, starts the pipeline in the background
// and returns a processing acknowledgment.
func (h *StoriesHandler) Create(c *gin.Context) {
	kidID, err := uuid.Parse(c.PostForm("kid_id"))
	if err != nil {
		middleware.BadRequest(c, "invalid kid_id")
		return
	}

	language := c.PostForm("language")
	if language == "" {
		language = "en"
	}

	file, err := c.FormFile("image")
	if err != nil {
		middleware.BadRequest(c, "image file is required")
		return
	}
	if file.Size > maxImageBytes {
		middleware.RespondError(c, http.StatusRequestEntityTooLarge, middleware.ErrCodeImageTooLarge, "image exceeds the 10MB limit")
		return
	}

	src, err := file.Open()
	if err != nil {
		middleware.InternalError(c, "could not read image")
		return
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		middleware.InternalError(c, "could not read image")
		return
	}
	mime := file.Header.Get("Content-Type")
	if mime == "" {
		mime = "image/jpeg"
	}

	kid, err := h.store.GetKid(c.Request.Context(), kidID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.NotFound(c, "kid not found")
			return
		}
		h.logger.Error("kid lookup failed", zap.Error(err))
		middleware.InternalError(c, "could not load kid profile")
		return
	}

	req := models.GenerationRequest{
		ID:        uuid.New(),
		KidID:     kid.ID,
		Language:  language,
		Image:     image,
		ImageMime: mime,
	}

	if err := h.store.CreateStory(c.Request.Context(), models.Story{
		ID:       req.ID,
		KidID:    kid.ID,
		Language: language,
		Status:   models.StoryStatusProcessing,
	}); err != nil {
		h.logger.Error("story insert failed", zap.Error(err))
		middleware.InternalError(c, "could not create story")
		return
	}

	// Fire-and-forget background run. The request context dies with this
	// HTTP response, so the pipeline gets its own; per-call vendor timeouts
	// bound the worst case.
	go func() {
		if err := h.processor.Run(context.Background(), req, kid); err != nil {
			h.breaker.RecordFailure()
			h.logger.Error("pipeline run failed",
				zap.String("story_id", req.ID.String()),
				zap.Error(err),
			)
			return
		}
		h.breaker.RecordSuccess()
	}()

	c.JSON(http.StatusAccepted, gin.H{
		"story_id": req.ID,
		"status":   models.StoryStatusProcessing,
		"message":  "Story generation started",
	})
}

// Get returns the current state of a story, terminal or not. Terminal
// stories are served from Redis when possible; in-flight ones always hit
// Postgres so polling sees fresh state.
func (h *StoriesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.BadRequest(c, "invalid story id")
		return
	}

	cacheKey := "story:" + id.String()
	if h.cache != nil {
		if cached, err := h.cache.Get(c.Request.Context(), cacheKey).Bytes(); err == nil {
			c.Data(http.StatusOK, "application/json", cached)
			return
		}
	}

	story, err := h.store.GetStory(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.NotFound(c, "story not found")
			return
		}
		h.logger.Error("story lookup failed", zap.Error(err))
		middleware.InternalError(c, "could not load story")
		return
	}

	resp := StoryResponse{
		ID:               story.ID,
		KidID:            story.KidID,
		Title:            story.Title,
		Content:          story.Content,
		ImageDescription: story.ImageDescription,
		CoverDescription: story.CoverDescription,
		Language:         story.Language,
		Status:           story.Status,
		Error:            story.ErrorMessage,
	}
	if story.AudioRef != nil {
		resp.AudioURL = h.objects.PublicURL(*story.AudioRef)
	}
	if story.CoverRef != nil {
		resp.CoverURL = h.objects.PublicURL(*story.CoverRef)
	}

	if h.cache != nil && story.Status != models.StoryStatusProcessing {
		if payload, err := json.Marshal(resp); err == nil {
			if err := h.cache.Set(c.Request.Context(), cacheKey, payload, storyCacheTTL).Err(); err != nil {
				h.logger.Debug("story cache write failed", zap.Error(err))
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}
