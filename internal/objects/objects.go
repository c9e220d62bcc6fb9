package objects

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Store uploads media to an S3-style object storage HTTP API and builds
// public URLs for stored references. Uploading to the same path overwrites
// the existing object, so retried uploads stay idempotent.
type Store struct {
	baseURL string
	bucket  string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewStore creates an object store client for one bucket
func NewStore(baseURL, bucket, apiKey string, logger *zap.Logger) *Store {
	return &Store{
		baseURL: baseURL,
		bucket:  bucket,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 60 * time.Second},
		logger:  logger,
	}
}

// Upload stores data under path and returns the reference to persist
func (s *Store) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("building upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("uploading %s: status %d: %s", path, resp.StatusCode, body)
	}

	s.logger.Debug("object uploaded",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
	)
	return path, nil
}

// PublicURL returns the public URL for a stored reference
func (s *Store) PublicURL(ref string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, ref)
}
