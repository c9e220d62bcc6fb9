package artist

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mira/api/internal/metrics"
)

type fakeGenerator struct {
	name  string
	model string
	err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeGenerator) Name() string  { return f.name }
func (f *fakeGenerator) Model() string { return f.model }

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, &VendorError{Vendor: f.name, Err: f.err}
	}
	return []byte("png-bytes"), nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeObjects struct {
	lastPath string
}

func (f *fakeObjects) Upload(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	f.lastPath = path
	return path, nil
}

func newTestAgent(primary, fallback ImageGenerator, cfg Config) (*Agent, *fakeObjects) {
	objects := &fakeObjects{}
	prompts := NewPromptBuilder(PromptConfig{
		MaxTotalWords:          120,
		IncludeKids:            true,
		KidLikenessProbability: 0.5,
	}, rand.New(rand.NewSource(1)))
	agent := NewAgent(primary, fallback, prompts, objects, cfg,
		metrics.New(prometheus.NewRegistry()), zap.NewNop())
	return agent, objects
}

func coverRequest() CoverRequest {
	return CoverRequest{
		StoryID:          uuid.New(),
		Title:            "The Leaf Kingdom",
		CoverDescription: "a castle of golden leaves under a pink sky",
		KidName:          "Luna",
		KidAppearance:    "curly brown hair and green boots",
	}
}

func TestPrimarySucceedsFirstAttempt(t *testing.T) {
	primary := &fakeGenerator{name: "google", model: "imagen-3.0-generate-002"}
	fallback := &fakeGenerator{name: "openai", model: "dall-e-3"}
	agent, objects := newTestAgent(primary, fallback, Config{MaxAttempts: 2, FallbackEnabled: true})

	result, err := agent.CreateCover(context.Background(), coverRequest())
	if err != nil {
		t.Fatalf("CreateCover failed: %v", err)
	}

	if result.VendorUsed != "google" {
		t.Errorf("expected vendor google, got %s", result.VendorUsed)
	}
	if result.AttemptsMade != 1 {
		t.Errorf("expected 1 attempt, got %d", result.AttemptsMade)
	}
	if result.FallbackUsed {
		t.Error("fallback should not have been used")
	}
	if fallback.callCount() != 0 {
		t.Errorf("fallback vendor was called %d times", fallback.callCount())
	}
	if result.ImageRef != objects.lastPath {
		t.Errorf("result ref %q does not match uploaded path %q", result.ImageRef, objects.lastPath)
	}
}

// Primary exhausted with quota errors, fallback succeeds on its single
// attempt: total attempts is max_attempts + 1 and the fallback vendor is
// reported.
func TestFallbackAfterPrimaryExhausted(t *testing.T) {
	primary := &fakeGenerator{name: "google", model: "imagen-3.0-generate-002", err: errors.New("quota exceeded")}
	fallback := &fakeGenerator{name: "openai", model: "dall-e-3"}
	agent, _ := newTestAgent(primary, fallback, Config{MaxAttempts: 2, FallbackEnabled: true})

	result, err := agent.CreateCover(context.Background(), coverRequest())
	if err != nil {
		t.Fatalf("CreateCover failed: %v", err)
	}

	if result.VendorUsed != "openai" {
		t.Errorf("expected vendor openai, got %s", result.VendorUsed)
	}
	if result.AttemptsMade != 3 {
		t.Errorf("expected 3 attempts, got %d", result.AttemptsMade)
	}
	if !result.FallbackUsed {
		t.Error("fallback_used should be true")
	}
	if result.Model != "dall-e-3" {
		t.Errorf("expected fallback model reported, got %s", result.Model)
	}
	if primary.callCount() != 2 {
		t.Errorf("primary should have been tried twice, got %d", primary.callCount())
	}
}

// A fallback with the same vendor name as the primary is skipped: there is
// no point retrying the same vendor under two names.
func TestIdenticalFallbackVendorSkipped(t *testing.T) {
	primary := &fakeGenerator{name: "google", model: "imagen-3.0-generate-002", err: errors.New("unavailable")}
	fallback := &fakeGenerator{name: "google", model: "imagen-3.0-generate-001"}
	agent, _ := newTestAgent(primary, fallback, Config{MaxAttempts: 2, FallbackEnabled: true})

	result, err := agent.CreateCover(context.Background(), coverRequest())
	if err == nil {
		t.Fatal("CreateCover should fail when only the failing primary is eligible")
	}

	if result.AttemptsMade != 2 {
		t.Errorf("expected exactly max_attempts=2 attempts, got %d", result.AttemptsMade)
	}
	if fallback.callCount() != 0 {
		t.Errorf("identical fallback vendor was called %d times", fallback.callCount())
	}
}

func TestFallbackDisabled(t *testing.T) {
	primary := &fakeGenerator{name: "google", model: "imagen-3.0-generate-002", err: errors.New("unavailable")}
	fallback := &fakeGenerator{name: "openai", model: "dall-e-3"}
	agent, _ := newTestAgent(primary, fallback, Config{MaxAttempts: 2, FallbackEnabled: false})

	if _, err := agent.CreateCover(context.Background(), coverRequest()); err == nil {
		t.Fatal("CreateCover should fail with fallback disabled")
	}
	if fallback.callCount() != 0 {
		t.Errorf("disabled fallback vendor was called %d times", fallback.callCount())
	}
}

func TestExhaustionReturnsTaggedVendorError(t *testing.T) {
	cause := errors.New("content policy rejection")
	primary := &fakeGenerator{name: "google", model: "imagen-3.0-generate-002", err: errors.New("quota exceeded")}
	fallback := &fakeGenerator{name: "openai", model: "dall-e-3", err: cause}
	agent, _ := newTestAgent(primary, fallback, Config{MaxAttempts: 2, FallbackEnabled: true})

	result, err := agent.CreateCover(context.Background(), coverRequest())
	if err == nil {
		t.Fatal("CreateCover should fail when both vendors are exhausted")
	}

	var ve *VendorError
	if !errors.As(err, &ve) {
		t.Fatalf("expected a VendorError, got %T: %v", err, err)
	}
	if ve.Vendor != "openai" {
		t.Errorf("expected the last vendor tag openai, got %s", ve.Vendor)
	}
	if !errors.Is(err, cause) {
		t.Error("exhaustion error should carry the last underlying failure")
	}
	if result.AttemptsMade != 3 {
		t.Errorf("expected 3 attempts, got %d", result.AttemptsMade)
	}
}
