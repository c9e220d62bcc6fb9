package artist

import (
	"context"
	"fmt"
	"time"
)

// ImageGenerator is implemented once per image-generation vendor. The
// concrete vendor is chosen at construction time; nothing downstream
// branches on vendor names.
type ImageGenerator interface {
	// Name identifies the vendor for observability and fallback-skip checks
	Name() string
	// Model identifies the model used for generation
	Model() string
	// Generate returns the raw image bytes for the prompt
	Generate(ctx context.Context, prompt string) ([]byte, error)
}

// VendorError tags an image-generation failure with the vendor that produced
// it and an optional retry-after hint. It drives the retry/fallback machine
// and carries the last underlying cause once all options are exhausted.
type VendorError struct {
	Vendor     string
	RetryAfter time.Duration
	Err        error
}

func (e *VendorError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("image vendor %s: %v (retry after %s)", e.Vendor, e.Err, e.RetryAfter)
	}
	return fmt.Sprintf("image vendor %s: %v", e.Vendor, e.Err)
}

func (e *VendorError) Unwrap() error {
	return e.Err
}
