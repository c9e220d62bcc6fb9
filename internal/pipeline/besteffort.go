package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// bestEffort runs a side effect whose failure is tolerated: it is logged,
// never surfaced to the caller and never retried. Auxiliary writes like the
// story-input record go through this rather than ad hoc error swallowing.
func (p *Processor) bestEffort(ctx context.Context, name string, logger *zap.Logger, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		logger.Warn("best-effort side effect failed",
			zap.String("effect", name),
			zap.Error(err),
		)
	}
}
