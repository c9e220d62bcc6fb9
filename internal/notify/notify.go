package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectReviewRequested is the subject review-request events are published on.
// The email worker that turns these into parent-facing mail subscribes to it.
const SubjectReviewRequested = "mira.review.requested"

// ReviewRequested is the event payload for a story awaiting parental review
type ReviewRequested struct {
	StoryID     uuid.UUID `json:"story_id"`
	Recipient   string    `json:"recipient"`
	RequestedAt time.Time `json:"requested_at"`
}

// NATSNotifier publishes review-request events to NATS
type NATSNotifier struct {
	conn   *nats.Conn
	logger *zap.Logger
}

// Connect dials NATS and returns a notifier on the connection
func Connect(natsURL string, logger *zap.Logger) (*NATSNotifier, error) {
	conn, err := nats.Connect(natsURL,
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, err
	}
	return &NATSNotifier{conn: conn, logger: logger}, nil
}

// NotifyForReview publishes a review-request event for the story
func (n *NATSNotifier) NotifyForReview(_ context.Context, storyID uuid.UUID, recipient string) error {
	payload, err := json.Marshal(ReviewRequested{
		StoryID:     storyID,
		Recipient:   recipient,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if err := n.conn.Publish(SubjectReviewRequested, payload); err != nil {
		return err
	}
	n.logger.Debug("review notification published",
		zap.String("story_id", storyID.String()),
		zap.String("subject", SubjectReviewRequested),
	)
	return nil
}

// Connected reports whether the underlying NATS connection is live
func (n *NATSNotifier) Connected() bool {
	return n.conn != nil && n.conn.IsConnected()
}

// Close drains and closes the NATS connection
func (n *NATSNotifier) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
