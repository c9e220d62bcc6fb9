package approval

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mira/api/internal/models"
)

type fakeSettings struct {
	settings models.UserSettings
	err      error
}

func (f *fakeSettings) GetUserSettings(ctx context.Context, userID uuid.UUID) (models.UserSettings, error) {
	return f.settings, f.err
}

type fakeNotifier struct {
	calls      int
	recipients []string
	err        error
}

func (f *fakeNotifier) NotifyForReview(ctx context.Context, storyID uuid.UUID, recipient string) error {
	f.calls++
	f.recipients = append(f.recipients, recipient)
	return f.err
}

func TestResolveStatusTable(t *testing.T) {
	cases := []struct {
		mode         models.ApprovalMode
		expected     models.StoryStatus
		expectNotify bool
	}{
		{models.ApprovalModeAuto, models.StoryStatusApproved, false},
		{models.ApprovalModeApp, models.StoryStatusPending, false},
		{models.ApprovalModeEmail, models.StoryStatusPending, true},
		{models.ApprovalMode("carrier-pigeon"), models.StoryStatusPending, false},
	}

	for _, tc := range cases {
		t.Run(string(tc.mode), func(t *testing.T) {
			notifier := &fakeNotifier{}
			store := &fakeSettings{settings: models.UserSettings{
				ID:           uuid.New(),
				Email:        "parent@example.com",
				ApprovalMode: tc.mode,
			}}
			r := NewResolver(store, nil, notifier, zap.NewNop())

			status := r.Resolve(context.Background(), uuid.New(), uuid.New())

			if status != tc.expected {
				t.Errorf("mode %q: expected %s, got %s", tc.mode, tc.expected, status)
			}
			if tc.expectNotify && notifier.calls != 1 {
				t.Errorf("mode %q: expected 1 notification, got %d", tc.mode, notifier.calls)
			}
			if !tc.expectNotify && notifier.calls != 0 {
				t.Errorf("mode %q: expected no notification, got %d", tc.mode, notifier.calls)
			}
		})
	}
}

// Policy-lookup errors must never propagate: fail safe toward requiring
// human review.
func TestLookupFailureDefaultsToPending(t *testing.T) {
	store := &fakeSettings{err: errors.New("connection refused")}
	r := NewResolver(store, nil, &fakeNotifier{}, zap.NewNop())

	status := r.Resolve(context.Background(), uuid.New(), uuid.New())

	if status != models.StoryStatusPending {
		t.Errorf("expected pending on lookup failure, got %s", status)
	}
}

func TestNotificationFailureDoesNotAffectStatus(t *testing.T) {
	notifier := &fakeNotifier{err: errors.New("nats: connection closed")}
	store := &fakeSettings{settings: models.UserSettings{
		Email:        "parent@example.com",
		ApprovalMode: models.ApprovalModeEmail,
	}}
	r := NewResolver(store, nil, notifier, zap.NewNop())

	status := r.Resolve(context.Background(), uuid.New(), uuid.New())

	if status != models.StoryStatusPending {
		t.Errorf("expected pending despite notification failure, got %s", status)
	}
	if notifier.calls != 1 {
		t.Errorf("notification should still have been attempted, got %d calls", notifier.calls)
	}
}

func TestNilNotifierIsTolerated(t *testing.T) {
	store := &fakeSettings{settings: models.UserSettings{
		Email:        "parent@example.com",
		ApprovalMode: models.ApprovalModeEmail,
	}}
	r := NewResolver(store, nil, nil, zap.NewNop())

	if status := r.Resolve(context.Background(), uuid.New(), uuid.New()); status != models.StoryStatusPending {
		t.Errorf("expected pending, got %s", status)
	}
}

func TestRecipientComesFromUserSettings(t *testing.T) {
	notifier := &fakeNotifier{}
	store := &fakeSettings{settings: models.UserSettings{
		Email:        "parent@example.com",
		ApprovalMode: models.ApprovalModeEmail,
	}}
	r := NewResolver(store, nil, notifier, zap.NewNop())

	r.Resolve(context.Background(), uuid.New(), uuid.New())

	if len(notifier.recipients) != 1 || notifier.recipients[0] != "parent@example.com" {
		t.Errorf("unexpected recipients: %v", notifier.recipients)
	}
}
