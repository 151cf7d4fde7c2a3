package port

import (
	"context"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
)

// Notifier delivers templated notifications about submission state changes.
// Delivery is best-effort: failures are logged by callers and never influence
// the outcome of the transition that triggered them.
type Notifier interface {
	NotifyApproved(ctx context.Context, submission domain.Submission, changeSummary string, author domain.User) error
	NotifyRejected(ctx context.Context, submission domain.Submission, changeSummary string, author domain.User) error
	NotifyStatusChanged(ctx context.Context, submission domain.Submission, changeSummary string, author domain.User) error
	NotifyCancelled(ctx context.Context, profile domain.LocalProfile, requester domain.User) error
}
