package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/port"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/infra/logger"
)

// LoggingNotifier records notification dispatch for observability without
// delivering anything. Used when SMTP is not configured.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier constructs a notifier backed by structured logging.
func NewLoggingNotifier(log *zap.Logger) *LoggingNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingNotifier{logger: log}
}

func (n *LoggingNotifier) logDecision(kind string, submission domain.Submission, changeSummary string, author domain.User) {
	n.logger.Info("dispatch "+kind+" notification",
		zap.String("submission_id", submission.ID),
		zap.String("namespace", submission.Namespace),
		zap.String("change_summary", changeSummary),
		zap.String("author_email", logger.MaskEmail(author.Email)),
	)
}

func (n *LoggingNotifier) NotifyApproved(_ context.Context, submission domain.Submission, changeSummary string, author domain.User) error {
	n.logDecision("approved", submission, changeSummary, author)
	return nil
}

func (n *LoggingNotifier) NotifyRejected(_ context.Context, submission domain.Submission, changeSummary string, author domain.User) error {
	n.logDecision("rejected", submission, changeSummary, author)
	return nil
}

func (n *LoggingNotifier) NotifyStatusChanged(_ context.Context, submission domain.Submission, changeSummary string, author domain.User) error {
	n.logDecision("status changed", submission, changeSummary, author)
	return nil
}

func (n *LoggingNotifier) NotifyCancelled(_ context.Context, profile domain.LocalProfile, requester domain.User) error {
	n.logger.Info("dispatch cancel notification",
		zap.Int("profile_id", profile.ID),
		zap.String("namespace", profile.Namespace),
		zap.String("requester_email", logger.MaskEmail(requester.Email)),
	)
	return nil
}

var _ port.Notifier = (*LoggingNotifier)(nil)
