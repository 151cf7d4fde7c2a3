package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/port"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/repository"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100

	// attributionPrefix tags cloud library requests with the acting user's
	// registry identity, as the remote API requires.
	attributionPrefix = "PD"
)

var (
	// ErrNoRecords indicates the cloud library returned no page structure at all.
	ErrNoRecords = errors.New("no records found")
	// ErrApprovalUpdateFailed indicates the status update call produced no submission.
	ErrApprovalUpdateFailed = errors.New("approval update failed")
)

// Actor identifies the authenticated user performing an operation. Identity is
// always passed explicitly; nothing is read from ambient state.
type Actor struct {
	ID    int
	Roles []string
}

// PendingApprovalsFilter narrows and pages the approval queue listing.
type PendingApprovalsFilter struct {
	Query         string
	Skip          int
	Take          int
	Cursor        string
	PageBackwards bool
}

// PendingApprovalsResult is one page of the approval queue.
//
// When Query is empty, Count is the cloud library's collection-wide total.
// When Query is set, Count reflects only the matches within the fetched page:
// filtering happens client-side on top of cursor pagination, so globally
// accurate filtered counts are not available. PageInfo always passes through
// the remote cursors unchanged.
type PendingApprovalsResult struct {
	Submissions []domain.Submission
	Count       int
	PageInfo    domain.PageInfo
}

// ApplyDecisionInput is an administrator decision on a submission.
type ApplyDecisionInput struct {
	SubmissionID string
	State        domain.SubmissionState
	Description  string
}

// DecisionResult carries either the updated submission or a soft failure.
// Exactly one of the two fields is set.
type DecisionResult struct {
	Submission *domain.Submission
	Soft       *domain.SoftResult
}

// ApprovalService moderates publication of profiles into the cloud library:
// it lists pending submissions for administrators and executes
// approve/reject/cancel transitions, keeping the local mirror in sync.
type ApprovalService struct {
	cloudLib port.CloudLibraryClient
	profiles port.ProfileRepository
	users    port.UserRepository
	notifier port.Notifier
	events   port.EventPublisher
	logger   *zap.Logger
	now      func() time.Time
}

// NewApprovalService constructs an ApprovalService.
func NewApprovalService(
	cloudLib port.CloudLibraryClient,
	profiles port.ProfileRepository,
	users port.UserRepository,
	notifier port.Notifier,
	events port.EventPublisher,
	logger *zap.Logger,
) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		cloudLib: cloudLib,
		profiles: profiles,
		users:    users,
		notifier: notifier,
		events:   events,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock allows injection of a custom clock (primarily for testing).
func (s *ApprovalService) WithClock(now func() time.Time) *ApprovalService {
	if now != nil {
		s.now = now
	}
	return s
}

// PendingApprovals fetches one cursor page of submissions awaiting a decision
// and applies the optional text filter, re-sort, and skip on top of it. The
// filter never re-queries the remote source; it only sees the fetched page.
func (s *ApprovalService) PendingApprovals(ctx context.Context, actor Actor, filter PendingApprovalsFilter) (*PendingApprovalsResult, error) {
	if filter.Take > maxPageSize {
		filter.Take = maxPageSize
	}
	if filter.Take <= 0 {
		filter.Take = defaultPageSize
	}
	if filter.Skip < 0 {
		filter.Skip = 0
	}

	attribution := fmt.Sprintf("%s%d", attributionPrefix, actor.ID)
	page, err := s.cloudLib.ListPendingApprovals(ctx, filter.Take, filter.Cursor, filter.PageBackwards, attribution)
	if err != nil {
		return nil, fmt.Errorf("list pending approvals: %w", err)
	}
	if page == nil {
		return nil, ErrNoRecords
	}

	items := append([]domain.Submission(nil), page.Items...)

	if filter.Query != "" {
		query := strings.ToLower(filter.Query)
		filtered := items[:0]
		for _, sub := range items {
			if submissionMatches(sub, query) {
				filtered = append(filtered, sub)
			}
		}
		items = filtered

		// Client-side pagination layered on the filtered page. Remote
		// cursors are unaffected.
		if filter.Skip > 0 {
			if filter.Skip >= len(items) {
				items = items[:0]
			} else {
				items = items[filter.Skip:]
			}
		}
	}

	sortSubmissions(items)

	count := page.TotalCount
	if filter.Query != "" {
		count = len(items)
	}

	return &PendingApprovalsResult{
		Submissions: items,
		Count:       count,
		PageInfo:    page.PageInfo,
	}, nil
}

func submissionMatches(sub domain.Submission, query string) bool {
	for _, field := range []string{
		sub.Title,
		sub.Namespace,
		sub.Description,
		sub.ContributorName,
		sub.License,
		sub.AuthorName,
	} {
		if field == "" {
			continue
		}
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// sortSubmissions orders the queue deterministically: state first (pending
// ahead of decided), then effective title, then scheme-stripped namespace,
// then publish date.
func sortSubmissions(items []domain.Submission) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.State != b.State {
			return a.State < b.State
		}
		at, bt := effectiveTitle(a), effectiveTitle(b)
		if at != bt {
			return at < bt
		}
		an, bn := stripScheme(a.Namespace), stripScheme(b.Namespace)
		if an != bn {
			return an < bn
		}
		return a.PublishDate.Before(b.PublishDate)
	})
}

// effectiveTitle falls back to the namespace, with its URI scheme stripped,
// when a submission has no title.
func effectiveTitle(sub domain.Submission) string {
	if sub.Title == "" {
		return stripScheme(sub.Namespace)
	}
	return strings.TrimSpace(sub.Title)
}

func stripScheme(namespace string) string {
	namespace = strings.ReplaceAll(namespace, "https://", "")
	namespace = strings.ReplaceAll(namespace, "http://", "")
	return strings.TrimSpace(namespace)
}

// ApplyDecision executes an administrator decision. The remote store is
// updated first; the author notification afterwards is best-effort and never
// affects the committed transition or the returned result.
func (s *ApprovalService) ApplyDecision(ctx context.Context, actor Actor, input ApplyDecisionInput) (DecisionResult, error) {
	if strings.TrimSpace(input.SubmissionID) == "" {
		s.logger.Warn("approval requested for profile without cloud library id", zap.Int("actor_id", actor.ID))
		return DecisionResult{Soft: &domain.SoftResult{Message: "Profile not in cloud library."}}, nil
	}

	update, err := s.cloudLib.UpdateApprovalStatus(ctx, input.SubmissionID, input.State, input.Description)
	if err != nil {
		return DecisionResult{}, fmt.Errorf("update approval status: %w", err)
	}
	if update.Outcome == domain.StatusUpdateFailed || update.Submission == nil {
		return DecisionResult{}, ErrApprovalUpdateFailed
	}

	s.notifyDecision(ctx, input, *update.Submission)
	s.publishDecision(ctx, actor, input)

	return DecisionResult{Submission: update.Submission}, nil
}

// notifyDecision emails the authoring user about the new state. Any failure
// along the way is logged and swallowed.
func (s *ApprovalService) notifyDecision(ctx context.Context, input ApplyDecisionInput, submission domain.Submission) {
	profile, err := s.profiles.FindByCloudLibraryID(ctx, input.SubmissionID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("lookup profile for decision notification failed",
				zap.String("submission_id", input.SubmissionID), zap.Error(err))
		}
		return
	}

	author, err := s.users.GetByID(ctx, profile.AuthorID)
	if err != nil {
		s.logger.Warn("lookup author for decision notification failed",
			zap.Int("author_id", profile.AuthorID), zap.Error(err))
		return
	}

	summary := changeSummary(input.State)

	switch input.State {
	case domain.StateApproved:
		err = s.notifier.NotifyApproved(ctx, submission, summary, *author)
	case domain.StateRejected:
		err = s.notifier.NotifyRejected(ctx, submission, summary, *author)
	default:
		err = s.notifier.NotifyStatusChanged(ctx, submission, summary, *author)
	}
	if err != nil {
		s.logger.Warn("decision notification failed",
			zap.String("submission_id", input.SubmissionID),
			zap.String("state", input.State.String()),
			zap.Error(err))
	}
}

// changeSummary renders the human-readable description of the new state used
// in notification emails.
func changeSummary(state domain.SubmissionState) string {
	switch state {
	case domain.StateCancelled:
		return "Cancel Profile Submission and Remove from Submission Queue"
	case domain.StatePending:
		return "Remain in Submission Queue as Pending Submission"
	default:
		return state.String()
	}
}

func (s *ApprovalService) publishDecision(ctx context.Context, actor Actor, input ApplyDecisionInput) {
	if s.events == nil {
		return
	}
	event := domain.ApprovalDecidedEvent{
		SubmissionID: input.SubmissionID,
		State:        input.State,
		Description:  input.Description,
		DecidedBy:    actor.ID,
		DecidedAt:    s.now().UTC(),
	}
	if err := s.events.PublishApprovalDecided(ctx, event); err != nil {
		s.logger.Warn("publish approval decided event failed",
			zap.String("submission_id", input.SubmissionID), zap.Error(err))
	}
}

// CancelByAuthor withdraws the author's own pending submission. The local
// mirror is cleared only after the cloud library confirms the cancellation;
// a submission already cancelled remotely counts as confirmation, so the
// operation is idempotent. All failures come back as soft results.
func (s *ApprovalService) CancelByAuthor(ctx context.Context, actor Actor, profileID int) domain.SoftResult {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("cancel requested for unknown profile", zap.Int("profile_id", profileID))
			return domain.SoftResult{Message: "Profile not found."}
		}
		s.logger.Error("load profile for cancel failed", zap.Int("profile_id", profileID), zap.Error(err))
		return domain.SoftResult{Message: "Error cancelling publish request."}
	}

	var submissionID string
	if profile.CloudLibraryID != nil {
		submissionID = *profile.CloudLibraryID
	}

	reason := fmt.Sprintf("Canceled by user %d", actor.ID)
	update, err := s.cloudLib.UpdateApprovalStatus(ctx, submissionID, domain.StateCancelled, reason)
	if err != nil {
		var cloudErr *domain.CloudLibraryError
		if errors.As(err, &cloudErr) {
			s.logger.Error("cloud library rejected cancel",
				zap.Int("profile_id", profileID), zap.String("message", cloudErr.Message))
			return domain.SoftResult{Message: cloudErr.Message}
		}
		s.logger.Error("cancel publish request failed", zap.Int("profile_id", profileID), zap.Error(err))
		return domain.SoftResult{Message: "Error cancelling publish request."}
	}

	switch update.Outcome {
	case domain.StatusUpdated, domain.StatusAlreadyInState:
		// Confirmed cancelled; safe to unlink the mirror.
	default:
		s.logger.Warn("cancel not confirmed by cloud library",
			zap.Int("profile_id", profileID), zap.String("reason", update.Reason))
		return domain.SoftResult{Message: "Status update failed."}
	}

	profile.CloudLibraryID = nil
	profile.PendingApproval = nil
	if err := s.profiles.Update(ctx, *profile); err != nil {
		s.logger.Error("clear profile mirror failed", zap.Int("profile_id", profileID), zap.Error(err))
		return domain.SoftResult{Message: "Error cancelling publish request."}
	}

	s.notifyCancel(ctx, actor, *profile)
	s.publishCancel(ctx, actor, profileID, submissionID)

	return domain.SoftResult{IsSuccess: true, Message: "Cancelled publish request."}
}

func (s *ApprovalService) notifyCancel(ctx context.Context, actor Actor, profile domain.LocalProfile) {
	requester, err := s.users.GetByID(ctx, actor.ID)
	if err != nil {
		s.logger.Warn("lookup requester for cancel notification failed",
			zap.Int("user_id", actor.ID), zap.Error(err))
		return
	}
	if err := s.notifier.NotifyCancelled(ctx, profile, *requester); err != nil {
		s.logger.Warn("cancel notification failed", zap.Int("profile_id", profile.ID), zap.Error(err))
	}
}

func (s *ApprovalService) publishCancel(ctx context.Context, actor Actor, profileID int, submissionID string) {
	if s.events == nil {
		return
	}
	event := domain.PublishCancelledEvent{
		ProfileID:    profileID,
		SubmissionID: submissionID,
		CancelledBy:  actor.ID,
		CancelledAt:  s.now().UTC(),
	}
	if err := s.events.PublishPublishCancelled(ctx, event); err != nil {
		s.logger.Warn("publish cancel event failed", zap.Int("profile_id", profileID), zap.Error(err))
	}
}
