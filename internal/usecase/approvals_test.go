package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/repository"
)

type cloudLibMock struct {
	page    *domain.SubmissionPage
	listErr error

	update    domain.StatusUpdate
	updateErr error

	listCalls   int
	lastTake    int
	lastCursor  string
	lastBack    bool
	lastAttrib  string
	updateCalls int
	lastSubID   string
	lastState   domain.SubmissionState
	lastDesc    string
}

func (m *cloudLibMock) ListPendingApprovals(_ context.Context, take int, cursor string, pageBackwards bool, attribution string) (*domain.SubmissionPage, error) {
	m.listCalls++
	m.lastTake = take
	m.lastCursor = cursor
	m.lastBack = pageBackwards
	m.lastAttrib = attribution
	return m.page, m.listErr
}

func (m *cloudLibMock) UpdateApprovalStatus(_ context.Context, submissionID string, state domain.SubmissionState, description string) (domain.StatusUpdate, error) {
	m.updateCalls++
	m.lastSubID = submissionID
	m.lastState = state
	m.lastDesc = description
	return m.update, m.updateErr
}

type profileRepoMock struct {
	profiles map[int]domain.LocalProfile
	byCloud  map[string]domain.LocalProfile

	updateErr error
	updated   []domain.LocalProfile
}

func (m *profileRepoMock) GetByID(_ context.Context, id int) (*domain.LocalProfile, error) {
	profile, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := profile
	return &copy, nil
}

func (m *profileRepoMock) FindByCloudLibraryID(_ context.Context, cloudLibraryID string) (*domain.LocalProfile, error) {
	profile, ok := m.byCloud[cloudLibraryID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := profile
	return &copy, nil
}

func (m *profileRepoMock) Update(_ context.Context, profile domain.LocalProfile) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = append(m.updated, profile)
	return nil
}

type userRepoMock struct {
	users map[int]domain.User
}

func (m *userRepoMock) GetByID(_ context.Context, id int) (*domain.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := user
	return &copy, nil
}

type notifierMock struct {
	err error

	approved  []string
	rejected  []string
	changed   []string
	cancelled []int
	summaries []string
}

func (m *notifierMock) NotifyApproved(_ context.Context, submission domain.Submission, changeSummary string, _ domain.User) error {
	m.approved = append(m.approved, submission.ID)
	m.summaries = append(m.summaries, changeSummary)
	return m.err
}

func (m *notifierMock) NotifyRejected(_ context.Context, submission domain.Submission, changeSummary string, _ domain.User) error {
	m.rejected = append(m.rejected, submission.ID)
	m.summaries = append(m.summaries, changeSummary)
	return m.err
}

func (m *notifierMock) NotifyStatusChanged(_ context.Context, submission domain.Submission, changeSummary string, _ domain.User) error {
	m.changed = append(m.changed, submission.ID)
	m.summaries = append(m.summaries, changeSummary)
	return m.err
}

func (m *notifierMock) NotifyCancelled(_ context.Context, profile domain.LocalProfile, _ domain.User) error {
	m.cancelled = append(m.cancelled, profile.ID)
	return m.err
}

type eventsMock struct {
	err       error
	decided   []domain.ApprovalDecidedEvent
	cancelled []domain.PublishCancelledEvent
}

func (m *eventsMock) PublishApprovalDecided(_ context.Context, event domain.ApprovalDecidedEvent) error {
	m.decided = append(m.decided, event)
	return m.err
}

func (m *eventsMock) PublishPublishCancelled(_ context.Context, event domain.PublishCancelledEvent) error {
	m.cancelled = append(m.cancelled, event)
	return m.err
}

func newApprovalFixture(cloudLib *cloudLibMock) (*ApprovalService, *profileRepoMock, *userRepoMock, *notifierMock, *eventsMock) {
	profiles := &profileRepoMock{
		profiles: map[int]domain.LocalProfile{},
		byCloud:  map[string]domain.LocalProfile{},
	}
	users := &userRepoMock{users: map[int]domain.User{}}
	notifier := &notifierMock{}
	events := &eventsMock{}
	service := NewApprovalService(cloudLib, profiles, users, notifier, events, nil).
		WithClock(func() time.Time { return time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC) })
	return service, profiles, users, notifier, events
}

func singlePage(items ...domain.Submission) *domain.SubmissionPage {
	return &domain.SubmissionPage{
		Items:      items,
		TotalCount: len(items),
		PageInfo: domain.PageInfo{
			StartCursor: "start",
			EndCursor:   "end",
			HasNextPage: true,
		},
	}
}

func TestPendingApprovals_ClampsTake(t *testing.T) {
	cases := []struct {
		name string
		take int
		want int
	}{
		{"zero defaults", 0, 25},
		{"negative defaults", -5, 25},
		{"over max clamps", 500, 100},
		{"in range passes", 40, 40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cloudLib := &cloudLibMock{page: singlePage()}
			service, _, _, _, _ := newApprovalFixture(cloudLib)

			_, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{Take: tc.take})
			if err != nil {
				t.Fatalf("PendingApprovals failed: %v", err)
			}
			if cloudLib.lastTake != tc.want {
				t.Errorf("expected take %d, got %d", tc.want, cloudLib.lastTake)
			}
		})
	}
}

func TestPendingApprovals_AttributionCarriesActorID(t *testing.T) {
	cloudLib := &cloudLibMock{page: singlePage()}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	_, err := service.PendingApprovals(context.Background(), Actor{ID: 42}, PendingApprovalsFilter{})
	if err != nil {
		t.Fatalf("PendingApprovals failed: %v", err)
	}
	if cloudLib.lastAttrib != "PD42" {
		t.Errorf("expected attribution PD42, got %q", cloudLib.lastAttrib)
	}
}

func TestPendingApprovals_NilPageIsNoRecords(t *testing.T) {
	cloudLib := &cloudLibMock{page: nil}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	_, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{})
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
}

func TestPendingApprovals_SortsPendingFirstThenTitle(t *testing.T) {
	cloudLib := &cloudLibMock{page: singlePage(
		domain.Submission{ID: "c", Title: "Zeta", State: domain.StateApproved},
		domain.Submission{ID: "b", Title: "Beta", State: domain.StatePending},
		domain.Submission{ID: "a", Title: "Alpha", State: domain.StatePending},
	)}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	result, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{})
	if err != nil {
		t.Fatalf("PendingApprovals failed: %v", err)
	}

	got := make([]string, 0, len(result.Submissions))
	for _, sub := range result.Submissions {
		got = append(got, sub.ID)
	}
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}

func TestPendingApprovals_UntitledSortsByStrippedNamespace(t *testing.T) {
	cloudLib := &cloudLibMock{page: singlePage(
		domain.Submission{ID: "second", Title: "machines", State: domain.StatePending},
		domain.Submission{ID: "first", Namespace: "https://example.org/a/", State: domain.StatePending},
	)}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	result, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{})
	if err != nil {
		t.Fatalf("PendingApprovals failed: %v", err)
	}
	if result.Submissions[0].ID != "first" {
		t.Errorf("expected namespace fallback to sort first, got %s", result.Submissions[0].ID)
	}
}

func TestPendingApprovals_FilterIsCaseInsensitiveAndPageLocal(t *testing.T) {
	page := singlePage(
		domain.Submission{ID: "1", Title: "Pump", ContributorName: "ACME Corp", State: domain.StatePending},
		domain.Submission{ID: "2", Title: "Valve", ContributorName: "Other", State: domain.StatePending},
		domain.Submission{ID: "3", Description: "made by acme", State: domain.StatePending},
	)
	page.TotalCount = 250
	cloudLib := &cloudLibMock{page: page}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	result, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{Query: "acme"})
	if err != nil {
		t.Fatalf("PendingApprovals failed: %v", err)
	}

	if len(result.Submissions) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(result.Submissions))
	}
	if result.Count != 2 {
		t.Errorf("expected page-local filtered count 2, got %d", result.Count)
	}
	if cloudLib.listCalls != 1 {
		t.Errorf("filter must not re-query the remote source, got %d calls", cloudLib.listCalls)
	}
	if result.PageInfo.StartCursor != "start" || result.PageInfo.EndCursor != "end" {
		t.Errorf("cursors must pass through unchanged, got %+v", result.PageInfo)
	}
}

func TestPendingApprovals_SkipAppliesOnlyWithQuery(t *testing.T) {
	page := singlePage(
		domain.Submission{ID: "1", Title: "Pump A", State: domain.StatePending},
		domain.Submission{ID: "2", Title: "Pump B", State: domain.StatePending},
		domain.Submission{ID: "3", Title: "Pump C", State: domain.StatePending},
	)
	page.TotalCount = 99

	t.Run("without query skip is ignored", func(t *testing.T) {
		cloudLib := &cloudLibMock{page: page}
		service, _, _, _, _ := newApprovalFixture(cloudLib)

		result, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{Skip: 2})
		if err != nil {
			t.Fatalf("PendingApprovals failed: %v", err)
		}
		if len(result.Submissions) != 3 {
			t.Errorf("expected full page, got %d items", len(result.Submissions))
		}
		if result.Count != 99 {
			t.Errorf("expected remote total 99, got %d", result.Count)
		}
	})

	t.Run("with query skip slices matches", func(t *testing.T) {
		cloudLib := &cloudLibMock{page: page}
		service, _, _, _, _ := newApprovalFixture(cloudLib)

		result, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{Query: "pump", Skip: 2})
		if err != nil {
			t.Fatalf("PendingApprovals failed: %v", err)
		}
		if len(result.Submissions) != 1 {
			t.Fatalf("expected 1 item after skip, got %d", len(result.Submissions))
		}
		if result.Submissions[0].ID != "3" {
			t.Errorf("expected item 3 after skip, got %s", result.Submissions[0].ID)
		}
	})

	t.Run("skip beyond matches yields empty page", func(t *testing.T) {
		cloudLib := &cloudLibMock{page: page}
		service, _, _, _, _ := newApprovalFixture(cloudLib)

		result, err := service.PendingApprovals(context.Background(), Actor{ID: 1}, PendingApprovalsFilter{Query: "pump", Skip: 10})
		if err != nil {
			t.Fatalf("PendingApprovals failed: %v", err)
		}
		if len(result.Submissions) != 0 {
			t.Errorf("expected empty page, got %d items", len(result.Submissions))
		}
		if result.Count != 0 {
			t.Errorf("expected count 0, got %d", result.Count)
		}
	})
}

func TestApplyDecision_EmptySubmissionIDSkipsRemote(t *testing.T) {
	cloudLib := &cloudLibMock{}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	result, err := service.ApplyDecision(context.Background(), Actor{ID: 1}, ApplyDecisionInput{
		SubmissionID: "   ",
		State:        domain.StateApproved,
	})
	if err != nil {
		t.Fatalf("ApplyDecision failed: %v", err)
	}
	if result.Soft == nil || result.Soft.Message != "Profile not in cloud library." {
		t.Fatalf("expected soft failure, got %+v", result)
	}
	if result.Soft.IsSuccess {
		t.Error("soft failure must not be marked successful")
	}
	if cloudLib.updateCalls != 0 {
		t.Errorf("remote must not be called for empty submission id, got %d calls", cloudLib.updateCalls)
	}
}

func TestApplyDecision_MissingRemoteEchoFails(t *testing.T) {
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusUpdated}}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	_, err := service.ApplyDecision(context.Background(), Actor{ID: 1}, ApplyDecisionInput{
		SubmissionID: "sub-1",
		State:        domain.StateApproved,
	})
	if !errors.Is(err, ErrApprovalUpdateFailed) {
		t.Fatalf("expected ErrApprovalUpdateFailed, got %v", err)
	}
}

func TestApplyDecision_RefusedOutcomeFailsDespiteEcho(t *testing.T) {
	submission := domain.Submission{ID: "sub-1", State: domain.StatePending}
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{
		Outcome:    domain.StatusUpdateFailed,
		Submission: &submission,
		Reason:     "cloud library reported status PENDING",
	}}
	service, _, _, notifier, _ := newApprovalFixture(cloudLib)

	_, err := service.ApplyDecision(context.Background(), Actor{ID: 1}, ApplyDecisionInput{
		SubmissionID: "sub-1",
		State:        domain.StateApproved,
	})
	if !errors.Is(err, ErrApprovalUpdateFailed) {
		t.Fatalf("expected ErrApprovalUpdateFailed, got %v", err)
	}
	if len(notifier.approved) != 0 {
		t.Errorf("expected no approval notification, got %d", len(notifier.approved))
	}
}

func TestApplyDecision_ApprovedNotifiesAuthorAndPublishes(t *testing.T) {
	submission := domain.Submission{ID: "sub-1", Title: "Pump", State: domain.StateApproved}
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusUpdated, Submission: &submission}}
	service, profiles, users, notifier, events := newApprovalFixture(cloudLib)

	cloudID := "sub-1"
	profiles.byCloud["sub-1"] = domain.LocalProfile{ID: 5, AuthorID: 9, CloudLibraryID: &cloudID}
	users.users[9] = domain.User{ID: 9, DisplayName: "Dana", Email: "dana@example.com"}

	result, err := service.ApplyDecision(context.Background(), Actor{ID: 1}, ApplyDecisionInput{
		SubmissionID: "sub-1",
		State:        domain.StateApproved,
		Description:  "looks good",
	})
	if err != nil {
		t.Fatalf("ApplyDecision failed: %v", err)
	}
	if result.Submission == nil || result.Submission.ID != "sub-1" {
		t.Fatalf("expected updated submission in result, got %+v", result)
	}
	if len(notifier.approved) != 1 || notifier.approved[0] != "sub-1" {
		t.Errorf("expected approval notification, got %v", notifier.approved)
	}
	if len(events.decided) != 1 || events.decided[0].DecidedBy != 1 {
		t.Errorf("expected decision event from actor 1, got %v", events.decided)
	}
}

func TestApplyDecision_PendingUsesStatusChangedSummary(t *testing.T) {
	submission := domain.Submission{ID: "sub-1", State: domain.StatePending}
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusUpdated, Submission: &submission}}
	service, profiles, users, notifier, _ := newApprovalFixture(cloudLib)

	cloudID := "sub-1"
	profiles.byCloud["sub-1"] = domain.LocalProfile{ID: 5, AuthorID: 9, CloudLibraryID: &cloudID}
	users.users[9] = domain.User{ID: 9, Email: "dana@example.com"}

	_, err := service.ApplyDecision(context.Background(), Actor{ID: 1}, ApplyDecisionInput{
		SubmissionID: "sub-1",
		State:        domain.StatePending,
	})
	if err != nil {
		t.Fatalf("ApplyDecision failed: %v", err)
	}
	if len(notifier.changed) != 1 {
		t.Fatalf("expected status-changed notification, got %+v", notifier)
	}
	if notifier.summaries[0] != "Remain in Submission Queue as Pending Submission" {
		t.Errorf("unexpected change summary %q", notifier.summaries[0])
	}
}

func TestApplyDecision_NotificationFailureDoesNotAffectResult(t *testing.T) {
	submission := domain.Submission{ID: "sub-1", State: domain.StateRejected}
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusUpdated, Submission: &submission}}
	service, profiles, users, notifier, _ := newApprovalFixture(cloudLib)

	cloudID := "sub-1"
	profiles.byCloud["sub-1"] = domain.LocalProfile{ID: 5, AuthorID: 9, CloudLibraryID: &cloudID}
	users.users[9] = domain.User{ID: 9, Email: "dana@example.com"}
	notifier.err = errors.New("smtp down")

	result, err := service.ApplyDecision(context.Background(), Actor{ID: 1}, ApplyDecisionInput{
		SubmissionID: "sub-1",
		State:        domain.StateRejected,
	})
	if err != nil {
		t.Fatalf("ApplyDecision failed: %v", err)
	}
	if result.Submission == nil {
		t.Fatal("expected submission despite notification failure")
	}
}

func TestCancelByAuthor_UnknownProfileSkipsRemote(t *testing.T) {
	cloudLib := &cloudLibMock{}
	service, _, _, _, _ := newApprovalFixture(cloudLib)

	result := service.CancelByAuthor(context.Background(), Actor{ID: 7}, 404)
	if result.IsSuccess {
		t.Error("expected soft failure")
	}
	if result.Message != "Profile not found." {
		t.Errorf("unexpected message %q", result.Message)
	}
	if cloudLib.updateCalls != 0 {
		t.Errorf("remote must not be called for unknown profile, got %d calls", cloudLib.updateCalls)
	}
}

func TestCancelByAuthor_SuccessClearsMirror(t *testing.T) {
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusUpdated}}
	service, profiles, users, notifier, events := newApprovalFixture(cloudLib)

	cloudID := "sub-9"
	pending := true
	profiles.profiles[12] = domain.LocalProfile{ID: 12, AuthorID: 7, CloudLibraryID: &cloudID, PendingApproval: &pending}
	users.users[7] = domain.User{ID: 7, Email: "author@example.com"}

	result := service.CancelByAuthor(context.Background(), Actor{ID: 7}, 12)
	if !result.IsSuccess {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Message != "Cancelled publish request." {
		t.Errorf("unexpected message %q", result.Message)
	}
	if cloudLib.lastSubID != "sub-9" || cloudLib.lastState != domain.StateCancelled {
		t.Errorf("unexpected remote call: id=%q state=%v", cloudLib.lastSubID, cloudLib.lastState)
	}
	if cloudLib.lastDesc != "Canceled by user 7" {
		t.Errorf("unexpected cancel reason %q", cloudLib.lastDesc)
	}

	if len(profiles.updated) != 1 {
		t.Fatalf("expected one mirror update, got %d", len(profiles.updated))
	}
	cleared := profiles.updated[0]
	if cleared.CloudLibraryID != nil || cleared.PendingApproval != nil {
		t.Errorf("expected cleared mirror, got %+v", cleared)
	}
	if len(notifier.cancelled) != 1 {
		t.Errorf("expected cancel notification, got %v", notifier.cancelled)
	}
	if len(events.cancelled) != 1 || events.cancelled[0].SubmissionID != "sub-9" {
		t.Errorf("expected cancel event for sub-9, got %v", events.cancelled)
	}
}

func TestCancelByAuthor_AlreadyCancelledIsIdempotent(t *testing.T) {
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusAlreadyInState}}
	service, profiles, users, _, _ := newApprovalFixture(cloudLib)

	cloudID := "sub-9"
	profiles.profiles[12] = domain.LocalProfile{ID: 12, AuthorID: 7, CloudLibraryID: &cloudID}
	users.users[7] = domain.User{ID: 7}

	result := service.CancelByAuthor(context.Background(), Actor{ID: 7}, 12)
	if !result.IsSuccess {
		t.Fatalf("expected idempotent success, got %+v", result)
	}
	if len(profiles.updated) != 1 {
		t.Errorf("expected mirror cleared on repeat cancel, got %d updates", len(profiles.updated))
	}
}

func TestCancelByAuthor_RemoteRefusalLeavesMirror(t *testing.T) {
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusUpdateFailed, Reason: "still pending"}}
	service, profiles, _, _, _ := newApprovalFixture(cloudLib)

	cloudID := "sub-9"
	profiles.profiles[12] = domain.LocalProfile{ID: 12, AuthorID: 7, CloudLibraryID: &cloudID}

	result := service.CancelByAuthor(context.Background(), Actor{ID: 7}, 12)
	if result.IsSuccess {
		t.Error("expected soft failure")
	}
	if result.Message != "Status update failed." {
		t.Errorf("unexpected message %q", result.Message)
	}
	if len(profiles.updated) != 0 {
		t.Errorf("mirror must stay untouched on refusal, got %d updates", len(profiles.updated))
	}
}

func TestCancelByAuthor_CloudLibraryErrorSurfacesMessage(t *testing.T) {
	cloudLib := &cloudLibMock{updateErr: &domain.CloudLibraryError{Message: "submission is locked"}}
	service, profiles, _, _, _ := newApprovalFixture(cloudLib)

	cloudID := "sub-9"
	profiles.profiles[12] = domain.LocalProfile{ID: 12, AuthorID: 7, CloudLibraryID: &cloudID}

	result := service.CancelByAuthor(context.Background(), Actor{ID: 7}, 12)
	if result.IsSuccess {
		t.Error("expected soft failure")
	}
	if result.Message != "submission is locked" {
		t.Errorf("expected remote message to surface, got %q", result.Message)
	}
}

func TestCancelByAuthor_TransportErrorIsGeneric(t *testing.T) {
	cloudLib := &cloudLibMock{updateErr: errors.New("connection refused")}
	service, profiles, _, _, _ := newApprovalFixture(cloudLib)

	cloudID := "sub-9"
	profiles.profiles[12] = domain.LocalProfile{ID: 12, AuthorID: 7, CloudLibraryID: &cloudID}

	result := service.CancelByAuthor(context.Background(), Actor{ID: 7}, 12)
	if result.Message != "Error cancelling publish request." {
		t.Errorf("unexpected message %q", result.Message)
	}
}

func TestCancelByAuthor_MirrorUpdateFailureIsGeneric(t *testing.T) {
	cloudLib := &cloudLibMock{update: domain.StatusUpdate{Outcome: domain.StatusUpdated}}
	service, profiles, _, _, _ := newApprovalFixture(cloudLib)

	cloudID := "sub-9"
	profiles.profiles[12] = domain.LocalProfile{ID: 12, AuthorID: 7, CloudLibraryID: &cloudID}
	profiles.updateErr = errors.New("write failed")

	result := service.CancelByAuthor(context.Background(), Actor{ID: 7}, 12)
	if result.IsSuccess {
		t.Error("expected soft failure")
	}
	if result.Message != "Error cancelling publish request." {
		t.Errorf("unexpected message %q", result.Message)
	}
}
