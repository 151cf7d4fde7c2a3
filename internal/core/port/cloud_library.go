package port

import (
	"context"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
)

// CloudLibraryClient talks to the external cloud library service.
//
// ListPendingApprovals fetches one cursor page of submissions awaiting a
// decision. A nil page with a nil error means the remote source produced no
// page structure at all. Attribution tags the request with the acting user's
// identity as required by the remote API.
//
// UpdateApprovalStatus requests a state transition and reports it as a tagged
// StatusUpdate. Remote-side domain rejections are returned as
// *domain.CloudLibraryError; anything else is a transport failure.
type CloudLibraryClient interface {
	ListPendingApprovals(ctx context.Context, take int, cursor string, pageBackwards bool, attribution string) (*domain.SubmissionPage, error)
	UpdateApprovalStatus(ctx context.Context, submissionID string, state domain.SubmissionState, description string) (domain.StatusUpdate, error)
}
