package domain

import "time"

// ApprovalDecidedEvent records an administrator decision on a submission.
type ApprovalDecidedEvent struct {
	EventID      string
	SubmissionID string
	State        SubmissionState
	Description  string
	DecidedBy    int
	DecidedAt    time.Time
}

// PublishCancelledEvent records an author withdrawing a pending submission.
type PublishCancelledEvent struct {
	EventID      string
	ProfileID    int
	SubmissionID string
	CancelledBy  int
	CancelledAt  time.Time
}
