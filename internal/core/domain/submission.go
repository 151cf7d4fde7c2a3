package domain

import "time"

// SubmissionState describes where a cloud library submission sits in the
// approval workflow. The ordinal order is meaningful: pending submissions
// sort ahead of decided ones in the approval queue.
type SubmissionState int

const (
	StatePending SubmissionState = iota
	StateApproved
	StateRejected
	StateCancelled
	StateUnknown
)

// String returns the display form of the state.
func (s SubmissionState) String() string {
	switch s {
	case StatePending:
		return "Pending"
	case StateApproved:
		return "Approved"
	case StateRejected:
		return "Rejected"
	case StateCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// ApprovalStatus returns the textual status the cloud library API uses on the wire.
func (s SubmissionState) ApprovalStatus() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateApproved:
		return "APPROVED"
	case StateRejected:
		return "REJECTED"
	case StateCancelled:
		return "CANCELLED"
	default:
		return ""
	}
}

// StateFromApprovalStatus maps a cloud library status string back to a state.
func StateFromApprovalStatus(status string) SubmissionState {
	switch status {
	case "PENDING":
		return StatePending
	case "APPROVED":
		return StateApproved
	case "REJECTED":
		return StateRejected
	case "CANCELLED":
		return StateCancelled
	default:
		return StateUnknown
	}
}

// Submission is a profile publication record owned by the external cloud library.
type Submission struct {
	ID                  string
	Title               string
	Namespace           string
	Description         string
	ContributorName     string
	License             string
	AuthorName          string
	PublishDate         time.Time
	State               SubmissionState
	ApprovalDescription string
}

// PageInfo carries the cloud library's cursor pagination metadata. It is
// authoritative only for unfiltered listings.
type PageInfo struct {
	StartCursor     string
	EndCursor       string
	HasNextPage     bool
	HasPreviousPage bool
}

// SubmissionPage is one cursor page of submissions together with the
// collection-wide total reported by the cloud library.
type SubmissionPage struct {
	Items      []Submission
	PageInfo   PageInfo
	TotalCount int
}

// StatusOutcome tags the result of a remote status update. The cloud library
// historically signalled success by returning nothing; the tagged outcome
// makes that explicit so callers never infer success from absent data.
type StatusOutcome int

const (
	// StatusUpdated means the cloud library applied the requested transition.
	StatusUpdated StatusOutcome = iota
	// StatusAlreadyInState means the submission was already in the requested
	// state. Treated as confirmation for idempotent transitions.
	StatusAlreadyInState
	// StatusUpdateFailed means the cloud library kept the submission in a
	// different state. Reason describes what it reported.
	StatusUpdateFailed
)

// StatusUpdate is the remote store's answer to an approval status change.
type StatusUpdate struct {
	Outcome    StatusOutcome
	Submission *Submission
	Reason     string
}

// SoftResult is a business-level outcome reported over a successful transport
// response, as opposed to a protocol error.
type SoftResult struct {
	IsSuccess bool
	Message   string
}

// CloudLibraryError is a domain-level rejection raised by the cloud library,
// distinct from transport failures. Its message is user-visible.
type CloudLibraryError struct {
	Message string
}

func (e *CloudLibraryError) Error() string {
	return e.Message
}
