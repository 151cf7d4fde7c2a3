package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// PendingApprovalsRequest defines the paging and search payload for the
// pending-approvals listing. All fields are optional; an empty body yields
// the first page with defaults.
type PendingApprovalsRequest struct {
	Query         string `json:"query"`
	Skip          int    `json:"skip"`
	Take          int    `json:"take"`
	Cursor        string `json:"cursor"`
	PageBackwards bool   `json:"pageBackwards"`
}

// SubmissionPayload is the wire view of a pending submission.
type SubmissionPayload struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	Namespace           string     `json:"namespace"`
	Description         string     `json:"description,omitempty"`
	ContributorName     string     `json:"contributorName,omitempty"`
	License             string     `json:"license,omitempty"`
	AuthorName          string     `json:"authorName,omitempty"`
	PublishDate         *time.Time `json:"publishDate,omitempty"`
	ApprovalStatus      string     `json:"approvalStatus"`
	ApprovalDescription string     `json:"approvalDescription,omitempty"`
}

// PendingApprovalsResponse wraps a page of submissions with cursors and the
// overall count.
type PendingApprovalsResponse struct {
	Count           int                 `json:"count"`
	Data            []SubmissionPayload `json:"data"`
	StartCursor     string              `json:"startCursor,omitempty"`
	EndCursor       string              `json:"endCursor,omitempty"`
	HasNextPage     bool                `json:"hasNextPage"`
	HasPreviousPage bool                `json:"hasPreviousPage"`
}

// ApproveRequest carries an administrator's decision for a submission.
type ApproveRequest struct {
	ID                  string `json:"id"`
	ApproveState        string `json:"approveState" binding:"required"`
	ApprovalDescription string `json:"approvalDescription"`
}

// PublishCancelRequest identifies the locally mirrored profile whose publish
// request should be withdrawn.
type PublishCancelRequest struct {
	ID int `json:"id" binding:"required"`
}

// SoftResultPayload reports an operation outcome without an error status code.
type SoftResultPayload struct {
	IsSuccess bool   `json:"isSuccess"`
	Message   string `json:"message"`
}
