package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/transport/http/middleware"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/usecase"
)

// CloudLibraryHandler exposes the profile publication moderation endpoints.
type CloudLibraryHandler struct {
	approvals *usecase.ApprovalService
}

// NewCloudLibraryHandler constructs a cloud library handler.
func NewCloudLibraryHandler(approvals *usecase.ApprovalService) *CloudLibraryHandler {
	return &CloudLibraryHandler{approvals: approvals}
}

func (h *CloudLibraryHandler) actor(c *gin.Context) usecase.Actor {
	userID, _ := middleware.GetAuthenticatedUserID(c)
	return usecase.Actor{
		ID:    userID,
		Roles: middleware.GetAuthenticatedRoles(c),
	}
}

// PendingApprovals lists submissions awaiting moderation. An absent or
// malformed body is treated as an empty filter so a bare POST returns the
// first page with defaults.
func (h *CloudLibraryHandler) PendingApprovals(c *gin.Context) {
	if h.approvals == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "approval service unavailable"))
		return
	}

	var req PendingApprovalsRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.approvals.PendingApprovals(c.Request.Context(), h.actor(c), usecase.PendingApprovalsFilter{
		Query:         req.Query,
		Skip:          req.Skip,
		Take:          req.Take,
		Cursor:        req.Cursor,
		PageBackwards: req.PageBackwards,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrNoRecords, Status: http.StatusBadRequest, Message: "No records found."},
		}, http.StatusInternalServerError, "Failed to list pending approvals.")
		return
	}

	data := make([]SubmissionPayload, 0, len(result.Submissions))
	for _, sub := range result.Submissions {
		data = append(data, toSubmissionPayload(sub))
	}

	c.JSON(http.StatusOK, PendingApprovalsResponse{
		Count:           result.Count,
		Data:            data,
		StartCursor:     result.PageInfo.StartCursor,
		EndCursor:       result.PageInfo.EndCursor,
		HasNextPage:     result.PageInfo.HasNextPage,
		HasPreviousPage: result.PageInfo.HasPreviousPage,
	})
}

// Approve records an administrator decision on a pending submission.
func (h *CloudLibraryHandler) Approve(c *gin.Context) {
	if h.approvals == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "approval service unavailable"))
		return
	}

	var req ApproveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	state, ok := parseApproveState(req.ApproveState)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "unknown approve state"))
		return
	}

	result, err := h.approvals.ApplyDecision(c.Request.Context(), h.actor(c), usecase.ApplyDecisionInput{
		SubmissionID: req.ID,
		State:        state,
		Description:  req.ApprovalDescription,
	})
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrApprovalUpdateFailed, Status: http.StatusBadRequest, Message: "Approval update failed."},
		}, http.StatusInternalServerError, "Approval update failed.")
		return
	}

	if result.Soft != nil {
		c.JSON(http.StatusOK, SoftResultPayload{
			IsSuccess: result.Soft.IsSuccess,
			Message:   result.Soft.Message,
		})
		return
	}

	c.JSON(http.StatusOK, toSubmissionPayload(*result.Submission))
}

// PublishCancel withdraws the caller's own publish request. Outcomes are
// reported as a SoftResult over 200; only a missing body is a protocol error.
func (h *CloudLibraryHandler) PublishCancel(c *gin.Context) {
	if h.approvals == nil {
		c.JSON(http.StatusServiceUnavailable, NewErrorResponse(c, "approval service unavailable"))
		return
	}

	var req PublishCancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	result := h.approvals.CancelByAuthor(c.Request.Context(), h.actor(c), req.ID)

	c.JSON(http.StatusOK, SoftResultPayload{
		IsSuccess: result.IsSuccess,
		Message:   result.Message,
	})
}

func toSubmissionPayload(sub domain.Submission) SubmissionPayload {
	payload := SubmissionPayload{
		ID:                  sub.ID,
		Title:               sub.Title,
		Namespace:           sub.Namespace,
		Description:         sub.Description,
		ContributorName:     sub.ContributorName,
		License:             sub.License,
		AuthorName:          sub.AuthorName,
		ApprovalStatus:      sub.State.ApprovalStatus(),
		ApprovalDescription: sub.ApprovalDescription,
	}
	if !sub.PublishDate.IsZero() {
		publishDate := sub.PublishDate
		payload.PublishDate = &publishDate
	}
	return payload
}

func parseApproveState(raw string) (domain.SubmissionState, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "PENDING":
		return domain.StatePending, true
	case "APPROVED":
		return domain.StateApproved, true
	case "REJECTED":
		return domain.StateRejected, true
	case "CANCELLED", "CANCELED":
		return domain.StateCancelled, true
	default:
		return domain.StateUnknown, false
	}
}
