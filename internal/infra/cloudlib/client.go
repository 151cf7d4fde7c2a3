package cloudlib

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/domain"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/core/port"
	"github.com/OPCFoundation/UA-NodesetEditor/internal/infra/config"
)

const userInfoProperty = "CESMIIUserInfo"

// Client implements port.CloudLibraryClient against the cloud library REST API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
	logger  *zap.Logger
}

// New constructs a cloud library client from settings.
func New(cfg config.CloudLibrarySettings, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpc:   &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

type submissionPayload struct {
	ID                  string    `json:"id"`
	Title               string    `json:"title"`
	Namespace           string    `json:"namespace"`
	Description         string    `json:"description"`
	ContributorName     string    `json:"contributorName"`
	License             string    `json:"license"`
	AuthorName          string    `json:"authorName"`
	PublishDate         time.Time `json:"publishDate"`
	ApprovalStatus      string    `json:"approvalStatus"`
	ApprovalDescription string    `json:"approvalDescription"`
}

type pageInfoPayload struct {
	StartCursor     string `json:"startCursor"`
	EndCursor       string `json:"endCursor"`
	HasNextPage     bool   `json:"hasNextPage"`
	HasPreviousPage bool   `json:"hasPreviousPage"`
}

type listRequest struct {
	Take          int               `json:"take"`
	Cursor        string            `json:"cursor,omitempty"`
	PageBackwards bool              `json:"pageBackwards"`
	Properties    map[string]string `json:"properties,omitempty"`
}

type listResponse struct {
	Items      []submissionPayload `json:"items"`
	PageInfo   *pageInfoPayload    `json:"pageInfo"`
	TotalCount int                 `json:"totalCount"`
}

type statusRequest struct {
	Status      string `json:"status"`
	Description string `json:"description,omitempty"`
}

type statusResponse struct {
	Status     string             `json:"status"`
	Changed    bool               `json:"changed"`
	Submission *submissionPayload `json:"submission"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// ListPendingApprovals fetches one cursor page of submissions awaiting approval.
// A remote 404, or a 200 without page structure, yields a nil page.
func (c *Client) ListPendingApprovals(ctx context.Context, take int, cursor string, pageBackwards bool, attribution string) (*domain.SubmissionPage, error) {
	reqBody := listRequest{
		Take:          take,
		Cursor:        cursor,
		PageBackwards: pageBackwards,
	}
	if attribution != "" {
		reqBody.Properties = map[string]string{userInfoProperty: attribution}
	}

	var resp listResponse
	status, err := c.post(ctx, "/api/v1/submissions/pending", reqBody, &resp)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if resp.PageInfo == nil {
		return nil, nil
	}

	items := make([]domain.Submission, 0, len(resp.Items))
	for _, payload := range resp.Items {
		items = append(items, payload.toDomain())
	}

	return &domain.SubmissionPage{
		Items: items,
		PageInfo: domain.PageInfo{
			StartCursor:     resp.PageInfo.StartCursor,
			EndCursor:       resp.PageInfo.EndCursor,
			HasNextPage:     resp.PageInfo.HasNextPage,
			HasPreviousPage: resp.PageInfo.HasPreviousPage,
		},
		TotalCount: resp.TotalCount,
	}, nil
}

// UpdateApprovalStatus requests a submission state transition and maps the
// remote answer to a tagged outcome. The remote reporting the requested state
// without changing anything counts as AlreadyInState, never as a failure.
func (c *Client) UpdateApprovalStatus(ctx context.Context, submissionID string, state domain.SubmissionState, description string) (domain.StatusUpdate, error) {
	reqBody := statusRequest{
		Status:      state.ApprovalStatus(),
		Description: description,
	}

	path := fmt.Sprintf("/api/v1/submissions/%s/status", url.PathEscape(submissionID))

	var resp statusResponse
	status, err := c.post(ctx, path, reqBody, &resp)
	if err != nil {
		return domain.StatusUpdate{}, err
	}
	if status == http.StatusNoContent {
		// Transition acknowledged without an echo of the record.
		return domain.StatusUpdate{Outcome: domain.StatusUpdated}, nil
	}

	var submission *domain.Submission
	if resp.Submission != nil {
		sub := resp.Submission.toDomain()
		submission = &sub
	}

	switch resp.Status {
	case "":
		// Remote acknowledged the transition without reporting a state.
		return domain.StatusUpdate{Outcome: domain.StatusUpdated, Submission: submission}, nil
	case state.ApprovalStatus():
		outcome := domain.StatusAlreadyInState
		if resp.Changed {
			outcome = domain.StatusUpdated
		}
		return domain.StatusUpdate{Outcome: outcome, Submission: submission}, nil
	default:
		return domain.StatusUpdate{
			Outcome:    domain.StatusUpdateFailed,
			Submission: submission,
			Reason:     fmt.Sprintf("cloud library reported status %s", resp.Status),
		}, nil
	}
}

// post issues a JSON request and decodes the response into out. 404 responses
// return their status without decoding; 4xx responses with a structured
// message surface as *domain.CloudLibraryError.
func (c *Client) post(ctx context.Context, path string, in, out any) (int, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return 0, fmt.Errorf("cloud library request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusNoContent:
		return resp.StatusCode, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		var remoteErr errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&remoteErr); err == nil && remoteErr.Message != "" {
			return resp.StatusCode, &domain.CloudLibraryError{Message: remoteErr.Message}
		}
		return resp.StatusCode, fmt.Errorf("cloud library returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return resp.StatusCode, fmt.Errorf("cloud library returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if len(data) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response: %w", err)
	}

	return resp.StatusCode, nil
}

func (p submissionPayload) toDomain() domain.Submission {
	return domain.Submission{
		ID:                  p.ID,
		Title:               p.Title,
		Namespace:           p.Namespace,
		Description:         p.Description,
		ContributorName:     p.ContributorName,
		License:             p.License,
		AuthorName:          p.AuthorName,
		PublishDate:         p.PublishDate,
		State:               domain.StateFromApprovalStatus(p.ApprovalStatus),
		ApprovalDescription: p.ApprovalDescription,
	}
}

var _ port.CloudLibraryClient = (*Client)(nil)
