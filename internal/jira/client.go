package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/jira-mirror/internal/config"
	"github.com/spec-kit/jira-mirror/internal/domain"
	"github.com/spec-kit/jira-mirror/pkg/util/errorutil"
)

// Retry-After handling for 429 responses: default when the header is
// missing or unparsable, and a hard cap so one throttled remote cannot
// stall a cycle for long.
const (
	defaultRetryAfter = 60 * time.Second
	maxRetryAfter     = 5 * time.Minute
)

// Client fetches pages of assigned tickets from a Jira instance. It is
// a pure I/O boundary; all merge logic lives with the caller.
type Client struct {
	baseURL    string
	authHeader string
	pageSize   int
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client from configuration. Credentials are sent as
// Basic auth (email:token), the scheme Jira Cloud API tokens use.
func NewClient(cfg config.JiraConfig, logger *zap.Logger) *Client {
	credentials := base64.StdEncoding.EncodeToString([]byte(cfg.Email + ":" + cfg.APIToken))
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Client{
		baseURL:    cfg.BaseURL + "/rest/api/3",
		authHeader: "Basic " + credentials,
		pageSize:   pageSize,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout()},
		logger:     logger,
	}
}

// FetchPage returns one page of tickets updated at or after since,
// resuming from cursor when non-nil. A nil since requests everything
// assigned to the credential's user.
func (c *Client) FetchPage(ctx context.Context, since *time.Time, cursor *string) (*Page, error) {
	request := searchRequest{
		JQL:           buildJQL(since),
		MaxResults:    c.pageSize,
		Fields:        searchFields,
		NextPageToken: cursor,
	}

	body, err := json.Marshal(request)
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search/jql", bytes.NewReader(body))
	if err != nil {
		return nil, errorutil.NewInternalError(err)
	}
	req.Header.Set("Authorization", c.authHeader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errorutil.NewTransientFetch("remote request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, errorutil.NewAuthRejected("jira rejected the configured credentials")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errorutil.NewRateLimited(retryAfter(resp))
	case resp.StatusCode >= 500:
		return nil, errorutil.NewTransientFetch(fmt.Sprintf("jira returned %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, errorutil.NewMalformedResponse(
			fmt.Sprintf("unexpected jira response %d: %s", resp.StatusCode, string(detail)), nil)
	}

	var search searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, errorutil.NewMalformedResponse("undecodable jira payload", err)
	}

	page := &Page{NextCursor: search.NextPageToken}
	for i := range search.Issues {
		ticket, err := convertIssue(&search.Issues[i])
		if err != nil {
			return nil, errorutil.NewMalformedResponse(
				fmt.Sprintf("issue %s has invalid timestamps", search.Issues[i].Key), err)
		}
		page.Tickets = append(page.Tickets, *ticket)
	}
	return page, nil
}

// buildJQL scopes the query to the current user's assignments; with a
// watermark it asks for everything updated at or after it in ascending
// order, otherwise a full fetch in creation order.
func buildJQL(since *time.Time) string {
	if since != nil {
		return fmt.Sprintf(
			"assignee = currentUser() AND updated >= %q ORDER BY updated ASC",
			since.UTC().Format(time.RFC3339))
	}
	return "assignee = currentUser() ORDER BY created DESC"
}

func retryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return defaultRetryAfter
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxRetryAfter {
		return maxRetryAfter
	}
	return wait
}

func convertIssue(raw *issue) (*domain.Ticket, error) {
	created, err := parseJiraTime(raw.Fields.Created)
	if err != nil {
		return nil, err
	}
	updated, err := parseJiraTime(raw.Fields.Updated)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Key:        raw.Key,
		Summary:    raw.Fields.Summary,
		Status:     raw.Fields.Status.Name,
		Priority:   raw.Fields.Priority.Name,
		IssueType:  raw.Fields.IssueType.Name,
		CreatedAt:  created,
		UpdatedAt:  updated,
		Labels:     raw.Fields.Labels,
		ProjectKey: raw.Fields.Project.Key,
	}
	if raw.Fields.Assignee != nil {
		name := raw.Fields.Assignee.DisplayName
		ticket.Assignee = &name
	}
	if raw.Fields.Reporter != nil {
		name := raw.Fields.Reporter.DisplayName
		ticket.Reporter = &name
	}
	if raw.Fields.ResolutionDate != nil && *raw.Fields.ResolutionDate != "" {
		resolved, err := parseJiraTime(*raw.Fields.ResolutionDate)
		if err != nil {
			return nil, err
		}
		ticket.ResolvedAt = &resolved
	}
	return ticket, nil
}
