package jira

import (
	"time"

	"github.com/spec-kit/jira-mirror/internal/domain"
)

// Page is one slice of the remote result set. A nil NextCursor signals
// the final page.
type Page struct {
	Tickets    []domain.Ticket
	NextCursor *string
}

type searchRequest struct {
	JQL           string   `json:"jql"`
	MaxResults    int      `json:"maxResults"`
	Fields        []string `json:"fields"`
	NextPageToken *string  `json:"nextPageToken,omitempty"`
}

type searchResponse struct {
	Issues        []issue `json:"issues"`
	NextPageToken *string `json:"nextPageToken"`
}

type issue struct {
	Key    string      `json:"key"`
	Fields issueFields `json:"fields"`
}

type issueFields struct {
	Summary        string      `json:"summary"`
	Status         namedField  `json:"status"`
	Priority       namedField  `json:"priority"`
	IssueType      namedField  `json:"issuetype"`
	Assignee       *person     `json:"assignee"`
	Reporter       *person     `json:"reporter"`
	Created        string      `json:"created"`
	Updated        string      `json:"updated"`
	ResolutionDate *string     `json:"resolutiondate"`
	Labels         []string    `json:"labels"`
	Project        projectInfo `json:"project"`
}

type namedField struct {
	Name string `json:"name"`
}

type person struct {
	DisplayName string `json:"displayName"`
}

type projectInfo struct {
	Key string `json:"key"`
}

// searchFields is the explicit field list requested from the remote,
// one entry per mirrored ticket attribute.
var searchFields = []string{
	"summary",
	"status",
	"priority",
	"issuetype",
	"assignee",
	"reporter",
	"created",
	"updated",
	"resolutiondate",
	"labels",
	"project",
}

// jiraTimeLayout is the timestamp format Jira Cloud emits:
// 2024-05-01T09:30:00.000+0000.
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

func parseJiraTime(value string) (time.Time, error) {
	if parsed, err := time.Parse(jiraTimeLayout, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.RFC3339, value)
}
