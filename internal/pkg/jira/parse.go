package jira

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ProgressNotFound is reported when an epic carries no readable progress value.
const ProgressNotFound = "Progress not found"

var (
	progressPattern = regexp.MustCompile(`<span id="value">\s*(\d+(?:\.\d+)?)\s*%\s*</span>`)
	sprintNameAttr  = regexp.MustCompile(`[\[,]name=([^,\]]*)`)
)

type rawIssue struct {
	Key    string                     `json:"key"`
	Self   string                     `json:"self"`
	Fields map[string]json.RawMessage `json:"fields"`
}

type named struct {
	Name string `json:"name"`
}

type optionValue struct {
	Value string `json:"value"`
}

type rawComment struct {
	ID      string `json:"id"`
	Author  User   `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
}

type rawCommentPage struct {
	Comments []rawComment `json:"comments"`
}

type searchResult struct {
	StartAt    int        `json:"startAt"`
	MaxResults int        `json:"maxResults"`
	Total      int        `json:"total"`
	Issues     []rawIssue `json:"issues"`
}

// ParseTime accepts JIRA's millisecond layout and falls back to RFC 3339.
func ParseTime(value string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func decodeIssue(raw rawIssue, fields FieldMap) (Issue, error) {
	issue := Issue{Key: raw.Key, Self: raw.Self}
	f := raw.Fields

	var n named
	decodeField(f, "summary", &issue.Summary)
	decodeField(f, "description", &issue.Description)
	if decodeField(f, "issuetype", &n) {
		issue.Type = n.Name
	}
	n = named{}
	if decodeField(f, "status", &n) {
		issue.Status = n.Name
	}
	n = named{}
	if decodeField(f, "priority", &n) {
		issue.Priority = n.Name
	}

	var assignee, reporter User
	if decodeField(f, "assignee", &assignee) {
		issue.Assignee = &assignee
	}
	if decodeField(f, "reporter", &reporter) {
		issue.Reporter = &reporter
	}
	decodeField(f, "labels", &issue.Labels)

	var parent struct {
		Key string `json:"key"`
	}
	if decodeField(f, "parent", &parent) {
		issue.Parent = parent.Key
	}

	var created, updated string
	if decodeField(f, "created", &created) {
		t, err := ParseTime(created)
		if err != nil {
			return Issue{}, fmt.Errorf("issue %s: created: %w", raw.Key, err)
		}
		issue.Created = t
	}
	if decodeField(f, "updated", &updated) {
		t, err := ParseTime(updated)
		if err != nil {
			return Issue{}, fmt.Errorf("issue %s: updated: %w", raw.Key, err)
		}
		issue.Updated = t
	}

	var page rawCommentPage
	if decodeField(f, "comment", &page) {
		for _, rc := range page.Comments {
			c := Comment{ID: rc.ID, Author: rc.Author, Body: rc.Body}
			if rc.Created != "" {
				t, err := ParseTime(rc.Created)
				if err != nil {
					return Issue{}, fmt.Errorf("issue %s: comment %s: %w", raw.Key, rc.ID, err)
				}
				c.Created = t
			}
			issue.Comments = append(issue.Comments, c)
		}
	}

	issue.StoryPoints = decodePoints(f, fields.StoryPoints)
	issue.OriginalStoryPoints = decodePoints(f, fields.OriginalStoryPoints)

	var wt optionValue
	if decodeField(f, fields.WorkType, &wt) {
		issue.WorkType = wt.Value
	}
	issue.Sprints = decodeSprints(f[fields.Sprints])
	decodeField(f, fields.EpicLink, &issue.EpicLink)
	var progress string
	if decodeField(f, fields.Progress, &progress) {
		issue.Progress = ParseProgress(progress)
	}

	return issue, nil
}

// decodeField unmarshals f[name] into dst and reports whether a non-null
// value of the right shape was present.
func decodeField(f map[string]json.RawMessage, name string, dst interface{}) bool {
	if name == "" {
		return false
	}
	raw, ok := f[name]
	if !ok || isNull(raw) {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// decodePoints reads a numeric estimate. Some instances return numbers as strings.
func decodePoints(f map[string]json.RawMessage, name string) *float64 {
	var v float64
	if decodeField(f, name, &v) {
		return &v
	}
	var s string
	if decodeField(f, name, &s) {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return &parsed
		}
	}
	return nil
}

// decodeSprints accepts both the greenhopper string encoding and sprint objects.
func decodeSprints(raw json.RawMessage) []string {
	if isNull(raw) {
		return nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}

	var names []string
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if name := ParseSprintName(s); name != "" {
				names = append(names, name)
			}
			continue
		}
		var sp Sprint
		if err := json.Unmarshal(item, &sp); err == nil && sp.Name != "" {
			names = append(names, sp.Name)
		}
	}
	return names
}

// ParseSprintName extracts the name attribute from a greenhopper sprint
// string such as "com.atlassian.greenhopper.service.sprint.Sprint@1a[id=1,name=Sprint 5,...]".
// Strings without attributes are returned trimmed.
func ParseSprintName(s string) string {
	if m := sprintNameAttr.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if strings.Contains(s, "[") {
		return ""
	}
	return strings.TrimSpace(s)
}

// ParseProgress extracts the percentage from an epic progress HTML fragment.
func ParseProgress(html string) string {
	if m := progressPattern.FindStringSubmatch(html); m != nil {
		return m[1] + "%"
	}
	return ProgressNotFound
}
