package jira

import (
	"strings"
	"time"
)

// TimeLayout is the timestamp layout JIRA Server uses in REST payloads.
const TimeLayout = "2006-01-02T15:04:05.000-0700"

// FieldMap names the custom fields that carry data outside JIRA's core schema.
type FieldMap struct {
	StoryPoints         string
	OriginalStoryPoints string
	WorkType            string
	Sprints             string
	EpicLink            string
	Progress            string
}

// User is a JIRA account as returned by /myself or embedded in issues.
type User struct {
	Name         string `json:"name"`
	Key          string `json:"key"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Active       bool   `json:"active"`
}

// FirstName returns the first word of the display name, or the login name
// when no display name is set.
func (u User) FirstName() string {
	if fields := strings.Fields(u.DisplayName); len(fields) > 0 {
		return fields[0]
	}
	return u.Name
}

// Comment is a single issue comment.
type Comment struct {
	ID      string
	Author  User
	Body    string
	Created time.Time
}

// Board is an agile board.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Sprint is an agile sprint.
type Sprint struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
	Goal  string `json:"goal"`
}

// Issue is the flattened view of a JIRA issue used throughout jiaz.
type Issue struct {
	Key         string
	Self        string
	Summary     string
	Description string
	Type        string
	Status      string
	Priority    string
	Assignee    *User
	Reporter    *User
	Labels      []string
	Created     time.Time
	Updated     time.Time
	Parent      string
	Comments    []Comment

	// Custom fields resolved through FieldMap. Nil points mean the field is unset.
	StoryPoints         *float64
	OriginalStoryPoints *float64
	WorkType            string
	Sprints             []string
	EpicLink            string
	Progress            string
}

// LatestComment returns the most recently created comment.
func (i Issue) LatestComment() (Comment, bool) {
	if len(i.Comments) == 0 {
		return Comment{}, false
	}
	latest := i.Comments[0]
	for _, c := range i.Comments[1:] {
		if c.Created.After(latest.Created) {
			latest = c
		}
	}
	return latest, true
}

// SprintQuery selects the issues of a team's active sprint.
type SprintQuery struct {
	Project     string
	BacklogName string
	BoardID     string
	BoardName   string
	SprintName  string
	// Mine restricts the result to issues assigned to the authenticated user.
	Mine bool
	// Assignee, when set with Mine, names that user explicitly instead of
	// relying on currentUser().
	Assignee string
}
