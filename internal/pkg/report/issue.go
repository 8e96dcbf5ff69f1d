package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/jiaz/jiaz/internal/pkg/jira"
)

// Issue field names accepted by --show.
const (
	FieldKey                 = "key"
	FieldTitle               = "title"
	FieldType                = "type"
	FieldAssignee            = "assignee"
	FieldReporter            = "reporter"
	FieldStatus              = "status"
	FieldPriority            = "priority"
	FieldLabels              = "labels"
	FieldCreated             = "created"
	FieldUpdated             = "updated"
	FieldStoryPoints         = "story_points"
	FieldOriginalStoryPoints = "original_story_points"
	FieldSprints             = "sprints"
	FieldEpic                = "epic"
	FieldProgress            = "progress"
	FieldChildren            = "children"
	FieldDescription         = "description"
)

// Tier controls when a field appears without an explicit --show.
type Tier int

const (
	// TierRequired fields are always shown by default.
	TierRequired Tier = iota
	// TierOptional fields are shown by default when the issue has a value.
	TierOptional
	// TierOnDemand fields are shown only when requested.
	TierOnDemand
)

// IssueData is an issue plus the related data some fields need.
type IssueData struct {
	Issue    jira.Issue
	Children []jira.Issue
	// BrowseURL maps an issue key to its web link.
	BrowseURL func(key string) string
	Now       time.Time
}

func (d IssueData) link(key string) string {
	if d.BrowseURL == nil {
		return ""
	}
	return d.BrowseURL(key)
}

// FieldDef describes one entry of the issue field catalog.
type FieldDef struct {
	Name    string
	Tier    Tier
	Extract func(IssueData) Cell
	// Present reports whether the issue carries a value for the field.
	Present func(jira.Issue) bool
}

func always(jira.Issue) bool { return true }

func nonEmpty(get func(jira.Issue) string) func(jira.Issue) bool {
	return func(i jira.Issue) bool { return get(i) != "" }
}

func missing(what string) Cell { return Toned(what, ToneNegative) }

func userCell(u *jira.User, fallback string) Cell {
	if u == nil {
		return missing(fallback)
	}
	return Text(u.DisplayName)
}

func pointsField(get func(jira.Issue) *float64) func(IssueData) Cell {
	return func(d IssueData) Cell {
		if p := get(d.Issue); p != nil {
			return Cell{Value: *p}
		}
		return missing(NotAssigned)
	}
}

func timeField(get func(jira.Issue) time.Time) func(IssueData) Cell {
	return func(d IssueData) Cell {
		t := get(d.Issue)
		if t.IsZero() {
			return missing("Unknown")
		}
		now := d.Now
		if now.IsZero() {
			now = time.Now()
		}
		return Text(fmt.Sprintf("%s (%s)", t.Format("2006-01-02 15:04"), TimeAgo(t, now)))
	}
}

// IssueFields is the ordered field catalog for `analyze issue`.
var IssueFields = []FieldDef{
	{Name: FieldKey, Tier: TierRequired, Present: always, Extract: func(d IssueData) Cell {
		return Cell{Value: d.Issue.Key, Tone: ToneNeutral, Link: d.link(d.Issue.Key)}
	}},
	{Name: FieldTitle, Tier: TierRequired, Present: always, Extract: func(d IssueData) Cell {
		if d.Issue.Summary == "" {
			return missing("No Title")
		}
		return Text(d.Issue.Summary)
	}},
	{Name: FieldType, Tier: TierRequired, Present: always, Extract: func(d IssueData) Cell {
		if d.Issue.Type == "" {
			return missing("Unknown")
		}
		return Text(d.Issue.Type)
	}},
	{Name: FieldAssignee, Tier: TierRequired, Present: always, Extract: func(d IssueData) Cell {
		return userCell(d.Issue.Assignee, "Unassigned")
	}},
	{Name: FieldReporter, Tier: TierRequired, Present: always, Extract: func(d IssueData) Cell {
		return userCell(d.Issue.Reporter, "Unknown")
	}},
	{Name: FieldStatus, Tier: TierRequired, Present: always, Extract: func(d IssueData) Cell {
		if d.Issue.Status == "" {
			return missing("Unknown")
		}
		return Toned(d.Issue.Status, StatusTone(d.Issue.Status))
	}},
	{Name: FieldPriority, Tier: TierOptional,
		Present: nonEmpty(func(i jira.Issue) string { return i.Priority }),
		Extract: func(d IssueData) Cell { return Text(d.Issue.Priority) }},
	{Name: FieldLabels, Tier: TierOptional,
		Present: func(i jira.Issue) bool { return len(i.Labels) > 0 },
		Extract: func(d IssueData) Cell { return Text(strings.Join(d.Issue.Labels, ", ")) }},
	{Name: FieldCreated, Tier: TierOptional,
		Present: func(i jira.Issue) bool { return !i.Created.IsZero() },
		Extract: timeField(func(i jira.Issue) time.Time { return i.Created })},
	{Name: FieldUpdated, Tier: TierOptional,
		Present: func(i jira.Issue) bool { return !i.Updated.IsZero() },
		Extract: timeField(func(i jira.Issue) time.Time { return i.Updated })},
	{Name: FieldStoryPoints, Tier: TierOptional,
		Present: func(i jira.Issue) bool { return i.StoryPoints != nil },
		Extract: pointsField(func(i jira.Issue) *float64 { return i.StoryPoints })},
	{Name: FieldOriginalStoryPoints, Tier: TierOptional,
		Present: func(i jira.Issue) bool { return i.OriginalStoryPoints != nil },
		Extract: pointsField(func(i jira.Issue) *float64 { return i.OriginalStoryPoints })},
	{Name: FieldSprints, Tier: TierOptional,
		Present: func(i jira.Issue) bool { return len(i.Sprints) > 0 },
		Extract: func(d IssueData) Cell {
			if len(d.Issue.Sprints) == 0 {
				return missing("No Sprints")
			}
			return Text(strings.Join(d.Issue.Sprints, ", "))
		}},
	{Name: FieldEpic, Tier: TierOptional,
		Present: nonEmpty(func(i jira.Issue) string { return i.EpicLink }),
		Extract: func(d IssueData) Cell {
			if d.Issue.EpicLink == "" {
				return missing(NoEpic)
			}
			return Cell{Value: d.Issue.EpicLink, Tone: ToneNeutral, Link: d.link(d.Issue.EpicLink)}
		}},
	{Name: FieldProgress, Tier: TierOptional,
		Present: nonEmpty(func(i jira.Issue) string { return i.Progress }),
		Extract: func(d IssueData) Cell {
			if d.Issue.Progress == "" || d.Issue.Progress == jira.ProgressNotFound {
				return missing(jira.ProgressNotFound)
			}
			return Text(d.Issue.Progress)
		}},
	{Name: FieldChildren, Tier: TierOnDemand, Present: always, Extract: func(d IssueData) Cell {
		if len(d.Children) == 0 {
			return missing("No Children")
		}
		keys := make([]string, 0, len(d.Children))
		for _, c := range d.Children {
			keys = append(keys, c.Key)
		}
		return Text(strings.Join(keys, ", "))
	}},
	{Name: FieldDescription, Tier: TierOnDemand, Present: always, Extract: func(d IssueData) Cell {
		if strings.TrimSpace(d.Issue.Description) == "" {
			return missing("No Description")
		}
		return Text(d.Issue.Description)
	}},
}

// LookupField returns the catalog entry for name.
func LookupField(name string) (FieldDef, bool) {
	for _, f := range IssueFields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// DefaultIssueFields returns the required fields plus the optional fields
// the issue has a value for.
func DefaultIssueFields(issue jira.Issue) []string {
	var names []string
	for _, f := range IssueFields {
		switch f.Tier {
		case TierRequired:
			names = append(names, f.Name)
		case TierOptional:
			if f.Present(issue) {
				names = append(names, f.Name)
			}
		}
	}
	return names
}

// WantsField reports whether the selection names field.
func WantsField(selected []string, field string) bool {
	for _, s := range selected {
		if s == field {
			return true
		}
	}
	return false
}

// IssueTable builds a single-row table of the selected fields. Unknown
// names produce an "Unknown field" cell instead of an error.
func IssueTable(d IssueData, selected []string) Table {
	if len(selected) == 0 {
		selected = DefaultIssueFields(d.Issue)
	}

	t := Table{}
	row := make([]Cell, 0, len(selected))
	for _, name := range selected {
		t.Headers = append(t.Headers, name)
		f, ok := LookupField(name)
		if !ok {
			row = append(row, missing("Unknown field: "+name))
			continue
		}
		row = append(row, f.Extract(d))
	}
	t.Rows = [][]Cell{row}
	return t
}
