package report

import (
	"fmt"
	"time"

	"github.com/jiaz/jiaz/internal/pkg/jira"
)

// Sprint table headers.
const (
	HeaderIssueKey      = "Issue Key"
	HeaderAssignee      = "Assignee"
	HeaderTitle         = "Title"
	HeaderPriority      = "Priority"
	HeaderWorkType      = "Work Type"
	HeaderInitialPoints = "Initial Story Points"
	HeaderActualPoints  = "Actual Story Points"
	HeaderStatus        = "Status"
	HeaderComment       = "Comment"
)

const (
	NotAssigned = "Not Assigned"
	Undefined   = "Undefined"
	NoComments  = "No Comments"

	// DefaultStaleDays is the comment age at which an open issue is flagged.
	DefaultStaleDays = 10
)

// SprintHeaders is the column order of the sprint issue table.
var SprintHeaders = []string{
	HeaderIssueKey, HeaderAssignee, HeaderTitle, HeaderPriority, HeaderWorkType,
	HeaderInitialPoints, HeaderActualPoints, HeaderStatus, HeaderComment,
}

var trackedTypes = map[string]bool{"Bug": true, "Story": true, "Task": true}

// SprintRow is one tracked sprint issue with its derived values.
type SprintRow struct {
	Key      string
	URL      string
	Assignee string
	Title    string
	Priority string
	WorkType string
	Status   string
	Epic     string
	EpicURL  string
	// Initial and Actual are nil when neither estimate is set.
	Initial *float64
	Actual  *float64
	Comment Cell
}

// SprintOptions tunes row derivation.
type SprintOptions struct {
	// BrowseURL maps an issue key to its web link.
	BrowseURL func(key string) string
	Now       time.Time
	StaleDays int
}

// BuildSprintRows keeps Bugs, Stories and Tasks that have an assignee. The
// keys of skipped unassigned issues are returned separately.
func BuildSprintRows(issues []jira.Issue, opts SprintOptions) (rows []SprintRow, unassigned []string) {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	if opts.StaleDays <= 0 {
		opts.StaleDays = DefaultStaleDays
	}

	for _, issue := range issues {
		if !trackedTypes[issue.Type] {
			continue
		}
		if issue.Assignee == nil {
			unassigned = append(unassigned, issue.Key)
			continue
		}

		initial, actual := MirrorPoints(issue.OriginalStoryPoints, issue.StoryPoints)
		row := SprintRow{
			Key:      issue.Key,
			Assignee: issue.Assignee.FirstName(),
			Title:    issue.Summary,
			Priority: issue.Priority,
			WorkType: issue.WorkType,
			Status:   issue.Status,
			Epic:     issue.EpicLink,
			Initial:  initial,
			Actual:   actual,
			Comment:  CommentDetail(issue, opts.Now, opts.StaleDays),
		}
		if row.Epic == "" {
			row.Epic = issue.Parent
		}
		if opts.BrowseURL != nil {
			row.URL = opts.BrowseURL(issue.Key)
			if row.Epic != "" {
				row.EpicURL = opts.BrowseURL(row.Epic)
			}
		}
		rows = append(rows, row)
	}
	return rows, unassigned
}

// MirrorPoints fills a missing estimate from the other one. Both results are
// nil only when neither input is set.
func MirrorPoints(original, current *float64) (initial, actual *float64) {
	switch {
	case original == nil && current == nil:
		return nil, nil
	case original == nil:
		v := float64(int64(*current))
		return &v, &v
	case current == nil:
		v := float64(int64(*original))
		return &v, &v
	default:
		o, c := float64(int64(*original)), float64(int64(*current))
		return &o, &c
	}
}

// CommentDetail summarizes the latest comment as "<first name> commented <age>".
// The age is flagged when it reaches staleDays on an issue that is not Closed.
func CommentDetail(issue jira.Issue, now time.Time, staleDays int) Cell {
	latest, ok := issue.LatestComment()
	if !ok {
		return Toned(NoComments, ToneNegative)
	}

	days := int(now.Sub(latest.Created).Hours() / 24)
	text := fmt.Sprintf("%s commented %s", latest.Author.FirstName(), TimeAgo(latest.Created, now))
	if days >= staleDays && issue.Status != "Closed" {
		return Toned(text, ToneNegative)
	}
	return Text(text)
}

// TimeAgo renders the age of t as "N days ago", "N hours ago" or "Just now".
func TimeAgo(t, now time.Time) string {
	delta := now.Sub(t)
	if days := int(delta.Hours() / 24); days > 0 {
		return fmt.Sprintf("%d days ago", days)
	}
	if hours := int(delta.Hours()); hours > 0 {
		return fmt.Sprintf("%d hours ago", hours)
	}
	return "Just now"
}

func pointsCell(p *float64) Cell {
	if p == nil {
		return Toned(NotAssigned, ToneNegative)
	}
	return Cell{Value: *p}
}

func (r SprintRow) cells() []Cell {
	workType := Text(r.WorkType)
	if r.WorkType == "" {
		workType = Toned(Undefined, ToneNegative)
	}
	return []Cell{
		{Value: r.Key, Tone: ToneNeutral, Link: r.URL},
		Text(r.Assignee),
		Text(r.Title),
		Text(r.Priority),
		workType,
		pointsCell(r.Initial),
		pointsCell(r.Actual),
		Toned(r.Status, StatusTone(r.Status)),
		r.Comment,
	}
}
