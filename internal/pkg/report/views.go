package report

import (
	"fmt"
	"sort"
)

// Perspective selects how sprint data is summarized.
type Perspective string

const (
	PerspectiveIssue  Perspective = "issue"
	PerspectiveStatus Perspective = "status"
	PerspectiveOwner  Perspective = "owner"
	PerspectiveEpic   Perspective = "epic"
)

// Perspectives lists the accepted --wrt values.
var Perspectives = []Perspective{PerspectiveIssue, PerspectiveOwner, PerspectiveStatus, PerspectiveEpic}

// ChangeTBD marks an estimate that moved during the sprint.
const ChangeTBD = "(Change TBD)"

// NoEpic groups issues without an epic link or parent.
const NoEpic = "No Epic"

// IssueView is the full per-issue table in rank order.
func IssueView(rows []SprintRow) Table {
	t := Table{Headers: append([]string(nil), SprintHeaders...)}
	for _, r := range rows {
		t.Rows = append(t.Rows, r.cells())
	}
	return t
}

// MarkChangedEstimates flags rows whose actual estimate differs from the
// initial one. Tables without both estimate columns are returned unchanged.
func MarkChangedEstimates(t Table) Table {
	ini, act := t.Column(HeaderInitialPoints), t.Column(HeaderActualPoints)
	if ini < 0 || act < 0 {
		return t
	}
	for _, row := range t.Rows {
		if row[ini].Text() != row[act].Text() {
			row[act] = Toned(fmt.Sprintf("%s %s", row[act].Text(), ChangeTBD), ToneNegative)
		}
	}
	return t
}

// SortRows orders rows by the display text of column col.
func SortRows(t Table, col int) Table {
	if col < 0 || col >= len(t.Headers) {
		return t
	}
	sort.SliceStable(t.Rows, func(i, j int) bool {
		return t.Rows[i][col].Text() < t.Rows[j][col].Text()
	})
	return t
}

// Status summary headers and buckets.
var (
	StatusHeaders = []string{"Status", "Issue Count", "Sprint Point Total"}
	statusBuckets = []string{"Closed", "In Progress", "Review", "Not Started"}
)

type statusBucket struct {
	withPoints    int
	withoutPoints int
	points        float64
}

// StatusView counts issues per status. Unknown statuses fall into
// "Not Started". The count reads "N(M)" when M issues carry no estimate.
func StatusView(rows []SprintRow) Table {
	buckets := make(map[string]*statusBucket, len(statusBuckets))
	for _, s := range statusBuckets {
		buckets[s] = &statusBucket{}
	}

	for _, r := range rows {
		b, ok := buckets[r.Status]
		if !ok {
			b = buckets["Not Started"]
		}
		if r.Actual == nil {
			b.withoutPoints++
			continue
		}
		b.withPoints++
		b.points += *r.Actual
	}

	t := Table{Headers: append([]string(nil), StatusHeaders...)}
	for _, s := range statusBuckets {
		b := buckets[s]
		var count interface{} = b.withPoints
		if b.withoutPoints > 0 {
			count = fmt.Sprintf("%d(%d)", b.withPoints, b.withoutPoints)
		}
		t.Rows = append(t.Rows, []Cell{
			Toned(s, StatusTone(s)),
			{Value: count},
			{Value: b.points},
		})
	}
	return t
}

// Owner summary headers and the statuses they report on.
var (
	OwnerHeaders  = []string{"Assignee", "Completed", "Review", "In Progress", "New", "Total"}
	ownerStatuses = []string{"Closed", "Review", "In Progress", "New"}
)

type tally struct {
	count  int
	points float64
}

// OwnerView reports stories and points per assignee and status, assignees in
// order of first appearance.
func OwnerView(rows []SprintRow) Table {
	var order []string
	perOwner := make(map[string]map[string]*tally)
	totals := make(map[string]*tally)

	for _, r := range rows {
		if _, ok := perOwner[r.Assignee]; !ok {
			order = append(order, r.Assignee)
			perOwner[r.Assignee] = make(map[string]*tally)
			for _, s := range ownerStatuses {
				perOwner[r.Assignee][s] = &tally{}
			}
			totals[r.Assignee] = &tally{}
		}

		var points float64
		if r.Actual != nil {
			points = *r.Actual
		}
		if t, ok := perOwner[r.Assignee][r.Status]; ok {
			t.count++
			t.points += points
		}
		totals[r.Assignee].count++
		totals[r.Assignee].points += points
	}

	t := Table{Headers: append([]string(nil), OwnerHeaders...)}
	for _, owner := range order {
		row := []Cell{Toned(owner, ToneHeader)}
		for _, s := range ownerStatuses {
			st := perOwner[owner][s]
			if st.count == 0 {
				row = append(row, Toned("-", ToneNegative))
				continue
			}
			row = append(row, Toned(storiesAndPoints(st), ownerTone(s)))
		}
		row = append(row, Toned(storiesAndPoints(totals[owner]), ToneHeader))
		t.Rows = append(t.Rows, row)
	}
	return t
}

func storiesAndPoints(t *tally) string {
	return fmt.Sprintf("%d Stories, %d Points", t.count, int(t.points))
}

func ownerTone(status string) Tone {
	switch status {
	case "Closed":
		return TonePositive
	case "In Progress":
		return ToneNeutral
	case "Review":
		return ToneInfo
	default:
		return ToneNegative
	}
}

// EpicHeaders is the column order of the epic summary.
var EpicHeaders = []string{"Epic", "Issue Count", "Closed", "Sprint Point Total"}

// EpicView groups sprint issues by their epic, in order of first appearance.
func EpicView(rows []SprintRow) Table {
	type epicTally struct {
		url    string
		count  int
		closed int
		points float64
	}

	var order []string
	epics := make(map[string]*epicTally)
	for _, r := range rows {
		key := r.Epic
		if key == "" {
			key = NoEpic
		}
		e, ok := epics[key]
		if !ok {
			e = &epicTally{url: r.EpicURL}
			epics[key] = e
			order = append(order, key)
		}
		e.count++
		if r.Status == "Closed" {
			e.closed++
		}
		if r.Actual != nil {
			e.points += *r.Actual
		}
	}

	t := Table{Headers: append([]string(nil), EpicHeaders...)}
	for _, key := range order {
		e := epics[key]
		epic := Cell{Value: key, Tone: ToneNeutral, Link: e.url}
		if key == NoEpic {
			epic = Toned(NoEpic, ToneNegative)
		}
		closedTone := ToneNone
		if e.closed == e.count {
			closedTone = TonePositive
		}
		t.Rows = append(t.Rows, []Cell{
			epic,
			{Value: e.count},
			Toned(e.closed, closedTone),
			{Value: e.points},
		})
	}
	return t
}

// SprintView builds the table for one perspective.
func SprintView(p Perspective, rows []SprintRow) (Table, error) {
	switch p {
	case PerspectiveIssue:
		return IssueView(rows), nil
	case PerspectiveStatus, "":
		return StatusView(rows), nil
	case PerspectiveOwner:
		return OwnerView(rows), nil
	case PerspectiveEpic:
		return EpicView(rows), nil
	default:
		return Table{}, fmt.Errorf("unknown perspective %q", p)
	}
}
