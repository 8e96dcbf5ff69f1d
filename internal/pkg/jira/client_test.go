package jira

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c, err := NewClient(Options{
		ServerURL:         server.URL + "/",
		Token:             "secret-token",
		RequestsPerSecond: 1000,
		Burst:             10,
		Fields:            testFields,
	})
	require.NoError(t, err)
	return c, server
}

func TestNewClient_Validation(t *testing.T) {
	_, err := NewClient(Options{Token: "t"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingRequiredField))

	_, err = NewClient(Options{ServerURL: "jira.example.com", Token: "t"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))

	_, err = NewClient(Options{ServerURL: "https://jira.example.com"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingRequiredField))
}

func TestClient_BrowseURL(t *testing.T) {
	c, err := NewClient(Options{ServerURL: "https://jira.example.com/", Token: "t"})
	require.NoError(t, err)

	assert.Equal(t, "https://jira.example.com/browse/ABC-1", c.BrowseURL("ABC-1"))
}

func TestClient_CurrentUser(t *testing.T) {
	var auth string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.Equal(t, "/rest/api/2/myself", r.URL.Path)
		_, _ = w.Write([]byte(`{"name":"jdoe","displayName":"Jane Doe","active":true}`))
	}))

	u, err := c.CurrentUser(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, "jdoe", u.Name)
	assert.True(t, u.Active)
}

func TestClient_Issue(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rest/api/2/issue/ABC-7", r.URL.Path)
		assert.Equal(t, "*all", r.URL.Query().Get("fields"))
		_, _ = w.Write([]byte(issueJSON))
	}))

	issue, err := c.Issue(context.Background(), " ABC-7 ")

	require.NoError(t, err)
	assert.Equal(t, "ABC-7", issue.Key)
	assert.Equal(t, "75%", issue.Progress)
}

func TestClient_Issue_EmptyKey(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, err := c.Issue(context.Background(), "  ")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))
}

func TestClient_ErrorStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		suggestion string
	}{
		{"unauthorized", http.StatusUnauthorized, "user_token"},
		{"not found", http.StatusNotFound, "issue key"},
		{"server error", http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"errorMessages":["Issue Does Not Exist"],"errors":{}}`))
			}))

			_, err := c.Issue(context.Background(), "ABC-404")

			require.True(t, apperrors.HasCode(err, apperrors.ErrJiraRequestFailed))
			appErr := apperrors.GetAppError(err)
			assert.Equal(t, tt.status, appErr.Context["status"])
			assert.Contains(t, appErr.Cause.Error(), "Issue Does Not Exist")
			if tt.suggestion != "" {
				assert.Contains(t, appErr.Suggestion, tt.suggestion)
			}
		})
	}
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	c, err := NewClient(Options{ServerURL: serverURL, Token: "t", DialTimeout: time.Second})
	require.NoError(t, err)

	_, err = c.CurrentUser(context.Background())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrJiraRequestFailed))
}

func TestClient_CancelledContext(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.CurrentUser(ctx)

	assert.Error(t, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestClient_RateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"x"}`))
	}))
	defer server.Close()

	c, err := NewClient(Options{ServerURL: server.URL, Token: "t", RequestsPerSecond: 20, Burst: 1})
	require.NoError(t, err)

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.CurrentUser(context.Background())
		require.NoError(t, err)
	}
	// three requests with burst 1 at 20/s need at least two 50ms intervals
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func sprintServer(t *testing.T, searches *[]string) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/agile/1.0/board", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Team Board", r.URL.Query().Get("name"))
		_, _ = w.Write([]byte(`{"values":[{"id":77,"name":"Team Board","type":"scrum"}]}`))
	})
	mux.HandleFunc("/rest/agile/1.0/board/77/sprint", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "active", r.URL.Query().Get("state"))
		_, _ = w.Write([]byte(`{"values":[
			{"id":1,"name":"Other Sprint 9","state":"active"},
			{"id":2,"name":"Team Sprint 42","state":"active"}
		]}`))
	})
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		*searches = append(*searches, r.URL.Query().Get("jql"))
		assert.Equal(t, "1000", r.URL.Query().Get("maxResults"))
		_, _ = w.Write([]byte(`{"startAt":0,"maxResults":1000,"total":1,"issues":[` + issueJSON + `]}`))
	})
	return mux
}

func TestClient_CurrentSprintIssues(t *testing.T) {
	var searches []string
	c, _ := newTestClient(t, sprintServer(t, &searches))

	issues, sprint, err := c.CurrentSprintIssues(context.Background(), SprintQuery{
		Project:     "ABC",
		BacklogName: "team-backlog",
		BoardID:     "77",
		SprintName:  "Team Sprint",
	})

	require.NoError(t, err)
	assert.Equal(t, "Team Sprint 42", sprint.Name)
	require.Len(t, issues, 1)
	require.Len(t, searches, 1)
	assert.Equal(t,
		"project = 'ABC' and type != Epic and labels = 'team-backlog' and Sprint = 'Team Sprint 42' ORDER BY Rank ASC",
		searches[0])
}

func TestClient_CurrentSprintIssues_BoardByName(t *testing.T) {
	var searches []string
	c, _ := newTestClient(t, sprintServer(t, &searches))

	_, sprint, err := c.CurrentSprintIssues(context.Background(), SprintQuery{
		Project:     "ABC",
		BacklogName: "team-backlog",
		BoardName:   "Team Board",
		SprintName:  "Team Sprint",
		Mine:        true,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, sprint.ID)
	require.Len(t, searches, 1)
	assert.True(t, strings.HasSuffix(searches[0], "and assignee = currentUser() ORDER BY Rank ASC"))
}

func TestSprintJQL_Assignee(t *testing.T) {
	q := SprintQuery{Project: "ABC", BacklogName: "team-backlog", Mine: true, Assignee: "o'neil"}

	assert.Equal(t,
		`project = 'ABC' and type != Epic and labels = 'team-backlog' and Sprint = 'S 1' and assignee = 'o\'neil' ORDER BY Rank ASC`,
		SprintJQL(q, "S 1"))

	q.Mine = false
	assert.NotContains(t, SprintJQL(q, "S 1"), "assignee")
}

func TestClient_FindBoard_RequiresExactName(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/agile/1.0/board", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"values":[{"id":12,"name":"Team Board (old)","type":"scrum"},{"id":13,"name":"Team Boards","type":"kanban"}]}`))
	})
	c, _ := newTestClient(t, mux)

	board, err := c.FindBoard(context.Background(), "Team Board")

	assert.Nil(t, board)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrJiraRequestFailed))
	assert.Contains(t, err.Error(), `no board named "Team Board"`)
}

func TestClient_CurrentSprintIssues_NoMatchingSprint(t *testing.T) {
	var searches []string
	c, _ := newTestClient(t, sprintServer(t, &searches))

	_, _, err := c.CurrentSprintIssues(context.Background(), SprintQuery{
		Project:     "ABC",
		BacklogName: "team-backlog",
		BoardID:     "77",
		SprintName:  "Platform",
	})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrNoActiveSprint))
	assert.Empty(t, searches)
}

func TestClient_CurrentSprintIssues_MissingSettings(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))

	_, _, err := c.CurrentSprintIssues(context.Background(), SprintQuery{Project: "ABC", SprintName: "S"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingRequiredField))

	_, _, err = c.CurrentSprintIssues(context.Background(), SprintQuery{Project: "ABC", BacklogName: "b", SprintName: "S"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingRequiredField))

	_, _, err = c.CurrentSprintIssues(context.Background(), SprintQuery{Project: "ABC", BacklogName: "b", SprintName: "S", BoardID: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))
}

func TestClient_Children(t *testing.T) {
	var jql string
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jql = r.URL.Query().Get("jql")
		_, _ = w.Write([]byte(`{"issues":[]}`))
	}))

	issues, err := c.Children(context.Background(), "ABC-1")

	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Equal(t, `parent = 'ABC-1' or "Epic Link" = 'ABC-1'`, jql)
}

func TestSprintJQL_Quotes(t *testing.T) {
	jql := SprintJQL(SprintQuery{Project: "A'B", BacklogName: "x"}, "S")
	assert.Contains(t, jql, `project = 'A\'B'`)
}
