package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

const (
	DefaultTimeout           = 30 * time.Second
	DefaultDialTimeout       = 5 * time.Second
	DefaultRequestsPerSecond = 2.0
	DefaultMaxResults        = 1000

	userAgent = "jiaz"
)

// Options configures a Client.
type Options struct {
	ServerURL         string
	Token             string
	Timeout           time.Duration
	DialTimeout       time.Duration
	RequestsPerSecond float64
	Burst             int
	MaxResults        int
	Fields            FieldMap
}

// Client talks to the JIRA REST and Agile APIs. Every request waits on a
// shared rate limiter before it is sent.
type Client struct {
	resty      *resty.Client
	limiter    *rate.Limiter
	serverURL  string
	maxResults int
	fields     FieldMap
}

// NewClient creates a client for opts.ServerURL authenticated with opts.Token.
func NewClient(opts Options) (*Client, error) {
	serverURL := strings.TrimRight(strings.TrimSpace(opts.ServerURL), "/")
	if serverURL == "" {
		return nil, apperrors.NewMissingRequiredFieldError("", "server_url")
	}
	parsed, err := url.Parse(serverURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, apperrors.Newf(apperrors.ErrInvalidArguments, "invalid server_url %q", opts.ServerURL).
			WithSuggestion("Use a full URL such as https://issues.example.com")
	}
	if strings.TrimSpace(opts.Token) == "" {
		return nil, apperrors.NewMissingRequiredFieldError("", "user_token")
	}

	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}

	transport := &http.Transport{
		Proxy:       http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{Timeout: opts.DialTimeout}).DialContext,
	}

	rc := resty.New().
		SetTransport(transport).
		SetBaseURL(serverURL).
		SetTimeout(opts.Timeout).
		SetAuthToken(opts.Token).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", userAgent).
		SetDisableWarn(true)

	return &Client{
		resty:      rc,
		limiter:    rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Burst),
		serverURL:  serverURL,
		maxResults: opts.MaxResults,
		fields:     opts.Fields,
	}, nil
}

// BrowseURL returns the web link for an issue key.
func (c *Client) BrowseURL(key string) string {
	return c.serverURL + "/browse/" + key
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}
	return c.resty.R().SetContext(ctx), nil
}

// get issues a GET against path and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	req, err := c.request(ctx)
	if err != nil {
		return apperrors.NewJiraError(path, 0, err)
	}
	if query != nil {
		req.SetQueryParamsFromValues(query)
	}

	start := time.Now()
	apperrors.Debug("jira GET %s", path)
	resp, err := req.Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return apperrors.NewJiraError(path, 0, ctx.Err())
		}
		return apperrors.NewJiraError(path, 0, err)
	}
	apperrors.LogAPIResponse("jira", resp.StatusCode(), len(resp.Body()), time.Since(start))

	if resp.IsError() {
		return apperrors.NewJiraError(path, resp.StatusCode(), fmt.Errorf("%s", errorMessages(resp.Body())))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return apperrors.NewJiraError(path, resp.StatusCode(), fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// errorMessages flattens JIRA's {"errorMessages":[...],"errors":{...}} body.
func errorMessages(body []byte) string {
	var payload struct {
		ErrorMessages []string          `json:"errorMessages"`
		Errors        map[string]string `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		text := strings.TrimSpace(string(body))
		if len(text) > 200 {
			text = text[:200]
		}
		if text == "" {
			return "empty response"
		}
		return text
	}

	msgs := append([]string{}, payload.ErrorMessages...)
	for field, msg := range payload.Errors {
		msgs = append(msgs, field+": "+msg)
	}
	if len(msgs) == 0 {
		return "unknown error"
	}
	return strings.Join(msgs, "; ")
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.get(ctx, "/rest/api/2/myself", nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Issue fetches one issue with all of its fields.
func (c *Client) Issue(ctx context.Context, key string) (*Issue, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.NewInvalidArgumentsError("issue key must not be empty")
	}

	var raw rawIssue
	path := "/rest/api/2/issue/" + url.PathEscape(key)
	if err := c.get(ctx, path, url.Values{"fields": {"*all"}}, &raw); err != nil {
		return nil, err
	}
	issue, err := decodeIssue(raw, c.fields)
	if err != nil {
		return nil, apperrors.NewJiraError(path, 0, err)
	}
	return &issue, nil
}

// Search runs a JQL query. maxResults <= 0 uses the client's default.
func (c *Client) Search(ctx context.Context, jql string, maxResults int) ([]Issue, error) {
	if maxResults <= 0 {
		maxResults = c.maxResults
	}

	var result searchResult
	query := url.Values{
		"jql":        {jql},
		"maxResults": {strconv.Itoa(maxResults)},
		"fields":     {"*all"},
	}
	if err := c.get(ctx, "/rest/api/2/search", query, &result); err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(result.Issues))
	for _, raw := range result.Issues {
		issue, err := decodeIssue(raw, c.fields)
		if err != nil {
			return nil, apperrors.NewJiraError("/rest/api/2/search", 0, err)
		}
		issues = append(issues, issue)
	}
	apperrors.Debug("jira search returned %d of %d issues", len(issues), result.Total)
	return issues, nil
}

// FindBoard looks an agile board up by exact name.
func (c *Client) FindBoard(ctx context.Context, name string) (*Board, error) {
	var page struct {
		Values []Board `json:"values"`
	}
	if err := c.get(ctx, "/rest/agile/1.0/board", url.Values{"name": {name}}, &page); err != nil {
		return nil, err
	}
	for _, b := range page.Values {
		if b.Name == name {
			board := b
			return &board, nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrJiraRequestFailed, "no board named %q", name).
		WithSuggestion("Check jira_board_name or set jira_sprintboard_id")
}

// ActiveSprint returns the first active sprint of the board whose name
// contains nameFilter.
func (c *Client) ActiveSprint(ctx context.Context, boardID int, nameFilter string) (*Sprint, error) {
	var page struct {
		Values []Sprint `json:"values"`
	}
	path := fmt.Sprintf("/rest/agile/1.0/board/%d/sprint", boardID)
	if err := c.get(ctx, path, url.Values{"state": {"active"}}, &page); err != nil {
		return nil, err
	}
	for _, s := range page.Values {
		if strings.Contains(s.Name, nameFilter) {
			sprint := s
			return &sprint, nil
		}
	}
	return nil, apperrors.Newf(apperrors.ErrNoActiveSprint, "no active sprint on board %d matches %q", boardID, nameFilter).
		WithSuggestion("Check jira_sprintboard_name and jira_sprintboard_id in the active config block")
}

// CurrentSprintIssues returns the backlog issues of the active sprint, in rank order.
func (c *Client) CurrentSprintIssues(ctx context.Context, q SprintQuery) ([]Issue, *Sprint, error) {
	for _, req := range []struct{ key, value string }{
		{"jira_project", q.Project},
		{"jira_backlog_name", q.BacklogName},
		{"jira_sprintboard_name", q.SprintName},
	} {
		if strings.TrimSpace(req.value) == "" {
			return nil, nil, apperrors.NewMissingRequiredFieldError("", req.key)
		}
	}

	boardID, err := c.resolveBoard(ctx, q)
	if err != nil {
		return nil, nil, err
	}

	sprint, err := c.ActiveSprint(ctx, boardID, q.SprintName)
	if err != nil {
		return nil, nil, err
	}

	issues, err := c.Search(ctx, SprintJQL(q, sprint.Name), 0)
	if err != nil {
		return nil, nil, err
	}
	return issues, sprint, nil
}

func (c *Client) resolveBoard(ctx context.Context, q SprintQuery) (int, error) {
	if id := strings.TrimSpace(q.BoardID); id != "" {
		n, err := strconv.Atoi(id)
		if err != nil {
			return 0, apperrors.Newf(apperrors.ErrInvalidArguments, "jira_sprintboard_id %q is not a number", id)
		}
		return n, nil
	}
	if strings.TrimSpace(q.BoardName) == "" {
		return 0, apperrors.NewMissingRequiredFieldError("", "jira_sprintboard_id").
			WithSuggestion("Set jira_sprintboard_id or jira_board_name with 'jiaz config set'")
	}
	board, err := c.FindBoard(ctx, q.BoardName)
	if err != nil {
		return 0, err
	}
	return board.ID, nil
}

// Children returns the sub-tasks and epic members of key.
func (c *Client) Children(ctx context.Context, key string) ([]Issue, error) {
	return c.Search(ctx, ChildrenJQL(key), 0)
}

// SprintJQL builds the query selecting the backlog issues of a sprint.
func SprintJQL(q SprintQuery, sprintName string) string {
	jql := fmt.Sprintf("project = '%s' and type != Epic and labels = '%s' and Sprint = '%s'",
		quoteJQL(q.Project), quoteJQL(q.BacklogName), quoteJQL(sprintName))
	switch {
	case q.Mine && q.Assignee != "":
		jql += fmt.Sprintf(" and assignee = '%s'", quoteJQL(q.Assignee))
	case q.Mine:
		jql += " and assignee = currentUser()"
	}
	return jql + " ORDER BY Rank ASC"
}

// ChildrenJQL builds the query selecting the children of an issue.
func ChildrenJQL(key string) string {
	k := quoteJQL(key)
	return fmt.Sprintf(`parent = '%s' or "Epic Link" = '%s'`, k, k)
}

func quoteJQL(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
