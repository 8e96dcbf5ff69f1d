package ai

import (
	"bytes"
	"encoding/json"
	"strings"
	"text/template"
)

// RundownPromptTemplate asks for a markdown progress summary of an issue tree.
const RundownPromptTemplate = `You are an expert at generating progress summaries for JIRA issues.

You will be given a JSON document with the following information:

- key: the key of the issue
- title: the title of the issue
- assignee: the assignee of the issue
- updated: the last update time of the issue
- description: the description of the issue
- status: the status of the issue
- status_summary: the status summary of the issue, if any
- comments: the comments on the issue, oldest first
- children: child issues with their title, description, status, comments and status summary

Read all of the data, including comments and update times in chronological order, and write a crisp
but informative progress summary of the current state of the issue. Respond in GitHub-flavored
markdown, using bold text to highlight the important information. Provide only the summary.

Use exactly these headings:

### What was to be done?
The objective and any details needed to complete the task, in at most 3 bullets.

### What is already done?
What has been completed so far, checking comments and status summaries of the issue and its
children. At most 2 bullets for the main issue and at least 1 bullet per child issue.

### What is yet to be done?
Remaining work and next actions. At most 2 bullets for the main issue and at least 1 bullet per
child issue.

### Any blockers, risks or dependencies?
At most 2 bullets for the main issue and at least 1 bullet per child issue.

### Any other relevant information?
3 to 5 bullets.

Issue data:
"""
{{.Data}}
"""
`

// DescriptionPromptTemplate asks for a description rewritten into the team layout.
const DescriptionPromptTemplate = `You are an expert in writing consistent and cleanly structured JIRA issue descriptions.

Take the input title and description, understand the underlying work request, and return it
reformatted into exactly this JIRA markup structure:

"""
*+AI Generated Description+*
+*USER STORY:*+

<What are we attempting to achieve? Break into user role, intent, and outcome>
*As a* <user role identified from the description>
*I want to* <intent>
*So that* <outcome>

+*ACCEPTANCE CRITERIA:*+

<What conditions define the issue as completed? Use bullet points if needed.>

*+CUSTOMER EXPERIENCE:+*

<_Only fill out if applicable. Otherwise delete this section._>

*+BREADCRUMBS:+*

<_Where can SREs look for additional information? List links, docs, or mark N/A._>

*+NOTES:+*

<Any pre-requisites or special instructions for the engineer. Code blocks and their usage go here.>
"""

Do not add anything else: no commentary, no reasoning, no surrounding quotes.

Title: {{.Title}}
Description:
"""
{{.Description}}
"""
`

// CommentDigest is one comment handed to the model.
type CommentDigest struct {
	Author  string `json:"author"`
	Created string `json:"created"`
	Body    string `json:"body"`
}

// IssueDigest is the issue data handed to the model for a rundown.
type IssueDigest struct {
	Key           string          `json:"key"`
	Title         string          `json:"title"`
	Assignee      string          `json:"assignee,omitempty"`
	Updated       string          `json:"updated,omitempty"`
	Description   string          `json:"description,omitempty"`
	Status        string          `json:"status"`
	StatusSummary string          `json:"status_summary,omitempty"`
	Comments      []CommentDigest `json:"comments,omitempty"`
	Children      []IssueDigest   `json:"children,omitempty"`
}

var (
	rundownTmpl     = template.Must(template.New("rundown").Parse(RundownPromptTemplate))
	descriptionTmpl = template.Must(template.New("description").Parse(DescriptionPromptTemplate))
)

// BuildRundownPrompt renders the progress summary prompt for digest.
func BuildRundownPrompt(digest IssueDigest) (string, error) {
	var data bytes.Buffer
	enc := json.NewEncoder(&data)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(digest); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	payload := strings.TrimRight(data.String(), "\n")
	if err := rundownTmpl.Execute(&buf, struct{ Data string }{Data: payload}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// BuildDescriptionPrompt renders the description standardization prompt.
func BuildDescriptionPrompt(title, description string) (string, error) {
	if strings.TrimSpace(description) == "" {
		description = "(no description provided)"
	}

	var buf bytes.Buffer
	err := descriptionTmpl.Execute(&buf, struct {
		Title       string
		Description string
	}{Title: title, Description: description})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
