package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRundownPrompt(t *testing.T) {
	digest := IssueDigest{
		Key:    "ABC-1",
		Title:  "Rotate certificates",
		Status: "In Progress",
		Comments: []CommentDigest{
			{Author: "Jane Doe", Created: "2025-05-01", Body: "waiting on infra"},
		},
		Children: []IssueDigest{
			{Key: "ABC-2", Title: "Staging", Status: "Closed"},
		},
	}

	prompt, err := BuildRundownPrompt(digest)

	require.NoError(t, err)
	assert.Contains(t, prompt, `"key": "ABC-1"`)
	assert.Contains(t, prompt, `"body": "waiting on infra"`)
	assert.Contains(t, prompt, `"key": "ABC-2"`)
	assert.Contains(t, prompt, "### What is yet to be done?")
	// optional empty fields are omitted from the data
	assert.NotContains(t, prompt, `"status_summary"`)
}

func TestBuildRundownPrompt_DoesNotEscapeHTML(t *testing.T) {
	prompt, err := BuildRundownPrompt(IssueDigest{Key: "ABC-1", Title: "a < b", Status: "New"})

	require.NoError(t, err)
	assert.Contains(t, prompt, `"title": "a < b"`)
	assert.False(t, strings.Contains(prompt, `\u003c`))
}

func TestBuildDescriptionPrompt(t *testing.T) {
	prompt, err := BuildDescriptionPrompt("Add SSO", "Users need SSO via Okta")

	require.NoError(t, err)
	assert.Contains(t, prompt, "Title: Add SSO")
	assert.Contains(t, prompt, "Users need SSO via Okta")
	assert.Contains(t, prompt, "+*USER STORY:*+")
	assert.Contains(t, prompt, "*+BREADCRUMBS:+*")
}

func TestBuildDescriptionPrompt_EmptyDescription(t *testing.T) {
	prompt, err := BuildDescriptionPrompt("Add SSO", "  ")

	require.NoError(t, err)
	assert.Contains(t, prompt, "(no description provided)")
}
