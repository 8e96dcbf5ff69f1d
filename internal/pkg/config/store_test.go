package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

// MockKeyValidator is a mock implementation of KeyValidator.
type MockKeyValidator struct {
	mock.Mock
}

func (m *MockKeyValidator) ValidateKey(ctx context.Context, apiKey string) error {
	args := m.Called(ctx, apiKey)
	return args.Error(0)
}

func newTestStore(t *testing.T, validator KeyValidator) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "config.toml"), validator)
}

func writeRaw(t *testing.T, s *Store, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(s.Path(), []byte(content), 0600))
}

func TestStore_LoadMissing(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.Load()

	assert.True(t, apperrors.HasCode(err, apperrors.ErrConfigMissing))
	assert.False(t, s.Exists())
}

func TestStore_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not toml", "this is = = not toml ["},
		{"top-level scalar", "stray = 'value'\n"},
		{"nested table", "[work]\nserver_url = 'x'\n[work.inner]\nk = 'v'\n"},
		{"array value", "[work]\nlabels = ['a', 'b']\n"},
		{"bad base64 token", "[work]\nserver_url = 'x'\nuser_token = '***not-base64***'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t, nil)
			writeRaw(t, s, tt.content)

			_, err := s.Load()

			assert.True(t, apperrors.HasCode(err, apperrors.ErrConfigCorrupt), "got %v", err)
		})
	}
}

func TestStore_LoadAcceptsScalarNumbers(t *testing.T) {
	s := newTestStore(t, nil)
	writeRaw(t, s, "[work]\nserver_url = 'https://jira'\njira_sprintboard_id = 1234\n")

	b, err := s.GetBlock("work")

	require.NoError(t, err)
	assert.Equal(t, "1234", b[KeyJiraSprintboardID])
}

func TestStore_SensitiveFieldsEncodedOnDisk(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "work", KeyServerURL, "https://issues.example.com"))
	require.NoError(t, s.Set(ctx, "work", KeyUserToken, "secret-token"))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret-token")
	assert.Contains(t, string(raw), Encode("secret-token"))
	assert.Contains(t, string(raw), "https://issues.example.com")

	got, err := s.Get("work", KeyUserToken)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", got)
}

func TestStore_FileMode(t *testing.T) {
	s := newTestStore(t, nil)
	require.NoError(t, s.Set(context.Background(), "work", KeyServerURL, "x"))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_SetEmptyRemovesKey(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "work", KeyJiraProject, "ABC"))
	require.NoError(t, s.Set(ctx, "work", KeyJiraProject, ""))

	_, err := s.Get("work", KeyJiraProject)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrKeyNotFound))
}

func TestStore_SetMetaRejected(t *testing.T) {
	s := newTestStore(t, nil)

	err := s.Set(context.Background(), MetaBlockName, ActiveKey, "work")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidArguments))
	assert.False(t, s.Exists())
}

func TestStore_SetGeminiKey_Validated(t *testing.T) {
	validator := new(MockKeyValidator)
	validator.On("ValidateKey", mock.Anything, "good-key").Return(nil)
	s := newTestStore(t, validator)

	require.NoError(t, s.Set(context.Background(), "work", KeyGeminiAPIKey, "good-key"))

	got, err := s.Get("work", KeyGeminiAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "good-key", got)
	validator.AssertExpectations(t)
}

func TestStore_SetGeminiKey_RejectedLeavesFileUnchanged(t *testing.T) {
	validator := new(MockKeyValidator)
	validator.On("ValidateKey", mock.Anything, "bad-key").Return(errors.New("401 unauthorized"))
	s := newTestStore(t, validator)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "work", KeyServerURL, "https://jira"))
	before, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	err = s.Set(ctx, "work", KeyGeminiAPIKey, "bad-key")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrInvalidAPIKey))
	after, readErr := os.ReadFile(s.Path())
	require.NoError(t, readErr)
	assert.Equal(t, before, after)
	validator.AssertExpectations(t)
}

func TestStore_SetGeminiKey_EmptySkipsValidation(t *testing.T) {
	validator := new(MockKeyValidator)
	s := newTestStore(t, validator)

	require.NoError(t, s.Set(context.Background(), "work", KeyGeminiAPIKey, ""))

	validator.AssertNotCalled(t, "ValidateKey", mock.Anything, mock.Anything)
}

func TestStore_GetErrors(t *testing.T) {
	s := newTestStore(t, nil)
	require.NoError(t, s.Set(context.Background(), "work", KeyServerURL, "x"))

	_, err := s.Get("missing", KeyServerURL)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBlockNotFound))

	_, err = s.Get("work", KeyJiraProject)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrKeyNotFound))
}

func TestStore_UseAndResolveActive(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "a", KeyServerURL, "https://a"))
	require.NoError(t, s.Set(ctx, "b", KeyServerURL, "https://b"))

	_, _, err := s.ResolveActive("")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNoActiveConfig))

	require.NoError(t, s.Use("b"))

	name, block, err := s.ResolveActive("")
	require.NoError(t, err)
	assert.Equal(t, "b", name)
	assert.Equal(t, "https://b", block[KeyServerURL])

	name, block, err = s.ResolveActive("a")
	require.NoError(t, err)
	assert.Equal(t, "a", name)
	assert.Equal(t, "https://a", block[KeyServerURL])

	_, _, err = s.ResolveActive("c")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrBlockNotFound))

	// the override is per call; the stored active block is unchanged
	name, _, err = s.ResolveActive("")
	require.NoError(t, err)
	assert.Equal(t, "b", name)
}

func TestStore_UseUnknownBlock(t *testing.T) {
	s := newTestStore(t, nil)
	require.NoError(t, s.Set(context.Background(), "a", KeyServerURL, "x"))

	err := s.Use("nope")

	assert.True(t, apperrors.HasCode(err, apperrors.ErrBlockNotFound))
}

func TestStore_DanglingActive(t *testing.T) {
	s := newTestStore(t, nil)
	writeRaw(t, s, "[a]\nserver_url = 'x'\n\n[meta]\nactive = 'gone'\n")

	_, _, err := s.ResolveActive("")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNoActiveConfig))

	_, active, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestStore_KeepsExtraMetaKeys(t *testing.T) {
	s := newTestStore(t, nil)
	writeRaw(t, s, "[default]\nserver_url = 'x'\n\n[other]\nserver_url = 'y'\n\n[meta]\nactive = 'default'\ngemini_api_key = 'a2V5'\n")

	require.NoError(t, s.Use("other"))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var raw map[string]map[string]string
	require.NoError(t, toml.Unmarshal(data, &raw))
	assert.Equal(t, map[string]string{ActiveKey: "other", KeyGeminiAPIKey: "a2V5"}, raw[MetaBlockName])

	names, active, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultBlockName, "other"}, names)
	assert.Equal(t, "other", active)
}

func TestStore_MetaWithoutActiveSurvivesSave(t *testing.T) {
	s := newTestStore(t, nil)
	writeRaw(t, s, "[meta]\nnote = 'hand edited'\n")

	require.NoError(t, s.Set(context.Background(), "a", KeyServerURL, "x"))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	var raw map[string]map[string]string
	require.NoError(t, toml.Unmarshal(data, &raw))
	assert.Equal(t, map[string]string{"note": "hand edited"}, raw[MetaBlockName])
}

func TestStore_InitFallsBackToDefault(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.Init(DefaultBlockName, Block{
		KeyServerURL:   "https://jira",
		KeyUserToken:   "tok",
		KeyJiraProject: "ABC",
	})
	require.NoError(t, err)

	got, err := s.Init("team-b", Block{
		KeyJiraProject:     "",
		KeyJiraBacklogName: "backlog-b",
	})
	require.NoError(t, err)

	assert.Equal(t, "ABC", got[KeyJiraProject])
	assert.Equal(t, "https://jira", got[KeyServerURL])
	assert.Equal(t, "tok", got[KeyUserToken])
	assert.Equal(t, "backlog-b", got[KeyJiraBacklogName])

	stored, err := s.GetBlock("team-b")
	require.NoError(t, err)
	assert.Equal(t, got, stored)

	// the first block stays active
	name, _, err := s.ResolveActive("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBlockName, name)
}

func TestStore_InitMissingRequired(t *testing.T) {
	s := newTestStore(t, nil)

	_, err := s.Init("work", Block{KeyServerURL: "https://jira"})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrMissingRequiredField))
	assert.Contains(t, err.Error(), KeyUserToken)
	assert.False(t, s.Exists())
}

func TestStore_ListAndBlocks(t *testing.T) {
	s := newTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "zeta", KeyServerURL, "z"))
	require.NoError(t, s.Set(ctx, DefaultBlockName, KeyServerURL, "d"))
	require.NoError(t, s.Set(ctx, "alpha", KeyServerURL, "a"))
	require.NoError(t, s.Use("alpha"))

	names, active, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultBlockName, "alpha", "zeta"}, names)
	assert.Equal(t, "alpha", active)

	zeta, err := s.GetBlock("zeta")
	require.NoError(t, err)
	assert.Equal(t, "z", zeta[KeyServerURL])
}

func TestStore_FileHeaderWarnsAboutObfuscation(t *testing.T) {
	s := newTestStore(t, nil)
	require.NoError(t, s.Set(context.Background(), "work", KeyServerURL, "x"))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "# jiaz configuration."))
	assert.Contains(t, string(raw), "not encryption")
}
