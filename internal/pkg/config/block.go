package config

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"
)

// Reserved block names and the meta key.
const (
	MetaBlockName    = "meta"
	DefaultBlockName = "default"
	ActiveKey        = "active"
)

// Recognized block keys. Unknown keys are carried through untouched.
const (
	KeyServerURL           = "server_url"
	KeyUserToken           = "user_token"
	KeyJiraProject         = "jira_project"
	KeyJiraBacklogName     = "jira_backlog_name"
	KeyJiraSprintboardName = "jira_sprintboard_name"
	KeyJiraSprintboardID   = "jira_sprintboard_id"
	KeyJiraBoardName       = "jira_board_name"
	KeyGeminiAPIKey        = "gemini_api_key"
)

// RequiredKeys must be non-empty in every stored block.
var RequiredKeys = []string{KeyServerURL, KeyUserToken}

// KnownKeys lists the recognized keys in prompt order.
var KnownKeys = []string{
	KeyServerURL,
	KeyUserToken,
	KeyJiraProject,
	KeyJiraBacklogName,
	KeyJiraSprintboardName,
	KeyJiraSprintboardID,
	KeyJiraBoardName,
	KeyGeminiAPIKey,
}

// SensitiveKeys are base64-encoded on disk.
var SensitiveKeys = map[string]bool{
	KeyUserToken:    true,
	KeyGeminiAPIKey: true,
}

// IsSensitive reports whether key is stored encoded.
func IsSensitive(key string) bool {
	return SensitiveKeys[key]
}

// Block is one named, flat key/value configuration for a JIRA instance or team.
// Values are always plaintext in memory.
type Block map[string]string

// Clone returns a copy of b.
func (b Block) Clone() Block {
	out := make(Block, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Prune drops every key whose value is empty and returns b.
func (b Block) Prune() Block {
	for k, v := range b {
		if v == "" {
			delete(b, k)
		}
	}
	return b
}

// Keys returns the block keys with recognized keys first, in prompt order,
// followed by unknown keys sorted alphabetically.
func (b Block) Keys() []string {
	keys := make([]string, 0, len(b))
	seen := make(map[string]bool, len(b))
	for _, k := range KnownKeys {
		if _, ok := b[k]; ok {
			keys = append(keys, k)
			seen[k] = true
		}
	}
	var extra []string
	for k := range b {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	return append(keys, extra...)
}

// MissingRequired returns the required keys that are blank in b.
func (b Block) MissingRequired() []string {
	var missing []string
	for _, k := range RequiredKeys {
		if strings.TrimSpace(b[k]) == "" {
			missing = append(missing, k)
		}
	}
	return missing
}

// ResolveDefaults returns explicit with every blank field filled from defaults.
// Neither argument is modified.
func ResolveDefaults(explicit, defaults Block) Block {
	out := explicit.Clone()
	for k, v := range defaults {
		if strings.TrimSpace(out[k]) == "" && v != "" {
			out[k] = v
		}
	}
	return out.Prune()
}

// Encode obfuscates a sensitive value for storage.
// This is base64, not encryption: anyone who can read the file can decode it.
func Encode(plain string) string {
	return base64.StdEncoding.EncodeToString([]byte(plain))
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// encodeBlock returns the on-disk form of b.
func encodeBlock(b Block) Block {
	out := make(Block, len(b))
	for k, v := range b {
		if v == "" {
			continue
		}
		if IsSensitive(k) {
			v = Encode(v)
		}
		out[k] = v
	}
	return out
}

// decodeBlock returns the in-memory form of an on-disk block.
func decodeBlock(name string, b Block) (Block, error) {
	out := make(Block, len(b))
	for k, v := range b {
		if v == "" {
			continue
		}
		if IsSensitive(k) {
			plain, err := Decode(v)
			if err != nil {
				return nil, fmt.Errorf("block %q key %q is not valid base64: %w", name, k, err)
			}
			v = plain
		}
		out[k] = v
	}
	return out, nil
}

// File is the whole block store: every named block plus the active selection.
type File struct {
	blocks map[string]Block
	Active string
	// meta holds hand-written [meta] keys other than active, kept verbatim.
	meta Block
}

// NewFile returns an empty File.
func NewFile() *File {
	return &File{blocks: make(map[string]Block)}
}

// Names returns the block names with "default" first and the rest sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.blocks))
	for name := range f.blocks {
		if name != DefaultBlockName {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if _, ok := f.blocks[DefaultBlockName]; ok {
		names = append([]string{DefaultBlockName}, names...)
	}
	return names
}

// Has reports whether a block called name exists.
func (f *File) Has(name string) bool {
	_, ok := f.blocks[name]
	return ok
}

// Block returns a copy of the named block and whether it exists.
func (f *File) Block(name string) (Block, bool) {
	b, ok := f.blocks[name]
	if !ok {
		return nil, false
	}
	return b.Clone(), true
}

// Put replaces the named block with a pruned copy of b.
func (f *File) Put(name string, b Block) {
	if f.blocks == nil {
		f.blocks = make(map[string]Block)
	}
	f.blocks[name] = b.Clone().Prune()
}

// ActiveBlock returns the active block name if it refers to an existing block.
func (f *File) ActiveBlock() (string, bool) {
	if f.Active == "" || !f.Has(f.Active) {
		return "", false
	}
	return f.Active, true
}
