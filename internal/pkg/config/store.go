package config

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/jiaz/jiaz/internal/pkg/errors"
)

const fileHeader = `# jiaz configuration.
# user_token and gemini_api_key are base64-encoded. This is obfuscation, not encryption:
# keep this file private (mode 0600).
`

// KeyValidator checks an LLM API key against its provider before it is stored.
type KeyValidator interface {
	ValidateKey(ctx context.Context, apiKey string) error
}

// Store persists config blocks in a single TOML file.
// Every mutation reads the whole file, changes one block or meta, and
// writes the whole file back.
type Store struct {
	path      string
	validator KeyValidator
}

// NewStore creates a store for the file at path. validator may be nil, in
// which case gemini_api_key values are stored without a remote check.
func NewStore(path string, validator KeyValidator) *Store {
	return &Store{path: path, validator: validator}
}

// Path returns the config file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the config file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads and decodes the config file.
func (s *Store) Load() (*File, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewConfigMissingError(s.path)
		}
		return nil, apperrors.NewFileSystemError("read", s.path, err)
	}

	f, err := parseFile(data)
	if err != nil {
		return nil, apperrors.NewConfigCorruptError(s.path, err)
	}
	return f, nil
}

// loadOrEmpty treats a missing file as an empty store.
func (s *Store) loadOrEmpty() (*File, error) {
	f, err := s.Load()
	if apperrors.HasCode(err, apperrors.ErrConfigMissing) {
		return NewFile(), nil
	}
	return f, err
}

func parseFile(data []byte) (*File, error) {
	var raw map[string]interface{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	f := NewFile()
	for name, section := range raw {
		table, ok := section.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("top-level key %q is not a table", name)
		}

		block := make(Block, len(table))
		for key, value := range table {
			str, err := scalarString(value)
			if err != nil {
				return nil, fmt.Errorf("block %q key %q: %w", name, key, err)
			}
			block[key] = str
		}

		if name == MetaBlockName {
			f.Active = block[ActiveKey]
			delete(block, ActiveKey)
			if len(block) > 0 {
				f.meta = block
			}
			continue
		}

		decoded, err := decodeBlock(name, block)
		if err != nil {
			return nil, err
		}
		f.blocks[name] = decoded
	}
	return f, nil
}

// scalarString accepts hand-edited numbers and booleans as their text form.
func scalarString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", value)
	}
}

// Save prunes, encodes and atomically writes f.
func (s *Store) Save(f *File) error {
	out := make(map[string]map[string]string, len(f.blocks)+1)
	for name, b := range f.blocks {
		out[name] = encodeBlock(b)
	}
	meta := make(map[string]string, len(f.meta)+1)
	for k, v := range f.meta {
		meta[k] = v
	}
	if f.Active != "" {
		meta[ActiveKey] = f.Active
	}
	if len(meta) > 0 {
		out[MetaBlockName] = meta
	}

	body, err := toml.Marshal(out)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrFileSystemError, "failed to encode configuration")
	}

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	buf.WriteString("\n")
	buf.Write(body)

	return writeFileAtomic(s.path, buf.Bytes())
}

// writeFileAtomic writes data to a temp file in the target directory and
// renames it over path so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return apperrors.NewFileSystemError("create directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.tmp")
	if err != nil {
		return apperrors.NewFileSystemError("create temp file in", dir, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewFileSystemError("write", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperrors.NewFileSystemError("sync", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewFileSystemError("close", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return apperrors.NewFileSystemError("chmod", tmpName, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return apperrors.NewFileSystemError("rename", path, err)
	}
	return nil
}

// GetBlock returns the named block.
func (s *Store) GetBlock(name string) (Block, error) {
	f, err := s.Load()
	if err != nil {
		return nil, err
	}
	b, ok := f.Block(name)
	if !ok {
		return nil, apperrors.NewBlockNotFoundError(name)
	}
	return b, nil
}

// Get returns the decoded value of key in the named block.
func (s *Store) Get(name, key string) (string, error) {
	b, err := s.GetBlock(name)
	if err != nil {
		return "", err
	}
	v, ok := b[key]
	if !ok {
		return "", apperrors.NewKeyNotFoundError(name, key)
	}
	return v, nil
}

// Set stores value under key in the named block, creating the block when
// needed. An empty value removes the key. A gemini_api_key is validated
// before anything is written; on failure the file is left untouched.
func (s *Store) Set(ctx context.Context, name, key, value string) error {
	if name == MetaBlockName {
		return apperrors.NewInvalidArgumentsError("'meta' is reserved and cannot be edited with config set").
			WithSuggestion("Use 'jiaz config use <name>' to change the active block")
	}
	if name == "" || key == "" {
		return apperrors.NewInvalidArgumentsError("block name and key must not be empty")
	}

	f, err := s.loadOrEmpty()
	if err != nil {
		return err
	}

	if key == KeyGeminiAPIKey && value != "" && s.validator != nil {
		if err := s.validator.ValidateKey(ctx, value); err != nil {
			if apperrors.HasCode(err, apperrors.ErrInvalidAPIKey) {
				return err
			}
			return apperrors.NewInvalidAPIKeyError("gemini", err)
		}
	}

	b, _ := f.Block(name)
	if b == nil {
		b = make(Block)
	}
	b[key] = value
	f.Put(name, b)

	return s.Save(f)
}

// Use marks name as the active block.
func (s *Store) Use(name string) error {
	f, err := s.Load()
	if err != nil {
		return err
	}
	if !f.Has(name) {
		return apperrors.NewBlockNotFoundError(name)
	}
	f.Active = name
	return s.Save(f)
}

// ResolveActive returns the block selected by override, or the active block
// when override is empty.
func (s *Store) ResolveActive(override string) (string, Block, error) {
	f, err := s.Load()
	if err != nil {
		return "", nil, err
	}

	name := override
	if name == "" {
		active, ok := f.ActiveBlock()
		if !ok {
			return "", nil, apperrors.NewNoActiveConfigError()
		}
		name = active
	}

	b, ok := f.Block(name)
	if !ok {
		return "", nil, apperrors.NewBlockNotFoundError(name)
	}
	return name, b, nil
}

// Init stores a block built from prompted values, falling back to the
// default block for blank fields. The first block ever stored, or any block
// created while no valid active block exists, becomes active.
func (s *Store) Init(name string, prompted Block) (Block, error) {
	if name == "" {
		name = DefaultBlockName
	}
	if name == MetaBlockName {
		return nil, apperrors.NewInvalidArgumentsError("'meta' is reserved and cannot be used as a block name")
	}

	f, err := s.loadOrEmpty()
	if err != nil {
		return nil, err
	}

	defaults, _ := f.Block(DefaultBlockName)
	merged := ResolveDefaults(prompted, defaults)
	if missing := merged.MissingRequired(); len(missing) > 0 {
		return nil, apperrors.NewMissingRequiredFieldError(name, missing[0])
	}

	f.Put(name, merged)
	if _, ok := f.ActiveBlock(); !ok {
		f.Active = name
	}

	if err := s.Save(f); err != nil {
		return nil, err
	}
	return merged, nil
}

// Defaults returns the default block, or an empty block when there is none
// or no file yet.
func (s *Store) Defaults() (Block, error) {
	f, err := s.loadOrEmpty()
	if err != nil {
		return nil, err
	}
	b, ok := f.Block(DefaultBlockName)
	if !ok {
		return Block{}, nil
	}
	return b, nil
}

// List returns the block names and the active block name.
func (s *Store) List() ([]string, string, error) {
	f, err := s.Load()
	if err != nil {
		return nil, "", err
	}
	active, _ := f.ActiveBlock()
	return f.Names(), active, nil
}
