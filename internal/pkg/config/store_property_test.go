package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genNonEmptyAlphaString generates non-empty alphabetic strings with length between min and max.
// This avoids the high discard rate of SuchThat filters.
func genNonEmptyAlphaString(minLen, maxLen int) gopter.Gen {
	return gen.IntRange(minLen, maxLen).FlatMap(func(length interface{}) gopter.Gen {
		n := length.(int)
		return gen.SliceOfN(n, gen.Rune()).Map(func(runes []rune) string {
			for i := range runes {
				runes[i] = 'a' + (runes[i] % 26)
			}
			return string(runes)
		})
	}, reflect.TypeOf(""))
}

// genValue generates values that are empty about a quarter of the time.
func genValue() gopter.Gen {
	return gen.Frequency(map[int]gopter.Gen{
		1: gen.Const(""),
		3: gen.OneGenOf(
			gen.AlphaString(),
			gen.NumString(),
			gen.OneConstOf("https://issues.example.com/", `quote's "double" \\ back`, "Sprint 12 [team-b]", "  padded  ", "ünïcødé"),
		),
	})
}

// genBlock generates a block mixing recognized and arbitrary keys.
func genBlock() gopter.Gen {
	keys := gen.OneGenOf(
		gen.OneConstOf(KeyServerURL, KeyUserToken, KeyJiraProject, KeyGeminiAPIKey, KeyJiraSprintboardName),
		genNonEmptyAlphaString(1, 12),
	)
	return gen.MapOf(keys, genValue()).Map(func(m map[string]string) Block {
		return Block(m)
	})
}

func TestStoreRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("save then load keeps every non-empty pair and drops empty ones", prop.ForAll(
		func(name string, b Block) bool {
			if name == MetaBlockName {
				return true
			}
			s := NewStore(filepath.Join(t.TempDir(), "config.toml"), nil)

			f := NewFile()
			f.Put(name, b)
			if err := s.Save(f); err != nil {
				t.Logf("save failed: %v", err)
				return false
			}

			loaded, err := s.Load()
			if err != nil {
				t.Logf("load failed: %v", err)
				return false
			}
			got, ok := loaded.Block(name)
			if !ok {
				return false
			}

			for k, v := range b {
				stored, present := got[k]
				if v == "" && present {
					return false
				}
				if v != "" && stored != v {
					return false
				}
			}
			for k := range got {
				if b[k] == "" {
					return false
				}
			}
			return true
		},
		genNonEmptyAlphaString(1, 10),
		genBlock(),
	))

	properties.Property("a second save/load cycle is a no-op", prop.ForAll(
		func(b Block) bool {
			s := NewStore(filepath.Join(t.TempDir(), "config.toml"), nil)
			f := NewFile()
			f.Put("work", b)
			f.Active = "work"
			if err := s.Save(f); err != nil {
				return false
			}
			first, err := os.ReadFile(s.Path())
			if err != nil {
				return false
			}

			loaded, err := s.Load()
			if err != nil {
				return false
			}
			if err := s.Save(loaded); err != nil {
				return false
			}
			second, err := os.ReadFile(s.Path())
			if err != nil {
				return false
			}
			return string(first) == string(second)
		},
		genBlock(),
	))

	properties.TestingRun(t)
}

func TestEncodeDecode_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(7)

	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(v)) == v", prop.ForAll(
		func(v string) bool {
			got, err := Decode(Encode(v))
			return err == nil && got == v
		},
		gen.AnyString(),
	))

	properties.Property("sensitive values never appear verbatim on disk", prop.ForAll(
		func(token string) bool {
			s := NewStore(filepath.Join(t.TempDir(), "config.toml"), nil)
			f := NewFile()
			f.Put("work", Block{KeyServerURL: "https://jira", KeyUserToken: token})
			if err := s.Save(f); err != nil {
				return false
			}
			raw, err := os.ReadFile(s.Path())
			if err != nil {
				return false
			}
			return !strings.Contains(string(raw), token)
		},
		genNonEmptyAlphaString(16, 40).Map(func(s string) string { return "tok" + s }),
	))

	properties.TestingRun(t)
}

func TestResolveDefaults_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(11)

	properties := gopter.NewProperties(parameters)

	properties.Property("explicit non-blank values win, blanks come from defaults", prop.ForAll(
		func(explicit, defaults Block) bool {
			got := ResolveDefaults(explicit, defaults)
			for k, v := range explicit {
				if strings.TrimSpace(v) != "" && got[k] != v {
					return false
				}
			}
			for k, v := range defaults {
				if v != "" && strings.TrimSpace(explicit[k]) == "" && got[k] != v {
					return false
				}
			}
			for _, v := range got {
				if v == "" {
					return false
				}
			}
			return true
		},
		genBlock(),
		genBlock(),
	))

	properties.TestingRun(t)
}
