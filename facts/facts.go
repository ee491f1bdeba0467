// Package facts holds the static HiveQL reference data used by completion and
// hover: keywords, built-in functions and the values accepted by USE.
package facts

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed hive.yaml
var hiveData []byte

// EntryKind tags which list an Entry belongs to.
type EntryKind uint8

const (
	KindKeyword EntryKind = iota
	KindFunction
	KindUseValue
)

func (k EntryKind) String() string {
	switch k {
	case KindKeyword:
		return "keyword"
	case KindFunction:
		return "function"
	case KindUseValue:
		return "use value"
	default:
		return fmt.Sprintf("EntryKind(%d)", k)
	}
}

// Entry is one reference item.
type Entry struct {
	Kind        EntryKind `yaml:"-"`
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Syntax      string    `yaml:"syntax,omitempty"`
}

// Literal is the text completion offers for the entry. Functions carry an empty
// argument list, which the formatter turns into a snippet.
func (e Entry) Literal() string {
	if e.Kind == KindFunction {
		return e.Name + "()"
	}

	return e.Name
}

// Category is the candidate category of the entry. USE values are keywords.
func (e Entry) Category() string {
	if e.Kind == KindFunction {
		return "function"
	}

	return "keyword"
}

// Documentation returns the description followed by the syntax line, or ""
// when there is no description.
func (e Entry) Documentation() string {
	if e.Description == "" {
		return ""
	}

	if e.Syntax == "" {
		return e.Description
	}

	return e.Description + "\n\nSyntax: " + e.Syntax
}

// Set is a complete collection of reference data.
type Set struct {
	Keywords  []Entry `yaml:"keywords"`
	Functions []Entry `yaml:"functions"`
	UseValues []Entry `yaml:"use_values"`
}

// Load decodes reference data in the embedded YAML layout.
func Load(data []byte) (*Set, error) {
	var set Set

	err := yaml.Unmarshal(data, &set)
	if err != nil {
		return nil, fmt.Errorf("decoding facts: %w", err)
	}

	tag(set.Keywords, KindKeyword)
	tag(set.Functions, KindFunction)
	tag(set.UseValues, KindUseValue)

	return &set, nil
}

func tag(entries []Entry, kind EntryKind) {
	for i := range entries {
		entries[i].Kind = kind
	}
}

var defaultSet = sync.OnceValue(func() *Set {
	set, err := Load(hiveData)
	if err != nil {
		panic(err)
	}

	return set
})

// Default returns the built-in HiveQL reference data. The result is shared and
// must not be modified.
func Default() *Set {
	return defaultSet()
}

// Lookup finds a keyword or function by name, case-insensitively. A trailing
// "()" is ignored so function literals can be looked up directly.
func (s *Set) Lookup(name string) (Entry, bool) {
	name = strings.TrimSuffix(strings.TrimSpace(name), "()")

	for _, list := range [][]Entry{s.Functions, s.Keywords, s.UseValues} {
		for _, e := range list {
			if strings.EqualFold(e.Name, name) {
				return e, true
			}
		}
	}

	return Entry{}, false
}
