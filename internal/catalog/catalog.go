// Package catalog manages the fixed set of languages Linguava offers. The
// catalog ships embedded in the binary, is upserted into Postgres on boot
// so other tables can reference it, and serves lookups and search from an
// immutable in-memory snapshot.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

//go:embed languages.yaml
var seedYAML []byte

// Language is one offering in the catalog.
type Language struct {
	Code       string `json:"code" yaml:"code"`
	Name       string `json:"name" yaml:"name"`
	NativeName string `json:"native_name" yaml:"native_name"`
}

// Catalog is an immutable snapshot of the offered languages, ordered by
// English name.
type Catalog struct {
	languages []Language
	byCode    map[string]Language
}

// Load parses and validates the embedded seed. Codes must be well-formed
// BCP-47 tags and unique; names must be present.
func Load() (*Catalog, error) {
	return parse(seedYAML)
}

func parse(data []byte) (*Catalog, error) {
	var doc struct {
		Languages []Language `yaml:"languages"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse language seed: %w", err)
	}
	if len(doc.Languages) == 0 {
		return nil, fmt.Errorf("language seed is empty")
	}

	byCode := make(map[string]Language, len(doc.Languages))
	for _, l := range doc.Languages {
		tag, err := language.Parse(l.Code)
		if err != nil {
			return nil, fmt.Errorf("language %q: invalid BCP-47 tag: %w", l.Code, err)
		}
		// Keep the canonical spelling so lookups are case-stable.
		l.Code = tag.String()
		if l.Name == "" || l.NativeName == "" {
			return nil, fmt.Errorf("language %q: name and native_name are required", l.Code)
		}
		if _, dup := byCode[l.Code]; dup {
			return nil, fmt.Errorf("language %q: duplicate code", l.Code)
		}
		byCode[l.Code] = l
	}

	languages := make([]Language, 0, len(byCode))
	for _, l := range byCode {
		languages = append(languages, l)
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].Name < languages[j].Name })

	return &Catalog{languages: languages, byCode: byCode}, nil
}

// All returns every language ordered by English name. The returned slice
// must not be modified.
func (c *Catalog) All() []Language {
	return c.languages
}

// Get looks up a language by its canonical code.
func (c *Catalog) Get(code string) (Language, bool) {
	if l, ok := c.byCode[code]; ok {
		return l, true
	}
	// Accept any spelling that canonicalizes to a known tag.
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, false
	}
	l, ok := c.byCode[tag.String()]
	return l, ok
}

// Search returns languages whose code, English name or native name
// contains the query, case-insensitively. An empty query returns the full
// catalog.
func (c *Catalog) Search(query string) []Language {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return c.languages
	}
	var out []Language
	for _, l := range c.languages {
		if strings.Contains(strings.ToLower(l.Code), query) ||
			strings.Contains(strings.ToLower(l.Name), query) ||
			strings.Contains(strings.ToLower(l.NativeName), query) {
			out = append(out, l)
		}
	}
	return out
}
