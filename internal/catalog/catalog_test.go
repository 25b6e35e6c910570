package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)
	require.NotEmpty(t, c.All())

	// Ordered by English name.
	all := c.All()
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name)
	}
}

func TestParse_RejectsBadSeeds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		yaml string
	}{
		{"empty", "languages: []"},
		{"bad tag", "languages:\n  - {code: \"not a tag!\", name: X, native_name: X}"},
		{"missing name", "languages:\n  - {code: es, native_name: Español}"},
		{"duplicate code", "languages:\n  - {code: es, name: Spanish, native_name: Español}\n  - {code: es, name: Spanish, native_name: Español}"},
		{"not yaml", "{{"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestCatalog_Get(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)

	es, ok := c.Get("es")
	require.True(t, ok)
	assert.Equal(t, "Spanish", es.Name)

	// Non-canonical spellings resolve to the canonical entry.
	pt, ok := c.Get("pt-br")
	require.True(t, ok)
	assert.Equal(t, "pt-BR", pt.Code)

	_, ok = c.Get("xx-subtag-garbage!")
	assert.False(t, ok)

	_, ok = c.Get("tlh")
	assert.False(t, ok)
}

func TestCatalog_Search(t *testing.T) {
	t.Parallel()

	c, err := Load()
	require.NoError(t, err)

	tests := []struct {
		name  string
		query string
		want  []string // expected codes, any order
	}{
		{"by English name", "span", []string{"es"}},
		{"by native name", "日本", []string{"ja"}},
		{"by code", "pt-BR", []string{"pt-BR"}},
		{"case insensitive", "FRENCH", []string{"fr"}},
		{"no match", "klingon", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := c.Search(tt.query)
			codes := make([]string, 0, len(got))
			for _, l := range got {
				codes = append(codes, l.Code)
			}
			assert.ElementsMatch(t, tt.want, codes)
		})
	}

	// Empty query returns everything.
	assert.Len(t, c.Search("  "), len(c.All()))
}
