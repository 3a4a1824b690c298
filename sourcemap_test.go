package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceMapJSON(t *testing.T) {
	m, err := ParseSourceMapJSON([]byte(`{
		"version": 3,
		"file": "out.js",
		"sources": ["a.js", null],
		"sourcesContent": ["var a;", null],
		"names": ["a"],
		"mappings": "AAAA"
	}`))
	require.NoError(t, err)
	assert.Equal(t, "out.js", m.File)
	assert.Equal(t, "AAAA", m.Mappings)
	assert.Equal(t, []string{"a.js", ""}, m.Sources)
	assert.Equal(t, []string{"var a;", ""}, m.SourcesContent)
	assert.Equal(t, []string{"a"}, m.Names)
}

func TestParseSourceMapJSON_MissingFields(t *testing.T) {
	m, err := ParseSourceMapJSON([]byte(`{"mappings": ";AACA"}`))
	require.NoError(t, err)
	assert.Equal(t, ";AACA", m.Mappings)
	assert.Nil(t, m.Sources)
	assert.Nil(t, m.Names)
}

func TestParseSourceMapJSON_Errors(t *testing.T) {
	_, err := ParseSourceMapJSON([]byte(`{`))
	require.Error(t, err)
	_, err = ParseSourceMapJSON([]byte(`{"version": 2, "mappings": ""}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "version")
}

func TestSourceMapJSON_RoundTrip(t *testing.T) {
	m := NewSourceMap("AAAA;AACA", []string{"a.js", "b.js"}, []string{"var a;", ""}, []string{"a"})
	b, err := m.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(b), `"version":3`)
	assert.Contains(t, string(b), `"sourcesContent":["var a;",null]`)

	back, err := ParseSourceMapJSON(b)
	require.NoError(t, err)
	assert.Equal(t, m.Mappings, back.Mappings)
	assert.Equal(t, m.Sources, back.Sources)
	assert.Equal(t, m.SourcesContent, back.SourcesContent)
	assert.Equal(t, m.Names, back.Names)
}

func TestSourceMapJSON_OmitsEmptySourcesContent(t *testing.T) {
	m := NewSourceMap("AAAA", []string{"a.js"}, []string{""}, nil)
	b, err := m.JSON()
	require.NoError(t, err)
	assert.NotContains(t, string(b), "sourcesContent")
	assert.Contains(t, string(b), `"names":[]`)
}

func TestSourceMapClone(t *testing.T) {
	var nilMap *SourceMap
	assert.Nil(t, nilMap.Clone())

	m := NewSourceMap("AAAA", []string{"a.js"}, []string{"var a;"}, nil)
	c := m.Clone()
	require.NotNil(t, c)
	assert.NotSame(t, m, c)
	assert.Equal(t, m, c)
	// Structurally shared: the slices are the same backing storage.
	assert.Same(t, &m.Sources[0], &c.Sources[0])
}
