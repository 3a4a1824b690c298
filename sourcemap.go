package sources

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// SourceMap is the standard externally-serialized source map (schema version 3): serialized mappings plus the original file paths, contents, and names they
// reference.
//
// SourcesContent is sparse and parallel to Sources; holes are the empty string. Instances stored in caches are never mutated, so sharing them (see Clone) is
// safe across goroutines.
type SourceMap struct {
	File           string
	Mappings       string
	Sources        []string
	SourcesContent []string
	Names          []string
}

// NewSourceMap builds a SourceMap from already-serialized mappings and the sequences they index into.
func NewSourceMap(mappings string, sources, sourcesContent, names []string) *SourceMap {
	return &SourceMap{
		Mappings:       mappings,
		Sources:        sources,
		SourcesContent: sourcesContent,
		Names:          names,
	}
}

// Clone returns a cheap, structurally shared copy: the slices are shared with the receiver, which is sound because maps handed out of caches are never
// mutated. Clone of nil is nil.
func (m *SourceMap) Clone() *SourceMap {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}

// ParseSourceMapJSON decodes the standard JSON form of a source map. Null or missing entries in "sources" and "sourcesContent" become empty strings. A
// "version" other than 3 is an error; a missing version is tolerated.
func ParseSourceMapJSON(data []byte) (*SourceMap, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("sources: ParseSourceMapJSON: invalid JSON")
	}
	root := gjson.ParseBytes(data)
	if v := root.Get("version"); v.Exists() && v.Int() != 3 {
		return nil, fmt.Errorf("sources: ParseSourceMapJSON: unsupported version %d", v.Int())
	}
	m := &SourceMap{
		File:           root.Get("file").String(),
		Mappings:       root.Get("mappings").String(),
		Sources:        stringArray(root.Get("sources")),
		SourcesContent: stringArray(root.Get("sourcesContent")),
		Names:          stringArray(root.Get("names")),
	}
	return m, nil
}

func stringArray(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	arr := r.Array()
	out := make([]string, len(arr))
	for i, v := range arr {
		if v.Type == gjson.Null {
			continue
		}
		out[i] = v.String()
	}
	return out
}

// JSON encodes m in the standard schema. Empty-string holes in SourcesContent are written as null; an all-empty SourcesContent is omitted.
func (m *SourceMap) JSON() ([]byte, error) {
	type external struct {
		Version        int       `json:"version"`
		File           string    `json:"file,omitempty"`
		Sources        []string  `json:"sources"`
		SourcesContent []*string `json:"sourcesContent,omitempty"`
		Names          []string  `json:"names"`
		Mappings       string    `json:"mappings"`
	}
	e := external{
		Version:  3,
		File:     m.File,
		Sources:  m.Sources,
		Names:    m.Names,
		Mappings: m.Mappings,
	}
	if e.Sources == nil {
		e.Sources = []string{}
	}
	if e.Names == nil {
		e.Names = []string{}
	}
	hasContent := false
	for i := range m.SourcesContent {
		if m.SourcesContent[i] != "" {
			hasContent = true
			break
		}
	}
	if hasContent {
		e.SourcesContent = make([]*string, len(m.SourcesContent))
		for i := range m.SourcesContent {
			if m.SourcesContent[i] != "" {
				e.SourcesContent[i] = &m.SourcesContent[i]
			}
		}
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("sources: SourceMap.JSON: %w", err)
	}
	return b, nil
}
