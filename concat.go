package sources

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// ConcatSource concatenates child sources in order. Streaming shifts each child's generated positions by a running cursor and interns source paths and names
// into one global numbering, so the combined event stream is canonical.
type ConcatSource struct {
	children []Source
}

var _ Source = (*ConcatSource)(nil)

// NewConcatSource returns a ConcatSource over children.
func NewConcatSource(children ...Source) *ConcatSource {
	return &ConcatSource{children: children}
}

// Add appends child. Add must not be called concurrently with other methods.
func (s *ConcatSource) Add(child Source) {
	s.children = append(s.children, child)
}

func (s *ConcatSource) Text() string {
	var b strings.Builder
	for _, c := range s.children {
		b.WriteString(c.Text())
	}
	return b.String()
}

func (s *ConcatSource) Buffer() []byte {
	var b []byte
	for _, c := range s.children {
		b = append(b, c.Buffer()...)
	}
	return b
}

func (s *ConcatSource) Size() int {
	n := 0
	for _, c := range s.children {
		n += c.Size()
	}
	return n
}

func (s *ConcatSource) UpdateHash(d *xxhash.Digest) {
	_, _ = d.WriteString("ConcatSource")
	for _, c := range s.children {
		c.UpdateHash(d)
	}
}

func (s *ConcatSource) Map(options MapOptions) *SourceMap {
	return mapFromChunks(s, options)
}

func (s *ConcatSource) StreamChunks(options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) GeneratedInfo {
	curLine := 1
	curCol := 0

	// Sources are deduplicated across children by (path, content) pair, names by spelling.
	globalSources := map[string]int{}
	globalNames := map[string]int{}

	for _, child := range s.children {
		childToGlobalSource := map[int]int{}
		childToGlobalName := map[int]int{}

		info := child.StreamChunks(options,
			func(chunk string, m Mapping) {
				shifted := m
				shifted.GeneratedLine = m.GeneratedLine + curLine - 1
				if m.GeneratedLine == 1 {
					shifted.GeneratedColumn = m.GeneratedColumn + curCol
				}
				if m.Original != nil {
					o := *m.Original
					o.SourceIndex = childToGlobalSource[o.SourceIndex]
					if o.NameIndex >= 0 {
						o.NameIndex = childToGlobalName[o.NameIndex]
					}
					shifted.Original = &o
				}
				if onChunk != nil {
					onChunk(chunk, shifted)
				}
			},
			func(idx int, source, content string) {
				key := source + "\x00" + content
				global, seen := globalSources[key]
				if !seen {
					global = len(globalSources)
					globalSources[key] = global
					if onSource != nil {
						onSource(global, source, content)
					}
				}
				childToGlobalSource[idx] = global
			},
			func(idx int, name string) {
				global, seen := globalNames[name]
				if !seen {
					global = len(globalNames)
					globalNames[name] = global
					if onName != nil {
						onName(global, name)
					}
				}
				childToGlobalName[idx] = global
			})

		if info.GeneratedLine == 1 {
			curCol += info.GeneratedColumn
		} else {
			curLine += info.GeneratedLine - 1
			curCol = info.GeneratedColumn
		}
	}
	return GeneratedInfo{GeneratedLine: curLine, GeneratedColumn: curCol}
}
