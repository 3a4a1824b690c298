package sources

import "github.com/cespare/xxhash/v2"

// SourceMapSource is generated text annotated with a pre-existing source map, typically the output of an earlier tool in the pipeline.
type SourceMapSource struct {
	value     string
	name      string
	sourceMap *SourceMap
}

var _ Source = (*SourceMapSource)(nil)

// NewSourceMapSource returns a SourceMapSource for value with its existing map. name labels the source for diagnostics only. sourceMap must not be nil and
// must not be mutated afterwards.
func NewSourceMapSource(value, name string, sourceMap *SourceMap) *SourceMapSource {
	return &SourceMapSource{value: value, name: name, sourceMap: sourceMap}
}

func (s *SourceMapSource) Text() string {
	return s.value
}

func (s *SourceMapSource) Buffer() []byte {
	return []byte(s.value)
}

func (s *SourceMapSource) Size() int {
	return len(s.value)
}

func (s *SourceMapSource) UpdateHash(d *xxhash.Digest) {
	_, _ = d.WriteString("SourceMapSource")
	_, _ = d.WriteString(s.value)
	_, _ = d.WriteString(s.sourceMap.Mappings)
	for _, src := range s.sourceMap.Sources {
		_, _ = d.WriteString(src)
	}
	for _, c := range s.sourceMap.SourcesContent {
		_, _ = d.WriteString(c)
	}
	for _, n := range s.sourceMap.Names {
		_, _ = d.WriteString(n)
	}
}

// Map re-derives the map through the replay engine rather than returning the stored map verbatim, so that the result is normalized the same way for every
// options value (and for every source kind).
func (s *SourceMapSource) Map(options MapOptions) *SourceMap {
	return mapFromChunks(s, options)
}

func (s *SourceMapSource) StreamChunks(options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) GeneratedInfo {
	return streamChunksOfSourceMap(s.value, s.sourceMap, options, onChunk, onSource, onName)
}
