package sources

import "github.com/cespare/xxhash/v2"

// RawSource is plain generated text (or arbitrary bytes) with no mappings back to an original file.
type RawSource struct {
	value string
}

var _ Source = (*RawSource)(nil)

// NewRawSource returns a RawSource for text.
func NewRawSource(text string) *RawSource {
	return &RawSource{value: text}
}

// NewRawSourceFromBytes returns a RawSource holding b. The bytes need not be valid UTF-8; Size and Buffer report them exactly.
func NewRawSourceFromBytes(b []byte) *RawSource {
	return &RawSource{value: string(b)}
}

func (s *RawSource) Text() string {
	return s.value
}

func (s *RawSource) Buffer() []byte {
	return []byte(s.value)
}

func (s *RawSource) Size() int {
	return len(s.value)
}

func (s *RawSource) UpdateHash(d *xxhash.Digest) {
	_, _ = d.WriteString("RawSource")
	_, _ = d.WriteString(s.value)
}

// Map returns nil: raw text has no mappings.
func (s *RawSource) Map(_ MapOptions) *SourceMap {
	return nil
}

func (s *RawSource) StreamChunks(options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) GeneratedInfo {
	return streamChunksOfRawSource(s.value, options, onChunk, onSource, onName)
}
