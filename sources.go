// Package sources composes program text together with mappings back to the
// original files (source maps), in the manner of a bundler's source pipeline.
//
// Every node in a composed-text tree implements Source: produce the flattened
// text, the binary buffer, a structural content hash, a source map for given
// options, or stream the text as chunk/source/name events. CachedSource wraps
// any Source and memoizes all of these behind a shared, thread-safe handle.
package sources

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Source is a node in a composed-text tree.
//
// Implementations must be deterministic: for a fixed receiver, every method returns the same result on every call. All implementations in this package are
// safe for concurrent use.
type Source interface {
	// Text returns the flattened generated text of this source.
	Text() string

	// Buffer returns the generated text as bytes. Callers must treat the returned slice as read-only.
	Buffer() []byte

	// Size returns the byte length of Text().
	Size() int

	// UpdateHash writes a structural fingerprint of this source into d. The combination is order-sensitive and fast, not cryptographic; use HashSource to
	// finalize a single source.
	UpdateHash(d *xxhash.Digest)

	// Map returns the source map for the given options, or nil if this source has no mappings.
	Map(options MapOptions) *SourceMap

	// StreamChunks regenerates the chunk/source/name event sequence of this source in generation order, and returns the end-of-stream cursor.
	//
	// Streams are canonical: chunks are contiguous, cover the whole text, never span a newline, and sources/names are announced on first use. Nil callbacks
	// discard their events.
	StreamChunks(options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) GeneratedInfo
}

// MapOptions control source map generation.
type MapOptions struct {
	// Columns selects column-level mapping granularity. When false, at most one mapping is kept per generated line, at column 0.
	//
	// Columns is the only field that keys map caches: two calls differing only in FinalSource share one cached map.
	Columns bool

	// FinalSource indicates the caller already holds the full generated text and only needs mapping events: chunk text is omitted (empty) and no unmapped
	// filler chunks are synthesized.
	FinalSource bool
}

// DefaultMapOptions returns the options used by most callers: column-level granularity, chunk text included.
func DefaultMapOptions() MapOptions {
	return MapOptions{Columns: true}
}

// Mapping correlates a generated-text position with an optional original location. Lines are 1-based; columns are 0-based byte offsets.
type Mapping struct {
	GeneratedLine   int
	GeneratedColumn int
	Original        *OriginalLocation // nil for unmapped generated text
}

// OriginalLocation is the original-file side of a Mapping.
type OriginalLocation struct {
	SourceIndex    int
	OriginalLine   int
	OriginalColumn int
	NameIndex      int // -1 when the mapping carries no identifier name
}

// GeneratedInfo is the end-of-stream cursor of a streaming pass: the line and column one past the last generated character.
type GeneratedInfo struct {
	GeneratedLine   int
	GeneratedColumn int
}

// OnChunk receives one contiguous fragment of generated text with its mapping. The chunk is empty when options.FinalSource is set.
type OnChunk func(chunk string, m Mapping)

// OnSource receives an original file path (and its content, or "" if unknown) the first time a mapping references sourceIndex.
type OnSource func(sourceIndex int, source string, sourceContent string)

// OnName receives an identifier name the first time a mapping references nameIndex.
type OnName func(nameIndex int, name string)

// HashSource returns the structural content hash of s.
func HashSource(s Source) uint64 {
	d := xxhash.New()
	s.UpdateHash(d)
	return d.Sum64()
}

// splitIntoLines splits text after every newline, keeping the "\n". "a\nb" yields ["a\n", "b"]; "" yields nil.
func splitIntoLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for len(text) > 0 {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			lines = append(lines, text)
			break
		}
		lines = append(lines, text[:i+1])
		text = text[i+1:]
	}
	return lines
}

// getGeneratedSourceInfo returns the cursor position after streaming the whole of text.
func getGeneratedSourceInfo(text string) GeneratedInfo {
	if text == "" {
		return GeneratedInfo{GeneratedLine: 1, GeneratedColumn: 0}
	}
	newlines := strings.Count(text, "\n")
	if strings.HasSuffix(text, "\n") {
		return GeneratedInfo{GeneratedLine: newlines + 1, GeneratedColumn: 0}
	}
	lastNL := strings.LastIndexByte(text, '\n')
	return GeneratedInfo{GeneratedLine: newlines + 1, GeneratedColumn: len(text) - lastNL - 1}
}
