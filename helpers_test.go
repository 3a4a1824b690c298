package sources

import (
	"strings"
	"testing"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// chunkEvent is one OnChunk invocation.
type chunkEvent struct {
	Chunk   string
	Mapping Mapping
}

// sourceEvent is one OnSource invocation.
type sourceEvent struct {
	Index   int
	Source  string
	Content string
}

// nameEvent is one OnName invocation.
type nameEvent struct {
	Index int
	Name  string
}

// streamResult captures a full streaming pass for comparison between strategies.
type streamResult struct {
	chunks  []chunkEvent
	sources []sourceEvent
	names   []nameEvent
	info    GeneratedInfo
}

func collectStream(s Source, options MapOptions) streamResult {
	var r streamResult
	r.info = s.StreamChunks(options,
		func(chunk string, m Mapping) {
			r.chunks = append(r.chunks, chunkEvent{Chunk: chunk, Mapping: m})
		},
		func(idx int, source, content string) {
			r.sources = append(r.sources, sourceEvent{Index: idx, Source: source, Content: content})
		},
		func(idx int, name string) {
			r.names = append(r.names, nameEvent{Index: idx, Name: name})
		})
	return r
}

func joinChunks(chunks []string) string {
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c)
	}
	return b.String()
}

// assertEqualText is like assert.Equal for strings, but fails with a readable character diff, which testify's dump is not for multi-line generated text.
func assertEqualText(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(want, got, false)
	t.Errorf("text mismatch (want vs got):\n%s", dmp.DiffPrettyText(diffs))
}
