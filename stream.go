package sources

// Chunk replay: pure functions that regenerate the chunk/source/name event
// sequence either from (text, map) or from text alone. Replaying a cached
// (text, map) pair yields the same events as the traversal that produced it,
// which is what lets CachedSource answer StreamChunks without its subtree.

// streamChunksOfRawSource streams text that has no mappings: one chunk per line with an unmapped record. With options.FinalSource only the end cursor is
// produced.
func streamChunksOfRawSource(text string, options MapOptions, onChunk OnChunk, _ OnSource, _ OnName) GeneratedInfo {
	if options.FinalSource {
		return getGeneratedSourceInfo(text)
	}
	line := 1
	for _, l := range splitIntoLines(text) {
		if onChunk != nil {
			onChunk(l, Mapping{GeneratedLine: line, GeneratedColumn: 0})
		}
		line++
	}
	return getGeneratedSourceInfo(text)
}

// streamChunksOfSourceMap streams text together with an existing map.
//
// Full-columns mode emits canonical chunks: mapped chunks end at the next mapping on the same line or at end of line, and text not covered by any mapping is
// emitted as per-line chunks with unmapped records. Lines-only mode emits whole lines, keyed by the first original-bearing mapping of each line. FinalSource
// skips chunk text and gap synthesis: each serialized record is emitted with an empty chunk.
//
// Sources and names are announced on first use, in mapping order.
func streamChunksOfSourceMap(text string, m *SourceMap, options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) GeneratedInfo {
	ann := newAnnouncer(m, onSource, onName)

	// Records without an original location carry no information the encoder
	// preserves, so the replay engine ignores them throughout: gap synthesis
	// regenerates their text, and dropping them keeps a replay of a
	// re-encoded map identical to a replay of the map it came from.

	if options.FinalSource {
		lastLine := 0
		decodeMappings(m.Mappings, func(rec Mapping) {
			if rec.Original == nil {
				return
			}
			if !options.Columns {
				if rec.GeneratedLine == lastLine {
					return
				}
				lastLine = rec.GeneratedLine
				rec.GeneratedColumn = 0
				o := *rec.Original
				o.NameIndex = -1
				rec.Original = &o
			}
			ann.announce(rec.Original)
			if onChunk != nil {
				onChunk("", rec)
			}
		})
		return getGeneratedSourceInfo(text)
	}

	if !options.Columns {
		return streamChunksOfSourceMapLinesOnly(text, m, ann, onChunk)
	}

	lines := splitIntoLines(text)
	var records []Mapping
	decodeMappings(m.Mappings, func(rec Mapping) {
		if rec.Original != nil {
			records = append(records, rec)
		}
	})

	curLine := 1
	curCol := 0

	// emitGap emits uncovered text from (curLine, curCol) up to (toLine, toCol) as unmapped per-line chunks.
	emitGap := func(toLine, toCol int) {
		for curLine < toLine && curLine <= len(lines) {
			if rest := lines[curLine-1][curCol:]; rest != "" && onChunk != nil {
				onChunk(rest, Mapping{GeneratedLine: curLine, GeneratedColumn: curCol})
			}
			curLine++
			curCol = 0
		}
		if curLine == toLine && curLine <= len(lines) {
			if end := min(toCol, len(lines[curLine-1])); end > curCol {
				if onChunk != nil {
					onChunk(lines[curLine-1][curCol:end], Mapping{GeneratedLine: curLine, GeneratedColumn: curCol})
				}
				curCol = end
			}
		}
	}

	for i, rec := range records {
		if rec.GeneratedLine > len(lines) {
			break
		}
		if rec.GeneratedLine < curLine || (rec.GeneratedLine == curLine && rec.GeneratedColumn < curCol) {
			continue // behind the cursor; canonical maps are ordered
		}
		emitGap(rec.GeneratedLine, rec.GeneratedColumn)

		lineText := lines[rec.GeneratedLine-1]
		end := len(lineText)
		if next := i + 1; next < len(records) && records[next].GeneratedLine == rec.GeneratedLine {
			end = min(records[next].GeneratedColumn, end)
		}
		start := min(rec.GeneratedColumn, len(lineText))
		if end < start {
			end = start
		}
		ann.announce(rec.Original)
		if onChunk != nil {
			onChunk(lineText[start:end], rec)
		}
		curLine = rec.GeneratedLine
		curCol = end
	}
	emitGap(len(lines)+1, 0)
	return getGeneratedSourceInfo(text)
}

func streamChunksOfSourceMapLinesOnly(text string, m *SourceMap, ann *announcer, onChunk OnChunk) GeneratedInfo {
	lines := splitIntoLines(text)

	// First original-bearing mapping per generated line.
	perLine := make(map[int]*OriginalLocation)
	decodeMappings(m.Mappings, func(rec Mapping) {
		if rec.Original == nil {
			return
		}
		if _, ok := perLine[rec.GeneratedLine]; !ok {
			o := *rec.Original
			o.NameIndex = -1
			perLine[rec.GeneratedLine] = &o
		}
	})

	for i, l := range lines {
		rec := Mapping{GeneratedLine: i + 1, GeneratedColumn: 0}
		if o := perLine[i+1]; o != nil {
			ann.announce(o)
			rec.Original = o
		}
		if onChunk != nil {
			onChunk(l, rec)
		}
	}
	return getGeneratedSourceInfo(text)
}

// announcer forwards each source and name of a map the first time a mapping references it.
type announcer struct {
	m           *SourceMap
	onSource    OnSource
	onName      OnName
	sourcesSeen []bool
	namesSeen   []bool
}

func newAnnouncer(m *SourceMap, onSource OnSource, onName OnName) *announcer {
	return &announcer{
		m:           m,
		onSource:    onSource,
		onName:      onName,
		sourcesSeen: make([]bool, len(m.Sources)),
		namesSeen:   make([]bool, len(m.Names)),
	}
}

func (a *announcer) announce(o *OriginalLocation) {
	if o == nil {
		return
	}
	if i := o.SourceIndex; i >= 0 && i < len(a.sourcesSeen) && !a.sourcesSeen[i] {
		a.sourcesSeen[i] = true
		if a.onSource != nil {
			content := ""
			if i < len(a.m.SourcesContent) {
				content = a.m.SourcesContent[i]
			}
			a.onSource(i, a.m.Sources[i], content)
		}
	}
	if i := o.NameIndex; i >= 0 && i < len(a.namesSeen) && !a.namesSeen[i] {
		a.namesSeen[i] = true
		if a.onName != nil {
			a.onName(i, a.m.Names[i])
		}
	}
}

// mapFromChunks derives a source map by streaming s with a fresh encoder and discarded chunk text. It returns nil when the stream produced no serialized
// mappings.
func mapFromChunks(s Source, options MapOptions) *SourceMap {
	enc := newMappingsEncoder(options.Columns)
	var sourcesList, contentList, namesList []string

	s.StreamChunks(MapOptions{Columns: options.Columns, FinalSource: true},
		func(_ string, m Mapping) {
			enc.Encode(m)
		},
		func(idx int, source, content string) {
			for len(sourcesList) <= idx {
				sourcesList = append(sourcesList, "")
			}
			sourcesList[idx] = source
			if content != "" {
				for len(contentList) <= idx {
					contentList = append(contentList, "")
				}
				contentList[idx] = content
			}
		},
		func(idx int, name string) {
			for len(namesList) <= idx {
				namesList = append(namesList, "")
			}
			namesList[idx] = name
		})

	mappings := enc.Drain()
	if mappings == "" {
		return nil
	}
	return NewSourceMap(mappings, sourcesList, contentList, namesList)
}
