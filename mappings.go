package sources

import "strings"

// Serialized mappings use the standard base64 VLQ layout: one region per
// generated line separated by ';', segments within a line separated by ',',
// each segment holding 1, 4, or 5 delta-encoded fields.

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var base64Values = func() [128]int8 {
	var t [128]int8
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base64Alphabet); i++ {
		t[base64Alphabet[i]] = int8(i)
	}
	return t
}()

func encodeVLQ(b *strings.Builder, v int) {
	u := uint(v) << 1
	if v < 0 {
		u = (uint(-v) << 1) | 1
	}
	for {
		digit := u & 0x1f
		u >>= 5
		if u > 0 {
			digit |= 0x20
		}
		b.WriteByte(base64Alphabet[digit])
		if u == 0 {
			return
		}
	}
}

// decodeVLQ reads one VLQ value from s starting at pos. ok is false on a malformed or truncated value.
func decodeVLQ(s string, pos int) (value, next int, ok bool) {
	shift := uint(0)
	u := uint(0)
	for {
		if pos >= len(s) {
			return 0, pos, false
		}
		c := s[pos]
		if c >= 128 || base64Values[c] < 0 {
			return 0, pos, false
		}
		digit := uint(base64Values[c])
		pos++
		u |= (digit & 0x1f) << shift
		if digit&0x20 == 0 {
			break
		}
		shift += 5
	}
	v := int(u >> 1)
	if u&1 != 0 {
		v = -v
	}
	return v, pos, true
}

// mappingsEncoder accumulates mapping records in discovery order and serializes them. A fresh encoder is created per traversal; Drain finalizes it and must be
// called at most once.
//
// Records without an original location are skipped: their presence is implied by the gaps between serialized segments. In lines-only mode (columns false) at
// most one segment is kept per generated line, its generated column is forced to 0, and names are dropped.
type mappingsEncoder struct {
	columns bool
	buf     strings.Builder

	line      int // generated line the next segment would be written on
	col       int // previous segment's generated column (resets per line)
	srcIdx    int
	origLine  int
	origCol   int
	nameIdx   int
	segOnLine bool
}

func newMappingsEncoder(columns bool) *mappingsEncoder {
	return &mappingsEncoder{columns: columns, line: 1, origLine: 1}
}

func (e *mappingsEncoder) Encode(m Mapping) {
	o := m.Original
	if o == nil {
		return
	}
	if m.GeneratedLine < e.line {
		// Out-of-order record; canonical streams never produce one.
		return
	}
	if !e.columns && m.GeneratedLine == e.line && e.segOnLine {
		return
	}
	for e.line < m.GeneratedLine {
		e.buf.WriteByte(';')
		e.line++
		e.col = 0
		e.segOnLine = false
	}
	if e.segOnLine {
		e.buf.WriteByte(',')
	}
	genCol := m.GeneratedColumn
	if !e.columns {
		genCol = 0
	}
	encodeVLQ(&e.buf, genCol-e.col)
	e.col = genCol
	encodeVLQ(&e.buf, o.SourceIndex-e.srcIdx)
	e.srcIdx = o.SourceIndex
	encodeVLQ(&e.buf, o.OriginalLine-e.origLine)
	e.origLine = o.OriginalLine
	encodeVLQ(&e.buf, o.OriginalColumn-e.origCol)
	e.origCol = o.OriginalColumn
	if e.columns && o.NameIndex >= 0 {
		encodeVLQ(&e.buf, o.NameIndex-e.nameIdx)
		e.nameIdx = o.NameIndex
	}
	e.segOnLine = true
}

func (e *mappingsEncoder) Drain() string {
	return e.buf.String()
}

// decodeMappings calls fn for each record in a serialized mappings string, in generation order. 1-field segments yield records with a nil Original. Decoding
// is tolerant: it stops at the first malformed segment rather than failing, matching how the broader toolchain treats damaged maps.
func decodeMappings(mappings string, fn func(Mapping)) {
	line := 1
	col := 0
	srcIdx, origLine, origCol, nameIdx := 0, 1, 0, 0

	pos := 0
	for pos < len(mappings) {
		switch mappings[pos] {
		case ';':
			line++
			col = 0
			pos++
			continue
		case ',':
			pos++
			continue
		}

		v, next, ok := decodeVLQ(mappings, pos)
		if !ok {
			return
		}
		pos = next
		col += v
		m := Mapping{GeneratedLine: line, GeneratedColumn: col}

		if pos < len(mappings) && mappings[pos] != ';' && mappings[pos] != ',' {
			o := OriginalLocation{NameIndex: -1}
			if v, next, ok = decodeVLQ(mappings, pos); !ok {
				return
			}
			pos = next
			srcIdx += v
			o.SourceIndex = srcIdx
			if v, next, ok = decodeVLQ(mappings, pos); !ok {
				return
			}
			pos = next
			origLine += v
			o.OriginalLine = origLine
			if v, next, ok = decodeVLQ(mappings, pos); !ok {
				return
			}
			pos = next
			origCol += v
			o.OriginalColumn = origCol
			if pos < len(mappings) && mappings[pos] != ';' && mappings[pos] != ',' {
				if v, next, ok = decodeVLQ(mappings, pos); !ok {
					return
				}
				pos = next
				nameIdx += v
				o.NameIndex = nameIdx
			}
			m.Original = &o
		}
		fn(m)
	}
}
