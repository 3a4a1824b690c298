package sources

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"

	"github.com/codalotl/sources/internal/simplelogger"
)

// CachedSource wraps a Source and memoizes its text, buffer, content hash, and per-columns-mode source map, so repeated queries against a composed subtree do
// not repeat expensive traversals. It is usually applied once a subtree has stopped changing.
//
// A *CachedSource is a cheaply duplicable shared handle: every copy of the pointer observes the same cache state. Multiple goroutines may query one instance
// concurrently; reads of already-filled slots never block, and cache-miss computations are serialized by an internal mutex.
//
// Cache slots are insert-only: once written they are never overwritten, cleared, or evicted for the lifetime of the instance. That discipline is what makes
// the values handed out (text, buffers, maps) safe to retain indefinitely.
//
// Once the text, buffer, hash, and the columns-mode map are all cached, the wrapped subtree is released to reclaim its memory; every later query is answered
// from cache alone.
//
// Equality and hashing are deliberately asymmetric: two handles are "equal" only when they are the same pointer, while the hash is derived from the wrapped
// content. Consumers key deduplication structures by the content hash but compare handles by identity; keep both predicates as they are.
type CachedSource struct {
	mu    sync.Mutex
	inner Source // cleared at most once by trySeparate; see requireInner

	text   atomic.Pointer[string]
	buffer atomic.Pointer[[]byte]
	hash   atomic.Pointer[uint64]
	maps   mapCache
}

var _ Source = (*CachedSource)(nil)

// NewCachedSource wraps inner. inner must not be mutated afterwards.
func NewCachedSource(inner Source) *CachedSource {
	return &CachedSource{inner: inner}
}

// Text returns the flattened text of the wrapped subtree, computing and caching it on first call.
func (s *CachedSource) Text() string {
	if t := s.text.Load(); t != nil {
		return *t
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.textLocked()
	s.trySeparate()
	return t
}

// textLocked returns the cached text, computing it from the subtree if absent. The caller must hold s.mu.
func (s *CachedSource) textLocked() string {
	if t := s.text.Load(); t != nil {
		return *t
	}
	t := s.requireInner("text").Text()
	s.text.Store(&t)
	return t
}

// Buffer returns the bytes of the wrapped subtree, computing and caching them on first call. Callers must treat the returned slice as read-only.
func (s *CachedSource) Buffer() []byte {
	if b := s.buffer.Load(); b != nil {
		return *b
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.bufferLocked()
	s.trySeparate()
	return b
}

func (s *CachedSource) bufferLocked() []byte {
	if b := s.buffer.Load(); b != nil {
		return *b
	}
	b := s.requireInner("buffer").Buffer()
	s.buffer.Store(&b)
	return b
}

// Size returns the byte length of Text(). It has no storage of its own and forces text computation if absent.
func (s *CachedSource) Size() int {
	return len(s.Text())
}

// Hash returns the content hash of the wrapped subtree, computing and caching it on first call.
func (s *CachedSource) Hash() uint64 {
	if h := s.hash.Load(); h != nil {
		return *h
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.hash.Load()
	if h == nil {
		d := xxhash.New()
		s.requireInner("hash").UpdateHash(d)
		v := d.Sum64()
		h = &v
		s.hash.Store(h)
	}
	s.trySeparate()
	return *h
}

// UpdateHash writes the cached content hash into d, computing it on first call.
func (s *CachedSource) UpdateHash(d *xxhash.Digest) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], s.Hash())
	_, _ = d.Write(b[:])
}

// Map returns the source map for options, or nil if the subtree has no mappings. The entry cached for options.Columns is authoritative (a nil entry included)
// and never recomputed; options.FinalSource does not participate in the cache key.
func (s *CachedSource) Map(options MapOptions) *SourceMap {
	if m, ok := s.maps.get(options.Columns); ok {
		return m.Clone()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.maps.get(options.Columns); ok {
		return m.Clone()
	}
	m := s.streamAndCacheLocked(options, nil, nil, nil)
	s.trySeparate()
	return m.Clone()
}

// StreamChunks replays the event stream from cache when the map for options.Columns is already known, and otherwise performs one fresh traversal of the
// subtree that emits the events and fills the text, buffer, and map caches as it goes. Both paths produce byte-identical chunks and the same GeneratedInfo.
func (s *CachedSource) StreamChunks(options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) GeneratedInfo {
	if m, ok := s.maps.get(options.Columns); ok {
		return s.replay(m, options, onChunk, onSource, onName)
	}

	s.mu.Lock()
	if m, ok := s.maps.get(options.Columns); ok {
		// Another goroutine filled this entry (and may have released the
		// subtree) while we waited for the lock.
		s.mu.Unlock()
		return s.replay(m, options, onChunk, onSource, onName)
	}
	defer s.mu.Unlock()
	simplelogger.Log("sources: CachedSource: fresh traversal (columns=%v)", options.Columns)
	_, info := s.streamAndCacheLockedInfo(options, onChunk, onSource, onName)
	s.trySeparate()
	return info
}

// replay regenerates the event stream from the cached text and the cached map entry, without consulting the subtree.
func (s *CachedSource) replay(m *SourceMap, options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) GeneratedInfo {
	text := s.Text()
	if m != nil {
		return streamChunksOfSourceMap(text, m, options, onChunk, onSource, onName)
	}
	return streamChunksOfRawSource(text, options, onChunk, onSource, onName)
}

// streamAndCacheLocked is Map's entry point to the fresh traversal; it returns the map stored for options.Columns.
func (s *CachedSource) streamAndCacheLocked(options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) *SourceMap {
	m, _ := s.streamAndCacheLockedInfo(options, onChunk, onSource, onName)
	return m
}

// streamAndCacheLockedInfo performs the fresh traversal: it computes (and caches) the full text and buffer, streams the subtree once, forwards the events,
// and stores the resulting map (possibly nil) at options.Columns. The caller must hold s.mu.
//
// Chunk text handed to onChunk is re-sliced from the cached full text by a running byte cursor, never taken from the subtree, so it is byte-identical to
// Text() and to any later cache replay.
func (s *CachedSource) streamAndCacheLockedInfo(options MapOptions, onChunk OnChunk, onSource OnSource, onName OnName) (*SourceMap, GeneratedInfo) {
	inner := s.requireInner("stream")
	text := s.textLocked()
	s.bufferLocked()

	enc := newMappingsEncoder(options.Columns)
	var sourcesList, contentList, namesList []string
	cursor := 0

	info := inner.StreamChunks(options,
		func(chunk string, m Mapping) {
			enc.Encode(m)
			end := cursor + len(chunk)
			out := text[cursor:end]
			cursor = end
			if onChunk != nil {
				onChunk(out, m)
			}
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
			if onSource != nil {
				onSource(idx, sourcesList[idx], content)
			}
		},
		func(idx int, name string) {
			for len(namesList) <= idx {
				namesList = append(namesList, "")
			}
			namesList[idx] = name
			if onName != nil {
				onName(idx, namesList[idx])
			}
		})

	var m *SourceMap
	if mappings := enc.Drain(); mappings != "" {
		m = NewSourceMap(mappings, sourcesList, contentList, namesList)
	}
	s.maps.put(options.Columns, m)
	return m, info
}

// trySeparate releases the wrapped subtree once every artifact it could supply has a cached substitute: text, buffer, hash, and the columns-mode map. The
// caller must hold s.mu. The handle is cleared at most once.
func (s *CachedSource) trySeparate() {
	if s.inner == nil {
		return
	}
	if s.text.Load() == nil || s.buffer.Load() == nil || s.hash.Load() == nil {
		return
	}
	if _, ok := s.maps.get(true); !ok {
		return
	}
	simplelogger.Log("sources: CachedSource: subtree released")
	s.inner = nil
}

// requireInner returns the wrapped subtree for a cache-miss computation. Reaching a miss after the subtree has been released means a cache slot required by
// the reclamation condition was empty, which the insert-only invariant rules out; that is a defect, so it fails loudly rather than returning wrong data.
func (s *CachedSource) requireInner(op string) Source {
	if s.inner == nil {
		panic("sources: CachedSource: " + op + " requested after subtree release with no cached value")
	}
	return s.inner
}

// mapCache is the insert-only cache of per-columns-mode maps. A stored nil is meaningful: it records that the subtree has no mappings for that mode. Entries
// are never overwritten, cleared, or evicted, which is what makes returning stored maps by structural share safe.
type mapCache struct {
	mu      sync.RWMutex
	entries map[bool]*SourceMap
}

func (c *mapCache) get(columns bool) (*SourceMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[columns]
	return m, ok
}

func (c *mapCache) put(columns bool, m *SourceMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[bool]*SourceMap, 2)
	}
	c.entries[columns] = m
}
