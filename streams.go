package http2

import (
	"sort"
	"sync"
)

// Streams is the per-endpoint stream registry, a ascending-by-id slice
// searched with sort.Search rather than a map: connections rarely carry
// more than a few dozen live streams, so the slice's cache locality
// beats map overhead, and iteration runs in id order.
//
// Frame dispatch is single-threaded per connection, so Insert/Get/Del
// don't themselves need locking against each other; the mutex exists
// because the close-wait GC may be driven from a timer goroutine the
// embedder owns rather than from Feed's call stack.
type Streams struct {
	mu   sync.Mutex
	list []*Stream
}

func (strms *Streams) Insert(s *Stream) {
	strms.mu.Lock()
	defer strms.mu.Unlock()

	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= s.id
	})

	if i == len(strms.list) {
		strms.list = append(strms.list, s)
	} else {
		strms.list = append(strms.list[:i+1], strms.list[i:]...)
		strms.list[i] = s
	}
}

func (strms *Streams) Del(id uint32) *Stream {
	strms.mu.Lock()
	defer strms.mu.Unlock()

	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= id
	})

	if i < len(strms.list) && strms.list[i].id == id {
		strm := strms.list[i]
		strms.list = append(strms.list[:i], strms.list[i+1:]...)
		return strm
	}

	return nil
}

func (strms *Streams) Get(id uint32) *Stream {
	strms.mu.Lock()
	defer strms.mu.Unlock()

	i := sort.Search(len(strms.list), func(i int) bool {
		return strms.list[i].id >= id
	})
	if i < len(strms.list) && strms.list[i].id == id {
		return strms.list[i]
	}

	return nil
}

// Len reports how many streams are currently registered.
func (strms *Streams) Len() int {
	strms.mu.Lock()
	defer strms.mu.Unlock()
	return len(strms.list)
}

// EachClosedBefore calls f for every CLOSED stream for which cutoff
// reports true, removing it from the registry first — the close-wait
// GC's primitive (spec §4.L's ~2s grace window before a stream id can
// be forgotten, so a frame that was already in flight for it is still
// recognized as "closed" rather than "never existed").
func (strms *Streams) EachClosedBefore(cutoff func(s *Stream) bool, f func(s *Stream)) {
	strms.mu.Lock()
	var doomed []*Stream
	kept := strms.list[:0]
	for _, s := range strms.list {
		s.mu.Lock()
		closed := s.state == StreamClosed && cutoff(s)
		s.mu.Unlock()
		if closed {
			doomed = append(doomed, s)
		} else {
			kept = append(kept, s)
		}
	}
	strms.list = kept
	strms.mu.Unlock()

	for _, s := range doomed {
		f(s)
	}
}
