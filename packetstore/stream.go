package packetstore

import (
	"iter"
	"sync"
	"sync/atomic"

	"github.com/0xRadioAc7iv/go-packetstore/internal/metrics"
)

// Stream yields every stored packet once, fetching pages of
// Options.PageSize packets on demand as Next is called.
//
// Pages are re-queried by offset, so puts and deletes made while a stream
// is open may or may not show up in later pages.
//
//	st := store.CreateStream()
//	defer st.Destroy()
//	for st.Next() {
//	    resend(st.Packet())
//	}
//	if err := st.Err(); err != nil {
//	    ...
//	}
type Stream struct {
	store *Store
	limit int

	mu    sync.Mutex // guards the cursor below
	skip  int
	buf   []Packet
	cur   Packet
	err   error
	ended bool

	destroyed atomic.Bool
	done      chan struct{}
}

func newStream(s *Store) *Stream {
	return &Stream{
		store: s,
		limit: s.opts.PageSize,
		done:  make(chan struct{}),
	}
}

// Next advances to the next packet. It returns false once every packet has
// been returned, a page fetch failed, or the stream was destroyed.
func (st *Stream) Next() bool {
	st.mu.Lock()
	defer st.mu.Unlock()

	for len(st.buf) == 0 {
		if st.ended || st.destroyed.Load() {
			return false
		}
		st.fetch()
	}

	if st.destroyed.Load() {
		return false
	}

	st.cur = st.buf[0]
	st.buf = st.buf[1:]
	return true
}

// fetch loads the next page into buf, or marks the stream ended when the
// page is empty, failed, or arrived after Destroy. Records that do not
// decode are logged and skipped, so buf may stay empty for a page.
func (st *Stream) fetch() {
	skip := st.skip
	st.skip += st.limit

	docs, err := st.store.db.Find(skip, st.limit)
	metrics.ObserveOperation(st.store.opts.Name, "stream_page", err, false)

	if err != nil || st.destroyed.Load() || len(docs) == 0 {
		st.err = err
		st.ended = true
		return
	}

	page := make([]Packet, 0, len(docs))
	for _, doc := range docs {
		p, err := decodePacket(doc.Value, st.store.opts.BinaryPrefix)
		if err != nil {
			st.store.logger.Warn("skipping undecodable packet", "key", doc.Key, "error", err)
			continue
		}
		page = append(page, p)
	}

	st.buf = page
}

// Packet returns the packet Next advanced to.
func (st *Stream) Packet() Packet {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.cur
}

// Err returns the error that ended the stream early, if any.
func (st *Stream) Err() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.err
}

// Destroy stops the stream. Buffered packets are discarded and Next returns
// false from now on. Done is closed asynchronously, once, however many times
// Destroy is called.
func (st *Stream) Destroy() {
	if !st.destroyed.CompareAndSwap(false, true) {
		return
	}

	go close(st.done)
}

// Done is closed after the stream has been destroyed.
func (st *Stream) Done() <-chan struct{} {
	return st.done
}

// All adapts the stream to a range-over-func iterator. Breaking out of the
// loop destroys the stream.
func (st *Stream) All() iter.Seq[Packet] {
	return func(yield func(Packet) bool) {
		for st.Next() {
			if !yield(st.Packet()) {
				st.Destroy()
				return
			}
		}
	}
}
