// Package session owns the single live search: the current query and
// category, the loading/error status, and the active product list.
//
// Every submit is tagged with a sequence number. Only the resolution of the
// most recent submit is applied; results of superseded requests are dropped
// regardless of the order in which they arrive.
package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pricelens/internal/logging"
	"pricelens/internal/types"
)

// State is the session lifecycle state.
type State int

const (
	Idle State = iota
	Loading
	Success
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Searcher is implemented by the content provider adapter.
type Searcher interface {
	Search(ctx context.Context, category types.Category, query string) ([]types.Product, error)
}

// Snapshot is an immutable copy of the session state.
type Snapshot struct {
	State    State
	Category types.Category
	Query    string
	Products []types.Product
	// Err is the user-facing message of the last failure, if any.
	Err string
	Seq uint64
}

// Loading reports whether a request is in flight.
func (s Snapshot) Loading() bool { return s.State == Loading }

// Session is safe for concurrent use.
type Session struct {
	searcher Searcher

	mu        sync.Mutex
	state     State
	category  types.Category
	query     string
	products  []types.Product
	errMsg    string
	seq       uint64
	listeners []func(Snapshot)

	inflight sync.WaitGroup
}

// New creates an idle session driving searcher.
func New(searcher Searcher) *Session {
	return &Session{
		searcher: searcher,
		state:    Idle,
		category: types.CategoryHardware,
	}
}

// OnChange registers fn to be called after every state change.
func (s *Session) OnChange(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Submit runs a search and blocks until it resolves. The returned error is
// the failure of this submit; a superseded submit returns nil and leaves the
// state to the newer request.
func (s *Session) Submit(ctx context.Context, category types.Category, query string) error {
	seq, q, err := s.begin(category, query)
	if err != nil {
		return err
	}
	products, err := s.searcher.Search(ctx, category, q)
	if !s.resolve(seq, products, err) {
		return nil
	}
	return err
}

// SubmitAsync starts a search and returns immediately. The returned channel
// is closed once the request has resolved (applied or discarded).
// Validation failures are reported synchronously and start nothing.
func (s *Session) SubmitAsync(ctx context.Context, category types.Category, query string) (<-chan struct{}, error) {
	seq, q, err := s.begin(category, query)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer close(done)
		products, err := s.searcher.Search(ctx, category, q)
		s.resolve(seq, products, err)
	}()
	return done, nil
}

// Wait blocks until every asynchronous submit has resolved.
func (s *Session) Wait() {
	s.inflight.Wait()
}

// Reset discards results and returns to Idle. In-flight requests become stale.
func (s *Session) Reset() {
	s.mu.Lock()
	s.seq++
	s.state = Idle
	s.query = ""
	s.products = nil
	s.errMsg = ""
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()
	notify(listeners, snap)
}

// begin validates the request and moves the session into Loading.
func (s *Session) begin(category types.Category, query string) (uint64, string, error) {
	q := strings.TrimSpace(query)

	var verr error
	switch {
	case q == "":
		verr = types.ErrEmptyQuery
	case !category.Valid():
		verr = types.ErrUnknownCategory
	}

	s.mu.Lock()
	if verr != nil {
		// state and products stay as they are
		s.errMsg = types.UserMessage(verr)
		snap := s.snapshotLocked()
		listeners := s.listeners
		s.mu.Unlock()
		logging.SessionDebug("submit rejected: %v", verr)
		notify(listeners, snap)
		return 0, "", verr
	}

	s.seq++
	seq := s.seq
	s.state = Loading
	s.category = category
	s.query = q
	s.products = nil
	s.errMsg = ""
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	logging.Get(logging.CategorySession).With("seq", seq).Info("loading category=%s query=%q", category, q)
	notify(listeners, snap)
	return seq, q, nil
}

// resolve applies the outcome of request seq if it is still the latest and
// reports whether it did.
func (s *Session) resolve(seq uint64, products []types.Product, err error) bool {
	s.mu.Lock()
	if seq != s.seq {
		latest := s.seq
		s.mu.Unlock()
		logging.SessionDebug("discarding stale response seq=%d latest=%d", seq, latest)
		return false
	}

	if err != nil {
		s.state = Failed
		s.products = nil
		if errors.Is(err, context.Canceled) {
			s.errMsg = types.UserMessage(types.ErrRequest)
		} else {
			s.errMsg = types.UserMessage(err)
		}
	} else {
		s.state = Success
		s.products = cloneProducts(products)
		s.errMsg = ""
	}
	snap := s.snapshotLocked()
	listeners := s.listeners
	s.mu.Unlock()

	log := logging.Get(logging.CategorySession).With("seq", seq)
	if err != nil {
		log.Warn("search failed: %v", err)
	} else {
		log.Info("search succeeded products=%d", len(products))
	}
	notify(listeners, snap)
	return true
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		State:    s.state,
		Category: s.category,
		Query:    s.query,
		Products: cloneProducts(s.products),
		Err:      s.errMsg,
		Seq:      s.seq,
	}
}

func notify(listeners []func(Snapshot), snap Snapshot) {
	for _, fn := range listeners {
		fn(snap)
	}
}

func cloneProducts(in []types.Product) []types.Product {
	if in == nil {
		return nil
	}
	out := make([]types.Product, len(in))
	for i, p := range in {
		out[i] = p
		out[i].Offers = append([]types.Offer(nil), p.Offers...)
	}
	return out
}
