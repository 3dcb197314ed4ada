package oaf

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"
)

// FragmentHeader prefixes every fragment file: "OAF" followed by the format version.
var FragmentHeader = [4]byte{0x4F, 0x41, 0x46, 0x01}

// FragmentHeaderLen is the length of [FragmentHeader] in bytes.
const FragmentHeaderLen = len(FragmentHeader)

// fragmentState is one of fragmentAbsent, fragmentPending or fragmentResident.
// A fragment moves absent -> pending -> resident and never back from
// resident; a failed load returns it to absent.
type fragmentState interface {
	isFragmentState()
}

type fragmentAbsent struct{}

// fragmentPending marks an outstanding load. Joiners attach to it through
// the store's singleflight group, keyed by fragment id.
type fragmentPending struct{}

type fragmentResident struct {
	payload []byte
}

func (fragmentAbsent) isFragmentState()   {}
func (fragmentPending) isFragmentState()  {}
func (fragmentResident) isFragmentState() {}

type fragment struct {
	id       string
	location string
	state    fragmentState
}

// fragmentStore loads fragments lazily and keeps them for its lifetime.
type fragmentStore struct {
	mu        sync.Mutex
	fragments map[string]*fragment
	fetcher   Fetcher
	group     singleflight.Group
	logger    *slog.Logger
}

func newFragmentStore(fetcher Fetcher, logger *slog.Logger) *fragmentStore {
	return &fragmentStore{
		fragments: make(map[string]*fragment),
		fetcher:   fetcher,
		logger:    logger,
	}
}

// log returns the logger, falling back to a discard logger if nil.
func (s *fragmentStore) log() *slog.Logger {
	if s.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.logger
}

// register records a fragment location. Known ids keep their state and
// location.
func (s *fragmentStore) register(id, location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fragments[id]; ok {
		return
	}
	s.fragments[id] = &fragment{id: id, location: location, state: fragmentAbsent{}}
}

func (s *fragmentStore) setFetcher(f Fetcher) {
	s.mu.Lock()
	s.fetcher = f
	s.mu.Unlock()
}

// location returns the resolved location of a registered fragment.
func (s *fragmentStore) location(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fragments[id]
	if !ok {
		return "", false
	}
	return f.location, true
}

// resident reports whether the fragment payload is cached.
func (s *fragmentStore) resident(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fragments[id]
	if !ok {
		return false
	}
	_, ok = f.state.(fragmentResident)
	return ok
}

// get returns the payload of fragment id, fetching it if needed.
//
// Concurrent calls for the same absent fragment share one fetch and observe
// the same outcome. Cancelling ctx stops the wait of this caller only; the
// shared fetch keeps running for the others.
func (s *fragmentStore) get(ctx context.Context, id string) ([]byte, error) {
	s.mu.Lock()
	f, ok := s.fragments[id]
	if !ok {
		s.mu.Unlock()
		return nil, &FragmentError{ID: id, Err: ErrUnregisteredFragment}
	}
	if st, ok := f.state.(fragmentResident); ok {
		s.mu.Unlock()
		s.log().Debug("fragment cache hit", "fragment", id)
		return st.payload, nil
	}
	if _, ok := f.state.(fragmentAbsent); ok {
		f.state = fragmentPending{}
		s.log().Debug("fragment cache miss", "fragment", id, "location", f.location)
	}
	fetcher := s.fetcher
	// DoChan is called with s.mu held so that a pending load cannot complete
	// between observing its state and joining it.
	ch := s.group.DoChan(id, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), f, fetcher)
	})
	s.mu.Unlock()

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// load fetches the fragment and publishes the outcome in its state.
func (s *fragmentStore) load(ctx context.Context, f *fragment, fetcher Fetcher) ([]byte, error) {
	if fetcher == nil {
		s.mu.Lock()
		f.state = fragmentAbsent{}
		s.mu.Unlock()
		return nil, ErrNoFetcher
	}
	payload, err := fetcher.Fetch(ctx, f.location)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		f.state = fragmentAbsent{}
		return nil, err
	}
	if payload == nil {
		payload = []byte{}
	}
	f.state = fragmentResident{payload: payload}
	s.log().Debug("fragment loaded", "fragment", f.id, "size", len(payload))
	return payload, nil
}

// preload starts loading fragment id in the background. The outcome is
// discarded; a failed preload leaves the fragment eligible for retry.
func (s *fragmentStore) preload(id string) {
	go func() {
		_, _ = s.get(context.Background(), id) //nolint:errcheck // fire-and-forget warm-up
	}()
}
