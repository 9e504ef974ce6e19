package catalog

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type FetchState int

const (
	StateIdle FetchState = iota
	StateLoading
	StateLoaded
	StateErrored
)

var stateNames = [...]string{"idle", "loading", "loaded", "errored"}

func (s FetchState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

func (s FetchState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *FetchState) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = FetchState(i)
			return nil
		}
	}
	return fmt.Errorf("unknown fetch state %q", b)
}

const defaultFetchTimeout = 10 * time.Second

var ErrNotLoaded = errors.New("collection not loaded")

type StoreOptions struct {
	Log          *zap.Logger
	Metrics      *StoreMetrics
	FetchTimeout time.Duration
	MissingPrice MissingPrice
}

// Store holds one collection for the life of the process: the raw products
// from a single latched repository fetch, plus the shopper's search and sort
// selections and the view derived from them.
//
// At most one repository call is outstanding per store; concurrent Fetch
// callers share it. Once a fetch settles, success or failure, further Fetch
// calls return the latched outcome until Reset.
type Store struct {
	collection Collection
	repo       Repository
	log        *zap.Logger
	metrics    *StoreMetrics
	timeout    time.Duration
	missing    MissingPrice

	flight singleflight.Group

	mu         sync.RWMutex
	generation uint64
	state      FetchState
	fetched    bool
	lastErr    error
	raw        CategorizedProducts
	view       CategorizedProducts
	query      string
	sortKey    SortValue
}

func NewStore(c Collection, repo Repository, opts StoreOptions) *Store {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	timeout := opts.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}

	s := &Store{
		collection: c,
		repo:       repo,
		log:        log.With(zap.String("collection", c.Name)),
		metrics:    opts.Metrics,
		timeout:    timeout,
		missing:    opts.MissingPrice,
	}
	s.resetLocked()
	return s
}

func (s *Store) resetLocked() {
	s.state = StateIdle
	s.fetched = false
	s.lastErr = nil
	s.raw = s.collection.Empty()
	s.view = s.collection.Empty()
	s.query = ""
	s.sortKey = SortRelevance
}

func (s *Store) Collection() Collection { return s.collection }

// Fetch loads the collection unless it has already been fetched. It blocks
// until the shared flight settles or ctx is done; cancelling ctx only stops
// this caller from waiting.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.fetched {
		err := s.lastErr
		s.mu.Unlock()
		return err
	}
	gen := s.generation
	s.state = StateLoading
	s.mu.Unlock()

	detached := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(s.flightKey(gen), func() (any, error) {
		return nil, s.load(detached, gen)
	})

	select {
	case res := <-ch:
		s.metrics.observeWaiter(s.collection.Name, res.Shared)
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) flightKey(gen uint64) string {
	return s.collection.Name + "#" + strconv.FormatUint(gen, 10)
}

func (s *Store) load(ctx context.Context, gen uint64) error {
	// A flight started after the previous one settled must not hit the
	// repository again.
	s.mu.RLock()
	stale, latched, prev := s.generation != gen, s.fetched, s.lastErr
	s.mu.RUnlock()
	if stale {
		return ErrStoreReset
	}
	if latched {
		return prev
	}

	log := s.log.With(zap.String("fetch_id", uuid.NewString()))
	log.Debug("fetch started")

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	products, err := s.call(ctx)
	elapsed := time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		s.metrics.observeFetch(s.collection.Name, outcomeStale, elapsed)
		log.Info("fetch discarded after reset", zap.Duration("duration", elapsed))
		return ErrStoreReset
	}

	s.fetched = true
	if err != nil {
		fe := &FetchError{Collection: s.collection.Name, Err: err}
		s.state = StateErrored
		s.lastErr = fe
		s.raw = s.collection.Empty()
		s.view = s.collection.Empty()
		s.metrics.observeFetch(s.collection.Name, outcomeError, elapsed)
		log.Warn("fetch failed", zap.Error(err), zap.Duration("duration", elapsed))
		return fe
	}

	s.state = StateLoaded
	s.lastErr = nil
	s.raw = s.complete(products)
	s.deriveLocked()
	s.metrics.observeFetch(s.collection.Name, outcomeOK, elapsed)
	log.Info("fetch settled",
		zap.Int("products", s.raw.Count()),
		zap.Duration("duration", elapsed),
	)
	return nil
}

func (s *Store) call(ctx context.Context) (cp CategorizedProducts, err error) {
	defer func() {
		if r := recover(); r != nil {
			cp, err = nil, fmt.Errorf("repository panic: %v", r)
		}
	}()
	return s.repo.FetchCollection(ctx, s.collection)
}

// complete copies cp and adds an empty sequence for every declared key the
// repository left out.
func (s *Store) complete(cp CategorizedProducts) CategorizedProducts {
	out := cp.Clone()
	for _, k := range s.collection.Categories {
		if _, ok := out[k]; !ok {
			out[k] = []Product{}
		}
	}
	return out
}

// SetSearchQuery records term verbatim and rebuilds the view. Before the
// collection loads it only records the term.
func (s *Store) SetSearchQuery(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = term
	s.deriveLocked()
}

// SetSortBy records the sort and rebuilds the view. Unknown values sort by relevance.
func (s *Store) SetSortBy(v SortValue) {
	v, _ = ParseSort(string(v))

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey = v
	s.deriveLocked()
}

func (s *Store) deriveLocked() {
	if s.state != StateLoaded {
		s.view = s.collection.Empty()
		return
	}
	s.view = Derive(s.collection, s.raw, ViewOptions{
		Search:       s.query,
		Sort:         s.sortKey,
		MissingPrice: s.missing,
	})
}

// Reset returns the store to its freshly constructed state. A fetch still in
// flight is discarded when it settles.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.resetLocked()
	s.log.Info("store reset")
}

type Snapshot struct {
	Collection string              `json:"collection"`
	State      FetchState          `json:"state"`
	Fetched    bool                `json:"has_fetched_once"`
	Error      string              `json:"error,omitempty"`
	Query      string              `json:"query"`
	Sort       SortValue           `json:"sort"`
	Products   CategorizedProducts `json:"-"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Collection: s.collection.Name,
		State:      s.state,
		Fetched:    s.fetched,
		Query:      s.query,
		Sort:       s.sortKey,
		Products:   s.view.Clone(),
	}
	if s.lastErr != nil {
		snap.Error = errorMessage(s.lastErr)
	}
	return snap
}

func (s *Store) State() FetchState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *Store) HasFetched() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetched
}

// Raw returns a copy of the last successful fetch.
func (s *Store) Raw() CategorizedProducts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.raw.Clone()
}

// Preview derives a view over the raw products without touching the
// store's own search and sort state.
func (s *Store) Preview(search string, sort SortValue) (CategorizedProducts, error) {
	sort, _ = ParseSort(string(sort))

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch s.state {
	case StateLoaded:
	case StateErrored:
		return nil, s.lastErr
	default:
		return nil, ErrNotLoaded
	}

	return Derive(s.collection, s.raw, ViewOptions{
		Search:       search,
		Sort:         sort,
		MissingPrice: s.missing,
	}), nil
}

func errorMessage(err error) string {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Message()
	}
	return err.Error()
}
