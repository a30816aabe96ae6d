package core

// store.go holds the in-memory relations of every configured source.
//
// Each source is built on first access and memoized for the life of the
// Store. Two concurrent first accesses may both fetch and parse; whichever
// publishes first wins and the other result is discarded, so callers always
// observe a single complete snapshot. Schema errors are memoized because
// retrying cannot fix them. Fetch errors are not, so a file that appears
// later is picked up on the next access.

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/logging"
	"github.com/Jimmy-INL/critical-minerals-data-tools/internal/metrics"
	"golang.org/x/sync/errgroup"
)

// DefaultWarmConcurrency bounds parallel source builds in Warm.
const DefaultWarmConcurrency = 4

var errNotConfigured = errors.New("no backing file configured")

// Binding pairs a source definition with the fetcher for its backing file.
// A nil Fetcher marks a registered but unconfigured source.
type Binding struct {
	Definition SourceDefinition
	Fetcher    Fetcher
}

// Store is an explicit cache of normalized sources owned by its creator.
type Store struct {
	entries map[string]*storeEntry
	keys    []string
	metrics *metrics.Collector
}

type storeEntry struct {
	def      SourceDefinition
	fetcher  Fetcher
	relation memo[*Relation]
	deposits memo[*DepositSet]
}

type memo[T any] struct {
	p atomic.Pointer[memoResult[T]]
}

type memoResult[T any] struct {
	val T
	err error
}

// publish stores r unless another result got there first, and returns
// whichever result is now visible.
func (m *memo[T]) publish(r *memoResult[T]) *memoResult[T] {
	if m.p.CompareAndSwap(nil, r) {
		return r
	}
	return m.p.Load()
}

func (m *memo[T]) loaded() bool {
	r := m.p.Load()
	return r != nil && r.err == nil
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithMetrics records ingestion metrics on c.
func WithMetrics(c *metrics.Collector) StoreOption {
	return func(s *Store) { s.metrics = c }
}

// NewStore creates a store over bindings. Later bindings with a duplicate
// key replace earlier ones.
func NewStore(bindings []Binding, opts ...StoreOption) *Store {
	s := &Store{entries: make(map[string]*storeEntry, len(bindings))}
	for _, b := range bindings {
		if _, dup := s.entries[b.Definition.Key]; !dup {
			s.keys = append(s.keys, b.Definition.Key)
		}
		s.entries[b.Definition.Key] = &storeEntry{def: b.Definition, fetcher: b.Fetcher}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Definition returns the definition bound to key.
func (s *Store) Definition(key string) (SourceDefinition, error) {
	e, ok := s.entries[key]
	if !ok {
		return SourceDefinition{}, fmt.Errorf("%w: %s", ErrUnknownSource, key)
	}
	return e.def, nil
}

// Sources describes every bound source in binding order.
func (s *Store) Sources() []SourceInfo {
	infos := make([]SourceInfo, 0, len(s.keys))
	for _, key := range s.keys {
		e := s.entries[key]
		infos = append(infos, SourceInfo{
			Key:         key,
			Label:       e.def.Label,
			Publisher:   e.def.Publisher,
			Kind:        e.def.Kind.String(),
			Configured:  e.fetcher != nil,
			Loaded:      e.relation.loaded() || e.deposits.loaded(),
			Description: e.def.Description,
		})
	}
	return infos
}

// Relation returns the statistics relation for key, building it on first use.
func (s *Store) Relation(ctx context.Context, key string) (*Relation, error) {
	e, err := s.entry(key, KindStatistics)
	if err != nil {
		return nil, err
	}
	return load(ctx, s, e, &e.relation, Ingest, func(r *Relation) (int, int) {
		return len(r.Observations), r.Dropped
	})
}

// Deposits returns the deposit set for key, building it on first use.
func (s *Store) Deposits(ctx context.Context, key string) (*DepositSet, error) {
	e, err := s.entry(key, KindDeposits)
	if err != nil {
		return nil, err
	}
	return load(ctx, s, e, &e.deposits, IngestDepositFile, func(d *DepositSet) (int, int) {
		return len(d.Deposits), d.Dropped
	})
}

// Warm builds every configured source concurrently and returns the joined
// errors of the sources that failed. Successful sources stay published.
func (s *Store) Warm(ctx context.Context) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(DefaultWarmConcurrency)

	for _, key := range s.keys {
		key := key
		e := s.entries[key]
		if e.fetcher == nil {
			continue
		}
		g.Go(func() error {
			var err error
			if e.def.Kind == KindDeposits {
				_, err = s.Deposits(ctx, key)
			} else {
				_, err = s.Relation(ctx, key)
			}
			if err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
			return nil
		})
	}

	_ = g.Wait()
	return errors.Join(errs...)
}

func (s *Store) entry(key string, kind SourceKind) (*storeEntry, error) {
	e, ok := s.entries[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSource, key)
	}
	if e.def.Kind != kind {
		return nil, fmt.Errorf("%w: %s holds %s, not %s", ErrUnknownSource, key, e.def.Kind, kind)
	}
	return e, nil
}

func load[T any](
	ctx context.Context,
	s *Store,
	e *storeEntry,
	m *memo[T],
	build func(SourceDefinition, RawFile) (T, error),
	counts func(T) (kept, dropped int),
) (T, error) {
	if r := m.p.Load(); r != nil {
		return r.val, r.err
	}

	var zero T
	key := e.def.Key
	logger := logging.WithFields(ctx, "source", key)

	if e.fetcher == nil {
		return zero, &SourceError{Source: key, Err: errNotConfigured}
	}

	start := time.Now()
	file, err := e.fetcher.Fetch(ctx)
	if err != nil {
		s.metrics.RecordIngestionError(key, "fetch")
		logger.Warn("source fetch failed", "error", err)
		return zero, &SourceError{Source: key, Err: err}
	}

	val, err := build(e.def, file)
	if err != nil {
		if !errors.Is(err, ErrSchema) {
			return zero, err
		}
		s.metrics.RecordIngestionError(key, "schema")
		logger.Error("source schema error", "file", file.Name, "error", err)
		r := m.publish(&memoResult[T]{err: err})
		return r.val, r.err
	}

	kept, dropped := counts(val)
	duration := time.Since(start)
	s.metrics.RecordIngestion(key, kept, dropped, duration)

	r := m.publish(&memoResult[T]{val: val})
	logger.Info("source loaded",
		"file", file.Name,
		"rows", kept,
		"dropped", dropped,
		"duration_ms", duration.Milliseconds(),
	)
	return r.val, r.err
}
