// Package coordinator decides which requested ids need fetching, runs a
// single fetch-and-join pass for them, and writes the results to the cache.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"jediswap-analytics/internal/domain"
	"jediswap-analytics/internal/metrics"
	"jediswap-analytics/internal/observability"
	"jediswap-analytics/internal/snapshot"
	"jediswap-analytics/internal/storage"
)

// Listener is called with a copy of every record after it is upserted.
type Listener func(rec *domain.EntityRecord)

// Coordinator owns writes to one entity cache of a single kind.
type Coordinator struct {
	kind      domain.EntityKind
	cache     storage.EntityCache
	fetcher   snapshot.Fetcher
	joiner    metrics.Joiner
	logger    *zap.Logger
	now       func() time.Time
	coalesce  bool
	listeners []Listener

	mu       sync.Mutex
	inflight map[string]*pass // id -> pass currently fetching it
}

// ErrPassAborted is reported to callers waiting on a pass that panicked.
var ErrPassAborted = errors.New("coordinator: fetch pass aborted")

// pass is one fetch-and-join run over a claimed id set.
type pass struct {
	id   string
	ids  []string
	done chan struct{}
	// set before done is closed
	err       error
	abandoned bool // the owner's context ended before the fetch finished
}

// Option configures Coordinator.
type Option func(*Coordinator)

// WithJoiner sets the joiner used to derive records.
func WithJoiner(j metrics.Joiner) Option {
	return func(c *Coordinator) {
		c.joiner = j
	}
}

// WithLogger sets the coordinator logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithClock sets the time source for FetchedAt.
func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) {
		if now != nil {
			c.now = now
		}
	}
}

// WithCoalescing enables or disables per-id in-flight coalescing.
// When disabled, overlapping calls fetch the same id independently and
// the later completion wins.
func WithCoalescing(enabled bool) Option {
	return func(c *Coordinator) {
		c.coalesce = enabled
	}
}

// WithListener registers a listener for upserted records.
func WithListener(l Listener) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.listeners = append(c.listeners, l)
		}
	}
}

// New creates a coordinator for kind over cache and fetcher.
func New(kind domain.EntityKind, cache storage.EntityCache, fetcher snapshot.Fetcher, opts ...Option) *Coordinator {
	c := &Coordinator{
		kind:     kind,
		cache:    cache,
		fetcher:  fetcher,
		joiner:   metrics.NewJoiner(nil),
		logger:   zap.NewNop(),
		now:      time.Now,
		coalesce: true,
		inflight: make(map[string]*pass),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("kind", kind.String()))
	return c
}

// Kind returns the entity kind this coordinator serves.
func (c *Coordinator) Kind() domain.EntityKind {
	return c.kind
}

// Reader returns the read-only view of the cache.
func (c *Coordinator) Reader() storage.EntityReader {
	return c.cache
}

// Ensure makes sure every id is tracked. Tracked ids cost nothing; the
// untracked ones are fetched in one call. On failure the cache is left
// untouched and the ids stay untracked.
func (c *Coordinator) Ensure(ctx context.Context, ids []string, periods []domain.Period) error {
	return c.run(ctx, ids, periods, false)
}

// Refresh re-fetches ids whether or not they are tracked and replaces
// their records whole.
func (c *Coordinator) Refresh(ctx context.Context, ids []string, periods []domain.Period) error {
	return c.run(ctx, ids, periods, true)
}

// AddListener registers l for subsequent upserts. Not safe to call
// concurrently with Ensure.
func (c *Coordinator) AddListener(l Listener) {
	if l != nil {
		c.listeners = append(c.listeners, l)
	}
}

func (c *Coordinator) run(ctx context.Context, ids []string, periods []domain.Period, force bool) error {
	ids = dedupe(ids)
	if len(ids) == 0 {
		return nil
	}
	if len(periods) == 0 {
		periods = domain.DefaultPeriods
	}

	own, claimed, waits, hits := c.claim(ids, force)
	observability.RecordCacheLookup(c.kind.String(), hits, len(ids)-hits)
	if len(waits) > 0 {
		observability.RecordCoalesced(c.kind.String(), len(ids)-hits-len(claimed))
	}

	if own == nil && len(waits) == 0 {
		return nil
	}

	var errs []error
	if own != nil {
		c.execute(ctx, own, periods)
		if own.err != nil {
			errs = append(errs, own.err)
		}
	}

	// ids whose owner gave up only because its own context ended are
	// fetched again under ours.
	var orphaned []string
	for _, p := range waits {
		select {
		case <-p.done:
			if p.abandoned {
				orphaned = append(orphaned, p.ids...)
			} else if p.err != nil {
				errs = append(errs, p.err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if len(orphaned) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.logger.Debug("owner context ended, fetching coalesced ids again", zap.Int("ids", len(orphaned)))
		if err := c.run(ctx, intersect(ids, orphaned), periods, force); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// execute runs p and always releases it, even if the fetcher, joiner or
// a listener panics. The panic still propagates to the caller.
func (c *Coordinator) execute(ctx context.Context, p *pass, periods []domain.Period) {
	finished := false
	defer func() {
		if !finished {
			p.err = ErrPassAborted
		}
		c.release(p, p.ids)
	}()

	p.err = c.fetchAndMerge(ctx, p.id, p.ids, periods)
	p.abandoned = p.err != nil && ctx.Err() != nil
	finished = true
}

// claim splits ids by cache and in-flight state. Ids that are neither
// tracked nor in flight are claimed by a new pass.
func (c *Coordinator) claim(ids []string, force bool) (*pass, []string, []*pass, int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var claimed []string
	var waits []*pass
	waiting := make(map[*pass]bool)
	hits := 0

	for _, id := range ids {
		if !force && c.cache.Has(id) {
			hits++
			continue
		}
		if c.coalesce {
			if p, ok := c.inflight[id]; ok {
				if !waiting[p] {
					waiting[p] = true
					waits = append(waits, p)
				}
				continue
			}
		}
		claimed = append(claimed, id)
	}

	if len(claimed) == 0 {
		return nil, nil, waits, hits
	}

	own := &pass{id: uuid.NewString(), ids: claimed, done: make(chan struct{})}
	if c.coalesce {
		for _, id := range claimed {
			c.inflight[id] = own
		}
	}
	return own, claimed, waits, hits
}

// release clears the in-flight markers of p and wakes its waiters.
func (c *Coordinator) release(p *pass, claimed []string) {
	c.mu.Lock()
	for _, id := range claimed {
		if c.inflight[id] == p {
			delete(c.inflight, id)
		}
	}
	c.mu.Unlock()
	close(p.done)
}

// fetchAndMerge fetches ids once, joins every returned set and upserts
// the results. Nothing is written unless the fetch succeeds.
func (c *Coordinator) fetchAndMerge(ctx context.Context, passID string, ids []string, periods []domain.Period) error {
	log := c.logger.With(zap.String("pass", passID))

	start := time.Now()
	sets, err := c.fetcher.FetchSnapshots(ctx, c.kind, ids, periods)
	observability.RecordFetch(c.kind.String(), time.Since(start), err)
	if err != nil {
		log.Warn("snapshot fetch failed, ids stay untracked",
			zap.Int("ids", len(ids)),
			zap.Error(err),
		)
		return err
	}

	fetchedAt := c.now().UnixMilli()
	records := make([]*domain.EntityRecord, 0, len(sets))
	missing := 0
	for _, id := range ids {
		set, ok := sets[id]
		if !ok {
			missing++
			log.Debug("no data returned", zap.String("id", id))
			continue
		}
		if set.Kind == "" {
			set.Kind = c.kind
		}
		rec, err := c.joiner.Merge(set, fetchedAt)
		if err != nil {
			missing++
			log.Debug("skipping unusable snapshot set", zap.String("id", id), zap.Error(err))
			continue
		}
		rec.ID = id
		records = append(records, rec)
	}

	for _, rec := range records {
		if err := c.cache.Upsert(rec); err != nil {
			return err
		}
		for _, l := range c.listeners {
			l(rec.Clone())
		}
	}

	if missing > 0 {
		observability.RecordMissingData(c.kind.String(), missing)
	}
	observability.RecordUpserts(c.kind.String(), len(records), c.cache.Len())

	log.Info("ensure pass complete",
		zap.Int("requested", len(ids)),
		zap.Int("upserted", len(records)),
		zap.Int("missing", missing),
		zap.Duration("took", time.Since(start)),
	)
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// intersect returns the ids of want that appear in have, in want order.
func intersect(want, have []string) []string {
	set := make(map[string]bool, len(have))
	for _, id := range have {
		set[id] = true
	}
	var out []string
	for _, id := range want {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}
