package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/targetkit/targetkit/core/broker"
	"github.com/targetkit/targetkit/core/keyword"
	"github.com/targetkit/targetkit/pkg/async"
	"github.com/targetkit/targetkit/pkg/logger"
)

var (
	// ErrNotFound is returned when no registered broker knows the
	// requested target.
	ErrNotFound = errors.New("target not found")
	// ErrDuplicateAka is returned when two sessions share an alias,
	// which would collapse their targets into one namespace.
	ErrDuplicateAka = errors.New("duplicate broker alias")
)

// Snapshot is one consistent merged view of all brokers' targets,
// keyed by fullid. Snapshots are never mutated after publication.
type Snapshot map[string]*broker.Target

// FullIDs returns the snapshot's keys in ascending order. Since a
// fullid starts with the broker alias, this is also alias order.
func (s Snapshot) FullIDs() []string {
	ids := slices.Collect(maps.Keys(s))
	slices.Sort(ids)
	return ids
}

// Targets returns the snapshot's descriptors ordered by fullid.
func (s Snapshot) Targets() []*broker.Target {
	targets := make([]*broker.Target, 0, len(s))
	for _, fullid := range s.FullIDs() {
		targets = append(targets, s[fullid])
	}
	return targets
}

// Cache coordinates the multi-broker target table.
type Cache struct {
	log      *slog.Logger
	sessions []*broker.Session
	byAka    map[string]*broker.Session

	mu       sync.Mutex
	gen      uint64
	snapshot Snapshot // nil when invalid
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for per-broker failure reports.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a cache over the given sessions. Aliases must be unique;
// they are the namespace prefix that keeps fullids disjoint across
// brokers.
func New(sessions []*broker.Session, opts ...Option) (*Cache, error) {
	c := &Cache{
		log:      slog.Default(),
		sessions: slices.Clone(sessions),
		byAka:    make(map[string]*broker.Session, len(sessions)),
	}
	for _, s := range c.sessions {
		if _, dup := c.byAka[s.Aka()]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAka, s.Aka())
		}
		c.byAka[s.Aka()] = s
	}
	slices.SortFunc(c.sessions, func(a, b *broker.Session) int {
		return strings.Compare(a.Aka(), b.Aka())
	})
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("cache"))
	return c, nil
}

// Sessions returns the registered sessions in alias order.
func (c *Cache) Sessions() []*broker.Session {
	return slices.Clone(c.sessions)
}

// Session returns the session registered under aka.
func (c *Cache) Session(aka string) (*broker.Session, bool) {
	s, ok := c.byAka[aka]
	return s, ok
}

// Valid reports whether a snapshot is currently published.
func (c *Cache) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot != nil
}

// Invalidate discards the published snapshot. The next Refresh fans out
// again; an in-flight refresh that started before this call will not
// publish its stale result.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.snapshot = nil
}

// Refresh returns the current snapshot, fanning out one parallel list
// call per broker if none is published. Disabled targets are listed
// too; excluding them is the selector's job. Per-broker failures are
// logged and degrade that broker to zero targets. The only error
// returned is the context's, when the round was canceled outright.
func (c *Cache) Refresh(ctx context.Context, projection []string) (Snapshot, error) {
	c.mu.Lock()
	if c.snapshot != nil {
		snap := c.snapshot
		c.mu.Unlock()
		return snap, nil
	}
	gen := c.gen
	c.mu.Unlock()

	// One future per broker: the fan-out width is exactly the number of
	// registered sessions, each queried at most once per round.
	futures := make([]*async.Future[[]*broker.Target], len(c.sessions))
	for i, s := range c.sessions {
		futures[i] = async.Exec(ctx, s, func(ctx context.Context, s *broker.Session) ([]*broker.Target, error) {
			return s.ListTargets(ctx, broker.ListOptions{
				IncludeDisabled: true,
				Projection:      projection,
			})
		})
	}

	merged := make(Snapshot)
	for i, f := range futures {
		targets, err := f.Await()
		if err != nil {
			c.log.Error("cannot use broker",
				logger.Broker(c.sessions[i].Aka()),
				logger.URL(c.sessions[i].URL()),
				logger.Error(err))
			continue
		}
		for _, t := range targets {
			t.Keywords = keyword.Namespace(t)
			merged[t.FullID] = t
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.snapshot = merged
	}
	c.mu.Unlock()
	return merged, nil
}

// Get resolves a target by fullid or bare broker-local id, refreshing
// the cache if needed. A bare id held by several brokers resolves to
// the alphabetically-first alias; the ambiguity is inherent to bare
// ids, the tie-break just makes it deterministic.
func (c *Cache) Get(ctx context.Context, id string) (*broker.Target, error) {
	snap, err := c.Refresh(ctx, nil)
	if err != nil {
		return nil, err
	}
	if t, ok := snap[id]; ok {
		return t, nil
	}
	for _, fullid := range snap.FullIDs() {
		if snap[fullid].ID == id {
			return snap[fullid], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
}

// Update re-describes one target through its owning session and
// publishes a snapshot with the entry replaced. Readers holding the old
// snapshot keep seeing the old descriptor; the replacement is only
// visible through the cache.
func (c *Cache) Update(ctx context.Context, id string) (*broker.Target, error) {
	current, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	session, ok := c.byAka[current.Aka]
	if !ok {
		return nil, fmt.Errorf("%w: broker %q is gone", ErrNotFound, current.Aka)
	}

	fresh, err := session.GetTarget(ctx, current.ID, nil)
	if err != nil {
		return nil, err
	}
	fresh.Keywords = keyword.Namespace(fresh)

	c.mu.Lock()
	if c.snapshot != nil {
		next := maps.Clone(c.snapshot)
		next[fresh.FullID] = fresh
		c.snapshot = next
	}
	c.mu.Unlock()
	return fresh, nil
}

// SessionFor returns the session owning the given target.
func (c *Cache) SessionFor(t *broker.Target) (*broker.Session, bool) {
	s, ok := c.byAka[t.Aka]
	return s, ok
}
