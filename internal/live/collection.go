package live

import (
	"context"
	"sync"

	"couple-journal-backend/internal/models"
	"couple-journal-backend/internal/observability"
	"couple-journal-backend/internal/realtime"
	"couple-journal-backend/internal/scope"

	"github.com/rs/zerolog/log"
)

// State is the life-cycle state of a Collection
type State int

const (
	Idle State = iota
	Loading
	Ready
	Refreshing
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Refreshing:
		return "refreshing"
	default:
		return "disposed"
	}
}

// Snapshot is the visible state of a Collection after a fetch was applied.
// Err is set, and Items empty, when that fetch failed.
type Snapshot[T models.Entity] struct {
	Items   []T
	Err     error
	State   State
	Version uint64
}

// Options configures a Collection
type Options[T models.Entity] struct {
	Source   Source[T]
	Viewer   string
	Owners   scope.OwnerSet
	Feed     realtime.Feed
	OnChange func(Snapshot[T])
}

// Collection is an always-current ordered view of one scoped source.
// Writes never patch it: every change event triggers a full refetch.
type Collection[T models.Entity] struct {
	opts Options[T]

	mu      sync.Mutex
	state   State
	items   []T
	err     error
	version uint64

	// deliverMu serializes OnChange with Dispose
	deliverMu   sync.Mutex
	sub         realtime.Subscription
	signals     chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	disposeOnce sync.Once
}

// Open subscribes to the change feed, performs the initial fetch and starts
// refreshing on every matching event. The collection lives until Dispose or
// until ctx is cancelled.
func Open[T models.Entity](ctx context.Context, opts Options[T]) *Collection[T] {
	ctx, cancel := context.WithCancel(ctx)
	c := &Collection[T]{
		opts:    opts,
		state:   Idle,
		signals: make(chan struct{}, 1),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	// Subscribe before the first fetch so no change between the two is lost.
	c.sub = opts.Feed.Subscribe(realtime.Filter{
		Collection: opts.Source.Collection,
		Viewer:     opts.Viewer,
		Owners:     opts.Owners,
	}, c.notify)

	observability.LiveCollectionsOpen.WithLabelValues(string(opts.Source.Collection)).Inc()

	c.setState(Loading)
	c.fetch()

	go c.loop()
	return c
}

// notify coalesces change events into at most one pending refresh
func (c *Collection[T]) notify(realtime.Event) {
	select {
	case c.signals <- struct{}{}:
	default:
	}
}

func (c *Collection[T]) loop() {
	defer close(c.done)
	for {
		select {
		case <-c.ctx.Done():
			c.Dispose()
			return
		case <-c.signals:
			if !c.setState(Refreshing) {
				return
			}
			c.fetch()
		}
	}
}

// setState moves to s unless disposed. It reports whether the collection is still live.
func (c *Collection[T]) setState(s State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Disposed {
		return false
	}
	c.state = s
	return true
}

// fetch runs the source and applies the result, unless the collection was
// disposed while the fetch was in flight.
func (c *Collection[T]) fetch() {
	collection := string(c.opts.Source.Collection)
	items, err := Load(c.ctx, c.opts.Source, c.opts.Owners)
	if err != nil {
		observability.LiveRefreshesTotal.WithLabelValues(collection, "error").Inc()
		log.Warn().Err(err).Str("collection", collection).Str("viewer", c.opts.Viewer).Msg("Live collection fetch failed")
		items, err = []T{}, models.NewTransientFetchError(c.opts.Source.Collection, err)
	} else {
		observability.LiveRefreshesTotal.WithLabelValues(collection, "ok").Inc()
	}

	c.mu.Lock()
	if c.state == Disposed {
		c.mu.Unlock()
		return
	}
	c.items, c.err = items, err
	c.state = Ready
	c.version++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.deliver(snap)
}

// deliver hands snap to OnChange unless Dispose got in first
func (c *Collection[T]) deliver(snap Snapshot[T]) {
	if c.opts.OnChange == nil {
		return
	}
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	if c.State() == Disposed {
		return
	}
	c.opts.OnChange(snap)
}

func (c *Collection[T]) snapshotLocked() Snapshot[T] {
	items := make([]T, len(c.items))
	copy(items, c.items)
	return Snapshot[T]{Items: items, Err: c.err, State: c.state, Version: c.version}
}

// Snapshot returns the current items, error flag and state
func (c *Collection[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// State returns the current life-cycle state
func (c *Collection[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispose unsubscribes from the change feed and drops the cached items.
// A fetch still in flight is cancelled and its result discarded. It waits for
// a running OnChange, and none starts once it returns. Safe to call more than
// once, but not from OnChange.
func (c *Collection[T]) Dispose() {
	c.disposeOnce.Do(func() {
		c.deliverMu.Lock()
		c.mu.Lock()
		c.state = Disposed
		c.items = nil
		c.err = nil
		c.mu.Unlock()
		c.deliverMu.Unlock()

		c.sub.Unsubscribe()
		c.cancel()
		observability.LiveCollectionsOpen.WithLabelValues(string(c.opts.Source.Collection)).Dec()
	})
}

// Done is closed once the refresh goroutine has exited
func (c *Collection[T]) Done() <-chan struct{} {
	return c.done
}
