// Package query is the server-state cache: it deduplicates keyed reads, keeps
// their last result and pushes every state transition to subscribers.
//
// Notifications go through one FIFO dispatch queue per Client that is drained
// by a single goroutine at a time, so listeners for a key observe transitions in
// order and in subscription order, and may call back into the Client.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/illmade-knight/go-booking/pkg/transport"
	"github.com/rs/zerolog"
)

// Status is the lifecycle state of a cache entry.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is an immutable snapshot of one cache line.
// Data is only trusted when Status is StatusSuccess and Err only when Status is
// StatusError; the other field keeps its previous value.
type Entry struct {
	Key         Key
	Status      Status
	Data        any
	HasData     bool
	Err         error
	UpdatedAt   time.Time
	Subscribers int
	FetchCount  int
}

// Fetcher performs the read for a key. It must be a pure function of the key.
type Fetcher func(ctx context.Context) (any, error)

// Listener receives every state transition of the subscribed entry.
type Listener func(Entry)

// Options configures one subscription.
type Options struct {
	// Enabled false registers the subscriber without fetching.
	Enabled bool
	// RetryCount is the number of extra attempts after a failed fetch.
	// Client errors (4xx) are never retried.
	RetryCount int
	// Persist writes successful results to the snapshot store and pre-fills new
	// entries from it.
	Persist bool

	decode func([]byte) (any, error)
}

// DefaultOptions returns {Enabled: true, RetryCount: 0, Persist: false}.
func DefaultOptions() Options {
	return Options{Enabled: true}
}

// SnapshotStore persists successful results between processes.
type SnapshotStore interface {
	Set(ctx context.Context, key string, value json.RawMessage) error
	Fetch(ctx context.Context, key string) (json.RawMessage, error)
	Delete(ctx context.Context, key string) error
}

// Config holds the configuration for the query client.
type Config struct {
	// RetryDelay is the pause between retry attempts. Zero means 500ms.
	RetryDelay time.Duration
	// SnapshotTimeout bounds snapshot store calls. Zero means 2s.
	SnapshotTimeout time.Duration
}

type entry struct {
	id     string
	key    Key
	status Status

	data      any
	hasData   bool
	err       error
	updatedAt time.Time

	subs       []*Handle
	fetcher    Fetcher
	opts       Options
	fetchCount int

	inFlight bool
	// stale is set when an invalidation lands while a fetch is in flight.
	stale bool
	// invalidated is set when an entry is invalidated with no enabled subscriber.
	invalidated bool
	// successor replaces a removed entry whose fetch was still in flight.
	successor *entry
	// waiting marks a successor that fetches once its predecessor's call returns.
	waiting bool
}

type delivery struct {
	handles []*Handle
	entry   Entry
}

// Client owns every cache entry. Create one per process and Close it on exit.
type Client struct {
	cfg     Config
	store   SnapshotStore
	metrics *Metrics
	logger  zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	entries  map[string]*entry
	queue    []delivery
	draining bool
	nextID   uint64
}

// New creates a query client. store and metrics are optional.
func New(cfg *Config, store SnapshotStore, metrics *Metrics, logger zerolog.Logger) *Client {
	c := Config{}
	if cfg != nil {
		c = *cfg
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = 500 * time.Millisecond
	}
	if c.SnapshotTimeout == 0 {
		c.SnapshotTimeout = 2 * time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		cfg:     c,
		store:   store,
		metrics: metrics,
		logger:  logger.With().Str("component", "QueryClient").Logger(),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}
}

// Close cancels in-flight fetches and waits for their goroutines to exit.
func (c *Client) Close() error {
	c.cancel()
	c.wg.Wait()
	c.logger.Debug().Msg("Query client closed.")
	return nil
}

// Subscribe registers listener on key. With no entry, or an idle/error entry,
// an enabled subscription issues fetcher; a success entry is served from cache;
// a loading entry is joined without a second call. The current state is always
// delivered to the new subscriber.
func (c *Client) Subscribe(key Key, fetcher Fetcher, opts Options, listener Listener) *Handle {
	c.mu.Lock()
	e, created := c.entryLocked(key)

	c.nextID++
	h := &Handle{
		client:   c,
		id:       c.nextID,
		entry:    e,
		fetcher:  fetcher,
		opts:     opts,
		listener: listener,
		enabled:  opts.Enabled,
	}
	h.active.Store(true)
	e.subs = append(e.subs, h)

	if opts.Enabled {
		e.fetcher = fetcher
		e.opts = opts
	}
	c.activateLocked(e, h, created)
	c.mu.Unlock()

	c.drain()
	return h
}

// Invalidate marks every entry whose key starts with prefix as stale. Entries
// with an enabled subscriber refetch; entries with no subscriber are discarded.
// It returns the number of entries matched.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	matched := 0
	for id, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		matched++
		switch {
		case e.inFlight:
			e.stale = true
		case len(e.subs) == 0:
			delete(c.entries, id)
		case !hasEnabled(e):
			e.invalidated = true
		default:
			c.startFetchLocked(e, false)
		}
	}
	c.metrics.invalidated(matched)
	c.metrics.setEntries(len(c.entries))
	c.mu.Unlock()

	c.logger.Debug().Str("prefix", prefix.String()).Int("matched", matched).Msg("Invalidated queries.")
	c.drain()
	return matched
}

// Remove discards every entry whose key starts with prefix, even subscribed ones.
// Remaining subscribers are moved to a fresh entry which passes through loading
// before any data is delivered again; results of earlier fetches are dropped.
// When a fetch for the key is still in flight, the fresh entry's fetch waits
// for it to return so there is never more than one call per key.
func (c *Client) Remove(ctx context.Context, prefix Key) int {
	c.mu.Lock()
	var matchedIDs []string
	for id, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			matchedIDs = append(matchedIDs, id)
		}
	}
	matched := len(matchedIDs)
	var persisted []string
	for _, id := range matchedIDs {
		e := c.entries[id]
		delete(c.entries, id)
		if e.opts.Persist {
			persisted = append(persisted, id)
		}
		if len(e.subs) == 0 {
			continue
		}

		fresh := &entry{id: id, key: e.key, subs: e.subs, fetcher: e.fetcher, opts: e.opts}
		for _, h := range fresh.subs {
			h.entry = fresh
		}
		c.entries[id] = fresh
		switch {
		case !hasEnabled(fresh) || fresh.fetcher == nil:
			c.enqueueLocked(fresh, fresh.subs)
		case e.inFlight:
			// One call per key: the fresh fetch starts when the dropped one returns.
			e.successor = fresh
			fresh.inFlight = true
			fresh.waiting = true
			fresh.status = StatusLoading
			c.enqueueLocked(fresh, fresh.subs)
		default:
			c.startFetchLocked(fresh, false)
		}
	}
	c.metrics.invalidated(matched)
	c.metrics.setEntries(len(c.entries))
	c.mu.Unlock()

	c.logger.Debug().Str("prefix", prefix.String()).Int("matched", matched).Msg("Removed queries.")
	c.drain()

	if c.store != nil {
		for _, id := range persisted {
			if err := c.store.Delete(ctx, id); err != nil {
				c.logger.Warn().Err(err).Str("key", id).Msg("Failed to delete query snapshot.")
			}
		}
	}
	return matched
}

// SetData stores data as a success result for key and notifies subscribers.
func (c *Client) SetData(key Key, data any) {
	c.mu.Lock()
	e, _ := c.entryLocked(key)
	e.status = StatusSuccess
	e.data = data
	e.hasData = true
	e.updatedAt = time.Now()
	e.invalidated = false
	c.enqueueLocked(e, e.subs)
	c.mu.Unlock()
	c.drain()
}

// Peek returns the current snapshot of key without subscribing.
func (c *Client) Peek(key Key) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return snapshot(e), true
}

// entryLocked returns the entry for key, creating an idle one when missing.
func (c *Client) entryLocked(key Key) (*entry, bool) {
	id := key.String()
	if e, ok := c.entries[id]; ok {
		return e, false
	}
	e := &entry{id: id, key: key, status: StatusIdle}
	c.entries[id] = e
	c.metrics.setEntries(len(c.entries))
	return e, true
}

// activateLocked decides whether h's arrival triggers a fetch, then makes sure h
// receives the current state.
func (c *Client) activateLocked(e *entry, h *Handle, created bool) {
	if !h.enabled || e.inFlight {
		c.enqueueLocked(e, []*Handle{h})
		return
	}
	if e.status == StatusSuccess && !e.invalidated {
		c.metrics.hit()
		c.enqueueLocked(e, []*Handle{h})
		return
	}
	c.startFetchLocked(e, created)
}

// startFetchLocked moves e to loading, notifies every subscriber and launches
// the fetch. Callers guarantee no fetch is in flight for e.
func (c *Client) startFetchLocked(e *entry, hydrate bool) {
	e.inFlight = true
	e.invalidated = false
	e.status = StatusLoading
	e.fetchCount++
	c.enqueueLocked(e, e.subs)

	fetcher, opts := e.fetcher, e.opts
	c.wg.Add(1)
	go c.runFetch(e, fetcher, opts, hydrate && opts.Persist && c.store != nil && opts.decode != nil)
}

func (c *Client) runFetch(e *entry, fetcher Fetcher, opts Options, hydrate bool) {
	defer c.wg.Done()

	if hydrate {
		c.hydrate(e, opts)
	}

	data, err := c.fetchWithRetry(fetcher, opts)

	c.mu.Lock()
	if c.entries[e.id] != e {
		// Removed while in flight.
		c.metrics.fetched("superseded")
		c.resumeSuccessorLocked(e)
		c.mu.Unlock()
		c.drain()
		return
	}
	if e.stale {
		e.stale = false
		e.inFlight = false
		c.metrics.fetched("superseded")
		switch {
		case len(e.subs) == 0:
			delete(c.entries, e.id)
			c.metrics.setEntries(len(c.entries))
			c.mu.Unlock()
			return
		case hasEnabled(e) && e.fetcher != nil:
			c.startFetchLocked(e, false)
			c.mu.Unlock()
			c.drain()
			return
		}
		// Only disabled subscribers remain: keep the result but refetch on enable.
		e.invalidated = true
	}

	e.inFlight = false
	e.updatedAt = time.Now()
	if err != nil {
		e.status = StatusError
		e.err = err
		c.metrics.fetched("error")
	} else {
		e.status = StatusSuccess
		e.data = data
		e.hasData = true
		c.metrics.fetched("success")
	}
	c.enqueueLocked(e, e.subs)
	c.mu.Unlock()

	if err != nil {
		c.logger.Debug().Err(err).Str("key", e.id).Msg("Query fetch failed.")
	}
	c.drain()

	if err == nil && opts.Persist && c.store != nil {
		c.persist(e.id, data)
	}
}

// resumeSuccessorLocked starts the fetch a removal deferred until e's call
// returned. Successors removed in turn pass the wait along.
func (c *Client) resumeSuccessorLocked(e *entry) {
	next := e.successor
	for next != nil && c.entries[next.id] != next {
		next.waiting = false
		next = next.successor
	}
	if next == nil || !next.waiting {
		return
	}
	next.waiting = false
	next.inFlight = false
	primed := next.status == StatusSuccess
	switch {
	case primed && !next.stale:
	case hasEnabled(next) && next.fetcher != nil:
		c.startFetchLocked(next, false)
	case primed:
		next.stale = false
		next.invalidated = true
	default:
		next.stale = false
		next.status = StatusIdle
		c.enqueueLocked(next, next.subs)
	}
}

func (c *Client) fetchWithRetry(fetcher Fetcher, opts Options) (any, error) {
	if fetcher == nil {
		return nil, errors.New("query has no fetcher")
	}
	var lastErr error
	for attempt := 0; attempt <= opts.RetryCount; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.cfg.RetryDelay):
			case <-c.ctx.Done():
				return nil, c.ctx.Err()
			}
		}
		data, err := fetcher(c.ctx)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, lastErr
}

// retryable excludes client errors: retrying a 401 only delays the redirect.
func retryable(err error) bool {
	if apiErr, ok := transport.AsApiError(err); ok {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return !errors.Is(err, context.Canceled)
}

func (c *Client) hydrate(e *entry, opts Options) {
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.SnapshotTimeout)
	defer cancel()
	raw, err := c.store.Fetch(ctx, e.id)
	if err != nil {
		return
	}
	data, err := opts.decode(raw)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", e.id).Msg("Discarding unreadable query snapshot.")
		return
	}

	c.mu.Lock()
	if c.entries[e.id] != e || e.status != StatusLoading || e.hasData {
		c.mu.Unlock()
		return
	}
	e.data = data
	e.hasData = true
	c.enqueueLocked(e, e.subs)
	c.mu.Unlock()
	c.drain()
}

func (c *Client) persist(id string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", id).Msg("Failed to encode query snapshot.")
		return
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.cfg.SnapshotTimeout)
	defer cancel()
	if err := c.store.Set(ctx, id, raw); err != nil {
		c.logger.Warn().Err(err).Str("key", id).Msg("Failed to write query snapshot.")
	}
}

// enqueueLocked schedules delivery of e's current state to targets.
func (c *Client) enqueueLocked(e *entry, targets []*Handle) {
	if len(targets) == 0 {
		return
	}
	handles := make([]*Handle, len(targets))
	copy(handles, targets)
	c.queue = append(c.queue, delivery{handles: handles, entry: snapshot(e)})
}

// drain delivers queued notifications unless another goroutine is already
// draining, in which case that goroutine delivers them in order.
func (c *Client) drain() {
	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return
	}
	c.draining = true
	for len(c.queue) > 0 {
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()
		for _, h := range next.handles {
			if h.active.Load() && h.listener != nil {
				h.listener(next.entry)
			}
		}
		c.mu.Lock()
	}
	c.draining = false
	c.mu.Unlock()
}

func hasEnabled(e *entry) bool {
	for _, h := range e.subs {
		if h.enabled {
			return true
		}
	}
	return false
}

func snapshot(e *entry) Entry {
	return Entry{
		Key:         e.key,
		Status:      e.status,
		Data:        e.data,
		HasData:     e.hasData,
		Err:         e.err,
		UpdatedAt:   e.updatedAt,
		Subscribers: len(e.subs),
		FetchCount:  e.fetchCount,
	}
}

// Handle is one subscription to a key.
type Handle struct {
	client   *Client
	id       uint64
	entry    *entry
	fetcher  Fetcher
	opts     Options
	listener Listener
	enabled  bool
	active   atomic.Bool
}

// Entry returns the current snapshot of the subscribed entry.
func (h *Handle) Entry() Entry {
	h.client.mu.Lock()
	defer h.client.mu.Unlock()
	return snapshot(h.entry)
}

// Unsubscribe stops notifications. The entry stays cached.
func (h *Handle) Unsubscribe() {
	c := h.client
	c.mu.Lock()
	defer c.mu.Unlock()
	if !h.active.Swap(false) {
		return
	}
	subs := h.entry.subs
	for i, s := range subs {
		if s == h {
			h.entry.subs = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
}

// SetEnabled toggles fetching for this subscription. Enabling an entry that has
// no trusted success result issues a fetch.
func (h *Handle) SetEnabled(enabled bool) {
	c := h.client
	c.mu.Lock()
	if !h.active.Load() || h.enabled == enabled {
		c.mu.Unlock()
		return
	}
	h.enabled = enabled
	h.opts.Enabled = enabled
	if enabled {
		h.entry.fetcher = h.fetcher
		h.entry.opts = h.opts
		c.activateLocked(h.entry, h, false)
	}
	c.mu.Unlock()
	c.drain()
}
