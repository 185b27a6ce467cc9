// Package catalog owns the authoritative in-memory catalog and keeps it in
// step with durable storage.
//
// Reads take a shared lock and return deep copies. Every mutation builds the
// next catalog, persists it, and only then swaps it in, so a failed save
// leaves both memory and disk untouched. The catalog is kept sorted by display
// name. The optional mirror is published after the catalog lock is released.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MrSnakeDoc/homenav/internal/discovery"
	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

const mirrorTimeout = 2 * time.Second

// ErrNotFound is returned for ids not present in the catalog.
var ErrNotFound = errors.New("service not found")

// Persister is the durable backing store of the catalog.
type Persister interface {
	Load(ctx context.Context) ([]domain.ServiceEntry, error)
	Save(ctx context.Context, entries []domain.ServiceEntry) error
}

// Discoverer produces discovered entries from host state.
type Discoverer interface {
	Discover(ctx context.Context) ([]domain.ServiceEntry, domain.DiscoveryStatus, error)
}

// Mirror receives a copy of the catalog after every successful commit.
// Failures are logged, never returned to callers.
type Mirror interface {
	Publish(ctx context.Context, entries []domain.ServiceEntry, status domain.DiscoveryStatus) error
}

type Options struct {
	Store       Persister
	Discoverer  Discoverer
	Mirror      Mirror // optional
	DefaultHost string
	Logger      logger.Logger
	Now         func() time.Time
}

type Service struct {
	mu      sync.RWMutex
	entries []domain.ServiceEntry
	status  domain.DiscoveryStatus

	rev     uint64 // bumped on every commit

	// discoveryMu serializes RunDiscovery calls end to end.
	discoveryMu sync.Mutex

	// mirrorMu orders mirror publishes; mirroredRev is the newest revision
	// handed to the mirror.
	mirrorMu    sync.Mutex
	mirroredRev uint64

	store       Persister
	discoverer  Discoverer
	mirror      Mirror
	defaultHost string
	logger      logger.Logger
	now         func() time.Time
}

// New loads the persisted catalog and returns a ready Service.
func New(ctx context.Context, opts Options) (*Service, error) {
	if opts.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	if opts.DefaultHost == "" {
		opts.DefaultHost = "localhost"
	}

	entries, err := opts.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	sortByDisplayName(entries)

	return &Service{
		entries:     entries,
		store:       opts.Store,
		discoverer:  opts.Discoverer,
		mirror:      opts.Mirror,
		defaultHost: opts.DefaultHost,
		logger:      opts.Logger,
		now:         opts.Now,
	}, nil
}

// List returns the entries matching f, in catalog order.
func (s *Service) List(f domain.Filter) []domain.ServiceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.ServiceEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if f.Match(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Snapshot returns a deep copy of the whole catalog.
func (s *Service) Snapshot() []domain.ServiceEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneEntries(s.entries)
}

func (s *Service) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Service) Get(id string) (domain.ServiceEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.entries[i].Clone(), nil
	}
	return domain.ServiceEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Create adds a manual entry. A colliding id gets a "-<unix seconds>"
// suffix, and a numeric counter after that if needed.
func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (domain.ServiceEntry, error) {
	// deferred before Lock, so it runs after Unlock
	var pub mirrorUpdate
	defer func() { s.publish(ctx, pub) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, err := domain.NewManualEntry(req, s.defaultHost, now)
	if err != nil {
		return domain.ServiceEntry{}, err
	}
	entry.ID = s.uniqueID(entry.ID, now)

	next := append(domain.CloneEntries(s.entries), entry)
	pub, err = s.commit(ctx, next, s.status)
	if err != nil {
		return domain.ServiceEntry{}, err
	}

	s.logger.Info("service created",
		logger.String("id", entry.ID),
		logger.String("service_name", entry.ServiceName))
	return entry.Clone(), nil
}

// Update applies a partial update to the entry with id.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (domain.ServiceEntry, error) {
	var pub mirrorUpdate
	defer func() { s.publish(ctx, pub) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return domain.ServiceEntry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated, err := domain.ApplyUpdate(s.entries[i], req, s.now())
	if err != nil {
		return domain.ServiceEntry{}, err
	}

	next := domain.CloneEntries(s.entries)
	next[i] = updated
	pub, err = s.commit(ctx, next, s.status)
	if err != nil {
		return domain.ServiceEntry{}, err
	}

	s.logger.Info("service updated",
		logger.String("id", id),
		logger.Strings("locked_fields", updated.LockedFields))
	return updated.Clone(), nil
}

// Import creates manual entries for requests whose id is not yet in the
// catalog, in a single commit. Invalid requests are skipped.
func (s *Service) Import(ctx context.Context, reqs []domain.CreateRequest) (int, error) {
	var pub mirrorUpdate
	defer func() { s.publish(ctx, pub) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	next := domain.CloneEntries(s.entries)
	present := make(map[string]bool, len(next))
	for _, e := range next {
		present[e.ID] = true
	}

	added := 0
	for _, req := range reqs {
		entry, err := domain.NewManualEntry(req, s.defaultHost, now)
		if err != nil {
			s.logger.Warn("skipping invalid import entry", logger.Error(err))
			continue
		}
		if present[entry.ID] {
			continue
		}
		present[entry.ID] = true
		next = append(next, entry)
		added++
	}
	if added == 0 {
		return 0, nil
	}

	var err error
	pub, err = s.commit(ctx, next, s.status)
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Restore seeds an empty catalog with entries recovered from elsewhere,
// typically the Redis mirror after the catalog file was lost. It is a no-op
// returning false when the catalog already has entries.
func (s *Service) Restore(ctx context.Context, entries []domain.ServiceEntry) (bool, error) {
	var pub mirrorUpdate
	defer func() { s.publish(ctx, pub) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.entries) > 0 || len(entries) == 0 {
		return false, nil
	}
	next := domain.CloneEntries(entries)
	var err error
	pub, err = s.commit(ctx, next, s.status)
	if err != nil {
		return false, err
	}
	s.logger.Warn("catalog restored from mirror", logger.Int("entries", len(next)))
	return true, nil
}

// RunDiscovery scans the host and merges the result into the catalog.
//
// Runs are serialized. Scanning and probing happen without holding the
// catalog lock; the merge is computed against the catalog as it is at commit
// time, under the write lock, so concurrent edits are never lost.
func (s *Service) RunDiscovery(ctx context.Context) (domain.DiscoveryStatus, error) {
	if s.discoverer == nil {
		return domain.DiscoveryStatus{}, errors.New("discovery is not configured")
	}

	s.discoveryMu.Lock()
	defer s.discoveryMu.Unlock()

	discovered, summary, err := s.discoverer.Discover(ctx)
	if err != nil {
		return domain.DiscoveryStatus{}, fmt.Errorf("discovery failed: %w", err)
	}

	var pub mirrorUpdate
	defer func() { s.publish(ctx, pub) }()
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, summary := discovery.Merge(s.entries, discovered, summary, s.now())
	pub, err = s.commit(ctx, merged, summary)
	if err != nil {
		msg := err.Error()
		summary.LastError = &msg
		s.status = summary
		return summary.Clone(), err
	}
	s.status = summary

	s.logger.Info("discovery finished",
		logger.Int("discovered", summary.DiscoveredServices),
		logger.Int("added", summary.Added),
		logger.Int("updated", summary.Updated),
		logger.Int("unchanged", summary.Unchanged))
	return summary.Clone(), nil
}

// DiscoveryStatus returns the summary of the last discovery run.
func (s *Service) DiscoveryStatus() domain.DiscoveryStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status.Clone()
}

// mirrorUpdate is a committed catalog revision waiting to be mirrored.
type mirrorUpdate struct {
	rev     uint64
	entries []domain.ServiceEntry
	status  domain.DiscoveryStatus
}

// commit sorts next, persists it and swaps it in. Callers hold the write lock
// and hand the returned update to publish once the lock is released.
func (s *Service) commit(ctx context.Context, next []domain.ServiceEntry, status domain.DiscoveryStatus) (mirrorUpdate, error) {
	sortByDisplayName(next)
	if err := s.store.Save(ctx, next); err != nil {
		return mirrorUpdate{}, fmt.Errorf("failed to persist catalog: %w", err)
	}
	s.entries = next
	s.rev++

	if s.mirror == nil {
		return mirrorUpdate{}, nil
	}
	return mirrorUpdate{
		rev:     s.rev,
		entries: domain.CloneEntries(next),
		status:  status.Clone(),
	}, nil
}

// publish pushes u to the mirror. It must not be called with mu held.
// Revisions older than the last one handed over are dropped.
func (s *Service) publish(ctx context.Context, u mirrorUpdate) {
	if u.rev == 0 {
		return
	}

	s.mirrorMu.Lock()
	defer s.mirrorMu.Unlock()
	if u.rev <= s.mirroredRev {
		return
	}
	s.mirroredRev = u.rev

	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()
	if err := s.mirror.Publish(mctx, u.entries, u.status); err != nil {
		// best effort: the file store is authoritative
		s.logger.Warn("failed to publish catalog mirror", logger.Error(err))
	}
}

func (s *Service) indexOf(id string) int {
	for i := range s.entries {
		if s.entries[i].ID == id {
			return i
		}
	}
	return -1
}

func sortByDisplayName(entries []domain.ServiceEntry) {
	sort.SliceStable(entries, func(a, b int) bool { return entries[a].DisplayName < entries[b].DisplayName })
}

func (s *Service) uniqueID(base string, now time.Time) string {
	if s.indexOf(base) < 0 {
		return base
	}
	candidate := fmt.Sprintf("%s-%d", base, now.Unix())
	for n := 2; s.indexOf(candidate) >= 0; n++ {
		candidate = fmt.Sprintf("%s-%d-%d", base, now.Unix(), n)
	}
	return candidate
}
