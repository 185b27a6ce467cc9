package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/logger"
	"github.com/MrSnakeDoc/homenav/internal/store/file"
)

var errDisk = errors.New("disk full")

type memStore struct {
	mu      sync.Mutex
	entries []domain.ServiceEntry
	saves   int
	fail    bool
}

func (m *memStore) Load(context.Context) ([]domain.ServiceEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return domain.CloneEntries(m.entries), nil
}

func (m *memStore) Save(_ context.Context, entries []domain.ServiceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errDisk
	}
	m.saves++
	m.entries = domain.CloneEntries(entries)
	return nil
}

type fakeDiscoverer struct {
	entries []domain.ServiceEntry
	err     error
	// gate, when set, blocks Discover until closed.
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeDiscoverer) Discover(ctx context.Context) ([]domain.ServiceEntry, domain.DiscoveryStatus, error) {
	if f.started != nil {
		f.started <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
	return domain.CloneEntries(f.entries), domain.DiscoveryStatus{
		ScannedUnits:       len(f.entries),
		DiscoveredServices: len(f.entries),
	}, f.err
}

type recordingMirror struct {
	mu    sync.Mutex
	calls int
	last  []domain.ServiceEntry
	err   error
}

func (r *recordingMirror) Publish(_ context.Context, entries []domain.ServiceEntry, _ domain.DiscoveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.last = entries
	return r.err
}

var clock = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

func autoEntry(unit string, port uint16) domain.ServiceEntry {
	seen := clock
	return domain.ServiceEntry{
		ID:           domain.ServiceID(unit),
		ServiceName:  unit,
		DisplayName:  domain.HumanizeServiceName(unit),
		Host:         "localhost",
		Port:         domain.Ptr(port),
		Protocol:     domain.ProtocolHTTP,
		Status:       domain.StatusRunning,
		Tags:         []string{},
		Source:       domain.SourceAuto,
		LockedFields: []string{},
		LastSeenAt:   &seen,
		UpdatedAt:    seen,
	}
}

func newService(t *testing.T, store Persister, disc Discoverer, mirror Mirror) *Service {
	t.Helper()
	s, err := New(context.Background(), Options{
		Store:       store,
		Discoverer:  disc,
		Mirror:      mirror,
		DefaultHost: "nas.local",
		Logger:      logger.Nop(),
		Now:         func() time.Time { return clock },
	})
	require.NoError(t, err)
	return s
}

func TestCreateAndGet(t *testing.T) {
	store := &memStore{}
	s := newService(t, store, nil, nil)

	created, err := s.Create(context.Background(), domain.CreateRequest{ServiceName: "Home Wiki", Port: domain.Ptr[uint16](3000)})
	require.NoError(t, err)

	assert.Equal(t, "home-wiki", created.ID)
	assert.Equal(t, "nas.local", created.Host)
	assert.Equal(t, domain.SourceManual, created.Source)
	assert.Equal(t, domain.ProtocolHTTP, created.Protocol)

	got, err := s.Get("home-wiki")
	require.NoError(t, err)
	assert.Equal(t, created, got)
	assert.Equal(t, 1, store.saves)
}

func TestCreateResolvesIDCollisions(t *testing.T) {
	s := newService(t, &memStore{}, nil, nil)
	ctx := context.Background()

	first, err := s.Create(ctx, domain.CreateRequest{ServiceName: "wiki"})
	require.NoError(t, err)
	second, err := s.Create(ctx, domain.CreateRequest{ServiceName: "wiki"})
	require.NoError(t, err)
	third, err := s.Create(ctx, domain.CreateRequest{ServiceName: "WIKI"})
	require.NoError(t, err)

	assert.Equal(t, "wiki", first.ID)
	assert.Equal(t, "wiki-1780304400", second.ID)
	assert.Equal(t, "wiki-1780304400-2", third.ID)
	assert.Equal(t, 3, s.Count())
}

func TestCreateRejectsBlankName(t *testing.T) {
	store := &memStore{}
	s := newService(t, store, nil, nil)

	_, err := s.Create(context.Background(), domain.CreateRequest{ServiceName: " "})

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Zero(t, store.saves)
}

func TestGetAndUpdateUnknownID(t *testing.T) {
	s := newService(t, &memStore{}, nil, nil)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Update(context.Background(), "nope", domain.UpdateRequest{Favorite: domain.Ptr(true)})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateLocksAndPersists(t *testing.T) {
	store := &memStore{entries: []domain.ServiceEntry{autoEntry("jellyfin.service", 8096)}}
	s := newService(t, store, nil, nil)

	updated, err := s.Update(context.Background(), "jellyfin-service", domain.UpdateRequest{
		DisplayName: domain.Ptr("Movies"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Movies", updated.DisplayName)
	assert.Equal(t, []string{domain.FieldDisplayName}, updated.LockedFields)
	assert.Equal(t, "Movies", store.entries[0].DisplayName)
}

func TestFailedSaveLeavesCatalogUntouched(t *testing.T) {
	store := &memStore{entries: []domain.ServiceEntry{autoEntry("jellyfin.service", 8096)}}
	s := newService(t, store, &fakeDiscoverer{entries: []domain.ServiceEntry{autoEntry("new.service", 80)}}, nil)
	store.fail = true
	ctx := context.Background()

	_, err := s.Create(ctx, domain.CreateRequest{ServiceName: "wiki"})
	assert.ErrorIs(t, err, errDisk)

	_, err = s.Update(ctx, "jellyfin-service", domain.UpdateRequest{DisplayName: domain.Ptr("X")})
	assert.ErrorIs(t, err, errDisk)

	summary, err := s.RunDiscovery(ctx)
	assert.ErrorIs(t, err, errDisk)
	require.NotNil(t, summary.LastError)
	assert.Equal(t, summary, s.DiscoveryStatus())

	all := s.List(domain.Filter{IncludeHidden: true})
	require.Len(t, all, 1)
	assert.Equal(t, "Jellyfin", all[0].DisplayName)
}

func TestRunDiscoveryMergesAndRecordsStatus(t *testing.T) {
	store := &memStore{entries: []domain.ServiceEntry{autoEntry("old.service", 9000)}}
	disc := &fakeDiscoverer{entries: []domain.ServiceEntry{
		autoEntry("jellyfin.service", 8096),
		autoEntry("immich.service", 2283),
	}}
	mirror := &recordingMirror{}
	s := newService(t, store, disc, mirror)

	summary, err := s.RunDiscovery(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Added)
	assert.Equal(t, summary, s.DiscoveryStatus())
	assert.Equal(t, 3, s.Count())

	old, err := s.Get("old-service")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnknown, old.Status)

	assert.Equal(t, 1, mirror.calls)
	assert.Len(t, mirror.last, 3)
}

func TestRunDiscoveryPropagatesDiscovererError(t *testing.T) {
	store := &memStore{}
	s := newService(t, store, &fakeDiscoverer{err: context.Canceled}, nil)

	_, err := s.RunDiscovery(context.Background())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.saves)
}

func TestRunDiscoveryWithoutDiscoverer(t *testing.T) {
	s := newService(t, &memStore{}, nil, nil)

	_, err := s.RunDiscovery(context.Background())
	assert.Error(t, err)
}

func TestMirrorFailureIsNotFatal(t *testing.T) {
	s := newService(t, &memStore{}, nil, &recordingMirror{err: errors.New("redis down")})

	_, err := s.Create(context.Background(), domain.CreateRequest{ServiceName: "wiki"})
	assert.NoError(t, err)
}

func TestEditDuringDiscoveryIsNotLost(t *testing.T) {
	store := &memStore{entries: []domain.ServiceEntry{autoEntry("jellyfin.service", 8096)}}
	disc := &fakeDiscoverer{
		entries: []domain.ServiceEntry{autoEntry("jellyfin.service", 8096)},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	s := newService(t, store, disc, nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.RunDiscovery(context.Background())
		done <- err
	}()

	<-disc.started
	_, err := s.Update(context.Background(), "jellyfin-service", domain.UpdateRequest{DisplayName: domain.Ptr("Movies")})
	require.NoError(t, err)
	close(disc.gate)
	require.NoError(t, <-done)

	got, err := s.Get("jellyfin-service")
	require.NoError(t, err)
	assert.Equal(t, "Movies", got.DisplayName)
	assert.Equal(t, domain.SourceMerged, got.Source)
}

func TestDiscoveryRunsAreSerialized(t *testing.T) {
	disc := &fakeDiscoverer{
		entries: []domain.ServiceEntry{autoEntry("jellyfin.service", 8096)},
		gate:    make(chan struct{}),
		started: make(chan struct{}, 2),
	}
	s := newService(t, &memStore{}, disc, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.RunDiscovery(context.Background())
		}()
	}

	<-disc.started
	select {
	case <-disc.started:
		t.Fatal("second discovery started while the first was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(disc.gate)
	wg.Wait()

	status := s.DiscoveryStatus()
	assert.Equal(t, 0, status.Added, "second run sees the first run's additions")
	assert.Equal(t, 1, status.Updated+status.Unchanged)
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	s := newService(t, &memStore{}, nil, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Create(ctx, domain.CreateRequest{ServiceName: "svc"})
		}()
		go func() {
			defer wg.Done()
			for _, e := range s.List(domain.Filter{IncludeHidden: true}) {
				e.Tags = append(e.Tags, "mutated")
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, s.Count())
	for _, e := range s.Snapshot() {
		assert.Empty(t, e.Tags)
	}
}

func TestWithFileStoreSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.json")
	ctx := context.Background()

	s := newService(t, file.NewStore(path, logger.Nop()), nil, nil)
	_, err := s.Create(ctx, domain.CreateRequest{ServiceName: "wiki", Tags: []string{"docs"}})
	require.NoError(t, err)

	reloaded := newService(t, file.NewStore(path, logger.Nop()), nil, nil)
	got, err := reloaded.Get("wiki")
	require.NoError(t, err)
	assert.Equal(t, []string{"docs"}, got.Tags)
}

func TestImportSkipsExistingIDs(t *testing.T) {
	store := &memStore{entries: []domain.ServiceEntry{autoEntry("jellyfin", 8096)}}
	s := newService(t, store, nil, nil)

	added, err := s.Import(context.Background(), []domain.CreateRequest{
		{ServiceName: "Jellyfin"},
		{ServiceName: "Grafana"},
		{ServiceName: "grafana"},
		{ServiceName: ""},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, added)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 1, store.saves)

	added, err = s.Import(context.Background(), []domain.CreateRequest{{ServiceName: "grafana"}})
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Equal(t, 1, store.saves, "no-op import does not write")
}

func TestRestoreOnlySeedsEmptyCatalog(t *testing.T) {
	store := &memStore{}
	mirror := &recordingMirror{}
	s := newService(t, store, nil, mirror)
	ctx := context.Background()

	recovered := []domain.ServiceEntry{autoEntry("sonarr", 8989), autoEntry("jellyfin", 8096)}
	ok, err := s.Restore(ctx, recovered)
	require.NoError(t, err)
	assert.True(t, ok)

	all := s.Snapshot()
	require.Len(t, all, 2)
	assert.Equal(t, "jellyfin", all[0].ID)
	assert.Equal(t, "sonarr", all[1].ID)
	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, mirror.calls)

	ok, err = s.Restore(ctx, []domain.ServiceEntry{autoEntry("grafana", 3000)})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 2, s.Count())
}

// blockingMirror holds every Publish until release is closed or the publish
// deadline passes.
type blockingMirror struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingMirror) Publish(ctx context.Context, _ []domain.ServiceEntry, _ domain.DiscoveryStatus) error {
	select {
	case b.entered <- struct{}{}:
	default:
	}
	select {
	case <-b.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSlowMirrorDoesNotBlockReaders(t *testing.T) {
	mirror := &blockingMirror{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s := newService(t, &memStore{}, nil, mirror)

	done := make(chan error, 1)
	go func() {
		_, err := s.Create(context.Background(), domain.CreateRequest{ServiceName: "wiki"})
		done <- err
	}()
	<-mirror.entered

	read := make(chan []domain.ServiceEntry, 1)
	go func() {
		_, _ = s.Get("wiki")
		_ = s.DiscoveryStatus()
		read <- s.List(domain.Filter{IncludeHidden: true})
	}()

	select {
	case got := <-read:
		assert.Len(t, got, 1)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("catalog reads blocked while the mirror publish was in flight")
	}

	close(mirror.release)
	require.NoError(t, <-done)
}

func TestMirrorGetsEveryCommit(t *testing.T) {
	mirror := &recordingMirror{}
	s := newService(t, &memStore{}, nil, mirror)
	ctx := context.Background()

	_, err := s.Create(ctx, domain.CreateRequest{ServiceName: "wiki"})
	require.NoError(t, err)
	_, err = s.Create(ctx, domain.CreateRequest{ServiceName: "grafana"})
	require.NoError(t, err)

	assert.Equal(t, 2, mirror.calls)
	assert.Len(t, mirror.last, 2)

	_, err = s.Create(ctx, domain.CreateRequest{ServiceName: " "})
	require.Error(t, err)
	assert.Equal(t, 2, mirror.calls, "rejected writes are not mirrored")
}

func displayNames(entries []domain.ServiceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.DisplayName
	}
	return out
}

func TestCatalogStaysSortedByDisplayName(t *testing.T) {
	store := &memStore{entries: []domain.ServiceEntry{autoEntry("sonarr", 8989), autoEntry("jellyfin", 8096)}}
	s := newService(t, store, nil, nil)
	ctx := context.Background()
	all := domain.Filter{IncludeHidden: true}

	assert.Equal(t, []string{"Jellyfin", "Sonarr"}, displayNames(s.List(all)), "sorted on load")

	for _, name := range []string{"zeta", "alpha", "mid"} {
		_, err := s.Create(ctx, domain.CreateRequest{ServiceName: name})
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"Alpha", "Jellyfin", "Mid", "Sonarr", "Zeta"}, displayNames(s.List(all)))

	_, err := s.Update(ctx, "alpha", domain.UpdateRequest{DisplayName: domain.Ptr("Zulu")})
	require.NoError(t, err)
	assert.Equal(t, []string{"Jellyfin", "Mid", "Sonarr", "Zeta", "Zulu"}, displayNames(s.List(all)))
	assert.Equal(t, displayNames(s.Snapshot()), displayNames(store.entries), "persisted in the same order")

	added, err := s.Import(ctx, []domain.CreateRequest{{ServiceName: "beta"}})
	require.NoError(t, err)
	require.Equal(t, 1, added)
	assert.Equal(t, "Beta", s.List(all)[0].DisplayName)
}
