package scheduler

import (
	"context"
	"fmt"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

// MirrorStore is the Redis side of the sync.
type MirrorStore interface {
	GetAllServices(ctx context.Context) ([]domain.ServiceEntry, error)
	Publish(ctx context.Context, entries []domain.ServiceEntry, status domain.DiscoveryStatus) error
}

// CatalogState is the catalog side of the sync.
type CatalogState interface {
	Count() int
	Snapshot() []domain.ServiceEntry
	DiscoveryStatus() domain.DiscoveryStatus
	Restore(ctx context.Context, entries []domain.ServiceEntry) (bool, error)
}

// MirrorSyncer reconciles the catalog and its Redis mirror at startup.
type MirrorSyncer struct {
	mirror  MirrorStore
	catalog CatalogState
	logger  logger.Logger
}

func NewMirrorSyncer(mirror MirrorStore, catalog CatalogState, log logger.Logger) *MirrorSyncer {
	return &MirrorSyncer{
		mirror:  mirror,
		catalog: catalog,
		logger:  log,
	}
}

// Sync restores an empty catalog from the mirror. A non-empty catalog wins
// and is pushed to the mirror instead.
func (ms *MirrorSyncer) Sync(ctx context.Context) error {
	if ms.catalog.Count() == 0 {
		entries, err := ms.mirror.GetAllServices(ctx)
		if err != nil {
			return fmt.Errorf("failed to read mirror: %w", err)
		}
		if len(entries) == 0 {
			ms.logger.Info("catalog and mirror are both empty")
			return nil
		}
		if _, err := ms.catalog.Restore(ctx, entries); err != nil {
			return fmt.Errorf("failed to restore catalog from mirror: %w", err)
		}
		return nil
	}

	if err := ms.mirror.Publish(ctx, ms.catalog.Snapshot(), ms.catalog.DiscoveryStatus()); err != nil {
		return fmt.Errorf("failed to publish catalog to mirror: %w", err)
	}
	ms.logger.Info("catalog mirrored to redis",
		logger.Int("count", ms.catalog.Count()))
	return nil
}
