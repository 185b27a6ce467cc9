// Package discovery scans the host for services and reconciles the results
// with the catalog.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

const DefaultProbeConcurrency = 16

type EngineOptions struct {
	Units       UnitLister
	Ports       PortScanner
	Detector    ProtocolDetector
	DefaultHost string
	// MaxProbes caps concurrent protocol probes. 0 means one goroutine per port.
	MaxProbes int
	Logger    logger.Logger
	Now       func() time.Time
}

// Engine produces discovered entries from host state. It holds no catalog
// state and is safe for concurrent use.
type Engine struct {
	units       UnitLister
	ports       PortScanner
	detector    ProtocolDetector
	defaultHost string
	maxProbes   int
	logger      logger.Logger
	now         func() time.Time
}

func NewEngine(opts EngineOptions) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Engine{
		units:       opts.Units,
		ports:       opts.Ports,
		detector:    opts.Detector,
		defaultHost: opts.DefaultHost,
		maxProbes:   opts.MaxProbes,
		logger:      opts.Logger,
		now:         opts.Now,
	}
}

// Discover scans units and listeners, probes primary ports and classifies
// the result. Scanner failures are logged and reported in LastError, the
// scan continues with empty facts. Only context cancellation is returned.
func (e *Engine) Discover(ctx context.Context) ([]domain.ServiceEntry, domain.DiscoveryStatus, error) {
	started := e.now()
	summary := domain.DiscoveryStatus{LastStartedAt: &started}
	var scanErrs []error

	units, err := e.units.ListUnits(ctx)
	if err != nil {
		e.logger.Warn("unit listing failed, continuing without units", logger.Error(err))
		scanErrs = append(scanErrs, fmt.Errorf("list units: %w", err))
		units = map[string]domain.Status{}
	}
	listeners, err := e.ports.ListeningPorts(ctx)
	if err != nil {
		e.logger.Warn("port scan failed, continuing without ports", logger.Error(err))
		scanErrs = append(scanErrs, fmt.Errorf("scan ports: %w", err))
		listeners = map[string][]uint16{}
	}
	if err := ctx.Err(); err != nil {
		return nil, summary, err
	}

	summary.ScannedUnits = len(units)
	for _, status := range units {
		if status == domain.StatusRunning {
			summary.ActiveUnits++
		}
	}
	summary.MatchedPorts = countPorts(listeners)

	names := make([]string, 0, len(units))
	for name := range units {
		names = append(names, name)
	}
	sort.Strings(names)

	seenAt := e.now()
	entries := make([]domain.ServiceEntry, len(names))
	for i, name := range names {
		entries[i] = e.newEntry(name, units[name], listeners, seenAt)
	}

	if err := e.detectProtocols(ctx, entries); err != nil {
		return nil, summary, err
	}

	for i := range entries {
		Classify(&entries[i])
	}

	summary.DiscoveredServices = len(entries)
	finished := e.now()
	summary.LastFinishedAt = &finished
	if len(scanErrs) > 0 {
		msg := errors.Join(scanErrs...).Error()
		summary.LastError = &msg
	}

	e.logger.Debug("discovery scan complete",
		logger.Int("units", summary.ScannedUnits),
		logger.Int("active", summary.ActiveUnits),
		logger.Int("ports", summary.MatchedPorts),
		logger.Duration("took", finished.Sub(started)))

	return entries, summary, nil
}

func (e *Engine) newEntry(unit string, status domain.Status, listeners map[string][]uint16, seenAt time.Time) domain.ServiceEntry {
	name := strings.TrimSpace(unit)
	entry := domain.ServiceEntry{
		ID:           domain.ServiceID(name),
		ServiceName:  name,
		DisplayName:  domain.HumanizeServiceName(name),
		Host:         e.defaultHost,
		Protocol:     domain.ProtocolOther,
		Status:       status,
		Tags:         []string{},
		Source:       domain.SourceAuto,
		LockedFields: []string{},
		LastSeenAt:   &seenAt,
		UpdatedAt:    seenAt,
	}
	if port, ok := SelectPrimaryPort(portsForUnit(domain.UnitBaseName(name), listeners)); ok {
		entry.Port = domain.Ptr(port)
		entry.Protocol = domain.InferProtocolFromPort(entry.Port)
	}
	return entry
}

// detectProtocols probes every entry that has a port, at most maxProbes at a
// time, and waits for all of them.
func (e *Engine) detectProtocols(ctx context.Context, entries []domain.ServiceEntry) error {
	if e.detector == nil {
		return nil
	}

	var sem *semaphore.Weighted
	if e.maxProbes > 0 {
		sem = semaphore.NewWeighted(int64(e.maxProbes))
	}

	var wg sync.WaitGroup
	var acquireErr error
	for i := range entries {
		if entries[i].Port == nil {
			continue
		}
		if sem != nil {
			if err := sem.Acquire(ctx, 1); err != nil {
				acquireErr = err
				break
			}
		}
		wg.Add(1)
		go func(entry *domain.ServiceEntry) {
			defer wg.Done()
			if sem != nil {
				defer sem.Release(1)
			}
			entry.Protocol = e.detector.Detect(ctx, entry.Host, *entry.Port)
		}(&entries[i])
	}
	wg.Wait()

	return acquireErr
}
