package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/homenav/internal/catalog"
	"github.com/MrSnakeDoc/homenav/internal/logger"
)

// Pinger reports whether an optional backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger    logger.Logger
	StartTime time.Time
	Version   string
	Commit    string
	BuildDate string
	GoVersion string
	TimeNow   func() time.Time // for testing, defaults to time.Now

	Catalog          *catalog.Service // authoritative catalog
	Mirror           Pinger           // Redis mirror, nil when disabled
	TriggerDiscovery func() bool      // queues an async discovery run, false if one is pending

	AllowedHosts []string // Host headers allowed to reach the API
	AllowedCIDRS []string // IPs allowed to mutate the catalog
	TrustProxy   bool     // true if running behind a trusted reverse proxy

	RequestTimeout      time.Duration // per-request deadline for ordinary API calls
	DiscoveryTimeout    time.Duration // deadline of a synchronous discovery run
	DiscoveryRateBurst  int
	DiscoveryRatePerMin int
}

// Now returns the current time through TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
