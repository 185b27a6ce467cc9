package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

const (
	ScannerSS     = "ss"
	ScannerProcfs = "procfs"
)

type Config struct {
	Host            string        // bind address, ex: "0.0.0.0"
	Port            int           // ex: 8080
	ShutdownTimeout time.Duration // ex: 5s

	LogLevel  string // "debug" | "info" | "warn" | "error"
	PrettyLog bool   // true => zap dev (color), false => zap prod (JSON)

	DefaultHost string // host used for discovered and manual entries without one
	DataFile    string // path to the JSON catalog

	DiscoverOnStart   bool          // run discovery once before serving
	DiscoveryInterval time.Duration // periodic discovery (0 = disabled)
	ProbeTimeout      time.Duration // per-request timeout of the protocol probe
	ProbeMaxRedirects int           // redirects followed by the probe
	ProbeConcurrency  int           // max probes in flight
	CommandTimeout    time.Duration // timeout for systemctl / ss
	PortScanner       string        // "ss" | "procfs"

	HomepageImportFile string // optional services.yaml imported at startup

	// Redis mirror (optional, empty addr = disabled)
	RedisAddr           string        // ex: "localhost:6379"
	RedisUser           string        // optional
	RedisPassword       string        // optional
	RedisDB             int           // Redis DB number
	RedisDT             time.Duration // Redis dial timeout (ex: 5s)
	RedisRT             time.Duration // Redis read timeout (ex: 3s)
	RedisWT             time.Duration // Redis write timeout (ex: 3s)
	RedisMaxWait        time.Duration // max wait between retries (ex: 10s)
	RedisPingTimeout    time.Duration // timeout for each ping attempt (ex: 2s)
	RedisPoolSize       int           // Redis connection pool size
	RedisConnectTimeout time.Duration // total time to retry connecting (ex: 10s)
	RedisRetryInterval  time.Duration // initial wait between retries (grows exponentially)

	AllowedHosts []string // optional, restrict access to specific Host headers
	AllowedCIDRS []string // optional, restrict mutations to specific IPs/CIDRs
	TrustProxy   bool     // true => trust X-Forwarded-For headers

	DiscoveryRateBurst  int // manual discovery runs allowed back to back, per client
	DiscoveryRatePerMin int // refill rate of the manual discovery bucket
}

func Load() *Config {
	return &Config{
		// Server settings
		Host:            getenv("HOMENAV_HOST", "0.0.0.0"),
		Port:            getenvInt("HOMENAV_PORT", 8080),
		ShutdownTimeout: mustDuration("HOMENAV_SHUTDOWN_TIMEOUT", 5*time.Second),

		// Logging
		LogLevel:  getenv("HOMENAV_LOG_LEVEL", "info"),
		PrettyLog: mustBool("HOMENAV_PRETTY_LOG", false),

		// Catalog
		DefaultHost: getenv("HOMENAV_DEFAULT_HOST", "localhost"),
		DataFile:    getenv("HOMENAV_DATA_FILE", "data/services.json"),

		// Discovery
		DiscoverOnStart:   mustBool("HOMENAV_DISCOVER_ON_START", true),
		DiscoveryInterval: mustDuration("HOMENAV_DISCOVERY_INTERVAL", 0),
		ProbeTimeout:      mustDuration("HOMENAV_PROBE_TIMEOUT", 3*time.Second),
		ProbeMaxRedirects: getenvInt("HOMENAV_PROBE_MAX_REDIRECTS", 3),
		ProbeConcurrency:  getenvInt("HOMENAV_PROBE_CONCURRENCY", 16),
		CommandTimeout:    mustDuration("HOMENAV_COMMAND_TIMEOUT", 10*time.Second),
		PortScanner:       strings.ToLower(getenv("HOMENAV_PORT_SCANNER", ScannerSS)),

		HomepageImportFile: getenv("HOMENAV_HOMEPAGE_IMPORT_FILE", ""),

		// Redis settings
		RedisAddr:           getenv("HOMENAV_REDIS_ADDR", ""),
		RedisUser:           getenv("HOMENAV_REDIS_USERNAME", ""),
		RedisPassword:       getenv("HOMENAV_REDIS_PASSWORD", ""),
		RedisDB:             getenvInt("HOMENAV_REDIS_DB", 0),
		RedisDT:             mustDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		RedisRT:             mustDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		RedisWT:             mustDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		RedisMaxWait:        mustDuration("REDIS_MAX_WAIT", 5*time.Second),
		RedisPingTimeout:    mustDuration("REDIS_PING_TIMEOUT", 2*time.Second),
		RedisPoolSize:       getenvInt("REDIS_POOL_SIZE", 10),
		RedisConnectTimeout: mustDuration("REDIS_CONNECT_TIMEOUT", 10*time.Second),
		RedisRetryInterval:  mustDuration("REDIS_RETRY_INTERVAL", time.Second),

		// Access restrictions
		AllowedHosts: splitAndTrim(getenv("HOMENAV_ALLOWED_HOSTS", "")),
		AllowedCIDRS: parseAllowedIPs(getenv("HOMENAV_ALLOWED_CIDRS", "")),
		TrustProxy:   mustBool("HOMENAV_TRUST_PROXY", false),

		DiscoveryRateBurst:  getenvInt("HOMENAV_DISCOVERY_RATE_BURST", 3),
		DiscoveryRatePerMin: getenvInt("HOMENAV_DISCOVERY_RATE_PER_MIN", 6),
	}
}

// BindFlags registers command-line overrides on fs. Defaults are the values
// already loaded from the environment, so an explicit flag wins over env.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&c.Host, "host", c.Host, "address to bind")
	fs.IntVarP(&c.Port, "port", "p", c.Port, "port to listen on")
	fs.StringVar(&c.DefaultHost, "default-host", c.DefaultHost, "host used in service URLs")
	fs.StringVar(&c.DataFile, "data-file", c.DataFile, "path to the JSON catalog")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "debug, info, warn or error")
	fs.BoolVar(&c.PrettyLog, "pretty-log", c.PrettyLog, "human readable colored logs")
	fs.BoolVar(&c.DiscoverOnStart, "discover-on-start", c.DiscoverOnStart, "run discovery before serving")
	fs.DurationVar(&c.DiscoveryInterval, "discovery-interval", c.DiscoveryInterval, "periodic discovery interval (0 disables)")
	fs.StringVar(&c.PortScanner, "port-scanner", c.PortScanner, "listening port source: ss or procfs")
	fs.StringVar(&c.HomepageImportFile, "import-homepage", c.HomepageImportFile, "Homepage services.yaml to import at startup")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "Redis mirror address (empty disables the mirror)")
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MirrorEnabled reports whether the Redis mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.RedisAddr != ""
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Port < 1 || c.Port > 65535:
		return fmt.Errorf("invalid port %d", c.Port)
	case strings.TrimSpace(c.DataFile) == "":
		return fmt.Errorf("data file path is empty")
	case strings.TrimSpace(c.DefaultHost) == "":
		return fmt.Errorf("default host is empty")
	case c.PortScanner != ScannerSS && c.PortScanner != ScannerProcfs:
		return fmt.Errorf("unknown port scanner %q (want %q or %q)", c.PortScanner, ScannerSS, ScannerProcfs)
	case c.DiscoveryInterval < 0:
		return fmt.Errorf("discovery interval must be >= 0, got %v", c.DiscoveryInterval)
	case c.ProbeTimeout <= 0:
		return fmt.Errorf("probe timeout must be > 0, got %v", c.ProbeTimeout)
	case c.ProbeConcurrency < 1:
		return fmt.Errorf("probe concurrency must be >= 1, got %d", c.ProbeConcurrency)
	case c.ProbeMaxRedirects < 0:
		return fmt.Errorf("probe max redirects must be >= 0, got %d", c.ProbeMaxRedirects)
	case c.DiscoveryRateBurst < 1 || c.DiscoveryRatePerMin < 1:
		return fmt.Errorf("discovery rate limit must be >= 1")
	}
	return nil
}

// Redacted returns a copy safe to log.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.RedisPassword != "" {
		cp.RedisPassword = "***REDACTED***"
	}
	if cp.RedisUser != "" {
		cp.RedisUser = "***REDACTED***"
	}
	return cp
}

// helpers
func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func mustBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func mustDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func parseAllowedIPs(allowed string) []string {
	if allowed == "" {
		return nil
	}
	ips := make([]string, 0, 4)
	for _, ip := range splitAndTrim(allowed) {
		if ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}

func splitAndTrim(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	parts := make([]string, 0, len(raw))
	for _, part := range raw {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
