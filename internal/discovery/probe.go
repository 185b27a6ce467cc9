package discovery

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/net/http2"

	"github.com/MrSnakeDoc/homenav/internal/domain"
)

const (
	DefaultProbeTimeout      = 3 * time.Second
	DefaultProbeMaxRedirects = 3
)

// ProtocolDetector decides how a listening port should be addressed.
// Detection never fails: anything inconclusive is tcp.
type ProtocolDetector interface {
	Detect(ctx context.Context, host string, port uint16) domain.Protocol
}

// HTTPProber probes https first, then http. Any HTTP response counts as a
// positive signal for the scheme under probe; so does any transport error
// that is not a refusal, a timeout, an unreachable host or a peer that does
// not speak TLS.
type HTTPProber struct {
	client  *http.Client
	timeout time.Duration
}

func NewHTTPProber(timeout time.Duration, maxRedirects int) (*HTTPProber, error) {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	if maxRedirects < 0 {
		maxRedirects = 0
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			return (&net.Dialer{
				Timeout:   timeout,
				KeepAlive: -1,
			}).DialContext(ctx, network, addr)
		},
		TLSHandshakeTimeout: timeout,
		TLSClientConfig: &tls.Config{
			// Self-hosted services mostly run self-signed certificates.
			InsecureSkipVerify: true, //nolint:gosec
		},
		DisableKeepAlives:     true,
		ResponseHeaderTimeout: timeout,
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("failed to enable http2 on probe transport: %w", err)
	}

	return &HTTPProber{
		timeout: timeout,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
	}, nil
}

func (p *HTTPProber) Detect(ctx context.Context, host string, port uint16) domain.Protocol {
	if p.probe(ctx, "https", host, port) {
		return domain.ProtocolHTTPS
	}
	if p.probe(ctx, "http", host, port) {
		return domain.ProtocolHTTP
	}
	return domain.ProtocolTCP
}

func (p *HTTPProber) probe(ctx context.Context, scheme, host string, port uint16) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	url := fmt.Sprintf("%s://%s/", scheme, net.JoinHostPort(host, strconv.Itoa(int(port))))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return !isNegativeProbeError(err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 100 && resp.StatusCode <= 599
}

// isNegativeProbeError reports errors that mean nothing answered on the port
// with the scheme under probe.
func isNegativeProbeError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.ENETUNREACH) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	// A plain-text peer answering a TLS client hello.
	if errors.Is(err, http.ErrSchemeMismatch) {
		return true
	}
	var recordErr tls.RecordHeaderError
	return errors.As(err, &recordErr)
}
