package mw

import (
	"net/http"

	"github.com/MrSnakeDoc/homenav/internal/logger"
	"github.com/MrSnakeDoc/homenav/internal/utils"
)

// AllowOnlyCIDRS admits only clients whose address matches one of the
// allowed IPs/CIDRs. An empty list disables the check. trustProxy selects
// X-Forwarded-For over RemoteAddr.
func AllowOnlyCIDRS(allowed []string, trustProxy bool, log logger.Logger) func(http.Handler) http.Handler {
	m := utils.NewIPMatcher(allowed)
	if m.IsEmpty() {
		return func(next http.Handler) http.Handler { return next }
	}

	log.Debugf("AllowOnlyCIDRS: %d rules, trustProxy=%v", len(allowed), trustProxy)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := utils.ClientIP(r, trustProxy)
			if !m.Allow(ip) {
				log.Warn("request rejected by CIDR allow-list",
					logger.String("ip", ip),
					logger.String("method", r.Method),
					logger.String("path", r.URL.Path))
				deny(w, http.StatusForbidden, "client address not allowed")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
