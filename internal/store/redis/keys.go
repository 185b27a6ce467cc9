package redis

import "strings"

const (
	// KeyPrefixService prefixes one JSON-encoded catalog entry per id.
	KeyPrefixService = "homenav:service:"
	// KeyAllServices is the set of mirrored service ids.
	KeyAllServices = "homenav:services:all"
	// KeyDiscoveryStatus holds the last discovery summary.
	KeyDiscoveryStatus = "homenav:discovery:status"
)

func ServiceKey(id string) string {
	return KeyPrefixService + id
}

// ServiceIDFromKey is the inverse of ServiceKey.
func ServiceIDFromKey(key string) (string, bool) {
	id, ok := strings.CutPrefix(key, KeyPrefixService)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
