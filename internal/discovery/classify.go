package discovery

import (
	"slices"
	"strings"

	"github.com/MrSnakeDoc/homenav/internal/domain"
)

const (
	GroupSystem     = "System"
	GroupMedia      = "Media"
	GroupDownloads  = "Downloads"
	GroupSync       = "Sync"
	GroupPhotos     = "Photos"
	GroupMonitoring = "Monitoring"
	GroupOther      = "Other"
)

type groupRule struct {
	keywords []string
	group    string
	icon     string
}

// Evaluated in order, first match wins.
var groupRules = []groupRule{
	{[]string{"syncthing"}, GroupSync, "🔄"},
	{[]string{"immich"}, GroupPhotos, "📷"},
	{[]string{"aria2", "ariang", "qbittorrent", "transmission"}, GroupDownloads, "⬇️"},
	{[]string{"jellyfin", "plex", "emby"}, GroupMedia, "🎬"},
	{[]string{"grafana", "prometheus", "loki"}, GroupMonitoring, "📈"},
	{[]string{"nginx", "caddy", "traefik"}, GroupSystem, "🌐"},
}

// Classify assigns group, default icon and visibility to a discovered entry.
//
// Portless units are plumbing: they land in System (unless a group is already
// set) and are hidden. An entry that already carries a group is made visible
// and left alone. Otherwise the unit name is matched against groupRules and
// only System entries stay hidden.
func Classify(e *domain.ServiceEntry) {
	if e.Port == nil {
		if e.Group == nil {
			e.Group = domain.Ptr(GroupSystem)
		}
		e.Hidden = true
		return
	}

	if e.Group != nil {
		e.Hidden = false
		return
	}

	unit := domain.UnitBaseName(e.ServiceName)
	group := GroupOther
	for _, rule := range groupRules {
		if slices.ContainsFunc(rule.keywords, func(k string) bool { return strings.Contains(unit, k) }) {
			group = rule.group
			if e.Icon == nil {
				e.Icon = domain.Ptr(rule.icon)
			}
			break
		}
	}
	e.Group = domain.Ptr(group)
	e.Hidden = group == GroupSystem
}
