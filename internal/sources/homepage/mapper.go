package homepage

import (
	"errors"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/homenav/internal/discovery"
	"github.com/MrSnakeDoc/homenav/internal/domain"
)

// ErrNoServices is returned when a services file holds nothing importable.
var ErrNoServices = errors.New("no valid services found in homepage config")

// ToRequests maps every Homepage service with a usable href to a manual
// creation request. Services without an http(s) href are skipped.
func ToRequests(config ServicesConfig) ([]domain.CreateRequest, error) {
	var reqs []domain.CreateRequest

	for _, groupMap := range config {
		for _, groupName := range sortedKeys(groupMap) {
			for _, serviceMap := range groupMap[groupName] {
				for _, name := range sortedKeys(serviceMap) {
					req, ok := toRequest(groupName, name, serviceMap[name])
					if ok {
						reqs = append(reqs, req)
					}
				}
			}
		}
	}

	if len(reqs) == 0 {
		return nil, ErrNoServices
	}
	return reqs, nil
}

func toRequest(group, name string, props ServiceProps) (domain.CreateRequest, bool) {
	name = strings.TrimSpace(name)
	href := strings.TrimSpace(props.Href)
	if name == "" || href == "" {
		return domain.CreateRequest{}, false
	}

	u, err := url.Parse(href)
	if err != nil || u.Hostname() == "" {
		return domain.CreateRequest{}, false
	}

	var protocol domain.Protocol
	switch strings.ToLower(u.Scheme) {
	case "http":
		protocol = domain.ProtocolHTTP
	case "https":
		protocol = domain.ProtocolHTTPS
	default:
		return domain.CreateRequest{}, false
	}

	req := domain.CreateRequest{
		ServiceName: name,
		DisplayName: domain.Ptr(name),
		Host:        domain.Ptr(u.Hostname()),
		Protocol:    &protocol,
		URL:         domain.Ptr(href),
		Tags:        []string{"homepage"},
	}
	if port, ok := hrefPort(u, protocol); ok {
		req.Port = &port
	}
	if g := strings.TrimSpace(group); g != "" {
		req.Group = domain.Ptr(g)
	}
	if d := strings.TrimSpace(props.Description); d != "" {
		req.Description = domain.Ptr(d)
	}
	if i := strings.TrimSpace(props.Icon); i != "" {
		req.Icon = domain.Ptr(i)
	}
	return req, true
}

func hrefPort(u *url.URL, protocol domain.Protocol) (uint16, bool) {
	if p := u.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil || n == 0 {
			return 0, false
		}
		return uint16(n), true
	}
	if protocol == domain.ProtocolHTTPS {
		return 443, true
	}
	return 80, true
}

// FromEntries builds a services.yaml document from the visible catalog
// entries that resolve to a URL. Groups and the services inside them are
// sorted by name; entries without a group land in "Other".
func FromEntries(entries []domain.ServiceEntry) ServicesConfig {
	type named struct {
		name  string
		props ServiceProps
	}
	byGroup := make(map[string][]named)

	for i := range entries {
		e := &entries[i]
		if e.Hidden {
			continue
		}
		href, ok := e.ResolvedURL()
		if !ok {
			continue
		}
		group := discovery.GroupOther
		if e.Group != nil && strings.TrimSpace(*e.Group) != "" {
			group = *e.Group
		}
		props := ServiceProps{Href: href}
		if e.Description != nil {
			props.Description = *e.Description
		}
		if e.Icon != nil {
			props.Icon = *e.Icon
		}
		byGroup[group] = append(byGroup[group], named{name: e.DisplayName, props: props})
	}

	config := make(ServicesConfig, 0, len(byGroup))
	for _, group := range sortedKeys(byGroup) {
		list := byGroup[group]
		sort.SliceStable(list, func(a, b int) bool { return list[a].name < list[b].name })
		services := make([]map[string]ServiceProps, 0, len(list))
		for _, n := range list {
			services = append(services, map[string]ServiceProps{n.name: n.props})
		}
		config = append(config, map[string][]map[string]ServiceProps{group: services})
	}
	return config
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
