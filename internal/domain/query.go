package domain

import (
	"strconv"
	"strings"
)

// Filter selects catalog entries for listing.
type Filter struct {
	Query         string  // case-insensitive substring, blank matches all
	Group         string  // exact match, blank matches all
	Status        *Status // nil matches all
	IncludeHidden bool
}

func (f Filter) Match(e ServiceEntry) bool {
	if !f.IncludeHidden && e.Hidden {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	if f.Group != "" && (e.Group == nil || *e.Group != f.Group) {
		return false
	}
	q := strings.ToLower(strings.TrimSpace(f.Query))
	if q == "" {
		return true
	}
	for _, hay := range searchable(e) {
		if strings.Contains(strings.ToLower(hay), q) {
			return true
		}
	}
	return false
}

// searchable lists the fields q is matched against.
func searchable(e ServiceEntry) []string {
	out := make([]string, 0, 4+len(e.Tags))
	out = append(out, e.DisplayName, e.ServiceName)
	if e.Group != nil {
		out = append(out, *e.Group)
	}
	if e.Port != nil {
		out = append(out, strconv.Itoa(int(*e.Port)))
	}
	return append(out, e.Tags...)
}
