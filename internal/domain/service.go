package domain

import (
	"encoding/json"
	"slices"
	"time"
)

// ServiceEntry is one catalog record: a service observed on the host or
// added by hand. The JSON form is both the on-disk and the wire format.
//
// Entries are never hard-deleted by discovery. A service that disappears
// from the host is kept with Status reset to unknown.
type ServiceEntry struct {
	// ─────────────────────────────
	// Identity (immutable)
	// ─────────────────────────────

	// ID is the slug derived from ServiceName at creation time.
	ID string `json:"id"`

	// ServiceName is the raw unit name. Example: jellyfin.service
	ServiceName string `json:"service_name"`

	// ─────────────────────────────
	// Presentation (lockable)
	// ─────────────────────────────

	DisplayName string   `json:"display_name"`
	Description *string  `json:"description,omitempty"`
	Group       *string  `json:"group,omitempty"`
	Tags        []string `json:"tags"`
	Icon        *string  `json:"icon,omitempty"`
	Hidden      bool     `json:"hidden"`
	Favorite    bool     `json:"favorite"`

	// ─────────────────────────────
	// Addressing (lockable)
	// ─────────────────────────────

	Host     string   `json:"host"`
	Port     *uint16  `json:"port,omitempty"`
	Protocol Protocol `json:"protocol"`
	Path     *string  `json:"path,omitempty"`
	URL      *string  `json:"url,omitempty"`

	// ─────────────────────────────
	// Observation & provenance
	// ─────────────────────────────

	Status Status `json:"status"`
	Source Source `json:"source"`

	// LockedFields names fields that discovery must never overwrite.
	LockedFields []string `json:"locked_fields"`

	// LastSeenAt is the last time discovery observed the service.
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`

	// UpdatedAt is refreshed on every mutation.
	UpdatedAt time.Time `json:"updated_at"`
}

// UnmarshalJSON applies the documented defaults for absent fields:
// protocol other, status unknown, source merged and empty slices.
func (e *ServiceEntry) UnmarshalJSON(data []byte) error {
	type alias ServiceEntry
	a := alias{
		Protocol: ProtocolOther,
		Status:   StatusUnknown,
		Source:   SourceMerged,
	}
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = ServiceEntry(a)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if e.LockedFields == nil {
		e.LockedFields = []string{}
	}
	return nil
}

// IsLocked reports whether discovery must leave field untouched.
func (e *ServiceEntry) IsLocked(field string) bool {
	return slices.Contains(e.LockedFields, field)
}

// Lock adds field to the locked set, keeping it sorted.
func (e *ServiceEntry) Lock(field string) {
	if e.IsLocked(field) {
		return
	}
	e.LockedFields = NormalizeLockedFields(append(e.LockedFields, field))
}

// ResolvedURL returns the explicit URL when set, otherwise a URL built from
// protocol, host, port and path. Only http and https entries with a port
// resolve.
func (e *ServiceEntry) ResolvedURL() (string, bool) {
	if e.URL != nil && *e.URL != "" {
		return *e.URL, true
	}
	return BuildServiceURL(e.Protocol, e.Host, e.Port, e.Path)
}

// Clone returns a deep copy that shares no slices or pointers with e.
func (e ServiceEntry) Clone() ServiceEntry {
	out := e
	out.Description = clonePtr(e.Description)
	out.Group = clonePtr(e.Group)
	out.Icon = clonePtr(e.Icon)
	out.Port = clonePtr(e.Port)
	out.Path = clonePtr(e.Path)
	out.URL = clonePtr(e.URL)
	out.LastSeenAt = clonePtr(e.LastSeenAt)
	out.Tags = cloneStrings(e.Tags)
	out.LockedFields = cloneStrings(e.LockedFields)
	return out
}

// SameContent compares two entries ignoring the bookkeeping timestamps
// UpdatedAt and LastSeenAt.
func (e ServiceEntry) SameContent(o ServiceEntry) bool {
	return e.ID == o.ID &&
		e.ServiceName == o.ServiceName &&
		e.DisplayName == o.DisplayName &&
		ptrEqual(e.Description, o.Description) &&
		ptrEqual(e.Group, o.Group) &&
		slices.Equal(e.Tags, o.Tags) &&
		ptrEqual(e.Icon, o.Icon) &&
		e.Hidden == o.Hidden &&
		e.Favorite == o.Favorite &&
		e.Host == o.Host &&
		ptrEqual(e.Port, o.Port) &&
		e.Protocol == o.Protocol &&
		ptrEqual(e.Path, o.Path) &&
		ptrEqual(e.URL, o.URL) &&
		e.Status == o.Status &&
		e.Source == o.Source &&
		slices.Equal(e.LockedFields, o.LockedFields)
}

// CloneEntries deep-copies a slice of entries.
func CloneEntries(in []ServiceEntry) []ServiceEntry {
	out := make([]ServiceEntry, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return slices.Clone(in)
}
