package domain

import (
	"slices"
	"strings"
	"time"
)

// CreateRequest is the payload of a manual service creation.
type CreateRequest struct {
	ServiceName  string    `json:"service_name"`
	DisplayName  *string   `json:"display_name,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Host         *string   `json:"host,omitempty"`
	Port         *uint16   `json:"port,omitempty"`
	Protocol     *Protocol `json:"protocol,omitempty"`
	Path         *string   `json:"path,omitempty"`
	URL          *string   `json:"url,omitempty"`
	Group        *string   `json:"group,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
	Icon         *string   `json:"icon,omitempty"`
	Hidden       *bool     `json:"hidden,omitempty"`
	Favorite     *bool     `json:"favorite,omitempty"`
	LockedFields []string  `json:"locked_fields,omitempty"`
}

func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.ServiceName) == "" {
		return &ValidationError{Field: FieldServiceName, Message: "service_name is required"}
	}
	return nil
}

// NewManualEntry builds a manual entry from r. The caller resolves id
// collisions against the catalog.
func NewManualEntry(r CreateRequest, defaultHost string, now time.Time) (ServiceEntry, error) {
	if err := r.Validate(); err != nil {
		return ServiceEntry{}, err
	}
	name := strings.TrimSpace(r.ServiceName)

	display := HumanizeServiceName(name)
	if v := CleanOptional(r.DisplayName); v != nil {
		display = *v
	}
	if display == "" {
		display = name
	}

	host := defaultHost
	if v := CleanOptional(r.Host); v != nil {
		host = *v
	}

	protocol := InferProtocolFromPort(r.Port)
	if r.Protocol != nil {
		protocol = *r.Protocol
	}

	locked := DefaultLockedFields()
	if r.LockedFields != nil {
		locked = NormalizeLockedFields(r.LockedFields)
	}

	id := ServiceID(name)
	if id == "" {
		id = "service"
	}

	return ServiceEntry{
		ID:           id,
		ServiceName:  name,
		DisplayName:  display,
		Description:  CleanOptional(r.Description),
		Host:         host,
		Port:         clonePtr(r.Port),
		Protocol:     protocol,
		Path:         CleanOptional(r.Path),
		URL:          CleanOptional(r.URL),
		Status:       StatusUnknown,
		Group:        CleanOptional(r.Group),
		Tags:         cleanTags(r.Tags),
		Icon:         CleanOptional(r.Icon),
		Hidden:       r.Hidden != nil && *r.Hidden,
		Favorite:     r.Favorite != nil && *r.Favorite,
		Source:       SourceManual,
		LockedFields: locked,
		UpdatedAt:    now,
	}, nil
}

// UpdateRequest is a partial update. Nullable fields use Optional so that an
// explicit null clears the value while an absent key leaves it alone.
type UpdateRequest struct {
	DisplayName  *string          `json:"display_name,omitempty"`
	Description  Optional[string] `json:"description"`
	Host         *string          `json:"host,omitempty"`
	Port         Optional[uint16] `json:"port"`
	Protocol     *Protocol        `json:"protocol,omitempty"`
	Path         Optional[string] `json:"path"`
	URL          Optional[string] `json:"url"`
	Status       *Status          `json:"status,omitempty"`
	Group        Optional[string] `json:"group"`
	Tags         *[]string        `json:"tags,omitempty"`
	Icon         Optional[string] `json:"icon"`
	Hidden       *bool            `json:"hidden,omitempty"`
	Favorite     *bool            `json:"favorite,omitempty"`
	LockedFields *[]string        `json:"locked_fields,omitempty"`
	AutoLock     *bool            `json:"auto_lock,omitempty"`
}

func (r UpdateRequest) Validate() error {
	if r.DisplayName != nil && strings.TrimSpace(*r.DisplayName) == "" {
		return &ValidationError{Field: FieldDisplayName, Message: "display_name must not be empty"}
	}
	if r.Host != nil && strings.TrimSpace(*r.Host) == "" {
		return &ValidationError{Field: FieldHost, Message: "host must not be empty"}
	}
	return nil
}

// ApplyUpdate returns cur with r applied. Fields whose value actually
// changed are locked unless AutoLock is false. Status edits are applied but
// never locked, so discovery keeps reporting liveness. An explicit
// LockedFields replaces the lock set wholesale.
func ApplyUpdate(cur ServiceEntry, r UpdateRequest, now time.Time) (ServiceEntry, error) {
	if err := r.Validate(); err != nil {
		return cur, err
	}

	next := cur.Clone()
	var changed []string
	mark := func(field string) { changed = append(changed, field) }

	if r.DisplayName != nil {
		if v := strings.TrimSpace(*r.DisplayName); v != next.DisplayName {
			next.DisplayName = v
			mark(FieldDisplayName)
		}
	}
	if r.Host != nil {
		if v := strings.TrimSpace(*r.Host); v != next.Host {
			next.Host = v
			mark(FieldHost)
		}
	}
	if r.Protocol != nil && *r.Protocol != next.Protocol {
		next.Protocol = *r.Protocol
		mark(FieldProtocol)
	}
	if r.Port.Set {
		if v := r.Port.Ptr(); !ptrEqual(v, next.Port) {
			next.Port = v
			mark(FieldPort)
		}
	}
	applyText := func(field string, dst **string, o Optional[string]) {
		if !o.Set {
			return
		}
		if v := CleanOptional(o.Ptr()); !ptrEqual(v, *dst) {
			*dst = v
			mark(field)
		}
	}
	applyText(FieldDescription, &next.Description, r.Description)
	applyText(FieldPath, &next.Path, r.Path)
	applyText(FieldURL, &next.URL, r.URL)
	applyText(FieldGroup, &next.Group, r.Group)
	applyText(FieldIcon, &next.Icon, r.Icon)

	if r.Tags != nil {
		if v := cleanTags(*r.Tags); !slices.Equal(v, next.Tags) {
			next.Tags = v
			mark(FieldTags)
		}
	}
	if r.Hidden != nil && *r.Hidden != next.Hidden {
		next.Hidden = *r.Hidden
		mark(FieldHidden)
	}
	if r.Favorite != nil && *r.Favorite != next.Favorite {
		next.Favorite = *r.Favorite
		mark(FieldFavorite)
	}
	if r.Status != nil {
		next.Status = *r.Status
	}

	switch {
	case r.LockedFields != nil:
		next.LockedFields = NormalizeLockedFields(*r.LockedFields)
	case r.AutoLock == nil || *r.AutoLock:
		next.LockedFields = NormalizeLockedFields(append(slices.Clone(next.LockedFields), changed...))
	}

	next.UpdatedAt = now
	if now.Before(cur.UpdatedAt) {
		next.UpdatedAt = cur.UpdatedAt
	}
	return next, nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
