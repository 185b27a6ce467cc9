package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

const unitSuffix = ".service"

// Lockable field names. They match the JSON keys of ServiceEntry.
const (
	FieldServiceName = "service_name"
	FieldDisplayName = "display_name"
	FieldHost        = "host"
	FieldPort        = "port"
	FieldProtocol    = "protocol"
	FieldPath        = "path"
	FieldURL         = "url"
	FieldStatus      = "status"
	FieldGroup       = "group"
	FieldTags        = "tags"
	FieldIcon        = "icon"
	FieldDescription = "description"
	FieldHidden      = "hidden"
	FieldFavorite    = "favorite"
)

// DefaultLockedFields is the lock set of a manually created entry: every
// user-editable field.
func DefaultLockedFields() []string {
	return NormalizeLockedFields([]string{
		FieldDisplayName, FieldHost, FieldPort, FieldProtocol, FieldPath, FieldURL,
		FieldGroup, FieldTags, FieldIcon, FieldDescription, FieldHidden, FieldFavorite,
	})
}

// NormalizeLockedFields trims names, drops empties, sorts and dedups.
// The input is never modified.
func NormalizeLockedFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// ServiceID slugs a service name: lowercase, every run of characters outside
// [a-z0-9] becomes a single '-', leading and trailing '-' are trimmed.
func ServiceID(name string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// HumanizeServiceName turns "immich-machine-learning.service" into
// "Immich Machine Learning".
func HumanizeServiceName(name string) string {
	base := strings.TrimSuffix(name, unitSuffix)
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// UnitBaseName is the lowercased unit name without the .service suffix, the
// key used to associate units with listening processes.
func UnitBaseName(unit string) string {
	return strings.ToLower(strings.TrimSuffix(unit, unitSuffix))
}

// InferProtocolFromPort guesses a protocol from well-known ports.
func InferProtocolFromPort(port *uint16) Protocol {
	if port == nil {
		return ProtocolOther
	}
	switch *port {
	case 443, 8443:
		return ProtocolHTTPS
	case 80, 3000, 5000, 8080, 8096, 9000:
		return ProtocolHTTP
	default:
		return ProtocolTCP
	}
}

// BuildServiceURL renders scheme://host:port[/path] for web protocols with a
// port. Anything else has no URL.
func BuildServiceURL(protocol Protocol, host string, port *uint16, path *string) (string, bool) {
	if !protocol.IsWeb() || port == nil {
		return "", false
	}
	suffix := ""
	if path != nil && *path != "" {
		suffix = *path
		if !strings.HasPrefix(suffix, "/") {
			suffix = "/" + suffix
		}
	}
	return fmt.Sprintf("%s://%s:%d%s", protocol, host, *port, suffix), true
}

// CleanOptional trims s and maps blank values to nil.
func CleanOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
