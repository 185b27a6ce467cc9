package domain

import "fmt"

type Protocol string

const (
	ProtocolHTTP  Protocol = "http"
	ProtocolHTTPS Protocol = "https"
	ProtocolTCP   Protocol = "tcp"
	ProtocolOther Protocol = "other"
)

func (p Protocol) Valid() bool {
	switch p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolTCP, ProtocolOther:
		return true
	}
	return false
}

// IsWeb reports whether the protocol can be addressed by a URL.
func (p Protocol) IsWeb() bool {
	return p == ProtocolHTTP || p == ProtocolHTTPS
}

func (p *Protocol) UnmarshalText(b []byte) error {
	v := Protocol(b)
	if !v.Valid() {
		return fmt.Errorf("unknown protocol %q", string(b))
	}
	*p = v
	return nil
}

type Status string

const (
	StatusRunning Status = "running"
	StatusStopped Status = "stopped"
	StatusUnknown Status = "unknown"
)

func (s Status) Valid() bool {
	switch s {
	case StatusRunning, StatusStopped, StatusUnknown:
		return true
	}
	return false
}

func (s *Status) UnmarshalText(b []byte) error {
	v := Status(b)
	if !v.Valid() {
		return fmt.Errorf("unknown status %q", string(b))
	}
	*s = v
	return nil
}

// ParseStatus parses a status name, as used by query strings.
func ParseStatus(raw string) (Status, error) {
	var s Status
	if err := s.UnmarshalText([]byte(raw)); err != nil {
		return "", err
	}
	return s, nil
}

type Source string

const (
	SourceAuto   Source = "auto"
	SourceManual Source = "manual"
	SourceMerged Source = "merged"
)

func (s Source) Valid() bool {
	switch s {
	case SourceAuto, SourceManual, SourceMerged:
		return true
	}
	return false
}

func (s *Source) UnmarshalText(b []byte) error {
	v := Source(b)
	if !v.Valid() {
		return fmt.Errorf("unknown source %q", string(b))
	}
	*s = v
	return nil
}
