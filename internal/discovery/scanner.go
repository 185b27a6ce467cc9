package discovery

import (
	"context"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/homenav/internal/domain"
	"github.com/MrSnakeDoc/homenav/internal/hostexec"
)

// UnknownProcess keys listening sockets whose owner could not be resolved.
const UnknownProcess = "unknown"

// UnitLister enumerates systemd service units and their coarse status.
type UnitLister interface {
	ListUnits(ctx context.Context) (map[string]domain.Status, error)
}

// PortScanner maps lowercased process names to their listening TCP ports,
// sorted ascending and deduplicated.
type PortScanner interface {
	ListeningPorts(ctx context.Context) (map[string][]uint16, error)
}

// SystemctlLister lists units with systemctl.
type SystemctlLister struct {
	Runner hostexec.Runner
}

func (l SystemctlLister) ListUnits(ctx context.Context) (map[string]domain.Status, error) {
	out, err := l.Runner.Run(ctx, "systemctl", "list-units", "--type=service", "--all", "--no-legend", "--no-pager")
	if err != nil {
		if hostexec.IsExit(err) {
			return map[string]domain.Status{}, nil
		}
		return nil, err
	}
	return parseUnits(string(out)), nil
}

// SSScanner lists listening sockets with ss.
type SSScanner struct {
	Runner hostexec.Runner
}

func (s SSScanner) ListeningPorts(ctx context.Context) (map[string][]uint16, error) {
	out, err := s.Runner.Run(ctx, "ss", "-ltnp")
	if err != nil {
		if hostexec.IsExit(err) {
			return map[string][]uint16{}, nil
		}
		return nil, err
	}
	return parseListeners(string(out)), nil
}

// parseUnits reads `systemctl list-units --no-legend` output. Lines for
// failed units start with a "●" marker which is skipped.
func parseUnits(out string) map[string]domain.Status {
	units := make(map[string]domain.Status)
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && (fields[0] == "●" || fields[0] == "*") {
			fields = fields[1:]
		}
		if len(fields) == 0 || !strings.HasSuffix(fields[0], ".service") {
			continue
		}
		units[fields[0]] = unitStatus(" " + strings.Join(fields, " ") + " ")
	}
	return units
}

func unitStatus(padded string) domain.Status {
	switch {
	case strings.Contains(padded, " running "):
		return domain.StatusRunning
	case strings.Contains(padded, " exited "), strings.Contains(padded, " dead "):
		return domain.StatusStopped
	default:
		return domain.StatusUnknown
	}
}

var ssProcessRe = regexp.MustCompile(`users:\(\("([^"]+)"`)

// parseListeners reads `ss -ltnp` output. The header line is skipped, the
// port comes from the 4th column and the owner from the users:(("name" blob.
func parseListeners(out string) map[string][]uint16 {
	listeners := make(map[string][]uint16)
	for i, line := range strings.Split(out, "\n") {
		if i == 0 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			continue
		}
		local := fields[3]
		idx := strings.LastIndexByte(local, ':')
		if idx < 0 {
			continue
		}
		port, err := strconv.ParseUint(local[idx+1:], 10, 16)
		if err != nil {
			continue
		}

		process := UnknownProcess
		if m := ssProcessRe.FindStringSubmatch(line); m != nil {
			process = strings.ToLower(m[1])
		}
		listeners[process] = append(listeners[process], uint16(port))
	}
	return normalizeListeners(listeners)
}

func normalizeListeners(listeners map[string][]uint16) map[string][]uint16 {
	for process, ports := range listeners {
		slices.Sort(ports)
		listeners[process] = slices.Compact(ports)
	}
	return listeners
}
