package discovery

import (
	"slices"
	"sort"
	"strings"
)

// Well-known web ports, most preferred first.
var primaryPortPriority = []uint16{443, 80, 8443, 8080, 3000, 8096, 9000}

// SelectPrimaryPort picks the port a service is most likely reached on:
// the first priority port present, otherwise the lowest port.
func SelectPrimaryPort(ports []uint16) (uint16, bool) {
	if len(ports) == 0 {
		return 0, false
	}
	for _, p := range primaryPortPriority {
		if slices.Contains(ports, p) {
			return p, true
		}
	}
	return slices.Min(ports), true
}

// portsForUnit returns the ports of the first listening process (in sorted
// key order) whose name contains the unit base name or is contained in it.
func portsForUnit(base string, listeners map[string][]uint16) []uint16 {
	if base == "" {
		return nil
	}
	processes := make([]string, 0, len(listeners))
	for p := range listeners {
		processes = append(processes, p)
	}
	sort.Strings(processes)

	for _, process := range processes {
		if process == "" {
			continue
		}
		if strings.Contains(process, base) || strings.Contains(base, process) {
			return listeners[process]
		}
	}
	return nil
}

func countPorts(listeners map[string][]uint16) int {
	n := 0
	for _, ports := range listeners {
		n += len(ports)
	}
	return n
}
