package discovery

import (
	"context"
	"fmt"
	"strings"

	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// ProcNetScanner reads the kernel socket table through gopsutil instead of
// shelling out to ss. It needs the same privileges as `ss -p` to resolve
// socket owners; unresolved owners are reported as UnknownProcess.
type ProcNetScanner struct{}

func (ProcNetScanner) ListeningPorts(ctx context.Context) (map[string][]uint16, error) {
	conns, err := gnet.ConnectionsWithContext(ctx, "tcp")
	if err != nil {
		return nil, fmt.Errorf("failed to read socket table: %w", err)
	}

	names := make(map[int32]string)
	listeners := make(map[string][]uint16)
	for _, c := range conns {
		if c.Status != "LISTEN" || c.Laddr.Port == 0 || c.Laddr.Port > 65535 {
			continue
		}
		name, ok := names[c.Pid]
		if !ok {
			name = processName(ctx, c.Pid)
			names[c.Pid] = name
		}
		listeners[name] = append(listeners[name], uint16(c.Laddr.Port))
	}
	return normalizeListeners(listeners), nil
}

func processName(ctx context.Context, pid int32) string {
	if pid <= 0 {
		return UnknownProcess
	}
	proc, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return UnknownProcess
	}
	name, err := proc.NameWithContext(ctx)
	if err != nil || name == "" {
		return UnknownProcess
	}
	return strings.ToLower(name)
}
