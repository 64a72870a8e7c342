// Package listen provides the listen signal: whether a TCP port is in
// a listening state on the local host.
package listen

import (
	"fmt"

	gnet "github.com/shirou/gopsutil/v3/net"

	"github.com/kagawa-dx/bosaictl/internal/signal"
)

// Name is the signal subcommand name.
const Name = "listen"

// GetDescription returns the signal description.
func GetDescription() signal.Description {
	return signal.Description{
		Name:        Name,
		Description: "Check whether a TCP port is in a listening state",
		Version:     "1.0.0",
		Subcommand:  Name,
		Arguments: signal.Arguments{
			Required: map[string]signal.ArgumentSpec{
				"port": {
					Type:        "number",
					Description: "TCP port to look for",
				},
			},
		},
	}
}

// Run executes the signal with the given arguments.
func Run(port int) *signal.Result {
	if port <= 0 || port > 65535 {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("invalid port %d", port),
		}
	}

	conns, err := gnet.Connections("tcp")
	if err != nil {
		return &signal.Result{
			Status:  signal.StatusUnknown,
			Message: fmt.Sprintf("failed to enumerate sockets: %v", err),
		}
	}

	return evaluate(conns, port)
}

func evaluate(conns []gnet.ConnectionStat, port int) *signal.Result {
	var addrs []string
	var pid int32
	for _, c := range conns {
		if c.Status != "LISTEN" || int(c.Laddr.Port) != port {
			continue
		}
		addrs = append(addrs, fmt.Sprintf("%s:%d", c.Laddr.IP, c.Laddr.Port))
		if c.Pid > 0 {
			pid = c.Pid
		}
	}

	if len(addrs) == 0 {
		return &signal.Result{
			Status:  signal.StatusCritical,
			Message: fmt.Sprintf("nothing is listening on port %d", port),
			Data:    map[string]any{"port": port},
		}
	}

	result := &signal.Result{
		Status:  signal.StatusOK,
		Message: fmt.Sprintf("port %d is listening on %s", port, addrs[0]),
		Metrics: map[string]any{
			"listeners": len(addrs),
		},
		Data: map[string]any{
			"port":      port,
			"addresses": addrs,
		},
	}
	if pid > 0 {
		result.Metrics["pid"] = pid
	}
	return result
}
