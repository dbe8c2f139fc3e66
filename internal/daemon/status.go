package daemon

import (
	"time"

	"github.com/harun/agentq/pkg/commandqueue"
)

// Status is a point-in-time view of the daemon
type Status struct {
	Running       bool               `json:"running"`
	StartTime     time.Time          `json:"start_time,omitempty"`
	Uptime        time.Duration      `json:"uptime"`
	Queue         commandqueue.Stats `json:"queue"`
	AgentsSpawned int                `json:"agents_spawned"`
	RegistrySize  int                `json:"registry_size"`
	Schedules     int                `json:"schedules"`
}

// MetricsAddr returns the metrics listener address, empty when disabled
func (d *Daemon) MetricsAddr() string {
	if d.metricsServer == nil {
		return ""
	}
	return d.metricsServer.Addr()
}
