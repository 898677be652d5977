package model

import "time"

// StatusReport is a point-in-time view of host telemetry.
type StatusReport struct {
	Host        HostInfo       `json:"host"`
	CPU         CPUStatus      `json:"cpu"`
	Memory      MemoryStatus   `json:"memory"`
	Disks       []DiskUsage    `json:"disks"`
	Network     NetworkStatus  `json:"network"`
	Load        []float64      `json:"load,omitempty"`
	Battery     *BatteryStatus `json:"battery"`
	Internet    bool           `json:"internet"`
	PingMillis  *int64         `json:"ping_ms"`
	CollectedAt time.Time      `json:"collected_at"`
}

type HostInfo struct {
	Hostname      string `json:"hostname"`
	OS            string `json:"os"`
	Platform      string `json:"platform"`
	KernelVersion string `json:"kernel_version"`
	UptimeSeconds uint64 `json:"uptime_seconds"`
}

type CPUStatus struct {
	Percent float64   `json:"percent"`
	PerCore []float64 `json:"per_core,omitempty"`
	Cores   int       `json:"cores"`
	Model   string    `json:"model,omitempty"`
}

type MemoryStatus struct {
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	UsedPercent float64 `json:"used_percent"`
}

type DiskUsage struct {
	Mountpoint  string  `json:"mountpoint"`
	Fstype      string  `json:"fstype"`
	Total       uint64  `json:"total"`
	Used        uint64  `json:"used"`
	Free        uint64  `json:"free"`
	UsedPercent float64 `json:"used_percent"`
}

type NetworkStatus struct {
	BytesSent uint64 `json:"bytes_sent"`
	BytesRecv uint64 `json:"bytes_recv"`
}

type BatteryStatus struct {
	Percent   float64 `json:"percent"`
	Status    string  `json:"status"`
	PluggedIn bool    `json:"plugged_in"`
}

// ProcessInfo describes one running process.
type ProcessInfo struct {
	PID           int32   `json:"pid"`
	Name          string  `json:"name"`
	Username      string  `json:"username"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
	NumThreads    int32   `json:"num_threads"`
}

// CapabilityReport is the outcome of probing one optional capability.
type CapabilityReport struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}
