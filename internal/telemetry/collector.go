// Package telemetry samples host status and the process table.
package telemetry

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/hostdash/hostdash/internal/audit"
	"github.com/hostdash/hostdash/pkg/errclass"
	"github.com/hostdash/hostdash/pkg/logging"
	"github.com/hostdash/hostdash/pkg/model"
)

const (
	cpuSampleInterval   = 250 * time.Millisecond
	DefaultProcessLimit = 50
)

// Options configures a Collector.
type Options struct {
	Pinger Pinger
	// PowerSupplyDir defaults to /sys/class/power_supply.
	PowerSupplyDir string
	Logger         *logging.Logger
	// Trail records terminated processes.
	Trail audit.Trail
}

// Collector gathers StatusReports. Sections that fail are left empty and
// logged at debug level; a status report is still returned.
type Collector struct {
	pinger   Pinger
	powerDir string
	log      *logging.Logger
	trail    audit.Trail
}

// NewCollector creates a Collector.
func NewCollector(opts Options) *Collector {
	if opts.PowerSupplyDir == "" {
		opts.PowerSupplyDir = defaultPowerSupplyDir
	}
	if opts.Logger == nil {
		opts.Logger = logging.Global()
	}
	if opts.Trail == nil {
		opts.Trail = audit.Discard
	}
	return &Collector{
		pinger:   opts.Pinger,
		powerDir: opts.PowerSupplyDir,
		log:      opts.Logger.WithFields(map[string]any{"component": "telemetry"}),
		trail:    opts.Trail,
	}
}

// Probe checks that host information can be read at all.
func (c *Collector) Probe(ctx context.Context) error {
	_, err := host.InfoWithContext(ctx)
	return err
}

// Status samples the host. It blocks for a short CPU sampling interval.
func (c *Collector) Status(ctx context.Context) (model.StatusReport, error) {
	if err := ctx.Err(); err != nil {
		return model.StatusReport{}, err
	}
	rep := model.StatusReport{CollectedAt: time.Now().UTC()}

	if hi, err := host.InfoWithContext(ctx); err == nil {
		rep.Host = model.HostInfo{
			Hostname:      hi.Hostname,
			OS:            hi.OS,
			Platform:      strings.TrimSpace(hi.Platform + " " + hi.PlatformVersion),
			KernelVersion: hi.KernelVersion,
			UptimeSeconds: hi.Uptime,
		}
	} else {
		c.skip("host", err)
	}

	rep.CPU = c.cpuStatus(ctx)

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		rep.Memory = model.MemoryStatus{Total: vm.Total, Used: vm.Used, UsedPercent: vm.UsedPercent}
	} else {
		c.skip("memory", err)
	}

	rep.Disks = c.disks(ctx)

	if counters, err := net.IOCountersWithContext(ctx, false); err == nil && len(counters) > 0 {
		rep.Network = model.NetworkStatus{BytesSent: counters[0].BytesSent, BytesRecv: counters[0].BytesRecv}
	} else if err != nil {
		c.skip("network", err)
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		rep.Load = []float64{avg.Load1, avg.Load5, avg.Load15}
	} else {
		c.skip("load", err)
	}

	if bat, err := readBattery(c.powerDir); err == nil {
		rep.Battery = bat
	}

	if c.pinger != nil {
		if d, err := c.pinger.Ping(ctx); err == nil {
			ms := d.Milliseconds()
			rep.PingMillis = &ms
			rep.Internet = true
		} else {
			c.skip("ping", err)
		}
	}

	if err := ctx.Err(); err != nil {
		return model.StatusReport{}, err
	}
	return rep, nil
}

func (c *Collector) cpuStatus(ctx context.Context) model.CPUStatus {
	var st model.CPUStatus
	if n, err := cpu.CountsWithContext(ctx, true); err == nil {
		st.Cores = n
	}
	if infos, err := cpu.InfoWithContext(ctx); err == nil && len(infos) > 0 {
		st.Model = infos[0].ModelName
	}
	perCore, err := cpu.PercentWithContext(ctx, cpuSampleInterval, true)
	if err != nil {
		c.skip("cpu", err)
		return st
	}
	st.PerCore = perCore
	if len(perCore) > 0 {
		var sum float64
		for _, p := range perCore {
			sum += p
		}
		st.Percent = sum / float64(len(perCore))
	}
	return st
}

func (c *Collector) disks(ctx context.Context) []model.DiskUsage {
	parts, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		c.skip("disk", err)
		return nil
	}
	out := make([]model.DiskUsage, 0, len(parts))
	seen := make(map[string]bool)
	for _, p := range parts {
		if strings.Contains(p.Device, "loop") || p.Fstype == "squashfs" || seen[p.Mountpoint] {
			continue
		}
		u, err := disk.UsageWithContext(ctx, p.Mountpoint)
		if err != nil || u.Total == 0 {
			continue
		}
		seen[p.Mountpoint] = true
		out = append(out, model.DiskUsage{
			Mountpoint:  p.Mountpoint,
			Fstype:      p.Fstype,
			Total:       u.Total,
			Used:        u.Used,
			Free:        u.Free,
			UsedPercent: u.UsedPercent,
		})
	}
	return out
}

// Processes lists running processes sorted by memory share, highest first.
// limit <= 0 selects DefaultProcessLimit.
func (c *Collector) Processes(ctx context.Context, limit int) ([]model.ProcessInfo, error) {
	if limit <= 0 {
		limit = DefaultProcessLimit
	}
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, errclass.ErrIO.Wrap(err)
	}

	out := make([]model.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		user, _ := p.UsernameWithContext(ctx)
		cpuPct, _ := p.CPUPercentWithContext(ctx)
		memPct, _ := p.MemoryPercentWithContext(ctx)
		threads, _ := p.NumThreadsWithContext(ctx)
		out = append(out, model.ProcessInfo{
			PID:           p.Pid,
			Name:          name,
			Username:      user,
			CPUPercent:    cpuPct,
			MemoryPercent: float64(memPct),
			NumThreads:    threads,
		})
	}
	sortByMemory(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Terminate sends SIGTERM (TerminateProcess on Windows) to pid. A pid with
// no running process yields ErrNotFound; the server's own pid is refused.
func (c *Collector) Terminate(ctx context.Context, pid int32) error {
	if pid <= 0 {
		return errclass.ErrInvalidArgument.WithMessagef("invalid pid %d", pid)
	}
	if int(pid) == os.Getpid() {
		return errclass.ErrInvalidArgument.WithMessage("refusing to terminate the dashboard itself")
	}
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		if errors.Is(err, process.ErrorProcessNotRunning) {
			return errclass.ErrNotFound.WithMessagef("no process with pid %d", pid)
		}
		return errclass.ErrIO.Wrap(err)
	}
	name, _ := p.NameWithContext(ctx)
	if err := p.TerminateWithContext(ctx); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			return errclass.ErrNotFound.WithMessagef("no process with pid %d", pid)
		}
		return errclass.ErrIO.Wrap(err)
	}

	c.log.Info("process terminated", map[string]any{"pid": pid, "name": name})
	if err := c.trail.Append(model.EventTypeProcessKill, "", map[string]any{"pid": pid, "name": name}); err != nil {
		c.log.ErrorErr("audit append failed", err, map[string]any{"event": string(model.EventTypeProcessKill)})
	}
	return nil
}

func sortByMemory(ps []model.ProcessInfo) {
	sort.SliceStable(ps, func(i, j int) bool {
		if ps[i].MemoryPercent != ps[j].MemoryPercent {
			return ps[i].MemoryPercent > ps[j].MemoryPercent
		}
		return ps[i].PID < ps[j].PID
	})
}

func (c *Collector) skip(section string, err error) {
	c.log.Debug("telemetry section unavailable", map[string]any{"section": section, "error": err.Error()})
}
