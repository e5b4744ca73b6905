// Package serverinfo snapshots host resource usage for the broker's
// diagnostics endpoint, the way an operator inspecting a running variable
// server would want to see memory/CPU pressure alongside the variable
// count and blocked-client gauge.
package serverinfo

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is one point-in-time resource reading.
type Snapshot struct {
	Timestamp      time.Time
	CPUPercent     float64
	MemUsedBytes   uint64
	MemTotalBytes  uint64
	MemUsedPercent float64
}

// Collect samples host CPU/memory over a short window. ctx bounds the CPU
// sample, which otherwise blocks for its full interval.
func Collect(ctx context.Context, sampleWindow time.Duration) (Snapshot, error) {
	percents, err := cpu.PercentWithContext(ctx, sampleWindow, false)
	if err != nil {
		return Snapshot{}, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	var cpuPct float64
	if len(percents) > 0 {
		cpuPct = percents[0]
	}
	return Snapshot{
		Timestamp:      time.Now(),
		CPUPercent:     cpuPct,
		MemUsedBytes:   vm.Used,
		MemTotalBytes:  vm.Total,
		MemUsedPercent: vm.UsedPercent,
	}, nil
}
