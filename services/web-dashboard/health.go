package main

import (
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// HealthStats je odpověď /health: stav procesu dashboardu a stránky.
type HealthStats struct {
	Status string `json:"status"`

	// RSS (Resident Set Size): skutečná fyzická RAM procesu.
	RSSMB      float64 `json:"rss_mb"`
	CPUPercent float64 `json:"cpu_percent"`
	// Host: Total - Available, stejně jako system-monitor (bez diskové cache).
	HostRAMUsedMB  float64 `json:"host_ram_used_mb"`
	HostRAMTotalMB float64 `json:"host_ram_total_mb"`
	Goroutines     int     `json:"goroutines"`

	Sensors       int       `json:"sensors"`
	Charts        int       `json:"charts"`
	Notifications int       `json:"notifications"`
	CatalogLoaded time.Time `json:"catalog_loaded"`
}

// CollectHealth sebere statistiky. Chyby gopsutil nejsou fatální: hodnota zůstane 0.
func CollectHealth(d *Dashboard) HealthStats {
	stats := HealthStats{
		Status:        "ok",
		Goroutines:    runtime.NumGoroutine(),
		Sensors:       len(d.Catalog().Sensors()),
		Charts:        len(d.Charts().IDs()),
		Notifications: d.Queue().Len(),
		CatalogLoaded: d.Catalog().LoadedAt(),
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mi, err := p.MemoryInfo(); err == nil {
			stats.RSSMB = float64(mi.RSS) / 1024.0 / 1024.0
		}
		// CPUPercent = průměr od startu procesu, neblokuje jako cpu.Percent(interval).
		if c, err := p.CPUPercent(); err == nil {
			stats.CPUPercent = c
		}
	}
	if vMem, err := mem.VirtualMemory(); err == nil {
		stats.HostRAMUsedMB = float64(vMem.Total-vMem.Available) / 1024.0 / 1024.0
		stats.HostRAMTotalMB = float64(vMem.Total) / 1024.0 / 1024.0
	}

	// Katalog, který se ještě nikdy nenačetl, znamená, že API od startu neodpovídá.
	if stats.CatalogLoaded.IsZero() {
		stats.Status = "degraded"
	}
	return stats
}
