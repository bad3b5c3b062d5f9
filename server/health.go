package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostStats is a snapshot of machine load reported by /health.
type HostStats struct {
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryPercent float64 `json:"memory_percent"`
}

func readHostStats() HostStats {
	var stats HostStats
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		stats.CPUPercent = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats.MemoryPercent = vm.UsedPercent
	}
	return stats
}

type statusResponse struct {
	Status  string     `json:"status"`
	Uptime  float64    `json:"uptime_seconds"`
	Version string     `json:"version,omitempty"`
	Host    *HostStats `json:"host,omitempty"`
}

// Version is reported by the status endpoints.
var Version = "dev"

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(statusResponse{
		Status:  "running",
		Uptime:  time.Since(s.started).Seconds(),
		Version: Version,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	host := s.host()
	return c.JSON(statusResponse{
		Status:  "ok",
		Uptime:  time.Since(s.started).Seconds(),
		Version: Version,
		Host:    &host,
	})
}
