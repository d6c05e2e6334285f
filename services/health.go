package services

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"teatrade-scraper/models"
	"teatrade-scraper/utils"
)

// SystemSampler reports current CPU and memory usage in percent.
type SystemSampler func(ctx context.Context) (cpuPercent, memPercent float64, err error)

// SampleSystem is the gopsutil-backed SystemSampler.
func SampleSystem(ctx context.Context) (float64, float64, error) {
	usage, err := cpu.PercentWithContext(ctx, 200*time.Millisecond, false)
	if err != nil {
		return 0, 0, err
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	var cpuPct float64
	if len(usage) > 0 {
		cpuPct = usage[0]
	}
	return cpuPct, vm.UsedPercent, nil
}

// HealthMonitor snapshots host usage at the end of a run.
type HealthMonitor struct {
	logger *utils.Logger
	sample SystemSampler
	now    func() time.Time
}

// NewHealthMonitor creates a HealthMonitor. Nil arguments select the defaults.
func NewHealthMonitor(logger *utils.Logger, sample SystemSampler, now func() time.Time) *HealthMonitor {
	if sample == nil {
		sample = SampleSystem
	}
	if now == nil {
		now = time.Now
	}
	return &HealthMonitor{logger: logger, sample: sample, now: now}
}

// Capture records run counters together with host usage. A source fails when its
// adapter errored or panicked, or when none of its results succeeded. A failed sample
// leaves the usage fields at zero.
func (h *HealthMonitor) Capture(ctx context.Context, report *RunReport) *models.SystemHealth {
	health := &models.SystemHealth{
		RunID:           report.RunID,
		CapturedAt:      h.now(),
		DurationSeconds: report.Duration.Seconds(),
	}
	for _, s := range report.Sources {
		if s.Err != "" || (s.Failed > 0 && s.OK == 0) {
			health.SourcesFailed++
		} else {
			health.SourcesOK++
		}
		health.ResultsOK += s.OK
		health.ResultsFailed += s.Failed
	}

	cpuPct, memPct, err := h.sample(ctx)
	if err != nil {
		h.logger.Warn("[health] Could not sample system usage: %v", err)
	} else {
		health.CPUPercent, health.MemoryPercent = cpuPct, memPct
	}
	return health
}

// QualityLog summarises a run's result success rate and contract violations.
func QualityLog(report *RunReport, at time.Time, violations []string) *models.DataQualityLog {
	total := report.TotalOK() + report.TotalFailed()
	log := &models.DataQualityLog{
		RunID:            report.RunID,
		LoggedAt:         at,
		TotalRecords:     total,
		ValidationErrors: violations,
	}
	if total > 0 {
		log.SuccessRate = float64(report.TotalOK()) / float64(total) * 100
	}
	if log.ValidationErrors == nil {
		log.ValidationErrors = []string{}
	}
	return log
}
