package builtin

import (
	"encoding/json"
	"math"
	"time"

	"github.com/rtsyn/rtsyn/internal/pluginabi"
)

// PerformanceMonitorKind measures wall-clock period, latency, and jitter
// between successive Process calls, surfacing a realtime_violation flag
// when observed latency exceeds a configurable threshold. Grounded on
// the period/jitter statistics in the reference performance-monitor
// plugin: a rolling window of the last 10 observed periods, jitter as
// their population standard deviation, latency as the amount by which a
// period exceeds the declared workspace period.
const PerformanceMonitorKind = "performance_monitor"

const periodHistoryWindow = 10

type PerformanceMonitor struct {
	id uint64

	maxLatencyMicros   float64
	workspacePeriodMicros float64

	lastTrigger   time.Time
	haveLast      bool
	periodHistory []float64

	periodMicros    float64
	latencyMicros   float64
	jitterMicros    float64
	realtimeViolation float64
}

func NewPerformanceMonitor(id uint64) *PerformanceMonitor {
	return &PerformanceMonitor{
		id:                    id,
		maxLatencyMicros:      1000,
		workspacePeriodMicros: 1000,
		periodHistory:         make([]float64, 0, periodHistoryWindow),
	}
}

func (p *PerformanceMonitor) ID() uint64   { return p.id }
func (p *PerformanceMonitor) Kind() string { return PerformanceMonitorKind }
func (p *PerformanceMonitor) Meta() pluginabi.Meta {
	return pluginabi.Meta{
		DisplayName: "Performance Monitor",
		DefaultVariables: map[string]float64{
			"max_latency_us": p.maxLatencyMicros,
		},
	}
}

func (p *PerformanceMonitor) Inputs() []pluginabi.Port { return nil }

func (p *PerformanceMonitor) Outputs() []pluginabi.Port {
	return []pluginabi.Port{"period_us", "latency_us", "jitter_us", "realtime_violation"}
}

func (p *PerformanceMonitor) SetConfig(config map[string]any) error {
	if v, ok := config["max_latency_us"]; ok {
		if f, ok := toFloat(v); ok {
			p.maxLatencyMicros = f
		}
	}
	if v, ok := config["workspace_period_us"]; ok {
		if f, ok := toFloat(v); ok {
			p.workspacePeriodMicros = f
		}
	}
	return nil
}

func (p *PerformanceMonitor) SetInput(pluginabi.Port, float64) {}

func (p *PerformanceMonitor) Process(pluginabi.ProcessContext) error {
	now := time.Now()
	if p.haveLast {
		actualMicros := float64(now.Sub(p.lastTrigger).Microseconds())

		p.periodHistory = append(p.periodHistory, actualMicros)
		if len(p.periodHistory) > periodHistoryWindow {
			p.periodHistory = p.periodHistory[1:]
		}

		latency := 0.0
		if actualMicros > p.workspacePeriodMicros {
			latency = actualMicros - p.workspacePeriodMicros
		}

		jitter := 0.0
		if len(p.periodHistory) >= 2 {
			var sum float64
			for _, v := range p.periodHistory {
				sum += v
			}
			mean := sum / float64(len(p.periodHistory))
			var variance float64
			for _, v := range p.periodHistory {
				d := v - mean
				variance += d * d
			}
			variance /= float64(len(p.periodHistory))
			jitter = math.Sqrt(variance)
		}

		violation := 0.0
		if latency > p.maxLatencyMicros {
			violation = 1.0
		}

		p.periodMicros = actualMicros
		p.latencyMicros = latency
		p.jitterMicros = jitter
		p.realtimeViolation = violation
	}
	p.lastTrigger = now
	p.haveLast = true
	return nil
}

func (p *PerformanceMonitor) GetOutput(port pluginabi.Port) float64 {
	switch port {
	case "period_us":
		return pluginabi.Sanitize(p.periodMicros)
	case "latency_us":
		return pluginabi.Sanitize(p.latencyMicros)
	case "jitter_us":
		return pluginabi.Sanitize(p.jitterMicros)
	case "realtime_violation":
		return pluginabi.Sanitize(p.realtimeViolation)
	default:
		return 0
	}
}

func (p *PerformanceMonitor) Behavior() *pluginabi.Behavior { return nil }
func (p *PerformanceMonitor) UISchema() json.RawMessage     { return nil }
func (p *PerformanceMonitor) Close() error                  { return nil }
