// Package observability — metrics.go
//
// Prometheus metrics for the cognitive kernel.
//
// Endpoint: GET /metrics on 127.0.0.1:9091 (configurable).
// Format: Prometheus text exposition format (OpenMetrics compatible).
// Bind: loopback only — no external exposure.
//
// Metric naming convention: cogkernel_<subsystem>_<name>_<unit>
//
// All metrics are registered on a dedicated prometheus.Registry (not the
// default global registry) to avoid collisions with other instrumented
// libraries in the same process.
//
// Cardinality control:
//   - Domain/action labels use the kernel's own small closed vocabularies
//     (complexity level, decision action, final phase, claim grade).
//   - TraceID is NOT used as a label (unbounded cardinality).
package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metric descriptors for the kernel.
type Metrics struct {
	registry *prometheus.Registry

	// ─── Gate-In ──────────────────────────────────────────────────────────

	// TracesStartedTotal counts traces that entered Gate-In.
	// Labels: complexity (TRIVIAL, SIMPLE, MODERATE, COMPLEX, CRITICAL)
	TracesStartedTotal *prometheus.CounterVec

	// CapabilityGapsTotal counts self-model capability gaps detected.
	// Labels: severity_band (none, partial, blocking)
	CapabilityGapsTotal *prometheus.CounterVec

	// ─── Execute ──────────────────────────────────────────────────────────

	// CyclesPerTraceHistogram records how many OODA cycles a trace ran.
	CyclesPerTraceHistogram prometheus.Histogram

	// DecisionsTotal counts every OODA/Cognitive Load Monitor decision.
	// Labels: action (CONTINUE, REPLAN, PARK, TERMINATE, ESCALATE, SIMPLIFY)
	DecisionsTotal *prometheus.CounterVec

	// DecisionLedgerViolationsTotal counts decisions rejected by the
	// decision ledger's monotonicity/shape checks.
	DecisionLedgerViolationsTotal prometheus.Counter

	// EnergyExhaustedTotal counts traces terminated by energy exhaustion.
	EnergyExhaustedTotal prometheus.Counter

	// ─── Gate-Out ─────────────────────────────────────────────────────────

	// ClaimGradesTotal counts claims graded by the Hallucination Monitor.
	// Labels: grade (GROUNDED, INFERRED, FABRICATED)
	ClaimGradesTotal *prometheus.CounterVec

	// GroundingScoreHistogram records the distribution of per-trace
	// grounding scores.
	GroundingScoreHistogram prometheus.Histogram

	// OverconfidenceTotal counts outputs the Confidence Calibrator flagged
	// as overconfident or underconfident.
	// Labels: direction (over, under)
	OverconfidenceTotal *prometheus.CounterVec

	// NoiseGateOutcomesTotal counts Noise Gate pass/reject outcomes.
	// Labels: outcome (accepted, rejected_retryable, rejected_terminal)
	NoiseGateOutcomesTotal *prometheus.CounterVec

	// ─── Trace outcome ────────────────────────────────────────────────────

	// FinalPhaseTotal counts traces by their terminal ObserverResult phase.
	// Labels: phase (GATE_OUT, ESCALATED, ABORTED, or EXECUTE for a trace
	// that parked mid-execution)
	FinalPhaseTotal *prometheus.CounterVec

	// TraceDurationHistogram records total wall-clock time per trace.
	TraceDurationHistogram prometheus.Histogram

	// ─── Storage ──────────────────────────────────────────────────────────

	// StorageWriteLatency records BoltDB write transaction latency.
	StorageWriteLatency prometheus.Histogram

	// ─── Kernel ───────────────────────────────────────────────────────────

	// UptimeSeconds is the number of seconds since the kernel started.
	UptimeSeconds prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates and registers all kernel Prometheus metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		TracesStartedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "gate_in",
			Name:      "traces_started_total",
			Help:      "Total traces that entered Gate-In, by routed complexity level.",
		}, []string{"complexity"}),

		CapabilityGapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "gate_in",
			Name:      "capability_gaps_total",
			Help:      "Total self-model capability gaps detected, by severity band.",
		}, []string{"severity_band"}),

		CyclesPerTraceHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cogkernel",
			Subsystem: "execute",
			Name:      "cycles_per_trace",
			Help:      "Distribution of OODA cycle counts per trace.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),

		DecisionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "execute",
			Name:      "decisions_total",
			Help:      "Total OODA and Cognitive Load Monitor decisions, by action.",
		}, []string{"action"}),

		DecisionLedgerViolationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "execute",
			Name:      "decision_ledger_violations_total",
			Help:      "Total decisions rejected by the decision ledger's integrity checks.",
		}),

		EnergyExhaustedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "execute",
			Name:      "energy_exhausted_total",
			Help:      "Total traces terminated by energy budget exhaustion.",
		}),

		ClaimGradesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "gate_out",
			Name:      "claim_grades_total",
			Help:      "Total claims graded by the Hallucination Monitor, by grade.",
		}, []string{"grade"}),

		GroundingScoreHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cogkernel",
			Subsystem: "gate_out",
			Name:      "grounding_score",
			Help:      "Distribution of per-trace grounding scores.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}),

		OverconfidenceTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "gate_out",
			Name:      "confidence_miscalibration_total",
			Help:      "Total outputs flagged over- or under-confident by the Confidence Calibrator.",
		}, []string{"direction"}),

		NoiseGateOutcomesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "gate_out",
			Name:      "noise_gate_outcomes_total",
			Help:      "Total Noise Gate outcomes, by disposition.",
		}, []string{"outcome"}),

		FinalPhaseTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cogkernel",
			Subsystem: "trace",
			Name:      "final_phase_total",
			Help:      "Total traces by terminal phase.",
		}, []string{"phase"}),

		TraceDurationHistogram: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cogkernel",
			Subsystem: "trace",
			Name:      "duration_seconds",
			Help:      "Total wall-clock duration per trace, Gate-In through Gate-Out.",
			Buckets:   prometheus.DefBuckets,
		}),

		StorageWriteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cogkernel",
			Subsystem: "storage",
			Name:      "write_latency_seconds",
			Help:      "BoltDB write transaction latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),

		UptimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "cogkernel",
			Subsystem: "kernel",
			Name:      "uptime_seconds",
			Help:      "Number of seconds since the kernel started.",
		}),
	}

	reg.MustRegister(
		m.TracesStartedTotal,
		m.CapabilityGapsTotal,
		m.CyclesPerTraceHistogram,
		m.DecisionsTotal,
		m.DecisionLedgerViolationsTotal,
		m.EnergyExhaustedTotal,
		m.ClaimGradesTotal,
		m.GroundingScoreHistogram,
		m.OverconfidenceTotal,
		m.NoiseGateOutcomesTotal,
		m.FinalPhaseTotal,
		m.TraceDurationHistogram,
		m.StorageWriteLatency,
		m.UptimeSeconds,
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	return m
}

// Observe records one completed trace's outcome across the relevant
// metrics in a single call, so apex.Orchestrator doesn't need to know
// the metric surface's internal shape.
func (m *Metrics) Observe(complexity string, cycles int, decisionActions []string, finalPhase string, groundingScore float64, claimGrades []string, overconfident, underconfident bool, noiseGateOutcome string, duration time.Duration) {
	m.TracesStartedTotal.WithLabelValues(complexity).Inc()
	m.CyclesPerTraceHistogram.Observe(float64(cycles))
	for _, a := range decisionActions {
		m.DecisionsTotal.WithLabelValues(a).Inc()
	}
	m.FinalPhaseTotal.WithLabelValues(finalPhase).Inc()
	m.GroundingScoreHistogram.Observe(groundingScore)
	for _, g := range claimGrades {
		m.ClaimGradesTotal.WithLabelValues(g).Inc()
	}
	if overconfident {
		m.OverconfidenceTotal.WithLabelValues("over").Inc()
	}
	if underconfident {
		m.OverconfidenceTotal.WithLabelValues("under").Inc()
	}
	if noiseGateOutcome != "" {
		m.NoiseGateOutcomesTotal.WithLabelValues(noiseGateOutcome).Inc()
	}
	m.TraceDurationHistogram.Observe(duration.Seconds())
}

// ServeMetrics starts the Prometheus HTTP metrics server on the given
// address. Blocks until ctx is cancelled or the server fails.
func (m *Metrics) ServeMetrics(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go m.updateUptime(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}

func (m *Metrics) updateUptime(ctx context.Context) {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			m.UptimeSeconds.Set(time.Since(m.startTime).Seconds())
		case <-ctx.Done():
			return
		}
	}
}
