// Package metrics collects per-stage run counters on a process-private
// prometheus registry. The pipeline has no scrape surface, so gathered
// values are emitted through the run logger when a stage completes.
package metrics

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the counters one stage run updates.
type Registry struct {
	reg *prometheus.Registry

	RecordsGenerated  prometheus.Counter
	DuplicatesDropped prometheus.Counter
	ValuesImputed     prometheus.Counter
	RowsWritten       prometheus.Counter
	RunSeconds        prometheus.Gauge
}

// NewRegistry builds a registry labelled with the stage name.
func NewRegistry(stage string) *Registry {
	reg := prometheus.NewRegistry()
	labels := prometheus.Labels{"stage": stage}

	generated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_records_generated_total", ConstLabels: labels,
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_duplicates_dropped_total", ConstLabels: labels,
	})
	imputed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_values_imputed_total", ConstLabels: labels,
	})
	written := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "etl_rows_written_total", ConstLabels: labels,
	})
	runSeconds := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "etl_run_duration_seconds", ConstLabels: labels,
	})

	reg.MustRegister(generated, dropped, imputed, written, runSeconds)
	return &Registry{
		reg:               reg,
		RecordsGenerated:  generated,
		DuplicatesDropped: dropped,
		ValuesImputed:     imputed,
		RowsWritten:       written,
		RunSeconds:        runSeconds,
	}
}

// Log gathers the registry and emits one record per metric with a
// non-zero or gauge value.
func (r *Registry) Log(log *slog.Logger) {
	families, err := r.reg.Gather()
	if err != nil {
		log.Warn("gathering run metrics", slog.String("err", err.Error()))
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			log.Info("run metric", slog.String("name", mf.GetName()), slog.Float64("value", v))
		}
	}
}
