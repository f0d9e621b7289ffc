// Package metrics exports formatter reports as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/alnah/go-chatfmt"
)

const namespace = "chatfmt"

// Recorder counts formatter reports. It implements chatfmt.Observer.
type Recorder struct {
	responses    prometheus.Counter
	neutralized  *prometheus.CounterVec
	fences       prometheus.Counter
	droppedRunes prometheus.Counter
	tagsClosed   prometheus.Counter
	codeBlocks   prometheus.Counter
	duration     prometheus.Histogram
}

var _ chatfmt.Observer = (*Recorder)(nil)

// NewRecorder creates a Recorder and registers its collectors on reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		responses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_total",
			Help:      "Responses formatted.",
		}),
		neutralized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_neutralized_total",
			Help:      "Responses replaced by a neutral notice, by triggering element.",
		}, []string{"element"}),
		fences: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fences_repaired_total",
			Help:      "Responses whose last code fence was closed.",
		}),
		droppedRunes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runes_dropped_total",
			Help:      "Characters removed by the charset filter.",
		}),
		tagsClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tags_closed_total",
			Help:      "Unclosed block tags closed before parsing.",
		}),
		codeBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "code_blocks_total",
			Help:      "Code blocks rendered.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "format_duration_seconds",
			Help:      "Time spent formatting one response.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	for _, c := range []prometheus.Collector{
		r.responses, r.neutralized, r.fences, r.droppedRunes, r.tagsClosed, r.codeBlocks, r.duration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveFormat records one report.
func (r *Recorder) ObserveFormat(rep chatfmt.Report) {
	r.responses.Inc()
	if rep.Neutralized {
		r.neutralized.WithLabelValues(rep.NeutralizedBy).Inc()
	}
	if rep.FenceRepaired {
		r.fences.Inc()
	}
	r.droppedRunes.Add(float64(rep.DroppedRunes))
	r.tagsClosed.Add(float64(rep.TagsClosed))
	r.codeBlocks.Add(float64(rep.CodeBlocks))
	r.duration.Observe(rep.Duration.Seconds())
}
