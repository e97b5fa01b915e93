package partition

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records recursive bisection progress.
type Metrics struct {
	Splits         prometheus.Counter
	Leaves         prometheus.Counter
	DegradedSplits prometheus.Counter
	CutEdges       prometheus.Histogram
	Imbalance      prometheus.Histogram
	LeafSize       prometheus.Histogram
}

// NewMetrics creates the partition metrics and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Splits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "partition",
			Name:      "splits_total",
			Help:      "Views split into two halves.",
		}),
		Leaves: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "partition",
			Name:      "leaves_total",
			Help:      "Views that became leaf cells.",
		}),
		DegradedSplits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "partition",
			Name:      "degraded_splits_total",
			Help:      "Splits that could not meet the balance tolerance.",
		}),
		CutEdges: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "partition",
			Name:      "cut_edges",
			Help:      "Directed edges cut per split.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}),
		Imbalance: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "partition",
			Name:      "imbalance_ratio",
			Help:      "Relative deviation from an even split.",
			Buckets:   []float64{0, 0.01, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5},
		}),
		LeafSize: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "partition",
			Name:      "leaf_size_nodes",
			Help:      "Nodes per leaf cell.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 20),
		}),
	}
}

func (m *Metrics) observeSplit(b *Bisection) {
	if m == nil {
		return
	}
	m.Splits.Inc()
	if b.Degraded {
		m.DegradedSplits.Inc()
	}
	m.CutEdges.Observe(float64(b.CutEdges))
	m.Imbalance.Observe(b.Imbalance)
}

func (m *Metrics) observeLeaf(size int) {
	if m == nil {
		return
	}
	m.Leaves.Inc()
	m.LeafSize.Observe(float64(size))
}
