package triedb

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the optional Prometheus counters a CTrieDB reports
// operation counts through. A nil *Metrics (the default) is
// a no-op: instrumentation is opt-in via WithMetrics, never a package-level
// init() registration, so embedding CTrieDB in a process with its own
// registry never causes a duplicate-registration panic.
type Metrics struct {
	gets    prometheus.Counter
	inserts prometheus.Counter
	removes prometheus.Counter
	misses  prometheus.Counter
}

// NewMetrics builds a Metrics instance registered against reg.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	m := &Metrics{
		gets: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "triedb", Name: "gets_total",
			Help: "Number of Get calls.",
		}),
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "triedb", Name: "inserts_total",
			Help: "Number of Insert calls.",
		}),
		removes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "triedb", Name: "removes_total",
			Help: "Number of Remove calls.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "triedb", Name: "get_misses_total",
			Help: "Number of Get calls for an absent key.",
		}),
	}
	reg.MustRegister(m.gets, m.inserts, m.removes, m.misses)
	return m
}

func (m *Metrics) observeGet(miss bool) {
	if m == nil {
		return
	}
	m.gets.Inc()
	if miss {
		m.misses.Inc()
	}
}

func (m *Metrics) observeInsert() {
	if m == nil {
		return
	}
	m.inserts.Inc()
}

func (m *Metrics) observeRemove() {
	if m == nil {
		return
	}
	m.removes.Inc()
}
