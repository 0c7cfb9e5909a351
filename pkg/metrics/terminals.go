package metrics

import "github.com/prometheus/client_golang/prometheus"

// TerminalMetrics tracks open terminal sessions.
type TerminalMetrics struct {
	active  prometheus.Gauge
	expired prometheus.Counter
}

func NewTerminalMetrics(reg prometheus.Registerer) *TerminalMetrics {
	if reg == nil {
		return &TerminalMetrics{}
	}
	active := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pos_terminal_sessions_active",
		Help: "Currently open terminal sessions.",
	})
	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pos_terminal_sessions_expired_total",
		Help: "Terminal sessions closed by the idle sweep.",
	})
	reg.MustRegister(active, expired)
	return &TerminalMetrics{active: active, expired: expired}
}

func (m *TerminalMetrics) SetActive(n int) {
	if m == nil || m.active == nil {
		return
	}
	m.active.Set(float64(n))
}

func (m *TerminalMetrics) AddExpired(n int) {
	if m == nil || m.expired == nil || n <= 0 {
		return
	}
	m.expired.Add(float64(n))
}
