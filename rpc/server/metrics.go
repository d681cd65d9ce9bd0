package server

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/VictoriaMetrics/metrics"
)

// Metrics holds the counters of one server instance. It implements transport.IMetrics.
// All methods are safe to call on a nil *Metrics
type Metrics struct {
	set *metrics.Set

	accepted       *metrics.Counter
	rejected       *metrics.Counter
	disconnected   *metrics.Counter
	protocolErrors *metrics.Counter
	framesIn       *metrics.Counter
	framesOut      *metrics.Counter
	broadcasts     *metrics.Counter
	commands       *metrics.Counter
	commandErrors  *metrics.Counter

	occupied atomic.Int64
}

// NewMetrics creates the metric set for the instance with the given name
func NewMetrics(instance string) *Metrics {
	m := &Metrics{set: metrics.NewSet()}

	name := func(metric string) string {
		return fmt.Sprintf(`dreact_%s{instance=%q}`, metric, instance)
	}

	m.accepted = m.set.NewCounter(name("connections_accepted_total"))
	m.rejected = m.set.NewCounter(name("connections_rejected_total"))
	m.disconnected = m.set.NewCounter(name("connections_closed_total"))
	m.protocolErrors = m.set.NewCounter(name("protocol_errors_total"))
	m.framesIn = m.set.NewCounter(name("frames_received_total"))
	m.framesOut = m.set.NewCounter(name("frames_sent_total"))
	m.broadcasts = m.set.NewCounter(name("broadcasts_total"))
	m.commands = m.set.NewCounter(name("commands_total"))
	m.commandErrors = m.set.NewCounter(name("command_errors_total"))
	m.set.NewGauge(name("slots_occupied"), func() float64 {
		return float64(m.occupied.Load())
	})

	return m
}

// WritePrometheus writes all metrics of the instance in Prometheus text format
func (m *Metrics) WritePrometheus(w io.Writer) {
	if m == nil {
		return
	}
	m.set.WritePrometheus(w)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IMetrics)
// --------------------------------------------------------------------------

func (m *Metrics) Accepted() {
	if m != nil {
		m.accepted.Inc()
	}
}

func (m *Metrics) Rejected() {
	if m != nil {
		m.rejected.Inc()
	}
}

func (m *Metrics) Disconnected() {
	if m != nil {
		m.disconnected.Inc()
	}
}

func (m *Metrics) ProtocolError() {
	if m != nil {
		m.protocolErrors.Inc()
	}
}

func (m *Metrics) FrameIn() {
	if m != nil {
		m.framesIn.Inc()
	}
}

func (m *Metrics) FrameOut() {
	if m != nil {
		m.framesOut.Inc()
	}
}

func (m *Metrics) SetOccupied(n int) {
	if m != nil {
		m.occupied.Store(int64(n))
	}
}

// --------------------------------------------------------------------------
// Adapter counters
// --------------------------------------------------------------------------

// Broadcast counts one chat message fanned out to all clients
func (m *Metrics) Broadcast() {
	if m != nil {
		m.broadcasts.Inc()
	}
}

// Command counts one executed command; failed reports whether it ended with an error frame
func (m *Metrics) Command(failed bool) {
	if m == nil {
		return
	}
	m.commands.Inc()
	if failed {
		m.commandErrors.Inc()
	}
}
