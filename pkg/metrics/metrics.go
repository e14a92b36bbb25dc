// Package metrics provides Prometheus observability metrics for the
// presence and assignment engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// CyclesTotal counts driver cycles by driver name and result.
var CyclesTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wardsync",
	Name:      "cycles_total",
	Help:      "Driver cycles executed, by driver and result (ok, error, skipped)",
}, []string{"driver", "result"})

// AssignmentsTotal counts room bindings issued by the auto-assignment driver.
var AssignmentsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wardsync",
	Name:      "assignments_total",
	Help:      "Auto-assignment bindings attempted, by outcome (assigned, skipped, failed)",
}, []string{"outcome"})

// SubstitutionsActive tracks break substitutions currently in effect.
var SubstitutionsActive = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "wardsync",
	Name:      "substitutions_active",
	Help:      "Break substitutions currently covering a room",
})

// UncoveredBreaksTotal counts break entries where no substitute was found.
var UncoveredBreaksTotal = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "wardsync",
	Name:      "uncovered_breaks_total",
	Help:      "Break entries that left a room uncovered because no substitute was available",
})

// ResetExecutionsTotal counts daily reset outcomes.
var ResetExecutionsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wardsync",
	Name:      "reset_executions_total",
	Help:      "Daily reset attempts, by result (executed, skipped, error)",
}, []string{"result"})

// TransportMode reports the live sync source per station: 1 push, 0 poll.
var TransportMode = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "wardsync",
	Name:      "transport_push_active",
	Help:      "Whether the push channel is active for a station (1) or the poll fallback is in use (0)",
}, []string{"station"})

// ReconnectsTotal counts forced push channel reconnects.
var ReconnectsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "wardsync",
	Name:      "transport_reconnects_total",
	Help:      "Push channel reconnects, by cause (heartbeat, stream_error)",
}, []string{"cause"})

// SnapshotsPublished counts presence snapshots delivered to observers.
var SnapshotsPublished = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "wardsync",
	Name:      "snapshots_published_total",
	Help:      "Presence snapshots published to UI observers",
})
