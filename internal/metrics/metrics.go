package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// EmergenciesCreatedTotal counts emergencies accepted at intake
	EmergenciesCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_emergencies_created_total",
			Help: "Total number of emergencies created",
		},
		[]string{"type", "severity"},
	)

	// UnitsReservedTotal counts successful unit reservations
	UnitsReservedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_units_reserved_total",
			Help: "Total number of successful unit reservations",
		},
		[]string{"department", "unit_type"},
	)

	// ReservationConflictsTotal counts reservation attempts lost to a
	// concurrent dispatch
	ReservationConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_reservation_conflicts_total",
			Help: "Total number of reservation attempts lost to a concurrent dispatch",
		},
	)

	// AssignmentsDeferredTotal counts required unit types left pending
	// because the candidate pool was exhausted
	AssignmentsDeferredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_assignments_deferred_total",
			Help: "Total number of required unit types deferred for lack of available units",
		},
		[]string{"unit_type"},
	)

	// TransitionsRejectedTotal counts lifecycle transitions rejected by the
	// state machine
	TransitionsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_transitions_rejected_total",
			Help: "Total number of rejected emergency status transitions",
		},
		[]string{"from", "to"},
	)

	// AssignmentDuration measures the latency of one assignment engine run
	AssignmentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_assignment_duration_seconds",
			Help:    "Assignment engine run duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ResponseTimeSeconds observes the recorded response time of emergencies
	ResponseTimeSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_response_time_seconds",
			Help:    "Elapsed time between emergency creation and first unit reservation",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)
)

// Init registers the dispatch Prometheus collectors
func Init() {
	prometheus.MustRegister(EmergenciesCreatedTotal)
	prometheus.MustRegister(UnitsReservedTotal)
	prometheus.MustRegister(ReservationConflictsTotal)
	prometheus.MustRegister(AssignmentsDeferredTotal)
	prometheus.MustRegister(TransitionsRejectedTotal)
	prometheus.MustRegister(AssignmentDuration)
	prometheus.MustRegister(ResponseTimeSeconds)
}

// Handler returns the HTTP handler for the Prometheus scrape endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}
