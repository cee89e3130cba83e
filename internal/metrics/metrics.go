// Package metrics exposes the service's prometheus counters.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	profilesCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "calorie_budget",
			Name:      "profiles_completed_total",
			Help:      "Count of onboarding wizards completed into a profile.",
		},
	)

	profilesRebuilt = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "calorie_budget",
			Name:      "profiles_rebuilt_total",
			Help:      "Count of profile snapshots rebuilt after a biometric change.",
		},
	)

	entriesLogged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calorie_budget",
			Name:      "entries_logged_total",
			Help:      "Count of food entries logged by meal type.",
		},
		[]string{"meal_type"},
	)

	entriesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "calorie_budget",
			Name:      "entries_deleted_total",
			Help:      "Count of food entries removed.",
		},
	)

	durableWriteFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calorie_budget",
			Name:      "durable_write_failures_total",
			Help:      "Count of durable store writes that failed and were swallowed.",
		},
		[]string{"operation"},
	)

	recognitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "calorie_budget",
			Name:      "recognitions_total",
			Help:      "Count of food recognition attempts by outcome.",
		},
		[]string{"outcome"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(profilesCompleted, profilesRebuilt, entriesLogged,
			entriesDeleted, durableWriteFailures, recognitions)
	})
}

func IncProfileCompleted() {
	profilesCompleted.Inc()
}

func IncProfileRebuilt() {
	profilesRebuilt.Inc()
}

func IncEntryLogged(mealType string) {
	entriesLogged.WithLabelValues(mealType).Inc()
}

func IncEntryDeleted() {
	entriesDeleted.Inc()
}

func IncDurableWriteFailure(operation string) {
	durableWriteFailures.WithLabelValues(operation).Inc()
}

func IncRecognition(outcome string) {
	recognitions.WithLabelValues(outcome).Inc()
}
