package handlers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	studentsLoaded = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "student_api_students_loaded",
			Help: "Number of student records in the loaded table",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "student_api_cache_lookups_total",
			Help: "Response cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)
)
