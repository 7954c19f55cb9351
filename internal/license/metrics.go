package license

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	validationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ngc",
		Subsystem: "license",
		Name:      "validations_total",
		Help:      "License validation attempts by logged result.",
	}, []string{"result"})

	activationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ngc",
		Subsystem: "license",
		Name:      "activations_total",
		Help:      "License activation attempts by outcome.",
	}, []string{"outcome"})

	issuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "ngc",
		Subsystem: "license",
		Name:      "issued_total",
		Help:      "Licenses issued.",
	})
)
