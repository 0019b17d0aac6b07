package registry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_registrations_total",
		Help: "Successful event registrations.",
	})
	cancellationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "registry_cancellations_total",
		Help: "Cancelled registrations.",
	})
	rejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "registry_registration_rejections_total",
		Help: "Registrations rejected by a business rule.",
	}, []string{"reason"})
)
