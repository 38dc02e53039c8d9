package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var dmSent = promauto.NewCounter(prometheus.CounterOpts{
	Name: "connection_dm_sent_total",
	Help: "Number of direct messages stored",
})

var dmRejected = promauto.NewCounter(prometheus.CounterOpts{
	Name: "connection_dm_rejected_total",
	Help: "Number of direct messages refused by block or privacy rules",
})

var outboxDelivered = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "connection_outbox_delivered_total",
	Help: "Outbox events handed to the sender, by result",
}, []string{"result"})

var reportsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "connection_reports_created_total",
	Help: "Content reports filed, by content type",
}, []string{"content_type"})

var countersReconciled = promauto.NewCounter(prometheus.CounterOpts{
	Name: "connection_counters_reconciled_total",
	Help: "Denormalized counter rows corrected by the reconciler",
})
