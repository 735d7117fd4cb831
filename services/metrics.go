package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	predictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "periodcalm_predictions_total",
		Help: "Cycle predictions served, by outcome.",
	}, []string{"outcome"})

	recordUpsertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "periodcalm_record_upserts_total",
		Help: "Daily cycle records saved.",
	})

	storeWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "periodcalm_store_writes_total",
		Help: "Record map writes to the cycle store, by result.",
	}, []string{"result"})

	remindersSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "periodcalm_reminders_total",
		Help: "Reminder alerts emitted, by type.",
	}, []string{"type"})
)
