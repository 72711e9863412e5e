// Package metrics exposes Prometheus counters for marketplace activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ItemsCreated counts new listings.
	ItemsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapsphere_items_created_total",
		Help: "Number of item listings created.",
	})

	// ExchangeTransitions counts exchange workflow status changes,
	// including creation (status=pending).
	ExchangeTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapsphere_exchange_transitions_total",
		Help: "Number of exchange status transitions by resulting status.",
	}, []string{"status"})

	// PurchaseTransitions counts purchase workflow status changes,
	// including creation (status=pending).
	PurchaseTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swapsphere_purchase_transitions_total",
		Help: "Number of purchase status transitions by resulting status.",
	}, []string{"status"})

	// RatingsSubmitted counts accepted rating submissions.
	RatingsSubmitted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapsphere_ratings_submitted_total",
		Help: "Number of ratings submitted.",
	})

	// MessagesSent counts chat messages stored.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swapsphere_messages_sent_total",
		Help: "Number of chat messages sent.",
	})
)
