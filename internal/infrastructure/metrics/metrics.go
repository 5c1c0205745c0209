package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Exchange metrics
	ParticipationsProposed  prometheus.Counter
	ParticipationsAccepted  prometheus.Counter
	ParticipationsClosed    *prometheus.CounterVec
	ConfirmationsRecorded   prometheus.Counter
	SettlementsCompleted    prometheus.Counter
	SettlementDuration      prometheus.Histogram
	SettlementHours         prometheus.Histogram
	ExchangeErrors          *prometheus.CounterVec
	ReciprocityWarnings     prometheus.Counter
	CapacityRejections      prometheus.Counter
	ListingsFilled          prometheus.Counter
	LedgerEntriesPosted     *prometheus.CounterVec
	IntegrityFaultsDetected prometheus.Counter

	// Account metrics
	AccountsCreated   prometheus.Counter
	AccountOperations *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec
	EventsFailed    *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Database metrics
	DBErrors *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits *prometheus.CounterVec
}

// New creates and registers all Prometheus metrics with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Exchange metrics
		ParticipationsProposed: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_participations_proposed_total",
			Help: "Total number of participations proposed",
		}),
		ParticipationsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_participations_accepted_total",
			Help: "Total number of participations accepted",
		}),
		ParticipationsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_participations_closed_total",
				Help: "Total number of participations declined or withdrawn",
			},
			[]string{"status"},
		),
		ConfirmationsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_confirmations_total",
			Help: "Total number of completion votes recorded",
		}),
		SettlementsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_settlements_completed_total",
			Help: "Total number of exchanges settled",
		}),
		SettlementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "timebank_settlement_duration_seconds",
			Help:    "Duration of confirm-and-settle operations",
			Buckets: prometheus.DefBuckets,
		}),
		SettlementHours: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "timebank_settlement_hours",
			Help:    "Hours moved per settlement",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 16, 40},
		}),
		ExchangeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_exchange_errors_total",
				Help: "Total number of refused exchange operations by kind",
			},
			[]string{"operation", "kind"},
		),
		ReciprocityWarnings: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_reciprocity_warnings_total",
			Help: "Total number of settlements that came close to the reciprocity limit",
		}),
		CapacityRejections: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_capacity_rejections_total",
			Help: "Total number of acceptances refused for lack of capacity",
		}),
		ListingsFilled: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_listings_filled_total",
			Help: "Total number of listings that reached capacity",
		}),
		LedgerEntriesPosted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_ledger_entries_total",
				Help: "Total ledger entries posted by transaction type",
			},
			[]string{"type"},
		),
		IntegrityFaultsDetected: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_integrity_faults_total",
			Help: "Total number of cached balances found disagreeing with the ledger",
		}),

		// Account metrics
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "timebank_accounts_created_total",
			Help: "Total number of accounts opened",
		}),
		AccountOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_account_operations_total",
				Help: "Total account operations by type",
			},
			[]string{"operation"},
		),

		// Event metrics
		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_events_published_total",
				Help: "Total outbox events delivered by event type",
			},
			[]string{"event_type"},
		),
		EventsFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_events_failed_total",
				Help: "Total outbox events whose single delivery attempt failed",
			},
			[]string{"event_type"},
		),

		// API metrics
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "timebank_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Database metrics
		DBErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_db_errors_total",
				Help: "Total database errors",
			},
			[]string{"operation"},
		),

		// Rate limiting metrics
		RateLimitHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "timebank_rate_limit_hits_total",
				Help: "Total rate limit hits",
			},
			[]string{"ip"},
		),
	}
}
