package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmarket_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leadmarket_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LeadUnlocksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmarket_lead_unlocks_total",
			Help: "Total number of lead unlocks",
		},
		[]string{"view_type", "status"},
	)

	CoinsSpentTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "leadmarket_coins_spent_total",
			Help: "Total LeadCoins debited for lead unlocks",
		},
	)

	CoinsCreditedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmarket_coins_credited_total",
			Help: "Total LeadCoins credited",
		},
		[]string{"source"},
	)

	PurchasesReconciledTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmarket_purchases_reconciled_total",
			Help: "Total payment reconciliations by outcome",
		},
		[]string{"kind", "outcome"},
	)

	CouponClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmarket_coupon_claims_total",
			Help: "Total coupon claim attempts",
		},
		[]string{"status"},
	)

	LowBalanceNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmarket_low_balance_notifications_total",
			Help: "Total low balance notifications created",
		},
		[]string{"threshold"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leadmarket_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leadmarket_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordLeadUnlock(viewType, status string, coinsSpent int) {
	LeadUnlocksTotal.WithLabelValues(viewType, status).Inc()
	if coinsSpent > 0 {
		CoinsSpentTotal.Add(float64(coinsSpent))
	}
}

func RecordCredit(source string, coins int) {
	CoinsCreditedTotal.WithLabelValues(source).Add(float64(coins))
}

func RecordReconciliation(kind, outcome string) {
	PurchasesReconciledTotal.WithLabelValues(kind, outcome).Inc()
}

func RecordCouponClaim(status string) {
	CouponClaimsTotal.WithLabelValues(status).Inc()
}

func RecordLowBalanceNotification(threshold string) {
	LowBalanceNotificationsTotal.WithLabelValues(threshold).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}
