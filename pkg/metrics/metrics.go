package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestDuration tracks the duration of HTTP requests by route template.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "referly_http_request_duration_seconds",
			Help:    "Time spent processing HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	ReferralsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "referly_referrals_created_total",
		Help: "Referrals recorded",
	})

	ReferralsConverted = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "referly_referrals_converted_total",
		Help: "Referrals converted into customers",
	})

	CampaignsClosed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "referly_campaigns_closed_total",
		Help: "Campaigns moved to completed",
	}, []string{"trigger"})

	CustomersImported = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "referly_customers_imported_total",
		Help: "Customers inserted by ingestion",
	})

	// EmailsSent counts delivery attempts by kind and result (sent | failed).
	EmailsSent = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "referly_emails_total",
		Help: "Outbound email deliveries",
	}, []string{"kind", "result"})
)

func init() {
	prometheus.MustRegister(
		RequestDuration,
		ReferralsCreated,
		ReferralsConverted,
		CampaignsClosed,
		CustomersImported,
		EmailsSent,
	)
}

// Middleware records request durations. Unmatched routes share one label.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		RequestDuration.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
