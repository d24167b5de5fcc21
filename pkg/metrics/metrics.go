package metrics

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/open-teleop/keypad/domain/teleop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ticksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keypad",
			Subsystem: "publisher",
			Name:      "ticks_total",
			Help:      "Timer ticks, labelled by whether the publisher was armed",
		},
		[]string{"armed"},
	)

	transmissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keypad",
			Subsystem: "publisher",
			Name:      "transmissions_total",
			Help:      "Commands handed to the transport",
		},
		[]string{"kind"},
	)

	transportErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keypad",
			Subsystem: "publisher",
			Name:      "transport_errors_total",
			Help:      "Failed transmissions",
		},
		[]string{"kind"},
	)

	armedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "keypad",
			Subsystem: "publisher",
			Name:      "armed",
			Help:      "1 while a button is held",
		},
	)

	odometryMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "keypad",
			Subsystem: "odometry",
			Name:      "messages_total",
			Help:      "Odometry samples received",
		},
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "keypad",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"path", "method", "status"},
	)

	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "keypad",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		ticksTotal,
		transmissionsTotal,
		transportErrorsTotal,
		armedGauge,
		odometryMessagesTotal,
		httpRequestsTotal,
		httpRequestDuration,
	)
}

// PublisherObserver records command publisher activity.
type PublisherObserver struct{}

var _ teleop.Observer = PublisherObserver{}

func (PublisherObserver) Tick(armed bool) {
	ticksTotal.WithLabelValues(strconv.FormatBool(armed)).Inc()
}

func (PublisherObserver) Transmitted(kind teleop.TransmitKind, _ teleop.Command) {
	transmissionsTotal.WithLabelValues(string(kind)).Inc()
}

func (PublisherObserver) TransmitFailed(kind teleop.TransmitKind, _ error) {
	transportErrorsTotal.WithLabelValues(string(kind)).Inc()
}

func (PublisherObserver) ArmedChanged(armed bool) {
	if armed {
		armedGauge.Set(1)
		return
	}
	armedGauge.Set(0)
}

// OdometryReceived counts one odometry sample.
func OdometryReceived() {
	odometryMessagesTotal.Inc()
}

// Middleware records request counts and latency by route pattern.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}
		// Route pattern keeps label cardinality bounded.
		path := c.Route().Path
		labels := []string{path, c.Method(), strconv.Itoa(status)}
		httpRequestsTotal.WithLabelValues(labels...).Inc()
		httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		return err
	}
}

// Handler serves the default registry in the Prometheus text format.
func Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
