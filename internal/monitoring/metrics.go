package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Chat outcomes
const (
	ChatAnswered    = "answered"
	ChatFailed      = "failed"
	ChatUnavailable = "unavailable"
)

// Collector records service metrics on a private registry
type Collector struct {
	registry *prometheus.Registry

	mealsAdded     prometheus.Counter
	mealsDeleted   prometheus.Counter
	storeWrites    *prometheus.CounterVec
	menuFetch      *prometheus.HistogramVec
	menuFailures   *prometheus.CounterVec
	chatRequests   *prometheus.CounterVec
	inventoryMoves *prometheus.CounterVec
	subscribers    prometheus.Gauge
}

// NewCollector creates and registers every metric
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		mealsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meals_added_total",
			Help: "Meals added to the log",
		}),
		mealsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "meals_deleted_total",
			Help: "Meals removed from the log",
		}),
		storeWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "meal_store_writes_total",
				Help: "Meal log writes by result",
			},
			[]string{"result"},
		),
		menuFetch: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "menu_fetch_duration_seconds",
				Help:    "Time taken to fetch one hall/meal menu",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"hall"},
		),
		menuFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "menu_fetch_failures_total",
				Help: "Failed hall/meal menu fetches",
			},
			[]string{"hall", "meal"},
		),
		chatRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chat_requests_total",
				Help: "Assistant requests by outcome",
			},
			[]string{"outcome"},
		),
		inventoryMoves: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventory_adjustments_total",
				Help: "Inventory changes by hall and direction",
			},
			[]string{"hall", "direction"},
		),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "inventory_subscribers",
			Help: "Live inventory websocket subscribers",
		}),
	}

	c.registry.MustRegister(
		c.mealsAdded,
		c.mealsDeleted,
		c.storeWrites,
		c.menuFetch,
		c.menuFailures,
		c.chatRequests,
		c.inventoryMoves,
		c.subscribers,
	)
	return c
}

// Handler serves the registry in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// MealAdded counts a logged meal
func (c *Collector) MealAdded() {
	c.mealsAdded.Inc()
}

// MealsDeleted counts removed meals
func (c *Collector) MealsDeleted(n int) {
	c.mealsDeleted.Add(float64(n))
}

// Persisted counts a meal log write
func (c *Collector) Persisted(err error) {
	if err != nil {
		c.storeWrites.WithLabelValues("error").Inc()
		return
	}
	c.storeWrites.WithLabelValues("ok").Inc()
}

// MenuFetched records one upstream menu request
func (c *Collector) MenuFetched(hall, meal string, elapsed time.Duration, err error) {
	c.menuFetch.WithLabelValues(hall).Observe(elapsed.Seconds())
	if err != nil {
		c.menuFailures.WithLabelValues(hall, meal).Inc()
	}
}

// ChatHandled counts an assistant request
func (c *Collector) ChatHandled(outcome string) {
	c.chatRequests.WithLabelValues(outcome).Inc()
}

// InventoryAdjusted counts a stock change
func (c *Collector) InventoryAdjusted(hall string, amount float64) {
	direction := "restock"
	if amount < 0 {
		direction = "consume"
	}
	c.inventoryMoves.WithLabelValues(hall, direction).Inc()
}

// SubscribersChanged tracks websocket churn
func (c *Collector) SubscribersChanged(delta int) {
	c.subscribers.Add(float64(delta))
}
