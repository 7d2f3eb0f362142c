package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const outcomeOK = "ok"

// StorefrontMetrics records cart and checkout outcomes. A nil receiver or a
// value built without a registerer is a no-op.
type StorefrontMetrics struct {
	cartMutations    *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutDuration *prometheus.HistogramVec
	cancellations    *prometheus.CounterVec
	transfers        *prometheus.CounterVec
	droppedOnMerge   prometheus.Counter
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_attempts_total",
		Help: "Checkout attempts by outcome.",
	}, []string{"outcome"})
	checkoutDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "checkout_duration_seconds",
		Help:    "Duration of the checkout transaction in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	cancellations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_cancellations_total",
		Help: "Order cancellation attempts by outcome.",
	}, []string{"outcome"})
	transfers := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_transfers_total",
		Help: "Guest cart transfers by mode (noop, repoint, merge, error).",
	}, []string{"mode"})
	droppedOnMerge := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_transfer_dropped_items_total",
		Help: "Guest line items dropped because the user cart was full.",
	})
	reg.MustRegister(cartMutations, checkouts, checkoutDuration, cancellations, transfers, droppedOnMerge)
	return &StorefrontMetrics{
		cartMutations:    cartMutations,
		checkouts:        checkouts,
		checkoutDuration: checkoutDuration,
		cancellations:    cancellations,
		transfers:        transfers,
		droppedOnMerge:   droppedOnMerge,
	}
}

// ObserveCartMutation counts one cart mutation attempt.
func (m *StorefrontMetrics) ObserveCartMutation(op string, err error) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(op), Outcome(err)).Inc()
}

// ObserveCheckout counts one checkout attempt and its duration.
func (m *StorefrontMetrics) ObserveCheckout(duration time.Duration, err error) {
	if m == nil || m.checkouts == nil {
		return
	}
	outcome := Outcome(err)
	m.checkouts.WithLabelValues(outcome).Inc()
	m.checkoutDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

// ObserveCancellation counts one order cancellation attempt.
func (m *StorefrontMetrics) ObserveCancellation(err error) {
	if m == nil || m.cancellations == nil {
		return
	}
	m.cancellations.WithLabelValues(Outcome(err)).Inc()
}

// ObserveTransfer counts a guest cart transfer and any items it dropped.
func (m *StorefrontMetrics) ObserveTransfer(mode string, dropped int) {
	if m == nil || m.transfers == nil {
		return
	}
	m.transfers.WithLabelValues(normalizeLabel(mode)).Inc()
	if dropped > 0 {
		m.droppedOnMerge.Add(float64(dropped))
	}
}

// Outcome maps an error to a low-cardinality label: "ok", the lowercased
// domain error code, or "internal_error" for untyped failures.
func Outcome(err error) string {
	if err == nil {
		return outcomeOK
	}
	if typed := pkgerrors.As(err); typed != nil {
		return strings.ToLower(string(typed.Code()))
	}
	return strings.ToLower(string(pkgerrors.CodeInternal))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
