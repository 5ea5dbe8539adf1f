package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SaleResultCommitted  = "committed"
	SaleResultRolledBack = "rolled_back"
)

const (
	StoreFailureDeadlineExceeded     = "deadline_exceeded"
	StoreFailureBusy                 = "busy"
	StoreFailureLockTimeout          = "lock_timeout"
	StoreFailureSerializationFailure = "serialization_failure"
	StoreFailureUniqueViolation      = "unique_violation"
	StoreFailureConstraint           = "constraint"
	StoreFailureUnknown              = "unknown"
)

const (
	RowKindSession = "session"
	RowKindItem    = "item"
)

// SalesMetrics exposes sale batch and receipt signals on the prometheus registry.
type SalesMetrics struct {
	batches        *prometheus.CounterVec
	rows           *prometheus.CounterVec
	batchDuration  prometheus.Observer
	receiptRenders *prometheus.CounterVec
}

var (
	salesMetricsOnce sync.Once
	salesMetrics     *SalesMetrics
)

// Sales returns the process-wide sales metrics registered on the default registerer.
func Sales() *SalesMetrics {
	return SalesWithConfig(Config{})
}

// SalesWithConfig is Sales with service/env const labels from cfg.
func SalesWithConfig(cfg Config) *SalesMetrics {
	salesMetricsOnce.Do(func() {
		salesMetrics = NewSalesMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return salesMetrics
}

// NewSalesMetrics builds collectors on registerer. Tests pass their own registry.
func NewSalesMetrics(registerer prometheus.Registerer, cfg Config) *SalesMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName(cfg),
		"env":     environment,
	}

	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cafepos_sale_batches_total",
		Help:        "Sale batches by outcome and failure reason.",
		ConstLabels: constLabels,
	}, []string{"result", "reason"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cafepos_sale_rows_persisted_total",
		Help:        "Rows committed by sale batches.",
		ConstLabels: constLabels,
	}, []string{"kind"})
	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "cafepos_sale_batch_duration_seconds",
		Help:        "Time spent inside the sale batch transaction.",
		Buckets:     []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		ConstLabels: constLabels,
	})
	receiptRenders := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "cafepos_receipt_renders_total",
		Help:        "Receipt streams by format and outcome.",
		ConstLabels: constLabels,
	}, []string{"format", "result"})

	registerer.MustRegister(batches, rows, batchDuration, receiptRenders)

	return &SalesMetrics{
		batches:        batches,
		rows:           rows,
		batchDuration:  batchDuration,
		receiptRenders: receiptRenders,
	}
}

// ObserveCommit records a committed batch and its row counts.
func (m *SalesMetrics) ObserveCommit(sessions, items int, duration time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(SaleResultCommitted, "").Inc()
	if sessions > 0 {
		m.rows.WithLabelValues(RowKindSession).Add(float64(sessions))
	}
	if items > 0 {
		m.rows.WithLabelValues(RowKindItem).Add(float64(items))
	}
	m.batchDuration.Observe(duration.Seconds())
}

// ObserveRollback records a rolled back batch classified by its cause.
func (m *SalesMetrics) ObserveRollback(err error, duration time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(SaleResultRolledBack, ClassifyStoreFailure(err)).Inc()
	m.batchDuration.Observe(duration.Seconds())
}

// ObserveReceipt records the outcome of a receipt stream.
func (m *SalesMetrics) ObserveReceipt(format string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "aborted"
	}
	m.receiptRenders.WithLabelValues(format, result).Inc()
}

// ClassifyStoreFailure maps store errors to low-cardinality reasons.
func ClassifyStoreFailure(err error) string {
	if err == nil {
		return StoreFailureUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return StoreFailureDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return StoreFailureLockTimeout
	}
	if hasPGCode(err, "40001") {
		return StoreFailureSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return StoreFailureUniqueViolation
	}
	if hasPGClass(err, "23") || errors.Is(err, gorm.ErrForeignKeyViolated) || errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return StoreFailureConstraint
	}
	if isSQLiteBusy(err) {
		return StoreFailureBusy
	}
	return StoreFailureUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

func hasPGClass(err error, class string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, class)
	}
	return false
}

func isSQLiteBusy(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "sqlite_busy")
}
