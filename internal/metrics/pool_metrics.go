package metrics

import (
	"runtime"
	"sync"
	"time"

	"github.com/Dhoini/publishing-platform/pkg/logger"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PoolStater источник статистики пула соединений
type PoolStater interface {
	Stat() *pgxpool.Stat
}

// RuntimeMetrics периодически снимает состояние пула БД и число горутин
type RuntimeMetrics struct {
	log        *logger.Logger
	pool       PoolStater
	goroutines prometheus.Gauge
	acquired   prometheus.Gauge
	idle       prometheus.Gauge
	total      prometheus.Gauge
	waits      prometheus.Gauge
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewRuntimeMetrics создает метрики; pool может быть nil
func NewRuntimeMetrics(registry prometheus.Registerer, pool PoolStater, log *logger.Logger) *RuntimeMetrics {
	factory := promauto.With(registry)
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{Name: name, Help: help})
	}

	return &RuntimeMetrics{
		log:        log,
		pool:       pool,
		goroutines: gauge("system_goroutines", "Current number of goroutines"),
		acquired:   gauge("db_pool_acquired_conns", "Connections currently in use"),
		idle:       gauge("db_pool_idle_conns", "Idle connections in the pool"),
		total:      gauge("db_pool_total_conns", "Total connections in the pool"),
		waits:      gauge("db_pool_empty_acquire_count", "Acquires that had to wait for a connection"),
		stopCh:     make(chan struct{}),
	}
}

// Record снимает текущие значения
func (m *RuntimeMetrics) Record() {
	m.goroutines.Set(float64(runtime.NumGoroutine()))
	if m.pool == nil {
		return
	}
	stat := m.pool.Stat()
	m.acquired.Set(float64(stat.AcquiredConns()))
	m.idle.Set(float64(stat.IdleConns()))
	m.total.Set(float64(stat.TotalConns()))
	m.waits.Set(float64(stat.EmptyAcquireCount()))
}

// StartRecording начинает запись метрик с заданным интервалом
func (m *RuntimeMetrics) StartRecording(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Record()
			case <-m.stopCh:
				return
			}
		}
	}()
	m.log.Info("Runtime metrics recording started with interval %s", interval)
}

// Stop останавливает запись метрик
func (m *RuntimeMetrics) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.log.Info("Runtime metrics recording stopped")
	})
}
