package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/MarcoHuebner/TicketPilot/app/models"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/database"
	"github.com/MarcoHuebner/TicketPilot/internal/pkg/env"
	metrics "github.com/MarcoHuebner/TicketPilot/internal/pkg/metrics/counter"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue              *Queue
	counterFlushTicker *time.Ticker
	orderExpiryTicker  *time.Ticker
	stopCh             chan struct{}
	wg                 sync.WaitGroup
	mu                 sync.Mutex
	running            bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	managerOnce.Do(func() {
		workerCount := 5
		if v, err := strconv.Atoi(env.GetEnv("JOBQUEUE_WORKERS", "5")); err == nil && v > 0 {
			workerCount = v
		}

		globalManager = &Manager{
			queue:  NewQueue(workerCount),
			stopCh: make(chan struct{}),
		}
	})
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Counter flush worker (Redis -> DB) every 5 seconds
	m.counterFlushTicker = time.NewTicker(5 * time.Second)
	m.wg.Add(1)
	go m.counterFlushWorker()

	// Order expiry sweeper cancels stale unpaid orders
	expiryInterval := 5 * time.Minute
	if v, err := strconv.Atoi(env.GetEnv("ORDER_EXPIRY_SWEEP_MINUTES", "5")); err == nil && v > 0 {
		expiryInterval = time.Duration(v) * time.Minute
	}
	m.orderExpiryTicker = time.NewTicker(expiryInterval)
	m.wg.Add(1)
	go m.orderExpiryWorker()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.counterFlushTicker != nil {
		m.counterFlushTicker.Stop()
	}
	if m.orderExpiryTicker != nil {
		m.orderExpiryTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// counterFlushWorker periodically flushes pending counters from Redis to DB
func (m *Manager) counterFlushWorker() {
	defer m.wg.Done()
	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Counter flush worker stopping")
			return
		case <-m.counterFlushTicker.C:
			if err := metrics.FlushAll(); err != nil {
				log.Errorf("[JobQueue Manager] Counter flush error: %v", err)
			}
		}
	}
}

// orderExpiryWorker periodically cancels unpaid orders whose hold window
// elapsed. Runs through the same conditional update as every other status
// write, so a payment landing concurrently simply wins the row.
func (m *Manager) orderExpiryWorker() {
	defer m.wg.Done()
	holdMinutes := 30
	if v, err := strconv.Atoi(env.GetEnv("ORDER_HOLD_MINUTES", "30")); err == nil && v > 0 {
		holdMinutes = v
	}
	log.Infof("[JobQueue Manager] Started order expiry worker (hold window: %d minutes)", holdMinutes)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Order expiry worker stopping")
			return
		case <-m.orderExpiryTicker.C:
			if err := m.expireStaleOrders(time.Duration(holdMinutes) * time.Minute); err != nil {
				log.Errorf("[JobQueue Manager] Order expiry error: %v", err)
			}
		}
	}
}

func (m *Manager) expireStaleOrders(holdWindow time.Duration) error {
	db := database.GetDB()
	if db == nil {
		return nil
	}

	now := time.Now()
	cutoff := now.Add(-holdWindow)
	tx := db.Model(&models.Order{}).
		Where("payment_status = ? AND created_at < ?", models.PaymentStatusAwaitingPayment, cutoff).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusCancelled,
			"cancelled_at":   &now,
			"updated_at":     now,
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected > 0 {
		log.Infof("[JobQueue Manager] Cancelled %d stale unpaid order(s)", tx.RowsAffected)
	}
	return nil
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
