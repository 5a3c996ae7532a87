package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Pinger is satisfied by *pgxpool.Pool and the in-memory store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Monitor struct {
	db     Pinger
	driver string

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

func New(db Pinger, driver string, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		db:       db,
		driver:   driver,
		status:   Status{Driver: driver},
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	m.refresh()
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Database
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	status := Status{
		Driver:    m.driver,
		Database:  m.checkDatabase(),
		LastCheck: time.Now(),
	}

	m.mu.Lock()
	wasOnline := m.status.Database
	m.status = status
	m.mu.Unlock()

	if wasOnline && !status.Database {
		m.logger.Warn("datastore went offline", zap.String("driver", m.driver))
	} else if !wasOnline && status.Database {
		m.logger.Info("datastore online", zap.String("driver", m.driver))
	}
}

func (m *Monitor) checkDatabase() bool {
	if m.db == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := m.db.Ping(ctx); err != nil {
		m.logger.Debug("datastore ping failed", zap.String("driver", m.driver), zap.Error(err))
		return false
	}
	return true
}
