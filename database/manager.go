/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
	"github.com/uptrace/bun/schema"
)

type bunDatabaseManager struct {
	config *ConnectionConfig
	logger Logger

	mu        sync.RWMutex
	db        *bun.DB
	sqlDB     *sql.DB
	connected bool

	retries    int
	healthStop chan struct{}
	healthOnce sync.Once
}

// NewDatabaseManager returns a DatabaseManager backed by Bun. A nil config
// selects DefaultConnectionConfig.
func NewDatabaseManager(config *ConnectionConfig) DatabaseManager {
	if config == nil {
		config = DefaultConnectionConfig()
	}
	return &bunDatabaseManager{
		config:     config,
		healthStop: make(chan struct{}),
	}
}

// Connect opens the configured database and verifies it with a ping. Calling
// Connect on a connected manager is a no-op.
func (m *bunDatabaseManager) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected && m.db != nil {
		return nil
	}

	sqlDB, db, err := m.openConnection()
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}
	m.sqlDB, m.db = sqlDB, db

	m.sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	m.sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	m.sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	m.sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	pingCtx, cancel := context.WithTimeout(ctx, m.config.ConnectTimeout)
	defer cancel()
	if err := m.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("database ping after connect failed: %w", err)
	}

	m.connected = true
	m.retries = 0

	if m.config.HealthCheckInterval > 0 {
		m.startHealthCheck()
	}
	if m.logger != nil {
		m.logger.Info("Database connected", "type", m.config.Type, "host", m.config.Host)
	}
	return nil
}

// openConnection resolves the dialect and DSN for the configured type, opens
// the handle, and attaches the query hooks.
func (m *bunDatabaseManager) openConnection() (*sql.DB, *bun.DB, error) {
	// The connect timeout also bounds the post-open ping; zero would make
	// that ping fail immediately.
	if m.config.ConnectTimeout <= 0 {
		m.config.ConnectTimeout = 30 * time.Second
	}

	driver, dsn, dialect, err := m.resolveDriver()
	if err != nil {
		return nil, nil, err
	}

	sqlDB, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	db := bun.NewDB(sqlDB, dialect)

	if m.config.EnableQueryLog {
		db.AddQueryHook(bundebug.NewQueryHook(
			bundebug.WithVerbose(true),
			bundebug.FromEnv("BUNDEBUG"),
		))
	}
	db.AddQueryHook(NewQueryHook())
	if m.config.SlowQueryTime > 0 {
		db.AddQueryHook(NewSlowQueryHook(m.config.SlowQueryTime))
	}

	return sqlDB, db, nil
}

func (m *bunDatabaseManager) resolveDriver() (driver, dsn string, dialect schema.Dialect, err error) {
	cfg := m.config
	switch cfg.Type {
	case "mysql":
		charset := cfg.Charset
		if charset == "" {
			charset = "utf8mb4"
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local&timeout=%s&readTimeout=%s&writeTimeout=%s",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
			charset, cfg.ConnectTimeout, cfg.ReadTimeout, cfg.WriteTimeout)
		return "mysql", dsn, mysqldialect.New(), nil

	case "postgres", "postgresql":
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s&connect_timeout=%d",
			cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.DBName,
			sslMode, int(cfg.ConnectTimeout.Seconds()))
		return "postgres", dsn, pgdialect.New(), nil

	case "sqlite", "sqlite3":
		// An empty or ":memory:" database name selects a shared in-memory
		// store, a name ending in ".db" is used as the DSN unchanged, and
		// anything else becomes a local "<name>.db" file.
		switch {
		case cfg.DBName == "" || cfg.DBName == ":memory:":
			dsn = "file::memory:?cache=shared"
		case strings.HasSuffix(cfg.DBName, ".db"):
			dsn = cfg.DBName
		default:
			dsn = cfg.DBName + ".db"
		}
		return sqliteshim.ShimName, dsn, sqlitedialect.New(), nil

	default:
		return "", "", nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
}

// Disconnect closes the database and stops the health check loop. It is safe
// to call on an already disconnected manager.
func (m *bunDatabaseManager) Disconnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	select {
	case m.healthStop <- struct{}{}:
	default:
	}

	if m.db == nil {
		return nil
	}

	err := m.db.Close()
	m.db = nil
	m.sqlDB = nil
	m.connected = false

	if m.logger != nil {
		if err != nil {
			m.logger.Error("Closing database connection failed", "error", err)
		} else {
			m.logger.Info("Disconnected from database")
		}
	}
	return err
}

// Reconnect tears the current connection down and connects again.
func (m *bunDatabaseManager) Reconnect(ctx context.Context) error {
	if m.logger != nil {
		m.logger.Info("Reconnecting to database")
	}
	if err := m.Disconnect(); err != nil && m.logger != nil {
		m.logger.Warn("Disconnect before reconnect reported an error", "error", err)
	}
	return m.Connect(ctx)
}

func (m *bunDatabaseManager) Ping(ctx context.Context) error {
	m.mu.RLock()
	db := m.db
	m.mu.RUnlock()

	if db == nil {
		return fmt.Errorf("database not connected")
	}
	return db.PingContext(ctx)
}

func (m *bunDatabaseManager) GetDB() *bun.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.db
}

func (m *bunDatabaseManager) GetSQLDB() *sql.DB {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sqlDB
}

// HealthCheck pings the database and reports connectivity together with a
// snapshot of the connection pool.
func (m *bunDatabaseManager) HealthCheck(ctx context.Context) *HealthStatus {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	status := &HealthStatus{LastCheckTime: start, Connected: m.connected}

	if m.db == nil {
		status.LastError = "Database not initialized"
		return status
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	err := m.db.PingContext(pingCtx)
	status.ResponseTime = time.Since(start)

	status.Healthy = err == nil
	status.Connected = err == nil
	if err != nil {
		status.LastError = err.Error()
	}

	if m.sqlDB != nil {
		stats := m.sqlDB.Stats()
		status.ActiveConns = stats.InUse
		status.IdleConns = stats.Idle
		status.MaxOpenConns = stats.MaxOpenConnections
	}
	return status
}

// startHealthCheck runs periodic health checks until Disconnect, triggering
// reconnects when the database goes unhealthy. Started at most once per
// manager.
func (m *bunDatabaseManager) startHealthCheck() {
	m.healthOnce.Do(func() {
		go func() {
			ticker := time.NewTicker(m.config.HealthCheckInterval)
			defer ticker.Stop()

			for {
				select {
				case <-ticker.C:
					ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
					status := m.HealthCheck(ctx)
					cancel()
					if !status.Healthy && m.config.EnableReconnect {
						m.recoverConnection()
					}
				case <-m.healthStop:
					return
				}
			}
		}()
	})
}

func (m *bunDatabaseManager) recoverConnection() {
	if m.retries >= m.config.MaxReconnectTries {
		if m.logger != nil {
			m.logger.Error("Reconnect attempts exhausted, giving up", "tries", m.retries)
		}
		return
	}

	m.retries++
	if m.logger != nil {
		m.logger.Info("Reconnect attempt starting", "try", m.retries)
	}
	time.Sleep(m.config.ReconnectInterval)

	ctx, cancel := context.WithTimeout(context.Background(), m.config.ConnectTimeout)
	defer cancel()
	if err := m.Reconnect(ctx); err != nil {
		if m.logger != nil {
			m.logger.Error("Reconnect attempt failed", "error", err, "try", m.retries)
		}
		return
	}
	m.retries = 0
	if m.logger != nil {
		m.logger.Info("Database connection recovered")
	}
}

func (m *bunDatabaseManager) GetStats() *DBStats {
	m.mu.RLock()
	sqlDB := m.sqlDB
	m.mu.RUnlock()

	if sqlDB == nil {
		return &DBStats{}
	}

	stats := sqlDB.Stats()
	return &DBStats{
		MaxOpenConns:      stats.MaxOpenConnections,
		OpenConns:         stats.OpenConnections,
		InUse:             stats.InUse,
		Idle:              stats.Idle,
		WaitCount:         stats.WaitCount,
		WaitDuration:      stats.WaitDuration,
		MaxIdleClosed:     stats.MaxIdleClosed,
		MaxIdleTimeClosed: stats.MaxIdleTimeClosed,
		MaxLifetimeClosed: stats.MaxLifetimeClosed,
	}
}

func (m *bunDatabaseManager) RunMigrations(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, m.logger).RunMigrations(ctx)
}

func (m *bunDatabaseManager) SeedData(ctx context.Context) error {
	db := m.GetDB()
	if db == nil {
		return fmt.Errorf("database not initialized")
	}
	return NewMigrationManager(db, m.logger).SeedData(ctx)
}

func (m *bunDatabaseManager) SetLogger(logger Logger) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}
