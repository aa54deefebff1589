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
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/uptrace/bun"
)

// DatabaseFactory builds a database manager from configuration and fronts
// its lifecycle: initialization, health, statistics, shutdown.
type DatabaseFactory struct {
	manager DatabaseManager
	logger  Logger
}

// NewDatabaseFactory returns a factory wired to the package logger.
func NewDatabaseFactory() *DatabaseFactory {
	return &DatabaseFactory{logger: GetLogger()}
}

// CreateFromConfig validates cfg, applies environment overrides, and creates
// the managed database manager.
func (f *DatabaseFactory) CreateFromConfig(cfg *ConnectionConfig) (DatabaseManager, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}

	supportedTypes := []string{"mysql", "postgres", "postgresql", "sqlite", "sqlite3"}
	switch cfg.Type {
	case "mysql", "postgres", "postgresql", "sqlite", "sqlite3":
	default:
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}

	f.overrideFromEnv(cfg)

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(f.logger)
	f.manager = manager
	return manager, nil
}

// envString applies a non-empty environment value.
func envString(name string, apply func(string)) {
	if v := os.Getenv(name); v != "" {
		apply(v)
	}
}

// envInt applies an environment value that parses as an integer; everything
// else leaves the configured value alone.
func envInt(name string, apply func(int)) {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apply(n)
		}
	}
}

// envSeconds reads an integer environment value as a duration in seconds.
func envSeconds(name string, apply func(time.Duration)) {
	envInt(name, func(n int) { apply(time.Duration(n) * time.Second) })
}

// envBool applies an environment flag; only the literal "true" enables.
func envBool(name string, apply func(bool)) {
	if v := os.Getenv(name); v != "" {
		apply(v == "true")
	}
}

// overrideFromEnv lets deployment environments override credentials and
// tuning without touching the config file.
func (f *DatabaseFactory) overrideFromEnv(cfg *ConnectionConfig) {
	envString("DB_HOST", func(v string) { cfg.Host = v })
	envInt("DB_PORT", func(v int) { cfg.Port = v })
	envString("DB_USERNAME", func(v string) { cfg.Username = v })
	envString("DB_PASSWORD", func(v string) { cfg.Password = v })
	envString("DB_NAME", func(v string) { cfg.DBName = v })
	envString("DB_SSLMODE", func(v string) { cfg.SSLMode = v })
	envString("DB_CHARSET", func(v string) { cfg.Charset = v })

	envInt("DB_MAX_IDLE_CONNS", func(v int) { cfg.MaxIdleConns = v })
	envInt("DB_MAX_OPEN_CONNS", func(v int) { cfg.MaxOpenConns = v })
	envSeconds("DB_CONN_MAX_LIFETIME", func(v time.Duration) { cfg.ConnMaxLifetime = v })

	envBool("DB_ENABLE_RECONNECT", func(v bool) { cfg.EnableReconnect = v })
	envSeconds("DB_RECONNECT_INTERVAL", func(v time.Duration) { cfg.ReconnectInterval = v })

	envBool("DB_ENABLE_QUERY_LOG", func(v bool) { cfg.EnableQueryLog = v })
}

// InitializeDatabase connects the managed database and optionally runs the
// registered migrations.
func (f *DatabaseFactory) InitializeDatabase(ctx context.Context, runMigrations bool) error {
	if f.manager == nil {
		return fmt.Errorf("database manager not created")
	}
	if err := f.manager.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if runMigrations {
		if err := f.manager.RunMigrations(ctx); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	f.logger.Info("Database initialization completed!")
	return nil
}

// GetManager returns the managed database manager, nil before CreateFromConfig.
func (f *DatabaseFactory) GetManager() DatabaseManager {
	return f.manager
}

// GetDB returns the Bun handle, nil while disconnected.
func (f *DatabaseFactory) GetDB() *bun.DB {
	if f.manager == nil {
		return nil
	}
	return f.manager.GetDB()
}

// SetLogger replaces the logger on the factory and the managed manager.
func (f *DatabaseFactory) SetLogger(logger Logger) {
	f.logger = logger
	if f.manager != nil {
		f.manager.SetLogger(logger)
	}
}

// Close disconnects the managed database.
func (f *DatabaseFactory) Close() error {
	if f.manager == nil {
		return nil
	}
	return f.manager.Disconnect()
}

// GetHealthStatus reports manager health; before CreateFromConfig it reports
// an uninitialized status instead of failing.
func (f *DatabaseFactory) GetHealthStatus(ctx context.Context) *HealthStatus {
	if f.manager == nil {
		return &HealthStatus{
			Healthy:       false,
			Connected:     false,
			LastError:     "Database manager not initialized",
			LastCheckTime: time.Now(),
		}
	}
	return f.manager.HealthCheck(ctx)
}

// GetStats returns connection pool statistics, zero while disconnected.
func (f *DatabaseFactory) GetStats() *DBStats {
	if f.manager == nil {
		return &DBStats{}
	}
	return f.manager.GetStats()
}
