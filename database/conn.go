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
	"github.com/uptrace/bun"
)

// Process-wide database state, set up once by InitDB. DB stays exported for
// callers that want the raw handle directly.
var (
	globalFactory *DatabaseFactory
	globalConfig  *Config
	DB            *bun.DB
)

// GetDB returns the global Bun handle, nil before InitDB.
func GetDB() *bun.DB {
	if globalFactory != nil {
		return globalFactory.GetDB()
	}
	return DB
}

// GetDatabaseManager returns the global database manager, nil before InitDB.
func GetDatabaseManager() DatabaseManager {
	if globalFactory == nil {
		return nil
	}
	return globalFactory.GetManager()
}

// GetDatabaseFactory returns the global database factory, nil before InitDB.
func GetDatabaseFactory() *DatabaseFactory {
	return globalFactory
}

// InitDB connects the global database from cfg. Migrations run on startup
// when the config asks for them.
func InitDB(cfg *Config) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	return InitDatabaseWithOptions(cfg, cfg.DataMigrateConfig.EnableMigrateOnStartup)
}

// InitDatabaseWithOptions connects the global database, optionally running
// migrations, and registers the model registry on the handle.
func InitDatabaseWithOptions(cfg *Config, runMigrations bool) (*bun.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	globalConfig = cfg
	globalFactory = NewDatabaseFactory()

	manager, err := globalFactory.CreateFromConfig(&cfg.ConnectionConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database manager: %w", err)
	}
	if err := globalFactory.InitializeDatabase(context.Background(), runMigrations); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	DB = manager.GetDB()
	DB.RegisterModel(RegisteredModelInstances()...)
	return DB, nil
}

// CloseDB closes the global database connection.
func CloseDB() error {
	if globalFactory == nil {
		return nil
	}
	return globalFactory.Close()
}

// GetHealthStatus reports global database health; before InitDB it reports
// an uninitialized status.
func GetHealthStatus(ctx context.Context) *HealthStatus {
	if globalFactory != nil {
		return globalFactory.GetHealthStatus(ctx)
	}
	return &HealthStatus{LastError: "Database not initialized"}
}

// GetDatabaseStats returns global connection pool statistics.
func GetDatabaseStats() *DBStats {
	if globalFactory == nil {
		return &DBStats{}
	}
	return globalFactory.GetStats()
}

// activeManager returns the global manager, or an error naming the missing
// layer when InitDB has not run yet.
func activeManager() (DatabaseManager, error) {
	if globalFactory == nil {
		return nil, fmt.Errorf("database not initialized")
	}
	manager := globalFactory.GetManager()
	if manager == nil {
		return nil, fmt.Errorf("database manager not initialized")
	}
	return manager, nil
}

// RunMigrations runs the registered migrations on the global database.
func RunMigrations() error {
	manager, err := activeManager()
	if err != nil {
		return err
	}
	return manager.RunMigrations(context.Background())
}

// SeedData seeds the global database for the configured environment, or
// "prod" when none is configured.
func SeedData() error {
	environment := "prod"
	if globalConfig != nil && globalConfig.DataSeedConfig.Environment != "" {
		environment = globalConfig.DataSeedConfig.Environment
	}
	return SeedDataWithEnvironment(environment)
}

// SeedDataWithEnvironment executes the SQL seed files for environment
// against the global database.
func SeedDataWithEnvironment(environment string) error {
	manager, err := activeManager()
	if err != nil {
		return err
	}
	db := manager.GetDB()
	if db == nil {
		return fmt.Errorf("database instance not initialized")
	}

	seeder := NewSeedManager(db, environment)
	if globalConfig != nil && globalConfig.DataSeedConfig.Filepath != "" {
		seeder.SetRootPath(globalConfig.DataSeedConfig.Filepath)
	}
	return seeder.Run(context.Background())
}
