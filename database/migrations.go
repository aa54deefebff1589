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
	"sort"
	"time"

	"github.com/uptrace/bun"
)

// MigrationManager applies versioned schema migrations and seeds data.
type MigrationManager struct {
	db          *bun.DB
	logger      Logger
	environment string
	extra       []MigrationItem
}

// Migration is the tracking record written for every applied version.
type Migration struct {
	Version     string    `bun:"version,pk"`
	Name        string    `bun:"name"`
	AppliedAt   time.Time `bun:"applied_at"`
	Description string    `bun:"description"`
}

// MigrationFunc runs one migration step inside its transaction.
type MigrationFunc func(ctx context.Context, db bun.IDB) error

// MigrationItem is a named, versioned migration with optional rollback.
type MigrationItem struct {
	Version     string
	Name        string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc
}

// NewMigrationManager wires a migration manager to db. A nil logger falls
// back to the package logger, the environment starts as "development".
func NewMigrationManager(db *bun.DB, logger Logger) *MigrationManager {
	if logger == nil {
		logger = GetLogger()
	}
	return &MigrationManager{
		db:          db,
		logger:      logger,
		environment: "development",
	}
}

// SetEnvironment selects which environment's seed files apply.
func (m *MigrationManager) SetEnvironment(env string) {
	m.environment = env
}

// Register appends custom migrations to the built-in ones. They take part
// in the usual version ordering, so pick versions above the built-in range.
func (m *MigrationManager) Register(items ...MigrationItem) {
	m.extra = append(m.extra, items...)
}

// RunMigrations ensures the tracking table exists, then applies every
// not-yet-applied migration in ascending version order.
func (m *MigrationManager) RunMigrations(ctx context.Context) error {
	// silent migration
	if _, ok := os.LookupEnv("BUNDEBUG_MIGRATION"); !ok {
		EnableBunSqlSilent(true)
		defer EnableBunSqlSilent(false)
	}

	if m.db == nil {
		return fmt.Errorf("database not initialized")
	}

	if err := m.createMigrationTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	migrations := m.allMigrations()
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	for _, migration := range migrations {
		if err := m.runMigration(ctx, migration); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
		}
	}

	if m.logger != nil {
		m.logger.Info("Database migrations completed!")
	}
	return nil
}

func (m *MigrationManager) createMigrationTable(ctx context.Context) error {
	_, err := m.db.NewCreateTable().
		Model((*Migration)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// allMigrations is the built-in sequence plus registered extras. The seed
// step only exists when configuration asks for seeding during migration.
func (m *MigrationManager) allMigrations() []MigrationItem {
	migrations := []MigrationItem{
		{
			Version:     "001",
			Name:        "create_base_tables",
			Description: "Create base table structure",
			Up:          m.createBaseTables,
		},
	}
	if globalConfig != nil && globalConfig.DataMigrateConfig.SeedOnMigrate {
		migrations = append(migrations, MigrationItem{
			Version:     "002",
			Name:        "seed_initial_data",
			Description: "Seed initial data",
			Up:          m.seedInitialData,
		})
	}
	return append(migrations, m.extra...)
}

// runMigration applies one migration unless its version is already
// recorded. The up step and the tracking record commit together.
func (m *MigrationManager) runMigration(ctx context.Context, migration MigrationItem) error {
	applied, err := m.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", migration.Version).
		Exists(ctx)
	if err != nil || applied {
		return err
	}

	err = m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := migration.Up(ctx, tx); err != nil {
			return err
		}
		record := &Migration{
			Version:     migration.Version,
			Name:        migration.Name,
			AppliedAt:   time.Now(),
			Description: migration.Description,
		}
		_, err := tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("Migration applied", "version", migration.Version, "name", migration.Name)
	}
	return nil
}

func (m *MigrationManager) createBaseTables(ctx context.Context, db bun.IDB) error {
	for _, model := range RegisteredModelInstances() {
		_, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to create table %T: %w", model, err)
		}
	}
	return nil
}

// SeedData loads the SQL seed files configured for the current environment.
func (m *MigrationManager) SeedData(ctx context.Context) error {
	if m.db == nil {
		return fmt.Errorf("database not initialized")
	}
	return m.seedInitialData(ctx, m.db)
}

func (m *MigrationManager) seedInitialData(ctx context.Context, db bun.IDB) error {
	seedManager := NewSeedManager(m.db, m.environment)
	if globalConfig != nil && globalConfig.DataSeedConfig.Filepath != "" {
		seedManager.SetRootPath(globalConfig.DataSeedConfig.Filepath)
	}

	if m.logger != nil {
		m.logger.Info("Starting data seeding using SQL files", "environment", m.environment)
	}
	if err := seedManager.Run(ctx); err != nil {
		return fmt.Errorf("SQL file seeding failed: %w", err)
	}
	if m.logger != nil {
		m.logger.Info("SQL file seeding completed")
	}
	return nil
}

// GetAppliedMigrations returns all tracking records in version order.
func (m *MigrationManager) GetAppliedMigrations(ctx context.Context) ([]Migration, error) {
	var migrations []Migration
	err := m.db.NewSelect().
		Model(&migrations).
		Order("version ASC").
		Scan(ctx)
	return migrations, err
}

// RollbackMigration undoes one applied migration through its Down step and
// deletes the tracking record, both in a single transaction.
func (m *MigrationManager) RollbackMigration(ctx context.Context, version string) error {
	applied, err := m.db.NewSelect().
		Model((*Migration)(nil)).
		Where("version = ?", version).
		Exists(ctx)
	if err != nil {
		return err
	}
	if !applied {
		return fmt.Errorf("migration %s has not been applied", version)
	}

	var item *MigrationItem
	migrations := m.allMigrations()
	for i := range migrations {
		if migrations[i].Version == version {
			item = &migrations[i]
			break
		}
	}
	if item == nil || item.Down == nil {
		return fmt.Errorf("migration %s has no rollback step", version)
	}

	err = m.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := item.Down(ctx, tx); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*Migration)(nil)).
			Where("version = ?", version).
			Exec(ctx)
		return err
	})
	if err != nil {
		return err
	}

	if m.logger != nil {
		m.logger.Info("Migration rolled back", "version", version, "name", item.Name)
	}
	return nil
}
