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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sqliteFileConfig points the manager at a throwaway SQLite file so tests
// never share state through the process-wide in-memory database.
func sqliteFileConfig(t *testing.T) *ConnectionConfig {
	t.Helper()
	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.DBName = filepath.Join(t.TempDir(), "magpie_test.db")
	cfg.HealthCheckInterval = 0
	return cfg
}

func connectedManager(t *testing.T) DatabaseManager {
	t.Helper()
	manager := NewDatabaseManager(sqliteFileConfig(t))
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })
	return manager
}

func TestNewDatabaseManagerNilConfigUsesDefaults(t *testing.T) {
	manager, ok := NewDatabaseManager(nil).(*bunDatabaseManager)
	require.True(t, ok)
	assert.Equal(t, *DefaultConnectionConfig(), *manager.config)
}

func TestManagerConnectAndPing(t *testing.T) {
	ctx := context.Background()
	manager := connectedManager(t)

	assert.NotNil(t, manager.GetDB())
	assert.NotNil(t, manager.GetSQLDB())
	require.NoError(t, manager.Ping(ctx))

	// Connecting again is a no-op.
	require.NoError(t, manager.Connect(ctx))
}

func TestManagerConnectInMemorySQLite(t *testing.T) {
	cfg := sqliteFileConfig(t)
	cfg.DBName = ":memory:"

	manager := NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })

	assert.NotNil(t, manager.GetDB())
}

func TestManagerConnectUnsupportedType(t *testing.T) {
	cfg := sqliteFileConfig(t)
	cfg.Type = "oracle"

	manager := NewDatabaseManager(cfg)
	err := manager.Connect(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type: oracle")
}

func TestManagerDisconnect(t *testing.T) {
	ctx := context.Background()
	manager := connectedManager(t)

	require.NoError(t, manager.Disconnect())
	assert.Nil(t, manager.GetDB())
	assert.Nil(t, manager.GetSQLDB())

	err := manager.Ping(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not connected")

	// Disconnecting twice is harmless.
	require.NoError(t, manager.Disconnect())
}

func TestManagerReconnectKeepsFileData(t *testing.T) {
	ctx := context.Background()
	manager := connectedManager(t)
	db := manager.GetDB()

	_, err := db.ExecContext(ctx, "CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO notes (body) VALUES ('kept')")
	require.NoError(t, err)

	require.NoError(t, manager.Reconnect(ctx))

	var count int
	err = manager.GetDB().NewSelect().Table("notes").ColumnExpr("count(*)").Scan(ctx, &count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestManagerHealthCheck(t *testing.T) {
	ctx := context.Background()
	manager := connectedManager(t)

	status := manager.HealthCheck(ctx)
	require.NotNil(t, status)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Empty(t, status.LastError)
	assert.False(t, status.LastCheckTime.IsZero())
	assert.Equal(t, 100, status.MaxOpenConns)
}

func TestManagerHealthCheckWithoutConnection(t *testing.T) {
	manager := NewDatabaseManager(sqliteFileConfig(t))

	status := manager.HealthCheck(context.Background())
	require.NotNil(t, status)
	assert.False(t, status.Healthy)
	assert.False(t, status.Connected)
	assert.Equal(t, "Database not initialized", status.LastError)
}

func TestManagerGetStats(t *testing.T) {
	manager := NewDatabaseManager(sqliteFileConfig(t))
	assert.Equal(t, &DBStats{}, manager.GetStats())

	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() { _ = manager.Disconnect() })

	stats := manager.GetStats()
	require.NotNil(t, stats)
	assert.Equal(t, 100, stats.MaxOpenConns)
}

func TestManagerRunMigrations(t *testing.T) {
	ctx := context.Background()
	registerWorkspaceModel(t)
	manager := connectedManager(t)

	require.NoError(t, manager.RunMigrations(ctx))

	_, err := manager.GetDB().NewInsert().Model(&workspace{Name: "via manager"}).Exec(ctx)
	require.NoError(t, err)
}

func TestManagerRunMigrationsWithoutConnection(t *testing.T) {
	manager := NewDatabaseManager(sqliteFileConfig(t))
	err := manager.RunMigrations(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not initialized")
}

func TestManagerSeedDataWithoutConnection(t *testing.T) {
	manager := NewDatabaseManager(sqliteFileConfig(t))
	err := manager.SeedData(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database not initialized")
}
