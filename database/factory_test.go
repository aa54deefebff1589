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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactoryCreateFromConfigNil(t *testing.T) {
	factory := NewDatabaseFactory()
	_, err := factory.CreateFromConfig(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration cannot be empty")
}

func TestFactoryCreateFromConfigUnsupportedType(t *testing.T) {
	factory := NewDatabaseFactory()
	_, err := factory.CreateFromConfig(&ConnectionConfig{Type: "oracle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database type: oracle")
	assert.Contains(t, err.Error(), "supported types:")
}

func TestFactoryCreateFromConfigAcceptsAliases(t *testing.T) {
	for _, dbType := range []string{"mysql", "postgres", "postgresql", "sqlite", "sqlite3"} {
		factory := NewDatabaseFactory()
		cfg := DefaultConnectionConfig()
		cfg.Type = dbType

		manager, err := factory.CreateFromConfig(cfg)
		require.NoError(t, err, "type %s", dbType)
		assert.NotNil(t, manager)
		assert.Same(t, manager, factory.GetManager())
	}
}

func TestFactoryEnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.example.com")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_USERNAME", "magpie")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "magpie_prod")
	t.Setenv("DB_SSLMODE", "require")
	t.Setenv("DB_CHARSET", "utf8")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_MAX_OPEN_CONNS", "30")
	t.Setenv("DB_CONN_MAX_LIFETIME", "120")
	t.Setenv("DB_ENABLE_RECONNECT", "false")
	t.Setenv("DB_RECONNECT_INTERVAL", "9")
	t.Setenv("DB_ENABLE_QUERY_LOG", "false")

	cfg := DefaultConnectionConfig()
	cfg.Type = "postgres"

	factory := NewDatabaseFactory()
	_, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "db.example.com", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, "magpie", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "magpie_prod", cfg.DBName)
	assert.Equal(t, "require", cfg.SSLMode)
	assert.Equal(t, "utf8", cfg.Charset)
	assert.Equal(t, 3, cfg.MaxIdleConns)
	assert.Equal(t, 30, cfg.MaxOpenConns)
	assert.Equal(t, 120*time.Second, cfg.ConnMaxLifetime)
	assert.False(t, cfg.EnableReconnect)
	assert.Equal(t, 9*time.Second, cfg.ReconnectInterval)
	assert.False(t, cfg.EnableQueryLog)
}

func TestFactoryEnvironmentOverridesIgnoreInvalidNumbers(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")

	cfg := DefaultConnectionConfig()
	cfg.Type = "sqlite"
	cfg.Port = 1234

	factory := NewDatabaseFactory()
	_, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, 1234, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
}

func TestFactoryInitializeDatabase(t *testing.T) {
	ctx := context.Background()
	registerWorkspaceModel(t)

	cfg := sqliteFileConfig(t)
	factory := NewDatabaseFactory()
	_, err := factory.CreateFromConfig(cfg)
	require.NoError(t, err)

	require.NoError(t, factory.InitializeDatabase(ctx, true))
	t.Cleanup(func() { _ = factory.Close() })

	db := factory.GetDB()
	require.NotNil(t, db)
	_, err = db.NewInsert().Model(&workspace{Name: "factory"}).Exec(ctx)
	require.NoError(t, err)

	status := factory.GetHealthStatus(ctx)
	assert.True(t, status.Healthy)
	assert.NotNil(t, factory.GetStats())

	require.NoError(t, factory.Close())
	assert.Nil(t, factory.GetDB())
}

func TestFactoryInitializeDatabaseWithoutManager(t *testing.T) {
	factory := NewDatabaseFactory()
	err := factory.InitializeDatabase(context.Background(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database manager not created")
}

func TestFactoryAccessorsWithoutManager(t *testing.T) {
	factory := NewDatabaseFactory()

	assert.Nil(t, factory.GetDB())
	assert.Nil(t, factory.GetManager())
	assert.Equal(t, &DBStats{}, factory.GetStats())
	require.NoError(t, factory.Close())

	status := factory.GetHealthStatus(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, "Database manager not initialized", status.LastError)
}
