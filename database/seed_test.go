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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

func newSeedTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db := newTestBunDB(t)
	_, err := db.ExecContext(context.Background(),
		"CREATE TABLE seed_events (id INTEGER PRIMARY KEY AUTOINCREMENT, label TEXT NOT NULL)")
	require.NoError(t, err)
	return db
}

func writeSeedFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func seedEventLabels(t *testing.T, db *bun.DB) []string {
	t.Helper()
	var labels []string
	err := db.NewSelect().
		Table("seed_events").
		Column("label").
		Order("id ASC").
		Scan(context.Background(), &labels)
	require.NoError(t, err)
	return labels
}

func TestNewSeedManagerDefaults(t *testing.T) {
	sm := NewSeedManager(nil, "test")
	assert.Equal(t, "configs/sql", sm.rootPath)
	assert.Equal(t, "test", sm.environment)
	assert.NotNil(t, sm.logger)
}

func TestSeedFilesDiscoveryAndOrdering(t *testing.T) {
	root := t.TempDir()
	writeSeedFile(t, root, "common/002_two.sql", "-- two")
	writeSeedFile(t, root, "common/001_one.sql", "-- one")
	writeSeedFile(t, root, "common/final.sql", "-- no numeric prefix, runs last")
	writeSeedFile(t, root, "common/readme.md", "not sql")
	writeSeedFile(t, root, "environments/test/001_env.sql", "-- env")
	writeSeedFile(t, root, "environments/prod/001_prod.sql", "-- other env")

	sm := NewSeedManager(nil, "test")
	sm.SetRootPath(root)

	files, err := sm.Files()
	require.NoError(t, err)
	require.Len(t, files, 4)

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"001_one.sql", "002_two.sql", "final.sql", "001_env.sql"}, names)

	// Common files run before environment files regardless of prefix.
	assert.Equal(t, "common", files[0].Environment)
	assert.Equal(t, "test", files[3].Environment)
	assert.Equal(t, 999, files[2].Order)
}

func TestSeedFileOrderParsing(t *testing.T) {
	sm := NewSeedManager(nil, "test")
	assert.Equal(t, 1, sm.fileOrder("001_users.sql"))
	assert.Equal(t, 5, sm.fileOrder("005_roles.sql"))
	assert.Equal(t, 10, sm.fileOrder("10_extra.sql"))
	assert.Equal(t, 0, sm.fileOrder("0_init.sql"))
	assert.Equal(t, 999, sm.fileOrder("seed.sql"))
}

func TestSeedRunExecutesFilesInOrder(t *testing.T) {
	db := newSeedTestDB(t)
	root := t.TempDir()
	writeSeedFile(t, root, "common/001_one.sql", "INSERT INTO seed_events (label) VALUES ('one');\n")
	writeSeedFile(t, root, "common/002_two.sql", "INSERT INTO seed_events (label) VALUES ('two');\n")
	writeSeedFile(t, root, "environments/test/001_env.sql", "INSERT INTO seed_events (label) VALUES ('env');\n")

	sm := NewSeedManager(db, "test")
	sm.SetRootPath(root)
	require.NoError(t, sm.Run(context.Background()))

	assert.Equal(t, []string{"one", "two", "env"}, seedEventLabels(t, db))
}

func TestSeedRunSplitsMultipleStatements(t *testing.T) {
	db := newSeedTestDB(t)
	root := t.TempDir()
	content := `-- seed a couple of rows
INSERT INTO seed_events (label) VALUES ('first');

-- the second row
INSERT INTO seed_events (label) VALUES ('second');
`
	writeSeedFile(t, root, "common/001_rows.sql", content)

	sm := NewSeedManager(db, "test")
	sm.SetRootPath(root)
	require.NoError(t, sm.Run(context.Background()))

	assert.Equal(t, []string{"first", "second"}, seedEventLabels(t, db))
}

func TestSeedRunExpandsTemplateVariables(t *testing.T) {
	t.Setenv("SEED_REGION", "eu-west")

	db := newSeedTestDB(t)
	root := t.TempDir()
	writeSeedFile(t, root, "environments/staging/001_env.sql",
		"INSERT INTO seed_events (label) VALUES ('{{.ENVIRONMENT}}/{{.SEED_REGION}}');\n")

	sm := NewSeedManager(db, "staging")
	sm.SetRootPath(root)
	require.NoError(t, sm.Run(context.Background()))

	assert.Equal(t, []string{"staging/eu-west"}, seedEventLabels(t, db))
}

func TestSeedRunStopsAtFirstFailure(t *testing.T) {
	db := newSeedTestDB(t)
	root := t.TempDir()
	writeSeedFile(t, root, "common/001_good.sql", "INSERT INTO seed_events (label) VALUES ('good');\n")
	writeSeedFile(t, root, "common/002_bad.sql", "INSERT INTO missing_table (label) VALUES ('bad');\n")
	writeSeedFile(t, root, "common/003_never.sql", "INSERT INTO seed_events (label) VALUES ('never');\n")

	sm := NewSeedManager(db, "test")
	sm.SetRootPath(root)

	err := sm.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQL file execution failed")
	assert.Contains(t, err.Error(), "002_bad.sql")

	// The first file committed before the failure, the third never ran.
	assert.Equal(t, []string{"good"}, seedEventLabels(t, db))
}

func TestSeedRunFailedFileRollsBackItsStatements(t *testing.T) {
	db := newSeedTestDB(t)
	root := t.TempDir()
	content := `INSERT INTO seed_events (label) VALUES ('kept back');
INSERT INTO missing_table (label) VALUES ('bad');
`
	writeSeedFile(t, root, "common/001_partial.sql", content)

	sm := NewSeedManager(db, "test")
	sm.SetRootPath(root)

	require.Error(t, sm.Run(context.Background()))
	assert.Empty(t, seedEventLabels(t, db))
}

func TestSeedRunWithMissingRootDoesNothing(t *testing.T) {
	db := newSeedTestDB(t)

	sm := NewSeedManager(db, "test")
	sm.SetRootPath(filepath.Join(t.TempDir(), "does-not-exist"))

	require.NoError(t, sm.Run(context.Background()))
	assert.Empty(t, seedEventLabels(t, db))
}

func TestSeedRunIgnoresCommentOnlyFiles(t *testing.T) {
	db := newSeedTestDB(t)
	root := t.TempDir()
	writeSeedFile(t, root, "common/001_comments.sql", "-- nothing to do here\n\n-- really nothing\n")

	sm := NewSeedManager(db, "test")
	sm.SetRootPath(root)

	require.NoError(t, sm.Run(context.Background()))
	assert.Empty(t, seedEventLabels(t, db))
}
