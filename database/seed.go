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
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/uptrace/bun"
)

// SeedManager discovers and executes SQL files to seed data. Files live
// under <root>/common plus <root>/environments/<env>, run in ascending
// numeric-prefix order (common first), and each file executes inside its
// own transaction.
type SeedManager struct {
	db          *bun.DB
	environment string
	rootPath    string
	logger      Logger
}

// SeedFile describes a SQL file scheduled for execution.
type SeedFile struct {
	Path        string
	Name        string
	Order       int
	Environment string
	ModTime     time.Time
}

// SeedResult is the outcome of one SQL file.
type SeedResult struct {
	File         string
	Success      bool
	Error        error
	Duration     time.Duration
	RowsAffected int64
}

// NewSeedManager creates a seeder for the given environment with the
// default root path "configs/sql".
func NewSeedManager(db *bun.DB, environment string) *SeedManager {
	return &SeedManager{
		db:          db,
		environment: environment,
		rootPath:    "configs/sql",
		logger:      GetLogger(),
	}
}

// SetRootPath sets the root directory from which SQL files are loaded.
func (s *SeedManager) SetRootPath(path string) {
	s.rootPath = path
}

// Run executes all discovered SQL files in order, stopping at the first
// failure.
func (s *SeedManager) Run(ctx context.Context) error {
	s.logger.Info("Starting SQL seeding", "environment", s.environment, "sql_path", s.rootPath)

	files, err := s.Files()
	if err != nil {
		return fmt.Errorf("failed to get SQL files: %w", err)
	}
	if len(files) == 0 {
		s.logger.Info("No SQL files found to execute")
		return nil
	}

	for _, file := range files {
		result := s.runFile(ctx, file)
		if !result.Success {
			s.logger.Error("SQL file execution failed", "file", result.File, "error", result.Error.Error())
			return fmt.Errorf("SQL file execution failed %s: %w", result.File, result.Error)
		}
		s.logger.Info("SQL file executed successfully",
			"file", result.File,
			"duration", result.Duration.String(),
			"rows_affected", result.RowsAffected,
		)
	}

	s.logger.Info("SQL seeding completed", "total_files", len(files), "environment", s.environment)
	return nil
}

// Files lists the SQL files to run. Common files sort before environment
// files, numeric prefixes order files within each group.
func (s *SeedManager) Files() ([]SeedFile, error) {
	files, err := s.filesFromDir(filepath.Join(s.rootPath, "common"), "common")
	if err != nil {
		return nil, fmt.Errorf("failed to get common SQL files: %w", err)
	}

	envPath := filepath.Join(s.rootPath, "environments", s.environment)
	if _, err := os.Stat(envPath); err == nil {
		envFiles, err := s.filesFromDir(envPath, s.environment)
		if err != nil {
			return nil, fmt.Errorf("failed to get environment SQL files: %w", err)
		}
		files = append(files, envFiles...)
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].Environment != files[j].Environment {
			return files[i].Environment == "common"
		}
		return files[i].Order < files[j].Order
	})
	return files, nil
}

func (s *SeedManager) filesFromDir(dir, environment string) ([]SeedFile, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, nil
	}

	var files []SeedFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".sql") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, SeedFile{
			Path:        path,
			Name:        d.Name(),
			Order:       s.fileOrder(d.Name()),
			Environment: environment,
			ModTime:     info.ModTime(),
		})
		return nil
	})
	return files, err
}

// fileOrder reads a numeric "NNN_" filename prefix. Files without one run
// last, at order 999.
func (s *SeedManager) fileOrder(filename string) int {
	i := 0
	for i < len(filename) && filename[i] >= '0' && filename[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(filename) || filename[i] != '_' {
		return 999
	}
	order, err := strconv.Atoi(filename[:i])
	if err != nil {
		return 999
	}
	return order
}

func (s *SeedManager) runFile(ctx context.Context, file SeedFile) SeedResult {
	start := time.Now()
	result := SeedResult{File: file.Path}

	statements, err := s.loadStatements(file.Path)
	if err != nil {
		result.Error = err
		result.Duration = time.Since(start)
		return result
	}
	if len(statements) == 0 {
		result.Success = true
		result.Duration = time.Since(start)
		return result
	}

	var rows int64
	err = s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, stmt := range statements {
			res, execErr := tx.ExecContext(ctx, stmt)
			if execErr != nil {
				return fmt.Errorf("failed to execute SQL statement: %s, error: %w", stmt, execErr)
			}
			n, _ := res.RowsAffected()
			rows += n
		}
		return nil
	})
	if err != nil {
		result.Error = err
	} else {
		result.Success = true
		result.RowsAffected = rows
	}
	result.Duration = time.Since(start)
	return result
}

func (s *SeedManager) loadStatements(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	expanded, err := s.expandVariables(string(content))
	if err != nil {
		return nil, err
	}
	return splitStatements(expanded), nil
}

// expandVariables renders the file through text/template with the process
// environment plus ENVIRONMENT and TIMESTAMP, so seed files may reference
// values like {{.ENVIRONMENT}}.
func (s *SeedManager) expandVariables(content string) (string, error) {
	if !strings.Contains(content, "{{") {
		return content, nil
	}

	tmpl, err := template.New("sql").Parse(content)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	vars := map[string]string{
		"ENVIRONMENT": s.environment,
		"TIMESTAMP":   time.Now().Format("2006-01-02 15:04:05"),
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			if _, reserved := vars[k]; !reserved {
				vars[k] = v
			}
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}
	return buf.String(), nil
}

// splitStatements breaks file content into ";"-terminated statements,
// dropping blank lines and "--" comments. A trailing statement without a
// terminator still runs.
func splitStatements(content string) []string {
	var statements []string
	var current []string
	flush := func() {
		if stmt := strings.TrimSpace(strings.Join(current, " ")); stmt != "" {
			statements = append(statements, stmt)
		}
		current = current[:0]
	}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		current = append(current, line)
		if strings.HasSuffix(line, ";") {
			flush()
		}
	}
	flush()
	return statements
}
