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
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/uptrace/bun"
)

const (
	ansiReset     = "\x1b[0m"
	ansiRed       = "\x1b[31m"
	ansiYellow    = "\x1b[33m"
	ansiGreen     = "\x1b[32m"
	ansiBlue      = "\x1b[34m"
	ansiMagenta   = "\x1b[35m"
	ansiCyan      = "\x1b[36m"
	ansiBGGreen   = "\x1b[42;97m"
	ansiBGYellow  = "\x1b[43;97m"
	ansiBGBlue    = "\x1b[44;97m"
	ansiBGMagenta = "\x1b[45;97m"
	ansiBGRed     = "\x1b[41;97m"
)

// Foreground and background colors keyed by SQL operation. Anything not
// listed renders red.
var (
	queryColors = map[string]string{
		"SELECT": ansiGreen,
		"INSERT": ansiBlue,
		"UPDATE": ansiYellow,
		"DELETE": ansiMagenta,
	}
	queryBGColors = map[string]string{
		"SELECT": ansiBGGreen,
		"INSERT": ansiBGBlue,
		"UPDATE": ansiBGYellow,
		"DELETE": ansiBGMagenta,
	}
)

func paint(s, code string) string { return code + s + ansiReset }

func coloredQuery(event *bun.QueryEvent) string {
	code, ok := queryColors[event.Operation()]
	if !ok {
		code = ansiRed
	}
	return paint(event.Query, code)
}

func highlightedQuery(event *bun.QueryEvent) string {
	code, ok := queryBGColors[event.Operation()]
	if !ok {
		code = ansiBGRed
	}
	return paint(event.Query, code)
}

var bunSqlSilentMode bool

// EnableBunSqlSilent mutes the query hooks, used while migrations run.
func EnableBunSqlSilent(b bool) {
	bunSqlSilentMode = b
}

// QueryHook echoes executed queries with per-operation colors. It stays
// silent until its environment variable switches it on: "1" logs failed
// queries, "2" logs every query.
type QueryHook struct {
	envName string
	enabled bool
	verbose bool
	writer  io.Writer
}

var _ bun.QueryHook = (*QueryHook)(nil)

// NewQueryHook returns a query hook toggled by the MAGPIE_SQL_LOG
// environment variable, writing to standard output.
func NewQueryHook() *QueryHook {
	return &QueryHook{
		envName: "MAGPIE_SQL_LOG",
		writer:  os.Stdout,
	}
}

func (h *QueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *QueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if bunSqlSilentMode {
		return
	}
	enabled, verbose := h.level()
	if !enabled {
		return
	}
	if !verbose && isExpectedQueryError(event.Err) {
		return
	}

	now := time.Now()
	dur := now.Sub(event.StartTime)
	line := []interface{}{
		now.Format("2006-01-02 15:04:05.000"),
		paint(fmt.Sprintf("%15s", "[BUN] ✅"), ansiCyan),
		fmt.Sprintf("%17s", dur.Round(time.Microsecond)),
		"  ", coloredQuery(event),
	}
	if event.Err != nil {
		typ := reflect.TypeOf(event.Err).String()
		line = append(line, "\t", color.New(color.BgRed).Sprintf(" %s ", typ+": "+event.Err.Error()))
	}
	_, _ = fmt.Fprintln(h.writer, line...)
}

// level resolves the effective verbosity. A set environment variable wins
// over the struct fields.
func (h *QueryHook) level() (enabled, verbose bool) {
	enabled, verbose = h.enabled, h.verbose
	if env, ok := os.LookupEnv(h.envName); ok {
		enabled = env != "" && env != "0"
		verbose = env == "2"
	}
	return enabled, verbose
}

// isExpectedQueryError reports errors that are normal query outcomes, not
// failures worth logging at the error level.
func isExpectedQueryError(err error) bool {
	return err == nil || errors.Is(err, sql.ErrNoRows) || errors.Is(err, sql.ErrTxDone)
}

// SlowQueryHook highlights successful queries slower than a threshold. It
// is on by default once registered and can be forced on or off with its
// environment variable ("1" on, anything else off).
type SlowQueryHook struct {
	fromEnv  string
	enabled  bool
	slowTime time.Duration
	writer   io.Writer
}

var _ bun.QueryHook = (*SlowQueryHook)(nil)

// NewSlowQueryHook returns a slow query hook with the given threshold,
// toggled by the MAGPIE_SLOW_SQL_LOG environment variable and writing to
// standard output.
func NewSlowQueryHook(slowTime time.Duration) *SlowQueryHook {
	return &SlowQueryHook{
		fromEnv:  "MAGPIE_SLOW_SQL_LOG",
		enabled:  true,
		slowTime: slowTime,
		writer:   os.Stdout,
	}
}

func (h *SlowQueryHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *SlowQueryHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	if bunSqlSilentMode || event.Err != nil {
		return
	}
	if !h.active() {
		return
	}
	dur := time.Since(event.StartTime)
	if dur <= h.slowTime {
		return
	}
	_, _ = fmt.Fprintln(h.writer,
		time.Now().Format("2006-01-02 15:04:05.000"),
		paint(fmt.Sprintf("%15s", "[BUN_SLOW] 🔴"), ansiYellow),
		fmt.Sprintf("%17s", dur.Round(time.Microsecond)),
		"  ", highlightedQuery(event),
	)
}

func (h *SlowQueryHook) active() bool {
	if env, ok := os.LookupEnv(h.fromEnv); ok {
		return strings.TrimSpace(env) == "1"
	}
	return h.enabled
}
