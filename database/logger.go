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
	"fmt"
	"github.com/tomoncle/magpie/utils"
	"strings"
	"sync"
)

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var logLevelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

// String renders the level name; out-of-range values read as DEBUG.
func (l LogLevel) String() string {
	if l < LogLevelDebug || l > LogLevelError {
		return logLevelNames[LogLevelDebug]
	}
	return logLevelNames[l]
}

// Logger is the logging contract this package writes through. Fields are
// alternating key, value pairs appended to the message.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// InitLogger installs log as the package logger. Only the first non-nil
// logger wins; later calls leave the installed one in place.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

// GetLogger returns the package logger, installing a DefaultLogger on first
// use when none was provided.
func GetLogger() Logger {
	globalLoggerMu.RLock()
	installed := globalLogger
	globalLoggerMu.RUnlock()
	if installed != nil {
		return installed
	}

	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = &DefaultLogger{
			level:  LogLevelInfo,
			logger: utils.NewLogger("DATABASE"),
		}
	}
	return globalLogger
}

// DefaultLogger adapts the utils logger to the Logger interface.
type DefaultLogger struct {
	level  LogLevel
	logger *utils.Logger
}

func (d *DefaultLogger) Debug(msg string, fields ...interface{}) {
	d.logger.Debug(msg + d.log(fields...))
}

func (d *DefaultLogger) Info(msg string, fields ...interface{}) {
	d.logger.Info(msg + d.log(fields...))
}

func (d *DefaultLogger) Warn(msg string, fields ...interface{}) {
	d.logger.Warn(msg + d.log(fields...))
}

func (d *DefaultLogger) Error(msg string, fields ...interface{}) {
	d.logger.Error(msg + d.log(fields...))
}

func (d *DefaultLogger) SetLevel(level LogLevel) {
	d.level = level
	utils.SetLoggerLevel("DATABASE", strings.ToLower(level.String()))
}

// log renders key, value pairs as " k=v k=v ". A trailing key without a
// value is dropped.
func (d *DefaultLogger) log(fields ...interface{}) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(" ")
	for i := 0; i+1 < len(fields); i += 2 {
		fmt.Fprintf(&b, "%v=%v ", fields[i], fields[i+1])
	}
	return b.String()
}
