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

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger is the logrus logger used throughout the module.
type Logger = logrus.Logger

// PathFormat selects how a caller's source path renders in log lines.
type PathFormat int

const (
	PathFormatTruncatedRelative PathFormat = iota
	PathFormatFilenameOnly
	PathFormatShortRelative
	PathFormatFullRelative
)

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

var (
	defaultLevel     = logrus.DebugLevel
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	consoleLogFormat = EnvDefaultString("CONSOLE_LOG_FORMAT", "text")
)

// ConfigureConsoleLogFormat switches console output between "text" and "json".
func ConfigureConsoleLogFormat(format string) {
	if strings.ToLower(strings.TrimSpace(format)) == "json" {
		consoleLogFormat = "json"
	} else {
		consoleLogFormat = "text"
	}
}

var logLevelNames = map[string]logrus.Level{
	"trace":   logrus.TraceLevel,
	"debug":   logrus.DebugLevel,
	"info":    logrus.InfoLevel,
	"warn":    logrus.WarnLevel,
	"warning": logrus.WarnLevel,
	"error":   logrus.ErrorLevel,
	"fatal":   logrus.FatalLevel,
	"panic":   logrus.PanicLevel,
}

// ParseLogLevel maps a level name to a logrus level. Unknown or empty names
// read as info.
func ParseLogLevel(s string) logrus.Level {
	if lvl, ok := logLevelNames[strings.ToLower(strings.TrimSpace(s))]; ok {
		return lvl
	}
	return logrus.InfoLevel
}

// RegisterLogger makes a logger addressable by name for level control.
func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

// SetAllLoggersLevel applies lvl to every registered logger and to the
// logrus standard logger.
func SetAllLoggersLevel(lvl logrus.Level) {
	defaultLevel = lvl
	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(lvl)
	}
	logrus.SetLevel(lvl)
}

// SetLoggerLevel adjusts one registered logger, reporting whether the name
// was known.
func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	lg := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if lg == nil {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

func ConfigureLogLevel(levelStr string) {
	SetAllLoggersLevel(ParseLogLevel(levelStr))
}

// consoleWriterHook writes formatted entries to stdout. The logger's own
// output is discarded, so the hook is the only sink.
type consoleWriterHook struct {
	formatter logrus.Formatter
}

func (h *consoleWriterHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *consoleWriterHook) Fire(e *logrus.Entry) error {
	if e.Level > defaultLevel {
		return nil
	}
	b, err := h.formatter.Format(e)
	if err == nil {
		_, err = os.Stdout.Write(b)
	}
	return err
}

// NewLogger creates a named logger that writes formatted lines to stdout
// through a hook, and registers it for level control by name.
func NewLogger(name string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(defaultLevel)
	l.SetReportCaller(true)
	if consoleLogFormat == "json" {
		l.SetFormatter(&JSONLogFormatter{
			LoggerName:      name,
			TimestampFormat: defaultTimestampFormat,
			PathFmt:         PathFormatFullRelative,
		})
	} else {
		l.SetFormatter(&Log4jColorFormatter{
			LoggerName:      name,
			TimestampFormat: defaultTimestampFormat,
			PathFmt:         PathFormatTruncatedRelative,
			ColorCaller:     true,
			NameWidth:       10,
			CallerWidth:     25,
		})
	}
	l.AddHook(&consoleWriterHook{formatter: l.Formatter})
	RegisterLogger(name, l)
	return l
}

func timestampFormat(custom string) string {
	if custom != "" {
		return custom
	}
	return defaultTimestampFormat
}

// callerPath renders frame's location in the given format. width only
// matters for the truncated format, which compacts directories so path
// plus line number fit inside it.
func callerPath(frame *runtime.Frame, format PathFormat, width int) string {
	switch format {
	case PathFormatFilenameOnly:
		return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
	case PathFormatShortRelative:
		return fmt.Sprintf("%s:%d", shortRelative(frame.File), frame.Line)
	case PathFormatFullRelative:
		rel := moduleRelative(filepath.ToSlash(frame.File))
		return fmt.Sprintf("%s:%d", filepath.FromSlash(rel), frame.Line)
	default:
		rel := moduleRelative(filepath.ToSlash(frame.File))
		line := strconv.Itoa(frame.Line)
		if width > 0 {
			rel = dotPathCompact(rel, width-len(line)-1)
		}
		return rel + ":" + line
	}
}

// Log4jColorFormatter renders entries in a log4j-like colored layout:
// timestamp, level, pid, thread, logger name, caller, message.
type Log4jColorFormatter struct {
	LoggerName      string
	TimestampFormat string
	PathFmt         PathFormat
	ColorCaller     bool
	NameWidth       int
	CallerWidth     int
}

func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	caller := ""
	if entry.Caller != nil {
		loc := callerPath(entry.Caller, f.PathFmt, f.CallerWidth)
		if f.CallerWidth > 0 {
			loc = padLeftRunes(loc, f.CallerWidth)
		}
		caller = " " + loc
		if f.ColorCaller {
			caller = colorFaint(caller)
		}
	}
	line := fmt.Sprintf("%s %s %s - %s %s%s %s %s\n",
		time.Now().Format(timestampFormat(f.TimestampFormat)),
		colorLevel(padLeft(strings.ToUpper(entry.Level.String()), 7), entry.Level),
		colorMagenta(fmt.Sprintf("%-6d", os.Getpid())),
		colorMagenta("[main]"),
		colorCyan(padLeft(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth)),
		caller,
		colorFaint(":"),
		entry.Message,
	)
	return []byte(line), nil
}

// JSONLogFormatter renders entries as one JSON object per line.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
	PathFmt         PathFormat
}

type jsonLogRecord struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Logger  string                 `json:"logger"`
	Caller  string                 `json:"caller"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    time.Now().Format(timestampFormat(f.TimestampFormat)),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		switch f.PathFmt {
		case PathFormatFilenameOnly, PathFormatShortRelative, PathFormatFullRelative:
			rec.Caller = callerPath(entry.Caller, f.PathFmt, 0)
		default:
			rel := moduleRelative(filepath.ToSlash(entry.Caller.File))
			rec.Caller = fmt.Sprintf("%s:%d", filepath.Base(rel), entry.Caller.Line)
		}
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			rec.Fields[k] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

const (
	ansiReset   = "\x1b[0m"
	ansiFaint   = "\x1b[2m"
	ansiRed     = "\x1b[31m"
	ansiYellow  = "\x1b[33m"
	ansiGreen   = "\x1b[32m"
	ansiBlue    = "\x1b[34m"
	ansiMagenta = "\x1b[35m"
	ansiCyan    = "\x1b[36m"
)

func paint(s, code string) string { return code + s + ansiReset }

func colorMagenta(s string) string { return paint(s, ansiMagenta) }

func colorCyan(s string) string { return paint(s, ansiCyan) }

func colorFaint(s string) string { return paint(s, ansiFaint) }

var levelColors = map[logrus.Level]string{
	logrus.ErrorLevel: ansiRed,
	logrus.FatalLevel: ansiRed,
	logrus.PanicLevel: ansiRed,
	logrus.WarnLevel:  ansiYellow,
	logrus.InfoLevel:  ansiGreen,
	logrus.DebugLevel: ansiBlue,
}

func colorLevel(s string, level logrus.Level) string {
	code, ok := levelColors[level]
	if !ok {
		code = ansiMagenta
	}
	return paint(s, code)
}

func padLeft(s string, width int) string { return fmt.Sprintf("%*s", width, s) }

func limitRunes(s string, n int) string {
	if r := []rune(s); len(r) > n {
		return string(r[:n])
	}
	return s
}

func padLeftRunes(s string, width int) string {
	if pad := width - len([]rune(s)); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}

var (
	moduleRootOnce sync.Once
	moduleRoot     string
	mainBaseOnce   sync.Once
	mainBase       string
)

// moduleRelative strips the module root from an absolute source path. When
// no go.mod can be located above the path, it falls back to searching for
// the main module's base name inside it.
func moduleRelative(p string) string {
	moduleRootOnce.Do(func() { moduleRoot = locateModuleRoot(p) })
	if moduleRoot != "" {
		if rel, ok := strings.CutPrefix(p, moduleRoot); ok {
			return strings.TrimPrefix(rel, "/")
		}
	}
	if base := mainModuleBase(); base != "" {
		if idx := strings.Index(p, base); idx >= 0 {
			return p[idx:]
		}
	}
	return p
}

func locateModuleRoot(p string) string {
	for dir := filepath.Dir(p); ; {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.ToSlash(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func mainModuleBase() string {
	mainBaseOnce.Do(func() {
		info, ok := debug.ReadBuildInfo()
		if !ok || info.Main.Path == "" {
			return
		}
		mainBase = info.Main.Path[strings.LastIndex(info.Main.Path, "/")+1:]
	})
	return mainBase
}

// shortRelative keeps only the last directory and the filename.
func shortRelative(p string) string {
	parts := strings.Split(moduleRelative(filepath.ToSlash(p)), "/")
	if n := len(parts); n >= 2 {
		return parts[n-2] + "/" + parts[n-1]
	}
	return parts[0]
}

// dotPathCompact renders a slash path as a dotted, log4j style location and
// squeezes it under max characters. Directories abbreviate to their first
// letter one at a time, then the filename itself loses its middle.
func dotPathCompact(p string, max int) string {
	if max <= 0 {
		return ""
	}
	parts := strings.Split(filepath.ToSlash(p), "/")
	if len(parts) == 0 {
		return ""
	}
	dirs, filename := parts[:len(parts)-1], parts[len(parts)-1]

	dotted := func() string {
		if len(dirs) == 0 {
			return filename
		}
		return strings.Join(dirs, ".") + "." + filename
	}
	out := dotted()
	if len(out) <= max {
		return out
	}
	for i := range dirs {
		if r := []rune(dirs[i]); len(r) > 0 {
			dirs[i] = string(r[0])
		}
		if out = dotted(); len(out) <= max {
			return out
		}
	}

	base, ext := filename, ""
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		base, ext = filename[:idx], filename[idx:]
	}
	br := []rune(base)
	if len(br) == 0 {
		if r := []rune(filename); len(r) > max {
			return string(r[len(r)-max:])
		}
		return filename
	}
	prefix := ""
	if len(dirs) > 0 {
		prefix = strings.Join(dirs, ".") + "."
	}
	head := string(br[0])
	keep := max - len(prefix) - len(head) - 2 - len(ext)
	if keep < 0 {
		keep = 0
	}
	if keep > len(br)-1 {
		keep = len(br) - 1
	}
	tail := ""
	if keep > 0 {
		tail = string(br[len(br)-keep:])
	}
	out = prefix + head + ".." + tail + ext
	if len(out) > max {
		r := []rune(out)
		return string(r[len(r)-max:])
	}
	return out
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, _ := strconv.ParseBool(v)
		return b
	}
	return def
}
