/*
 * Copyright 2024 The Previewd Authors
 *
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

// Package logging provides the application's structured key=value logger
package logging

import (
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/previewcache/previewd/pkg/observability/logging/level"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

var (
	_ Logger    = &logger{}
	_ io.Writer = &logger{}
)

type Logger interface {
	SetLogLevel(level.Level)
	Level() level.Level
	Close()
	//
	Log(logLevel level.Level, event string, detail Pairs)
	Debug(event string, detail Pairs)
	Info(event string, detail Pairs)
	Warn(event string, detail Pairs)
	Error(event string, detail Pairs)
	Fatal(code int, event string, detail Pairs)
}

// Pairs represents a key=value pair that helps to describe a log event
type Pairs map[string]any

// Options describes the subset of configuration consumed by the logger
type Options struct {
	// LogFile is the path to the log file; stdout is used when empty
	LogFile string `yaml:"log_file,omitempty"`
	// LogLevel is the minimum level to emit: debug, info, warn or error
	LogLevel string `yaml:"log_level,omitempty"`
}

// NewOptions returns Options with default values set
func NewOptions() *Options {
	return &Options{LogLevel: string(level.Info)}
}

// New returns a Logger for the provided logging options. When a log file is
// configured, output is rotated with lumberjack.
func New(o *Options) Logger {
	l := &logger{
		now: time.Now,
	}
	if o == nil || o.LogFile == "" {
		l.writer = os.Stdout
	} else {
		l.writer = &lumberjack.Logger{
			Filename:   o.LogFile,
			MaxSize:    256, // megabytes
			MaxBackups: 24,
			MaxAge:     7, // days
			Compress:   true,
		}
	}
	if c, ok := l.writer.(io.Closer); ok && c != nil {
		l.closer = c
	}
	if o != nil {
		l.SetLogLevel(level.Level(o.LogLevel))
	} else {
		l.SetLogLevel(level.Info)
	}
	return l
}

// NoopLogger returns a Logger that discards all events
func NoopLogger() Logger {
	return &logger{
		levelID: level.InfoID,
		level:   level.Info,
		now:     time.Now,
	}
}

// StreamLogger returns a Logger that writes to the provided io.Writer
func StreamLogger(w io.Writer, logLevel level.Level) Logger {
	l := &logger{
		writer: w,
		now:    time.Now,
	}
	if c, ok := l.writer.(io.Closer); ok && c != nil {
		l.closer = c
	}
	l.SetLogLevel(logLevel)
	return l
}

// ConsoleLogger returns a Logger that writes to stdout
func ConsoleLogger(logLevel level.Level) Logger {
	l := &logger{
		writer: os.Stdout,
		now:    time.Now,
	}
	l.SetLogLevel(logLevel)
	return l
}

type logger struct {
	level   level.Level
	levelID level.ID
	writer  io.Writer
	closer  io.Closer
	mtx     sync.Mutex
	now     func() time.Time
}

func (l *logger) Write(b []byte) (int, error) {
	if l.writer == nil {
		return 0, nil
	}
	return l.writer.Write(b)
}

func (l *logger) SetLogLevel(logLevel level.Level) {
	id := level.GetID(logLevel)
	if id == 0 {
		logLevel = level.Info
		id = level.InfoID
	}
	l.level = logLevel
	l.levelID = id
}

func (l *logger) Level() level.Level {
	return l.level
}

func (l *logger) Log(logLevel level.Level, event string, detail Pairs) {
	lid := level.GetID(logLevel)
	if lid == 0 || lid < l.levelID {
		return
	}
	l.log(logLevel, event, detail)
}

func (l *logger) logConditionally(logLevel level.Level, levelID level.ID,
	event string, detail Pairs) {
	if l.levelID > levelID {
		return
	}
	l.log(logLevel, event, detail)
}

func (l *logger) Debug(event string, detail Pairs) {
	l.logConditionally(level.Debug, level.DebugID, event, detail)
}

func (l *logger) Info(event string, detail Pairs) {
	l.logConditionally(level.Info, level.InfoID, event, detail)
}

func (l *logger) Warn(event string, detail Pairs) {
	l.logConditionally(level.Warn, level.WarnID, event, detail)
}

func (l *logger) Error(event string, detail Pairs) {
	l.logConditionally(level.Error, level.ErrorID, event, detail)
}

func (l *logger) Fatal(code int, event string, detail Pairs) {
	l.log(level.Fatal, event, detail)
	if code < 0 {
		// tests send a negative code to avoid exiting the test process
		return
	}
	if code == 0 {
		code = 1
	}
	os.Exit(code)
}

type item struct {
	key string
	val string
}

func (i *item) Bytes() []byte {
	return append([]byte(i.key), append([]byte(equal), []byte(i.val)...)...)
}

const (
	space   = " "
	equal   = "="
	newline = "\n"
)

func (l *logger) log(logLevel level.Level, event string, detail Pairs) {
	if l.writer == nil {
		return
	}
	ts := l.now()
	if strings.HasPrefix(event, space) || strings.HasSuffix(event, space) {
		event = strings.TrimSpace(event)
	}

	logLine := []byte(
		"time=" + ts.UTC().Format(time.RFC3339Nano) + space +
			"app=previewd" + space +
			"level=" + string(logLevel) + space +
			"event=" + quoteAsNeeded(event),
	)

	if len(detail) > 0 {
		logLine = append(logLine, []byte(space)...)
		keyPairs := make([]item, len(detail))
		var i int
		for k, v := range detail {
			var s string
			var ok bool
			if s, ok = v.(string); ok {
				s = quoteAsNeeded(s)
			} else if stringer, ok := v.(fmt.Stringer); ok {
				s = quoteAsNeeded(stringer.String())
			} else if err, ok := v.(error); ok {
				s = quoteAsNeeded(err.Error())
			} else {
				s = fmt.Sprintf("%v", v)
			}
			keyPairs[i] = item{k, s}
			i++
		}
		slices.SortFunc(keyPairs, func(a, b item) int {
			return cmp.Compare(a.key, b.key)
		})
		for j, v := range keyPairs {
			if j > 0 {
				logLine = append(logLine, []byte(space)...)
			}
			logLine = append(logLine, v.Bytes()...)
		}
	}

	logLine = append(logLine, []byte(newline)...)
	l.mtx.Lock()
	l.writer.Write(logLine)
	l.mtx.Unlock()
}

func quoteAsNeeded(s string) string {
	if !strings.Contains(s, " ") {
		return s
	}
	return strconv.Quote(s)
}

func (l *logger) Close() {
	if l.closer != nil {
		l.closer.Close()
	}
}
