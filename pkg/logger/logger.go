/*
Copyright 2025 Flant JSC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/deckhouse/deckhouse/pkg/log"
)

const (
	OutputStdout  = "stdout"
	OutputStderr  = "stderr"
	OutputDiscard = "discard"
)

// LevelTrace is below debug and enabled by a debug verbosity above zero.
const LevelTrace = slog.Level(-8)

// NewLogger builds the root logger. Unknown levels fall back to info and
// unknown outputs to stdout.
func NewLogger(level, output string, debugVerbosity int) *log.Logger {
	return New(level, detectOutput(output), debugVerbosity)
}

// New builds a logger that writes to w.
func New(level string, w io.Writer, debugVerbosity int) *log.Logger {
	return log.NewLogger(log.Options{
		Level:  detectLevel(level, debugVerbosity),
		Output: w,
	})
}

// SetDefaultLogger routes log/slog default output through l.
func SetDefaultLogger(l *log.Logger) {
	slog.SetDefault(slog.New(l.Handler()))
}

func detectLevel(level string, debugVerbosity int) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return LevelTrace
	case "debug":
		if debugVerbosity > 0 {
			return LevelTrace
		}
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func detectOutput(output string) io.Writer {
	switch strings.ToLower(strings.TrimSpace(output)) {
	case OutputDiscard:
		return io.Discard
	case OutputStderr:
		return os.Stderr
	default:
		return os.Stdout
	}
}
