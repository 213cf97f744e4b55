package debug

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	file     *os.File
	mu       sync.Mutex
	enabled  bool
	logger   = newLogger(io.Discard)
	counters = make(map[string]int)
)

func newLogger(w io.Writer) *charmlog.Logger {
	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.000",
		Level:           charmlog.DebugLevel,
	})
	return l
}

// Enable starts debug logging to ~/.config/lightful/debug.log
func Enable() error {
	mu.Lock()
	defer mu.Unlock()

	if enabled {
		return nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}
	dir := filepath.Join(homeDir, ".config", "lightful")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(filepath.Join(dir, "debug.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	file = f
	enabled = true
	logger = newLogger(f)
	logger.Info("=== Debug logging started ===", "cat", "debug")

	return nil
}

// EnableTo sends log output to w instead of the debug file (stderr in
// headless mode, buffers in tests).
func EnableTo(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	enabled = true
	logger = newLogger(w)
}

// Disable stops debug logging
func Disable() {
	mu.Lock()
	defer mu.Unlock()

	closeFile()
	enabled = false
	logger = newLogger(io.Discard)
}

func closeFile() {
	if file != nil {
		file.Close()
		file = nil
	}
}

// Enabled reports whether any log output is active.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return enabled
}

func current() *charmlog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Log writes a debug message under a category
func Log(category, format string, args ...any) {
	current().Debug(fmt.Sprintf(format, args...), "cat", category)
}

func Info(category, format string, args ...any) {
	current().Info(fmt.Sprintf(format, args...), "cat", category)
}

// Warn is used for timing anomalies and dropped input: never fatal.
func Warn(category, format string, args ...any) {
	current().Warn(fmt.Sprintf(format, args...), "cat", category)
}

func Error(category, format string, args ...any) {
	current().Error(fmt.Sprintf(format, args...), "cat", category)
}

// LogEvery logs only every N calls (use for high-frequency events)
func LogEvery(n int, category, format string, args ...any) {
	mu.Lock()
	key := category + format
	counters[key]++
	count := counters[key]
	mu.Unlock()

	if n > 0 && count%n == 0 {
		Log(category, format+" (every %d, count=%d)", append(args, n, count)...)
	}
}
