package debug

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
)

var (
	// IsEnabled controls whether debug messages are output
	IsEnabled bool
	// CurrentLevel is the minimum level of messages to output
	CurrentLevel LogLevel

	mu         sync.RWMutex
	logger     *log.Logger
	levelNames = map[LogLevel]string{
		LevelDebug:   "DEBUG",
		LevelInfo:    "INFO",
		LevelWarning: "WARNING",
		LevelError:   "ERROR",
	}
	levelMap = map[string]LogLevel{
		"DEBUG":   LevelDebug,
		"INFO":    LevelInfo,
		"WARNING": LevelWarning,
		"WARN":    LevelWarning,
		"ERROR":   LevelError,
	}
)

func init() {
	logger = log.New(os.Stdout, "", 0)
	loadFromEnv()
}

// loadFromEnv reads DEBUG and LOG_LEVEL.
func loadFromEnv() {
	mu.Lock()
	debugEnv := os.Getenv("DEBUG")
	IsEnabled = debugEnv == "true" || debugEnv == "1"

	levelEnv := strings.ToUpper(os.Getenv("LOG_LEVEL"))
	if level, exists := levelMap[levelEnv]; exists {
		CurrentLevel = level
	} else {
		CurrentLevel = LevelInfo
	}
	mu.Unlock()
}

// Log prints a message with the specified level if debugging is enabled
func Log(level LogLevel, format string, v ...interface{}) {
	output(level, format, v...)
}

func output(level LogLevel, format string, v ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()

	if !IsEnabled || level < CurrentLevel {
		return
	}

	// Skip output() and the exported wrapper.
	pc, file, line, _ := runtime.Caller(2)
	funcName := runtime.FuncForPC(pc).Name()

	message := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format("2006-01-02 15:04:05.000")

	logger.Printf("[%s] [%s] [%s:%d] [%s] %s\n",
		levelNames[level],
		timestamp,
		file,
		line,
		funcName,
		message,
	)
}

// Debug logs a debug level message
func Debug(format string, v ...interface{}) {
	output(LevelDebug, format, v...)
}

// Info logs an info level message
func Info(format string, v ...interface{}) {
	output(LevelInfo, format, v...)
}

// Warning logs a warning level message
func Warning(format string, v ...interface{}) {
	output(LevelWarning, format, v...)
}

// Error logs an error level message
func Error(format string, v ...interface{}) {
	output(LevelError, format, v...)
}

// Fatal logs an error regardless of DEBUG and exits the process.
func Fatal(format string, v ...interface{}) {
	mu.RLock()
	logger.Printf("[FATAL] [%s] %s\n", time.Now().Format("2006-01-02 15:04:05.000"), fmt.Sprintf(format, v...))
	mu.RUnlock()
	os.Exit(1)
}

// Reinitialize updates the debug settings based on current environment variables
func Reinitialize() {
	loadFromEnv()

	if IsEnabled {
		Info("Debug logging reinitialized - Enabled: %v, Level: %s", IsEnabled, levelNames[CurrentLevel])
	}
}
