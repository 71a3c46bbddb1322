package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Level gates which log() calls actually reach the writers. Debug is
// the most verbose; Fatal always prints and always exits.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// LevelFromEnv reads MADPROXY_LOG_LEVEL ("debug", "info", "warn",
// "error"; case-insensitive) and returns the matching Level, defaulting
// to LevelInfo when unset or unrecognized.
func LevelFromEnv() Level {
	switch strings.ToLower(os.Getenv("MADPROXY_LOG_LEVEL")) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

type Logger struct {
	*log.Logger
	fileLogger *lumberjack.Logger
	level      Level
	mu         sync.Mutex
	buffer     []string
	maxBuffer  int
}

type Config struct {
	Enabled    bool
	FilePath   string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func New() *Logger {
	return &Logger{
		Logger:    log.New(os.Stdout, "", 0),
		level:     LevelFromEnv(),
		buffer:    make([]string, 0, 1000),
		maxBuffer: 1000,
	}
}

func NewWithConfig(cfg *Config) *Logger {
	writers := []io.Writer{os.Stdout}

	var fileLogger *lumberjack.Logger
	if cfg != nil && cfg.Enabled && cfg.FilePath != "" {
		fileLogger = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, fileLogger)
	}

	multiWriter := io.MultiWriter(writers...)

	return &Logger{
		Logger:     log.New(multiWriter, "", 0),
		fileLogger: fileLogger,
		level:      LevelFromEnv(),
		buffer:     make([]string, 0, 1000),
		maxBuffer:  1000,
	}
}

func (l *Logger) log(level Level, name, format string, args ...any) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	message := fmt.Sprintf(format, args...)
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, name, message)

	// Ring buffer of recent lines, independent of the configured
	// verbosity, so a crash dump can include recent history.
	l.mu.Lock()
	l.buffer = append(l.buffer, logLine)
	if len(l.buffer) > l.maxBuffer {
		// Keep only the last maxBuffer entries
		l.buffer = l.buffer[len(l.buffer)-l.maxBuffer:]
	}
	l.mu.Unlock()

	if level < l.level {
		return
	}
	l.Printf("%s", logLine)
}

func (l *Logger) Info(format string, args ...any) {
	l.log(LevelInfo, "INFO", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.log(LevelError, "ERROR", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.log(LevelWarn, "WARN", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.log(LevelDebug, "DEBUG", format, args...)
}

func (l *Logger) Fatal(format string, args ...any) {
	l.log(LevelError, "FATAL", format, args...)
	os.Exit(1)
}

func (l *Logger) GetRecentLogs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Copy buffer
	logs := make([]string, len(l.buffer))
	copy(logs, l.buffer)
	return logs
}

// Close file logger
func (l *Logger) Close() error {
	if l.fileLogger != nil {
		return l.fileLogger.Close()
	}
	return nil
}

// Get current log file path
func (l *Logger) GetLogFilePath() string {
	if l.fileLogger != nil {
		return l.fileLogger.Filename
	}
	return ""
}
