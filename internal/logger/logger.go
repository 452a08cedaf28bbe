package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"trafficcounter/internal/config"
)

// Logger provides leveled logging (debug/info/warning/error) to rotated
// per-level files and stdout/stderr.
type Logger struct {
	debugLog   zerolog.Logger
	infoLog    zerolog.Logger
	warningLog zerolog.Logger
	errorLog   zerolog.Logger
	logDir     string
	files      map[string]*lumberjack.Logger
	mu         sync.Mutex
}

// NewLogger creates a Logger and ensures the log directory exists.
func NewLogger(cfg *config.Config) (*Logger, error) {
	if err := os.MkdirAll(cfg.LogDirectory, 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create log directory")
	}

	logger := &Logger{
		logDir: cfg.LogDirectory,
		files:  make(map[string]*lumberjack.Logger),
	}

	stdout := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "2006/01/02 15:04:05"}
	stderr := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006/01/02 15:04:05"}

	logger.setupLoggers(parseLevel(cfg.LogLevel),
		zerolog.MultiLevelWriter(stdout, logger.openLogFile("info.log")),
		zerolog.MultiLevelWriter(stdout, logger.openLogFile("warning.log")),
		zerolog.MultiLevelWriter(stderr, logger.openLogFile("error.log")),
	)
	return logger, nil
}

// NewWithWriter logs every level to w only. Used by tools and tests.
func NewWithWriter(w io.Writer) *Logger {
	logger := &Logger{files: make(map[string]*lumberjack.Logger)}
	logger.setupLoggers(zerolog.DebugLevel, w, w, w)
	return logger
}

func (l *Logger) setupLoggers(level zerolog.Level, info, warning, errw io.Writer) {
	l.debugLog = zerolog.New(info).Level(level).With().Timestamp().Logger()
	l.infoLog = zerolog.New(info).Level(level).With().Timestamp().Logger()
	l.warningLog = zerolog.New(warning).Level(level).With().Timestamp().Logger()
	l.errorLog = zerolog.New(errw).Level(level).With().Timestamp().Logger()
}

// openLogFile opens a size-rotated log file in the log directory.
func (l *Logger) openLogFile(name string) *lumberjack.Logger {
	file := &lumberjack.Logger{
		Filename:   filepath.Join(l.logDir, name),
		MaxSize:    10,
		MaxBackups: 3,
	}
	l.files[name] = file
	return file
}

// parseLevel accepts zerolog level names and "warning", the name used by
// Logger.Warning and the level files. Unknown values fall back to info.
func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		return zerolog.WarnLevel
	}
	level, err := zerolog.ParseLevel(s)
	if err != nil || s == "" {
		return zerolog.InfoLevel
	}
	return level
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.debugLog.Debug().Msgf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infoLog.Info().Msgf(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warningLog.Warn().Msgf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errorLog.Error().Msgf(format, v...)
}

// LogDirectory is where the level files live.
func (l *Logger) LogDirectory() string {
	return l.logDir
}

// CleanLogs truncates the specified log file.
func (l *Logger) CleanLogs(fileName string) error {
	l.mu.Lock()
	file, ok := l.files[fileName]
	l.mu.Unlock()
	if !ok {
		return errors.Errorf("unknown log file %s", fileName)
	}

	if err := file.Close(); err != nil {
		return errors.Wrap(err, "failed to close log file")
	}
	if err := os.Truncate(file.Filename, 0); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to truncate log file")
	}

	l.Info("File %s has been cleared.", fileName)
	return nil
}

// Close flushes and closes the log files.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var firstErr error
	for _, file := range l.files {
		if err := file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
