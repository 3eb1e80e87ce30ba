// Package utils предоставляет логгер приложения поверх logrus.
//
// API пакетного уровня (Info/Warn/Error/Debug с парами key/value)
// одинаков для сервера, CLI и тестов. До вызова InitLogger записи
// отбрасываются, поэтому библиотечный код логирует без проверок.
//
// Файл логов ротируется через lumberjack: logs/pilates-YYYY-MM-DD.log.
package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger     = newDiscardLogger()
	logMutex   sync.Mutex
	fileWriter *lumberjack.Logger
)

func newDiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// LoggerOptions — параметры инициализации логгера.
type LoggerOptions struct {
	Dir     string // Директория для файлов логов. Пусто — только stderr.
	Debug   bool   // Включает уровень DEBUG
	Quiet   bool   // Не дублировать записи в stderr (для CLI с собственным выводом)
	NoColor bool
}

// InitLogger настраивает глобальный логгер.
//
// Повторный вызов переинициализирует логгер (удобно в тестах).
func InitLogger(opts LoggerOptions) error {
	logMutex.Lock()
	defer logMutex.Unlock()

	l := logrus.New()
	l.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColor,
		TimestampFormat: "2006-01-02 15:04:05",
		HideKeys:        false,
	})
	if opts.Debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}

	var writers []io.Writer
	if !opts.Quiet {
		writers = append(writers, os.Stderr)
	}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create logs dir: %w", err)
		}
		closeFileLocked()
		fileWriter = &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, fmt.Sprintf("pilates-%s.log", time.Now().Format("2006-01-02"))),
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100, // MB
			MaxAge:     7,
			MaxBackups: 3,
		}
		writers = append(writers, fileWriter)
	}

	if len(writers) == 0 {
		l.SetOutput(io.Discard)
	} else {
		l.SetOutput(io.MultiWriter(writers...))
	}

	logger = l
	logger.WithField("dir", opts.Dir).Info("Logger initialized")
	return nil
}

// SetOutput перенаправляет вывод логгера (используется в тестах).
func SetOutput(w io.Writer) {
	logMutex.Lock()
	defer logMutex.Unlock()
	logger.SetOutput(w)
}

// Info - информационное сообщение.
func Info(msg string, keyvals ...any) {
	entry(keyvals).Info(msg)
}

// Error - сообщение об ошибке.
func Error(msg string, keyvals ...any) {
	entry(keyvals).Error(msg)
}

// Debug - отладочное сообщение.
func Debug(msg string, keyvals ...any) {
	entry(keyvals).Debug(msg)
}

// Warn - предупреждение.
func Warn(msg string, keyvals ...any) {
	entry(keyvals).Warn(msg)
}

// entry превращает пары key/value в logrus.Fields.
// Непарный последний ключ пишется с пустым значением.
func entry(keyvals []any) *logrus.Entry {
	logMutex.Lock()
	l := logger
	logMutex.Unlock()

	fields := make(logrus.Fields, len(keyvals)/2+1)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 < len(keyvals) {
			fields[key] = keyvals[i+1]
		} else {
			fields[key] = ""
		}
	}
	return l.WithFields(fields)
}

// Close закрывает файл логов.
//
// Вызывается через defer в main().
func Close() {
	logMutex.Lock()
	defer logMutex.Unlock()
	closeFileLocked()
}

func closeFileLocked() {
	if fileWriter == nil {
		return
	}
	if err := fileWriter.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "[LOGGER WARNING: Close failed: %v]\n", err)
	}
	fileWriter = nil
}
