// Package logger -----------------------------
// @file      : logger.go
// @author    : hcjjj
// @contact   : hcjjj@foxmail.com
// @time      : 2023/12/15 20:02
// -------------------------------------------
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Settings stores config for logger
type Settings struct {
	// 日志目录，为空时只输出到标准输出
	Path string `mapstructure:"path"`
	Name string `mapstructure:"name"`
	Ext  string `mapstructure:"ext"`
	// 日志文件名里的日期格式
	TimeFormat string `mapstructure:"time-format"`
	// trace debug info warn error
	Level string `mapstructure:"level"`
}

var (
	mu      sync.RWMutex
	logFile *os.File
	log     = hclog.New(&hclog.LoggerOptions{
		Name:   "mini-redis",
		Level:  hclog.Info,
		Output: os.Stdout,
	})
)

// Setup initializes the global logger, repeated calls replace the previous one
func Setup(settings *Settings) error {
	var out io.Writer = os.Stdout
	var file *os.File
	if settings.Path != "" {
		if err := os.MkdirAll(settings.Path, 0755); err != nil {
			return errors.Wrap(err, "create log dir")
		}
		ext := settings.Ext
		if ext != "" && ext[0] != '.' {
			ext = "." + ext
		}
		timeFormat := settings.TimeFormat
		if timeFormat == "" {
			timeFormat = "2006-01-02"
		}
		fileName := fmt.Sprintf("%s-%s%s", settings.Name, time.Now().Format(timeFormat), ext)
		f, err := os.OpenFile(filepath.Join(settings.Path, fileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return errors.Wrap(err, "open log file")
		}
		file = f
		out = io.MultiWriter(os.Stdout, f)
	}
	name := settings.Name
	if name == "" {
		name = "mini-redis"
	}
	l := hclog.New(&hclog.LoggerOptions{
		Name:   name,
		Level:  hclog.LevelFromString(settings.Level),
		Output: out,
	})

	mu.Lock()
	old := logFile
	log, logFile = l, file
	mu.Unlock()
	if old != nil {
		_ = old.Close()
	}
	return nil
}

func current() hclog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Debug prints debug log
func Debug(v ...interface{}) {
	current().Debug(fmt.Sprint(v...))
}

// Info prints normal log
func Info(v ...interface{}) {
	current().Info(fmt.Sprint(v...))
}

// Warn prints warning log
func Warn(v ...interface{}) {
	current().Warn(fmt.Sprint(v...))
}

// Error prints error log
func Error(v ...interface{}) {
	current().Error(fmt.Sprint(v...))
}

// Fatal prints error log then stop the program
func Fatal(v ...interface{}) {
	current().Error(fmt.Sprint(v...))
	os.Exit(1)
}
