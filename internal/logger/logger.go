// Package logger 提供按模块区分的分级日志，底层使用 logrus
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// Level 日志级别
type Level = logrus.Level

const (
	DEBUG = logrus.DebugLevel
	INFO  = logrus.InfoLevel
	WARN  = logrus.WarnLevel
	ERROR = logrus.ErrorLevel
)

const (
	moduleField = "module"
	callerField = "caller"
)

// base 所有模块共享的 logrus 实例，Init 原地修改它
var base = newBase()

func newBase() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&Formatter{})
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Formatter 输出格式: [TIME] [LEVEL] [FILE:LINE] module: MSG
type Formatter struct{}

// Format 实现 logrus.Formatter 接口
func (f *Formatter) Format(entry *logrus.Entry) ([]byte, error) {
	level := strings.ToUpper(entry.Level.String())
	if len(level) > 4 {
		level = level[:4]
	}
	caller, _ := entry.Data[callerField].(string)
	module, _ := entry.Data[moduleField].(string)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] [%s] [%s] ", entry.Time.Format("2006-01-02 15:04:05"), level, caller)
	if module != "" {
		sb.WriteString(module)
		sb.WriteString(": ")
	}
	sb.WriteString(entry.Message)
	sb.WriteByte('\n')
	return []byte(sb.String()), nil
}

// Init 设置全局日志级别与输出；filePath 非空时同时写入文件
func Init(levelStr string, filePath string) error {
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		level = logrus.InfoLevel
	}
	base.SetLevel(level)

	writers := []io.Writer{os.Stderr}
	if filePath != "" {
		if dir := filepath.Dir(filePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create log directory: %w", err)
			}
		}
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		writers = append(writers, file)
	}
	base.SetOutput(io.MultiWriter(writers...))
	return nil
}

// SetGlobalLevel 设置全局日志级别
func SetGlobalLevel(level Level) {
	base.SetLevel(level)
}

// SetOutput 替换日志输出，测试中用于捕获日志
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

// Logger 模块日志记录器
type Logger struct {
	module string
}

// New 创建新的日志记录器
func New(module string) *Logger {
	return &Logger{module: module}
}

func (l *Logger) log(level Level, format string, args ...any) {
	if !base.IsLevelEnabled(level) {
		return
	}
	fields := logrus.Fields{moduleField: l.module}
	// 跳过 log 与 Debug/Info/... 两层
	if _, file, line, ok := runtime.Caller(2); ok {
		fields[callerField] = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	base.WithFields(fields).Logf(level, format, args...)
}

// Debug 调试日志
func (l *Logger) Debug(format string, args ...any) {
	l.log(DEBUG, format, args...)
}

// Info 信息日志
func (l *Logger) Info(format string, args ...any) {
	l.log(INFO, format, args...)
}

// Warn 警告日志
func (l *Logger) Warn(format string, args ...any) {
	l.log(WARN, format, args...)
}

// Error 错误日志
func (l *Logger) Error(format string, args ...any) {
	l.log(ERROR, format, args...)
}
