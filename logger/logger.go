package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: time.RFC3339})
	log.SetOutput(os.Stdout)
	log.SetLevel(logrus.InfoLevel)
}

// ✅ লগ ফাইল এবং কনসোলে লগিং সেটআপ
// Init writes to stdout and a daily file under dir (app_DD-MM-YYYY.log).
func Init(level, dir string) {
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	if dir == "" {
		return
	}

	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		fmt.Println("❌ Could not create log directory:", err)
		return
	}

	fileName := filepath.Join(dir, fmt.Sprintf("app_%s.log", time.Now().Format("02-01-2006")))
	logFile, err := os.OpenFile(fileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		fmt.Println("❌ Could not open log file:", err)
		return
	}
	log.SetOutput(io.MultiWriter(os.Stdout, logFile))
	log.Info("🚀 Logger initialized successfully!")
}

// Logrus exposes the underlying logger for middleware and workers.
func Logrus() *logrus.Logger {
	return log
}

// SetOutput redirects all output, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// WithFields starts a structured entry, e.g. logger.WithFields(logrus.Fields{"booking_id": id}).
func WithFields(fields logrus.Fields) *logrus.Entry {
	return log.WithFields(fields)
}

// ✅ সাকসেস লগ প্রিন্ট করার ফাংশন
func Success(message string) {
	log.Info("✅ " + message)
}

func Error(message string, err error) {
	if err != nil {
		log.WithError(err).Error("❌ " + message)
	} else {
		log.Error("❌ " + message)
	}
}

func Warning(message string) {
	log.Warn("⚠️ " + message)
}

func Debug(message string) {
	log.Debug("🐛 " + message)
}

func Info(message string) {
	log.Info("ℹ️ " + message)
}

func Fatal(message string) {
	log.Fatal("💥 " + message)
}

func Printf(format string, args ...interface{}) {
	log.Info(fmt.Sprintf("📝 "+format, args...))
}

func PrintfWithLevel(level logrus.Level, format string, args ...interface{}) {
	switch level {
	case logrus.InfoLevel:
		log.Info(fmt.Sprintf("ℹ️ "+format, args...))
	case logrus.ErrorLevel:
		log.Error(fmt.Sprintf("❌ "+format, args...))
	case logrus.WarnLevel:
		log.Warn(fmt.Sprintf("⚠️ "+format, args...))
	case logrus.DebugLevel:
		log.Debug(fmt.Sprintf("🐛 "+format, args...))
	default:
		log.Info(fmt.Sprintf("📝 "+format, args...))
	}
}
