// Package logger holds the process-wide logrus logger
package logger

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

var Log = logrus.New()

func init() {
	Log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// SetLevel parses one of debug, info, warn, error, fatal.
// We are not using logrus' trace and panic levels.
func SetLevel(level string) error {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		Log.SetLevel(logrus.DebugLevel)
	case "", "info":
		Log.SetLevel(logrus.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(logrus.WarnLevel)
	case "error":
		Log.SetLevel(logrus.ErrorLevel)
	case "fatal":
		Log.SetLevel(logrus.FatalLevel)
	default:
		return fmt.Errorf("bad log level %q", level)
	}
	return nil
}

// Leveled adapts a logrus entry to retryablehttp.LeveledLogger
type Leveled struct {
	Entry *logrus.Entry
}

func (l Leveled) Error(msg string, kv ...interface{}) { l.with(kv).Error(msg) }
func (l Leveled) Info(msg string, kv ...interface{})  { l.with(kv).Info(msg) }
func (l Leveled) Debug(msg string, kv ...interface{}) { l.with(kv).Debug(msg) }
func (l Leveled) Warn(msg string, kv ...interface{})  { l.with(kv).Warn(msg) }

func (l Leveled) with(kv []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		fields[fmt.Sprint(kv[i])] = kv[i+1]
	}
	return l.Entry.WithFields(fields)
}
