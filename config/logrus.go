package config

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetFormatter(&logrus.JSONFormatter{})
	logg.SetOutput(os.Stdout)

	level := logrus.WarnLevel
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		if parsed, err := logrus.ParseLevel(v); err == nil {
			level = parsed
		}
	}
	logg.SetLevel(level)
}

func LogError(logger *logrus.Logger, moduleName string, funcName string, context string, data any, err error) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Error(err.Error())
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Error(err.Error())
	}
}

// LogWarn is used for recoverable sync anomalies (protected-field conflicts,
// skipped deletes). These never abort processing, so they must stay visible.
func LogWarn(logger *logrus.Logger, moduleName string, funcName string, context string, data any, msg string) {
	if data != nil {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
			"data":     data,
		}).Warn(msg)
	} else {
		logger.WithFields(logrus.Fields{
			"module":   moduleName,
			"funcName": funcName,
			"context":  context,
		}).Warn(msg)
	}
}
