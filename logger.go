package livegan

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the stderr logger shared by both tools.
// format "json" selects the JSON formatter, anything else the text formatter.
func NewLogger(debug bool, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	if format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}
	return logger
}
