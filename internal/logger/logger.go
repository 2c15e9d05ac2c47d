package logger

import (
	"os"

	log "github.com/sirupsen/logrus"
)

// Init configures the global logrus logger. level falls back to LOG_LEVEL,
// then to info. It is safe to call multiple times.
func Init(level string) {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	if level == "" {
		level = os.Getenv("LOG_LEVEL")
	}
	if level == "" {
		level = "info"
	}
	if lvl, err := log.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// L returns the global logger for convenience.
func L() *log.Logger { return log.StandardLogger() }

// Subscriber returns an entry tagged with a subscriber id.
func Subscriber(id string) *log.Entry {
	return log.WithField("subscriber", id)
}
