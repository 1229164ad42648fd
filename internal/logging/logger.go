// Package logging builds the service logger.
//
// Usage:
//
//	log := logging.New(logging.Config{Service: "kinocatalog", Level: "debug"})
//	log.WithField("client_id", id).Info("session created")
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Config holds logger configuration.
type Config struct {
	Service string
	Level   string // debug, info, warn, error
	Format  string // json, text
	Output  io.Writer
}

// New creates a logrus logger with the service field embedded in every
// line. Unknown levels fall back to info, unknown formats to JSON.
func New(cfg Config) *logrus.Entry {
	log := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "text" {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	}

	if cfg.Output != nil {
		log.SetOutput(cfg.Output)
	} else {
		log.SetOutput(os.Stdout)
	}

	return log.WithField("service", cfg.Service)
}
