package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/Cocadite/api-pe-na-porta/internal/config"
	"github.com/Cocadite/api-pe-na-porta/internal/gelf"
)

const serviceName = "formqueue"

// New builds the process logger. The returned cleanup closes the GELF hook
// when one was attached.
func New(cfg *config.Config) (*logrus.Logger, func(), error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	cleanup := func() {}
	if cfg.GelfAddr != "" {
		hook, err := gelf.New(cfg.GelfAddr, serviceName)
		if err != nil {
			log.WithError(err).Warn("GELF init failed")
		} else {
			log.AddHook(hook)
			cleanup = func() { hook.Close() }
			log.WithField("addr", cfg.GelfAddr).Info("GELF logging enabled")
		}
	}
	return log, cleanup, nil
}
