package logger

import (
	"os"

	"github.com/sirupsen/logrus"

	"storefront/internal/config"
)

// Newは設定に合わせたlogrusのロガーを作る。
// dev以外はJSONで出す。
func New(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if cfg.IsDev() {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
		log.WithField("log_level", cfg.LogLevel).Warn("unknown log level, falling back to info")
	}
	log.SetLevel(level)

	return log
}
