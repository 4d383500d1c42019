package utils

import (
	"io"

	"github.com/Dominic-Kaemereit/docker-server-registration-plugin/internal/logger"
)

// CloseLogged closes c and logs the outcome under name. A nil c is ignored.
func CloseLogged(c io.Closer, name string, log logger.Logger) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		log.Warn("failed to close",
			logger.String("resource", name),
			logger.Error(err))
		return
	}
	log.Info("closed cleanly",
		logger.String("resource", name))
}
