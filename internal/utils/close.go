package utils

import (
	"io"

	"github.com/MrSnakeDoc/homenav/internal/logger"
)

// Close closes c and ignores any error.
// Use for best-effort cleanup on error paths.
func Close(c io.Closer) {
	_ = c.Close()
}

// CloseOrWarn closes c and logs a failure at warn level. what names the
// resource in the log line.
func CloseOrWarn(c io.Closer, log logger.Logger, what string) {
	if err := c.Close(); err != nil {
		log.Warn("failed to close "+what, logger.Error(err))
	}
}
