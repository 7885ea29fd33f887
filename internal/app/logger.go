package app

import "strings"

import "github.com/charlesng35/sftpdrive/pkg/logger"

// ConfigureLogging initialises the global logger with the provided level and format,
// defaulting to info and json.
func ConfigureLogging(level, format string) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	format = strings.TrimSpace(format)
	if format == "" {
		format = "json"
	}
	return logger.InitWithFormat(level, format)
}
