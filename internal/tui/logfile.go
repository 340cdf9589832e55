package tui

import (
	"os"
	"path/filepath"
)

// GetLogFilePath returns the path to the debug log file.
// NG_DEV_LOG_FILE overrides the default of ~/.ng-dev/logs/ng-dev.log.
func GetLogFilePath() string {
	if customPath := os.Getenv("NG_DEV_LOG_FILE"); customPath != "" {
		return customPath
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".ng-dev", "logs", "ng-dev.log")
}
