// Package config loads finlens settings from viper (config file, environment,
// flags) into a validated Config.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandPath expands environment variables and a leading ~ in path. The
// path is returned unexpanded when the home directory is unknown.
func ExpandPath(path string) string {
	path = os.ExpandEnv(strings.TrimSpace(path))
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
