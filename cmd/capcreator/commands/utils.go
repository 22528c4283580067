package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/capforge/autoloader/internal/config"
)

// loadConfig loads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if cfg.WorkDir == "" {
		// an empty --work-dir flag overrides the default
		if cfg.WorkDir, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config invalid: %w", err)
	}
	return cfg, nil
}

// ensureDirectories creates all parent directories of the given paths
func ensureDirectories(paths ...string) error {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", p, err)
		}
	}
	return nil
}

// imageName appends .exe to names without an extension.
func imageName(name string) string {
	if filepath.Ext(name) == "" {
		return name + ".exe"
	}
	return name
}

// printLine is the console logger handed to the packer.
func printLine(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
