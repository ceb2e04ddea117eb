package config

import (
	"log"
	"path/filepath"

	"github.com/spf13/afero"
)

// Initialize creates the configuration directory and writes the default
// configuration into it. An existing configuration is left alone.
func Initialize(dir string, logger *log.Logger) error {
	return InitializeFs(afero.NewOsFs(), dir, logger)
}

// InitializeFs is Initialize on an arbitrary filesystem.
func InitializeFs(fs afero.Fs, dir string, logger *log.Logger) error {
	logger.Printf("Initializing %s\n", dir)
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return err
	}

	configPath := filepath.Join(dir, ConfigurationName)
	switch exists, err := afero.Exists(fs, configPath); {
	case err != nil:
		return err
	case exists:
		logger.Printf("- %s already exists, skipping\n", configPath)
		return nil
	}

	logger.Printf("- Writing %s\n", configPath)
	return afero.WriteFile(fs, configPath, defaultConfigData, 0600)
}
