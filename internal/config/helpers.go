package config

import (
	"os"
	"path/filepath"
)

// EnsureDirectories creates the directories a run writes into: the artifact
// store root plus the parents of any configured report and log files.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Dataset.Root}

	if c.Report.XLSXPath != "" {
		dirs = append(dirs, filepath.Dir(c.Report.XLSXPath))
	}

	switch c.Logging.OutputPath {
	case "", "stdout", "stderr":
	default:
		dirs = append(dirs, filepath.Dir(c.Logging.OutputPath))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	return nil
}

// DatasetPath returns the full path of the input dataset artifact
func (c *Config) DatasetPath() string {
	return filepath.Join(c.Dataset.Root, c.Dataset.Example, c.Dataset.File)
}
