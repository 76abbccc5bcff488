package scaffold

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// CheckExisting returns an error if a configuration already exists at path
func CheckExisting(path string) error {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return fmt.Errorf("project already initialized\n\nFound existing: %s\n\nUse 'standup init --force' to reinitialize (this will overwrite existing configuration)", path)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
}
