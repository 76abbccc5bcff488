package scaffold

import (
	"embed"
	"fmt"
	"os"

	"github.com/dyluth/standup/internal/config"
	"github.com/dyluth/standup/internal/printer"
)

//go:embed templates/*
var templatesFS embed.FS

// Initialize writes a commented standup.yml to path.
// If force is true, an existing file is replaced.
func Initialize(path string, force bool) error {
	if force {
		if err := handleForce(path); err != nil {
			return err
		}
	}

	content, err := templatesFS.ReadFile("templates/standup.yml.tmpl")
	if err != nil {
		return fmt.Errorf("failed to read standup.yml template: %w", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return validateCreatedFile(path)
}

// handleForce removes an existing configuration if --force was specified
func handleForce(path string) error {
	if _, err := os.Stat(path); err == nil {
		printer.Warning("Removing existing %s...\n", path)
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", path, err)
		}
	}
	return nil
}

// validateCreatedFile checks the written file loads as a valid configuration
func validateCreatedFile(path string) error {
	if _, err := config.Load(path); err != nil {
		return fmt.Errorf("created %s is not a valid configuration: %w", path, err)
	}
	return nil
}

// PrintSuccess prints the success message and next steps
func PrintSuccess(path string) {
	printer.Success("\nInitialized standup configuration\n")
	printer.Println("\nCreated:")
	printer.Printf("  ✓ %s\n", path)
	printer.Println("\nNext steps:")
	printer.Println("  1. Set storage.redis_url to share the board between sessions")
	printer.Println("  2. Export AZURE_DEVOPS_PAT to post changelogs to Azure DevOps")
	printer.Println("  3. Run 'standup add planning' to create the first task")
}
