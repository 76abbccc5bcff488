package commands

import (
	"fmt"

	"github.com/dyluth/standup/internal/printer"
	"github.com/dyluth/standup/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default standup.yml",
	Long: `Create a commented configuration file with the default settings.

The file selects the workspace name, Redis storage, the optional shared
directory and the Azure DevOps project. The Azure DevOps personal access
token is never stored in the file: export AZURE_DEVOPS_PAT instead.

Use --force to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	// Note: Cannot use -f shorthand because it conflicts with global --config flag
	initCmd.Flags().BoolVar(&forceInit, "force", false, "Overwrite an existing configuration file")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(configPath); err != nil {
			return printer.ErrorWithContext(
				"configuration already exists",
				err.Error(),
				map[string]string{"Config": configPath},
				nil,
			)
		}
	}

	if err := scaffold.Initialize(configPath, forceInit); err != nil {
		return printer.Error("initialization failed", fmt.Sprintf("Error: %v", err), nil)
	}

	scaffold.PrintSuccess(configPath)
	return nil
}
