package commands

import (
	"context"
	"errors"

	"github.com/dyluth/standup/internal/printer"
	"github.com/dyluth/standup/internal/storage"
	"github.com/spf13/cobra"
)

var (
	connectDir string
)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Mirror the board to DSM.json in a shared directory",
	Long: `Connect a shared directory. The board is written to DSM.json inside it on
every save, and edits made to the file by other people are picked up.

If the directory already has a non-empty DSM.json its content replaces the
current board; otherwise the file is created from the current board.

The directory is remembered in the configuration file so later commands
reconnect automatically. Without --dir the directory is asked for.`,
	Example: `  standup connect --dir /mnt/team/standup`,
	Args:    cobra.NoArgs,
	RunE:    runConnect,
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Stop mirroring the board to the shared directory",
	Long: `Forget the shared directory. The board stays in local storage and the
file in the directory is left untouched.`,
	Args: cobra.NoArgs,
	RunE: runDisconnect,
}

func init() {
	connectCmd.Flags().StringVar(&connectDir, "dir", "", "Shared directory (prompted for when omitted)")
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
}

func runConnect(cmd *cobra.Command, args []string) (err error) {
	ctx := context.Background()

	var picker storage.DirectoryPicker = storage.StaticPicker(connectDir)
	if connectDir == "" {
		picker = storage.PromptPicker{In: cmd.InOrStdin(), Out: cmd.OutOrStdout()}
	}

	s, err := openSession(ctx, nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	res, err := s.adapter.ConnectFile(ctx, picker, s.board.Snapshot())
	if errors.Is(err, storage.ErrPickerCancelled) {
		printer.Info("Cancelled\n")
		return nil
	}
	if err != nil {
		return printer.Error(
			"failed to connect shared directory",
			err.Error(),
			[]string{"Check the directory exists and is writable"},
		)
	}
	s.board.Replace(res.Data)

	s.cfg.Storage.SharedDir = res.Directory
	if err := s.cfg.Save(configPath); err != nil {
		printer.Warning("Connected, but the directory could not be remembered: %v\n", err)
	}

	printer.Success("Connected to %s\n", res.Directory)
	printer.Info("  File: %s\n", res.FileName)
	return nil
}

func runDisconnect(cmd *cobra.Command, args []string) (err error) {
	s, err := openSession(context.Background(), nil)
	if err != nil {
		return err
	}
	defer closeSession(s, &err)

	dir, ok := s.adapter.Connected()
	if !ok && s.cfg.Storage.SharedDir == "" {
		printer.Info("No shared directory connected\n")
		return nil
	}
	s.adapter.DisconnectFile()

	s.cfg.Storage.SharedDir = ""
	if err := s.cfg.Save(configPath); err != nil {
		return printer.Error("failed to update configuration", err.Error(), nil)
	}

	if dir == "" {
		dir = "shared directory"
	}
	printer.Success("Disconnected from %s\n", dir)
	return nil
}
