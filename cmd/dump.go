package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/vsariola/looper/dump"
	"github.com/vsariola/looper/storage"
)

func init() {
	rootCmd.AddCommand(dumpCmd)
}

var dumpCmd = &cobra.Command{
	Use:   "dump TAPE...",
	Short: "Prints tapes",
	Long:  `Prints the notes of tape files, either YAML snapshots or packed records.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, path := range args {
			stat, err := os.Stat(path)
			if err != nil {
				return err
			}
			snapshot, err := storage.Load(path)
			if err != nil {
				return err
			}
			if err := dump.Write(cmd.OutOrStdout(), dump.Info{Path: path, Size: stat.Size(), Snapshot: snapshot}); err != nil {
				return err
			}
		}
		return nil
	},
}
