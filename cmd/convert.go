package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/vsariola/looper/storage"
)

func init() {
	rootCmd.AddCommand(convertCmd)
}

var convertCmd = &cobra.Command{
	Use:   "convert FROM TO",
	Short: "Converts a tape between YAML and the packed record",
	Long: `Converts a tape file. The formats are chosen by the extensions: .yaml and
.yml are snapshots, anything else is a packed record. Positions are
truncated when packing.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		snapshot, err := storage.Load(args[0])
		if err != nil {
			return err
		}
		if err := storage.Save(args[1], snapshot); err != nil {
			return err
		}
		log.Printf("wrote %d notes to %s", len(snapshot.Notes), args[1])
		return nil
	},
}
