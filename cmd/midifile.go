package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsariola/looper/midifile"
	"github.com/vsariola/looper/storage"
)

var midiFileFlags struct {
	bpm        float64
	resolution uint16
	channel    uint8
	loops      int
}

func init() {
	for _, c := range []*cobra.Command{exportCmd, importCmd} {
		f := c.Flags()
		f.Float64Var(&midiFileFlags.bpm, "bpm", 0, "tempo of the MIDI file; defaults to the config")
		f.Uint16Var(&midiFileFlags.resolution, "resolution", 96, "ticks per quarter note of the MIDI file, a multiple of 24")
		rootCmd.AddCommand(c)
	}
	exportCmd.Flags().Uint8Var(&midiFileFlags.channel, "channel", 0, "MIDI channel of the notes, 0-15")
	exportCmd.Flags().IntVar(&midiFileFlags.loops, "loops", 1, "how many times the loop is repeated")
}

func midiFileOptions(cmd *cobra.Command) (midifile.Options, error) {
	c, err := loadConfig()
	if err != nil {
		return midifile.Options{}, err
	}
	o := midifile.DefaultOptions()
	o.Settings = c.Settings
	o.BPM = c.BPM
	if cmd.Flags().Changed("bpm") {
		o.BPM = midiFileFlags.bpm
	}
	o.Resolution = midiFileFlags.resolution
	o.Channel = midiFileFlags.channel
	o.Loops = midiFileFlags.loops
	return o, nil
}

var exportCmd = &cobra.Command{
	Use:   "export TAPE MIDIFILE",
	Short: "Exports a tape as a standard MIDI file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := midiFileOptions(cmd)
		if err != nil {
			return err
		}
		snapshot, err := storage.Load(args[0])
		if err != nil {
			return err
		}
		if snapshot.Settings != nil {
			o.Settings = *snapshot.Settings
		}
		tape, err := snapshot.Tape()
		if err != nil {
			return err
		}
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := midifile.Export(f, tape, o); err != nil {
			f.Close()
			return fmt.Errorf("exporting %s: %w", args[1], err)
		}
		return f.Close()
	},
}

var importCmd = &cobra.Command{
	Use:   "import MIDIFILE TAPE",
	Short: "Imports the first loop of a standard MIDI file into a tape",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := midiFileOptions(cmd)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		tape, dropped, err := midifile.Import(f, o)
		if err != nil {
			return fmt.Errorf("importing %s: %w", args[0], err)
		}
		if dropped > 0 {
			log.Printf("the tape holds only the first notes; %d were left out", dropped)
		}
		return storage.Save(args[1], storage.NewSnapshot(tape, &o.Settings))
	},
}
