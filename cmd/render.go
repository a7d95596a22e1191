package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsariola/looper/render"
	"github.com/vsariola/looper/storage"
)

var renderFlags struct {
	bpm   float64
	loops int
	pcm16 bool
}

func init() {
	f := renderCmd.Flags()
	f.Float64Var(&renderFlags.bpm, "bpm", 0, "tempo; defaults to the config")
	f.IntVar(&renderFlags.loops, "loops", 1, "how many times the loop is rendered")
	f.BoolVar(&renderFlags.pcm16, "pcm16", false, "write 16-bit signed PCM instead of float32")
	rootCmd.AddCommand(renderCmd)
}

var renderCmd = &cobra.Command{
	Use:   "render TAPE WAVFILE",
	Short: "Renders a tape to a .wav file through the monitor synth",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("bpm") {
			c.BPM = renderFlags.bpm
			if err := c.Validate(); err != nil {
				return err
			}
		}
		snapshot, err := storage.Load(args[0])
		if err != nil {
			return err
		}
		settings := c.Settings
		if snapshot.Settings != nil {
			settings = *snapshot.Settings
		}
		tape, err := snapshot.Tape()
		if err != nil {
			return err
		}
		loopDuration := time.Duration(settings.LoopTicks()) * c.TickInterval()
		samples, err := render.Tape(tape, loopDuration, sampleRate, renderFlags.loops)
		if err != nil {
			return err
		}
		f, err := os.Create(args[1])
		if err != nil {
			return err
		}
		if err := render.Wav(f, samples, sampleRate, renderFlags.pcm16); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	},
}
