package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/vsariola/looper/config"
	"github.com/vsariola/looper/gomidi"
	"github.com/vsariola/looper/monitor"
	"github.com/vsariola/looper/player"
	"github.com/vsariola/looper/server"
	"github.com/vsariola/looper/storage"
)

const (
	sampleRate   = 44100
	queryTimeout = 500 * time.Millisecond
)

var playFlags struct {
	bpm           float64
	tape          string
	midiInput     string
	midiOutput    string
	channel       uint8
	listen        string
	monitor       bool
	externalClock bool
	verbose       bool
}

func init() {
	f := playCmd.Flags()
	f.Float64Var(&playFlags.bpm, "bpm", 0, "tempo of the internal clock")
	f.StringVarP(&playFlags.tape, "tape", "t", "", "tape file to load and autosave to; .yaml for a snapshot, anything else for a packed record")
	f.StringVarP(&playFlags.midiInput, "midi-input", "i", "", "connect MIDI input to matching device name prefix")
	f.StringVarP(&playFlags.midiOutput, "midi-output", "o", "", "send the notes to the MIDI output matching device name prefix")
	f.Uint8Var(&playFlags.channel, "channel", 0, "MIDI output channel, 0-15")
	f.StringVarP(&playFlags.listen, "listen", "l", "", "serve the HTTP API on this address, e.g. localhost:8080")
	f.BoolVarP(&playFlags.monitor, "monitor", "m", false, "play the notes through the sound card")
	f.BoolVar(&playFlags.externalClock, "external-clock", false, "follow the MIDI clock of the input instead of the internal clock")
	f.BoolVarP(&playFlags.verbose, "verbose", "v", false, "log every note played")
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Records and plays a loop",
	Long: `Records the notes of the MIDI input into the loop and plays them back. The
loop keeps running until interrupted; the tape is saved when it changes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadConfig()
		if err != nil {
			return err
		}
		f := cmd.Flags()
		if f.Changed("bpm") {
			c.BPM = playFlags.bpm
		}
		if f.Changed("tape") {
			c.Tape = playFlags.tape
		}
		if f.Changed("midi-input") {
			c.MIDIInput = playFlags.midiInput
		}
		if f.Changed("midi-output") {
			c.MIDIOutput = playFlags.midiOutput
		}
		if f.Changed("channel") {
			c.MIDIChannel = playFlags.channel
		}
		if f.Changed("listen") {
			c.Listen = playFlags.listen
		}
		if f.Changed("monitor") {
			c.Monitor = playFlags.monitor
		}
		if err := c.Validate(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return play(ctx, c, playFlags.externalClock, playFlags.verbose)
	},
}

func play(ctx context.Context, c config.Config, externalClock, verbose bool) error {
	broker := player.NewBroker()
	driver, err := newMIDIDriver()
	if err != nil {
		log.Printf("no MIDI: %v", err)
	}
	midiContext := gomidi.NewContext(driver, broker, externalClock)
	defer midiContext.Close()
	if name, err := midiContext.TryToOpenBy(c.MIDIInput); err != nil {
		log.Printf("failed to open MIDI input: %v", err)
	} else {
		log.Printf("listening to MIDI input '%s'", name)
	}

	var sinks player.Sinks
	if c.MIDIOutput != "" {
		out, err := gomidi.OpenOutput(driver, c.MIDIOutput, c.MIDIChannel)
		if err != nil {
			return err
		}
		defer out.Close()
		log.Printf("sending notes to MIDI output '%s', channel %d", out, c.MIDIChannel)
		sinks = append(sinks, out)
	}
	if c.Monitor {
		m := monitor.New(sampleRate)
		output, err := playAudio(m, sampleRate)
		if err != nil {
			return fmt.Errorf("could not open audio output: %w", err)
		}
		defer output.Close()
		sinks = append(sinks, m)
	}
	if verbose {
		sinks = append(sinks, player.LogSink{})
	}

	settings := c.Settings
	var saver *storage.AutoSaver
	if c.Tape != "" {
		snapshot, err := storage.Load(c.Tape)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("tape %s does not exist yet, starting with an empty loop", c.Tape)
		case err != nil:
			return err
		default:
			tape, err := snapshot.Tape()
			if err != nil {
				return err
			}
			if snapshot.Settings != nil {
				settings = *snapshot.Settings
			}
			broker.ToPlayer <- player.LoadMsg{Tape: tape}
			log.Printf("loaded %d notes from %s", tape.Len(), c.Tape)
		}
		saver = storage.NewAutoSaver(c.Tape, c.Autosave, nil)
	}

	p := player.New(broker, sinks, settings)
	tickInterval := c.TickInterval()
	if externalClock {
		tickInterval = 0
	}
	playerErr := make(chan error, 1)
	go func() { playerErr <- p.Run(ctx, tickInterval, c.RefreshInterval()) }()

	serverErr := make(chan error, 1)
	if c.Listen != "" {
		s := server.New(broker, queryTimeout, nil)
		log.Printf("serving on http://%s", c.Listen)
		go func() { serverErr <- s.ListenAndServe(ctx, c.Listen) }()
	}

	for {
		select {
		case msg := <-broker.ToModel:
			if saver != nil {
				saver.Save(storage.NewSnapshot(msg.Status.Tape, &msg.Status.Settings))
			}
		case err := <-serverErr:
			if err != nil {
				log.Printf("server stopped: %v", err)
			}
		case err := <-playerErr:
			if n := midiContext.Dropped(); n > 0 {
				log.Printf("dropped %d MIDI messages", n)
			}
			if saver != nil {
				for len(broker.ToModel) > 0 {
					msg := <-broker.ToModel
					saver.Save(storage.NewSnapshot(msg.Status.Tape, &msg.Status.Settings))
				}
				if err := saver.Flush(); err != nil {
					return err
				}
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}
