package player

import "github.com/vsariola/looper"

type (
	// NoteEvent is a key pressed or released by the performer, e.g. on a MIDI
	// keyboard.
	NoteEvent struct {
		On       bool
		Channel  int
		Note     byte
		Velocity byte
	}

	// RecordingMsg arms (true) or disarms (false) recording. When disarmed,
	// incoming notes are only passed through to the output.
	RecordingMsg struct{ bool }

	// ClockMsg is a tick of an external master clock, e.g. a MIDI clock
	// message. StartMsg rewinds the loop when the external clock starts.
	ClockMsg struct{}
	StartMsg struct{}

	RemoveOldestMsg struct{}
	RemoveNewestMsg struct{}
	RemoveAllMsg    struct{}
	RewindMsg       struct{}

	LoadMsg struct {
		Tape looper.Tape
	}

	SettingsMsg struct {
		Settings looper.SequencerSettings
	}

	// QueryMsg asks the player to send its Status to Reply. Reply should be
	// buffered; the player does not wait for it.
	QueryMsg struct {
		Reply chan<- Status
	}

	// Status is a snapshot of the state of the player.
	Status struct {
		Pos       looper.Pos
		Tape      looper.Tape
		Settings  looper.SequencerSettings
		Recording bool
		Faults    int
	}
)

func Recording(on bool) RecordingMsg { return RecordingMsg{on} }
