package monitor_test

import (
	"testing"

	"github.com/vsariola/looper/monitor"
)

func peak(buf []float32) float32 {
	var p float32
	for _, v := range buf {
		p = max(p, v, -v)
	}
	return p
}

func TestSilentWithoutNotes(t *testing.T) {
	m := monitor.New(48000)
	buf := []float32{1, 2, 3}
	m.Render(buf)
	if peak(buf) != 0 {
		t.Fatalf("expected silence, got %v", buf)
	}
}

func TestNoteSoundsUntilReleased(t *testing.T) {
	m := monitor.New(48000)
	buf := make([]float32, 4800)
	m.NoteOn(69, 127)
	m.Render(buf)
	if p := peak(buf); p < 0.9*monitor.Gain || p > monitor.Gain {
		t.Fatalf("peak of a full velocity note should be close to %v, got %v", monitor.Gain, p)
	}
	m.NoteOff(69)
	m.Render(buf)
	if m.Active() != 0 {
		t.Fatalf("voice should have stopped after the release, %d active", m.Active())
	}
	m.Render(buf)
	if peak(buf) != 0 {
		t.Fatal("expected silence after the release")
	}
}

func TestVoiceStealing(t *testing.T) {
	m := monitor.New(48000)
	buf := make([]float32, 64)
	for i := 0; i < monitor.NumVoices+3; i++ {
		m.NoteOn(byte(40+i), 100)
	}
	m.Render(buf)
	if m.Active() != monitor.NumVoices {
		t.Fatalf("expected %d active voices, got %d", monitor.NumVoices, m.Active())
	}
	// the first three notes were stolen, so releasing them changes nothing
	for i := 0; i < 3; i++ {
		m.NoteOff(byte(40 + i))
	}
	m.Render(make([]float32, 4800))
	if m.Active() != monitor.NumVoices {
		t.Fatalf("expected %d active voices, got %d", monitor.NumVoices, m.Active())
	}
}

func TestDropsWhenNotRendered(t *testing.T) {
	m := monitor.New(48000)
	for i := 0; i < 300; i++ {
		m.NoteOn(60, 100)
	}
	if m.Dropped() != 300-256 {
		t.Fatalf("expected %d dropped notes, got %d", 300-256, m.Dropped())
	}
}
