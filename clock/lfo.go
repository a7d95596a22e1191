// Package clock implements the phase clock that drives a deck's playhead: a
// free running 32-bit phase accumulator that is pulled into sync with an
// external tick source by tapping.
package clock

import "github.com/vsariola/looper"

// SyncedLFO is a phase accumulator advanced once per Refresh. Each Tap tells
// it where the phase should be according to the external clock, and the
// phase increment is corrected towards that target, like a very simple phase
// locked loop. Only the top 16 bits of the phase are used as the playhead.
type SyncedLFO struct {
	counter             uint32
	phase               uint32
	phaseIncrement      uint32
	previousTargetPhase uint32
	previousPhase       uint32
}

// Init resets the phase to the start of the loop. The increment is kept, so
// that a rewind does not lose the tempo the clock has locked to.
func (l *SyncedLFO) Init() {
	l.counter = 0
	l.phase = 0
	l.previousPhase = 0
	l.previousTargetPhase = 0
}

// SetPhaseIncrement sets the phase advanced per Refresh, e.g. to start from a
// reasonable tempo before the first taps arrive.
func (l *SyncedLFO) SetPhaseIncrement(increment uint32) {
	l.phaseIncrement = increment
}

func (l *SyncedLFO) PhaseIncrement() uint32 {
	return l.phaseIncrement
}

func (l *SyncedLFO) Phase() uint32 {
	return l.phase
}

// Position returns the playhead position, i.e. the top 16 bits of the phase.
func (l *SyncedLFO) Position() looper.Pos {
	return looper.Pos(l.phase >> 16)
}

func (l *SyncedLFO) Refresh() {
	l.phase += l.phaseIncrement
}

// Tap is called once per tick of the external clock. loopTicks is the length
// of the loop in ticks; the tap counts ticks modulo loopTicks and converts the
// count into the phase where the clock should be right now.
func (l *SyncedLFO) Tap(loopTicks uint32) {
	if loopTicks == 0 {
		return
	}
	l.counter = (l.counter + 1) % loopTicks
	target := uint32((uint64(l.counter) << 32) / uint64(loopTicks))
	l.TapPhase(l.phase, target)
}

// TapPhase corrects the increment using both the phase error and the error in
// how far the phase moved since the previous tap.
func (l *SyncedLFO) TapPhase(currentPhase, targetPhase uint32) {
	targetIncrement := targetPhase - l.previousTargetPhase

	dError := int32(targetIncrement - (currentPhase - l.previousPhase))
	pError := int32(targetPhase - currentPhase)
	err := dError + (pError >> 1)

	l.phaseIncrement += uint32(err >> 11)

	l.previousPhase = currentPhase
	l.previousTargetPhase = targetPhase
}
