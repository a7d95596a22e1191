package player

import (
	"time"
)

type (
	// Broker connects the player goroutine to the rest of the program: MIDI
	// input, the HTTP server and the autosaver. Communication is many-to-one,
	// with one buffered channel per recipient, and sends from the player are
	// never blocking: if the recipient cannot keep up, messages are dropped.
	//
	// ClosePlayer has a capacity of 1, so an empty struct can always be sent to
	// it without blocking; if it is full, someone has already asked the player
	// to stop. FinishedPlayer is closed by the player once it has stopped and
	// released all its notes:
	//    select {
	//      case <-FinishedPlayer:
	//      case <-time.After(3 * time.Second):
	//    }
	Broker struct {
		ToPlayer chan any
		ToModel  chan MsgToModel

		ClosePlayer    chan struct{}
		FinishedPlayer chan struct{}
	}

	// MsgToModel is sent by the player after each refresh in which the tape
	// changed. Status is not boxed, so sending it does not allocate.
	MsgToModel struct {
		Status Status
	}
)

func NewBroker() *Broker {
	return &Broker{
		ToPlayer:       make(chan any, 1024),
		ToModel:        make(chan MsgToModel, 64),
		ClosePlayer:    make(chan struct{}, 1),
		FinishedPlayer: make(chan struct{}),
	}
}

// TrySend is a helper function to send a value to a channel if it is not full.
// It is guaranteed to be non-blocking. Return true if the value was sent, false
// otherwise.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
	default:
		return false
	}
	return true
}

// TimeoutReceive is a helper function to block until a value is received from a
// channel, or timing out after t. ok will be false if the timeout occurred or
// if the channel is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	select {
	case v, ok = <-c:
		return v, ok
	case <-time.After(t):
		return v, false
	}
}

// Query asks the player for its status and waits at most t for the answer.
func (b *Broker) Query(t time.Duration) (Status, bool) {
	reply := make(chan Status, 1)
	if !TrySend(b.ToPlayer, any(QueryMsg{Reply: reply})) {
		return Status{}, false
	}
	return TimeoutReceive[Status](reply, t)
}
