package match

import (
	"time"

	"github.com/pefman/void-duel/internal/game"
)

// Event is one narrated line of the match log. Seq starts at 1 and never
// repeats within a match.
type Event struct {
	Seq     int                `json:"seq"`
	Kind    game.NarrationKind `json:"kind"`
	Message string             `json:"message"`
	At      time.Time          `json:"at"`
}

type eventLog struct {
	events []Event
	now    func() time.Time
}

func (l *eventLog) append(kind game.NarrationKind, msg string) Event {
	e := Event{Seq: len(l.events) + 1, Kind: kind, Message: msg, At: l.now().UTC()}
	l.events = append(l.events, e)
	return e
}

func (l *eventLog) last() int { return len(l.events) }

// since returns a copy of the events with Seq > seq.
func (l *eventLog) since(seq int) []Event {
	if seq < 0 {
		seq = 0
	}
	if seq >= len(l.events) {
		return []Event{}
	}
	return append([]Event(nil), l.events[seq:]...)
}
