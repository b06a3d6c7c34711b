package http

import "time"

// TimeGroup records when the phases of one attempt happened. It is
// write-once per attempt; a retry resets it and writes fresh values.
type TimeGroup struct {
	ConnectStart  time.Time
	ConnectEnd    time.Time
	TransferStart time.Time
	TransferEnd   time.Time
}

func (t *TimeGroup) Reset() { *t = TimeGroup{} }
