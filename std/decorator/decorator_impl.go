package decorator

import "time"

// NewThread returns a thread where the parent is set only when it's other than
// the thread itself.
func NewThread(ID, PID string) *Thread {
	realPID := ""
	if ID != PID {
		realPID = PID
	}
	return &Thread{ID: ID, PID: realPID}
}

// CheckThread makes sure that the thread ID is set. If the thread is missing
// or its ID is empty, ID is the message ID which starts the thread.
func CheckThread(thread *Thread, ID string) *Thread {
	if thread == nil {
		return &Thread{ID: ID}
	}
	if thread.ID == "" {
		thread.ID = ID
	}
	return thread
}

// NewOutTiming returns ~timing decorator with out_time set to t in UTC.
func NewOutTiming(t time.Time) *Timing {
	out := t.UTC()
	return &Timing{OutTime: &out}
}
