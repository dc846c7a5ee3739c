package decorator

import (
	"time"
)

// Thread is the ~thread decorator. Both thid and pthid are optional on the
// wire, a missing thid means the message starts the thread itself.
type Thread struct {
	ID  string `json:"thid,omitempty"`
	PID string `json:"pthid,omitempty"`
}

// Timing is the ~timing decorator.
type Timing struct {
	InTime      *time.Time `json:"in_time,omitempty"`
	OutTime     *time.Time `json:"out_time,omitempty"`
	ExpiresTime *time.Time `json:"expires_time,omitempty"`
}
