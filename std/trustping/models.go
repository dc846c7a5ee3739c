package trustping

import (
	"github.com/findy-network/findy-exchange/std/decorator"
)

// Ping is RFC0048 trust ping message.
type Ping struct {
	Type              string            `json:"@type,omitempty"`
	ID                string            `json:"@id,omitempty"`
	Thread            *decorator.Thread `json:"~thread,omitempty"`
	Comment           string            `json:"comment,omitempty"`
	ResponseRequested bool              `json:"response_requested"`
}

// Response is RFC0048 trust ping response message.
type Response struct {
	Type    string            `json:"@type,omitempty"`
	ID      string            `json:"@id,omitempty"`
	Thread  *decorator.Thread `json:"~thread,omitempty"`
	Timing  *decorator.Timing `json:"~timing,omitempty"`
	Comment string            `json:"comment,omitempty"`
}
