package didexchange1

import (
	"github.com/findy-network/findy-exchange/std/decorator"
	aries "github.com/hyperledger/aries-framework-go/pkg/didcomm/protocol/decorator"
)

// Request is RFC0023 DID exchange request. Thread's pthid refers to the
// invitation.
type Request struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	DID    string            `json:"did,omitempty"`
	DIDDoc *aries.Attachment `json:"did_doc~attach,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
	Label  string            `json:"label,omitempty"`
	Goal   string            `json:"goal,omitempty"`
}

type Response struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	DID    string            `json:"did,omitempty"`
	DIDDoc *aries.Attachment `json:"did_doc~attach,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}

type Complete struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`
}
