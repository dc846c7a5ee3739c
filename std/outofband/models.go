// Package outofband is for RFC0434 out-of-band invitation data model. It
// includes the JSON struct and the helpers to move it in the URL form.
package outofband

import (
	"github.com/findy-network/findy-exchange/std/decorator"
)

// Invitation model
//
// Invitation defines out-of-band invitation message
// https://github.com/hyperledger/aries-rfcs/tree/main/features/0434-outofband
type Invitation struct {
	Type   string            `json:"@type,omitempty"`
	ID     string            `json:"@id,omitempty"`
	Thread *decorator.Thread `json:"~thread,omitempty"`

	// the Label of the invitation
	Label string `json:"label,omitempty"`

	// the Goal of the invitation in free text
	Goal string `json:"goal,omitempty"`

	// media type profiles the inviter accepts
	Accept []string `json:"accept,omitempty"`

	// handshake protocols the inviter supports, in preference order
	HandshakeProtocols []string `json:"handshake_protocols,omitempty"`

	// inline services of the inviter
	Services []Service `json:"services,omitempty"`
}

// Service is an inline DIDComm service of the invitation. Recipient keys are
// did:key references.
type Service struct {
	ID              string   `json:"id,omitempty"`
	Type            string   `json:"type,omitempty"`
	RecipientKeys   []string `json:"recipientKeys,omitempty"`
	RoutingKeys     []string `json:"routingKeys,omitempty"`
	ServiceEndpoint string   `json:"serviceEndpoint,omitempty"`
}
