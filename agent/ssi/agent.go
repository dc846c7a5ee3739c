package ssi

import (
	"github.com/findy-network/findy-exchange/core"
)

// AgentBackend is the agent which serves the wallet: either a native one
// running in this process or an external ACA-Py agent.
type AgentBackend interface {
	Type() core.AgentType
	EndpointURL() string
}

// NativeBackend is the in process agent. URL is its inbound endpoint.
type NativeBackend struct {
	URL string
}

func (NativeBackend) Type() core.AgentType {
	return core.AgentNative
}

func (n NativeBackend) EndpointURL() string {
	return n.URL
}
