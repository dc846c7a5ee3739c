/*
Package psm is the pairwise state machine of the connections. A Connection
moves forward through the DID exchange and the first trust ping:

	@startuml
	title Connection

	[*] -> INVITED: receive invitation
	[*] -> REQUEST: receive request
	INVITED -> REQUEST: send request
	REQUEST -> RESPONSE: send/receive response
	RESPONSE -> COMPLETED: send/receive complete
	COMPLETED -> ACTIVE: ping/ping_response
	ACTIVE -> ACTIVE
	@enduml

The states are ordered and a connection never goes backwards. ACTIVE is the
terminal state.
*/
package psm

import (
	"fmt"
	"strings"
)

type State uint8

// Connection states in their order.
const (
	Invited State = 1 + iota
	Request
	Response
	Completed
	Active
)

var stateNames = map[State]string{
	Invited:   "INVITED",
	Request:   "REQUEST",
	Response:  "RESPONSE",
	Completed: "COMPLETED",
	Active:    "ACTIVE",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Valid tells if s is one of the known states.
func (s State) Valid() bool {
	return s >= Invited && s <= Active
}

// ParseState returns the state by its name. The name is case insensitive.
func ParseState(name string) (State, error) {
	upper := strings.ToUpper(name)
	for s, n := range stateNames {
		if n == upper {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown connection state: %s", name)
}
