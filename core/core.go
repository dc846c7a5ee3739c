package core

import (
	"fmt"
	"strings"
)

// Method is the DID method the wallet uses when it creates a DID.
type Method string

const (
	MethodKey Method = "key"
	MethodSov Method = "sov"
)

// ParseMethod returns the Method by its name. The name is case insensitive.
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(s)) {
	case MethodKey:
		return MethodKey, nil
	case MethodSov:
		return MethodSov, nil
	}
	return "", fmt.Errorf("unknown DID method: %s", s)
}

// AgentType tells which kind of agent backend serves the wallet.
type AgentType string

const (
	AgentNative AgentType = "Native"
	AgentAcaPy  AgentType = "AcaPy"
)

// DID is a wallet owned or a peer's DID and its verification key. ID is the
// method specific identifier, i.e. without the did:<method>: prefix.
type DID struct {
	Method Method `json:"method"`
	ID     string `json:"id"`
	Verkey string `json:"verkey"`
}

// Qualified returns the fully qualified DID string.
func (d DID) Qualified() string {
	if d.ID == "" {
		return ""
	}
	return "did:" + string(d.Method) + ":" + d.ID
}

func (d DID) String() string {
	return d.Qualified()
}

// IsZero tells if the DID is not set.
func (d DID) IsZero() bool {
	return d.ID == "" && d.Verkey == ""
}

// SplitDID splits fully qualified DID to its method and method specific ID.
func SplitDID(qualified string) (m Method, id string, err error) {
	parts := strings.SplitN(qualified, ":", 3)
	if len(parts) != 3 || parts[0] != "did" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed DID: %s", qualified)
	}
	return Method(parts[1]), parts[2], nil
}
