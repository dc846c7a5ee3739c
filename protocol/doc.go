/*
Package protocol is package for Aries protocol implementations. Each
sub-package registers its protocol by URI to agent/prot from its init() and
implements the sends, awaits and inbound handlers of the protocol against a
message exchange. The protocol specific message models are located in std
package. The connection state machine is in agent/psm.

A protocol's messages are routable only when its package is imported.
*/
package protocol
