/*
Package main is the findy-exchange CLI. findy-exchange is a DIDComm agent which
connects wallets with out-of-band invitations and DID exchange, and runs trust
ping and basic message protocols over the connections.

You can use the Go packages roughly for three purposes:

1. As a CLI tool to serve the wallets' endpoints, to create invitations, to
connect, ping and send messages. See the cmd package and run
findy-exchange tree for the command structure.

2. As a framework where the message exchange engine, the protocols and the
transports are used directly: create a prot.Service, mount the wallets to an
endp.Server or to trans.Memory, and drive the protocols over a mex.Exchange.

3. As a test peer for other agents, e.g. ACA-Py, because the protocol
messages follow the Aries RFCs.

# Sub-packages

	agent    the engine: didcomm, mex, prot, psm, ssi, packager, trans, endp
	cmd      cobra commands of the CLI
	cmds     command implementations which can be used without cobra
	core     DID and agent type definitions
	protocol processors of the protocols: outofband, didexchange, trustping,
	         basicmessage
	std      messages of the protocols
*/
package main
