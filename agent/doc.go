/*
Package agent holds the packages of the DIDComm message exchange engine. The
agent package is empty itself, all the functionality is inside sub-packages.

 acapy      ACA-Py agent backend: trust ping through the admin API
 didcomm    EndpointMessage, message headers and the error taxonomy
 endp       inbound HTTP and WebSocket endpoints of the wallets
 handshake  the connect flows: invitation, DID exchange and the first ping
 mex        message exchange, futures, typed attachments and the registry
 packager   plaintext, signed and encrypted envelopes
 pltype     protocol and message type URIs
 prot       protocol registry, Service, dispatch of the inbound messages
 psm        connection state machine and the bolt connection store
 ssi        wallet, DIDs, DID documents and the resolver
 trans      outbound transports: HTTP, WebSocket and in process memory
 utils      settings, version and id helpers
*/
package agent
