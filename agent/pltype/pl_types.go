package pltype

// Protocol constants
const (
	Nothing = ""
	DIDComm = "https://didcomm.org"

	ProtocolDIDExchange  = "didexchange"
	ProtocolTrustPing    = "trust_ping"
	ProtocolBasicMessage = "basicmessage"
	ProtocolOutOfBand    = "out-of-band"
)

// Handler (message name) constants
const (
	HandlerRequest      = "request"
	HandlerResponse     = "response"
	HandlerComplete     = "complete"
	HandlerPing         = "ping"
	HandlerPingResponse = "ping_response"
	HandlerMessage      = "message"
	HandlerInvitation   = "invitation"
)

// DID Exchange protocol constants
const (
	DIDExchange         = DIDComm + "/" + ProtocolDIDExchange
	DIDExchangeV1       = DIDExchange + "/1.0"
	DIDExchangeRequest  = DIDExchangeV1 + "/" + HandlerRequest
	DIDExchangeResponse = DIDExchangeV1 + "/" + HandlerResponse
	DIDExchangeComplete = DIDExchangeV1 + "/" + HandlerComplete
)

// Trust Ping protocol constants
const (
	TrustPing             = DIDComm + "/" + ProtocolTrustPing
	TrustPingV1           = TrustPing + "/1.0"
	TrustPingPing         = TrustPingV1 + "/" + HandlerPing
	TrustPingResponse     = TrustPingV1 + "/" + HandlerPingResponse
	TrustPingV2           = TrustPing + "/2.0-preview"
	TrustPingV2Ping       = TrustPingV2 + "/" + HandlerPing
	TrustPingV2Response   = TrustPingV2 + "/" + HandlerPingResponse
	TrustPingCommentHello = "Hi from "
)

// Basic Message protocol constants
const (
	BasicMessage          = DIDComm + "/" + ProtocolBasicMessage
	BasicMessageV1        = BasicMessage + "/1.0"
	BasicMessageV1Message = BasicMessageV1 + "/" + HandlerMessage
	BasicMessageV2        = BasicMessage + "/2.0-preview"
	BasicMessageV2Message = BasicMessageV2 + "/" + HandlerMessage
)

// Out-of-Band protocol constants
const (
	OutOfBand             = DIDComm + "/" + ProtocolOutOfBand
	OutOfBandV1           = OutOfBand + "/1.1"
	OutOfBandV1Invitation = OutOfBandV1 + "/" + HandlerInvitation
)

// RFC0019 encryption envelope is not a protocol of its own but its URI is
// reserved in the same name space.
const EncryptedEnvelopeV1 = "https://rfc0019/application/didcomm-enc-env"

// Media types of the wire messages
const (
	MediaTypePlain     = "application/json"
	MediaTypeSigned    = "application/didcomm-signed+json"
	MediaTypeEncrypted = "application/didcomm-enc-env"
	MediaTypeProfileV1 = "didcomm/aip1"
)

// DIDDocContext is the JSON-LD context of the DID documents we exchange.
const DIDDocContext = "https://w3id.org/did/v1"
