/*
Package didcomm offers the EndpointMessage, the immutable envelope of every
DIDComm message our agent sends or receives, and the error taxonomy shared by
the message exchange and the protocols.

An EndpointMessage wraps the message body and header metadata: message ID,
type URI, thread ID, parent thread ID and direction. The body is plaintext
JSON or an opaque packed envelope. In the latter case the header metadata
travels in the headers.
*/
package didcomm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/std/decorator"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// Direction tells if the message was sent or received by us.
type Direction int

const (
	Inbound Direction = iota + 1
	Outbound
)

func (d Direction) String() string {
	switch d {
	case Inbound:
		return "INBOUND"
	case Outbound:
		return "OUTBOUND"
	}
	return "UNKNOWN"
}

// Header names of the EndpointMessage.
const (
	HeaderID           = "MessageId"
	HeaderType         = "MessageType"
	HeaderThid         = "MessageThid"
	HeaderPthid        = "MessagePthid"
	HeaderProtocolURI  = "MessageProtocolUri"
	HeaderSenderKey    = "MessageSenderVerkey"
	HeaderRecipientKey = "MessageRecipientVerkey"
	HeaderContentType  = "Content-Type"
)

// EndpointMessage is immutable after it's created. Accessors return copies of
// the mutable parts.
type EndpointMessage struct {
	id      string
	typ     string
	thid    string
	pthid   string
	body    []byte
	headers map[string]string
	dir     Direction
}

// hdr collects the header fields of V1 (@id, @type, ~thread) and V2 (id,
// type, thid, pthid) plaintext messages.
type hdr struct {
	AtID   string            `json:"@id"`
	AtType string            `json:"@type"`
	Thread *decorator.Thread `json:"~thread"`

	ID    string `json:"id"`
	Type  string `json:"type"`
	Thid  string `json:"thid"`
	Pthid string `json:"pthid"`
}

// New creates a message of the body and headers. A JSON object body is parsed
// for the header fields. Headers override what the body tells. The message ID
// is generated if neither has it, and the thread ID defaults to the message
// ID.
func New(body []byte, headers map[string]string, dir Direction) *EndpointMessage {
	m := &EndpointMessage{
		body:    append(body[:0:0], body...),
		headers: make(map[string]string, len(headers)),
		dir:     dir,
	}
	for k, v := range headers {
		m.headers[k] = v
	}
	m.parseBody()

	if v := headers[HeaderID]; v != "" {
		m.id = v
	}
	if v := headers[HeaderType]; v != "" {
		m.typ = v
	}
	if v := headers[HeaderThid]; v != "" {
		m.thid = v
	}
	if v := headers[HeaderPthid]; v != "" {
		m.pthid = v
	}
	if m.id == "" {
		m.id = utils.UUID()
	}
	if m.thid == "" {
		m.thid = m.id
	}
	return m
}

// NewJSON marshals the message model and creates an EndpointMessage of it.
func NewJSON(msg any, dir Direction) (m *EndpointMessage, err error) {
	defer err2.Handle(&err, "new endpoint message")

	data := try.To1(json.Marshal(msg))
	return New(data, nil, dir), nil
}

func (m *EndpointMessage) parseBody() {
	trimmed := strings.TrimSpace(string(m.body))
	if !strings.HasPrefix(trimmed, "{") {
		return
	}
	var h hdr
	if err := json.Unmarshal(m.body, &h); err != nil {
		return
	}
	m.id = first(h.AtID, h.ID)
	m.typ = first(h.AtType, h.Type)
	m.thid = h.Thid
	m.pthid = h.Pthid
	if h.Thread != nil {
		m.thid = first(h.Thread.ID, m.thid)
		m.pthid = first(h.Thread.PID, m.pthid)
	}
}

func first(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func (m *EndpointMessage) ID() string {
	return m.id
}

func (m *EndpointMessage) Type() string {
	return m.typ
}

// Thid is never empty.
func (m *EndpointMessage) Thid() string {
	return m.thid
}

func (m *EndpointMessage) Pthid() string {
	return m.pthid
}

func (m *EndpointMessage) Direction() Direction {
	return m.dir
}

// Body returns a copy of the message body.
func (m *EndpointMessage) Body() []byte {
	return append(m.body[:0:0], m.body...)
}

// Headers returns a copy of the headers.
func (m *EndpointMessage) Headers() map[string]string {
	h := make(map[string]string, len(m.headers))
	for k, v := range m.headers {
		h[k] = v
	}
	return h
}

func (m *EndpointMessage) Header(name string) string {
	return m.headers[name]
}

func (m *EndpointMessage) ContentType() string {
	return m.headers[HeaderContentType]
}

// Decode unmarshals the JSON body to v.
func (m *EndpointMessage) Decode(v any) (err error) {
	defer err2.Handle(&err, "decode %s", m.typ)

	try.To(json.Unmarshal(m.body, v))
	return nil
}

func (m *EndpointMessage) String() string {
	return fmt.Sprintf("[%s] %s id=%s thid=%s pthid=%s", m.dir, m.typ,
		m.id, m.thid, m.pthid)
}
