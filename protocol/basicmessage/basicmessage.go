/*
Package basicmessage is the RFC0095 Basic Message 1.0 protocol and its DIDComm
V2 preview. A message can be sent only over an ACTIVE connection. The message
ID is its thread ID and sending is fire and forget. The receiver can wait a
message with ExpectMessage and AwaitMessage by the (message type, connection
ID) future.

The V2 preview message can be sent as plaintext, signed or encrypted.
*/
package basicmessage

import (
	"context"
	"errors"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/packager"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/std/basicmessage"
	"github.com/findy-network/findy-exchange/std/decorator"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var (
	Key   = prot.Key[*Protocol]{URI: pltype.BasicMessageV1}
	KeyV2 = prot.Key[*Protocol]{URI: pltype.BasicMessageV2}
)

type Protocol struct {
	prot.Base
}

func init() {
	for _, uri := range []string{Key.URI, KeyV2.URI} {
		uri := uri
		prot.AddCreator(uri, func(s *prot.Service, x *mex.Exchange) prot.Protocol {
			return &Protocol{Base: prot.NewBase(uri, s, x)}
		})
	}
}

func (p *Protocol) InvokeMethod(ctx context.Context, to *ssi.Wallet, messageType string) (bool, error) {
	if messageType != p.messageType() {
		return false, didcomm.UnsupportedMessageType(messageType)
	}
	if err := p.receiveMessage(ctx, to, messageType); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Protocol) messageType() string {
	if p.ProtocolURI() == pltype.BasicMessageV2 {
		return pltype.BasicMessageV2Message
	}
	return pltype.BasicMessageV1Message
}

// SendMessage sends the content over the ACTIVE connection of the exchange.
// V1 messages are authcrypted and V2 messages are sent in plaintext.
func (p *Protocol) SendMessage(ctx context.Context, content string) (*Protocol, error) {
	if p.ProtocolURI() == pltype.BasicMessageV2 {
		return p.SendPlaintextMessage(ctx, content)
	}
	return p.send(ctx, content, packager.Authcrypt)
}

// SendPlaintextMessage sends the V2 message without protection.
func (p *Protocol) SendPlaintextMessage(ctx context.Context, content string) (*Protocol, error) {
	return p.send(ctx, content, packager.Plaintext)
}

// SendSignedMessage sends the V2 message signed with our key.
func (p *Protocol) SendSignedMessage(ctx context.Context, content string) (*Protocol, error) {
	return p.send(ctx, content, packager.Signed)
}

// SendEncryptedMessage sends the V2 message authcrypted.
func (p *Protocol) SendEncryptedMessage(ctx context.Context, content string) (*Protocol, error) {
	return p.send(ctx, content, packager.Authcrypt)
}

func (p *Protocol) send(ctx context.Context, content string, protection packager.Protection) (_ *Protocol, err error) {
	defer err2.Handle(&err, "send basic message (%s)", protection)

	w := try.To1(p.Wallet())
	conn := try.To1(p.Connection())
	try.To(conn.RequireState(psm.Active))

	id := utils.UUID()
	var msg any
	if p.ProtocolURI() == pltype.BasicMessageV2 {
		msg = &basicmessage.MessageV2{
			ID:          id,
			Type:        pltype.BasicMessageV2Message,
			Thid:        id,
			From:        conn.MyDID.Qualified(),
			To:          []string{conn.TheirDID.Qualified()},
			CreatedTime: time.Now().Unix(),
			Body:        basicmessage.BodyV2{Content: content},
		}
	} else {
		msg = &basicmessage.Basicmessage{
			Type:     pltype.BasicMessageV1Message,
			ID:       id,
			Thread:   decorator.NewThread(id, ""),
			Content:  content,
			SentTime: basicmessage.NewAriesTime(time.Now()),
		}
	}
	try.To1(p.SendTo(ctx, w, conn, msg, protection))
	return p, nil
}

// ExpectMessage places the future for the next message of the connection.
func (p *Protocol) ExpectMessage() (err error) {
	defer err2.Handle(&err, "expect basic message")

	conn := try.To1(p.Connection())
	return p.Exchange().PlaceFuture(p.messageType(), conn.ID)
}

// AwaitMessage waits the message placed with ExpectMessage.
func (p *Protocol) AwaitMessage(ctx context.Context, timeout time.Duration) (m *didcomm.EndpointMessage, err error) {
	defer err2.Handle(&err, "await basic message")

	conn := try.To1(p.Connection())
	return p.Await(ctx, mex.FutureKey{Type: p.messageType(), CorrID: conn.ID}, timeout)
}

// Content returns the content of the basic message of either version.
func Content(m *didcomm.EndpointMessage) (content string, err error) {
	defer err2.Handle(&err, "basic message content")

	switch m.Type() {
	case pltype.BasicMessageV1Message:
		var msg basicmessage.Basicmessage
		try.To(m.Decode(&msg))
		content = msg.Content
	case pltype.BasicMessageV2Message:
		var msg basicmessage.MessageV2
		try.To(m.Decode(&msg))
		content = msg.Body.Content
	default:
		return "", didcomm.InvalidMessageType(pltype.BasicMessageV1Message, m.Type())
	}
	if content == "" {
		return "", errors.New("empty content")
	}
	return content, nil
}

func (p *Protocol) receiveMessage(ctx context.Context, w *ssi.Wallet, messageType string) (err error) {
	defer err2.Handle(&err, "basic message")

	epm := try.To1(p.Inbound(ctx, messageType))
	content := try.To1(Content(epm))
	conn := try.To1(p.InboundConnection(ctx))

	p.Exchange().CompleteFuture(messageType, conn.ID, epm)
	glog.V(1).Infof("%s got message on %s: %s", w.Name(), conn.ID, content)
	return nil
}
