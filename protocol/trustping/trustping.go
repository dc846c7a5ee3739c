/*
Package trustping is the RFC0048 Trust Ping 1.0 protocol. A ping needs a
connection which is at least COMPLETED. The pinger awaits the response by the
(ping_response type, connection ID) future, and both the pinger receiving the
response and the responder receiving the ping move the connection to ACTIVE.
*/
package trustping

import (
	"context"
	"time"

	"github.com/findy-network/findy-exchange/agent/didcomm"
	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/packager"
	"github.com/findy-network/findy-exchange/agent/pltype"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/ssi"
	"github.com/findy-network/findy-exchange/agent/utils"
	"github.com/findy-network/findy-exchange/std/decorator"
	"github.com/findy-network/findy-exchange/std/trustping"
	"github.com/golang/glog"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

var Key = prot.Key[*Protocol]{URI: pltype.TrustPingV1}

// PingSender is an agent backend which sends the pings itself, like the
// ACA-Py admin API does.
type PingSender interface {
	SendPing(ctx context.Context, connID, comment string) (threadID string, err error)
}

type Protocol struct {
	prot.Base
}

func init() {
	prot.AddCreator(Key.URI, func(s *prot.Service, x *mex.Exchange) prot.Protocol {
		return &Protocol{Base: prot.NewBase(Key.URI, s, x)}
	})
}

func (p *Protocol) InvokeMethod(ctx context.Context, to *ssi.Wallet, messageType string) (bool, error) {
	var err error
	switch messageType {
	case pltype.TrustPingPing:
		err = p.receivePing(ctx, to)
	case pltype.TrustPingResponse:
		err = p.receiveResponse(ctx, to)
	default:
		return false, didcomm.UnsupportedMessageType(messageType)
	}
	return err == nil, err
}

// SendPing sends the ping over the exchange's connection. The connection
// must be at least COMPLETED. The response future is placed before the ping
// is dispatched.
func (p *Protocol) SendPing(ctx context.Context) (_ *Protocol, err error) {
	defer err2.Handle(&err, "send trust ping")

	x := p.Exchange()
	w := try.To1(p.Wallet())
	conn := try.To1(p.Connection())
	try.To(conn.RequireAtLeast(psm.Completed))

	id := utils.UUID()
	ping := &trustping.Ping{
		Type:              pltype.TrustPingPing,
		ID:                id,
		Thread:            decorator.NewThread(id, ""),
		Comment:           pltype.TrustPingCommentHello + w.Name(),
		ResponseRequested: true,
	}

	if ps, ok := w.Backend().(PingSender); ok {
		return p.sendByBackend(ctx, ps, w, conn, ping)
	}

	try.To(x.PlaceFuture(pltype.TrustPingResponse, conn.ID))
	if _, err := p.SendTo(ctx, w, conn, ping, packager.Authcrypt); err != nil {
		x.RemoveFuture(pltype.TrustPingResponse, conn.ID)
		return nil, err
	}
	return p, nil
}

// sendByBackend lets the backend send the ping. The backend's
// acknowledgement is the response, and it completes the future.
func (p *Protocol) sendByBackend(
	ctx context.Context,
	ps PingSender,
	w *ssi.Wallet,
	conn *psm.Connection,
	ping *trustping.Ping,
) (
	_ *Protocol,
	err error,
) {
	x := p.Exchange()
	try.To(x.PlaceFuture(pltype.TrustPingResponse, conn.ID))
	// a future of a failed ping would block the next ones
	defer err2.Handle(&err, func(err error) error {
		x.RemoveFuture(pltype.TrustPingResponse, conn.ID)
		return err
	})

	thid := try.To1(ps.SendPing(ctx, conn.ID, ping.Comment))
	ping.ID, ping.Thread = thid, decorator.NewThread(thid, "")
	x.AddMessage(try.To1(didcomm.NewJSON(ping, didcomm.Outbound)))

	res := try.To1(didcomm.NewJSON(&trustping.Response{
		Type:   pltype.TrustPingResponse,
		ID:     utils.UUID(),
		Thread: decorator.NewThread(thid, ""),
	}, didcomm.Inbound))
	x.AddMessage(res)
	try.To(conn.SetState(psm.Active))
	try.To(w.SaveConnection(conn))
	x.CompleteFuture(pltype.TrustPingResponse, conn.ID, res)

	glog.V(1).Infof("%s pinged %s via %s", w.Name(), conn.ID, w.Backend().Type())
	return p, nil
}

// AwaitResponse waits the ping response of the connection.
func (p *Protocol) AwaitResponse(ctx context.Context, timeout time.Duration) (_ *Protocol, err error) {
	defer err2.Handle(&err, "await trust ping response")

	conn := try.To1(p.Connection())
	try.To1(p.Await(ctx, mex.FutureKey{Type: pltype.TrustPingResponse, CorrID: conn.ID}, timeout))
	return p, nil
}

// ExpectPing places the future for the next ping of the connection.
func (p *Protocol) ExpectPing() (err error) {
	defer err2.Handle(&err, "expect trust ping")

	conn := try.To1(p.Connection())
	return p.Exchange().PlaceFuture(pltype.TrustPingPing, conn.ID)
}

// AwaitPing waits the ping placed with ExpectPing.
func (p *Protocol) AwaitPing(ctx context.Context, timeout time.Duration) (m *didcomm.EndpointMessage, err error) {
	defer err2.Handle(&err, "await trust ping")

	conn := try.To1(p.Connection())
	return p.Await(ctx, mex.FutureKey{Type: pltype.TrustPingPing, CorrID: conn.ID}, timeout)
}

func (p *Protocol) receivePing(ctx context.Context, w *ssi.Wallet) (err error) {
	defer err2.Handle(&err, "trust ping")

	x := p.Exchange()
	epm := try.To1(p.Inbound(ctx, pltype.TrustPingPing))
	var ping trustping.Ping
	try.To(epm.Decode(&ping))
	conn := try.To1(p.InboundConnection(ctx))
	try.To(conn.RequireAtLeast(psm.Completed))

	try.To(conn.SetState(psm.Active))
	try.To(w.SaveConnection(conn))
	x.CompleteFuture(pltype.TrustPingPing, conn.ID, epm)

	if !ping.ResponseRequested {
		return nil
	}
	res := &trustping.Response{
		Type:    pltype.TrustPingResponse,
		ID:      utils.UUID(),
		Thread:  decorator.NewThread(epm.Thid(), ""),
		Timing:  decorator.NewOutTiming(time.Now()),
		Comment: pltype.TrustPingCommentHello + w.Name(),
	}
	try.To1(p.SendTo(ctx, w, conn, res, packager.Authcrypt))
	return nil
}

func (p *Protocol) receiveResponse(ctx context.Context, w *ssi.Wallet) (err error) {
	defer err2.Handle(&err, "trust ping response")

	x := p.Exchange()
	epm := try.To1(p.Inbound(ctx, pltype.TrustPingResponse))
	conn := try.To1(p.InboundConnection(ctx))
	try.To(conn.RequireAtLeast(psm.Completed))

	try.To(conn.SetState(psm.Active))
	try.To(w.SaveConnection(conn))
	if !x.CompleteFuture(pltype.TrustPingResponse, conn.ID, epm) {
		glog.V(1).Infoln("no one waits ping response of", conn.ID)
	}
	return nil
}
