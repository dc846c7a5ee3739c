package connection

import (
	"context"
	"io"

	"github.com/findy-network/findy-exchange/agent/mex"
	"github.com/findy-network/findy-exchange/agent/psm"
	"github.com/findy-network/findy-exchange/agent/prot"
	"github.com/findy-network/findy-exchange/cmds"
	"github.com/findy-network/findy-exchange/protocol/trustping"
	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// TrustPingCmd pings the connection and waits the response. The connection
// is ACTIVE after a successful ping.
type TrustPingCmd struct {
	Cmd
}

func (c TrustPingCmd) Exec(w io.Writer) (r cmds.Result, err error) {
	return c.run(w, func(ctx context.Context, a *cmds.Agent, x *mex.Exchange, _ *psm.Connection) (_ string, err error) {
		defer err2.Handle(&err)

		ping := try.To1(prot.With(a.Svc, x, trustping.Key))
		try.To1(ping.SendPing(ctx))
		try.To1(ping.AwaitResponse(ctx, c.timeout()))
		return "pong", nil
	})
}
